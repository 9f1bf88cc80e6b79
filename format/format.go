// Package format holds the pixel-format tables used by readback.
//
// Every query here is a pure lookup: plane counts, plane layouts,
// depth/stencil classification, typeless resolution and pitch math do not
// depend on any device state. Device-specific capabilities (whether a
// format can be sampled or resolved) are asked through readback.DeviceAPI.
package format

import "fmt"

// Format identifies a texel layout. The set mirrors what GPU APIs expose
// for copyable textures, including typeless families and multi-planar
// video formats that gputypes has no equivalent for.
type Format uint32

const (
	Unknown Format = iota

	RGBA32Typeless
	RGBA32Float
	RGBA32Uint
	RGBA32Sint

	RG32Typeless
	RG32Float
	RG32Uint
	RG32Sint

	RGBA16Typeless
	RGBA16Float
	RGBA16Unorm
	RGBA16Uint
	RGBA16Snorm
	RGBA16Sint

	RGB10A2Typeless
	RGB10A2Unorm
	RGB10A2Uint
	RG11B10Float

	RGBA8Typeless
	RGBA8Unorm
	RGBA8UnormSRGB
	RGBA8Uint
	RGBA8Snorm
	RGBA8Sint

	BGRA8Typeless
	BGRA8Unorm
	BGRA8UnormSRGB

	RG16Typeless
	RG16Float
	RG16Unorm
	RG16Uint
	RG16Snorm
	RG16Sint

	R32Typeless
	D32Float
	R32Float
	R32Uint
	R32Sint

	R24G8Typeless
	D24UnormS8Uint
	R24UnormX8Typeless
	X24TypelessG8Uint

	R32G8X24Typeless
	D32FloatS8X24Uint
	R32FloatX8X24Typeless
	X32TypelessG8X24Uint

	RG8Typeless
	RG8Unorm
	RG8Uint
	RG8Snorm
	RG8Sint

	R16Typeless
	R16Float
	D16Unorm
	R16Unorm
	R16Uint
	R16Snorm
	R16Sint

	R8Typeless
	R8Unorm
	R8Uint
	R8Snorm
	R8Sint

	BC1Typeless
	BC1Unorm
	BC1UnormSRGB
	BC2Typeless
	BC2Unorm
	BC2UnormSRGB
	BC3Typeless
	BC3Unorm
	BC3UnormSRGB
	BC4Typeless
	BC4Unorm
	BC4Snorm
	BC5Typeless
	BC5Unorm
	BC5Snorm
	BC6HTypeless
	BC6HUF16
	BC6HSF16
	BC7Typeless
	BC7Unorm
	BC7UnormSRGB

	// YUY2 is packed 4:2:2; it has a single plane.
	YUY2

	// NV12 is 8-bit 4:2:0 with a luma plane and an interleaved chroma plane.
	NV12
	// P010 is 10-bit 4:2:0 stored in 16-bit words.
	P010
	// P016 is 16-bit 4:2:0.
	P016
	// Opaque420 is a driver-defined 4:2:0 layout copied like NV12.
	Opaque420
	// NV11 is 8-bit 4:1:1 with a half-pitch chroma plane.
	NV11

	formatCount
)

// PlaneLayout describes how the planes of a multi-planar format are
// arranged relative to plane 0.
type PlaneLayout int

const (
	// PlaneLayoutSingle is a format with one plane.
	PlaneLayoutSingle PlaneLayout = iota
	// PlaneLayout420 stacks a chroma plane with the same pitch and half
	// the rows below the luma plane.
	PlaneLayout420
	// PlaneLayout411 stacks a chroma plane with half the pitch and the
	// full row count below the luma plane.
	PlaneLayout411
	// PlaneLayoutDepthStencil separates depth and stencil into planes.
	PlaneLayoutDepthStencil
)

// String returns the string representation of PlaneLayout.
func (l PlaneLayout) String() string {
	switch l {
	case PlaneLayoutSingle:
		return "Single"
	case PlaneLayout420:
		return "4:2:0"
	case PlaneLayout411:
		return "4:1:1"
	case PlaneLayoutDepthStencil:
		return "DepthStencil"
	default:
		return fmt.Sprintf("PlaneLayout(%d)", int(l))
	}
}

type flags uint16

const (
	flagTypeless flags = 1 << iota
	flagDepth
	flagStencil
	flagCompressed
	flagPlanar
	flagPacked
	flagSRGB
	flagInteger
)

type info struct {
	name   string
	bits   uint16 // bits per texel, or per luma sample for planar formats
	block  uint16 // bytes per 4x4 block for compressed formats
	flags  flags
	layout PlaneLayout
	unorm  Format // typeless → UNORM interpretation
	float  Format // typeless → FLOAT interpretation
}

var infos = [formatCount]info{
	Unknown: {name: "Unknown"},

	RGBA32Typeless: {name: "RGBA32Typeless", bits: 128, flags: flagTypeless, float: RGBA32Float},
	RGBA32Float:    {name: "RGBA32Float", bits: 128},
	RGBA32Uint:     {name: "RGBA32Uint", bits: 128, flags: flagInteger},
	RGBA32Sint:     {name: "RGBA32Sint", bits: 128, flags: flagInteger},

	RG32Typeless: {name: "RG32Typeless", bits: 64, flags: flagTypeless, float: RG32Float},
	RG32Float:    {name: "RG32Float", bits: 64},
	RG32Uint:     {name: "RG32Uint", bits: 64, flags: flagInteger},
	RG32Sint:     {name: "RG32Sint", bits: 64, flags: flagInteger},

	RGBA16Typeless: {name: "RGBA16Typeless", bits: 64, flags: flagTypeless, unorm: RGBA16Unorm, float: RGBA16Float},
	RGBA16Float:    {name: "RGBA16Float", bits: 64},
	RGBA16Unorm:    {name: "RGBA16Unorm", bits: 64},
	RGBA16Uint:     {name: "RGBA16Uint", bits: 64, flags: flagInteger},
	RGBA16Snorm:    {name: "RGBA16Snorm", bits: 64},
	RGBA16Sint:     {name: "RGBA16Sint", bits: 64, flags: flagInteger},

	RGB10A2Typeless: {name: "RGB10A2Typeless", bits: 32, flags: flagTypeless, unorm: RGB10A2Unorm},
	RGB10A2Unorm:    {name: "RGB10A2Unorm", bits: 32},
	RGB10A2Uint:     {name: "RGB10A2Uint", bits: 32, flags: flagInteger},
	RG11B10Float:    {name: "RG11B10Float", bits: 32},

	RGBA8Typeless:  {name: "RGBA8Typeless", bits: 32, flags: flagTypeless, unorm: RGBA8Unorm},
	RGBA8Unorm:     {name: "RGBA8Unorm", bits: 32},
	RGBA8UnormSRGB: {name: "RGBA8UnormSRGB", bits: 32, flags: flagSRGB},
	RGBA8Uint:      {name: "RGBA8Uint", bits: 32, flags: flagInteger},
	RGBA8Snorm:     {name: "RGBA8Snorm", bits: 32},
	RGBA8Sint:      {name: "RGBA8Sint", bits: 32, flags: flagInteger},

	BGRA8Typeless:  {name: "BGRA8Typeless", bits: 32, flags: flagTypeless, unorm: BGRA8Unorm},
	BGRA8Unorm:     {name: "BGRA8Unorm", bits: 32},
	BGRA8UnormSRGB: {name: "BGRA8UnormSRGB", bits: 32, flags: flagSRGB},

	RG16Typeless: {name: "RG16Typeless", bits: 32, flags: flagTypeless, unorm: RG16Unorm, float: RG16Float},
	RG16Float:    {name: "RG16Float", bits: 32},
	RG16Unorm:    {name: "RG16Unorm", bits: 32},
	RG16Uint:     {name: "RG16Uint", bits: 32, flags: flagInteger},
	RG16Snorm:    {name: "RG16Snorm", bits: 32},
	RG16Sint:     {name: "RG16Sint", bits: 32, flags: flagInteger},

	R32Typeless: {name: "R32Typeless", bits: 32, flags: flagTypeless, float: R32Float},
	D32Float:    {name: "D32Float", bits: 32, flags: flagDepth},
	R32Float:    {name: "R32Float", bits: 32},
	R32Uint:     {name: "R32Uint", bits: 32, flags: flagInteger},
	R32Sint:     {name: "R32Sint", bits: 32, flags: flagInteger},

	R24G8Typeless:      {name: "R24G8Typeless", bits: 32, flags: flagTypeless | flagDepth | flagStencil, layout: PlaneLayoutDepthStencil},
	D24UnormS8Uint:     {name: "D24UnormS8Uint", bits: 32, flags: flagDepth | flagStencil, layout: PlaneLayoutDepthStencil},
	R24UnormX8Typeless: {name: "R24UnormX8Typeless", bits: 32, flags: flagTypeless | flagDepth | flagStencil, layout: PlaneLayoutDepthStencil},
	X24TypelessG8Uint:  {name: "X24TypelessG8Uint", bits: 32, flags: flagTypeless | flagDepth | flagStencil, layout: PlaneLayoutDepthStencil},

	R32G8X24Typeless:      {name: "R32G8X24Typeless", bits: 64, flags: flagTypeless | flagDepth | flagStencil, layout: PlaneLayoutDepthStencil},
	D32FloatS8X24Uint:     {name: "D32FloatS8X24Uint", bits: 64, flags: flagDepth | flagStencil, layout: PlaneLayoutDepthStencil},
	R32FloatX8X24Typeless: {name: "R32FloatX8X24Typeless", bits: 64, flags: flagTypeless | flagDepth | flagStencil, layout: PlaneLayoutDepthStencil},
	X32TypelessG8X24Uint:  {name: "X32TypelessG8X24Uint", bits: 64, flags: flagTypeless | flagDepth | flagStencil, layout: PlaneLayoutDepthStencil},

	RG8Typeless: {name: "RG8Typeless", bits: 16, flags: flagTypeless, unorm: RG8Unorm},
	RG8Unorm:    {name: "RG8Unorm", bits: 16},
	RG8Uint:     {name: "RG8Uint", bits: 16, flags: flagInteger},
	RG8Snorm:    {name: "RG8Snorm", bits: 16},
	RG8Sint:     {name: "RG8Sint", bits: 16, flags: flagInteger},

	R16Typeless: {name: "R16Typeless", bits: 16, flags: flagTypeless, unorm: R16Unorm, float: R16Float},
	R16Float:    {name: "R16Float", bits: 16},
	D16Unorm:    {name: "D16Unorm", bits: 16, flags: flagDepth},
	R16Unorm:    {name: "R16Unorm", bits: 16},
	R16Uint:     {name: "R16Uint", bits: 16, flags: flagInteger},
	R16Snorm:    {name: "R16Snorm", bits: 16},
	R16Sint:     {name: "R16Sint", bits: 16, flags: flagInteger},

	R8Typeless: {name: "R8Typeless", bits: 8, flags: flagTypeless, unorm: R8Unorm},
	R8Unorm:    {name: "R8Unorm", bits: 8},
	R8Uint:     {name: "R8Uint", bits: 8, flags: flagInteger},
	R8Snorm:    {name: "R8Snorm", bits: 8},
	R8Sint:     {name: "R8Sint", bits: 8, flags: flagInteger},

	BC1Typeless:  {name: "BC1Typeless", bits: 4, block: 8, flags: flagTypeless | flagCompressed, unorm: BC1Unorm},
	BC1Unorm:     {name: "BC1Unorm", bits: 4, block: 8, flags: flagCompressed},
	BC1UnormSRGB: {name: "BC1UnormSRGB", bits: 4, block: 8, flags: flagCompressed | flagSRGB},
	BC2Typeless:  {name: "BC2Typeless", bits: 8, block: 16, flags: flagTypeless | flagCompressed, unorm: BC2Unorm},
	BC2Unorm:     {name: "BC2Unorm", bits: 8, block: 16, flags: flagCompressed},
	BC2UnormSRGB: {name: "BC2UnormSRGB", bits: 8, block: 16, flags: flagCompressed | flagSRGB},
	BC3Typeless:  {name: "BC3Typeless", bits: 8, block: 16, flags: flagTypeless | flagCompressed, unorm: BC3Unorm},
	BC3Unorm:     {name: "BC3Unorm", bits: 8, block: 16, flags: flagCompressed},
	BC3UnormSRGB: {name: "BC3UnormSRGB", bits: 8, block: 16, flags: flagCompressed | flagSRGB},
	BC4Typeless:  {name: "BC4Typeless", bits: 4, block: 8, flags: flagTypeless | flagCompressed, unorm: BC4Unorm},
	BC4Unorm:     {name: "BC4Unorm", bits: 4, block: 8, flags: flagCompressed},
	BC4Snorm:     {name: "BC4Snorm", bits: 4, block: 8, flags: flagCompressed},
	BC5Typeless:  {name: "BC5Typeless", bits: 8, block: 16, flags: flagTypeless | flagCompressed, unorm: BC5Unorm},
	BC5Unorm:     {name: "BC5Unorm", bits: 8, block: 16, flags: flagCompressed},
	BC5Snorm:     {name: "BC5Snorm", bits: 8, block: 16, flags: flagCompressed},
	BC6HTypeless: {name: "BC6HTypeless", bits: 8, block: 16, flags: flagTypeless | flagCompressed},
	BC6HUF16:     {name: "BC6HUF16", bits: 8, block: 16, flags: flagCompressed},
	BC6HSF16:     {name: "BC6HSF16", bits: 8, block: 16, flags: flagCompressed},
	BC7Typeless:  {name: "BC7Typeless", bits: 8, block: 16, flags: flagTypeless | flagCompressed, unorm: BC7Unorm},
	BC7Unorm:     {name: "BC7Unorm", bits: 8, block: 16, flags: flagCompressed},
	BC7UnormSRGB: {name: "BC7UnormSRGB", bits: 8, block: 16, flags: flagCompressed | flagSRGB},

	YUY2: {name: "YUY2", bits: 16, flags: flagPacked},

	NV12:      {name: "NV12", bits: 8, flags: flagPlanar, layout: PlaneLayout420},
	P010:      {name: "P010", bits: 16, flags: flagPlanar, layout: PlaneLayout420},
	P016:      {name: "P016", bits: 16, flags: flagPlanar, layout: PlaneLayout420},
	Opaque420: {name: "Opaque420", bits: 8, flags: flagPlanar, layout: PlaneLayout420},
	NV11:      {name: "NV11", bits: 8, flags: flagPlanar, layout: PlaneLayout411},
}

func lookup(f Format) (info, bool) {
	if f == Unknown || f >= formatCount {
		return info{}, false
	}
	return infos[f], true
}

// String returns the format name.
func (f Format) String() string {
	if f < formatCount {
		return infos[f].name
	}
	return fmt.Sprintf("Format(%d)", uint32(f))
}

// IsValid reports whether f is a known, non-Unknown format.
func (f Format) IsValid() bool {
	_, ok := lookup(f)
	return ok
}

// PlaneCount returns the number of planes of f, or 0 for Unknown and
// unrecognized values. Depth formats with a stencil component and the
// planar video formats have two planes.
func PlaneCount(f Format) int {
	in, ok := lookup(f)
	if !ok {
		return 0
	}
	if in.layout != PlaneLayoutSingle {
		return 2
	}
	return 1
}

// LayoutOf returns the plane arrangement of f.
func LayoutOf(f Format) PlaneLayout {
	in, _ := lookup(f)
	return in.layout
}

// IsDepthStencil reports whether f stores depth and/or stencil data,
// including the typeless families that alias a depth format.
func IsDepthStencil(f Format) bool {
	in, _ := lookup(f)
	return in.flags&(flagDepth|flagStencil) != 0
}

// IsTypeless reports whether f has no intrinsic numeric interpretation.
func IsTypeless(f Format) bool {
	in, _ := lookup(f)
	return in.flags&flagTypeless != 0
}

// IsCompressed reports whether f is block compressed.
func IsCompressed(f Format) bool {
	in, _ := lookup(f)
	return in.flags&flagCompressed != 0
}

// IsPlanar reports whether f is a multi-planar video format.
func IsPlanar(f Format) bool {
	in, _ := lookup(f)
	return in.flags&flagPlanar != 0
}

// IsInteger reports whether f stores unnormalized integers. Integer
// formats cannot be multisample resolved.
func IsInteger(f Format) bool {
	in, _ := lookup(f)
	return in.flags&flagInteger != 0
}

// IsSRGB reports whether f stores sRGB-encoded color.
func IsSRGB(f Format) bool {
	in, _ := lookup(f)
	return in.flags&flagSRGB != 0
}

// BitsPerPixel returns the storage bits per texel. For planar formats it
// is the size of one luma sample; for block-compressed formats the
// amortized bits per texel.
func BitsPerPixel(f Format) int {
	in, _ := lookup(f)
	return int(in.bits)
}

// TypelessUNORM returns the UNORM interpretation of a typeless format.
// Formats that are not typeless, or have no UNORM member, return f
// unchanged and false.
func TypelessUNORM(f Format) (Format, bool) {
	in, _ := lookup(f)
	if in.flags&flagTypeless == 0 || in.unorm == Unknown {
		return f, false
	}
	return in.unorm, true
}

// TypelessFLOAT returns the floating-point interpretation of a typeless
// format. Formats that are not typeless, or have no FLOAT member, return
// f unchanged and false.
func TypelessFLOAT(f Format) (Format, bool) {
	in, _ := lookup(f)
	if in.flags&flagTypeless == 0 || in.float == Unknown {
		return f, false
	}
	return in.float, true
}
