package format

import "github.com/gogpu/gputypes"

var toGPU = map[Format]gputypes.TextureFormat{
	RGBA32Float: gputypes.TextureFormatRGBA32Float,
	RGBA32Uint:  gputypes.TextureFormatRGBA32Uint,
	RGBA32Sint:  gputypes.TextureFormatRGBA32Sint,

	RG32Float: gputypes.TextureFormatRG32Float,
	RG32Uint:  gputypes.TextureFormatRG32Uint,
	RG32Sint:  gputypes.TextureFormatRG32Sint,

	RGBA16Float: gputypes.TextureFormatRGBA16Float,
	RGBA16Unorm: gputypes.TextureFormatRGBA16Unorm,
	RGBA16Uint:  gputypes.TextureFormatRGBA16Uint,
	RGBA16Snorm: gputypes.TextureFormatRGBA16Snorm,
	RGBA16Sint:  gputypes.TextureFormatRGBA16Sint,

	RGB10A2Unorm: gputypes.TextureFormatRGB10A2Unorm,
	RGB10A2Uint:  gputypes.TextureFormatRGB10A2Uint,
	RG11B10Float: gputypes.TextureFormatRG11B10Ufloat,

	RGBA8Unorm:     gputypes.TextureFormatRGBA8Unorm,
	RGBA8UnormSRGB: gputypes.TextureFormatRGBA8UnormSrgb,
	RGBA8Uint:      gputypes.TextureFormatRGBA8Uint,
	RGBA8Snorm:     gputypes.TextureFormatRGBA8Snorm,
	RGBA8Sint:      gputypes.TextureFormatRGBA8Sint,

	BGRA8Unorm:     gputypes.TextureFormatBGRA8Unorm,
	BGRA8UnormSRGB: gputypes.TextureFormatBGRA8UnormSrgb,

	RG16Float: gputypes.TextureFormatRG16Float,
	RG16Unorm: gputypes.TextureFormatRG16Unorm,
	RG16Uint:  gputypes.TextureFormatRG16Uint,
	RG16Snorm: gputypes.TextureFormatRG16Snorm,
	RG16Sint:  gputypes.TextureFormatRG16Sint,

	D32Float: gputypes.TextureFormatDepth32Float,
	R32Float: gputypes.TextureFormatR32Float,
	R32Uint:  gputypes.TextureFormatR32Uint,
	R32Sint:  gputypes.TextureFormatR32Sint,

	D24UnormS8Uint:    gputypes.TextureFormatDepth24PlusStencil8,
	D32FloatS8X24Uint: gputypes.TextureFormatDepth32FloatStencil8,

	RG8Unorm: gputypes.TextureFormatRG8Unorm,
	RG8Uint:  gputypes.TextureFormatRG8Uint,
	RG8Snorm: gputypes.TextureFormatRG8Snorm,
	RG8Sint:  gputypes.TextureFormatRG8Sint,

	R16Float: gputypes.TextureFormatR16Float,
	D16Unorm: gputypes.TextureFormatDepth16Unorm,
	R16Unorm: gputypes.TextureFormatR16Unorm,
	R16Uint:  gputypes.TextureFormatR16Uint,
	R16Snorm: gputypes.TextureFormatR16Snorm,
	R16Sint:  gputypes.TextureFormatR16Sint,

	R8Unorm: gputypes.TextureFormatR8Unorm,
	R8Uint:  gputypes.TextureFormatR8Uint,
	R8Snorm: gputypes.TextureFormatR8Snorm,
	R8Sint:  gputypes.TextureFormatR8Sint,

	BC1Unorm:     gputypes.TextureFormatBC1RGBAUnorm,
	BC1UnormSRGB: gputypes.TextureFormatBC1RGBAUnormSrgb,
	BC2Unorm:     gputypes.TextureFormatBC2RGBAUnorm,
	BC2UnormSRGB: gputypes.TextureFormatBC2RGBAUnormSrgb,
	BC3Unorm:     gputypes.TextureFormatBC3RGBAUnorm,
	BC3UnormSRGB: gputypes.TextureFormatBC3RGBAUnormSrgb,
	BC4Unorm:     gputypes.TextureFormatBC4RUnorm,
	BC4Snorm:     gputypes.TextureFormatBC4RSnorm,
	BC5Unorm:     gputypes.TextureFormatBC5RGUnorm,
	BC5Snorm:     gputypes.TextureFormatBC5RGSnorm,
	BC6HUF16:     gputypes.TextureFormatBC6HRGBUfloat,
	BC6HSF16:     gputypes.TextureFormatBC6HRGBFloat,
	BC7Unorm:     gputypes.TextureFormatBC7RGBAUnorm,
	BC7UnormSRGB: gputypes.TextureFormatBC7RGBAUnormSrgb,
}

var fromGPU = func() map[gputypes.TextureFormat]Format {
	m := make(map[gputypes.TextureFormat]Format, len(toGPU))
	for f, g := range toGPU {
		m[g] = f
	}
	return m
}()

// ToGPUTypes returns the gputypes equivalent of f. Typeless and planar
// formats have no WebGPU counterpart and report false.
func ToGPUTypes(f Format) (gputypes.TextureFormat, bool) {
	g, ok := toGPU[f]
	return g, ok
}

// FromGPUTypes returns the Format for a gputypes texture format.
func FromGPUTypes(g gputypes.TextureFormat) (Format, bool) {
	f, ok := fromGPU[g]
	return f, ok
}
