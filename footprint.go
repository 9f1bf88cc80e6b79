package readback

import (
	"fmt"
	"math"
	"math/bits"

	"github.com/gogpu/readback/format"
)

const (
	// DefaultRowPitchAlignment is the row pitch alignment required for
	// texture-to-buffer copies by D3D12 and WebGPU.
	DefaultRowPitchAlignment = 256

	// DefaultMaxSubresources is the D3D12 limit on subresources per resource.
	DefaultMaxSubresources = 30720
)

// Limits are the device constants the planner works against.
type Limits struct {
	// RowPitchAlignment is the alignment every row pitch is rounded up to.
	RowPitchAlignment uint64

	// MaxSubresources caps the number of footprints per resource.
	MaxSubresources uint32

	// MaxBufferSize caps the total staging size. Zero means unlimited.
	MaxBufferSize uint64
}

// DefaultLimits returns the limits used when no options override them.
func DefaultLimits() Limits {
	return Limits{
		RowPitchAlignment: DefaultRowPitchAlignment,
		MaxSubresources:   DefaultMaxSubresources,
	}
}

// Footprint is the byte layout of one subresource inside a staging buffer.
type Footprint struct {
	// Subresource is the flat index; see SubresourceIndex.
	Subresource uint32
	Plane       uint32
	Slice       uint32
	Mip         uint32

	// Offset is the byte offset of the first row of the first depth slice.
	Offset uint64

	// RowPitch is the aligned distance between rows.
	RowPitch uint64

	// SlicePitch is RowPitch × RowCount, the distance between depth slices.
	SlicePitch uint64

	// RowCount is the number of rows per depth slice (block rows for
	// compressed formats).
	RowCount uint32

	// RowBytes is the meaningful payload of each row; the remainder up
	// to RowPitch is padding.
	RowBytes uint64

	// Width, Height and Depth are the texel extent of the subresource.
	// Depth is 1 except for 3D textures.
	Width  uint32
	Height uint32
	Depth  uint32
}

// Size returns the number of bytes the footprint occupies.
func (fp Footprint) Size() uint64 {
	return fp.SlicePitch * uint64(fp.Depth)
}

// End returns the offset one past the last byte of the footprint.
func (fp Footprint) End() uint64 {
	return fp.Offset + fp.Size()
}

// Layout is the ordered footprint table of a resource.
type Layout struct {
	Footprints []Footprint
	TotalSize  uint64
}

// Find returns the footprint of a subresource.
func (l Layout) Find(mip, slice, plane uint32) (Footprint, bool) {
	for _, fp := range l.Footprints {
		if fp.Mip == mip && fp.Slice == slice && fp.Plane == plane {
			return fp, true
		}
	}
	return Footprint{}, false
}

// SubresourceCount returns the number of footprints a resource needs:
// arraySize × mipLevels × planeCount, with the array collapsed for 3D.
func SubresourceCount(desc ResourceDescriptor, planeCount int) uint64 {
	return uint64(desc.ArraySize()) * uint64(desc.MipLevels) * uint64(max(planeCount, 0))
}

// PlanFootprints computes the footprint table of desc for a format with
// planeCount planes.
//
// Footprints are emitted in subresource-index order, back to back, so they
// are strictly ordered by offset and their union is exactly [0, TotalSize).
func PlanFootprints(desc ResourceDescriptor, planeCount int, limits Limits) (Layout, error) {
	if err := desc.Validate(); err != nil {
		return Layout{}, err
	}
	if err := checkPlanes(desc.Format, planeCount); err != nil {
		return Layout{}, err
	}

	count := SubresourceCount(desc, planeCount)
	if limits.MaxSubresources > 0 && count > uint64(limits.MaxSubresources) {
		return Layout{}, fmt.Errorf("%w: %d subresources, limit %d",
			ErrResourceLimitExceeded, count, limits.MaxSubresources)
	}
	if count > math.MaxInt32 {
		return Layout{}, fmt.Errorf("%w: footprint table of %d entries", ErrAllocationFailure, count)
	}

	align := max(limits.RowPitchAlignment, 1)
	layout := format.LayoutOf(desc.Format)
	arraySize := desc.ArraySize()

	l := Layout{Footprints: make([]Footprint, 0, int(count))}
	var offset uint64
	for plane := uint32(0); plane < uint32(planeCount); plane++ {
		for slice := uint32(0); slice < arraySize; slice++ {
			for mip := uint32(0); mip < desc.MipLevels; mip++ {
				fp, err := planFootprint(desc, layout, plane, slice, mip, align)
				if err != nil {
					return Layout{}, err
				}
				fp.Subresource = SubresourceIndex(mip, slice, plane, desc.MipLevels, arraySize)
				fp.Offset = offset

				var carry uint64
				offset, carry = bits.Add64(offset, fp.Size(), 0)
				if carry != 0 {
					return Layout{}, fmt.Errorf("%w: staging size overflows", ErrAllocationFailure)
				}
				l.Footprints = append(l.Footprints, fp)
			}
		}
	}
	l.TotalSize = offset

	if limits.MaxBufferSize > 0 && l.TotalSize > limits.MaxBufferSize {
		return Layout{}, fmt.Errorf("%w: staging size %d exceeds limit %d",
			ErrAllocationFailure, l.TotalSize, limits.MaxBufferSize)
	}
	return l, nil
}

func checkPlanes(f format.Format, planeCount int) error {
	switch {
	case planeCount <= 0:
		return fmt.Errorf("%w: %v has no planes", ErrUnsupportedFormat, f)
	case planeCount == 1:
		return nil
	case format.IsDepthStencil(f):
		return fmt.Errorf("%w: %v has %d planes; planar depth/stencil copies are not supported",
			ErrUnsupportedFormat, f, planeCount)
	case planeCount > 2:
		return fmt.Errorf("%w: %v has %d planes", ErrUnsupportedFormat, f, planeCount)
	}
	switch format.LayoutOf(f) {
	case format.PlaneLayout420, format.PlaneLayout411:
		return nil
	}
	return fmt.Errorf("%w: %v reports %d planes but has no plane layout", ErrUnsupportedFormat, f, planeCount)
}

func planFootprint(desc ResourceDescriptor, layout format.PlaneLayout, plane, slice, mip uint32, align uint64) (Footprint, error) {
	w := format.MipExtent(desc.Width, mip)
	h := format.MipExtent(desc.Height, mip)
	d := uint32(1)
	if desc.Dimension == Dimension3D {
		d = format.MipExtent(desc.DepthOrArraySize, mip)
	}

	rowBytes, rows, err := format.Pitch(desc.Format, w, h)
	if err != nil {
		return Footprint{}, fmt.Errorf("%w: %w", ErrUnsupportedFormat, err)
	}
	rowBytes, rows, err = planeShape(layout, int(plane), rowBytes, rows)
	if err != nil {
		return Footprint{}, fmt.Errorf("%w: %w", ErrUnsupportedFormat, err)
	}

	rowPitch, ok := alignUp(rowBytes, align)
	if !ok {
		return Footprint{}, fmt.Errorf("%w: row pitch overflows", ErrAllocationFailure)
	}
	hi, slicePitch := bits.Mul64(rowPitch, uint64(rows))
	if hi != 0 {
		return Footprint{}, fmt.Errorf("%w: slice pitch overflows", ErrAllocationFailure)
	}
	if hi, _ := bits.Mul64(slicePitch, uint64(d)); hi != 0 {
		return Footprint{}, fmt.Errorf("%w: subresource size overflows", ErrAllocationFailure)
	}

	return Footprint{
		Plane:      plane,
		Slice:      slice,
		Mip:        mip,
		RowPitch:   rowPitch,
		SlicePitch: slicePitch,
		RowCount:   rows,
		RowBytes:   rowBytes,
		Width:      w,
		Height:     h,
		Depth:      d,
	}, nil
}

// alignUp rounds n up to a multiple of align.
func alignUp(n, align uint64) (uint64, bool) {
	r := n % align
	if r == 0 {
		return n, true
	}
	sum, carry := bits.Add64(n, align-r, 0)
	return sum, carry == 0
}
