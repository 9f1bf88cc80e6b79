package readback

import (
	"fmt"

	"github.com/gogpu/readback/format"
)

// Dimension is the dimensionality of a texture resource.
type Dimension int

const (
	// DimensionUnknown is an invalid dimension.
	DimensionUnknown Dimension = iota
	// Dimension1D is a 1D texture or 1D texture array.
	Dimension1D
	// Dimension2D is a 2D texture or 2D texture array, including cube maps.
	Dimension2D
	// Dimension3D is a volume texture.
	Dimension3D
)

// String returns the string representation of Dimension.
func (d Dimension) String() string {
	switch d {
	case Dimension1D:
		return "1D"
	case Dimension2D:
		return "2D"
	case Dimension3D:
		return "3D"
	default:
		return fmt.Sprintf("Dimension(%d)", int(d))
	}
}

// ResourceDescriptor describes a texture resource.
type ResourceDescriptor struct {
	Dimension Dimension
	Width     uint32
	Height    uint32

	// DepthOrArraySize is the depth of a 3D texture or the array size of
	// a 1D/2D texture.
	DepthOrArraySize uint32

	MipLevels   uint32
	Format      format.Format
	SampleCount uint32
}

// Validate checks the structural invariants of d. It does not check the
// format; unsupported formats are reported by the planner.
func (d ResourceDescriptor) Validate() error {
	switch d.Dimension {
	case Dimension1D, Dimension2D, Dimension3D:
	default:
		return fmt.Errorf("%w: dimension %v", ErrInvalidArgument, d.Dimension)
	}
	if d.Width == 0 || d.Height == 0 || d.DepthOrArraySize == 0 || d.MipLevels == 0 || d.SampleCount == 0 {
		return fmt.Errorf("%w: zero count in descriptor %+v", ErrInvalidArgument, d)
	}
	if d.Dimension == Dimension1D && d.Height != 1 {
		return fmt.Errorf("%w: 1D texture with height %d", ErrInvalidArgument, d.Height)
	}
	if d.Dimension == Dimension3D && d.SampleCount > 1 {
		return fmt.Errorf("%w: multisampled 3D texture", ErrInvalidArgument)
	}

	dims := []uint32{d.Width, d.Height}
	if d.Dimension == Dimension3D {
		dims = append(dims, d.DepthOrArraySize)
	}
	if limit := format.MaxMipLevels(dims...); d.MipLevels > limit {
		return fmt.Errorf("%w: %d mip levels, chain length is %d", ErrInvalidArgument, d.MipLevels, limit)
	}
	return nil
}

// ArraySize returns the number of array slices; 3D textures have one.
func (d ResourceDescriptor) ArraySize() uint32 {
	if d.Dimension == Dimension3D {
		return 1
	}
	return d.DepthOrArraySize
}

// Depth returns the depth of mip 0; 1D and 2D textures have depth 1.
func (d ResourceDescriptor) Depth() uint32 {
	if d.Dimension == Dimension3D {
		return d.DepthOrArraySize
	}
	return 1
}

// Multisampled reports whether d has more than one sample per pixel.
func (d ResourceDescriptor) Multisampled() bool {
	return d.SampleCount > 1
}

// SubresourceIndex returns the flat index of a subresource:
// mip + slice*mipLevels + plane*mipLevels*arraySize.
func SubresourceIndex(mip, slice, plane, mipLevels, arraySize uint32) uint32 {
	return mip + slice*mipLevels + plane*mipLevels*arraySize
}
