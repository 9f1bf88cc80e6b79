package format

import (
	"errors"
	"fmt"
)

// ErrUnknownFormat is returned when a pitch is requested for Unknown or an
// unrecognized format value.
var ErrUnknownFormat = errors.New("format: unknown format")

// Pitch returns the unpadded byte length of one row of plane 0 and the
// number of rows of plane 0 for an image of width × height texels.
//
// Block-compressed formats count rows of 4×4 blocks. Planar formats
// describe the luma plane; the chroma plane is derived from it by the
// caller according to LayoutOf.
func Pitch(f Format, width, height uint32) (rowBytes uint64, rows uint32, err error) {
	in, ok := lookup(f)
	if !ok {
		return 0, 0, fmt.Errorf("%w: %v", ErrUnknownFormat, f)
	}
	w, h := uint64(width), height

	switch {
	case in.flags&flagCompressed != 0:
		return max(1, (w+3)/4) * uint64(in.block), max(1, (h+3)/4), nil

	case in.flags&flagPacked != 0:
		// 4:2:2 packs two texels into one macro-pixel.
		return ((w + 1) >> 1) * uint64(in.bits/8) * 2, h, nil

	case in.flags&flagPlanar != 0:
		switch in.layout {
		case PlaneLayout411:
			return ((w + 3) >> 2) * 4, h, nil
		default:
			return ((w + 1) >> 1) * 2 * uint64(in.bits/8), h, nil
		}

	default:
		return (w*uint64(in.bits) + 7) / 8, h, nil
	}
}

// MipExtent returns the size of dimension n at the given mip level,
// clamped to 1.
func MipExtent(n uint32, mip uint32) uint32 {
	if mip >= 32 {
		return 1
	}
	return max(1, n>>mip)
}

// MaxMipLevels returns the length of a full mip chain for the largest of
// the given dimensions.
func MaxMipLevels(dims ...uint32) uint32 {
	var largest uint32
	for _, d := range dims {
		largest = max(largest, d)
	}
	levels := uint32(1)
	for largest > 1 {
		largest >>= 1
		levels++
	}
	return levels
}
