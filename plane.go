package readback

import (
	"fmt"

	"github.com/gogpu/readback/format"
)

// PlaneRegion locates one plane inside a staging arena.
type PlaneRegion struct {
	Offset uint64
	Pitch  uint64
	Size   uint64
}

// AdjustPlane derives the region of a plane from the region of plane 0,
// which starts at base with the given pitch and height rows.
//
//   - plane 0 is returned unchanged.
//   - plane 1 of a 4:2:0 layout follows plane 0 with the same pitch and
//     (height+1)>>1 rows.
//   - plane 1 of a 4:1:1 layout follows plane 0 with half the pitch and
//     the full height.
//
// Any other plane index returns ErrInvalidArgument.
func AdjustPlane(layout format.PlaneLayout, plane int, base, pitch uint64, height uint32) (PlaneRegion, error) {
	h := uint64(height)
	switch {
	case plane == 0:
		return PlaneRegion{Offset: base, Pitch: pitch, Size: pitch * h}, nil

	case plane == 1 && layout == format.PlaneLayout420:
		return PlaneRegion{
			Offset: base + pitch*h,
			Pitch:  pitch,
			Size:   pitch * ((h + 1) >> 1),
		}, nil

	case plane == 1 && layout == format.PlaneLayout411:
		half := pitch >> 1
		return PlaneRegion{
			Offset: base + pitch*h,
			Pitch:  half,
			Size:   half * h,
		}, nil
	}
	return PlaneRegion{}, fmt.Errorf("%w: plane %d of %v layout", ErrInvalidArgument, plane, layout)
}

// planeShape returns the unpadded row length and row count of a plane
// given those of plane 0. It reuses AdjustPlane so that the planner and
// readers of tightly packed images agree on plane geometry.
func planeShape(layout format.PlaneLayout, plane int, rowBytes uint64, rows uint32) (uint64, uint32, error) {
	if plane == 0 {
		return rowBytes, rows, nil
	}
	r, err := AdjustPlane(layout, plane, 0, rowBytes, rows)
	if err != nil {
		return 0, 0, err
	}
	if r.Pitch == 0 {
		return 0, 0, nil
	}
	return r.Pitch, uint32(r.Size / r.Pitch), nil
}
