package readback

import (
	"errors"
	"testing"

	"github.com/gogpu/readback/format"
)

func TestAdjustPlane(t *testing.T) {
	tests := []struct {
		name   string
		layout format.PlaneLayout
		plane  int
		base   uint64
		pitch  uint64
		height uint32
		want   PlaneRegion
	}{
		{"Plane0", format.PlaneLayout420, 0, 512, 256, 11, PlaneRegion{Offset: 512, Pitch: 256, Size: 2816}},
		{"Plane0Single", format.PlaneLayoutSingle, 0, 0, 64, 4, PlaneRegion{Offset: 0, Pitch: 64, Size: 256}},
		{"420OddHeight", format.PlaneLayout420, 1, 0, 256, 11, PlaneRegion{Offset: 2816, Pitch: 256, Size: 1536}},
		{"420EvenHeight", format.PlaneLayout420, 1, 100, 256, 8, PlaneRegion{Offset: 2148, Pitch: 256, Size: 1024}},
		{"411", format.PlaneLayout411, 1, 0, 256, 11, PlaneRegion{Offset: 2816, Pitch: 128, Size: 1408}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AdjustPlane(tt.layout, tt.plane, tt.base, tt.pitch, tt.height)
			if err != nil {
				t.Fatalf("AdjustPlane() = %v", err)
			}
			if got != tt.want {
				t.Errorf("AdjustPlane() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestAdjustPlaneInvalid(t *testing.T) {
	tests := []struct {
		name   string
		layout format.PlaneLayout
		plane  int
	}{
		{"Plane2", format.PlaneLayout420, 2},
		{"NegativePlane", format.PlaneLayout420, -1},
		{"SingleLayoutPlane1", format.PlaneLayoutSingle, 1},
		{"DepthStencilPlane1", format.PlaneLayoutDepthStencil, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := AdjustPlane(tt.layout, tt.plane, 0, 256, 4); !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("AdjustPlane() error = %v, want ErrInvalidArgument", err)
			}
		})
	}
}
