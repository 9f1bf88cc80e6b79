package readback

import (
	"errors"
	"testing"

	"github.com/gogpu/readback/format"
)

func TestResourceDescriptorValidate(t *testing.T) {
	ok := tex2D(16, 16, 1, 5, format.RGBA8Unorm)

	tests := []struct {
		name   string
		mutate func(d *ResourceDescriptor)
		valid  bool
	}{
		{"Valid", func(*ResourceDescriptor) {}, true},
		{"UnknownDimension", func(d *ResourceDescriptor) { d.Dimension = DimensionUnknown }, false},
		{"ZeroWidth", func(d *ResourceDescriptor) { d.Width = 0 }, false},
		{"ZeroArraySize", func(d *ResourceDescriptor) { d.DepthOrArraySize = 0 }, false},
		{"ZeroSamples", func(d *ResourceDescriptor) { d.SampleCount = 0 }, false},
		{"TooManyMips", func(d *ResourceDescriptor) { d.MipLevels = 6 }, false},
		{"1DWithHeight", func(d *ResourceDescriptor) { d.Dimension = Dimension1D }, false},
		{"1D", func(d *ResourceDescriptor) { d.Dimension, d.Height = Dimension1D, 1 }, true},
		{"3DMultisampled", func(d *ResourceDescriptor) { d.Dimension, d.SampleCount = Dimension3D, 4 }, false},
		{"3DDeepChain", func(d *ResourceDescriptor) {
			d.Dimension, d.Width, d.Height, d.DepthOrArraySize, d.MipLevels = Dimension3D, 2, 2, 64, 7
		}, true},
		{"2DArrayIgnoresDepthForMips", func(d *ResourceDescriptor) {
			d.Width, d.Height, d.DepthOrArraySize, d.MipLevels = 2, 2, 64, 7
		}, false},
		{"Multisampled", func(d *ResourceDescriptor) { d.SampleCount, d.MipLevels = 8, 1 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := ok
			tt.mutate(&d)
			err := d.Validate()
			if tt.valid && err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
			if !tt.valid && !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("Validate() = %v, want ErrInvalidArgument", err)
			}
		})
	}
}

func TestResourceDescriptorShape(t *testing.T) {
	arr := tex2D(4, 4, 6, 1, format.RGBA8Unorm)
	if arr.ArraySize() != 6 || arr.Depth() != 1 {
		t.Errorf("2D array: ArraySize %d Depth %d, want 6 1", arr.ArraySize(), arr.Depth())
	}
	vol := arr
	vol.Dimension = Dimension3D
	if vol.ArraySize() != 1 || vol.Depth() != 6 {
		t.Errorf("3D: ArraySize %d Depth %d, want 1 6", vol.ArraySize(), vol.Depth())
	}
	if arr.Multisampled() {
		t.Error("single-sample descriptor reports Multisampled")
	}
}

func TestResourceStateString(t *testing.T) {
	tests := []struct {
		s    ResourceState
		want string
	}{
		{StateCommon, "Common"},
		{StateCopySource, "CopySource"},
		{StateCopySource | StateShaderResource, "ShaderResource|CopySource"},
		{ResourceState(1 << 30), "0x40000000"},
	}
	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("ResourceState(%#x).String() = %q, want %q", uint32(tt.s), got, tt.want)
		}
	}
}

func TestDimensionString(t *testing.T) {
	if got := Dimension3D.String(); got != "3D" {
		t.Errorf("Dimension3D.String() = %q", got)
	}
	if got := Dimension(9).String(); got != "Dimension(9)" {
		t.Errorf("Dimension(9).String() = %q", got)
	}
}
