package native

import (
	"fmt"
	"sync/atomic"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/readback"
	"github.com/gogpu/readback/format"
	"github.com/gogpu/wgpu/hal"
)

// Texture is a HAL texture with the descriptor readback plans against.
type Texture struct {
	dev    *Device
	raw    hal.Texture
	desc   readback.ResourceDescriptor
	format gputypes.TextureFormat

	// owned textures are destroyed on Release; wrapped ones are not.
	owned    bool
	released atomic.Bool
}

// Descriptor returns the shape of the texture.
func (t *Texture) Descriptor() readback.ResourceDescriptor { return t.desc }

// Raw returns the underlying HAL texture.
func (t *Texture) Raw() hal.Texture { return t.raw }

// Release destroys an owned texture once the GPU is done with it.
// It is safe to call more than once.
func (t *Texture) Release() {
	if !t.released.CompareAndSwap(false, true) || !t.owned {
		return
	}
	raw, dev := t.raw, t.dev.raw
	t.dev.retire(func() { dev.DestroyTexture(raw) })
}

func (t *Texture) String() string {
	return fmt.Sprintf("native %v texture %dx%dx%d %v ×%d",
		t.desc.Dimension, t.desc.Width, t.desc.Height, t.desc.DepthOrArraySize, t.desc.Format, t.desc.SampleCount)
}

// subresource decodes a plane-0 subresource index into mip and array layer.
func (t *Texture) subresource(sub uint32) (mip, layer uint32, ok bool) {
	mips, layers := t.desc.MipLevels, t.desc.ArraySize()
	if sub >= mips*layers {
		return 0, 0, false
	}
	return sub % mips, sub / mips, true
}

// view creates a single-subresource 2D view interpreted as f.
func (t *Texture) view(mip, layer uint32, f gputypes.TextureFormat) (hal.TextureView, error) {
	return t.dev.raw.CreateTextureView(t.raw, &hal.TextureViewDescriptor{
		Label:           fmt.Sprintf("readback mip %d layer %d", mip, layer),
		Format:          f,
		Dimension:       gputypes.TextureViewDimension2D,
		Aspect:          gputypes.TextureAspectAll,
		BaseMipLevel:    mip,
		MipLevelCount:   1,
		BaseArrayLayer:  layer,
		ArrayLayerCount: 1,
	})
}

// aspect returns the copy aspect: depth-only formats copy their depth
// aspect, everything else is copied whole.
func (t *Texture) aspect() gputypes.TextureAspect {
	if format.IsDepthStencil(t.desc.Format) {
		return gputypes.TextureAspectDepthOnly
	}
	return gputypes.TextureAspectAll
}
