package native

import (
	"fmt"
	"math"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/readback"
	"github.com/gogpu/readback/format"
	"github.com/gogpu/wgpu/hal"
)

type encoderState int

const (
	encoderRecording encoderState = iota
	encoderFinished
	encoderConsumed
	encoderReleased
)

func (s encoderState) String() string {
	switch s {
	case encoderRecording:
		return "recording"
	case encoderFinished:
		return "finished"
	case encoderConsumed:
		return "consumed"
	default:
		return "released"
	}
}

// CommandContext records readback commands directly into a HAL command
// encoder.
//
// Recording errors are deferred: the first one is returned by Close, and
// the encoding is discarded. CommandContext is NOT safe for concurrent use.
type CommandContext struct {
	dev   *Device
	label string
	enc   hal.CommandEncoder

	mu     sync.Mutex
	state  encoderState
	err    error
	cmdBuf hal.CommandBuffer

	// views created for resolve passes, destroyed on Release.
	views []hal.TextureView
}

// Barrier records a texture usage transition covering every subresource.
func (c *CommandContext) Barrier(t readback.Texture, before, after readback.ResourceState) {
	tex, err := c.texture(t)
	if err != nil {
		c.fail(err)
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.recordingLocked() {
		return
	}
	c.enc.TransitionTextures([]hal.TextureBarrier{{
		Texture: tex.raw,
		Range: hal.TextureRange{
			Aspect:          gputypes.TextureAspectAll,
			MipLevelCount:   tex.desc.MipLevels,
			ArrayLayerCount: tex.desc.ArraySize(),
		},
		Usage: hal.TextureUsageTransition{
			OldUsage: usageOf(before),
			NewUsage: usageOf(after),
		},
	}})
}

// Resolve records a render pass that loads subresource srcSub of src and
// resolves it into subresource dstSub of dst.
func (c *CommandContext) Resolve(dst readback.Texture, dstSub uint32, src readback.Texture, srcSub uint32, f format.Format) {
	d, err := c.texture(dst)
	if err != nil {
		c.fail(err)
		return
	}
	s, err := c.texture(src)
	if err != nil {
		c.fail(err)
		return
	}
	g, ok := format.ToGPUTypes(f)
	if !ok {
		c.fail(fmt.Errorf("%w: resolve as %v", ErrFormatUnavailable, f))
		return
	}
	srcMip, srcLayer, ok := s.subresource(srcSub)
	if !ok {
		c.fail(fmt.Errorf("%w: source subresource %d of %v", ErrInvalidSubresource, srcSub, s))
		return
	}
	dstMip, dstLayer, ok := d.subresource(dstSub)
	if !ok {
		c.fail(fmt.Errorf("%w: destination subresource %d of %v", ErrInvalidSubresource, dstSub, d))
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.recordingLocked() {
		return
	}
	srcView, err := s.view(srcMip, srcLayer, g)
	if err != nil {
		c.failLocked(fmt.Errorf("native: resolve source view: %w", err))
		return
	}
	c.views = append(c.views, srcView)
	dstView, err := d.view(dstMip, dstLayer, g)
	if err != nil {
		c.failLocked(fmt.Errorf("native: resolve target view: %w", err))
		return
	}
	c.views = append(c.views, dstView)

	pass := c.enc.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: c.label + " resolve",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:          srcView,
			ResolveTarget: dstView,
			LoadOp:        gputypes.LoadOpLoad,
			StoreOp:       gputypes.StoreOpStore,
		}},
	})
	pass.End()
}

// CopyTextureToBuffer records a copy of the subresource fp describes into
// dst at fp.Offset.
func (c *CommandContext) CopyTextureToBuffer(dst readback.Buffer, fp readback.Footprint, src readback.Texture) {
	buf, ok := dst.(*Buffer)
	if !ok || buf == nil || buf.dev != c.dev {
		c.fail(fmt.Errorf("%w: buffer %T", ErrForeignResource, dst))
		return
	}
	s, err := c.texture(src)
	if err != nil {
		c.fail(err)
		return
	}
	region, err := copyRegion(s, fp)
	if err != nil {
		c.fail(err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.recordingLocked() {
		return
	}
	c.enc.CopyTextureToBuffer(s.raw, buf.raw, []hal.BufferTextureCopy{region})
}

// copyRegion translates a footprint into a WebGPU buffer-texture copy.
func copyRegion(t *Texture, fp readback.Footprint) (hal.BufferTextureCopy, error) {
	if fp.Plane != 0 {
		return hal.BufferTextureCopy{}, fmt.Errorf("%w: plane %d of %v", ErrInvalidSubresource, fp.Plane, t)
	}
	if fp.Mip >= t.desc.MipLevels || fp.Slice >= t.desc.ArraySize() {
		return hal.BufferTextureCopy{}, fmt.Errorf("%w: mip %d slice %d of %v", ErrInvalidSubresource, fp.Mip, fp.Slice, t)
	}
	if fp.RowPitch > math.MaxUint32 {
		return hal.BufferTextureCopy{}, fmt.Errorf("%w: %d", ErrRowPitchTooLarge, fp.RowPitch)
	}

	width, height := fp.Width, fp.Height
	if format.IsCompressed(t.desc.Format) {
		width, height = roundUp4(width), roundUp4(height)
	}
	origin := hal.Origin3D{}
	if t.desc.Dimension != readback.Dimension3D {
		origin.Z = fp.Slice
	}
	return hal.BufferTextureCopy{
		BufferLayout: hal.ImageDataLayout{
			Offset:       fp.Offset,
			BytesPerRow:  uint32(fp.RowPitch),
			RowsPerImage: fp.RowCount,
		},
		TextureBase: hal.ImageCopyTexture{
			Texture:  t.raw,
			MipLevel: fp.Mip,
			Origin:   origin,
			Aspect:   t.aspect(),
		},
		Size: hal.Extent3D{
			Width:              width,
			Height:             height,
			DepthOrArrayLayers: fp.Depth,
		},
	}, nil
}

func roundUp4(n uint32) uint32 { return (n + 3) &^ 3 }

// Close finishes encoding. It returns the first recording error, in
// which case the encoding is discarded and the context cannot be submitted.
func (c *CommandContext) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != encoderRecording {
		return fmt.Errorf("%w: close in state %v", ErrEncoderFinished, c.state)
	}
	c.state = encoderFinished
	if c.err != nil {
		c.enc.DiscardEncoding()
		return c.err
	}
	cb, err := c.enc.EndEncoding()
	if err != nil {
		c.dev.check(err)
		c.err = fmt.Errorf("native: end encoding %q: %w", c.label, err)
		return c.err
	}
	c.cmdBuf = cb
	return nil
}

// Release frees the encoder, its command buffer and its views once the GPU
// is done with them. It is safe to call more than once.
func (c *CommandContext) Release() {
	c.mu.Lock()
	if c.state == encoderReleased {
		c.mu.Unlock()
		return
	}
	if c.state == encoderRecording {
		c.enc.DiscardEncoding()
	}
	c.state = encoderReleased
	enc, cb, views := c.enc, c.cmdBuf, c.views
	c.cmdBuf, c.views = nil, nil
	c.mu.Unlock()

	dev := c.dev.raw
	c.dev.retire(func() {
		if cb != nil {
			dev.FreeCommandBuffer(cb)
		}
		for _, v := range views {
			dev.DestroyTextureView(v)
		}
		enc.Destroy()
	})
}

// consume hands the finished command buffer to the queue exactly once.
func (c *CommandContext) consume() (hal.CommandBuffer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case encoderRecording:
		return nil, fmt.Errorf("%w: %q submitted before Close", ErrEncoderFinished, c.label)
	case encoderConsumed:
		return nil, fmt.Errorf("%w: %q", ErrEncoderConsumed, c.label)
	case encoderReleased:
		return nil, fmt.Errorf("%w: %q", ErrReleased, c.label)
	}
	if c.err != nil {
		return nil, c.err
	}
	c.state = encoderConsumed
	return c.cmdBuf, nil
}

func (c *CommandContext) texture(t readback.Texture) (*Texture, error) {
	tex, ok := t.(*Texture)
	if !ok || tex == nil || tex.dev != c.dev {
		return nil, fmt.Errorf("%w: texture %T", ErrForeignResource, t)
	}
	if tex.released.Load() {
		return nil, fmt.Errorf("%w: %v", ErrReleased, tex)
	}
	return tex, nil
}

// recordingLocked reports whether commands may be recorded, deferring an
// error otherwise.
func (c *CommandContext) recordingLocked() bool {
	if c.state == encoderRecording && c.err == nil {
		return true
	}
	if c.state != encoderRecording {
		c.failLocked(fmt.Errorf("%w: state %v", ErrEncoderNotRecording, c.state))
	}
	return false
}

func (c *CommandContext) fail(err error) {
	c.mu.Lock()
	c.failLocked(err)
	c.mu.Unlock()
}

func (c *CommandContext) failLocked(err error) {
	if c.err == nil {
		c.err = err
	}
}

// usageOf maps resource states onto WebGPU texture usages.
func usageOf(s readback.ResourceState) gputypes.TextureUsage {
	var u gputypes.TextureUsage
	if s&(readback.StateRenderTarget|readback.StateResolveSource|readback.StateResolveDest|
		readback.StateDepthWrite|readback.StateDepthRead) != 0 {
		u |= gputypes.TextureUsageRenderAttachment
	}
	if s&readback.StateShaderResource != 0 {
		u |= gputypes.TextureUsageTextureBinding
	}
	if s&readback.StateUnorderedAccess != 0 {
		u |= gputypes.TextureUsageStorageBinding
	}
	if s&readback.StateCopySource != 0 {
		u |= gputypes.TextureUsageCopySrc
	}
	if s&readback.StateCopyDest != 0 {
		u |= gputypes.TextureUsageCopyDst
	}
	return u
}
