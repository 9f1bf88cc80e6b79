package native

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/readback"
	"github.com/gogpu/readback/format"
	"github.com/gogpu/wgpu/hal"
)

// FormatCapabilities reports per-format capabilities. hal.Adapter
// implements it.
type FormatCapabilities interface {
	TextureFormatCapabilities(f gputypes.TextureFormat) hal.TextureFormatCapabilities
}

// Device adapts a HAL device and queue to readback.DeviceAPI.
type Device struct {
	raw   hal.Device
	queue *Queue
	caps  FormatCapabilities

	mu      sync.Mutex
	retired []retiredResource

	lost atomic.Pointer[error]
}

// retiredResource is freed once the queue completes submission after.
type retiredResource struct {
	after uint64
	free  func()
}

// New wraps a HAL device and its queue. caps may be nil, in which case
// WebGPU default format capabilities are assumed.
func New(dev hal.Device, queue hal.Queue, caps FormatCapabilities) (*Device, error) {
	if dev == nil {
		return nil, ErrNilDevice
	}
	if queue == nil {
		return nil, ErrNilQueue
	}
	if caps == nil {
		slogger().Warn("native: no adapter capabilities, assuming WebGPU defaults")
		caps = defaultCapabilities{}
	}
	d := &Device{raw: dev, caps: caps}
	d.queue = &Queue{dev: d, raw: queue}
	return d, nil
}

// Raw returns the underlying HAL device.
func (d *Device) Raw() hal.Device { return d.raw }

// Queue returns the device queue.
func (d *Device) Queue() *Queue { return d.queue }

// SetLogger sets the logger of the native backend.
func (d *Device) SetLogger(l *slog.Logger) { setLogger(l) }

// Status returns nil while the device is usable.
func (d *Device) Status() error {
	if p := d.lost.Load(); p != nil {
		return *p
	}
	return nil
}

// check marks the device lost when err reports a lost HAL device.
func (d *Device) check(err error) {
	if err == nil || !errors.Is(err, hal.ErrDeviceLost) {
		return
	}
	wrapped := fmt.Errorf("%w: %w", ErrDeviceLost, err)
	if d.lost.CompareAndSwap(nil, &wrapped) {
		slogger().Error("native: device lost", "err", err)
	}
}

// PlaneCount returns the plane count of f, or 0 if WebGPU cannot
// represent f.
func (d *Device) PlaneCount(f format.Format) int {
	if _, ok := format.ToGPUTypes(f); !ok {
		return 0
	}
	return format.PlaneCount(f)
}

// FormatSupport translates the adapter capabilities of f.
func (d *Device) FormatSupport(f format.Format) readback.FormatSupport {
	g, ok := format.ToGPUTypes(f)
	if !ok {
		return 0
	}
	flags := d.caps.TextureFormatCapabilities(g).Flags

	var s readback.FormatSupport
	if flags&hal.TextureFormatCapabilitySampled != 0 {
		s |= readback.FormatSupportTexture2D
	}
	if flags&hal.TextureFormatCapabilityRenderAttachment != 0 {
		s |= readback.FormatSupportRenderTarget
	}
	if flags&hal.TextureFormatCapabilityMultisample != 0 {
		s |= readback.FormatSupportMultisample
	}
	if flags&hal.TextureFormatCapabilityMultisampleResolve != 0 {
		s |= readback.FormatSupportMultisampleResolve
	}
	return s
}

// CreateBuffer allocates a MapRead|CopyDst buffer.
func (d *Device) CreateBuffer(desc readback.BufferDescriptor) (readback.Buffer, error) {
	if err := d.Status(); err != nil {
		return nil, err
	}
	raw, err := d.raw.CreateBuffer(&hal.BufferDescriptor{
		Label: desc.Label,
		Size:  desc.Size,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		d.check(err)
		return nil, fmt.Errorf("native: create buffer %q (%d bytes): %w", desc.Label, desc.Size, err)
	}
	return &Buffer{dev: d, raw: raw, label: desc.Label, size: desc.Size}, nil
}

// CreateTexture allocates a texture usable as a resolve target and copy
// source. WebGPU tracks usage implicitly, so the initial state only
// documents intent.
func (d *Device) CreateTexture(desc readback.ResourceDescriptor, _ readback.ResourceState) (readback.Texture, error) {
	return d.NewTexture("readback resolve", desc,
		gputypes.TextureUsageRenderAttachment|gputypes.TextureUsageCopySrc|gputypes.TextureUsageTextureBinding)
}

// NewTexture allocates a texture owned by the returned handle.
func (d *Device) NewTexture(label string, desc readback.ResourceDescriptor, usage gputypes.TextureUsage) (*Texture, error) {
	if err := d.Status(); err != nil {
		return nil, err
	}
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	g, ok := format.ToGPUTypes(desc.Format)
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrFormatUnavailable, desc.Format)
	}
	raw, err := d.raw.CreateTexture(&hal.TextureDescriptor{
		Label: label,
		Size: hal.Extent3D{
			Width:              desc.Width,
			Height:             desc.Height,
			DepthOrArrayLayers: desc.DepthOrArraySize,
		},
		MipLevelCount: desc.MipLevels,
		SampleCount:   desc.SampleCount,
		Dimension:     textureDimension(desc.Dimension),
		Format:        g,
		Usage:         usage,
	})
	if err != nil {
		d.check(err)
		return nil, fmt.Errorf("native: create texture %q: %w", label, err)
	}
	return &Texture{dev: d, raw: raw, desc: desc, format: g, owned: true}, nil
}

// WrapTexture wraps an existing HAL texture described by desc. The caller
// keeps ownership: Release on the returned handle does not destroy it.
func (d *Device) WrapTexture(raw hal.Texture, desc readback.ResourceDescriptor) (*Texture, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: nil texture", readback.ErrInvalidArgument)
	}
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	g, ok := format.ToGPUTypes(desc.Format)
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrFormatUnavailable, desc.Format)
	}
	return &Texture{dev: d, raw: raw, desc: desc, format: g}, nil
}

// CreateCommandContext begins encoding on a new HAL command encoder.
func (d *Device) CreateCommandContext(label string) (readback.CommandContextAPI, error) {
	if err := d.Status(); err != nil {
		return nil, err
	}
	d.reclaim()

	enc, err := d.raw.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: label})
	if err != nil {
		d.check(err)
		return nil, fmt.Errorf("native: create command encoder %q: %w", label, err)
	}
	if err := enc.BeginEncoding(label); err != nil {
		enc.Destroy()
		d.check(err)
		return nil, fmt.Errorf("native: begin encoding %q: %w", label, err)
	}
	return &CommandContext{dev: d, label: label, enc: enc}, nil
}

// CreateFence returns a timeline fence on the device queue.
func (d *Device) CreateFence(initial uint64) (readback.FenceAPI, error) {
	if err := d.Status(); err != nil {
		return nil, err
	}
	return &Fence{dev: d, value: initial}, nil
}

// retire frees a resource once the GPU is done with everything submitted
// so far.
func (d *Device) retire(free func()) {
	after := d.queue.lastSubmitted()
	if d.Status() != nil || d.queue.raw.PollCompleted() >= after {
		free()
		return
	}
	d.mu.Lock()
	d.retired = append(d.retired, retiredResource{after: after, free: free})
	d.mu.Unlock()
}

// reclaim frees retired resources whose submissions have completed.
func (d *Device) reclaim() {
	done := d.queue.raw.PollCompleted()
	lost := d.Status() != nil

	d.mu.Lock()
	var ready []func()
	keep := d.retired[:0]
	for _, r := range d.retired {
		if lost || r.after <= done {
			ready = append(ready, r.free)
		} else {
			keep = append(keep, r)
		}
	}
	clear(d.retired[len(keep):])
	d.retired = keep
	d.mu.Unlock()

	for _, free := range ready {
		free()
	}
}

// Pending returns the number of released resources still waiting for the GPU.
func (d *Device) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.retired)
}

// Close waits for the GPU to go idle and frees retired resources. The HAL
// device itself stays owned by the caller.
func (d *Device) Close() error {
	err := d.raw.WaitIdle()
	if err != nil {
		d.check(err)
		slogger().Warn("native: wait idle failed", "err", err)
	}

	d.mu.Lock()
	retired := d.retired
	d.retired = nil
	d.mu.Unlock()
	for _, r := range retired {
		r.free()
	}
	return err
}

func textureDimension(d readback.Dimension) gputypes.TextureDimension {
	switch d {
	case readback.Dimension1D:
		return gputypes.TextureDimension1D
	case readback.Dimension3D:
		return gputypes.TextureDimension3D
	default:
		return gputypes.TextureDimension2D
	}
}

// defaultCapabilities approximates the WebGPU guaranteed format features.
type defaultCapabilities struct{}

func (defaultCapabilities) TextureFormatCapabilities(g gputypes.TextureFormat) hal.TextureFormatCapabilities {
	f, ok := format.FromGPUTypes(g)
	if !ok {
		return hal.TextureFormatCapabilities{}
	}
	flags := hal.TextureFormatCapabilitySampled
	switch {
	case format.IsCompressed(f):
	case format.IsDepthStencil(f):
		flags |= hal.TextureFormatCapabilityRenderAttachment | hal.TextureFormatCapabilityMultisample
	case format.IsInteger(f):
		flags |= hal.TextureFormatCapabilityRenderAttachment
	case f == format.R32Float || f == format.RG32Float || f == format.RGBA32Float:
		// 32-bit float resolve needs the float32-filterable feature.
		flags |= hal.TextureFormatCapabilityRenderAttachment
	default:
		flags |= hal.TextureFormatCapabilityRenderAttachment |
			hal.TextureFormatCapabilityMultisample |
			hal.TextureFormatCapabilityMultisampleResolve
	}
	return hal.TextureFormatCapabilities{Flags: flags}
}
