package software

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gogpu/readback"
	"github.com/gogpu/readback/format"
	"github.com/gogpu/readback/internal/parallel"
)

// Software device errors.
var (
	// ErrDeviceRemoved is returned by Status, and by every call that needs
	// the device, once a command failed validation or Lose was called.
	ErrDeviceRemoved = errors.New("software: device removed")

	// ErrClosed is returned when the device or its queue has been closed.
	ErrClosed = errors.New("software: device closed")

	// ErrOutOfMemory is returned when an allocation exceeds the memory budget.
	ErrOutOfMemory = errors.New("software: out of memory")

	// ErrNotMappable is returned when mapping a texture that is not host-visible.
	ErrNotMappable = errors.New("software: texture is not host-visible")

	// ErrReleased is returned when using a released resource.
	ErrReleased = errors.New("software: resource released")

	// ErrForeignResource is returned for resources created by another device.
	ErrForeignResource = errors.New("software: resource belongs to another device")

	// ErrContextState is returned when a command context is used out of order.
	ErrContextState = errors.New("software: command context in wrong state")

	// ErrStateMismatch is returned when a command finds a texture in an
	// unexpected resource state.
	ErrStateMismatch = errors.New("software: resource state mismatch")

	// ErrDataSize is returned when uploaded data does not match a subresource.
	ErrDataSize = errors.New("software: data size does not match subresource")
)

// Option configures a Device.
type Option func(*config)

type config struct {
	limits       readback.Limits
	latency      time.Duration
	polledFences bool
	planeCount   func(format.Format) int
	budget       uint64
	workers      int
}

func defaultConfig() config {
	return config{limits: readback.DefaultLimits()}
}

// WithLimits sets the limits host-visible textures are laid out with.
// Captures of host-visible textures map them in place, so this must match
// the limits of the Capturer reading them.
func WithLimits(l readback.Limits) Option {
	return func(c *config) {
		c.limits = l
	}
}

// WithLatency delays every submission on the timeline by d.
func WithLatency(d time.Duration) Option {
	return func(c *config) {
		c.latency = d
	}
}

// WithPolledFences makes CreateFence return fences that can only be
// polled, as on APIs without fence events.
func WithPolledFences() Option {
	return func(c *config) {
		c.polledFences = true
	}
}

// WithPlaneCount overrides the plane count the device reports per format.
func WithPlaneCount(fn func(format.Format) int) Option {
	return func(c *config) {
		c.planeCount = fn
	}
}

// WithMemoryBudget caps the bytes of live textures and buffers.
// Zero means unlimited.
func WithMemoryBudget(n uint64) Option {
	return func(c *config) {
		c.budget = n
	}
}

// WithWorkers sets the number of goroutines resolves are spread over.
// Zero or negative means GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(c *config) {
		c.workers = n
	}
}

// Device is a CPU implementation of readback.DeviceAPI.
//
// Device is safe for concurrent use.
type Device struct {
	cfg   config
	queue *Queue
	pool  *parallel.Pool

	mu        sync.Mutex
	allocated uint64

	removed  atomic.Pointer[error]
	lost     chan struct{}
	lostOnce sync.Once
}

// NewDevice creates a software device and starts its timeline.
// Call Close to stop it.
func NewDevice(opts ...Option) *Device {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	d := &Device{cfg: cfg, pool: parallel.NewPool(cfg.workers), lost: make(chan struct{})}
	d.queue = newQueue(d)
	return d
}

// Queue returns the device's queue.
func (d *Device) Queue() *Queue {
	return d.queue
}

// Close stops the timeline after it has executed all submitted work.
// It is safe to call more than once.
func (d *Device) Close() {
	d.queue.close()
}

// SetLogger sets the logger used by the software backend.
func (d *Device) SetLogger(l *slog.Logger) {
	setLogger(l)
}

// Lose removes the device. Pending work is dropped, fences report the
// all-ones value and waits fail.
func (d *Device) Lose(reason error) {
	if reason == nil {
		reason = errors.New("lost")
	}
	err := fmt.Errorf("%w: %w", ErrDeviceRemoved, reason)
	if d.removed.CompareAndSwap(nil, &err) {
		slogger().Warn("software: device removed", "reason", reason)
	}
	d.lostOnce.Do(func() { close(d.lost) })
}

// Status returns nil while the device is usable, or the removal reason.
func (d *Device) Status() error {
	if p := d.removed.Load(); p != nil {
		return *p
	}
	return nil
}

// PlaneCount returns the number of planes of f.
func (d *Device) PlaneCount(f format.Format) int {
	if d.cfg.planeCount != nil {
		return d.cfg.planeCount(f)
	}
	return format.PlaneCount(f)
}

// FormatSupport reports what the software device can do with f.
func (d *Device) FormatSupport(f format.Format) readback.FormatSupport {
	if !f.IsValid() {
		return 0
	}
	var s readback.FormatSupport
	if !format.IsTypeless(f) {
		s |= readback.FormatSupportTexture2D
	}
	switch {
	case format.IsTypeless(f), format.IsCompressed(f), format.IsPlanar(f), f == format.YUY2:
	case format.IsDepthStencil(f):
		s |= readback.FormatSupportMultisample
	default:
		s |= readback.FormatSupportRenderTarget | readback.FormatSupportMultisample
	}
	if _, ok := componentKinds[f]; ok {
		s |= readback.FormatSupportMultisampleResolve
	}
	return s
}

// CreateBuffer allocates a zeroed buffer.
func (d *Device) CreateBuffer(desc readback.BufferDescriptor) (readback.Buffer, error) {
	if err := d.Status(); err != nil {
		return nil, err
	}
	if err := d.reserve(desc.Size); err != nil {
		return nil, err
	}
	return &Buffer{dev: d, label: desc.Label, data: make([]byte, desc.Size)}, nil
}

// CreateTexture allocates a device-local texture in the given state.
func (d *Device) CreateTexture(desc readback.ResourceDescriptor, initial readback.ResourceState) (readback.Texture, error) {
	t, err := d.newTexture(desc, initial, false)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// NewTexture allocates a device-local texture in the given state.
func (d *Device) NewTexture(desc readback.ResourceDescriptor, initial readback.ResourceState) (*Texture, error) {
	return d.newTexture(desc, initial, false)
}

// NewHostTexture allocates a single-sample texture in host-readable
// memory, laid out with the device limits. Captures map it in place.
func (d *Device) NewHostTexture(desc readback.ResourceDescriptor) (*Texture, error) {
	return d.newTexture(desc, readback.StateCommon, true)
}

// CreateCommandContext returns an empty recording context.
func (d *Device) CreateCommandContext(label string) (readback.CommandContextAPI, error) {
	if err := d.Status(); err != nil {
		return nil, err
	}
	return &CommandContext{dev: d, label: label}, nil
}

// CreateFence returns a fence starting at initial.
func (d *Device) CreateFence(initial uint64) (readback.FenceAPI, error) {
	if err := d.Status(); err != nil {
		return nil, err
	}
	f := newFence(d, initial)
	if d.cfg.polledFences {
		return polledFence{f: f}, nil
	}
	return f, nil
}

func (d *Device) reserve(n uint64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cfg.budget > 0 && (n > d.cfg.budget || d.allocated > d.cfg.budget-n) {
		return fmt.Errorf("%w: %d bytes requested, %d of %d in use",
			ErrOutOfMemory, n, d.allocated, d.cfg.budget)
	}
	d.allocated += n
	return nil
}

func (d *Device) unreserve(n uint64) {
	d.mu.Lock()
	d.allocated -= n
	d.mu.Unlock()
}

// Allocated returns the bytes held by live textures and buffers.
func (d *Device) Allocated() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.allocated
}

// fault removes the device after a command failed on the timeline.
func (d *Device) fault(err error) {
	slogger().Error("software: command failed", "err", err)
	d.Lose(err)
}
