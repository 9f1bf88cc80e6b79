package native

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/gogpu/wgpu/hal"
)

// Buffer is a host-readable HAL buffer.
type Buffer struct {
	dev   *Device
	raw   hal.Buffer
	label string
	size  uint64

	mu       sync.Mutex
	mapped   bool
	released bool
}

// Size returns the buffer size in bytes.
func (b *Buffer) Size() uint64 { return b.size }

// Raw returns the underlying HAL buffer.
func (b *Buffer) Raw() hal.Buffer { return b.raw }

// Map maps the whole buffer. The GPU must have finished writing to it.
func (b *Buffer) Map() ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.released {
		return nil, ErrReleased
	}
	m, err := b.dev.raw.MapBuffer(b.raw, 0, b.size)
	if err != nil {
		b.dev.check(err)
		return nil, fmt.Errorf("native: map buffer %q: %w", b.label, err)
	}
	if m.Ptr == nil {
		return nil, fmt.Errorf("native: map buffer %q: %w", b.label, hal.ErrInvalidMapRange)
	}
	b.mapped = true
	return unsafe.Slice((*byte)(m.Ptr), b.size), nil
}

// Unmap ends the mapping started by Map.
func (b *Buffer) Unmap() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.unmapLocked()
}

func (b *Buffer) unmapLocked() {
	if !b.mapped {
		return
	}
	b.mapped = false
	if err := b.dev.raw.UnmapBuffer(b.raw); err != nil {
		b.dev.check(err)
		slogger().Warn("native: unmap buffer failed", "label", b.label, "err", err)
	}
}

// Release destroys the buffer once the GPU is done with it. It is safe to
// call more than once.
func (b *Buffer) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.released {
		return
	}
	b.unmapLocked()
	b.released = true
	raw, dev := b.raw, b.dev.raw
	b.dev.retire(func() { dev.DestroyBuffer(raw) })
}
