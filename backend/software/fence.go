package software

import (
	"math"
	"sync"
	"time"
)

// Fence is a timeline fence signaled by the queue worker.
// It implements readback.EventFence.
type Fence struct {
	dev *Device

	mu       sync.Mutex
	value    uint64
	changed  chan struct{}
	released bool
}

func newFence(d *Device, initial uint64) *Fence {
	return &Fence{dev: d, value: initial, changed: make(chan struct{})}
}

// CompletedValue returns the last signaled value, or the all-ones value
// once the device has been removed.
func (f *Fence) CompletedValue() uint64 {
	if f.dev.Status() != nil {
		return math.MaxUint64
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value
}

// WaitFor blocks until the fence reaches value, the device is removed, or
// timeout elapses. A timeout ≤ 0 waits without bound.
func (f *Fence) WaitFor(value uint64, timeout time.Duration) (bool, error) {
	var deadline <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		deadline = timer.C
	}
	for {
		if err := f.dev.Status(); err != nil {
			return false, err
		}
		f.mu.Lock()
		reached := f.value >= value
		changed := f.changed
		f.mu.Unlock()
		if reached {
			return true, nil
		}

		select {
		case <-changed:
		case <-f.dev.lost:
		case <-deadline:
			return false, nil
		}
	}
}

// Release marks the fence released; later signals are ignored.
func (f *Fence) Release() {
	f.mu.Lock()
	f.released = true
	f.mu.Unlock()
}

func (f *Fence) signal(value uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.released {
		return
	}
	f.value = max(f.value, value)
	close(f.changed)
	f.changed = make(chan struct{})
}

// polledFence hides WaitFor so callers have to poll.
type polledFence struct {
	f *Fence
}

func (p polledFence) CompletedValue() uint64 { return p.f.CompletedValue() }
func (p polledFence) Release()               { p.f.Release() }
