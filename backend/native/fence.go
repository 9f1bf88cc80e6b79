package native

import (
	"math"
	"sync"
)

// pendingSignal sets the fence to value once submission after completes.
type pendingSignal struct {
	after uint64
	value uint64
}

// Fence is a timeline fence layered on queue submission indices. It has
// no blocking wait: callers poll CompletedValue.
type Fence struct {
	dev *Device

	mu       sync.Mutex
	value    uint64
	pending  []pendingSignal
	released bool
}

// CompletedValue returns the last value whose submissions have completed,
// or math.MaxUint64 once the device is lost.
func (f *Fence) CompletedValue() uint64 {
	if f.dev.Status() != nil {
		return math.MaxUint64
	}
	f.dev.reclaim()
	done := f.dev.queue.raw.PollCompleted()

	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, s := range f.pending {
		if s.after > done {
			break
		}
		if s.value > f.value {
			f.value = s.value
		}
		n++
	}
	f.pending = append(f.pending[:0], f.pending[n:]...)
	return f.value
}

// Release drops pending signals. It is safe to call more than once.
func (f *Fence) Release() {
	f.mu.Lock()
	f.released = true
	f.pending = nil
	f.mu.Unlock()
}

func (f *Fence) enqueue(after, value uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.released {
		return ErrReleased
	}
	f.pending = append(f.pending, pendingSignal{after: after, value: value})
	return nil
}
