package readback

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// inFlight is submitted work whose capture failed before the GPU was seen
// to finish it. Its resources stay alive until the fence passes target.
type inFlight struct {
	cc     CommandContextAPI
	fence  FenceAPI
	target uint64

	// signaled is false when Signal failed; such work has no completion
	// point and is only freed once the device is removed.
	signaled bool

	// free releases the capture's staging buffer and resolve target.
	free []func()
}

// done reports whether the GPU has passed the work.
func (w *inFlight) done() bool {
	if w.fence == nil {
		return false
	}
	v := w.fence.CompletedValue()
	return v == math.MaxUint64 || (w.signaled && v >= w.target)
}

func (w *inFlight) release() {
	for _, free := range w.free {
		free()
	}
	w.free = nil
	if w.fence != nil {
		w.fence.Release()
		w.fence = nil
	}
	if w.cc != nil {
		w.cc.Release()
		w.cc = nil
	}
}

// retire parks the work of a failed capture until the GPU is done with it.
func (c *Capturer) retire(w *inFlight) {
	if !w.signaled {
		slogger().Warn("readback: submitted work has no fence signal, holding its resources until the device is removed",
			"label", c.opts.label)
	}
	c.mu.Lock()
	c.retired = append(c.retired, w)
	c.mu.Unlock()
	c.reclaim()
}

// reclaim releases retired work the GPU has finished and returns how many
// entries remain.
func (c *Capturer) reclaim() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.retired) == 0 {
		return 0
	}

	removed := c.dev.Status() != nil
	kept := c.retired[:0]
	for _, w := range c.retired {
		if removed || w.done() {
			w.release()
			continue
		}
		kept = append(kept, w)
	}
	clear(c.retired[len(kept):])
	c.retired = kept
	if n := len(kept); n > 0 {
		slogger().Debug("readback: failed captures still in flight", "label", c.opts.label, "pending", n)
	}
	return len(kept)
}

// Pending returns the number of failed captures whose GPU work has not yet
// finished. Their staging buffers, resolve targets, command contexts and
// fences are released as soon as it does, on the next Capture, Pending or
// Drain.
func (c *Capturer) Pending() int {
	return c.reclaim()
}

// Drain waits up to timeout per entry for the GPU work of failed captures
// and releases it. It returns ErrTimeout if work remains; work whose fence
// signal was never queued remains until the device is removed.
func (c *Capturer) Drain(timeout time.Duration) error {
	// Take the entries so a concurrent reclaim cannot release a fence
	// while it is being waited on.
	c.mu.Lock()
	work := c.retired
	c.retired = nil
	c.mu.Unlock()

	var err error
	for _, w := range work {
		if !w.signaled || err != nil {
			continue
		}
		if werr := waitFence(c.dev, w.fence, w.target, timeout, c.opts.backoff); errors.Is(werr, ErrTimeout) {
			err = werr
		}
	}

	c.mu.Lock()
	c.retired = append(c.retired, work...)
	c.mu.Unlock()

	n := c.reclaim()
	switch {
	case err != nil:
		return err
	case n > 0:
		return fmt.Errorf("%w: %d failed captures still hold GPU resources", ErrTimeout, n)
	}
	return nil
}
