// Package fencewait implements the polling half of the fence wait: a
// yield-then-backoff loop bounded by a timeout.
package fencewait

import (
	"errors"
	"runtime"
	"time"
)

// ErrTimeout is returned by Poll when the deadline passes before done
// reports completion.
var ErrTimeout = errors.New("fencewait: timeout")

// spinYields is the number of attempts that only yield the processor
// before the poller starts sleeping. Most readbacks of small textures
// complete within this window.
const spinYields = 16

// Backoff bounds the sleep between polls.
type Backoff struct {
	Min time.Duration
	Max time.Duration
}

// DefaultBackoff returns a 1µs–1ms backoff.
func DefaultBackoff() Backoff {
	return Backoff{Min: time.Microsecond, Max: time.Millisecond}
}

// Poll calls done until it returns true or an error. After spinYields
// attempts it sleeps between calls, doubling the delay from b.Min up to
// b.Max. A timeout ≤ 0 polls without bound.
func Poll(done func() (bool, error), b Backoff, timeout time.Duration) error {
	if b.Min <= 0 {
		b.Min = time.Microsecond
	}
	if b.Max < b.Min {
		b.Max = b.Min
	}

	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}

	delay := b.Min
	for attempt := 0; ; attempt++ {
		ok, err := done()
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		if !deadline.IsZero() && !time.Now().Before(deadline) {
			return ErrTimeout
		}

		if attempt < spinYields {
			runtime.Gosched()
			continue
		}
		sleep := delay
		if !deadline.IsZero() {
			sleep = min(sleep, time.Until(deadline))
		}
		if sleep > 0 {
			time.Sleep(sleep)
		}
		delay = min(delay*2, b.Max)
	}
}
