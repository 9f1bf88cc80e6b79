package readback

import (
	"time"

	"github.com/gogpu/readback/internal/fencewait"
)

const (
	// DefaultFenceTimeout bounds the wait for the GPU to finish a capture.
	DefaultFenceTimeout = 5 * time.Second

	// DefaultLayoutCacheSize is the number of planned layouts a Capturer
	// remembers.
	DefaultLayoutCacheSize = 64
)

// Option configures a Capturer.
//
// Example:
//
//	c, err := readback.New(dev,
//	    readback.WithFenceTimeout(time.Second),
//	    readback.WithRowPitchAlignment(512),
//	)
type Option func(*options)

type options struct {
	limits       Limits
	fenceTimeout time.Duration
	backoff      fencewait.Backoff
	label        string
	layoutCache  int
}

func defaultOptions() options {
	return options{
		limits:       DefaultLimits(),
		fenceTimeout: DefaultFenceTimeout,
		backoff:      fencewait.DefaultBackoff(),
		label:        "readback",
		layoutCache:  DefaultLayoutCacheSize,
	}
}

// WithRowPitchAlignment sets the alignment row pitches are rounded up to.
// Values of 0 are ignored.
func WithRowPitchAlignment(n uint64) Option {
	return func(o *options) {
		if n > 0 {
			o.limits.RowPitchAlignment = n
		}
	}
}

// WithMaxSubresources sets the per-resource subresource cap.
func WithMaxSubresources(n uint32) Option {
	return func(o *options) {
		o.limits.MaxSubresources = n
	}
}

// WithMaxBufferSize caps the staging buffer size. Zero means unlimited.
func WithMaxBufferSize(n uint64) Option {
	return func(o *options) {
		o.limits.MaxBufferSize = n
	}
}

// WithFenceTimeout bounds the GPU wait. A timeout ≤ 0 waits without bound,
// which blocks forever if the GPU never completes.
func WithFenceTimeout(d time.Duration) Option {
	return func(o *options) {
		o.fenceTimeout = d
	}
}

// WithPollBackoff sets the sleep bounds used when the fence has to be polled.
func WithPollBackoff(minDelay, maxDelay time.Duration) Option {
	return func(o *options) {
		o.backoff = fencewait.Backoff{Min: minDelay, Max: maxDelay}
	}
}

// WithLabel sets the debug label prefix of created resources.
func WithLabel(label string) Option {
	return func(o *options) {
		if label != "" {
			o.label = label
		}
	}
}

// WithLayoutCacheSize sets how many planned layouts are remembered, keyed by
// descriptor. Repeated captures of same-shaped textures then skip planning.
// Zero or negative disables the cache.
func WithLayoutCacheSize(n int) Option {
	return func(o *options) {
		o.layoutCache = n
	}
}
