package readback

import (
	"fmt"
	"slices"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Capturer copies GPU textures into host-readable memory.
//
// A Capturer is safe for concurrent use; captures that share a queue must
// still be serialized by the caller. It keeps the resources of failed
// captures whose work the GPU may still be executing.
type Capturer struct {
	dev     DeviceAPI
	opts    options
	layouts *lru.Cache[layoutKey, Layout]

	mu      sync.Mutex
	retired []*inFlight
}

// layoutKey identifies a planned layout. Limits are fixed per Capturer.
type layoutKey struct {
	desc   ResourceDescriptor
	planes int
}

// New returns a Capturer for dev.
func New(dev DeviceAPI, opts ...Option) (*Capturer, error) {
	if dev == nil {
		return nil, fmt.Errorf("%w: nil device", ErrInvalidArgument)
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	propagateLogger(dev, slogger())
	c := &Capturer{dev: dev, opts: o}
	if o.layoutCache > 0 {
		layouts, err := lru.New[layoutKey, Layout](o.layoutCache)
		if err != nil {
			return nil, fmt.Errorf("%w: layout cache: %w", ErrInvalidArgument, err)
		}
		c.layouts = layouts
	}
	return c, nil
}

// Limits returns the limits captures are planned against.
func (c *Capturer) Limits() Limits {
	return c.opts.limits
}

// Plan returns the staging layout a capture of desc would use, without
// touching the GPU. Multisampled descriptors are planned as their
// single-sample resolve target.
func (c *Capturer) Plan(desc ResourceDescriptor) (Layout, error) {
	if err := desc.Validate(); err != nil {
		return Layout{}, err
	}
	desc.SampleCount = 1
	return c.plan(desc)
}

// plan returns the layout of desc, consulting the layout cache. Callers
// receive their own copy of the footprint table.
func (c *Capturer) plan(desc ResourceDescriptor) (Layout, error) {
	key := layoutKey{desc: desc, planes: c.dev.PlaneCount(desc.Format)}
	if c.layouts != nil {
		if l, ok := c.layouts.Get(key); ok {
			return Layout{Footprints: slices.Clone(l.Footprints), TotalSize: l.TotalSize}, nil
		}
	}
	l, err := PlanFootprints(desc, key.planes, c.opts.limits)
	if err != nil {
		return Layout{}, err
	}
	if c.layouts != nil {
		c.layouts.Add(key, Layout{Footprints: slices.Clone(l.Footprints), TotalSize: l.TotalSize})
	}
	return l, nil
}

// Capture copies every subresource of src into a new staging buffer and
// blocks until the copy has completed on the GPU.
//
// src is expected in state before and is left in state after. Multisampled
// sources are resolved first; host-visible single-sample sources are
// mapped in place without any GPU work. On failure every resource the
// capture created has been released, except when the failure came after
// the work was submitted: those resources are retired and released once
// the GPU has finished with them (see Pending and Drain).
func (c *Capturer) Capture(queue CommandQueueAPI, src Texture, before, after ResourceState) (*Result, error) {
	c.reclaim()

	if queue == nil {
		return nil, fmt.Errorf("%w: nil queue", ErrInvalidArgument)
	}
	if src == nil {
		return nil, fmt.Errorf("%w: nil source", ErrInvalidArgument)
	}
	desc := src.Descriptor()
	if err := desc.Validate(); err != nil {
		return nil, err
	}

	sched := newTransferScheduler(c.dev, &c.opts)

	if host, ok := hostVisible(src); ok && !desc.Multisampled() {
		return c.captureHost(sched, host, desc)
	}

	var rs *resolveStage
	planDesc := desc
	if desc.Multisampled() {
		var err error
		rs, err = newResolveStage(c.dev, src, desc)
		if err != nil {
			return nil, err
		}
		planDesc = rs.desc
	}

	layout, err := c.plan(planDesc)
	if err != nil {
		return nil, err
	}
	slogger().Debug("readback: layout planned",
		"label", c.opts.label, "format", planDesc.Format,
		"footprints", len(layout.Footprints), "size", layout.TotalSize)

	if rs != nil {
		if err := rs.allocate(c.opts.label + " resolve"); err != nil {
			return nil, err
		}
	}

	staging, err := allocateStaging(c.dev, c.opts.label+" staging", layout.TotalSize)
	if err != nil {
		rs.release()
		return nil, err
	}

	err = sched.run(transferJob{
		queue:   queue,
		src:     src,
		before:  before,
		after:   after,
		resolve: rs,
		layout:  layout,
		staging: staging,
	})
	if err != nil {
		slogger().Debug("readback: capture failed",
			"label", c.opts.label, "state", sched.state, "err", err)
		if w := sched.inFlight; w != nil {
			w.free = append(w.free, staging.Release, rs.release)
			c.retire(w)
			return nil, err
		}
		staging.Release()
		rs.release()
		return nil, err
	}
	rs.release()

	return &Result{
		staging: staging,
		layout:  layout,
		desc:    planDesc,
		state:   sched.state,
		copies:  sched.copies,
	}, nil
}

func (c *Capturer) captureHost(sched *transferScheduler, host HostTexture, desc ResourceDescriptor) (*Result, error) {
	layout, err := c.plan(desc)
	if err != nil {
		return nil, err
	}
	if err := sched.fastPath(); err != nil {
		return nil, err
	}
	slogger().Info("readback: host-visible source, skipping GPU copy",
		"label", c.opts.label, "format", desc.Format, "size", layout.TotalSize)
	return &Result{
		staging:  borrowStaging(host, layout.TotalSize),
		layout:   layout,
		desc:     desc,
		fastPath: true,
		state:    sched.state,
	}, nil
}
