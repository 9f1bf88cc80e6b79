package software

import (
	"fmt"
	"sync"
	"time"

	"github.com/gogpu/readback"
)

// queueDepth bounds the work that can be in flight before Submit blocks.
const queueDepth = 64

type workItem struct {
	label string
	cmds  []command

	fence *Fence
	value uint64
}

// Queue is the command queue of a software device. Work runs in
// submission order on a single worker goroutine.
type Queue struct {
	dev *Device

	mu     sync.Mutex
	closed bool
	work   chan workItem
	done   chan struct{}
}

func newQueue(d *Device) *Queue {
	q := &Queue{
		dev:  d,
		work: make(chan workItem, queueDepth),
		done: make(chan struct{}),
	}
	go q.run()
	return q
}

// Submit enqueues a closed command context. It returns before the work runs.
func (q *Queue) Submit(cmd readback.CommandContextAPI) error {
	cc, ok := cmd.(*CommandContext)
	if !ok || cc == nil || cc.dev != q.dev {
		return fmt.Errorf("%w: command context %T", ErrForeignResource, cmd)
	}
	cmds, err := cc.take()
	if err != nil {
		return err
	}
	return q.enqueue(workItem{label: cc.label, cmds: cmds})
}

// Signal sets f to value once all previously submitted work has run.
func (q *Queue) Signal(f readback.FenceAPI, value uint64) error {
	var fence *Fence
	switch f := f.(type) {
	case *Fence:
		fence = f
	case polledFence:
		fence = f.f
	}
	if fence == nil || fence.dev != q.dev {
		return fmt.Errorf("%w: fence %T", ErrForeignResource, f)
	}
	return q.enqueue(workItem{fence: fence, value: value})
}

// WaitIdle blocks until everything submitted so far has run.
func (q *Queue) WaitIdle() error {
	f := newFence(q.dev, 0)
	if err := q.enqueue(workItem{fence: f, value: 1}); err != nil {
		return err
	}
	_, err := f.WaitFor(1, 0)
	return err
}

func (q *Queue) enqueue(it workItem) error {
	if err := q.dev.Status(); err != nil {
		return err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrClosed
	}
	q.work <- it
	return nil
}

func (q *Queue) close() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.work)
	}
	q.mu.Unlock()
	<-q.done
}

func (q *Queue) run() {
	defer close(q.done)
	for it := range q.work {
		if q.dev.Status() != nil {
			continue
		}
		if it.cmds != nil {
			q.execute(it)
		}
		if it.fence != nil {
			it.fence.signal(it.value)
		}
	}
}

func (q *Queue) execute(it workItem) {
	if d := q.dev.cfg.latency; d > 0 {
		time.Sleep(d)
	}
	start := time.Now()
	for i, c := range it.cmds {
		if err := c.exec(); err != nil {
			q.dev.fault(fmt.Errorf("%s: command %d (%v): %w", it.label, i, c, err))
			return
		}
	}
	slogger().Debug("software: executed",
		"label", it.label, "commands", len(it.cmds), "elapsed", time.Since(start))
}
