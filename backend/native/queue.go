package native

import (
	"fmt"
	"sync"

	"github.com/gogpu/readback"
	"github.com/gogpu/wgpu/hal"
)

// Queue submits command contexts to a HAL queue and tracks the last
// submission index for fences and deferred destruction.
type Queue struct {
	dev *Device
	raw hal.Queue

	mu   sync.Mutex
	last uint64
}

// Raw returns the underlying HAL queue.
func (q *Queue) Raw() hal.Queue { return q.raw }

// Submit submits a closed command context.
func (q *Queue) Submit(cmd readback.CommandContextAPI) error {
	cc, ok := cmd.(*CommandContext)
	if !ok || cc == nil || cc.dev != q.dev {
		return fmt.Errorf("%w: command context %T", ErrForeignResource, cmd)
	}
	if err := q.dev.Status(); err != nil {
		return err
	}
	cb, err := cc.consume()
	if err != nil {
		return err
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	idx, err := q.raw.Submit([]hal.CommandBuffer{cb})
	if err != nil {
		q.dev.check(err)
		return fmt.Errorf("native: submit %q: %w", cc.label, err)
	}
	if idx > q.last {
		q.last = idx
	}
	return nil
}

// Signal sets f to value once everything submitted so far has completed.
func (q *Queue) Signal(f readback.FenceAPI, value uint64) error {
	fence, ok := f.(*Fence)
	if !ok || fence == nil || fence.dev != q.dev {
		return fmt.Errorf("%w: fence %T", ErrForeignResource, f)
	}
	if err := q.dev.Status(); err != nil {
		return err
	}
	return fence.enqueue(q.lastSubmitted(), value)
}

func (q *Queue) lastSubmitted() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.last
}
