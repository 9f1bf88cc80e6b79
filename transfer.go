package readback

import (
	"errors"
	"fmt"
)

// TransferState is the progress of a transfer.
//
// A transfer moves Idle → Transitioning → Copying → Signaled → Completed,
// or to Failed from any state. A host-visible source goes straight from
// Idle to Completed.
type TransferState int

const (
	// TransferIdle is a transfer that has not started.
	TransferIdle TransferState = iota
	// TransferTransitioning records the barriers and resolves that bring
	// the source into the copy-source state.
	TransferTransitioning
	// TransferCopying records one copy per footprint.
	TransferCopying
	// TransferSignaled has submitted the work and queued the fence signal.
	TransferSignaled
	// TransferCompleted has observed the fence; the staging bytes are final.
	TransferCompleted
	// TransferFailed is terminal; the transfer returned an error.
	TransferFailed
)

// String returns the string representation of TransferState.
func (s TransferState) String() string {
	switch s {
	case TransferIdle:
		return "Idle"
	case TransferTransitioning:
		return "Transitioning"
	case TransferCopying:
		return "Copying"
	case TransferSignaled:
		return "Signaled"
	case TransferCompleted:
		return "Completed"
	case TransferFailed:
		return "Failed"
	default:
		return fmt.Sprintf("TransferState(%d)", int(s))
	}
}

// errTransferState is a programming error: a transfer was reused or
// stepped out of order.
var errTransferState = errors.New("readback: invalid transfer state transition")

// transferJob is the work of one capture.
type transferJob struct {
	queue   CommandQueueAPI
	src     Texture
	before  ResourceState
	after   ResourceState
	resolve *resolveStage
	layout  Layout
	staging *StagingBuffer
}

// transferScheduler records, submits and waits for the copy of one capture.
// It is single-use.
type transferScheduler struct {
	dev   DeviceAPI
	opts  *options
	state TransferState

	// copies counts copy commands recorded; zero on the fast path.
	copies int

	// inFlight is set when the transfer failed after Submit. The GPU may
	// still reference its resources, so the caller must retire it.
	inFlight *inFlight
}

func newTransferScheduler(dev DeviceAPI, opts *options) *transferScheduler {
	return &transferScheduler{dev: dev, opts: opts}
}

// hostVisible reports whether src can serve as its own staging buffer.
func hostVisible(src Texture) (HostTexture, bool) {
	h, ok := src.(HostTexture)
	if !ok || !h.HostVisible() {
		return nil, false
	}
	return h, true
}

func (s *transferScheduler) enter(next TransferState) error {
	valid := false
	switch next {
	case TransferFailed:
		valid = s.state != TransferCompleted
	case TransferCompleted:
		valid = s.state == TransferIdle || s.state == TransferSignaled
	default:
		valid = next == s.state+1
	}
	if !valid {
		return fmt.Errorf("%w: %v → %v", errTransferState, s.state, next)
	}
	slogger().Debug("readback: transfer state", "from", s.state, "to", next)
	s.state = next
	return nil
}

func (s *transferScheduler) fail(err error) error {
	_ = s.enter(TransferFailed)
	return err
}

// fastPath completes a transfer whose source is already host-visible.
func (s *transferScheduler) fastPath() error {
	return s.enter(TransferCompleted)
}

// run records barriers, resolves and copies for job, submits them, signals
// a fence and blocks until the GPU reaches it.
//
// Failures before Submit release the command context and fence. A failure
// after Submit leaves them in s.inFlight.
func (s *transferScheduler) run(job transferJob) error {
	if err := s.enter(TransferTransitioning); err != nil {
		return err
	}

	cc, err := s.dev.CreateCommandContext(s.opts.label)
	if err != nil {
		return s.fail(deviceError("create command context", err))
	}
	work := &inFlight{cc: cc}
	defer func() {
		if s.inFlight != work {
			work.release()
		}
	}()

	copySrc := job.src
	restoreFrom := StateCopySource
	if job.resolve != nil {
		job.resolve.record(cc, job.before)
		copySrc = job.resolve.dst
		restoreFrom = StateResolveSource
	} else {
		transition(cc, job.src, job.before, StateCopySource)
	}

	if err := s.enter(TransferCopying); err != nil {
		return s.fail(err)
	}
	for _, fp := range job.layout.Footprints {
		cc.CopyTextureToBuffer(job.staging.buf, fp, copySrc)
		s.copies++
	}
	transition(cc, job.src, restoreFrom, job.after)

	if err := cc.Close(); err != nil {
		return s.fail(deviceError("close command context", err))
	}

	fence, err := s.dev.CreateFence(0)
	if err != nil {
		return s.fail(deviceError("create fence", err))
	}
	work.fence = fence

	if err := job.queue.Submit(cc); err != nil {
		return s.fail(deviceError("submit", err))
	}
	s.inFlight = work

	work.target = fence.CompletedValue() + 1
	if err := job.queue.Signal(fence, work.target); err != nil {
		return s.fail(deviceError("signal fence", err))
	}
	work.signaled = true
	if err := s.enter(TransferSignaled); err != nil {
		return s.fail(err)
	}

	if err := waitFence(s.dev, fence, work.target, s.opts.fenceTimeout, s.opts.backoff); err != nil {
		return s.fail(err)
	}
	s.inFlight = nil
	return s.enter(TransferCompleted)
}

// transition records a barrier unless the states already match.
func transition(cc CommandContextAPI, t Texture, before, after ResourceState) {
	if before == after {
		return
	}
	cc.Barrier(t, before, after)
}
