package software

import (
	"fmt"
	"sync"

	"github.com/gogpu/readback"
	"github.com/gogpu/readback/format"
)

type contextState int

const (
	contextRecording contextState = iota
	contextClosed
	contextSubmitted
	contextReleased
)

// CommandContext records commands for one submission.
//
// Recording errors are deferred: the first one is returned by Close.
// CommandContext is NOT safe for concurrent use.
type CommandContext struct {
	dev   *Device
	label string

	mu    sync.Mutex
	state contextState
	cmds  []command
	err   error
}

// Barrier records a resource state transition.
func (c *CommandContext) Barrier(t readback.Texture, before, after readback.ResourceState) {
	tex, err := c.texture(t)
	if err != nil {
		c.record(nil, err)
		return
	}
	c.record(barrierCmd{t: tex, before: before, after: after}, nil)
}

// Resolve records a multisample resolve of one subresource.
func (c *CommandContext) Resolve(dst readback.Texture, dstSub uint32, src readback.Texture, srcSub uint32, f format.Format) {
	d, err := c.texture(dst)
	if err != nil {
		c.record(nil, err)
		return
	}
	s, err := c.texture(src)
	if err != nil {
		c.record(nil, err)
		return
	}
	c.record(resolveCmd{dst: d, dstSub: dstSub, src: s, srcSub: srcSub, format: f}, nil)
}

// CopyTextureToBuffer records a copy of the subresource fp describes.
func (c *CommandContext) CopyTextureToBuffer(dst readback.Buffer, fp readback.Footprint, src readback.Texture) {
	buf, ok := dst.(*Buffer)
	if !ok || buf == nil || buf.dev != c.dev {
		c.record(nil, fmt.Errorf("%w: buffer %T", ErrForeignResource, dst))
		return
	}
	s, err := c.texture(src)
	if err != nil {
		c.record(nil, err)
		return
	}
	c.record(copyCmd{dst: buf, fp: fp, src: s}, nil)
}

// Close finishes recording and returns the first recording error.
func (c *CommandContext) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != contextRecording {
		return fmt.Errorf("%w: close in state %d", ErrContextState, c.state)
	}
	c.state = contextClosed
	return c.err
}

// Release frees the context. Submitted commands still run.
func (c *CommandContext) Release() {
	c.mu.Lock()
	c.state = contextReleased
	c.cmds = nil
	c.mu.Unlock()
}

// Len returns the number of recorded commands.
func (c *CommandContext) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.cmds)
}

func (c *CommandContext) texture(t readback.Texture) (*Texture, error) {
	tex, ok := t.(*Texture)
	if !ok || tex == nil || tex.dev != c.dev {
		return nil, fmt.Errorf("%w: texture %T", ErrForeignResource, t)
	}
	return tex, nil
}

func (c *CommandContext) record(cmd command, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != contextRecording {
		err = fmt.Errorf("%w: record in state %d", ErrContextState, c.state)
	}
	if err != nil {
		if c.err == nil {
			c.err = err
		}
		return
	}
	c.cmds = append(c.cmds, cmd)
}

func (c *CommandContext) take() ([]command, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != contextClosed {
		return nil, fmt.Errorf("%w: submit in state %d", ErrContextState, c.state)
	}
	if c.err != nil {
		return nil, c.err
	}
	c.state = contextSubmitted
	return c.cmds, nil
}

// command is a recorded operation executed on the timeline.
type command interface {
	exec() error
}

type barrierCmd struct {
	t             *Texture
	before, after readback.ResourceState
}

func (b barrierCmd) String() string {
	return fmt.Sprintf("barrier %v → %v", b.before, b.after)
}

func (b barrierCmd) exec() error {
	b.t.mu.Lock()
	defer b.t.mu.Unlock()
	if b.t.released {
		return ErrReleased
	}
	if b.t.state != b.before {
		return fmt.Errorf("%w: %v is %v, barrier expects %v", ErrStateMismatch, b.t, b.t.state, b.before)
	}
	b.t.state = b.after
	return nil
}

type copyCmd struct {
	dst *Buffer
	fp  readback.Footprint
	src *Texture
}

func (c copyCmd) String() string {
	return fmt.Sprintf("copy subresource %d to offset %d", c.fp.Subresource, c.fp.Offset)
}

func (c copyCmd) exec() error {
	c.src.mu.Lock()
	defer c.src.mu.Unlock()
	c.dst.mu.Lock()
	defer c.dst.mu.Unlock()

	if c.src.released || c.dst.released {
		return ErrReleased
	}
	if c.src.state&readback.StateCopySource == 0 {
		return fmt.Errorf("%w: copy source %v is %v", ErrStateMismatch, c.src, c.src.state)
	}
	if c.src.desc.Multisampled() {
		return fmt.Errorf("%w: copy from multisampled %v", readback.ErrInvalidArgument, c.src)
	}
	sfp, ok := c.src.layout.Find(c.fp.Mip, c.fp.Slice, c.fp.Plane)
	if !ok {
		return fmt.Errorf("%w: %v has no subresource mip %d slice %d plane %d",
			readback.ErrInvalidArgument, c.src, c.fp.Mip, c.fp.Slice, c.fp.Plane)
	}
	if sfp.RowBytes != c.fp.RowBytes || sfp.RowCount != c.fp.RowCount || sfp.Depth != c.fp.Depth {
		return fmt.Errorf("%w: footprint %dx%dx%d does not match subresource %dx%dx%d",
			readback.ErrInvalidArgument, c.fp.RowBytes, c.fp.RowCount, c.fp.Depth,
			sfp.RowBytes, sfp.RowCount, sfp.Depth)
	}
	if c.fp.RowPitch < c.fp.RowBytes || c.fp.End() > uint64(len(c.dst.data)) {
		return fmt.Errorf("%w: footprint [%d, %d) outside buffer of %d bytes",
			readback.ErrInvalidArgument, c.fp.Offset, c.fp.End(), len(c.dst.data))
	}

	src := c.src.mem[0]
	for z := range c.fp.Depth {
		for r := range c.fp.RowCount {
			so := sfp.Offset + uint64(z)*sfp.SlicePitch + uint64(r)*sfp.RowPitch
			do := c.fp.Offset + uint64(z)*c.fp.SlicePitch + uint64(r)*c.fp.RowPitch
			copy(c.dst.data[do:do+c.fp.RowBytes], src[so:so+sfp.RowBytes])
		}
	}
	return nil
}
