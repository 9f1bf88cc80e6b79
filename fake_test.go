package readback

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/gogpu/readback/format"
)

// fakeTexture is an in-memory texture. It implements HostTexture; host
// controls whether the fast path applies.
type fakeTexture struct {
	name     string
	desc     ResourceDescriptor
	host     bool
	mem      []byte
	mapErr   error
	mapped   bool
	releases int
}

func (t *fakeTexture) Descriptor() ResourceDescriptor { return t.desc }
func (t *fakeTexture) Release()                       { t.releases++ }
func (t *fakeTexture) HostVisible() bool              { return t.host }
func (t *fakeTexture) Map() ([]byte, error) {
	if t.mapErr != nil {
		return nil, t.mapErr
	}
	t.mapped = true
	return t.mem, nil
}
func (t *fakeTexture) Unmap()         { t.mapped = false }
func (t *fakeTexture) String() string { return t.name }

type fakeBuffer struct {
	data     []byte
	mapErr   error
	mapped   bool
	releases int
}

func (b *fakeBuffer) Size() uint64 { return uint64(len(b.data)) }
func (b *fakeBuffer) Map() ([]byte, error) {
	if b.mapErr != nil {
		return nil, b.mapErr
	}
	b.mapped = true
	return b.data, nil
}
func (b *fakeBuffer) Unmap()   { b.mapped = false }
func (b *fakeBuffer) Release() { b.releases++ }

// fakeContext records commands as strings.
type fakeContext struct {
	log      []string
	closeErr error
	closed   bool
	released bool
}

func (c *fakeContext) Barrier(t Texture, before, after ResourceState) {
	c.log = append(c.log, fmt.Sprintf("barrier %v %v→%v", t, before, after))
}

func (c *fakeContext) Resolve(dst Texture, dstSub uint32, src Texture, srcSub uint32, f format.Format) {
	c.log = append(c.log, fmt.Sprintf("resolve %v[%d]←%v[%d] %v", dst, dstSub, src, srcSub, f))
}

func (c *fakeContext) CopyTextureToBuffer(_ Buffer, fp Footprint, src Texture) {
	c.log = append(c.log, fmt.Sprintf("copy %v[%d]@%d", src, fp.Subresource, fp.Offset))
}

func (c *fakeContext) Close() error {
	c.closed = true
	return c.closeErr
}

func (c *fakeContext) Release() { c.released = true }

// fakeFence is a polled fence.
type fakeFence struct {
	value    uint64
	released bool

	// advance, when set, is added on each CompletedValue call until the
	// target recorded by Signal is reached.
	advance uint64
	target  uint64
	polls   int
}

func (f *fakeFence) CompletedValue() uint64 {
	f.polls++
	if f.advance > 0 && f.value < f.target {
		f.value = min(f.value+f.advance, f.target)
	}
	return f.value
}

func (f *fakeFence) Release() { f.released = true }

type fakeEventFence struct {
	*fakeFence
	waitErr error
	waits   int
}

func (f *fakeEventFence) WaitFor(value uint64, _ time.Duration) (bool, error) {
	f.waits++
	if f.waitErr != nil {
		return false, f.waitErr
	}
	return f.value >= value, nil
}

// fakeDevice hands out fakes and records them.
type fakeDevice struct {
	planes  map[format.Format]int
	support map[format.Format]FormatSupport

	bufErr, texErr, ccErr, fenceErr error
	closeErr                        error
	status                          error
	shortBuffer                     bool
	eventFences                     bool

	buffers  []*fakeBuffer
	textures []*fakeTexture
	contexts []*fakeContext
	fences   []*fakeFence
	events   []*fakeEventFence

	logger *slog.Logger
}

func (d *fakeDevice) SetLogger(l *slog.Logger) { d.logger = l }

func (d *fakeDevice) PlaneCount(f format.Format) int {
	if n, ok := d.planes[f]; ok {
		return n
	}
	return format.PlaneCount(f)
}

func (d *fakeDevice) FormatSupport(f format.Format) FormatSupport {
	if s, ok := d.support[f]; ok {
		return s
	}
	return FormatSupportTexture2D | FormatSupportRenderTarget |
		FormatSupportMultisample | FormatSupportMultisampleResolve
}

func (d *fakeDevice) CreateBuffer(desc BufferDescriptor) (Buffer, error) {
	if d.bufErr != nil {
		return nil, d.bufErr
	}
	size := desc.Size
	if d.shortBuffer {
		size--
	}
	b := &fakeBuffer{data: make([]byte, size)}
	d.buffers = append(d.buffers, b)
	return b, nil
}

func (d *fakeDevice) CreateTexture(desc ResourceDescriptor, _ ResourceState) (Texture, error) {
	if d.texErr != nil {
		return nil, d.texErr
	}
	t := &fakeTexture{name: fmt.Sprintf("tex%d", len(d.textures)), desc: desc}
	d.textures = append(d.textures, t)
	return t, nil
}

func (d *fakeDevice) CreateCommandContext(string) (CommandContextAPI, error) {
	if d.ccErr != nil {
		return nil, d.ccErr
	}
	c := &fakeContext{closeErr: d.closeErr}
	d.contexts = append(d.contexts, c)
	return c, nil
}

func (d *fakeDevice) CreateFence(initial uint64) (FenceAPI, error) {
	if d.fenceErr != nil {
		return nil, d.fenceErr
	}
	f := &fakeFence{value: initial}
	d.fences = append(d.fences, f)
	if d.eventFences {
		ef := &fakeEventFence{fakeFence: f}
		d.events = append(d.events, ef)
		return ef, nil
	}
	return f, nil
}

func (d *fakeDevice) Status() error { return d.status }

// fakeQueue completes work on Signal unless told otherwise.
type fakeQueue struct {
	submitErr error
	signalErr error

	// stall leaves fences unsignaled; lose signals the removed value.
	stall bool
	lose  bool

	// slow makes the fence advance by one per poll instead of at once.
	slow bool

	submitted []*fakeContext
}

func (q *fakeQueue) Submit(cmd CommandContextAPI) error {
	if q.submitErr != nil {
		return q.submitErr
	}
	q.submitted = append(q.submitted, cmd.(*fakeContext))
	return nil
}

func (q *fakeQueue) Signal(f FenceAPI, value uint64) error {
	if q.signalErr != nil {
		return q.signalErr
	}
	var ff *fakeFence
	switch f := f.(type) {
	case *fakeFence:
		ff = f
	case *fakeEventFence:
		ff = f.fakeFence
	}
	switch {
	case q.lose:
		ff.value = math.MaxUint64
	case q.stall:
	case q.slow:
		ff.advance, ff.target = 1, value
	default:
		ff.value = value
	}
	return nil
}

func tex2D(w, h, arraySize, mips uint32, f format.Format) ResourceDescriptor {
	return ResourceDescriptor{
		Dimension:        Dimension2D,
		Width:            w,
		Height:           h,
		DepthOrArraySize: arraySize,
		MipLevels:        mips,
		Format:           f,
		SampleCount:      1,
	}
}
