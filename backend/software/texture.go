package software

import (
	"fmt"
	"sync"

	"github.com/gogpu/readback"
	"github.com/gogpu/readback/format"
)

// Texture is a texture held in Go memory.
//
// Every sample has its own arena laid out by the footprint table of the
// single-sample descriptor: tightly packed rows for device-local
// textures, the device limits for host-visible ones.
type Texture struct {
	dev  *Device
	desc readback.ResourceDescriptor
	host bool

	layout readback.Layout

	mu       sync.Mutex
	mem      [][]byte
	state    readback.ResourceState
	mapped   bool
	released bool
}

func (d *Device) newTexture(desc readback.ResourceDescriptor, initial readback.ResourceState, host bool) (*Texture, error) {
	if err := d.Status(); err != nil {
		return nil, err
	}
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	if host && desc.Multisampled() {
		return nil, fmt.Errorf("%w: host-visible textures are single-sample", readback.ErrInvalidArgument)
	}

	// Depth/stencil data is stored interleaved in a single plane.
	planes := d.PlaneCount(desc.Format)
	if format.IsDepthStencil(desc.Format) {
		planes = min(planes, 1)
	}

	limits := readback.Limits{RowPitchAlignment: 1}
	if host {
		limits.RowPitchAlignment = d.cfg.limits.RowPitchAlignment
	}
	single := desc
	single.SampleCount = 1
	layout, err := readback.PlanFootprints(single, planes, limits)
	if err != nil {
		return nil, err
	}

	size := layout.TotalSize * uint64(desc.SampleCount)
	if err := d.reserve(size); err != nil {
		return nil, err
	}
	mem := make([][]byte, desc.SampleCount)
	for i := range mem {
		mem[i] = make([]byte, layout.TotalSize)
	}
	return &Texture{
		dev:    d,
		desc:   desc,
		host:   host,
		layout: layout,
		mem:    mem,
		state:  initial,
	}, nil
}

// Descriptor returns the shape of the texture.
func (t *Texture) Descriptor() readback.ResourceDescriptor {
	return t.desc
}

// Layout returns the footprint table of one sample's memory.
func (t *Texture) Layout() readback.Layout {
	return t.layout
}

// State returns the resource state after the last executed barrier.
func (t *Texture) State() readback.ResourceState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Release frees the texture memory. It is safe to call more than once.
func (t *Texture) Release() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.released {
		return
	}
	t.released = true
	t.mem = nil
	t.dev.unreserve(t.layout.TotalSize * uint64(t.desc.SampleCount))
}

// HostVisible reports whether the texture lives in host-readable memory.
func (t *Texture) HostVisible() bool {
	return t.host
}

// Map returns the memory of a host-visible texture.
func (t *Texture) Map() ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.host {
		return nil, ErrNotMappable
	}
	if t.released {
		return nil, ErrReleased
	}
	t.mapped = true
	return t.mem[0], nil
}

// Unmap ends the mapping started by Map.
func (t *Texture) Unmap() {
	t.mu.Lock()
	t.mapped = false
	t.mu.Unlock()
}

// Write uploads tightly packed data into one subresource of every sample.
func (t *Texture) Write(mip, slice, plane uint32, data []byte) error {
	for s := range t.desc.SampleCount {
		if err := t.WriteSample(s, mip, slice, plane, data); err != nil {
			return err
		}
	}
	return nil
}

// WriteSample uploads tightly packed data into one subresource of one
// sample. The data holds RowBytes × RowCount × Depth bytes of the
// subresource footprint.
func (t *Texture) WriteSample(sample, mip, slice, plane uint32, data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	fp, err := t.footprintLocked(sample, mip, slice, plane)
	if err != nil {
		return err
	}
	if want := packedSize(fp); uint64(len(data)) != want {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrDataSize, len(data), want)
	}
	forEachRow(fp, func(off, packed uint64) {
		copy(t.mem[sample][off:off+fp.RowBytes], data[packed:packed+fp.RowBytes])
	})
	return nil
}

// Read returns one subresource of sample 0, tightly packed.
func (t *Texture) Read(mip, slice, plane uint32) ([]byte, error) {
	return t.ReadSample(0, mip, slice, plane)
}

// ReadSample returns one subresource of one sample, tightly packed.
func (t *Texture) ReadSample(sample, mip, slice, plane uint32) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	fp, err := t.footprintLocked(sample, mip, slice, plane)
	if err != nil {
		return nil, err
	}
	out := make([]byte, packedSize(fp))
	forEachRow(fp, func(off, packed uint64) {
		copy(out[packed:packed+fp.RowBytes], t.mem[sample][off:off+fp.RowBytes])
	})
	return out, nil
}

func (t *Texture) footprintLocked(sample, mip, slice, plane uint32) (readback.Footprint, error) {
	if t.released {
		return readback.Footprint{}, ErrReleased
	}
	if sample >= t.desc.SampleCount {
		return readback.Footprint{}, fmt.Errorf("%w: sample %d of %d", readback.ErrInvalidArgument, sample, t.desc.SampleCount)
	}
	fp, ok := t.layout.Find(mip, slice, plane)
	if !ok {
		return readback.Footprint{}, fmt.Errorf("%w: no subresource mip %d slice %d plane %d",
			readback.ErrInvalidArgument, mip, slice, plane)
	}
	return fp, nil
}

// subresource decodes a flat subresource index into its footprint.
func (t *Texture) subresource(sub uint32) (readback.Footprint, bool) {
	mips := t.desc.MipLevels
	arraySize := t.desc.ArraySize()
	mip := sub % mips
	slice := (sub / mips) % arraySize
	plane := sub / (mips * arraySize)
	return t.layout.Find(mip, slice, plane)
}

func (t *Texture) String() string {
	return fmt.Sprintf("%v %dx%dx%d %v x%d", t.desc.Dimension, t.desc.Width, t.desc.Height,
		t.desc.DepthOrArraySize, t.desc.Format, t.desc.SampleCount)
}

func packedSize(fp readback.Footprint) uint64 {
	return fp.RowBytes * uint64(fp.RowCount) * uint64(fp.Depth)
}

// forEachRow calls fn with the arena offset and the packed offset of
// every row of fp.
func forEachRow(fp readback.Footprint, fn func(off, packed uint64)) {
	var packed uint64
	for z := range fp.Depth {
		for r := range fp.RowCount {
			fn(fp.Offset+uint64(z)*fp.SlicePitch+uint64(r)*fp.RowPitch, packed)
			packed += fp.RowBytes
		}
	}
}
