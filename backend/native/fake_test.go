//go:build !(js && wasm)

package native

import (
	"testing"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/readback"
	"github.com/gogpu/readback/format"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

// recordingDevice is a noop HAL device that records encoders and
// destroyed resources.
type recordingDevice struct {
	noop.Device

	bufErr error
	endErr error

	encoders          []*recordingEncoder
	destroyedTextures int
	destroyedBuffers  int
	destroyedViews    int
}

func (d *recordingDevice) CreateBuffer(desc *hal.BufferDescriptor) (hal.Buffer, error) {
	if d.bufErr != nil {
		return nil, d.bufErr
	}
	return d.Device.CreateBuffer(desc)
}

func (d *recordingDevice) CreateCommandEncoder(*hal.CommandEncoderDescriptor) (hal.CommandEncoder, error) {
	e := &recordingEncoder{dev: d, endErr: d.endErr}
	d.encoders = append(d.encoders, e)
	return e, nil
}

func (d *recordingDevice) DestroyTexture(hal.Texture)         { d.destroyedTextures++ }
func (d *recordingDevice) DestroyBuffer(hal.Buffer)           { d.destroyedBuffers++ }
func (d *recordingDevice) DestroyTextureView(hal.TextureView) { d.destroyedViews++ }

// lastEncoder returns the most recently created encoder.
func (d *recordingDevice) lastEncoder(t *testing.T) *recordingEncoder {
	t.Helper()
	if len(d.encoders) == 0 {
		t.Fatal("no command encoder was created")
	}
	return d.encoders[len(d.encoders)-1]
}

// recordingEncoder records commands. Copies fill the destination region
// with MipLevel+1 so captured bytes identify their source mip.
type recordingEncoder struct {
	noop.CommandEncoder
	dev    *recordingDevice
	endErr error

	barriers  []hal.TextureBarrier
	copies    []hal.BufferTextureCopy
	passes    []hal.RenderPassDescriptor
	discarded bool
	destroyed bool
}

func (e *recordingEncoder) EndEncoding() (hal.CommandBuffer, error) {
	if e.endErr != nil {
		return nil, e.endErr
	}
	return e.CommandEncoder.EndEncoding()
}

func (e *recordingEncoder) DiscardEncoding() { e.discarded = true }
func (e *recordingEncoder) Destroy()         { e.destroyed = true }

func (e *recordingEncoder) TransitionTextures(barriers []hal.TextureBarrier) {
	e.barriers = append(e.barriers, barriers...)
}

func (e *recordingEncoder) CopyTextureToBuffer(_ hal.Texture, dst hal.Buffer, regions []hal.BufferTextureCopy) {
	for _, r := range regions {
		e.copies = append(e.copies, r)
		size := uint64(r.BufferLayout.BytesPerRow) * uint64(r.BufferLayout.RowsPerImage) * uint64(r.Size.DepthOrArrayLayers)
		m, err := e.dev.MapBuffer(dst, r.BufferLayout.Offset, size)
		if err != nil {
			continue
		}
		for i, b := 0, unsafe.Slice((*byte)(m.Ptr), size); i < len(b); i++ {
			b[i] = byte(r.TextureBase.MipLevel + 1)
		}
	}
}

func (e *recordingEncoder) BeginRenderPass(desc *hal.RenderPassDescriptor) hal.RenderPassEncoder {
	e.passes = append(e.passes, *desc)
	return &noop.RenderPassEncoder{}
}

// laggingQueue is a noop HAL queue whose completion can be held back.
type laggingQueue struct {
	noop.Queue

	submitErr error
	hold      bool
	held      uint64
}

func (q *laggingQueue) Submit(cbs []hal.CommandBuffer) (uint64, error) {
	if q.submitErr != nil {
		return 0, q.submitErr
	}
	return q.Queue.Submit(cbs)
}

func (q *laggingQueue) PollCompleted() uint64 {
	if q.hold {
		return q.held
	}
	return q.Queue.PollCompleted()
}

// stall freezes the completed submission index at its current value.
func (q *laggingQueue) stall() {
	q.held = q.Queue.PollCompleted()
	q.hold = true
}

func (q *laggingQueue) resume() { q.hold = false }

func newTestDevice(t *testing.T) (*Device, *recordingDevice, *laggingQueue) {
	t.Helper()
	raw := &recordingDevice{}
	q := &laggingQueue{}
	dev, err := New(raw, q, &noop.Adapter{})
	if err != nil {
		t.Fatal(err)
	}
	return dev, raw, q
}

func tex2D(w, h, layers, mips uint32, f format.Format) readback.ResourceDescriptor {
	return readback.ResourceDescriptor{
		Dimension:        readback.Dimension2D,
		Width:            w,
		Height:           h,
		DepthOrArraySize: layers,
		MipLevels:        mips,
		Format:           f,
		SampleCount:      1,
	}
}

const testUsage = gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc
