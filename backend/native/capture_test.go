//go:build !(js && wasm)

package native

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/readback"
	"github.com/gogpu/readback/format"
)

func TestCapture(t *testing.T) {
	dev, raw, _ := newTestDevice(t)
	src, err := dev.NewTexture("src", tex2D(8, 8, 1, 2, format.RGBA8Unorm), testUsage)
	if err != nil {
		t.Fatal(err)
	}
	defer src.Release()

	c, err := readback.New(dev, readback.WithLabel("native"))
	if err != nil {
		t.Fatal(err)
	}
	res, err := c.Capture(dev.Queue(), src, readback.StateRenderTarget, readback.StateRenderTarget)
	if err != nil {
		t.Fatal(err)
	}

	if res.State() != readback.TransferCompleted || res.FastPath() || res.CopyCount() != 2 {
		t.Errorf("state %v fast %v copies %d, want Completed false 2", res.State(), res.FastPath(), res.CopyCount())
	}

	enc := raw.lastEncoder(t)
	if len(enc.barriers) != 2 {
		t.Fatalf("recorded %d barriers, want 2", len(enc.barriers))
	}
	if got := enc.barriers[0].Usage; got.OldUsage != gputypes.TextureUsageRenderAttachment || got.NewUsage != gputypes.TextureUsageCopySrc {
		t.Errorf("first barrier = %+v, want RenderAttachment→CopySrc", got)
	}
	if got := enc.barriers[1].Usage; got.OldUsage != gputypes.TextureUsageCopySrc || got.NewUsage != gputypes.TextureUsageRenderAttachment {
		t.Errorf("last barrier = %+v, want CopySrc→RenderAttachment", got)
	}

	fps := res.Footprints()
	if len(enc.copies) != len(fps) {
		t.Fatalf("recorded %d copies, want %d", len(enc.copies), len(fps))
	}
	for i, fp := range fps {
		r := enc.copies[i]
		if r.BufferLayout.Offset != fp.Offset || uint64(r.BufferLayout.BytesPerRow) != fp.RowPitch {
			t.Errorf("copy %d at %d pitch %d, want %d pitch %d",
				i, r.BufferLayout.Offset, r.BufferLayout.BytesPerRow, fp.Offset, fp.RowPitch)
		}
		if r.TextureBase.MipLevel != fp.Mip || r.Size.Width != fp.Width || r.Size.Height != fp.Height {
			t.Errorf("copy %d mip %d %dx%d, want mip %d %dx%d",
				i, r.TextureBase.MipLevel, r.Size.Width, r.Size.Height, fp.Mip, fp.Width, fp.Height)
		}
	}

	for mip := uint32(0); mip < 2; mip++ {
		data, fp, err := res.Subresource(mip, 0, 0)
		if err != nil {
			t.Fatal(err)
		}
		row, err := res.Row(fp, 0, fp.RowCount-1)
		if err != nil {
			t.Fatal(err)
		}
		if data[0] != byte(mip+1) || row[len(row)-1] != byte(mip+1) {
			t.Errorf("mip %d bytes %d..%d, want %d", mip, data[0], row[len(row)-1], mip+1)
		}
	}

	if !enc.destroyed {
		t.Error("command encoder not destroyed after capture")
	}
	res.Release()
	if raw.destroyedBuffers != 1 {
		t.Errorf("staging buffer destroyed %d times, want 1", raw.destroyedBuffers)
	}
	if dev.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", dev.Pending())
	}
}

func TestCaptureMultisampled(t *testing.T) {
	dev, raw, _ := newTestDevice(t)
	desc := tex2D(8, 8, 1, 1, format.RGBA8Unorm)
	desc.SampleCount = 4
	src, err := dev.NewTexture("msaa", desc, testUsage)
	if err != nil {
		t.Fatal(err)
	}
	defer src.Release()

	c, err := readback.New(dev)
	if err != nil {
		t.Fatal(err)
	}
	res, err := c.Capture(dev.Queue(), src, readback.StateRenderTarget, readback.StateRenderTarget)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Release()

	if res.Descriptor().SampleCount != 1 || res.CopyCount() != 1 {
		t.Errorf("samples %d copies %d, want 1 1", res.Descriptor().SampleCount, res.CopyCount())
	}
	enc := raw.lastEncoder(t)
	if len(enc.passes) != 1 {
		t.Fatalf("recorded %d render passes, want 1", len(enc.passes))
	}
	att := enc.passes[0].ColorAttachments[0]
	if att.View == nil || att.ResolveTarget == nil {
		t.Error("resolve pass is missing its view or resolve target")
	}
	if att.LoadOp != gputypes.LoadOpLoad || att.StoreOp != gputypes.StoreOpStore {
		t.Errorf("load %v store %v, want Load Store", att.LoadOp, att.StoreOp)
	}
	if raw.destroyedTextures != 1 {
		t.Errorf("resolve target destroyed %d times, want 1", raw.destroyedTextures)
	}
	if raw.destroyedViews != 2 {
		t.Errorf("destroyed %d views, want 2", raw.destroyedViews)
	}
}

func TestCaptureMultisampledUnsupported(t *testing.T) {
	dev, err := New(&recordingDevice{}, &laggingQueue{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	desc := tex2D(8, 8, 1, 1, format.RGBA32Float)
	desc.SampleCount = 4
	src, err := dev.NewTexture("msaa", desc, testUsage)
	if err != nil {
		t.Fatal(err)
	}
	defer src.Release()

	c, err := readback.New(dev)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Capture(dev.Queue(), src, readback.StateRenderTarget, readback.StateRenderTarget); !errors.Is(err, readback.ErrUnsupportedFormat) {
		t.Errorf("Capture() error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestCaptureSubmitFailure(t *testing.T) {
	dev, raw, q := newTestDevice(t)
	src, err := dev.NewTexture("src", tex2D(4, 4, 1, 1, format.RGBA8Unorm), testUsage)
	if err != nil {
		t.Fatal(err)
	}
	defer src.Release()

	boom := errors.New("queue full")
	q.submitErr = boom
	c, err := readback.New(dev)
	if err != nil {
		t.Fatal(err)
	}
	_, err = c.Capture(dev.Queue(), src, readback.StateCopySource, readback.StateCopySource)
	if !errors.Is(err, readback.ErrDeviceFailure) || !errors.Is(err, boom) {
		t.Errorf("Capture() error = %v, want ErrDeviceFailure wrapping %v", err, boom)
	}
	if raw.destroyedBuffers != 1 || !raw.lastEncoder(t).destroyed {
		t.Errorf("buffers destroyed %d encoder destroyed %v, want 1 true",
			raw.destroyedBuffers, raw.lastEncoder(t).destroyed)
	}
}
