package software

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/gogpu/readback"
	"github.com/gogpu/readback/format"
)

func TestFormatSupport(t *testing.T) {
	dev := newTestDevice(t)

	tests := []struct {
		f    format.Format
		has  readback.FormatSupport
		lack readback.FormatSupport
	}{
		{format.RGBA8Unorm, readback.FormatSupportTexture2D | readback.FormatSupportRenderTarget | readback.FormatSupportMultisampleResolve, 0},
		{format.RGBA8Typeless, 0, readback.FormatSupportTexture2D | readback.FormatSupportMultisampleResolve},
		{format.RGBA8Uint, readback.FormatSupportTexture2D | readback.FormatSupportMultisample, readback.FormatSupportMultisampleResolve},
		{format.D32Float, readback.FormatSupportMultisample, readback.FormatSupportRenderTarget},
		{format.BC1Unorm, readback.FormatSupportTexture2D, readback.FormatSupportRenderTarget},
		{format.NV12, readback.FormatSupportTexture2D, readback.FormatSupportMultisample},
	}
	for _, tt := range tests {
		t.Run(tt.f.String(), func(t *testing.T) {
			got := dev.FormatSupport(tt.f)
			if !got.Has(tt.has) {
				t.Errorf("FormatSupport(%v) = %b, missing %b", tt.f, got, tt.has)
			}
			if tt.lack != 0 && got&tt.lack != 0 {
				t.Errorf("FormatSupport(%v) = %b, unexpected %b", tt.f, got, got&tt.lack)
			}
		})
	}

	if got := dev.FormatSupport(format.Unknown); got != 0 {
		t.Errorf("FormatSupport(Unknown) = %b, want 0", got)
	}
}

func TestPlaneCountOverride(t *testing.T) {
	dev := newTestDevice(t, WithPlaneCount(func(format.Format) int { return 0 }))
	if got := dev.PlaneCount(format.RGBA8Unorm); got != 0 {
		t.Errorf("PlaneCount() = %d, want 0", got)
	}
	if got := newTestDevice(t).PlaneCount(format.NV12); got != 2 {
		t.Errorf("PlaneCount(NV12) = %d, want 2", got)
	}
}

func TestTextureWriteRead(t *testing.T) {
	dev := newTestDevice(t)
	desc := readback.ResourceDescriptor{Dimension: readback.Dimension2D, Width: 3, Height: 2, DepthOrArraySize: 1, MipLevels: 1, Format: format.RGBA8Unorm, SampleCount: 2}
	tex, err := dev.NewTexture(desc, readback.StateCommon)
	if err != nil {
		t.Fatal(err)
	}
	defer tex.Release()

	if err := tex.Write(0, 0, 0, make([]byte, 5)); !errors.Is(err, ErrDataSize) {
		t.Errorf("Write(short) error = %v, want ErrDataSize", err)
	}
	if err := tex.WriteSample(2, 0, 0, 0, make([]byte, 24)); !errors.Is(err, readback.ErrInvalidArgument) {
		t.Errorf("WriteSample(2) error = %v, want ErrInvalidArgument", err)
	}

	data := pattern(24, 3)
	if err := tex.WriteSample(1, 0, 0, 0, data); err != nil {
		t.Fatal(err)
	}
	got, err := tex.ReadSample(1, 0, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(data) {
		t.Errorf("ReadSample(1) = %v, want %v", got, data)
	}
	if zero, _ := tex.Read(0, 0, 0); string(zero) != string(make([]byte, 24)) {
		t.Errorf("Read(0) = %v, want zeros", zero)
	}
}

func TestTextureMap(t *testing.T) {
	dev := newTestDevice(t)
	desc := readback.ResourceDescriptor{Dimension: readback.Dimension2D, Width: 2, Height: 2, DepthOrArraySize: 1, MipLevels: 1, Format: format.R8Unorm, SampleCount: 1}

	local, err := dev.NewTexture(desc, readback.StateCommon)
	if err != nil {
		t.Fatal(err)
	}
	defer local.Release()
	if local.HostVisible() {
		t.Error("device-local texture reports HostVisible")
	}
	if _, err := local.Map(); !errors.Is(err, ErrNotMappable) {
		t.Errorf("Map() error = %v, want ErrNotMappable", err)
	}

	host, err := dev.NewHostTexture(desc)
	if err != nil {
		t.Fatal(err)
	}
	defer host.Release()
	mem, err := host.Map()
	if err != nil {
		t.Fatal(err)
	}
	if got := uint64(len(mem)); got != 512 {
		t.Errorf("len(Map()) = %d, want 512 (2 rows of 256)", got)
	}
	host.Unmap()

	ms := desc
	ms.SampleCount = 4
	if _, err := dev.NewHostTexture(ms); !errors.Is(err, readback.ErrInvalidArgument) {
		t.Errorf("NewHostTexture(multisampled) error = %v, want ErrInvalidArgument", err)
	}
}

func TestMemoryBudget(t *testing.T) {
	dev := newTestDevice(t, WithMemoryBudget(100))

	b, err := dev.CreateBuffer(readback.BufferDescriptor{Size: 60})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := dev.CreateBuffer(readback.BufferDescriptor{Size: 60}); !errors.Is(err, ErrOutOfMemory) {
		t.Errorf("CreateBuffer over budget error = %v, want ErrOutOfMemory", err)
	}
	b.Release()
	b.Release()
	if got := dev.Allocated(); got != 0 {
		t.Errorf("Allocated() = %d, want 0", got)
	}
	if _, err := b.Map(); !errors.Is(err, ErrReleased) {
		t.Errorf("Map() after Release error = %v, want ErrReleased", err)
	}
}

func TestFenceWaitFor(t *testing.T) {
	dev := newTestDevice(t)
	fa, err := dev.CreateFence(3)
	if err != nil {
		t.Fatal(err)
	}
	f := fa.(*Fence)
	defer f.Release()

	if got := f.CompletedValue(); got != 3 {
		t.Errorf("CompletedValue() = %d, want 3", got)
	}
	if ok, err := f.WaitFor(2, time.Millisecond); !ok || err != nil {
		t.Errorf("WaitFor(reached) = %v, %v", ok, err)
	}
	if ok, err := f.WaitFor(4, 10*time.Millisecond); ok || err != nil {
		t.Errorf("WaitFor(unreached) = %v, %v, want false, nil", ok, err)
	}

	go func() {
		time.Sleep(5 * time.Millisecond)
		_ = dev.Queue().Signal(f, 4)
	}()
	if ok, err := f.WaitFor(4, 0); !ok || err != nil {
		t.Errorf("WaitFor(signaled) = %v, %v", ok, err)
	}

	dev.Lose(errors.New("test"))
	if got := f.CompletedValue(); got != math.MaxUint64 {
		t.Errorf("CompletedValue() after Lose = %d, want MaxUint64", got)
	}
	if _, err := f.WaitFor(10, 0); !errors.Is(err, ErrDeviceRemoved) {
		t.Errorf("WaitFor() after Lose error = %v, want ErrDeviceRemoved", err)
	}
}

func TestPolledFence(t *testing.T) {
	dev := newTestDevice(t, WithPolledFences())
	f, err := dev.CreateFence(0)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := f.(readback.EventFence); ok {
		t.Error("polled fence implements EventFence")
	}
	if err := dev.Queue().Signal(f, 1); err != nil {
		t.Fatal(err)
	}
	if err := dev.Queue().WaitIdle(); err != nil {
		t.Fatal(err)
	}
	if got := f.CompletedValue(); got != 1 {
		t.Errorf("CompletedValue() = %d, want 1", got)
	}
}

func TestCommandContextStates(t *testing.T) {
	dev := newTestDevice(t)
	cc, err := dev.CreateCommandContext("test")
	if err != nil {
		t.Fatal(err)
	}
	defer cc.Release()

	if err := dev.Queue().Submit(cc); !errors.Is(err, ErrContextState) {
		t.Errorf("Submit(recording) error = %v, want ErrContextState", err)
	}
	if err := cc.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := cc.Close(); !errors.Is(err, ErrContextState) {
		t.Errorf("Close() twice error = %v, want ErrContextState", err)
	}
	if err := dev.Queue().Submit(cc); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if err := dev.Queue().Submit(cc); !errors.Is(err, ErrContextState) {
		t.Errorf("Submit() twice error = %v, want ErrContextState", err)
	}
}

func TestCommandContextForeignResource(t *testing.T) {
	dev := newTestDevice(t)
	other := newTestDevice(t)
	desc := readback.ResourceDescriptor{Dimension: readback.Dimension2D, Width: 1, Height: 1, DepthOrArraySize: 1, MipLevels: 1, Format: format.R8Unorm, SampleCount: 1}
	tex, err := other.NewTexture(desc, readback.StateCommon)
	if err != nil {
		t.Fatal(err)
	}
	defer tex.Release()

	cc, _ := dev.CreateCommandContext("test")
	defer cc.Release()
	cc.Barrier(tex, readback.StateCommon, readback.StateCopySource)
	if err := cc.Close(); !errors.Is(err, ErrForeignResource) {
		t.Errorf("Close() error = %v, want ErrForeignResource", err)
	}
	if got := cc.(*CommandContext).Len(); got != 0 {
		t.Errorf("Len() = %d, want 0", got)
	}
}

func TestQueueOrdering(t *testing.T) {
	dev := newTestDevice(t, WithLatency(2*time.Millisecond))
	desc := readback.ResourceDescriptor{Dimension: readback.Dimension2D, Width: 1, Height: 1, DepthOrArraySize: 1, MipLevels: 1, Format: format.R8Unorm, SampleCount: 1}
	tex, err := dev.NewTexture(desc, readback.StateCommon)
	if err != nil {
		t.Fatal(err)
	}
	defer tex.Release()

	// Each barrier is only valid after the previous one executed.
	states := []readback.ResourceState{
		readback.StateCommon, readback.StateCopySource, readback.StateShaderResource, readback.StateRenderTarget,
	}
	for i := 1; i < len(states); i++ {
		cc, _ := dev.CreateCommandContext("step")
		cc.Barrier(tex, states[i-1], states[i])
		if err := cc.Close(); err != nil {
			t.Fatal(err)
		}
		if err := dev.Queue().Submit(cc); err != nil {
			t.Fatal(err)
		}
		cc.Release()
	}
	if err := dev.Queue().WaitIdle(); err != nil {
		t.Fatal(err)
	}
	if err := dev.Status(); err != nil {
		t.Fatalf("Status() = %v", err)
	}
	if got := tex.State(); got != readback.StateRenderTarget {
		t.Errorf("State() = %v, want RenderTarget", got)
	}
}

func TestQueueClosed(t *testing.T) {
	dev := NewDevice()
	dev.Close()
	dev.Close()

	f, _ := dev.CreateFence(0)
	if err := dev.Queue().Signal(f, 1); !errors.Is(err, ErrClosed) {
		t.Errorf("Signal() after Close error = %v, want ErrClosed", err)
	}
}

func TestBackend(t *testing.T) {
	b := NewBackend()
	if b.Name() != "software" {
		t.Errorf("Name() = %q, want %q", b.Name(), "software")
	}
	if b.Device() != nil || b.Queue() != nil {
		t.Error("Device()/Queue() before Init should be nil")
	}
	if err := b.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	defer b.Close()
	if b.Device() == nil || b.Queue() == nil || b.SoftwareDevice() == nil {
		t.Error("Device()/Queue() after Init should not be nil")
	}
}
