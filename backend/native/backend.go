//go:build !(js && wasm)

package native

import (
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/readback"
	"github.com/gogpu/readback/backend"
)

// Register registers the native backend on the GPU of p. The registry
// then prefers it over the software backend. Call the returned function
// when p's device goes away.
func Register(p gpucontext.DeviceProvider) (unregister func()) {
	return backend.Register(backend.BackendNative, func() backend.CaptureBackend {
		return NewBackend(p)
	})
}

// Backend is the native capture backend.
type Backend struct {
	provider gpucontext.DeviceProvider
	dev      *Device
}

// NewBackend creates a native backend. The device is created by Init.
func NewBackend(p gpucontext.DeviceProvider) *Backend {
	return &Backend{provider: p}
}

// Name returns the backend identifier.
func (b *Backend) Name() string {
	return backend.BackendNative
}

// Init creates the device from the provider. Calling Init on an
// initialized backend is a no-op.
func (b *Backend) Init() error {
	if b.dev != nil {
		return nil
	}
	if b.provider == nil {
		return backend.ErrBackendNotAvailable
	}
	dev, err := FromProvider(b.provider)
	if err != nil {
		return err
	}
	b.dev = dev
	return nil
}

// Close drains retired resources. The provider's GPU device stays open.
func (b *Backend) Close() {
	if b.dev != nil {
		if err := b.dev.Close(); err != nil {
			slogger().Warn("native: close failed", "err", err)
		}
		b.dev = nil
	}
}

// Device returns the device, or nil before Init.
func (b *Backend) Device() readback.DeviceAPI {
	if b.dev == nil {
		return nil
	}
	return b.dev
}

// Queue returns the device queue, or nil before Init.
func (b *Backend) Queue() readback.CommandQueueAPI {
	if b.dev == nil {
		return nil
	}
	return b.dev.Queue()
}

// NativeDevice returns the concrete device, or nil before Init.
func (b *Backend) NativeDevice() *Device {
	return b.dev
}
