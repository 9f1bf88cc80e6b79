package software

import (
	"github.com/gogpu/readback"
	"github.com/gogpu/readback/backend"
)

// init registers the software backend on package import.
func init() {
	backend.Register(backend.BackendSoftware, func() backend.CaptureBackend {
		return NewBackend()
	})
}

// Backend is the software capture backend.
type Backend struct {
	opts []Option
	dev  *Device
}

// NewBackend creates a software backend. The device is created by Init.
func NewBackend(opts ...Option) *Backend {
	return &Backend{opts: opts}
}

// Name returns the backend identifier.
func (b *Backend) Name() string {
	return backend.BackendSoftware
}

// Init creates the device. Calling Init on an initialized backend is a no-op.
func (b *Backend) Init() error {
	if b.dev == nil {
		b.dev = NewDevice(b.opts...)
	}
	return nil
}

// Close stops the device.
func (b *Backend) Close() {
	if b.dev != nil {
		b.dev.Close()
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

// SoftwareDevice returns the concrete device, or nil before Init.
func (b *Backend) SoftwareDevice() *Device {
	return b.dev
}
