package backend

import (
	"errors"

	"github.com/gogpu/readback"
)

// Backend name constants.
const (
	// BackendSoftware is the name of the CPU reference backend.
	BackendSoftware = "software"
	// BackendNative is the name of the GPU backend built on gogpu/wgpu.
	BackendNative = "native"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested backend is not available.
	ErrBackendNotAvailable = errors.New("backend: not available")

	// ErrNotInitialized is returned when operations are called before Init.
	ErrNotInitialized = errors.New("backend: not initialized")
)

// CaptureBackend is the interface for capture backends.
// It bundles a device and the queue captures are submitted to.
//
// Backends must be registered via Register() and are selected via
// Get() or Default().
type CaptureBackend interface {
	// Name returns the backend identifier (e.g., "software", "native").
	Name() string

	// Init initializes the backend.
	// This should be called before Device or Queue.
	Init() error

	// Close releases all backend resources.
	// The backend should not be used after Close is called.
	Close()

	// Device returns the device captures allocate on.
	Device() readback.DeviceAPI

	// Queue returns the queue captures are submitted to.
	Queue() readback.CommandQueueAPI
}

// NewCapturer returns a readback.Capturer for an initialized backend.
func NewCapturer(b CaptureBackend, opts ...readback.Option) (*readback.Capturer, error) {
	if b == nil {
		return nil, ErrBackendNotAvailable
	}
	dev := b.Device()
	if dev == nil {
		return nil, ErrNotInitialized
	}
	return readback.New(dev, opts...)
}
