package readback

import (
	"errors"
	"fmt"
)

// Capture errors. Every error returned by this package matches exactly one
// of these with errors.Is. Device-level failures additionally wrap the
// device's own error.
var (
	// ErrInvalidArgument is returned for a nil device, queue or source,
	// an invalid resource descriptor, or a plane index with no defined layout.
	ErrInvalidArgument = errors.New("readback: invalid argument")

	// ErrUnsupportedFormat is returned for formats with zero planes,
	// multi-plane depth/stencil formats, and multisampled sources with no
	// resolvable interpretation.
	ErrUnsupportedFormat = errors.New("readback: unsupported format")

	// ErrResourceLimitExceeded is returned when the subresource count
	// exceeds the configured hardware maximum.
	ErrResourceLimitExceeded = errors.New("readback: resource limit exceeded")

	// ErrAllocationFailure is returned when host or device memory cannot
	// be obtained, or the layout cannot be represented.
	ErrAllocationFailure = errors.New("readback: allocation failure")

	// ErrDeviceFailure wraps any failure reported by a device-level call.
	ErrDeviceFailure = errors.New("readback: device failure")

	// ErrDeviceLost is returned when execution fails while waiting for the
	// GPU, or when a call fails on a device that reports itself removed.
	// It is fatal for the device.
	ErrDeviceLost = errors.New("readback: device lost")

	// ErrTimeout is returned when the GPU does not reach the fence target
	// within the configured timeout.
	ErrTimeout = errors.New("readback: timeout waiting for GPU")
)

// ErrorKind classifies capture failures.
type ErrorKind int

const (
	// KindNone is the classification of a nil error.
	KindNone ErrorKind = iota
	// KindInvalidArgument matches ErrInvalidArgument.
	KindInvalidArgument
	// KindUnsupportedFormat matches ErrUnsupportedFormat.
	KindUnsupportedFormat
	// KindResourceLimitExceeded matches ErrResourceLimitExceeded.
	KindResourceLimitExceeded
	// KindAllocationFailure matches ErrAllocationFailure.
	KindAllocationFailure
	// KindDeviceFailure matches ErrDeviceFailure.
	KindDeviceFailure
	// KindDeviceLost matches ErrDeviceLost.
	KindDeviceLost
	// KindTimeout matches ErrTimeout.
	KindTimeout
	// KindUnknown is an error not produced by this package.
	KindUnknown
)

// String returns the string representation of ErrorKind.
func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "None"
	case KindInvalidArgument:
		return "InvalidArgument"
	case KindUnsupportedFormat:
		return "UnsupportedFormat"
	case KindResourceLimitExceeded:
		return "ResourceLimitExceeded"
	case KindAllocationFailure:
		return "AllocationFailure"
	case KindDeviceFailure:
		return "DeviceFailure"
	case KindDeviceLost:
		return "DeviceLost"
	case KindTimeout:
		return "Timeout"
	case KindUnknown:
		return "Unknown"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

var kinds = []struct {
	err  error
	kind ErrorKind
}{
	// DeviceLost and Timeout are checked before DeviceFailure because a
	// lost device may surface through a wrapped device error.
	{ErrDeviceLost, KindDeviceLost},
	{ErrTimeout, KindTimeout},
	{ErrInvalidArgument, KindInvalidArgument},
	{ErrUnsupportedFormat, KindUnsupportedFormat},
	{ErrResourceLimitExceeded, KindResourceLimitExceeded},
	{ErrAllocationFailure, KindAllocationFailure},
	{ErrDeviceFailure, KindDeviceFailure},
}

// Classify maps err onto the capture error taxonomy.
func Classify(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindUnknown
}

// deviceError wraps a device-level error as a DeviceFailure.
func deviceError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrDeviceFailure, op, err)
}

// allocationError wraps a failed resource creation. A device that reports
// itself removed makes the failure DeviceLost; otherwise it is an
// AllocationFailure.
func allocationError(dev DeviceAPI, what string, err error) error {
	if dev.Status() != nil {
		return fmt.Errorf("%w: %s: %w", ErrDeviceLost, what, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrAllocationFailure, what, err)
}
