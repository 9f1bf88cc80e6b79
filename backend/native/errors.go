package native

import "errors"

// Package errors for the native backend.
var (
	// ErrNilDevice is returned when a device is constructed without a HAL device.
	ErrNilDevice = errors.New("native: HAL device is nil")

	// ErrNilQueue is returned when a device is constructed without a HAL queue.
	ErrNilQueue = errors.New("native: HAL queue is nil")

	// ErrNoHAL is returned when a device provider does not expose HAL types.
	ErrNoHAL = errors.New("native: provider does not expose HAL types")

	// ErrDeviceLost is returned when the GPU device is lost.
	ErrDeviceLost = errors.New("native: GPU device lost")

	// ErrFormatUnavailable is returned for formats with no WebGPU equivalent
	// (typeless and planar video formats).
	ErrFormatUnavailable = errors.New("native: format has no WebGPU equivalent")

	// ErrForeignResource is returned when a resource from another device or
	// backend is passed to this device.
	ErrForeignResource = errors.New("native: resource belongs to another device")

	// ErrReleased is returned when operating on a released resource.
	ErrReleased = errors.New("native: resource has been released")

	// ErrEncoderNotRecording is returned when commands are recorded on a
	// context that is not in the Recording state.
	ErrEncoderNotRecording = errors.New("native: encoder not in recording state")

	// ErrEncoderFinished is returned when a context is closed twice, or
	// submitted before it was closed.
	ErrEncoderFinished = errors.New("native: encoder already finished")

	// ErrEncoderConsumed is returned when a context is submitted twice.
	ErrEncoderConsumed = errors.New("native: encoder has been consumed")

	// ErrInvalidSubresource is returned when a resolve names a subresource
	// the texture does not have.
	ErrInvalidSubresource = errors.New("native: invalid subresource")

	// ErrRowPitchTooLarge is returned when a footprint row pitch does not
	// fit the 32-bit BytesPerRow of a WebGPU copy.
	ErrRowPitchTooLarge = errors.New("native: row pitch exceeds 32 bits")
)
