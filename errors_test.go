package readback

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassify(t *testing.T) {
	device := errors.New("E_FAIL")
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"Nil", nil, KindNone},
		{"InvalidArgument", fmt.Errorf("%w: nil queue", ErrInvalidArgument), KindInvalidArgument},
		{"UnsupportedFormat", ErrUnsupportedFormat, KindUnsupportedFormat},
		{"ResourceLimitExceeded", ErrResourceLimitExceeded, KindResourceLimitExceeded},
		{"AllocationFailure", ErrAllocationFailure, KindAllocationFailure},
		{"DeviceFailure", deviceError("submit", device), KindDeviceFailure},
		{"DeviceLost", lostError(device), KindDeviceLost},
		{"DeviceLostOverDeviceFailure", lostError(deviceError("signal", device)), KindDeviceLost},
		{"Timeout", ErrTimeout, KindTimeout},
		{"Foreign", device, KindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestDeviceErrorWrapsCause(t *testing.T) {
	cause := errors.New("E_OUTOFMEMORY")
	err := deviceError("create fence", cause)
	if !errors.Is(err, ErrDeviceFailure) || !errors.Is(err, cause) {
		t.Errorf("deviceError() = %v, want both ErrDeviceFailure and cause", err)
	}
	if got, want := err.Error(), "readback: device failure: create fence: E_OUTOFMEMORY"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestLostErrorIdempotent(t *testing.T) {
	err := lostError(lostError(errors.New("hung")))
	if got, want := err.Error(), "readback: device lost: hung"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestErrorKindString(t *testing.T) {
	tests := []struct {
		k    ErrorKind
		want string
	}{
		{KindNone, "None"},
		{KindInvalidArgument, "InvalidArgument"},
		{KindDeviceLost, "DeviceLost"},
		{KindTimeout, "Timeout"},
		{KindUnknown, "Unknown"},
		{ErrorKind(42), "Unknown(42)"},
	}
	for _, tt := range tests {
		if got := tt.k.String(); got != tt.want {
			t.Errorf("ErrorKind(%d).String() = %q, want %q", int(tt.k), got, tt.want)
		}
	}
}
