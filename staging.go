package readback

import (
	"fmt"
	"sync"
)

// StagingBuffer is the host-readable destination of a capture.
//
// It is an arena: one contiguous byte range addressed through footprints
// and plane regions (offset, length). Slices returned by its accessors
// alias the arena and are valid until Release.
type StagingBuffer struct {
	mu sync.Mutex

	// buf is the owned staging buffer; nil when the source is borrowed.
	buf Buffer

	// host is the borrowed source of a fast-path capture.
	host HostTexture

	size     uint64
	data     []byte
	mapped   bool
	released bool
}

// allocateStaging creates a staging buffer of size bytes on dev.
func allocateStaging(dev DeviceAPI, label string, size uint64) (*StagingBuffer, error) {
	if size == 0 {
		return nil, fmt.Errorf("%w: zero-sized staging buffer", ErrInvalidArgument)
	}
	buf, err := dev.CreateBuffer(BufferDescriptor{Label: label, Size: size})
	if err != nil {
		return nil, allocationError(dev, fmt.Sprintf("staging buffer of %d bytes", size), err)
	}
	if buf == nil {
		return nil, fmt.Errorf("%w: staging buffer of %d bytes", ErrAllocationFailure, size)
	}
	if buf.Size() < size {
		buf.Release()
		return nil, fmt.Errorf("%w: device returned %d bytes, want %d", ErrAllocationFailure, buf.Size(), size)
	}
	return &StagingBuffer{buf: buf, size: size}, nil
}

// borrowStaging wraps a host-visible source as a staging buffer. Release
// unmaps it but never frees the source.
func borrowStaging(src HostTexture, size uint64) *StagingBuffer {
	return &StagingBuffer{host: src, size: size}
}

// Handle returns the underlying resource: the staging Buffer, or the
// source texture when the capture took the host-visible fast path.
func (s *StagingBuffer) Handle() any {
	if s.host != nil {
		return s.host
	}
	return s.buf
}

// Borrowed reports whether the buffer is the capture source itself.
func (s *StagingBuffer) Borrowed() bool {
	return s.host != nil
}

// Size returns the arena size in bytes.
func (s *StagingBuffer) Size() uint64 {
	return s.size
}

// Bytes maps the arena on first use and returns it.
func (s *StagingBuffer) Bytes() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.released {
		return nil, fmt.Errorf("%w: staging buffer released", ErrInvalidArgument)
	}
	if s.mapped {
		return s.data, nil
	}

	var (
		data []byte
		err  error
	)
	if s.host != nil {
		data, err = s.host.Map()
	} else {
		data, err = s.buf.Map()
	}
	if err != nil {
		return nil, deviceError("map staging buffer", err)
	}
	if uint64(len(data)) < s.size {
		s.unmapLocked()
		return nil, fmt.Errorf("%w: mapped %d bytes, layout needs %d", ErrDeviceFailure, len(data), s.size)
	}
	s.data = data[:s.size:s.size]
	s.mapped = true
	return s.data, nil
}

// Region returns the bytes of r.
func (s *StagingBuffer) Region(r PlaneRegion) ([]byte, error) {
	end := r.Offset + r.Size
	if end < r.Offset || end > s.size {
		return nil, fmt.Errorf("%w: region [%d, %d) outside staging buffer of %d bytes",
			ErrInvalidArgument, r.Offset, end, s.size)
	}
	data, err := s.Bytes()
	if err != nil {
		return nil, err
	}
	return data[r.Offset:end:end], nil
}

// Release unmaps the arena and frees an owned staging buffer.
// It is safe to call more than once.
func (s *StagingBuffer) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.released {
		return
	}
	s.released = true
	if s.mapped {
		s.unmapLocked()
	}
	if s.buf != nil {
		s.buf.Release()
	}
	s.data = nil
}

func (s *StagingBuffer) unmapLocked() {
	if s.host != nil {
		s.host.Unmap()
	} else {
		s.buf.Unmap()
	}
	s.mapped = false
}
