package software

import "sync"

// Buffer is a host-readable buffer held in Go memory.
type Buffer struct {
	dev   *Device
	label string

	mu       sync.Mutex
	data     []byte
	mapped   bool
	released bool
}

// Size returns the buffer size in bytes.
func (b *Buffer) Size() uint64 {
	return uint64(len(b.data))
}

// Label returns the debug label the buffer was created with.
func (b *Buffer) Label() string {
	return b.label
}

// Map returns the buffer contents.
func (b *Buffer) Map() ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.released {
		return nil, ErrReleased
	}
	b.mapped = true
	return b.data, nil
}

// Unmap ends the mapping started by Map.
func (b *Buffer) Unmap() {
	b.mu.Lock()
	b.mapped = false
	b.mu.Unlock()
}

// Mapped reports whether the buffer is currently mapped.
func (b *Buffer) Mapped() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.mapped
}

// Release frees the buffer. It is safe to call more than once.
func (b *Buffer) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.released {
		return
	}
	b.released = true
	b.dev.unreserve(uint64(len(b.data)))
}

// Released reports whether Release has been called.
func (b *Buffer) Released() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.released
}
