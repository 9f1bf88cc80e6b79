package readback

import (
	"fmt"
	"sync"
)

// Result is a completed capture. Its bytes are readable until Release.
type Result struct {
	staging  *StagingBuffer
	layout   Layout
	desc     ResourceDescriptor
	fastPath bool
	state    TransferState
	copies   int

	releaseOnce sync.Once
}

// Buffer returns the staging buffer holding the captured bytes.
func (r *Result) Buffer() *StagingBuffer { return r.staging }

// Layout returns the footprint table of the staging buffer.
func (r *Result) Layout() Layout { return r.layout }

// Footprints returns the footprints in subresource order.
func (r *Result) Footprints() []Footprint { return r.layout.Footprints }

// TotalSize returns the size of the staging buffer in bytes.
func (r *Result) TotalSize() uint64 { return r.layout.TotalSize }

// Descriptor returns the descriptor of the captured data. For a resolved
// source it is single-sample.
func (r *Result) Descriptor() ResourceDescriptor { return r.desc }

// FastPath reports whether the source was mapped in place.
func (r *Result) FastPath() bool { return r.fastPath }

// State returns the final transfer state; always TransferCompleted.
func (r *Result) State() TransferState { return r.state }

// CopyCount returns the number of copy commands the capture recorded.
func (r *Result) CopyCount() int { return r.copies }

// Bytes returns the whole staging buffer, padding included.
func (r *Result) Bytes() ([]byte, error) {
	return r.staging.Bytes()
}

// Subresource returns the bytes and footprint of one subresource.
func (r *Result) Subresource(mip, slice, plane uint32) ([]byte, Footprint, error) {
	fp, ok := r.layout.Find(mip, slice, plane)
	if !ok {
		return nil, Footprint{}, fmt.Errorf("%w: no subresource mip %d slice %d plane %d",
			ErrInvalidArgument, mip, slice, plane)
	}
	b, err := r.staging.Region(PlaneRegion{Offset: fp.Offset, Pitch: fp.RowPitch, Size: fp.Size()})
	if err != nil {
		return nil, Footprint{}, err
	}
	return b, fp, nil
}

// Row returns the payload of one row of fp, without alignment padding.
func (r *Result) Row(fp Footprint, depth, row uint32) ([]byte, error) {
	if depth >= fp.Depth || row >= fp.RowCount {
		return nil, fmt.Errorf("%w: row %d of depth slice %d outside %dx%d footprint",
			ErrInvalidArgument, row, depth, fp.RowCount, fp.Depth)
	}
	off := fp.Offset + uint64(depth)*fp.SlicePitch + uint64(row)*fp.RowPitch
	return r.staging.Region(PlaneRegion{Offset: off, Pitch: fp.RowPitch, Size: fp.RowBytes})
}

// Release frees the staging buffer. It is safe to call more than once.
func (r *Result) Release() {
	r.releaseOnce.Do(r.staging.Release)
}
