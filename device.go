package readback

import (
	"fmt"
	"strings"
	"time"

	"github.com/gogpu/readback/format"
)

// ResourceState is the usage state of a GPU resource. Copies read from
// StateCopySource; barriers move a resource between states.
type ResourceState uint32

const (
	// StateCommon is the default state; host-visible resources live here.
	StateCommon ResourceState = 0

	// StateRenderTarget is a color attachment being drawn to.
	StateRenderTarget ResourceState = 1 << iota
	// StateUnorderedAccess is read-write storage for shaders.
	StateUnorderedAccess
	// StateDepthWrite is a depth/stencil attachment with writes enabled.
	StateDepthWrite
	// StateDepthRead is a read-only depth/stencil attachment.
	StateDepthRead
	// StateShaderResource is sampled or read by shaders.
	StateShaderResource
	// StateCopyDest is the destination of a copy.
	StateCopyDest
	// StateCopySource is the source of a copy; captures read from it.
	StateCopySource
	// StateResolveDest is the single-sample destination of a resolve.
	StateResolveDest
	// StateResolveSource is the multisampled source of a resolve.
	StateResolveSource
	// StatePresent is handed to the presentation engine.
	StatePresent
)

var stateNames = []struct {
	s    ResourceState
	name string
}{
	{StateRenderTarget, "RenderTarget"},
	{StateUnorderedAccess, "UnorderedAccess"},
	{StateDepthWrite, "DepthWrite"},
	{StateDepthRead, "DepthRead"},
	{StateShaderResource, "ShaderResource"},
	{StateCopyDest, "CopyDest"},
	{StateCopySource, "CopySource"},
	{StateResolveDest, "ResolveDest"},
	{StateResolveSource, "ResolveSource"},
	{StatePresent, "Present"},
}

// String returns the string representation of ResourceState.
func (s ResourceState) String() string {
	if s == StateCommon {
		return "Common"
	}
	var parts []string
	rest := s
	for _, n := range stateNames {
		if s&n.s != 0 {
			parts = append(parts, n.name)
			rest &^= n.s
		}
	}
	if rest != 0 {
		parts = append(parts, fmt.Sprintf("0x%x", uint32(rest)))
	}
	return strings.Join(parts, "|")
}

// FormatSupport describes what a device can do with a format.
type FormatSupport uint32

const (
	// FormatSupportTexture2D means the format can back a sampleable 2D texture.
	FormatSupportTexture2D FormatSupport = 1 << iota
	// FormatSupportRenderTarget means the format can be rendered to.
	FormatSupportRenderTarget
	// FormatSupportMultisample means the format can back a multisampled texture.
	FormatSupportMultisample
	// FormatSupportMultisampleResolve means multisampled content in this
	// format can be resolved.
	FormatSupportMultisampleResolve
)

// Has reports whether all bits of flag are set.
func (f FormatSupport) Has(flag FormatSupport) bool {
	return f&flag == flag
}

// BufferDescriptor describes a host-readable buffer.
type BufferDescriptor struct {
	Label string
	Size  uint64
}

// Texture is an opaque GPU texture handle.
type Texture interface {
	// Descriptor returns the shape of the texture.
	Descriptor() ResourceDescriptor

	// Release frees the texture. Releasing a texture that is still in use
	// by the GPU is undefined behavior.
	Release()
}

// HostTexture is implemented by textures that may live in CPU-readable
// memory. A host-visible source skips all GPU work: its mapped bytes are
// used directly as the staging buffer.
type HostTexture interface {
	Texture

	// HostVisible reports whether the texture is backed by host-readable memory.
	HostVisible() bool

	// Map returns the texture memory laid out as the footprint table of
	// its descriptor describes.
	Map() ([]byte, error)

	// Unmap ends the mapping started by Map.
	Unmap()
}

// Buffer is an opaque host-readable GPU buffer handle.
type Buffer interface {
	Size() uint64

	// Map returns the buffer contents. The GPU must have finished writing.
	Map() ([]byte, error)
	Unmap()
	Release()
}

// DeviceAPI creates resources and answers capability queries.
//
// Implementations must be safe for concurrent use by independent captures.
type DeviceAPI interface {
	// PlaneCount returns the number of planes of f, or 0 if the device
	// does not know the format.
	PlaneCount(f format.Format) int

	// FormatSupport reports the device capabilities for f.
	FormatSupport(f format.Format) FormatSupport

	// CreateBuffer allocates a host-readable buffer usable as a copy destination.
	CreateBuffer(desc BufferDescriptor) (Buffer, error)

	// CreateTexture allocates a texture in the given initial state.
	CreateTexture(desc ResourceDescriptor, initial ResourceState) (Texture, error)

	// CreateCommandContext returns a recording context.
	CreateCommandContext(label string) (CommandContextAPI, error)

	// CreateFence returns a fence whose completed value starts at initial.
	CreateFence(initial uint64) (FenceAPI, error)

	// Status returns nil while the device is usable, or the reason it was
	// removed.
	Status() error
}

// CommandQueueAPI executes recorded work on the GPU timeline.
// Submissions to one queue must be serialized by the caller.
type CommandQueueAPI interface {
	// Submit enqueues a closed command context.
	Submit(cmd CommandContextAPI) error

	// Signal asks the GPU timeline to set f to value once all previously
	// submitted work has completed.
	Signal(f FenceAPI, value uint64) error
}

// FenceAPI is a monotonically increasing GPU→CPU synchronization counter.
type FenceAPI interface {
	// CompletedValue returns the last value the GPU has signaled.
	CompletedValue() uint64
	Release()
}

// EventFence is implemented by fences that can block on an OS event or
// channel instead of being polled.
type EventFence interface {
	FenceAPI

	// WaitFor blocks until the fence reaches value or timeout elapses.
	// It returns false on timeout. A timeout ≤ 0 waits without bound.
	WaitFor(value uint64, timeout time.Duration) (bool, error)
}

// CommandContextAPI records GPU commands for a single submission.
type CommandContextAPI interface {
	// Barrier transitions t between resource states.
	Barrier(t Texture, before, after ResourceState)

	// Resolve collapses subresource srcSub of a multisampled texture into
	// subresource dstSub of a single-sample texture, interpreting texels as f.
	Resolve(dst Texture, dstSub uint32, src Texture, srcSub uint32, f format.Format)

	// CopyTextureToBuffer copies the subresource identified by fp into dst
	// at fp.Offset, using fp.RowPitch between rows.
	CopyTextureToBuffer(dst Buffer, fp Footprint, src Texture)

	// Close finishes recording. The context may then be submitted once.
	Close() error

	// Release frees the context. The GPU must be done with it.
	Release()
}
