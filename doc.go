// Package readback copies GPU textures into host-readable memory.
//
// # Overview
//
// readback captures every subresource of a texture (each mip level, array
// slice and plane) into one staging buffer laid out for row-by-row reading.
// It is designed to integrate with the GoGPU ecosystem: the native backend
// runs on gogpu/wgpu, and a software backend runs anywhere.
//
// # Quick Start
//
//	import (
//		"github.com/gogpu/readback"
//		"github.com/gogpu/readback/backend/software"
//	)
//
//	dev := software.NewDevice()
//	defer dev.Close()
//
//	c, err := readback.New(dev)
//	if err != nil {
//		return err
//	}
//	res, err := c.Capture(dev.Queue(), tex, readback.StateRenderTarget, readback.StateRenderTarget)
//	if err != nil {
//		return err
//	}
//	defer res.Release()
//
//	for _, fp := range res.Footprints() {
//		row, _ := res.Row(fp, 0, 0)
//		_ = row
//	}
//
// # Capture Pipeline
//
// A capture runs these stages, stopping at the first failure and releasing
// everything it created:
//   - Resolve selection: multisampled sources get a single-sample target
//   - Planning: one Footprint per subresource, rows aligned to 256 bytes
//   - Allocation: one staging buffer of Layout.TotalSize bytes
//   - Transfer: barriers, resolves and copies in one submission, then a
//     fence wait bounded by the fence timeout
//
// Host-visible sources (see HostTexture) skip the GPU entirely and are
// mapped in place.
//
// # Subresource Order
//
// Footprints are ordered by
//
//	index = mip + slice*mipLevels + plane*mipLevels*arraySize
//
// and laid out back to back, so offsets increase with the index. 3D
// textures have a single slice whose footprints span all depth slices.
//
// # Planar Formats
//
// Two-plane video formats (NV12, P010, NV11, ...) store the chroma plane
// after the luma plane. AdjustPlane computes the chroma region from the
// luma pitch and height.
//
// # Errors
//
// Every error matches one of the Err* sentinels with errors.Is; Classify
// maps an error to its ErrorKind.
package readback

// Version information
const (
	// Version is the current version of the library
	Version = "0.1.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 1

	// VersionPatch is the patch version
	VersionPatch = 0
)
