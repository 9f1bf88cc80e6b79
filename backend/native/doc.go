// Package native implements readback.DeviceAPI on a gogpu/wgpu HAL device.
//
// Commands are recorded with hal.CommandEncoder: barriers become
// TransitionTextures, copies become CopyTextureToBuffer with the footprint
// row pitch as BytesPerRow, and multisample resolves are render passes
// with a resolve attachment. Fences are timeline values layered on the
// queue's submission index, so the fence wait polls PollCompleted.
//
// Resources released while the GPU may still use them are destroyed once
// the queue has completed the last submission made before the release.
//
// A device is created from raw HAL objects, a *wgpu.Device, or a
// gpucontext.DeviceProvider such as a gogpu application:
//
//	dev, err := native.FromProvider(app)
//	c, err := readback.New(dev)
//	res, err := c.Capture(dev.Queue(), tex, readback.StateRenderTarget, readback.StateRenderTarget)
//
// The package does not register itself; call Register with a provider to
// make it the preferred backend of the registry.
package native
