// Package backend provides a pluggable capture backend abstraction.
//
// A capture backend pairs a readback.DeviceAPI with the queue captures are
// submitted to. Two implementations exist: a CPU reference backend and a
// GPU backend built on gogpu/wgpu.
//
// # Backend Registration
//
// Backends are registered via init() functions and selected at runtime.
// The software backend registers itself on import:
//
//	import _ "github.com/gogpu/readback/backend/software"
//
// The native backend needs a GPU device, so it is registered explicitly
// from a gpucontext.DeviceProvider and unregistered when that device goes
// away:
//
//	unregister := native.Register(provider)
//	defer unregister()
//
// # Backend Selection
//
// Use Default() to get the best available backend, or Get() to request
// a specific backend by name:
//
//	// Get the default (best available) backend
//	b := backend.Default()
//
//	// Or request a specific backend
//	b := backend.Get("software")
//
// # Usage with Capturer
//
// InitDefault falls through to the next backend when Init fails, so a
// native backend without a usable device yields the software backend.
//
//	b, err := backend.InitDefault()
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer b.Close()
//
//	c, err := backend.NewCapturer(b)
//	if err != nil {
//		log.Fatal(err)
//	}
//	res, err := c.Capture(b.Queue(), tex, readback.StateCommon, readback.StateCommon)
//
// # Available Backends
//
// - "software": CPU reference device (always available once imported)
// - "native": gogpu/wgpu HAL device (registered from a DeviceProvider)
package backend
