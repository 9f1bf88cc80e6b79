// Package software implements readback.DeviceAPI on the CPU.
//
// The software device keeps textures and buffers in Go memory and executes
// submitted command contexts on a worker goroutine that stands in for the
// GPU timeline: Submit returns before the work runs, and fences are
// signaled from the worker once everything submitted before them has
// executed. Barriers, resolves and copies are validated the way a GPU
// debug layer would; a violation removes the device.
//
// It serves as a reference implementation and as the backend for tests
// and GPU-less environments.
//
// Importing the package registers it with the backend registry:
//
//	import _ "github.com/gogpu/readback/backend/software"
package software
