//go:build !(js && wasm)

package native

import (
	"errors"
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/wgpu"
	"github.com/gogpu/wgpu/hal"
)

// FromProvider creates a device on the GPU of a gpucontext.DeviceProvider,
// such as a gogpu application. The provider keeps ownership of the GPU
// device; closing the returned Device only drains readback resources.
//
// The provider must either expose HalDevice() any and HalQueue() any, or
// return a *wgpu.Device from Device(). If its adapter reports texture
// format capabilities they are used for FormatSupport.
func FromProvider(p gpucontext.DeviceProvider) (*Device, error) {
	if p == nil {
		return nil, ErrNilDevice
	}

	var caps FormatCapabilities
	if fc, ok := p.Adapter().(FormatCapabilities); ok {
		caps = fc
	}
	info := p.AdapterInfo()
	slogger().Info("native: using provider device", "adapter", info.Name, "type", info.Type)

	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	if hp, ok := p.(halProvider); ok {
		dev, ok := hp.HalDevice().(hal.Device)
		if !ok || dev == nil {
			return nil, fmt.Errorf("%w: HalDevice is %T", ErrNoHAL, hp.HalDevice())
		}
		queue, ok := hp.HalQueue().(hal.Queue)
		if !ok || queue == nil {
			return nil, fmt.Errorf("%w: HalQueue is %T", ErrNoHAL, hp.HalQueue())
		}
		return New(dev, queue, caps)
	}

	wd, ok := p.Device().(*wgpu.Device)
	if !ok {
		return nil, fmt.Errorf("%w: device is %T", ErrNoHAL, p.Device())
	}
	return FromWGPU(wd, caps)
}

// FromWGPU creates a device on a *wgpu.Device. caps may be nil.
func FromWGPU(d *wgpu.Device, caps FormatCapabilities) (*Device, error) {
	if d == nil {
		return nil, ErrNilDevice
	}
	dev := d.HalDevice()
	if dev == nil {
		return nil, errors.Join(ErrNoHAL, ErrReleased)
	}
	queue := d.HalQueue()
	if queue == nil {
		return nil, ErrNilQueue
	}
	return New(dev, queue, caps)
}
