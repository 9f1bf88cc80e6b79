package readback

import (
	"fmt"

	"github.com/gogpu/readback/format"
)

// resolveStage collapses a multisampled source into a single-sample
// texture that replaces it for planning and transfer.
type resolveStage struct {
	dev DeviceAPI
	src Texture

	// desc is the single-sample descriptor; it keeps the source format.
	desc ResourceDescriptor

	// format is the interpretation used by the resolve operations.
	format format.Format

	planes int
	dst    Texture
}

// newResolveStage selects the resolve format for src. It allocates
// nothing; call allocate once planning has succeeded.
func newResolveStage(dev DeviceAPI, src Texture, desc ResourceDescriptor) (*resolveStage, error) {
	f, err := selectResolveFormat(dev, desc.Format)
	if err != nil {
		return nil, err
	}
	single := desc
	single.SampleCount = 1
	return &resolveStage{
		dev:    dev,
		src:    src,
		desc:   single,
		format: f,
		planes: dev.PlaneCount(desc.Format),
	}, nil
}

// selectResolveFormat picks the format resolve operations interpret texels
// as. Typeless formats prefer a UNORM interpretation the device can sample
// as a 2D texture, then a FLOAT one.
func selectResolveFormat(dev DeviceAPI, f format.Format) (format.Format, error) {
	chosen := f
	if format.IsTypeless(f) {
		chosen = format.Unknown
		if u, ok := format.TypelessUNORM(f); ok && dev.FormatSupport(u).Has(FormatSupportTexture2D) {
			chosen = u
		} else if fl, ok := format.TypelessFLOAT(f); ok && dev.FormatSupport(fl).Has(FormatSupportTexture2D) {
			chosen = fl
		}
		if chosen == format.Unknown {
			return format.Unknown, fmt.Errorf("%w: no resolvable interpretation of typeless %v", ErrUnsupportedFormat, f)
		}
	}
	if !dev.FormatSupport(chosen).Has(FormatSupportMultisampleResolve) {
		return format.Unknown, fmt.Errorf("%w: %v does not support multisample resolve", ErrUnsupportedFormat, chosen)
	}
	return chosen, nil
}

// allocate creates the single-sample destination in the resolve-dest state.
func (r *resolveStage) allocate(label string) error {
	dst, err := r.dev.CreateTexture(r.desc, StateResolveDest)
	if err != nil {
		return allocationError(r.dev, fmt.Sprintf("resolve target %dx%d %v",
			r.desc.Width, r.desc.Height, r.desc.Format), err)
	}
	if dst == nil {
		return fmt.Errorf("%w: resolve target for %s", ErrAllocationFailure, label)
	}
	r.dst = dst
	return nil
}

// record issues one resolve per (plane, slice, mip) and leaves the source
// in StateResolveSource and the destination in StateCopySource.
func (r *resolveStage) record(cc CommandContextAPI, before ResourceState) {
	transition(cc, r.src, before, StateResolveSource)

	arraySize := r.desc.ArraySize()
	for plane := uint32(0); plane < uint32(max(r.planes, 1)); plane++ {
		for slice := uint32(0); slice < arraySize; slice++ {
			for mip := uint32(0); mip < r.desc.MipLevels; mip++ {
				sub := SubresourceIndex(mip, slice, plane, r.desc.MipLevels, arraySize)
				cc.Resolve(r.dst, sub, r.src, sub, r.format)
			}
		}
	}

	transition(cc, r.dst, StateResolveDest, StateCopySource)
	slogger().Debug("readback: resolve recorded",
		"format", r.format, "samples", r.src.Descriptor().SampleCount,
		"subresources", SubresourceCount(r.desc, max(r.planes, 1)))
}

// release frees the resolve target. Safe on a stage that never allocated.
func (r *resolveStage) release() {
	if r == nil || r.dst == nil {
		return
	}
	r.dst.Release()
	r.dst = nil
}
