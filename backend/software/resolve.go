package software

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/readback"
	"github.com/gogpu/readback/format"
)

type componentKind int

const (
	unorm8 componentKind = iota
	unorm16
	float32Component
)

// componentKinds lists the formats the CPU resolve can average.
var componentKinds = map[format.Format]componentKind{
	format.RGBA8Unorm:     unorm8,
	format.RGBA8UnormSRGB: unorm8,
	format.BGRA8Unorm:     unorm8,
	format.BGRA8UnormSRGB: unorm8,
	format.RG8Unorm:       unorm8,
	format.R8Unorm:        unorm8,
	format.RGBA16Unorm:    unorm16,
	format.RG16Unorm:      unorm16,
	format.R16Unorm:       unorm16,
	format.RGBA32Float:    float32Component,
	format.RG32Float:      float32Component,
	format.R32Float:       float32Component,
}

type resolveCmd struct {
	dst    *Texture
	dstSub uint32
	src    *Texture
	srcSub uint32
	format format.Format
}

func (c resolveCmd) String() string {
	return fmt.Sprintf("resolve subresource %d → %d as %v", c.srcSub, c.dstSub, c.format)
}

func (c resolveCmd) exec() error {
	if c.src == c.dst {
		return fmt.Errorf("%w: resolve in place", readback.ErrInvalidArgument)
	}
	c.src.mu.Lock()
	defer c.src.mu.Unlock()
	c.dst.mu.Lock()
	defer c.dst.mu.Unlock()

	if c.src.released || c.dst.released {
		return ErrReleased
	}
	if c.src.state&readback.StateResolveSource == 0 {
		return fmt.Errorf("%w: resolve source %v is %v", ErrStateMismatch, c.src, c.src.state)
	}
	if c.dst.state&readback.StateResolveDest == 0 {
		return fmt.Errorf("%w: resolve destination %v is %v", ErrStateMismatch, c.dst, c.dst.state)
	}
	if !c.src.desc.Multisampled() || c.dst.desc.Multisampled() {
		return fmt.Errorf("%w: resolve %v into %v", readback.ErrInvalidArgument, c.src, c.dst)
	}
	kind, ok := componentKinds[c.format]
	if !ok {
		return fmt.Errorf("%w: cannot resolve %v", readback.ErrUnsupportedFormat, c.format)
	}

	sfp, ok := c.src.subresource(c.srcSub)
	if !ok {
		return fmt.Errorf("%w: %v has no subresource %d", readback.ErrInvalidArgument, c.src, c.srcSub)
	}
	dfp, ok := c.dst.subresource(c.dstSub)
	if !ok {
		return fmt.Errorf("%w: %v has no subresource %d", readback.ErrInvalidArgument, c.dst, c.dstSub)
	}
	if sfp.RowBytes != dfp.RowBytes || sfp.RowCount != dfp.RowCount {
		return fmt.Errorf("%w: resolve extent mismatch", readback.ErrInvalidArgument)
	}

	return c.dst.dev.pool.Run(int(sfp.RowCount), func(r int) error {
		rows := make([][]byte, len(c.src.mem))
		so := sfp.Offset + uint64(r)*sfp.RowPitch
		for i, m := range c.src.mem {
			if so+sfp.RowBytes > uint64(len(m)) {
				return fmt.Errorf("%w: sample %d row %d outside %v", readback.ErrInvalidArgument, i, r, c.src)
			}
			rows[i] = m[so : so+sfp.RowBytes]
		}
		do := dfp.Offset + uint64(r)*dfp.RowPitch
		if do+dfp.RowBytes > uint64(len(c.dst.mem[0])) {
			return fmt.Errorf("%w: row %d outside %v", readback.ErrInvalidArgument, r, c.dst)
		}
		averageRow(kind, c.dst.mem[0][do:do+dfp.RowBytes], rows)
		return nil
	})
}

// averageRow writes the per-component mean of rows into dst.
func averageRow(kind componentKind, dst []byte, rows [][]byte) {
	n := len(rows)
	switch kind {
	case unorm8:
		for i := range dst {
			var sum int
			for _, r := range rows {
				sum += int(r[i])
			}
			dst[i] = byte((sum + n/2) / n)
		}
	case unorm16:
		for i := 0; i+2 <= len(dst); i += 2 {
			var sum int
			for _, r := range rows {
				sum += int(binary.LittleEndian.Uint16(r[i:]))
			}
			binary.LittleEndian.PutUint16(dst[i:], uint16((sum+n/2)/n))
		}
	case float32Component:
		for i := 0; i+4 <= len(dst); i += 4 {
			var sum float64
			for _, r := range rows {
				sum += float64(math.Float32frombits(binary.LittleEndian.Uint32(r[i:])))
			}
			binary.LittleEndian.PutUint32(dst[i:], math.Float32bits(float32(sum/float64(n))))
		}
	}
}
