package readback

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/gogpu/readback/internal/fencewait"
)

// waitFence blocks until f reaches target.
//
// Fences implementing EventFence are waited on directly; others are polled
// with exponential backoff. A device that reports itself removed, or a
// fence that jumps to the all-ones value D3D12 uses for removed devices,
// ends the wait with ErrDeviceLost.
func waitFence(dev DeviceAPI, f FenceAPI, target uint64, timeout time.Duration, backoff fencewait.Backoff) error {
	start := time.Now()

	if ef, ok := f.(EventFence); ok {
		reached, err := ef.WaitFor(target, timeout)
		if err != nil {
			return lostError(err)
		}
		if !reached {
			return fmt.Errorf("%w: fence value %d not reached after %v (completed %d)",
				ErrTimeout, target, timeout, f.CompletedValue())
		}
		return checkRemoved(dev, f)
	}

	err := fencewait.Poll(func() (bool, error) {
		v := f.CompletedValue()
		if v == math.MaxUint64 {
			return false, removedError(dev)
		}
		if v >= target {
			return true, nil
		}
		if err := dev.Status(); err != nil {
			return false, err
		}
		return false, nil
	}, backoff, timeout)

	switch {
	case err == nil:
		slogger().Debug("readback: fence reached",
			"target", target, "elapsed", time.Since(start))
		return nil
	case errors.Is(err, fencewait.ErrTimeout):
		return fmt.Errorf("%w: fence value %d not reached after %v (completed %d)",
			ErrTimeout, target, timeout, f.CompletedValue())
	default:
		return lostError(err)
	}
}

func checkRemoved(dev DeviceAPI, f FenceAPI) error {
	if f.CompletedValue() == math.MaxUint64 {
		return lostError(removedError(dev))
	}
	return nil
}

func removedError(dev DeviceAPI) error {
	if err := dev.Status(); err != nil {
		return err
	}
	return errors.New("fence reports removed device")
}

func lostError(err error) error {
	if errors.Is(err, ErrDeviceLost) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrDeviceLost, err)
}
