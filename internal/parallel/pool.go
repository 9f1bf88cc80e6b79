// Package parallel spreads CPU work of the software device over a bounded
// number of goroutines.
package parallel

import (
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// Pool bounds the goroutines a Run may use.
//
// Pool is safe for concurrent use.
type Pool struct {
	workers int
}

// NewPool returns a pool of the given width.
// If workers is 0 or negative, GOMAXPROCS is used.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Pool{workers: workers}
}

// Run calls fn(i) for every i in [0, n) and returns when all started calls
// have finished. Indices are split into at most Workers contiguous bands,
// one goroutine each; a single band runs on the calling goroutine.
//
// The first error stops every band at its next index and is returned.
func (p *Pool) Run(n int, fn func(i int) error) error {
	if n <= 0 {
		return nil
	}
	bands := min(p.workers, n)
	if bands == 1 {
		for i := range n {
			if err := fn(i); err != nil {
				return err
			}
		}
		return nil
	}

	var (
		g      errgroup.Group
		failed atomic.Bool
	)
	g.SetLimit(bands)
	for b := range bands {
		lo, hi := b*n/bands, (b+1)*n/bands
		g.Go(func() error {
			for i := lo; i < hi && !failed.Load(); i++ {
				if err := fn(i); err != nil {
					failed.Store(true)
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}

// Workers returns the maximum number of bands.
func (p *Pool) Workers() int {
	return p.workers
}
