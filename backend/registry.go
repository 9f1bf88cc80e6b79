package backend

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

// BackendFactory creates a new backend instance.
type BackendFactory func() CaptureBackend

var (
	registryMu sync.RWMutex
	backends   = make(map[string]BackendFactory)

	// backendPriority ranks the built-in backends. Other names follow in
	// lexical order.
	backendPriority = []string{BackendNative, BackendSoftware}
)

// Register installs factory under name, replacing any earlier factory for
// that name. The returned function restores the previous registration; it
// is safe to call more than once.
func Register(name string, factory BackendFactory) (restore func()) {
	registryMu.Lock()
	prev, had := backends[name]
	backends[name] = factory
	registryMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			registryMu.Lock()
			defer registryMu.Unlock()
			if had {
				backends[name] = prev
			} else {
				delete(backends, name)
			}
		})
	}
}

type entry struct {
	name    string
	factory BackendFactory
}

// candidates returns the registered factories in selection order. Factories
// run without the registry lock held.
func candidates() []entry {
	registryMu.RLock()
	defer registryMu.RUnlock()

	out := make([]entry, 0, len(backends))
	for _, name := range backendPriority {
		if f, ok := backends[name]; ok {
			out = append(out, entry{name, f})
		}
	}
	rest := make([]string, 0, len(backends))
	for name := range backends {
		if !slices.Contains(backendPriority, name) {
			rest = append(rest, name)
		}
	}
	slices.Sort(rest)
	for _, name := range rest {
		out = append(out, entry{name, backends[name]})
	}
	return out
}

// Get returns a new instance of the named backend, or nil if it is not
// registered.
func Get(name string) CaptureBackend {
	registryMu.RLock()
	factory, ok := backends[name]
	registryMu.RUnlock()
	if !ok {
		return nil
	}
	return factory()
}

// Default returns an uninitialized instance of the highest-ranked
// registered backend: native, then software, then the rest by name.
// It returns nil if no factory produces a backend.
func Default() CaptureBackend {
	for _, e := range candidates() {
		if b := e.factory(); b != nil {
			return b
		}
	}
	return nil
}

// InitDefault initializes backends in Default's order and returns the first
// one that initializes. A backend whose Init fails is closed and the next
// is tried, so a GPU backend without a usable device falls back to the
// software one. If none initializes, the error wraps ErrBackendNotAvailable
// and every Init failure.
func InitDefault() (CaptureBackend, error) {
	errs := []error{ErrBackendNotAvailable}
	for _, e := range candidates() {
		b := e.factory()
		if b == nil {
			continue
		}
		if err := b.Init(); err != nil {
			b.Close()
			errs = append(errs, fmt.Errorf("%s: %w", e.name, err))
			continue
		}
		return b, nil
	}
	return nil, errors.Join(errs...)
}
