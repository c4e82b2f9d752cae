package heat

import (
	"errors"
	"fmt"
	"sync"
)

// Backend name constants.
const (
	// BackendSoftware is the name of the CPU compositing backend.
	BackendSoftware = "software"
	// BackendGPU is the name of the shader backend (gogpu/wgpu).
	// It is registered by importing the gpu subpackage.
	BackendGPU = "gpu"
)

// ErrBackendUnavailable is returned when a requested renderer backend
// is not registered or failed to initialize and fallback is disabled.
var ErrBackendUnavailable = errors.New("heat: renderer backend not available")

// RendererFactory creates a renderer instance for a validated
// configuration.
type RendererFactory func(cfg Config) (Renderer, error)

// registry holds registered renderer backends.
var (
	registryMu sync.RWMutex
	factories  = make(map[string]RendererFactory)
	// Priority order for automatic backend selection (first available
	// wins): GPU over software.
	backendPriority = []string{BackendGPU, BackendSoftware}
)

func init() {
	RegisterRenderer(BackendSoftware, func(cfg Config) (Renderer, error) {
		return NewSoftwareRenderer(cfg), nil
	})
}

// RegisterRenderer registers a renderer factory under the given name.
// This is typically called from init() functions in backend packages.
// Registering the same name twice replaces the previous factory.
func RegisterRenderer(name string, factory RendererFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	factories[name] = factory
}

// UnregisterRenderer removes a backend from the registry.
// This is useful for testing.
func UnregisterRenderer(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(factories, name)
}

// AvailableBackends returns the names of all registered backends.
func AvailableBackends() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	return names
}

// lookupFactory returns the factory registered under name.
func lookupFactory(name string) (RendererFactory, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := factories[name]
	return f, ok
}

// newRenderer selects and constructs the backend for cfg.
//
// With an explicit cfg.Backend the named backend must initialize; on
// failure the policy is either software fallback (default) or a
// wrapped ErrBackendUnavailable when fallback is disabled. Automatic
// selection walks the priority order and takes the first backend that
// initializes.
func newRenderer(cfg Config) (Renderer, error) {
	if cfg.Backend != "" {
		factory, ok := lookupFactory(cfg.Backend)
		if !ok {
			if cfg.GPUFallback && cfg.Backend != BackendSoftware {
				Logger().Warn("heat: backend not registered, falling back to software",
					"backend", cfg.Backend)
				return NewSoftwareRenderer(cfg), nil
			}
			return nil, fmt.Errorf("%w: %q is not registered", ErrBackendUnavailable, cfg.Backend)
		}
		r, err := factory(cfg)
		if err == nil {
			return r, nil
		}
		if cfg.GPUFallback && cfg.Backend != BackendSoftware {
			Logger().Warn("heat: backend init failed, falling back to software",
				"backend", cfg.Backend, "err", err)
			return NewSoftwareRenderer(cfg), nil
		}
		return nil, fmt.Errorf("%w: %q: %w", ErrBackendUnavailable, cfg.Backend, err)
	}

	for _, name := range backendPriority {
		factory, ok := lookupFactory(name)
		if !ok {
			continue
		}
		r, err := factory(cfg)
		if err != nil {
			Logger().Warn("heat: backend init failed, trying next",
				"backend", name, "err", err)
			continue
		}
		return r, nil
	}

	// The software backend registers in init() and never fails, so
	// this is only reachable after UnregisterRenderer in tests.
	return nil, ErrBackendUnavailable
}
