package heat

import (
	"errors"
	"fmt"
	"slices"
	"testing"
)

// failingFactory always fails, standing in for a GPU backend with no
// usable adapter.
func failingFactory(Config) (Renderer, error) {
	return nil, fmt.Errorf("no adapter")
}

func TestAvailableBackendsIncludesSoftware(t *testing.T) {
	if !slices.Contains(AvailableBackends(), BackendSoftware) {
		t.Errorf("AvailableBackends() = %v, want %q present", AvailableBackends(), BackendSoftware)
	}
}

func TestRegisterAndUnregister(t *testing.T) {
	const name = "test-backend"
	RegisterRenderer(name, func(cfg Config) (Renderer, error) {
		return NewSoftwareRenderer(cfg), nil
	})
	defer UnregisterRenderer(name)

	if !slices.Contains(AvailableBackends(), name) {
		t.Fatalf("%q not listed after registration", name)
	}

	hm, err := New(50, 50, WithBackend(name))
	if err != nil {
		t.Fatalf("New with %q: %v", name, err)
	}
	hm.Close()

	UnregisterRenderer(name)
	if slices.Contains(AvailableBackends(), name) {
		t.Errorf("%q still listed after unregistration", name)
	}
}

func TestExplicitBackendInitFailure(t *testing.T) {
	const name = "test-failing"
	RegisterRenderer(name, failingFactory)
	defer UnregisterRenderer(name)

	// Fallback disabled: the failure surfaces as ErrBackendUnavailable.
	_, err := New(50, 50, WithBackend(name), WithGPUFallback(false))
	if !errors.Is(err, ErrBackendUnavailable) {
		t.Errorf("err = %v, want ErrBackendUnavailable", err)
	}

	// Fallback enabled (the default): software takes over.
	hm, err := New(50, 50, WithBackend(name))
	if err != nil {
		t.Fatalf("expected software fallback, got %v", err)
	}
	defer hm.Close()
	if _, ok := hm.renderer.(*SoftwareRenderer); !ok {
		t.Errorf("renderer is %T, want *SoftwareRenderer", hm.renderer)
	}
}

func TestAutoSelectionSkipsFailingBackend(t *testing.T) {
	// A failing high-priority backend must not break automatic
	// selection; the walk continues to software.
	RegisterRenderer(BackendGPU, failingFactory)
	defer UnregisterRenderer(BackendGPU)

	hm, err := New(50, 50)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer hm.Close()
	if _, ok := hm.renderer.(*SoftwareRenderer); !ok {
		t.Errorf("renderer is %T, want *SoftwareRenderer", hm.renderer)
	}
}
