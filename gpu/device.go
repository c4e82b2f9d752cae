//go:build !nogpu

package gpu

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	// Import the Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

// ErrNoAdapter is returned when no GPU adapter can be enumerated.
var ErrNoAdapter = errors.New("gpu: no GPU adapters found")

// sharedProvider holds a host-supplied device provider, if any.
// Renderers created after SetDeviceProvider reuse the host's device
// instead of opening their own.
var (
	providerMu     sync.RWMutex
	sharedDevice   hal.Device
	sharedQueue    hal.Queue
	sharedProvider gpucontext.DeviceProvider
)

// SetDeviceProvider configures the backend to share a GPU device owned
// by the host application (e.g. a gogpu.App) instead of creating its
// own instance. The provider must also expose the underlying HAL
// handles via HalDevice()/HalQueue().
//
// Call this before constructing heatmaps that use the GPU backend.
// Renderers built on a shared device never destroy it on Dispose.
func SetDeviceProvider(provider gpucontext.DeviceProvider) error {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return fmt.Errorf("gpu: provider does not expose HAL types")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return fmt.Errorf("gpu: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return fmt.Errorf("gpu: provider HalQueue is not hal.Queue")
	}

	providerMu.Lock()
	defer providerMu.Unlock()
	sharedProvider = provider
	sharedDevice = device
	sharedQueue = queue
	return nil
}

// sharedHalDevice returns the host-shared device and queue, if set.
func sharedHalDevice() (hal.Device, hal.Queue, bool) {
	providerMu.RLock()
	defer providerMu.RUnlock()
	if sharedDevice == nil {
		return nil, nil, false
	}
	return sharedDevice, sharedQueue, true
}

// openDevice creates an instance, enumerates adapters, and opens a
// device on the best one. Discrete and integrated GPUs are preferred
// over software adapters.
func openDevice() (hal.Instance, hal.Device, hal.Queue, error) {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, nil, nil, fmt.Errorf("gpu: vulkan backend not available")
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("gpu: create instance: %w", err)
	}

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, nil, nil, ErrNoAdapter
	}

	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, nil, nil, fmt.Errorf("gpu: open device: %w", err)
	}

	logger().Info("gpu: adapter selected", "name", selected.Info.Name)
	return instance, openDev.Device, openDev.Queue, nil
}
