package backend

import (
	"errors"

	"github.com/gogpu/wgmem/gpucore"
)

// Backend name constants.
const (
	// Native is the wgpu HAL backend (Metal on darwin, Vulkan elsewhere).
	Native = "native"
	// Software is the CPU reference backend.
	Software = "software"
)

// ErrBackendNotAvailable is returned when a requested backend is not registered.
var ErrBackendNotAvailable = errors.New("backend: not available")

// Factory opens a device. It returns an error wrapping
// gpucore.ErrNoDevice when the backend has no usable device.
type Factory func() (gpucore.Device, error)
