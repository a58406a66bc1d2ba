//go:build !darwin && !nogpu

package native

import (
	"github.com/gogpu/gputypes"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

var platformBackends = []gputypes.Backend{gputypes.BackendVulkan}
