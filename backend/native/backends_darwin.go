//go:build darwin && !nogpu

package native

import (
	"github.com/gogpu/gputypes"

	_ "github.com/gogpu/wgpu/hal/metal"
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

var platformBackends = []gputypes.Backend{gputypes.BackendMetal, gputypes.BackendVulkan}
