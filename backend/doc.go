// Package backend selects the device a wgmem run dispatches on.
//
// Device implementations register a factory from an init function:
//
//	func init() {
//	    backend.Register(backend.Native, func() (gpucore.Device, error) {
//	        return Open()
//	    })
//	}
//
// Import the implementations you want available:
//
//	import _ "github.com/gogpu/wgmem/backend/native"   // wgpu HAL (Metal, Vulkan)
//	import _ "github.com/gogpu/wgmem/backend/software" // CPU reference device
//
// # Selection
//
// [Open] resolves a device by name. [Default] walks the priority list and
// returns the first device that opens. Only GPU backends are in the priority
// list: a host without a GPU fails with [gpucore.ErrNoDevice] rather than
// silently running on the CPU. Request the software device by name to run
// without a GPU.
package backend
