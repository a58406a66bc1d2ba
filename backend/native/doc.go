// Package native runs wgmem dispatches on a real GPU through gogpu/wgpu/hal.
//
// The package registers itself as [backend.Native]. On darwin the Metal HAL
// is tried first, elsewhere Vulkan. Build with the nogpu tag to exclude it.
//
// WebGPU allocates workgroup memory statically from the shader's
// var<workgroup> declarations, so the threadgroup memory length requested on
// the encoder is recorded but does not size the allocation. Contents of
// shared buffers are refreshed from staging copies when a command buffer
// completes.
//
// A host application that already owns a device can share it through
// [FromProvider].
package native
