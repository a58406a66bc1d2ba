// Package gpucore defines the device abstraction the wgmem run is written
// against.
//
// The interfaces model the objects of a Metal-style compute submission:
//
//	Device -> CommandQueue -> CommandBuffer -> ComputeEncoder
//	       -> Buffer
//	       -> Pipeline
//
// Two implementations exist:
//   - backend/native drives a real GPU through gogpu/wgpu/hal
//   - backend/software executes CPU models of the kernels
//
// # Resource Lifecycle
//
//   - Buffers and pipelines are released explicitly via Release
//   - A command buffer is committed exactly once
//   - An encoder accepts no commands after EndEncoding
//
// Implementations report device-side faults from
// [CommandBuffer.WaitUntilCompleted]; encoding calls do not return errors
// and defer any failure to [ComputeEncoder.EndEncoding].
package gpucore
