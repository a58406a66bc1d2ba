// Package software implements a CPU reference device for wgmem.
//
// The device cannot run WGSL. Instead each entry point is paired with a Go
// model of the kernel, registered with [RegisterKernel] under the source
// label and entry point name. The models for the built-in shader variants
// are registered by this package.
//
// Execution follows the GPU model closely enough to exercise threadgroup
// memory: every threadgroup gets its own scratch regions sized from the
// encoder's SetThreadgroupMemoryLength calls, every thread of a group runs on
// its own goroutine, and Barrier blocks until all live threads of the group
// arrive. Accessing scratch or buffer memory out of range faults the kernel;
// the fault is reported from WaitUntilCompleted.
//
// Importing the package registers it as backend.Software.
package software
