// Package wgmem compiles a compute kernel that uses threadgroup memory,
// dispatches it once and reads its single-word result back.
//
// The kernel exists in two variants which differ only in how the kernel body
// reaches its threadgroup scratch word: as an explicit pointer parameter
// ([shader.VariantArg]) or as a direct reference to the declaration
// ([shader.VariantLocal]). On a correct device both produce the same
// output; a divergence means threadgroup memory passed as an argument is
// miscompiled.
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/wgmem"
//	    _ "github.com/gogpu/wgmem/backend/native"
//	)
//
//	res, err := wgmem.Run(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("Output: %d\n", res.Output)
//
// # Run
//
// [Run] follows a fixed, linear sequence of phases:
//
//	device -> compile -> function -> pipeline -> buffer -> encode -> commit -> wait -> readback
//
// A failure stops the run and is returned as a [*PhaseError] naming the
// phase. The defaults dispatch 10 threadgroups of 96 threads with 4 bytes of
// threadgroup memory at index 0, so a correct run yields 960.
//
// [Compare] runs both variants on one device and reports divergence.
//
// # Encoder
//
// [ComputeEncoder] checks the order of encoding calls at run time. Calling
// a method out of order panics with an [*EncoderStateError]. Threadgroup
// memory is requested with named fields:
//
//	enc.SetThreadgroupMemory(wgmem.ThreadgroupMemory{Length: 4, Index: 0})
//
// and the request is checked against the kernel's declarations.
//
// # Build Tags
//
//   - broken: the arg variant becomes the default
//   - nogpu: the native backend is excluded
package wgmem
