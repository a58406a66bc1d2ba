package gpucore

import "github.com/gogpu/wgmem/shader"

// PipelineDescriptor describes a compute pipeline to build.
type PipelineDescriptor struct {
	// Label is an optional debug label.
	Label string

	// Function is the compiled compute entry point.
	Function *shader.Function

	// ThreadgroupSizeIsMultipleOfExecutionWidth tells the device that every
	// dispatch uses group sizes that are multiples of its execution width.
	// It is a scheduling hint, not a constraint enforced at dispatch.
	ThreadgroupSizeIsMultipleOfExecutionWidth bool
}
