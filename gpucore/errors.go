package gpucore

import "errors"

// Errors shared by device implementations.
var (
	// ErrNoDevice is returned when no compute-capable device is available.
	ErrNoDevice = errors.New("gpucore: no compute device available")

	// ErrPipelineCreation is returned when a pipeline cannot be built from a
	// function, e.g. an incompatible signature or exceeded device limits.
	ErrPipelineCreation = errors.New("gpucore: pipeline creation failed")

	// ErrBufferAllocation is returned when a buffer cannot be allocated.
	ErrBufferAllocation = errors.New("gpucore: buffer allocation failed")

	// ErrCommitted is returned when a command buffer is committed twice or
	// waited on before commit.
	ErrCommitted = errors.New("gpucore: invalid command buffer state")

	// ErrReleased is returned when a released resource is used.
	ErrReleased = errors.New("gpucore: resource released")
)
