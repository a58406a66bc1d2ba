package gpucore

import (
	"context"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/wgmem/shader"
)

// Device is a compute-capable accelerator.
type Device interface {
	// Name returns a human-readable device name.
	Name() string

	// ExecutionWidth returns the number of lanes the device schedules
	// together natively.
	ExecutionWidth() uint32

	// Limits returns the device limits.
	Limits() gputypes.Limits

	// NewBuffer allocates a shared buffer initialized with data.
	// The buffer length equals len(data).
	NewBuffer(data []byte, mode StorageMode) (Buffer, error)

	// NewComputePipeline builds a pipeline from desc.
	// Failures wrap ErrPipelineCreation.
	NewComputePipeline(desc *PipelineDescriptor) (Pipeline, error)

	// NewCommandQueue creates a queue for submitting work.
	NewCommandQueue() (CommandQueue, error)

	// Close releases the device.
	Close()
}

// Buffer is a host- and device-visible memory region.
type Buffer interface {
	// Len returns the buffer length in bytes.
	Len() int

	// Contents returns a copy of the buffer's current bytes as seen by the
	// host. After a dispatch it reflects device writes only once the
	// command buffer has completed.
	Contents() []byte

	// Release frees the buffer.
	Release()
}

// Pipeline is an executable compute pipeline state.
type Pipeline interface {
	// Function returns the entry point the pipeline was built from.
	Function() *shader.Function

	// ThreadExecutionWidth returns the execution width the pipeline was
	// built for.
	ThreadExecutionWidth() uint32

	// Release frees the pipeline.
	Release()
}

// CommandQueue creates command buffers.
type CommandQueue interface {
	NewCommandBuffer() (CommandBuffer, error)
}

// CommandBuffer records one batch of work.
type CommandBuffer interface {
	// NewComputeEncoder starts a compute pass.
	NewComputeEncoder() (ComputeEncoder, error)

	// Commit submits the recorded work. It must be called exactly once,
	// after every encoder has ended.
	Commit() error

	// WaitUntilCompleted blocks until the device finishes the work.
	// A device-side fault is returned as an error.
	WaitUntilCompleted(ctx context.Context) error
}

// ComputeEncoder records compute commands into a command buffer.
type ComputeEncoder interface {
	SetComputePipelineState(p Pipeline)

	// SetBuffer binds buf at argument index with a byte offset.
	SetBuffer(index uint32, buf Buffer, offset uint64)

	// SetThreadgroupMemoryLength reserves length bytes of threadgroup
	// memory at index. The parameter order matches the platform API:
	// length first, index second.
	SetThreadgroupMemoryLength(length, index uint64)

	// DispatchThreadgroups dispatches grid groups of group threads each.
	DispatchThreadgroups(grid, group Size)

	// EndEncoding closes the encoder and reports any deferred encoding
	// error.
	EndEncoding() error
}
