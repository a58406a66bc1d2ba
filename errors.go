package wgmem

import (
	"errors"
	"fmt"

	"github.com/gogpu/wgmem/gpucore"
)

// Errors returned by a run.
var (
	// ErrNoDevice is returned when no compute device can be opened.
	ErrNoDevice = gpucore.ErrNoDevice

	// ErrPipelineCreation is returned when the device rejects the compiled
	// function.
	ErrPipelineCreation = gpucore.ErrPipelineCreation

	// ErrThreadgroupMemoryMismatch is returned when the threadgroup memory
	// requests do not cover the kernel's declarations, or name an index the
	// kernel does not declare.
	ErrThreadgroupMemoryMismatch = errors.New("wgmem: threadgroup memory request does not match kernel")

	// ErrGeometry is returned for dispatch sizes the kernel cannot run with.
	ErrGeometry = errors.New("wgmem: invalid dispatch geometry")

	// ErrBinding is returned when a buffer the kernel declares is not bound.
	ErrBinding = errors.New("wgmem: kernel buffer not bound")

	// ErrBufferSize is returned when a buffer's length does not match the
	// scalar type it is read as.
	ErrBufferSize = errors.New("wgmem: buffer size mismatch")
)

// Phase names a step of a run.
type Phase string

// Run phases in execution order.
const (
	PhaseDevice   Phase = "device"
	PhaseCompile  Phase = "compile"
	PhaseFunction Phase = "function"
	PhasePipeline Phase = "pipeline"
	PhaseBuffer   Phase = "buffer"
	PhaseEncode   Phase = "encode"
	PhaseCommit   Phase = "commit"
	PhaseWait     Phase = "wait"
	PhaseReadback Phase = "readback"
)

// PhaseError reports the phase a run failed in.
type PhaseError struct {
	Phase Phase
	Err   error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("%s: %v", e.Phase, e.Err)
}

func (e *PhaseError) Unwrap() error { return e.Err }

func phaseErr(p Phase, err error) error {
	return &PhaseError{Phase: p, Err: err}
}

// ExecutionError reports a device-side failure while the kernel ran.
type ExecutionError struct {
	Device string
	Err    error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("execution failed on %s: %v", e.Device, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// EncoderStateError is the panic value of an out-of-order encoder call.
type EncoderStateError struct {
	Op    string
	State EncoderState
}

func (e *EncoderStateError) Error() string {
	return fmt.Sprintf("wgmem: %s called on encoder in state %s", e.Op, e.State)
}
