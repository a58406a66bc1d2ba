package wgmem

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/wgmem/gpucore"
	"github.com/gogpu/wgmem/shader"
)

// EncoderState is the position of a ComputeEncoder in its call sequence.
type EncoderState uint8

// Encoder states. Calls advance the state as follows:
//
//	Created --SetBuffer/SetThreadgroupMemory--> Bound --Dispatch--> Dispatched --End--> Ended
const (
	EncoderCreated EncoderState = iota
	EncoderBound
	EncoderDispatched
	EncoderEnded
)

func (s EncoderState) String() string {
	switch s {
	case EncoderCreated:
		return "created"
	case EncoderBound:
		return "bound"
	case EncoderDispatched:
		return "dispatched"
	case EncoderEnded:
		return "ended"
	default:
		return fmt.Sprintf("EncoderState(%d)", s)
	}
}

// ComputeEncoder encodes a single dispatch of a pipeline and checks the
// request against the function's reflection.
//
// Methods panic with *EncoderStateError when called out of order.
// Validation failures are collected and returned by End.
type ComputeEncoder struct {
	enc     gpucore.ComputeEncoder
	fn      *shader.Function
	width   uint32
	aligned bool
	// storage is the device's threadgroup memory limit in bytes.
	storage uint64

	state   EncoderState
	bound   map[uint32]bool
	scratch map[uint64]uint64
	err     error
}

// NewComputeEncoder starts a compute pass on cmd with pipeline p.
// Threadgroup memory requests are bounded by
// limits.MaxComputeWorkgroupStorageSize. When aligned is set, group sizes
// that are not a multiple of the pipeline execution width are logged.
func NewComputeEncoder(cmd gpucore.CommandBuffer, p gpucore.Pipeline, limits gputypes.Limits, aligned bool) (*ComputeEncoder, error) {
	enc, err := cmd.NewComputeEncoder()
	if err != nil {
		return nil, err
	}
	enc.SetComputePipelineState(p)
	return &ComputeEncoder{
		enc:     enc,
		fn:      p.Function(),
		width:   p.ThreadExecutionWidth(),
		aligned: aligned,
		storage: uint64(limits.MaxComputeWorkgroupStorageSize),
		bound:   make(map[uint32]bool),
		scratch: make(map[uint64]uint64),
	}, nil
}

// State returns the current state.
func (e *ComputeEncoder) State() EncoderState { return e.state }

func (e *ComputeEncoder) require(op string, states ...EncoderState) {
	for _, s := range states {
		if e.state == s {
			return
		}
	}
	panic(&EncoderStateError{Op: op, State: e.state})
}

func (e *ComputeEncoder) fail(err error) {
	if e.err == nil {
		e.err = err
	}
}

// SetBuffer binds buf at argument index.
func (e *ComputeEncoder) SetBuffer(index uint32, buf gpucore.Buffer) {
	e.require("SetBuffer", EncoderCreated, EncoderBound)
	e.enc.SetBuffer(index, buf, 0)
	e.bound[index] = true
	e.state = EncoderBound
}

// SetThreadgroupMemory requests threadgroup memory. The request must name
// an index the function declares, cover its declared size and fit the
// device limit. Requests above the limit are not forwarded to the device.
func (e *ComputeEncoder) SetThreadgroupMemory(tg ThreadgroupMemory) {
	e.require("SetThreadgroupMemory", EncoderCreated, EncoderBound)
	e.state = EncoderBound
	if tg.Length > e.storage {
		e.fail(fmt.Errorf("%w: %d bytes requested at index %d, device limit is %d",
			ErrThreadgroupMemoryMismatch, tg.Length, tg.Index, e.storage))
		return
	}
	declared, ok := e.fn.ThreadgroupLength(tg.Index)
	switch {
	case !ok:
		e.fail(fmt.Errorf("%w: %s declares no threadgroup memory at index %d",
			ErrThreadgroupMemoryMismatch, e.fn.Name(), tg.Index))
	case tg.Length < declared:
		e.fail(fmt.Errorf("%w: %d bytes requested at index %d, %s declares %d",
			ErrThreadgroupMemoryMismatch, tg.Length, tg.Index, e.fn.Name(), declared))
	}
	e.scratch[tg.Index] = tg.Length
	e.enc.SetThreadgroupMemoryLength(tg.Length, tg.Index)
}

// Dispatch encodes grid threadgroups of group threads each.
func (e *ComputeEncoder) Dispatch(grid, group Size) {
	e.require("Dispatch", EncoderBound)
	e.state = EncoderDispatched
	e.validate(grid, group)
	if e.err != nil {
		return
	}
	e.enc.DispatchThreadgroups(grid, group)
	Logger().Debug("wgmem: dispatch encoded",
		"function", e.fn.Name(),
		"grid", grid.String(),
		"group", group.String())
}

func (e *ComputeEncoder) validate(grid, group Size) {
	if grid.Count() == 0 || group.Count() == 0 {
		e.fail(fmt.Errorf("%w: empty dispatch grid %s group %s", ErrGeometry, grid, group))
		return
	}
	if ws := e.fn.WorkgroupSize(); group.Array() != ws {
		e.fail(fmt.Errorf("%w: group %s does not match %s @workgroup_size %v",
			ErrGeometry, group, e.fn.Name(), ws))
		return
	}
	if e.aligned && e.width > 0 && group.Count()%uint64(e.width) != 0 {
		Logger().Warn("wgmem: group size is not a multiple of the execution width",
			"group", group.String(), "width", e.width)
	}
	for _, b := range e.fn.Bindings() {
		if !e.bound[b.Binding] {
			e.fail(fmt.Errorf("%w: %s binding %d (%s)", ErrBinding, e.fn.Name(), b.Binding, b.Name))
			return
		}
	}
	var total uint64
	for _, length := range e.scratch {
		total += length
	}
	if total > e.storage {
		e.fail(fmt.Errorf("%w: %d bytes requested in total, device limit is %d",
			ErrThreadgroupMemoryMismatch, total, e.storage))
		return
	}
	for _, tg := range e.fn.Threadgroup() {
		if _, ok := e.scratch[tg.Index]; !ok {
			e.fail(fmt.Errorf("%w: no request for %s at index %d (%d bytes)",
				ErrThreadgroupMemoryMismatch, tg.Name, tg.Index, tg.Length))
			return
		}
	}
}

// End closes the encoder and returns the first validation or encoding
// error.
func (e *ComputeEncoder) End() error {
	e.require("End", EncoderDispatched)
	e.state = EncoderEnded
	err := e.enc.EndEncoding()
	if e.err != nil {
		return e.err
	}
	return err
}
