package software

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/wgmem/backend"
	"github.com/gogpu/wgmem/gpucore"
)

// CommandQueue creates command buffers for a Device.
type CommandQueue struct {
	device *Device
}

var _ gpucore.CommandQueue = (*CommandQueue)(nil)

// NewCommandBuffer creates an empty command buffer.
func (q *CommandQueue) NewCommandBuffer() (gpucore.CommandBuffer, error) {
	return &CommandBuffer{device: q.device, done: make(chan struct{})}, nil
}

// dispatch is one recorded DispatchThreadgroups call with the state bound
// at the time it was recorded.
type dispatch struct {
	pipeline *Pipeline
	buffers  map[uint32]*Memory
	scratch  map[uint64]uint64
	grid     gpucore.Size
	group    gpucore.Size
}

// CommandBuffer records and executes dispatches.
type CommandBuffer struct {
	device *Device

	mu         sync.Mutex
	dispatches []dispatch
	open       int
	committed  bool

	done chan struct{}
	err  error
}

var _ gpucore.CommandBuffer = (*CommandBuffer)(nil)

// NewComputeEncoder starts a compute pass.
func (c *CommandBuffer) NewComputeEncoder() (gpucore.ComputeEncoder, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.committed {
		return nil, fmt.Errorf("software: %w: encoder requested after commit", gpucore.ErrCommitted)
	}
	c.open++
	return &ComputeEncoder{
		cmd:     c,
		buffers: make(map[uint32]*Memory),
		scratch: make(map[uint64]uint64),
	}, nil
}

// Commit starts executing the recorded dispatches on a background goroutine.
func (c *CommandBuffer) Commit() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.committed {
		return fmt.Errorf("software: %w: already committed", gpucore.ErrCommitted)
	}
	if c.open > 0 {
		return fmt.Errorf("software: %w: %d encoder(s) not ended", gpucore.ErrCommitted, c.open)
	}
	c.committed = true
	work := c.dispatches
	go func() {
		defer close(c.done)
		for i := range work {
			if err := c.device.execute(&work[i]); err != nil {
				c.err = err
				return
			}
		}
	}()
	return nil
}

// WaitUntilCompleted blocks until execution finishes or ctx is done.
func (c *CommandBuffer) WaitUntilCompleted(ctx context.Context) error {
	c.mu.Lock()
	committed := c.committed
	c.mu.Unlock()
	if !committed {
		return fmt.Errorf("software: %w: wait before commit", gpucore.ErrCommitted)
	}
	select {
	case <-c.done:
		return c.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *CommandBuffer) finish(e *ComputeEncoder) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open--
	if e.err != nil {
		return e.err
	}
	c.dispatches = append(c.dispatches, e.dispatches...)
	return nil
}

// ComputeEncoder records compute commands. Encoding errors are held until
// EndEncoding.
type ComputeEncoder struct {
	cmd *CommandBuffer

	pipeline   *Pipeline
	buffers    map[uint32]*Memory
	scratch    map[uint64]uint64
	dispatches []dispatch
	err        error
	ended      bool
}

var _ gpucore.ComputeEncoder = (*ComputeEncoder)(nil)

func (e *ComputeEncoder) fail(err error) {
	if e.err == nil {
		e.err = err
	}
}

// SetComputePipelineState sets the pipeline for subsequent dispatches.
func (e *ComputeEncoder) SetComputePipelineState(p gpucore.Pipeline) {
	sp, ok := p.(*Pipeline)
	if !ok {
		e.fail(fmt.Errorf("software: pipeline %T does not belong to this device", p))
		return
	}
	e.pipeline = sp
}

// SetBuffer binds buf at index. Offsets other than zero are not supported.
func (e *ComputeEncoder) SetBuffer(index uint32, buf gpucore.Buffer, offset uint64) {
	sb, ok := buf.(*Buffer)
	if !ok {
		e.fail(fmt.Errorf("software: buffer %T does not belong to this device", buf))
		return
	}
	if sb.released.Load() {
		e.fail(fmt.Errorf("software: %w: buffer at index %d", gpucore.ErrReleased, index))
		return
	}
	if offset != 0 {
		e.fail(fmt.Errorf("software: buffer offset %d at index %d not supported", offset, index))
		return
	}
	e.buffers[index] = sb.mem
}

// SetThreadgroupMemoryLength reserves length bytes of per-group scratch at
// index. The requested length is used verbatim at execution and must not
// exceed the device's MaxComputeWorkgroupStorageSize.
func (e *ComputeEncoder) SetThreadgroupMemoryLength(length, index uint64) {
	if limit := e.storageLimit(); length > limit {
		e.fail(fmt.Errorf("software: threadgroup memory %d bytes at index %d exceeds limit %d",
			length, index, limit))
		return
	}
	e.scratch[index] = length
}

func (e *ComputeEncoder) storageLimit() uint64 {
	return uint64(e.cmd.device.opts.limits.MaxComputeWorkgroupStorageSize)
}

// DispatchThreadgroups records a dispatch with the current bindings.
func (e *ComputeEncoder) DispatchThreadgroups(grid, group gpucore.Size) {
	if e.pipeline == nil {
		e.fail(errors.New("software: dispatch without a pipeline"))
		return
	}
	var total uint64
	for _, length := range e.scratch {
		total += length
	}
	if limit := e.storageLimit(); total > limit {
		e.fail(fmt.Errorf("software: threadgroup memory %d bytes in total exceeds limit %d", total, limit))
		return
	}
	d := dispatch{
		pipeline: e.pipeline,
		buffers:  make(map[uint32]*Memory, len(e.buffers)),
		scratch:  make(map[uint64]uint64, len(e.scratch)),
		grid:     grid.Normalize(),
		group:    group.Normalize(),
	}
	for k, v := range e.buffers {
		d.buffers[k] = v
	}
	for k, v := range e.scratch {
		d.scratch[k] = v
	}
	e.dispatches = append(e.dispatches, d)
	backend.Logger().Debug("software: dispatch recorded", "grid", d.grid.String(), "group", d.group.String())
}

// EndEncoding closes the encoder.
func (e *ComputeEncoder) EndEncoding() error {
	if e.ended {
		return errors.New("software: encoder already ended")
	}
	e.ended = true
	return e.cmd.finish(e)
}
