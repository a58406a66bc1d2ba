//go:build !nogpu

package native

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/wgmem/backend"
	"github.com/gogpu/wgmem/gpucore"
)

// waitSlice bounds a single fence wait so cancellation is observed.
const waitSlice = 100 * time.Millisecond

// CommandQueue submits to the device queue.
type CommandQueue struct {
	device *Device
}

var _ gpucore.CommandQueue = (*CommandQueue)(nil)

// NewCommandBuffer creates an empty command buffer.
func (q *CommandQueue) NewCommandBuffer() (gpucore.CommandBuffer, error) {
	return &CommandBuffer{device: q.device}, nil
}

type dispatch struct {
	pipeline *Pipeline
	buffers  map[uint32]*Buffer
	grid     gpucore.Size
}

// CommandBuffer records dispatches and submits them as one HAL command
// buffer.
type CommandBuffer struct {
	device *Device

	dispatches []dispatch
	open       int
	committed  bool

	cmd        hal.CommandBuffer
	fence      hal.Fence
	bindGroups []hal.BindGroup
	readback   []*Buffer
	done       bool
	abandoned  bool
}

var _ gpucore.CommandBuffer = (*CommandBuffer)(nil)

// NewComputeEncoder starts a compute pass.
func (c *CommandBuffer) NewComputeEncoder() (gpucore.ComputeEncoder, error) {
	if c.committed {
		return nil, fmt.Errorf("native: %w: encoder requested after commit", gpucore.ErrCommitted)
	}
	c.open++
	return &ComputeEncoder{cmd: c, buffers: make(map[uint32]*Buffer)}, nil
}

// Commit encodes every dispatch in its own compute pass, copies each bound
// buffer to its staging buffer and submits with a fence.
func (c *CommandBuffer) Commit() error {
	if c.committed {
		return fmt.Errorf("native: %w: already committed", gpucore.ErrCommitted)
	}
	if c.open > 0 {
		return fmt.Errorf("native: %w: %d encoder(s) not ended", gpucore.ErrCommitted, c.open)
	}
	c.committed = true
	if err := c.submit(); err != nil {
		c.cleanup()
		return err
	}
	return nil
}

func (c *CommandBuffer) submit() error {
	dev := c.device.device
	encoder, err := dev.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "wgmem_encoder"})
	if err != nil {
		return fmt.Errorf("native: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("wgmem"); err != nil {
		return fmt.Errorf("native: begin encoding: %w", err)
	}

	touched := make(map[*Buffer]struct{})
	for _, d := range c.dispatches {
		bg, err := c.bindGroup(d)
		if err != nil {
			return err
		}
		pass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "wgmem_pass"})
		pass.SetPipeline(d.pipeline.pipeline)
		pass.SetBindGroup(0, bg, nil)
		pass.Dispatch(d.grid.Width, d.grid.Height, d.grid.Depth)
		pass.End()
		for _, b := range d.buffers {
			touched[b] = struct{}{}
		}
	}
	for b := range touched {
		encoder.CopyBufferToBuffer(b.storage, b.staging, []hal.BufferCopy{
			{SrcOffset: 0, DstOffset: 0, Size: uint64(b.Len())},
		})
		c.readback = append(c.readback, b)
	}
	cmd, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("native: end encoding: %w", err)
	}
	c.cmd = cmd

	fence, err := dev.CreateFence()
	if err != nil {
		return fmt.Errorf("native: create fence: %w", err)
	}
	c.fence = fence
	if err := c.device.queue.Submit([]hal.CommandBuffer{cmd}, fence, 1); err != nil {
		return fmt.Errorf("native: submit: %w", err)
	}
	backend.Logger().Debug("native: submitted", "dispatches", len(c.dispatches), "readbacks", len(c.readback))
	return nil
}

func (c *CommandBuffer) bindGroup(d dispatch) (hal.BindGroup, error) {
	indices := make([]uint32, 0, len(d.buffers))
	for i := range d.buffers {
		indices = append(indices, i)
	}
	sort.Slice(indices, func(a, b int) bool { return indices[a] < indices[b] })

	entries := make([]gputypes.BindGroupEntry, 0, len(indices))
	for _, i := range indices {
		binding, ok := d.pipeline.bindingFor(i)
		if !ok {
			return nil, fmt.Errorf("native: buffer index %d has no binding in %s", i, d.pipeline.fn.Name())
		}
		b := d.buffers[i]
		entries = append(entries, gputypes.BindGroupEntry{
			Binding:  binding,
			Resource: gputypes.BufferBinding{Buffer: b.storage.NativeHandle(), Offset: 0, Size: uint64(b.Len())},
		})
	}
	bg, err := c.device.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label: "wgmem_bind", Layout: d.pipeline.bindLayout, Entries: entries,
	})
	if err != nil {
		return nil, fmt.Errorf("native: create bind group: %w", err)
	}
	c.bindGroups = append(c.bindGroups, bg)
	return bg, nil
}

// WaitUntilCompleted waits on the submission fence and refreshes the host
// view of every buffer the work wrote.
func (c *CommandBuffer) WaitUntilCompleted(ctx context.Context) error {
	if !c.committed {
		return fmt.Errorf("native: %w: wait before commit", gpucore.ErrCommitted)
	}
	if c.done {
		return nil
	}
	if c.abandoned {
		return fmt.Errorf("native: %w: wait already cancelled", gpucore.ErrCommitted)
	}
	for {
		slice := waitSlice
		if deadline, ok := ctx.Deadline(); ok {
			if left := time.Until(deadline); left < slice {
				slice = max(left, 0)
			}
		}
		ok, err := c.device.device.Wait(c.fence, 1, slice)
		if err != nil {
			c.cleanup()
			return fmt.Errorf("native: wait for GPU: %w", err)
		}
		if ok {
			break
		}
		if err := ctx.Err(); err != nil {
			c.abandon()
			return err
		}
	}
	c.done = true
	c.cleanup()

	var errs []error
	for _, b := range c.readback {
		if err := b.refresh(); err != nil {
			errs = append(errs, fmt.Errorf("native: readback: %w", err))
		}
	}
	return errors.Join(errs...)
}

// abandon hands a submission that is still executing to the device. Its
// objects, and any buffer or pipeline released in the meantime, are freed
// after the fence signals.
func (c *CommandBuffer) abandon() {
	c.abandoned = true
	c.device.retain()
	backend.Logger().Warn("native: wait cancelled, freeing resources after the GPU finishes")
	go func() {
		defer c.device.settle()
		for {
			ok, err := c.device.device.Wait(c.fence, 1, waitSlice)
			if ok || err != nil {
				break
			}
		}
		c.cleanup()
	}()
}

func (c *CommandBuffer) cleanup() {
	dev := c.device.device
	if dev == nil {
		return
	}
	for _, bg := range c.bindGroups {
		dev.DestroyBindGroup(bg)
	}
	c.bindGroups = nil
	if c.fence != nil {
		dev.DestroyFence(c.fence)
		c.fence = nil
	}
	if c.cmd != nil {
		dev.FreeCommandBuffer(c.cmd)
		c.cmd = nil
	}
}

// ComputeEncoder records dispatches. Failures are reported from
// EndEncoding.
type ComputeEncoder struct {
	cmd *CommandBuffer

	pipeline *Pipeline
	buffers  map[uint32]*Buffer
	scratch  map[uint64]uint64

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
	np, ok := p.(*Pipeline)
	if !ok {
		e.fail(fmt.Errorf("native: pipeline %T does not belong to this device", p))
		return
	}
	e.pipeline = np
}

// SetBuffer binds buf at index. Only zero offsets are supported.
func (e *ComputeEncoder) SetBuffer(index uint32, buf gpucore.Buffer, offset uint64) {
	nb, ok := buf.(*Buffer)
	if !ok {
		e.fail(fmt.Errorf("native: buffer %T does not belong to this device", buf))
		return
	}
	if nb.isReleased() {
		e.fail(fmt.Errorf("native: %w: buffer at index %d", gpucore.ErrReleased, index))
		return
	}
	if offset != 0 {
		e.fail(fmt.Errorf("native: buffer offset %d at index %d not supported", offset, index))
		return
	}
	e.buffers[index] = nb
}

// SetThreadgroupMemoryLength records the request. Workgroup memory is
// sized by the shader declaration, so a request shorter than the
// declaration or above the device limit fails encoding.
func (e *ComputeEncoder) SetThreadgroupMemoryLength(length, index uint64) {
	if e.scratch == nil {
		e.scratch = make(map[uint64]uint64)
	}
	e.scratch[index] = length
}

// DispatchThreadgroups records a dispatch of grid workgroups. The group
// size is fixed by the pipeline's @workgroup_size.
func (e *ComputeEncoder) DispatchThreadgroups(grid, group gpucore.Size) {
	if e.pipeline == nil {
		e.fail(errors.New("native: dispatch without a pipeline"))
		return
	}
	var total uint64
	limit := uint64(e.cmd.device.limits.MaxComputeWorkgroupStorageSize)
	for index, length := range e.scratch {
		if total += length; length > limit || total > limit {
			e.fail(fmt.Errorf("native: threadgroup memory request %d bytes at index %d exceeds limit %d", length, index, limit))
			return
		}
		declared, ok := e.pipeline.fn.ThreadgroupLength(index)
		if !ok || length < declared {
			e.fail(fmt.Errorf("native: threadgroup memory request %d bytes at index %d does not cover the declaration", length, index))
			return
		}
	}
	ws := e.pipeline.fn.WorkgroupSize()
	if group = group.Normalize(); group.Array() != ws {
		e.fail(fmt.Errorf("native: group size %s does not match @workgroup_size %v", group, ws))
		return
	}
	buffers := make(map[uint32]*Buffer, len(e.buffers))
	for k, v := range e.buffers {
		buffers[k] = v
	}
	e.dispatches = append(e.dispatches, dispatch{pipeline: e.pipeline, buffers: buffers, grid: grid.Normalize()})
}

// EndEncoding closes the encoder.
func (e *ComputeEncoder) EndEncoding() error {
	if e.ended {
		return errors.New("native: encoder already ended")
	}
	e.ended = true
	e.cmd.open--
	if e.err != nil {
		return e.err
	}
	e.cmd.dispatches = append(e.cmd.dispatches, e.dispatches...)
	return nil
}
