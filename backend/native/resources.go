//go:build !nogpu

package native

import (
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/wgmem/backend"
	"github.com/gogpu/wgmem/gpucore"
	"github.com/gogpu/wgmem/shader"
)

// Buffer is a storage buffer with a host copy of its contents.
type Buffer struct {
	device  *Device
	storage hal.Buffer
	staging hal.Buffer

	mu       sync.Mutex
	host     []byte
	released bool
}

var _ gpucore.Buffer = (*Buffer)(nil)

// Len returns the buffer length in bytes.
func (b *Buffer) Len() int { return len(b.host) }

// Contents returns a copy of the host view of the buffer.
func (b *Buffer) Contents() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]byte, len(b.host))
	copy(out, b.host)
	return out
}

func (b *Buffer) refresh() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.device.queue.ReadBuffer(b.staging, 0, b.host)
}

// Release destroys the storage and staging buffers once no abandoned
// submission can still be using them.
func (b *Buffer) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.released {
		return
	}
	b.released = true
	d := b.device
	d.retire(func() {
		d.device.DestroyBuffer(b.staging)
		d.device.DestroyBuffer(b.storage)
	})
}

func (b *Buffer) isReleased() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.released
}

// Pipeline is a compute pipeline with the layouts it was built from.
type Pipeline struct {
	device *Device
	fn     *shader.Function

	module     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.ComputePipeline

	// bindings maps buffer argument index to binding number, in declaration
	// order of the function's storage bindings.
	bindings []uint32
}

var _ gpucore.Pipeline = (*Pipeline)(nil)

// NewComputePipeline compiles desc.Function's source on the device and
// builds a compute pipeline with one storage binding per reflected buffer.
func (d *Device) NewComputePipeline(desc *gpucore.PipelineDescriptor) (gpucore.Pipeline, error) {
	if desc == nil || desc.Function == nil {
		return nil, fmt.Errorf("native: %w: no function", gpucore.ErrPipelineCreation)
	}
	fn := desc.Function
	if !fn.IsCompute() {
		return nil, fmt.Errorf("native: %w: %s is not a compute kernel", gpucore.ErrPipelineCreation, fn.Name())
	}
	ws := fn.WorkgroupSize()
	if uint64(ws[0])*uint64(ws[1])*uint64(ws[2]) > uint64(d.limits.MaxComputeInvocationsPerWorkgroup) {
		return nil, fmt.Errorf("native: %w: workgroup size %v exceeds limit %d",
			gpucore.ErrPipelineCreation, ws, d.limits.MaxComputeInvocationsPerWorkgroup)
	}

	label := desc.Label
	if label == "" {
		label = fn.Source().Label
	}
	p := &Pipeline{device: d, fn: fn}

	module, err := d.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  label,
		Source: hal.ShaderSource{WGSL: fn.Source().Text},
	})
	if err != nil {
		return nil, fmt.Errorf("native: %w: compile %s: %v", gpucore.ErrPipelineCreation, label, err)
	}
	p.module = module

	var entries []gputypes.BindGroupLayoutEntry
	for _, b := range fn.Bindings() {
		if b.Group != 0 {
			p.Release()
			return nil, fmt.Errorf("native: %w: binding %s in group %d, only group 0 is supported",
				gpucore.ErrPipelineCreation, b.Name, b.Group)
		}
		entries = append(entries, gputypes.BindGroupLayoutEntry{
			Binding:    b.Binding,
			Visibility: gputypes.ShaderStageCompute,
			Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage},
		})
		p.bindings = append(p.bindings, b.Binding)
	}
	p.bindLayout, err = d.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: label + "_bind_layout", Entries: entries,
	})
	if err != nil {
		p.Release()
		return nil, fmt.Errorf("native: %w: bind group layout: %v", gpucore.ErrPipelineCreation, err)
	}
	p.pipeLayout, err = d.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label: label + "_pipe_layout", BindGroupLayouts: []hal.BindGroupLayout{p.bindLayout},
	})
	if err != nil {
		p.Release()
		return nil, fmt.Errorf("native: %w: pipeline layout: %v", gpucore.ErrPipelineCreation, err)
	}
	p.pipeline, err = d.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label: label + "_pipeline", Layout: p.pipeLayout,
		Compute: hal.ComputeState{Module: p.module, EntryPoint: fn.Name()},
	})
	if err != nil {
		p.Release()
		return nil, fmt.Errorf("native: %w: compute pipeline: %v", gpucore.ErrPipelineCreation, err)
	}
	backend.Logger().Debug("native: pipeline created",
		"function", fn.String(),
		"aligned", desc.ThreadgroupSizeIsMultipleOfExecutionWidth)
	return p, nil
}

// Function returns the compute function.
func (p *Pipeline) Function() *shader.Function { return p.fn }

// ThreadExecutionWidth returns ExecutionWidth.
func (p *Pipeline) ThreadExecutionWidth() uint32 { return ExecutionWidth }

// Release destroys the pipeline objects in reverse creation order once no
// abandoned submission can still be using them.
func (p *Pipeline) Release() {
	p.device.retire(p.destroy)
}

func (p *Pipeline) destroy() {
	dev := p.device.device
	if dev == nil {
		return
	}
	if p.pipeline != nil {
		dev.DestroyComputePipeline(p.pipeline)
		p.pipeline = nil
	}
	if p.pipeLayout != nil {
		dev.DestroyPipelineLayout(p.pipeLayout)
		p.pipeLayout = nil
	}
	if p.bindLayout != nil {
		dev.DestroyBindGroupLayout(p.bindLayout)
		p.bindLayout = nil
	}
	if p.module != nil {
		dev.DestroyShaderModule(p.module)
		p.module = nil
	}
}

func (p *Pipeline) bindingFor(index uint32) (uint32, bool) {
	for _, b := range p.bindings {
		if b == index {
			return b, true
		}
	}
	return 0, false
}
