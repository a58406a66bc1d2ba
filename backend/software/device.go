package software

import (
	"fmt"
	"runtime"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/wgmem/backend"
	"github.com/gogpu/wgmem/gpucore"
)

// DefaultExecutionWidth is the lane width the software device reports.
const DefaultExecutionWidth = 32

func init() {
	backend.Register(backend.Software, func() (gpucore.Device, error) {
		return New()
	})
}

// Option configures a software Device.
type Option func(*options)

type options struct {
	executionWidth uint32
	limits         gputypes.Limits
	parallelism    int
	absent         bool
}

// WithExecutionWidth sets the reported execution width.
func WithExecutionWidth(n uint32) Option {
	return func(o *options) { o.executionWidth = n }
}

// WithLimits overrides the device limits.
func WithLimits(l gputypes.Limits) Option {
	return func(o *options) { o.limits = l }
}

// WithParallelism bounds how many threadgroups execute at once.
func WithParallelism(n int) Option {
	return func(o *options) { o.parallelism = n }
}

// WithoutDevice makes New fail as if no device were attached.
func WithoutDevice() Option {
	return func(o *options) { o.absent = true }
}

// Device is the CPU reference device.
type Device struct {
	opts options
}

var _ gpucore.Device = (*Device)(nil)

// New opens a software device.
func New(opts ...Option) (*Device, error) {
	o := options{
		executionWidth: DefaultExecutionWidth,
		limits:         gputypes.DefaultLimits(),
		parallelism:    runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.absent {
		return nil, fmt.Errorf("software: %w", gpucore.ErrNoDevice)
	}
	if o.executionWidth == 0 {
		o.executionWidth = DefaultExecutionWidth
	}
	if o.parallelism < 1 {
		o.parallelism = 1
	}
	return &Device{opts: o}, nil
}

// Name returns the device name.
func (d *Device) Name() string { return "software" }

// ExecutionWidth returns the configured execution width.
func (d *Device) ExecutionWidth() uint32 { return d.opts.executionWidth }

// Limits returns the device limits.
func (d *Device) Limits() gputypes.Limits { return d.opts.limits }

// NewBuffer allocates a shared buffer holding a copy of data.
func (d *Device) NewBuffer(data []byte, mode gpucore.StorageMode) (gpucore.Buffer, error) {
	if mode != gpucore.StorageModeShared {
		return nil, fmt.Errorf("software: %w: storage mode %s", gpucore.ErrBufferAllocation, mode)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("software: %w: zero length", gpucore.ErrBufferAllocation)
	}
	if uint64(len(data)) > d.opts.limits.MaxBufferSize {
		return nil, fmt.Errorf("software: %w: %d bytes exceeds max buffer size %d",
			gpucore.ErrBufferAllocation, len(data), d.opts.limits.MaxBufferSize)
	}
	b := &Buffer{mem: newMemory("buffer", len(data))}
	copy(b.mem.data, data)
	backend.Logger().Debug("software: buffer allocated", "bytes", len(data))
	return b, nil
}

// NewComputePipeline builds a pipeline bound to the registered kernel model.
func (d *Device) NewComputePipeline(desc *gpucore.PipelineDescriptor) (gpucore.Pipeline, error) {
	if desc == nil || desc.Function == nil {
		return nil, fmt.Errorf("software: %w: no function", gpucore.ErrPipelineCreation)
	}
	fn := desc.Function
	if !fn.IsCompute() {
		return nil, fmt.Errorf("software: %w: %s is not a compute kernel", gpucore.ErrPipelineCreation, fn.Name())
	}
	ws := fn.WorkgroupSize()
	invocations := uint64(ws[0]) * uint64(ws[1]) * uint64(ws[2])
	if invocations > uint64(d.opts.limits.MaxComputeInvocationsPerWorkgroup) {
		return nil, fmt.Errorf("software: %w: %d invocations per workgroup exceeds limit %d",
			gpucore.ErrPipelineCreation, invocations, d.opts.limits.MaxComputeInvocationsPerWorkgroup)
	}
	var tgTotal uint64
	for _, tg := range fn.Threadgroup() {
		tgTotal += tg.Length
	}
	if tgTotal > uint64(d.opts.limits.MaxComputeWorkgroupStorageSize) {
		return nil, fmt.Errorf("software: %w: %d bytes of threadgroup memory exceeds limit %d",
			gpucore.ErrPipelineCreation, tgTotal, d.opts.limits.MaxComputeWorkgroupStorageSize)
	}
	k, ok := lookupKernel(fn.Source().Label, fn.Name())
	if !ok {
		return nil, fmt.Errorf("software: %w: no kernel model registered for %s/%s",
			gpucore.ErrPipelineCreation, fn.Source().Label, fn.Name())
	}
	backend.Logger().Debug("software: pipeline created",
		"function", fn.String(),
		"aligned", desc.ThreadgroupSizeIsMultipleOfExecutionWidth)
	return &Pipeline{fn: fn, kernel: k, width: d.opts.executionWidth}, nil
}

// NewCommandQueue creates a command queue.
func (d *Device) NewCommandQueue() (gpucore.CommandQueue, error) {
	return &CommandQueue{device: d}, nil
}

// Close is a no-op; the software device owns no external resources.
func (d *Device) Close() {}
