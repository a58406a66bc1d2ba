package wgmem

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gogpu/wgmem/backend"
	"github.com/gogpu/wgmem/gpucore"
	"github.com/gogpu/wgmem/shader"
)

// Argument indices of the kernel buffers.
const (
	FlagIndex   uint32 = 0
	OutputIndex uint32 = 1
)

// compile is replaced in tests to observe compiler invocations.
var compile = shader.Compile

// Result is the outcome of a run.
type Result struct {
	// Variant is the kernel variant that ran.
	Variant shader.Variant
	// Label names the kernel source.
	Label string
	// Output is the value read back from the output buffer.
	Output uint32
	// Device is the name of the device the kernel ran on.
	Device string
	// Geometry is the dispatch that produced Output.
	Geometry Geometry
	// Elapsed is the time from commit to completion.
	Elapsed time.Duration
}

// Run compiles the kernel, dispatches it once and returns the output.
// Failures are returned as *PhaseError.
func Run(ctx context.Context, opts ...RunOption) (Result, error) {
	o := defaultRunOptions()
	for _, opt := range opts {
		opt(&o)
	}
	log := o.log()

	dev, release, err := resolveDevice(&o)
	if err != nil {
		return Result{}, phaseErr(PhaseDevice, err)
	}
	defer release()
	propagateLogger(dev, log)

	return run(ctx, dev, o.kernelSource(), &o, log)
}

func (o *runOptions) log() *slog.Logger {
	if o.logger != nil {
		return o.logger
	}
	return Logger()
}

// resolveDevice returns the device for the run and a function releasing it.
// Injected devices are never closed.
func resolveDevice(o *runOptions) (gpucore.Device, func(), error) {
	if o.device != nil {
		return o.device, func() {}, nil
	}
	var (
		dev gpucore.Device
		err error
	)
	if o.backendName != "" {
		dev, err = backend.Open(o.backendName)
	} else {
		dev, err = backend.Default()
	}
	if err != nil {
		return nil, nil, err
	}
	return dev, dev.Close, nil
}

func run(ctx context.Context, dev gpucore.Device, src shader.Source, o *runOptions, log *slog.Logger) (Result, error) {
	res := Result{Variant: src.Variant, Label: src.Label, Device: dev.Name(), Geometry: o.geometry}

	compileFn := compile
	if o.cache != nil {
		compileFn = o.cache.Compile
	}
	lib, err := compileFn(src)
	if err != nil {
		return res, phaseErr(PhaseCompile, err)
	}
	fn, err := lib.Function(shader.EntryPoint)
	if err != nil {
		return res, phaseErr(PhaseFunction, err)
	}
	log.Debug("wgmem: function compiled", "function", fn.String())

	pipe, err := dev.NewComputePipeline(&gpucore.PipelineDescriptor{
		Label:    src.Label,
		Function: fn,
		ThreadgroupSizeIsMultipleOfExecutionWidth: o.aligned,
	})
	if err != nil {
		return res, phaseErr(PhasePipeline, err)
	}
	defer pipe.Release()

	flag, err := NewScalar(dev, o.flag)
	if err != nil {
		return res, phaseErr(PhaseBuffer, err)
	}
	defer flag.Release()
	out, err := NewScalar(dev, uint32(0))
	if err != nil {
		return res, phaseErr(PhaseBuffer, err)
	}
	defer out.Release()

	queue, err := dev.NewCommandQueue()
	if err != nil {
		return res, phaseErr(PhaseEncode, err)
	}
	cmd, err := queue.NewCommandBuffer()
	if err != nil {
		return res, phaseErr(PhaseEncode, err)
	}
	enc, err := NewComputeEncoder(cmd, pipe, dev.Limits(), o.aligned)
	if err != nil {
		return res, phaseErr(PhaseEncode, err)
	}
	enc.SetBuffer(FlagIndex, flag)
	enc.SetBuffer(OutputIndex, out)
	for _, tg := range o.threadgroup {
		enc.SetThreadgroupMemory(tg)
	}
	enc.Dispatch(o.geometry.Grid, o.geometry.Group)
	if err := enc.End(); err != nil {
		return res, phaseErr(PhaseEncode, err)
	}

	start := time.Now()
	if err := cmd.Commit(); err != nil {
		return res, phaseErr(PhaseCommit, err)
	}
	if err := cmd.WaitUntilCompleted(ctx); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return res, phaseErr(PhaseWait, err)
		}
		return res, phaseErr(PhaseWait, &ExecutionError{Device: dev.Name(), Err: err})
	}
	res.Elapsed = time.Since(start)

	v, err := ReadScalar[uint32](out)
	if err != nil {
		return res, phaseErr(PhaseReadback, err)
	}
	res.Output = v
	log.Info("wgmem: run complete",
		"variant", src.Variant.String(),
		"device", res.Device,
		"output", v,
		"elapsed", res.Elapsed)
	return res, nil
}
