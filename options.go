package wgmem

import (
	"log/slog"

	"github.com/gogpu/wgmem/gpucore"
	"github.com/gogpu/wgmem/shader"
)

// RunOption configures Run and Compare.
//
// Example:
//
//	// Default run on the default device
//	res, err := wgmem.Run(ctx)
//
//	// Arg variant on the CPU reference device
//	res, err := wgmem.Run(ctx,
//	    wgmem.WithVariant(shader.VariantArg),
//	    wgmem.WithBackend(backend.Software))
type RunOption func(*runOptions)

type runOptions struct {
	variant     shader.Variant
	source      *shader.Source
	device      gpucore.Device
	backendName string
	geometry    Geometry
	threadgroup []ThreadgroupMemory
	flag        uint32
	aligned     bool
	cache       *shader.Cache
	logger      *slog.Logger
}

func defaultRunOptions() runOptions {
	return runOptions{
		variant:     shader.DefaultVariant(),
		geometry:    DefaultGeometry,
		threadgroup: []ThreadgroupMemory{DefaultThreadgroupMemory},
		aligned:     true,
	}
}

func (o *runOptions) kernelSource() shader.Source {
	if o.source != nil {
		return *o.source
	}
	return shader.ForVariant(o.variant)
}

// WithVariant selects one of the built-in kernel variants.
func WithVariant(v shader.Variant) RunOption {
	return func(o *runOptions) {
		o.variant = v
		o.source = nil
	}
}

// WithSource replaces the kernel with src. The source must declare the
// same entry point, bindings and threadgroup memory as the built-in
// variants for the default run to be meaningful.
func WithSource(src shader.Source) RunOption {
	return func(o *runOptions) {
		o.source = &src
	}
}

// WithDevice runs on dev instead of resolving a device. The caller keeps
// ownership of dev; Run does not close it.
func WithDevice(dev gpucore.Device) RunOption {
	return func(o *runOptions) {
		o.device = dev
	}
}

// WithBackend resolves the device from the named backend instead of the
// default priority list.
func WithBackend(name string) RunOption {
	return func(o *runOptions) {
		o.backendName = name
	}
}

// WithGeometry sets the dispatch grid and group size.
func WithGeometry(grid, group Size) RunOption {
	return func(o *runOptions) {
		o.geometry = Geometry{Grid: grid, Group: group}
	}
}

// WithThreadgroupMemory replaces the threadgroup memory requests.
// Passing no requests encodes none.
func WithThreadgroupMemory(reqs ...ThreadgroupMemory) RunOption {
	return func(o *runOptions) {
		o.threadgroup = append([]ThreadgroupMemory(nil), reqs...)
	}
}

// WithFlag sets the initial value of the flag buffer.
func WithFlag(v uint32) RunOption {
	return func(o *runOptions) {
		o.flag = v
	}
}

// WithAlignedGroups sets whether the pipeline is built with the hint that
// group sizes are multiples of the execution width. It defaults to true.
func WithAlignedGroups(aligned bool) RunOption {
	return func(o *runOptions) {
		o.aligned = aligned
	}
}

// WithLogger logs the run to l instead of the package logger.
func WithLogger(l *slog.Logger) RunOption {
	return func(o *runOptions) {
		o.logger = l
	}
}

// WithLibraryCache compiles kernels through c, so repeated runs of the same
// source reuse the compiled library.
func WithLibraryCache(c *shader.Cache) RunOption {
	return func(o *runOptions) {
		o.cache = c
	}
}
