package wgmem

import (
	"sync"
	"testing"

	"github.com/gogpu/wgmem/backend/software"
	"github.com/gogpu/wgmem/gpucore"
	"github.com/gogpu/wgmem/shader"
)

func newSoftware(t *testing.T, opts ...software.Option) *software.Device {
	t.Helper()
	dev, err := software.New(opts...)
	if err != nil {
		t.Fatalf("software.New() error = %v", err)
	}
	t.Cleanup(dev.Close)
	return dev
}

func compileFunction(t *testing.T, src shader.Source) *shader.Function {
	t.Helper()
	lib, err := shader.Compile(src)
	if err != nil {
		t.Fatalf("Compile(%s) error = %v", src.Label, err)
	}
	fn, err := lib.Function(shader.EntryPoint)
	if err != nil {
		t.Fatalf("Function(%q) error = %v", shader.EntryPoint, err)
	}
	return fn
}

// recordingDevice counts pipeline builds and records buffer initializers.
type recordingDevice struct {
	gpucore.Device

	mu        sync.Mutex
	pipelines int
	buffers   [][]byte
}

func (d *recordingDevice) NewComputePipeline(desc *gpucore.PipelineDescriptor) (gpucore.Pipeline, error) {
	d.mu.Lock()
	d.pipelines++
	d.mu.Unlock()
	return d.Device.NewComputePipeline(desc)
}

func (d *recordingDevice) NewBuffer(data []byte, mode gpucore.StorageMode) (gpucore.Buffer, error) {
	d.mu.Lock()
	d.buffers = append(d.buffers, append([]byte(nil), data...))
	d.mu.Unlock()
	return d.Device.NewBuffer(data, mode)
}
