//go:build !nogpu

package native

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/wgmem/backend"
	"github.com/gogpu/wgmem/gpucore"
)

// ExecutionWidth is the lane width reported for HAL devices. The HAL does
// not expose the subgroup size, so the common SIMD width is assumed.
const ExecutionWidth = 32

func init() {
	backend.Register(backend.Native, func() (gpucore.Device, error) {
		return Open()
	})
}

// Device is a GPU opened through the wgpu HAL.
type Device struct {
	mu sync.Mutex

	instance hal.Instance
	device   hal.Device
	queue    hal.Queue
	name     string
	limits   gputypes.Limits

	// external is set when the device belongs to a provider and must not be
	// destroyed on Close.
	external bool
	closed   bool

	// pending counts submissions whose waiter gave up before the fence
	// signalled. While it is non-zero, resource destruction is queued in
	// retired. drained is released as each of them completes.
	pending int
	retired []func()
	drained sync.WaitGroup
}

var _ gpucore.Device = (*Device)(nil)

// Open opens the first usable GPU of the platform backends.
// It returns an error wrapping gpucore.ErrNoDevice when none is found.
func Open() (*Device, error) {
	errs := []error{gpucore.ErrNoDevice}
	for _, b := range platformBackends {
		api, ok := hal.GetBackend(b)
		if !ok {
			errs = append(errs, fmt.Errorf("native: %v backend not available", b))
			continue
		}
		d, err := openBackend(api)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		return d, nil
	}
	return nil, errors.Join(errs...)
}

func openBackend(api hal.Backend) (*Device, error) {
	instance, err := api.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("native: create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, errors.New("native: no GPU adapters found")
	}
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}
	limits := gputypes.DefaultLimits()
	openDev, err := selected.Adapter.Open(gputypes.Features(0), limits)
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("native: open device: %w", err)
	}
	backend.Logger().Info("native: device opened", "adapter", selected.Info.Name)
	return &Device{
		instance: instance,
		device:   openDev.Device,
		queue:    openDev.Queue,
		name:     selected.Info.Name,
		limits:   limits,
	}, nil
}

// Name returns the adapter name.
func (d *Device) Name() string { return d.name }

// ExecutionWidth returns ExecutionWidth.
func (d *Device) ExecutionWidth() uint32 { return ExecutionWidth }

// Limits returns the limits the device was opened with.
func (d *Device) Limits() gputypes.Limits { return d.limits }

// NewBuffer creates a storage buffer and its readback staging buffer, and
// uploads data.
func (d *Device) NewBuffer(data []byte, mode gpucore.StorageMode) (gpucore.Buffer, error) {
	if mode != gpucore.StorageModeShared {
		return nil, fmt.Errorf("native: %w: storage mode %s", gpucore.ErrBufferAllocation, mode)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("native: %w: zero length", gpucore.ErrBufferAllocation)
	}
	size := uint64(len(data))
	if size > d.limits.MaxBufferSize {
		return nil, fmt.Errorf("native: %w: %d bytes exceeds max buffer size %d",
			gpucore.ErrBufferAllocation, size, d.limits.MaxBufferSize)
	}
	storage, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "wgmem_storage", Size: size,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopySrc | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("native: %w: create storage buffer: %v", gpucore.ErrBufferAllocation, err)
	}
	staging, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "wgmem_staging", Size: size,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		d.device.DestroyBuffer(storage)
		return nil, fmt.Errorf("native: %w: create staging buffer: %v", gpucore.ErrBufferAllocation, err)
	}
	d.queue.WriteBuffer(storage, 0, data)

	host := make([]byte, len(data))
	copy(host, data)
	backend.Logger().Debug("native: buffer allocated", "bytes", size)
	return &Buffer{device: d, storage: storage, staging: staging, host: host}, nil
}

// NewCommandQueue returns a queue submitting to the device queue.
func (d *Device) NewCommandQueue() (gpucore.CommandQueue, error) {
	return &CommandQueue{device: d}, nil
}

// retain records a submission that is still executing after its waiter
// returned.
func (d *Device) retain() {
	d.mu.Lock()
	d.pending++
	d.mu.Unlock()
	d.drained.Add(1)
}

// settle ends a retained submission. The last one runs every destruction
// queued while submissions were in flight.
func (d *Device) settle() {
	defer d.drained.Done()
	d.mu.Lock()
	d.pending--
	var run []func()
	if d.pending == 0 {
		run, d.retired = d.retired, nil
	}
	d.mu.Unlock()
	for _, destroy := range run {
		destroy()
	}
}

// retire runs destroy now, or once no retained submission is in flight.
func (d *Device) retire(destroy func()) {
	d.mu.Lock()
	if d.pending > 0 {
		d.retired = append(d.retired, destroy)
		d.mu.Unlock()
		return
	}
	d.mu.Unlock()
	destroy()
}

// Close waits for abandoned submissions, then destroys the device and
// instance unless they belong to a provider.
func (d *Device) Close() {
	d.drained.Wait()
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true
	if d.external {
		d.device = nil
		d.queue = nil
		return
	}
	if d.device != nil {
		d.device.Destroy()
		d.device = nil
	}
	if d.instance != nil {
		d.instance.Destroy()
		d.instance = nil
	}
	d.queue = nil
}
