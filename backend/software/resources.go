package software

import (
	"sync/atomic"

	"github.com/gogpu/wgmem/gpucore"
	"github.com/gogpu/wgmem/shader"
)

// Buffer is a shared buffer backed by host memory.
type Buffer struct {
	mem      *Memory
	released atomic.Bool
}

var _ gpucore.Buffer = (*Buffer)(nil)

// Len returns the buffer length in bytes.
func (b *Buffer) Len() int { return b.mem.Len() }

// Contents returns a copy of the buffer bytes.
func (b *Buffer) Contents() []byte { return b.mem.snapshot() }

// Release marks the buffer released. Binding a released buffer fails the
// encoder.
func (b *Buffer) Release() { b.released.Store(true) }

// Pipeline pairs a compute function with its kernel model.
type Pipeline struct {
	fn     *shader.Function
	kernel Kernel
	width  uint32
}

var _ gpucore.Pipeline = (*Pipeline)(nil)

// Function returns the compute function.
func (p *Pipeline) Function() *shader.Function { return p.fn }

// ThreadExecutionWidth returns the device execution width.
func (p *Pipeline) ThreadExecutionWidth() uint32 { return p.width }

// Release is a no-op.
func (p *Pipeline) Release() {}
