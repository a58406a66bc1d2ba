package shader

import (
	"fmt"

	"github.com/gogpu/naga/ir"
)

// ThreadgroupVar describes one threadgroup memory declaration.
// Index is the binding slot a dispatch must size, assigned in declaration
// order; Length is the number of bytes the declaration occupies.
type ThreadgroupVar struct {
	Index  uint64
	Name   string
	Length uint64
}

// BufferBinding describes a storage buffer the kernel binds.
type BufferBinding struct {
	Group   uint32
	Binding uint32
	Name    string
	Length  uint64
}

// Function is a resolved entry point with its reflected interface.
//
// Bindings and threadgroup memory are reflected from every global the
// module declares, not only those the entry point reaches. A source with
// several entry points reports the union for each of them, so a dispatch
// must bind and size all of it.
type Function struct {
	library     *Library
	name        string
	stage       ir.ShaderStage
	workgroup   [3]uint32
	threadgroup []ThreadgroupVar
	bindings    []BufferBinding
}

func newFunction(l *Library, ep *ir.EntryPoint) *Function {
	fn := &Function{
		library:   l,
		name:      ep.Name,
		stage:     ep.Stage,
		workgroup: ep.Workgroup,
	}
	m := l.module
	for _, gv := range m.GlobalVariables {
		switch {
		case gv.Space == ir.SpaceWorkGroup:
			fn.threadgroup = append(fn.threadgroup, ThreadgroupVar{
				Index:  uint64(len(fn.threadgroup)),
				Name:   gv.Name,
				Length: typeSize(m, gv.Type),
			})
		case gv.Space == ir.SpaceStorage && gv.Binding != nil:
			fn.bindings = append(fn.bindings, BufferBinding{
				Group:   gv.Binding.Group,
				Binding: gv.Binding.Binding,
				Name:    gv.Name,
				Length:  typeSize(m, gv.Type),
			})
		}
	}
	return fn
}

// Name returns the entry point name.
func (f *Function) Name() string { return f.name }

// Library returns the library the function was resolved from.
func (f *Function) Library() *Library { return f.library }

// Source returns the source of the owning library.
func (f *Function) Source() Source { return f.library.source }

// IsCompute reports whether the entry point is a compute kernel.
func (f *Function) IsCompute() bool { return f.stage == ir.StageCompute }

// WorkgroupSize returns the @workgroup_size of the kernel, with unset
// dimensions reported as 1.
func (f *Function) WorkgroupSize() [3]uint32 {
	ws := f.workgroup
	for i := range ws {
		if ws[i] == 0 {
			ws[i] = 1
		}
	}
	return ws
}

// Threadgroup returns the module's threadgroup memory layout in index
// order.
func (f *Function) Threadgroup() []ThreadgroupVar {
	out := make([]ThreadgroupVar, len(f.threadgroup))
	copy(out, f.threadgroup)
	return out
}

// ThreadgroupLength returns the declared length at index and whether the
// index exists.
func (f *Function) ThreadgroupLength(index uint64) (uint64, bool) {
	if index >= uint64(len(f.threadgroup)) {
		return 0, false
	}
	return f.threadgroup[index].Length, true
}

// Bindings returns the module's storage buffer bindings in declaration
// order.
func (f *Function) Bindings() []BufferBinding {
	out := make([]BufferBinding, len(f.bindings))
	copy(out, f.bindings)
	return out
}

func (f *Function) String() string {
	ws := f.WorkgroupSize()
	return fmt.Sprintf("%s(%s) workgroup=%dx%dx%d threadgroup=%d bindings=%d",
		f.name, f.library.source.Label, ws[0], ws[1], ws[2], len(f.threadgroup), len(f.bindings))
}

// typeSize returns the byte size of a type as laid out in threadgroup or
// storage memory. Runtime-sized arrays report 0.
func typeSize(m *ir.Module, h ir.TypeHandle) uint64 {
	if int(h) >= len(m.Types) {
		return 0
	}
	switch t := m.Types[h].Inner.(type) {
	case ir.ScalarType:
		return uint64(t.Width)
	case ir.AtomicType:
		return uint64(t.Scalar.Width)
	case ir.VectorType:
		n := uint64(t.Size)
		if t.Size == ir.Vec3 {
			n = 4
		}
		return n * uint64(t.Scalar.Width)
	case ir.MatrixType:
		rows := uint64(t.Rows)
		if t.Rows == ir.Vec3 {
			rows = 4
		}
		return uint64(t.Columns) * rows * uint64(t.Scalar.Width)
	case ir.ArrayType:
		if t.Size.Constant == nil {
			return 0
		}
		stride := uint64(t.Stride)
		if stride == 0 {
			stride = typeSize(m, t.Base)
		}
		return uint64(*t.Size.Constant) * stride
	case ir.StructType:
		return uint64(t.Span)
	default:
		return 0
	}
}
