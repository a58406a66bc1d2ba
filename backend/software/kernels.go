package software

import "github.com/gogpu/wgmem/shader"

// Models of the built-in shader variants. Both publish group+1+flag from
// thread 0, synchronize, and count the threads that observe the value.

func init() {
	RegisterKernel(shader.ForVariant(shader.VariantLocal).Label, shader.EntryPoint, localEntryPoint)
	RegisterKernel(shader.ForVariant(shader.VariantArg).Label, shader.EntryPoint, argEntryPoint)
}

func localEntryPoint(t *Thread) {
	scratch := t.Threadgroup(0)
	expected := t.GroupID[0] + 1 + t.Buffer(0).Load32(0)
	if t.LocalIndex == 0 {
		scratch.Store32(0, expected)
	}
	t.Barrier()
	if scratch.Load32(0) == expected {
		t.Buffer(1).AtomicAdd32(0, 1)
	}
}

func argEntryPoint(t *Thread) {
	argKernelBody(t, t.Threadgroup(0), t.LocalIndex, t.GroupID[0])
}

func argKernelBody(t *Thread, slot *Memory, lid, group uint32) {
	expected := group + 1 + t.Buffer(0).Load32(0)
	if lid == 0 {
		slot.Store32(0, expected)
	}
	t.Barrier()
	if slot.Load32(0) == expected {
		t.Buffer(1).AtomicAdd32(0, 1)
	}
}
