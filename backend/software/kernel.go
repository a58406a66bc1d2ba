package software

import (
	"fmt"
	"sync"
)

// Kernel is a Go model of a compute entry point. It runs once per thread.
type Kernel func(t *Thread)

// Thread is the execution context of one kernel invocation.
type Thread struct {
	// LocalIndex is the linearized index within the threadgroup.
	LocalIndex uint32
	// LocalID is the position within the threadgroup.
	LocalID [3]uint32
	// GroupID is the threadgroup position in the grid.
	GroupID [3]uint32
	// GroupCount is the grid size in threadgroups.
	GroupCount [3]uint32

	group *threadgroup
}

// Buffer returns the buffer bound at argument index.
func (t *Thread) Buffer(index uint32) *Memory {
	m, ok := t.group.buffers[index]
	if !ok {
		panic(&Fault{Reason: fmt.Sprintf("no buffer bound at index %d", index)})
	}
	return m
}

// Threadgroup returns the threadgroup memory at index. The region is
// private to the thread's group and sized by the encoder's request.
func (t *Thread) Threadgroup(index uint64) *Memory {
	m, ok := t.group.scratch[index]
	if !ok {
		panic(&Fault{Reason: fmt.Sprintf("no threadgroup memory allocated at index %d", index)})
	}
	return m
}

// Barrier blocks until every live thread of the group reaches it.
func (t *Thread) Barrier() {
	t.group.barrier.wait()
}

// Fault describes a kernel execution failure.
type Fault struct {
	Group  [3]uint32
	Thread uint32
	Reason string
}

func (f *Fault) Error() string {
	return fmt.Sprintf("software: kernel fault in group %v thread %d: %s", f.Group, f.Thread, f.Reason)
}

var (
	kernelsMu sync.RWMutex
	kernels   = make(map[string]Kernel)
)

func kernelKey(label, entry string) string { return label + "/" + entry }

// RegisterKernel registers the model for entry in the source labeled label.
// A later registration replaces an earlier one.
func RegisterKernel(label, entry string, k Kernel) {
	kernelsMu.Lock()
	defer kernelsMu.Unlock()
	kernels[kernelKey(label, entry)] = k
}

// UnregisterKernel removes a kernel model. This is useful for testing.
func UnregisterKernel(label, entry string) {
	kernelsMu.Lock()
	defer kernelsMu.Unlock()
	delete(kernels, kernelKey(label, entry))
}

func lookupKernel(label, entry string) (Kernel, bool) {
	kernelsMu.RLock()
	defer kernelsMu.RUnlock()
	k, ok := kernels[kernelKey(label, entry)]
	return k, ok
}
