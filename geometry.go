package wgmem

import "github.com/gogpu/wgmem/gpucore"

// Size is a three-dimensional dispatch extent.
type Size = gpucore.Size

// ThreadgroupMemory is a request for Length bytes of threadgroup memory at
// Index.
type ThreadgroupMemory struct {
	Length uint64
	Index  uint64
}

// Geometry is the grid and group size of a dispatch.
type Geometry struct {
	// Grid is the number of threadgroups.
	Grid Size
	// Group is the number of threads per threadgroup.
	Group Size
}

// Threads returns the total number of threads dispatched.
func (g Geometry) Threads() uint64 {
	return g.Grid.Normalize().Count() * g.Group.Normalize().Count()
}

// Default dispatch parameters.
var (
	DefaultGeometry = Geometry{
		Grid:  gpucore.NewSize(10, 1, 1),
		Group: gpucore.NewSize(96, 1, 1),
	}
	DefaultThreadgroupMemory = ThreadgroupMemory{Length: 4, Index: 0}
)
