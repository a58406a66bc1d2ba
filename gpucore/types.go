package gpucore

import "fmt"

// Size is a three-dimensional extent used for dispatch geometry.
type Size struct {
	Width  uint32
	Height uint32
	Depth  uint32
}

// NewSize returns a Size. Zero dimensions are kept; use Normalize to treat
// them as 1.
func NewSize(width, height, depth uint32) Size {
	return Size{Width: width, Height: height, Depth: depth}
}

// Normalize returns s with zero dimensions replaced by 1.
func (s Size) Normalize() Size {
	if s.Width == 0 {
		s.Width = 1
	}
	if s.Height == 0 {
		s.Height = 1
	}
	if s.Depth == 0 {
		s.Depth = 1
	}
	return s
}

// Count returns Width*Height*Depth.
func (s Size) Count() uint64 {
	return uint64(s.Width) * uint64(s.Height) * uint64(s.Depth)
}

// Array returns the dimensions as an array.
func (s Size) Array() [3]uint32 {
	return [3]uint32{s.Width, s.Height, s.Depth}
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%dx%d", s.Width, s.Height, s.Depth)
}

// StorageMode describes buffer visibility between host and device.
// Only shared storage is modeled.
type StorageMode uint8

const (
	// StorageModeShared buffers are coherent between host and device
	// without explicit copies.
	StorageModeShared StorageMode = iota
)

func (m StorageMode) String() string {
	if m == StorageModeShared {
		return "shared"
	}
	return fmt.Sprintf("StorageMode(%d)", m)
}
