package wgmem

import (
	"encoding/binary"
	"fmt"

	"github.com/gogpu/wgmem/gpucore"
)

// Scalar is a fixed-size value that can back a single-element buffer.
type Scalar interface {
	~uint8 | ~int8 | ~uint16 | ~int16 | ~uint32 | ~int32 | ~uint64 | ~int64 | ~float32 | ~float64
}

// EncodeScalar returns the little-endian encoding of v.
func EncodeScalar[T Scalar](v T) []byte {
	b, err := binary.Append(nil, binary.LittleEndian, v)
	if err != nil {
		// Unreachable for fixed-size types.
		panic(err)
	}
	return b
}

// DecodeScalar decodes b as a T. The length of b must equal the size of T.
func DecodeScalar[T Scalar](b []byte) (T, error) {
	var v T
	if n := binary.Size(v); len(b) != n {
		return v, fmt.Errorf("%w: %d bytes for a %d-byte %T", ErrBufferSize, len(b), n, v)
	}
	if _, err := binary.Decode(b, binary.LittleEndian, &v); err != nil {
		return v, err
	}
	return v, nil
}

// NewScalar allocates a shared buffer holding v. The buffer is exactly the
// size of T.
func NewScalar[T Scalar](dev gpucore.Device, v T) (gpucore.Buffer, error) {
	return dev.NewBuffer(EncodeScalar(v), gpucore.StorageModeShared)
}

// ReadScalar decodes the contents of buf as a T.
func ReadScalar[T Scalar](buf gpucore.Buffer) (T, error) {
	return DecodeScalar[T](buf.Contents())
}
