package wgmem

import (
	"bytes"
	"errors"
	"testing"
)

func TestEncodeScalar(t *testing.T) {
	tests := []struct {
		name string
		got  []byte
		want []byte
	}{
		{"uint32", EncodeScalar(uint32(0x01020304)), []byte{4, 3, 2, 1}},
		{"int16", EncodeScalar(int16(-2)), []byte{0xfe, 0xff}},
		{"uint8", EncodeScalar(uint8(7)), []byte{7}},
		{"float32", EncodeScalar(float32(1)), []byte{0, 0, 0x80, 0x3f}},
	}
	for _, tt := range tests {
		if !bytes.Equal(tt.got, tt.want) {
			t.Errorf("EncodeScalar(%s) = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestDecodeScalarSizeMismatch(t *testing.T) {
	for _, b := range [][]byte{nil, {1, 2}, {1, 2, 3, 4, 5}} {
		if _, err := DecodeScalar[uint32](b); !errors.Is(err, ErrBufferSize) {
			t.Errorf("DecodeScalar(%v) error = %v, want ErrBufferSize", b, err)
		}
	}
}

func TestScalarBuffer(t *testing.T) {
	dev := newSoftware(t)
	buf, err := NewScalar(dev, uint32(0xcafe))
	if err != nil {
		t.Fatalf("NewScalar() error = %v", err)
	}
	defer buf.Release()
	if buf.Len() != 4 {
		t.Errorf("Len() = %d, want 4", buf.Len())
	}
	got, err := ReadScalar[uint32](buf)
	if err != nil {
		t.Fatal(err)
	}
	if got != 0xcafe {
		t.Errorf("ReadScalar() = %#x, want 0xcafe", got)
	}
	if _, err := ReadScalar[uint64](buf); !errors.Is(err, ErrBufferSize) {
		t.Errorf("ReadScalar[uint64]() error = %v, want ErrBufferSize", err)
	}
}
