package software

import (
	"encoding/binary"
	"fmt"
	"sync"
)

// Memory is a byte region a kernel reads and writes in 32-bit words.
// All accesses are serialized, so concurrent threads observe a coherent
// view; ordering between threads still requires Barrier.
type Memory struct {
	mu   sync.Mutex
	name string
	data []byte
}

func newMemory(name string, n int) *Memory {
	return &Memory{name: name, data: make([]byte, n)}
}

// Len returns the region length in bytes.
func (m *Memory) Len() int { return len(m.data) }

func (m *Memory) check(offset uint64) {
	if offset+4 > uint64(len(m.data)) {
		panic(&Fault{Reason: fmt.Sprintf("%s: 4-byte access at offset %d out of range (length %d)", m.name, offset, len(m.data))})
	}
}

// Load32 reads the little-endian word at offset.
func (m *Memory) Load32(offset uint64) uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.check(offset)
	return binary.LittleEndian.Uint32(m.data[offset:])
}

// Store32 writes v at offset.
func (m *Memory) Store32(offset uint64, v uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.check(offset)
	binary.LittleEndian.PutUint32(m.data[offset:], v)
}

// AtomicAdd32 adds delta to the word at offset and returns the old value.
func (m *Memory) AtomicAdd32(offset uint64, delta uint32) uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.check(offset)
	old := binary.LittleEndian.Uint32(m.data[offset:])
	binary.LittleEndian.PutUint32(m.data[offset:], old+delta)
	return old
}

func (m *Memory) snapshot() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]byte, len(m.data))
	copy(out, m.data)
	return out
}
