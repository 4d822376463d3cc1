package simdev

import (
	"fmt"

	"github.com/kolkov/oclrace/device"
)

// Memory is an in-memory arena implementing device.Memory. Buffers are
// numbered from 1 so that no valid packed address is zero.
type Memory struct {
	space   device.AddressSpace
	buffers map[uint64][]byte
	next    uint64
}

// NewMemory creates an empty arena in the given address space.
func NewMemory(space device.AddressSpace) *Memory {
	return &Memory{
		space:   space,
		buffers: make(map[uint64][]byte),
		next:    1,
	}
}

// AddressSpace implements device.Memory.
func (m *Memory) AddressSpace() device.AddressSpace {
	return m.space
}

// Alloc creates a zero-filled buffer of size bytes and returns its packed
// base address.
func (m *Memory) Alloc(size uint64) uint64 {
	handle := m.next
	m.next++
	m.buffers[handle] = make([]byte, size)
	return device.PackAddress(handle, 0)
}

// Free releases the buffer containing addr.
func (m *Memory) Free(addr uint64) {
	delete(m.buffers, device.ExtractBuffer(addr))
}

// ReadByte implements device.Memory.
func (m *Memory) ReadByte(addr uint64) byte {
	return m.bytes(addr)[device.ExtractOffset(addr)]
}

// Write commits data starting at the packed address addr.
func (m *Memory) Write(addr uint64, data []byte) {
	copy(m.bytes(addr)[device.ExtractOffset(addr):], data)
}

// Read returns a copy of size bytes starting at addr.
func (m *Memory) Read(addr, size uint64) []byte {
	offset := device.ExtractOffset(addr)
	out := make([]byte, size)
	copy(out, m.bytes(addr)[offset:offset+size])
	return out
}

func (m *Memory) bytes(addr uint64) []byte {
	buf, ok := m.buffers[device.ExtractBuffer(addr)]
	if !ok {
		panic(fmt.Sprintf("simdev: no %v buffer at address 0x%x", m.space, addr))
	}
	return buf
}
