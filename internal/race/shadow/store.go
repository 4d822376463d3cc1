package shadow

import (
	"fmt"

	"github.com/kolkov/oclrace/device"
)

// Buffer holds the shadow states for one allocation, one State per byte.
type Buffer struct {
	states []State
}

// newBuffer returns a Buffer of size pristine states.
func newBuffer(size uint64) *Buffer {
	b := &Buffer{states: make([]State, size)}
	for i := range b.states {
		b.states[i].clear()
	}
	return b
}

// Size returns the buffer length in bytes.
func (b *Buffer) Size() uint64 {
	return uint64(len(b.states))
}

// State returns the shadow cell at the given byte offset.
func (b *Buffer) State(offset uint64) *State {
	return &b.states[offset]
}

// key identifies one allocation: the owning memory arena plus the buffer
// handle extracted from the allocation's base address. Using the Memory
// interface value keeps lookups correct across distinct arenas that reuse
// buffer handles (each work-group's local memory numbers its buffers
// independently of the global memory).
type key struct {
	mem    device.Memory
	buffer uint64
}

// Store owns every live shadow buffer, keyed by (memory, buffer handle).
type Store struct {
	buffers map[key]*Buffer
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{buffers: make(map[key]*Buffer)}
}

// Allocate creates a pristine shadow buffer for an allocation of size
// bytes based at the packed address base. The caller filters out private
// memory before calling.
func (st *Store) Allocate(mem device.Memory, base, size uint64) {
	st.buffers[key{mem, device.ExtractBuffer(base)}] = newBuffer(size)
}

// Deallocate destroys the shadow buffer for the allocation based at base.
func (st *Store) Deallocate(mem device.Memory, base uint64) {
	delete(st.buffers, key{mem, device.ExtractBuffer(base)})
}

// Lookup resolves a packed access address to its shadow buffer and the
// byte offset within it. A missing buffer means the host emitted an
// access to memory it never reported allocating; that is a bug in the
// event stream, not a recoverable condition, so Lookup panics.
func (st *Store) Lookup(mem device.Memory, addr uint64) (*Buffer, uint64) {
	k := key{mem, device.ExtractBuffer(addr)}
	b, ok := st.buffers[k]
	if !ok {
		panic(fmt.Sprintf("shadow: access to unallocated %v buffer %d (address 0x%x)",
			mem.AddressSpace(), k.buffer, addr))
	}
	return b, device.ExtractOffset(addr)
}

// Iterate calls fn for every shadow buffer owned by the given memory
// arena. Iteration order is unspecified.
func (st *Store) Iterate(mem device.Memory, fn func(*Buffer)) {
	for k, b := range st.buffers {
		if k.mem == mem {
			fn(b)
		}
	}
}

// Len returns the number of live shadow buffers across all arenas.
func (st *Store) Len() int {
	return len(st.buffers)
}
