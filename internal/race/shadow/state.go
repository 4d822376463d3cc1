package shadow

import "github.com/kolkov/oclrace/device"

// NoIndex marks an unset work-item or work-group index in a State.
const NoIndex = -1

// State is the shadow cell for a single byte of simulated memory.
//
// The permission bits say which access kinds a *different* entity may
// still perform at this byte without racing. The entity fields identify
// who was last responsible: a work-item (WasWorkItem true, WorkItem and
// Instruction set) or a bare work-group (WasWorkItem false, WorkGroup
// set), with group-level accesses carrying no instruction handle.
type State struct {
	// Instruction last touched this byte, or nil for group-level and
	// never-accessed bytes.
	Instruction device.Instruction

	// WorkItem is the linear global index of the last responsible
	// work-item, or NoIndex.
	WorkItem int

	// WorkGroup is the linear index of the last responsible work-group,
	// or NoIndex.
	WorkGroup int

	// CanRead is false once a store makes a subsequent read by another
	// entity unsafe.
	CanRead bool

	// CanWrite is false once any access makes a subsequent write by
	// another entity unsafe.
	CanWrite bool

	// CanAtomic is false once a non-atomic access makes a subsequent
	// atomic by another work-item unsafe.
	CanAtomic bool

	// WasWorkItem discriminates the entity fields: true when the last
	// responsible entity was a work-item rather than a work-group.
	WasWorkItem bool
}

// clear resets the cell to pristine.
func (s *State) clear() {
	s.Instruction = nil
	s.WorkItem = NoIndex
	s.WorkGroup = NoIndex
	s.CanRead = true
	s.CanWrite = true
	s.CanAtomic = true
	s.WasWorkItem = false
}

// Pristine reports whether the byte carries no access history: all
// permissions intact and no responsible entity recorded. Pristine bytes
// never produce race reports.
func (s *State) Pristine() bool {
	return s.CanRead && s.CanWrite && s.CanAtomic &&
		!s.WasWorkItem && s.WorkItem == NoIndex && s.WorkGroup == NoIndex &&
		s.Instruction == nil
}
