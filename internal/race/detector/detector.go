package detector

import (
	"io"
	"os"

	"github.com/kolkov/oclrace/device"
	"github.com/kolkov/oclrace/internal/race/shadow"
)

// Config controls detector behavior.
type Config struct {
	// UniformWriteFilter suppresses conflicts for stores that write a
	// byte equal to the byte already committed at that address. A
	// redundant write of the same value cannot observably race. Disabled
	// by the OCLGRIND_UNIFORM_WRITES environment variable at the facade.
	UniformWriteFilter bool

	// StrictAtomicSync keeps atomic permission revoked across group-scope
	// synchronization, catching inter-group races between atomics and
	// non-atomics that the historical behavior misses. Off by default to
	// preserve the historical behavior: every synchronization scope
	// re-permits atomics.
	StrictAtomicSync bool

	// Output receives formatted race reports. Defaults to os.Stderr.
	Output io.Writer
}

// Detector is the race-detection engine. It is driven entirely by the
// simulator's event callbacks and keeps no goroutines or locks of its own.
type Detector struct {
	store      *shadow.Store
	global     device.Memory
	invocation device.KernelInvocation
	cfg        Config
	races      int
}

// New creates a detector for a device whose global memory arena is global.
// The global handle is needed outside any single event's context: global
// fences and kernel boundaries synchronize it wholesale.
func New(global device.Memory, cfg Config) *Detector {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}
	return &Detector{
		store:  shadow.NewStore(),
		global: global,
		cfg:    cfg,
	}
}

// Races returns the number of race reports emitted so far.
func (d *Detector) Races() int {
	return d.races
}

// KernelBegin records the current kernel invocation. The invocation is
// borrowed until the matching KernelEnd; reports need its dimensions to
// decode linear entity indices.
func (d *Detector) KernelBegin(ki device.KernelInvocation) {
	d.invocation = ki
}

// KernelEnd fully synchronizes global memory and drops the invocation.
// All work that the kernel did to global memory is ordered before whatever
// runs next, so global shadow state resets at kernel boundaries.
func (d *Detector) KernelEnd(device.KernelInvocation) {
	d.synchronize(d.global, false)
	d.invocation = nil
}

// MemoryAllocated creates shadow state for a new allocation. Private
// memory is invisible to the detector.
func (d *Detector) MemoryAllocated(mem device.Memory, addr, size uint64) {
	if mem.AddressSpace() == device.AddrSpacePrivate {
		return
	}
	d.store.Allocate(mem, addr, size)
}

// MemoryDeallocated destroys the allocation's shadow state.
func (d *Detector) MemoryDeallocated(mem device.Memory, addr uint64) {
	if mem.AddressSpace() == device.AddrSpacePrivate {
		return
	}
	d.store.Deallocate(mem, addr)
}

// MemoryLoad handles a load of size bytes at addr by a work-item.
func (d *Detector) MemoryLoad(mem device.Memory, wi device.WorkItem, addr, size uint64) {
	d.registerLoadStore(mem, wi, wi.WorkGroup(), addr, size, nil)
}

// GroupMemoryLoad handles a group-wide load (an asynchronous copy read)
// carrying no work-item and no instruction handle.
func (d *Detector) GroupMemoryLoad(mem device.Memory, wg device.WorkGroup, addr, size uint64) {
	d.registerLoadStore(mem, nil, wg, addr, size, nil)
}

// MemoryStore handles a store by a work-item. data carries the bytes
// about to be written; the host must deliver this event before committing
// them, so the uniform-write filter can still read the old values.
func (d *Detector) MemoryStore(mem device.Memory, wi device.WorkItem, addr, size uint64, data []byte) {
	d.registerLoadStore(mem, wi, wi.WorkGroup(), addr, size, data)
}

// GroupMemoryStore handles a group-wide store (an asynchronous copy
// write).
func (d *Detector) GroupMemoryStore(mem device.Memory, wg device.WorkGroup, addr, size uint64, data []byte) {
	d.registerLoadStore(mem, nil, wg, addr, size, data)
}

// registerLoadStore applies the non-atomic conflict and update rules to
// each byte of the access. data is nil for loads. wi is nil for
// group-level accesses; wg is always present.
func (d *Detector) registerLoadStore(mem device.Memory, wi device.WorkItem,
	wg device.WorkGroup, addr, size uint64, data []byte) {
	if d.invocation == nil {
		return
	}
	if mem.AddressSpace() == device.AddrSpacePrivate {
		return
	}

	load := data == nil
	store := !load

	wiIndex := shadow.NoIndex
	if wi != nil {
		wiIndex = wi.GlobalIndex()
	}
	wgIndex := wg.GroupIndex()

	buf, base := d.store.Lookup(mem, addr)

	// At most one report per (access, buffer) pair; the race is
	// attributed to the first conflicting byte in the range.
	raced := false

	for offset := uint64(0); offset < size; offset++ {
		s := buf.State(base + offset)

		conflict := !s.CanRead
		if store {
			conflict = !s.CanWrite
		}
		if store && d.cfg.UniformWriteFilter {
			// A store of the byte already in memory is harmless.
			conflict = conflict && mem.ReadByte(addr+offset) != data[offset]
		}

		// The access is same-entity at work-item granularity when a
		// work-item holds the byte, at group granularity otherwise.
		sameEntity := s.WorkGroup == wgIndex
		if s.WasWorkItem {
			sameEntity = s.WorkItem == wiIndex
		}

		if !raced && conflict && !sameEntity {
			kind := WriteWriteRace
			if load || s.CanRead {
				kind = ReadWriteRace
			}
			d.logRace(kind, mem.AddressSpace(), addr+offset, wi, wg, s)
			raced = true
		}

		// Record the entity only when this access is stronger than the
		// recorded one; decided before the permission bits change below.
		updateEntity := store || (load && s.CanWrite)

		s.CanAtomic = false
		s.CanRead = s.CanRead && load
		s.CanWrite = false
		if updateEntity {
			s.WorkGroup = wgIndex
			if wi != nil {
				s.Instruction = wi.CurrentInstruction()
				s.WorkItem = wiIndex
				s.WasWorkItem = true
			} else {
				// Group-level moves carry no instruction.
				s.Instruction = nil
				s.WorkItem = shadow.NoIndex
				s.WasWorkItem = false
			}
		}
	}
}

// MemoryAtomic handles an atomic read-modify-write by a work-item. The
// operation kind is informational; atomics conflict only with prior
// non-atomic accesses from other work-items, never with each other.
func (d *Detector) MemoryAtomic(mem device.Memory, wi device.WorkItem,
	_ device.AtomicOp, addr, size uint64) {
	if d.invocation == nil {
		return
	}
	if mem.AddressSpace() == device.AddrSpacePrivate {
		return
	}

	wiIndex := wi.GlobalIndex()
	buf, base := d.store.Lookup(mem, addr)

	raced := false
	for offset := uint64(0); offset < size; offset++ {
		s := buf.State(base + offset)

		// An atomic against a prior non-atomic from another work-item is
		// always reported as Read-write, whichever direction it ran.
		if !raced && !s.CanAtomic && wiIndex != s.WorkItem {
			d.logRace(ReadWriteRace, mem.AddressSpace(), addr+offset, wi, wi.WorkGroup(), s)
			raced = true
		}

		s.CanRead = false
		s.CanWrite = false
		if !s.WasWorkItem {
			s.Instruction = wi.CurrentInstruction()
			s.WorkItem = wiIndex
			s.WasWorkItem = true
		}
	}
}
