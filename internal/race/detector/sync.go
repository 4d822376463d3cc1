package detector

import (
	"github.com/kolkov/oclrace/device"
	"github.com/kolkov/oclrace/internal/race/shadow"
)

// WorkGroupBarrier applies the barrier's fences. A local fence orders
// everything the group did to its local memory, so that memory fully
// resets. A global fence orders the group's own global accesses only, so
// global memory gets a group-scope reset: per-work-item tracking clears,
// but cross-group conflicts stay armed.
func (d *Detector) WorkGroupBarrier(wg device.WorkGroup, flags device.BarrierFlags) {
	if flags&device.LocalMemFence != 0 {
		d.synchronize(wg.LocalMemory(), false)
	}
	if flags&device.GlobalMemFence != 0 {
		d.synchronize(d.global, true)
	}
}

// synchronize resets shadow state for every buffer of the given memory
// arena.
//
// Group scope clears per-work-item tracking only: work-item identity is
// forgotten, while read/write permissions, the responsible group and the
// recorded instruction survive so conflicts across groups keep reporting.
// Full scope (groupScope false) additionally restores read/write
// permission and forgets the group and the instruction, leaving every
// byte pristine.
//
// Atomic permission is re-granted on both scopes by default, which
// under-reports some inter-group atomic/non-atomic races; StrictAtomicSync
// narrows the re-grant to full scope.
func (d *Detector) synchronize(mem device.Memory, groupScope bool) {
	d.store.Iterate(mem, func(buf *shadow.Buffer) {
		for offset := uint64(0); offset < buf.Size(); offset++ {
			s := buf.State(offset)
			if !groupScope || !d.cfg.StrictAtomicSync {
				s.CanAtomic = true
			}
			s.WorkItem = shadow.NoIndex
			s.WasWorkItem = false
			if !groupScope {
				s.WorkGroup = shadow.NoIndex
				s.CanRead = true
				s.CanWrite = true
				s.Instruction = nil
			}
		}
	})
}
