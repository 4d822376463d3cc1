package detector

import (
	"testing"

	"github.com/kolkov/oclrace/device"
	"github.com/kolkov/oclrace/internal/race/shadow"
)

// pristine reports whether every byte of every shadow buffer in mem is
// back to its initial state.
func (f *fixture) pristine(mem device.Memory) bool {
	ok := true
	f.det.store.Iterate(mem, func(b *shadow.Buffer) {
		for off := uint64(0); off < b.Size(); off++ {
			if !b.State(off).Pristine() {
				ok = false
			}
		}
	})
	return ok
}

// TestFullSync_RestoresPristine verifies a full-scope reset returns
// every byte of the synchronized memory to pristine.
func TestFullSync_RestoresPristine(t *testing.T) {
	f := defaultFixture(t)

	f.store(0, 0, 1, 2, 3, 4)
	f.load(1, 0, 2)
	f.atomic(2, 2, 1)

	f.det.synchronize(f.global, false)

	if !f.pristine(f.global) {
		t.Error("global shadow state not pristine after full synchronization")
	}
}

// TestFullSync_Idempotent verifies synchronizing twice equals once.
func TestFullSync_Idempotent(t *testing.T) {
	f := defaultFixture(t)

	f.store(0, 0, 1, 2, 3, 4)

	f.det.synchronize(f.global, false)
	f.det.synchronize(f.global, false)

	if !f.pristine(f.global) {
		t.Error("global shadow state not pristine after repeated synchronization")
	}

	// And the state is usable: a fresh conflicting pair still reports.
	f.store(0, 0, 5)
	f.store(1, 0, 6)
	f.wantRaces(1)
}

// TestGroupSync_KeepsGroupTracking verifies a group-scope reset forgets
// work-items but keeps permissions and the responsible group.
func TestGroupSync_KeepsGroupTracking(t *testing.T) {
	f := defaultFixture(t)

	f.store(0, 0, 1)
	f.det.synchronize(f.global, true)

	buf, off := f.det.store.Lookup(f.global, f.buf)
	s := buf.State(off)

	if s.WasWorkItem || s.WorkItem != shadow.NoIndex {
		t.Errorf("work-item tracking survived group-scope sync: %+v", s)
	}
	if s.WorkGroup != 0 {
		t.Errorf("WorkGroup = %d after group-scope sync, want 0", s.WorkGroup)
	}
	if s.CanRead || s.CanWrite {
		t.Errorf("permissions restored by group-scope sync: %+v", s)
	}
	if !s.CanAtomic {
		t.Errorf("atomic permission not re-armed by default group-scope sync")
	}
}

// TestKernelEnd_SynchronizesOnlyGlobal verifies the kernel boundary does
// not touch local memories.
func TestKernelEnd_SynchronizesOnlyGlobal(t *testing.T) {
	f := defaultFixture(t)

	local := f.groups[0].Local()
	laddr := local.Alloc(4)
	f.det.MemoryAllocated(local, laddr, 4)
	f.det.MemoryStore(local, f.items[0], laddr, 1, []byte{1})
	local.Write(laddr, []byte{1})

	f.store(0, 0, 1)
	f.det.KernelEnd(f.kernel)

	if !f.pristine(f.global) {
		t.Error("global shadow state not pristine after kernel end")
	}
	if f.pristine(local) {
		t.Error("kernel end must not synchronize local memory")
	}
}

// TestBarrier_BothFences applies both fences in one barrier.
func TestBarrier_BothFences(t *testing.T) {
	f := defaultFixture(t)

	local := f.groups[0].Local()
	laddr := local.Alloc(4)
	f.det.MemoryAllocated(local, laddr, 4)

	f.det.MemoryStore(local, f.items[0], laddr, 1, []byte{1})
	local.Write(laddr, []byte{1})
	f.store(0, 0, 1)

	f.barrier(0, device.LocalMemFence|device.GlobalMemFence)

	f.det.MemoryStore(local, f.items[1], laddr, 1, []byte{2})
	local.Write(laddr, []byte{2})
	f.load(1, 0, 1)

	f.wantRaces(0)
}
