package race

import (
	"io"
	"os"

	"github.com/kolkov/oclrace/device"
	internal "github.com/kolkov/oclrace/internal/race/detector"
)

// Config controls detector behavior for NewWithConfig.
type Config struct {
	// DisableUniformWriteFilter reports stores of a byte equal to the
	// byte already in memory as conflicts too. By default such redundant
	// writes are filtered out: they cannot observably race.
	DisableUniformWriteFilter bool

	// StrictAtomicSync keeps atomic permission revoked across group-scope
	// synchronization. The historical behavior — preserved by default —
	// re-permits atomics at every synchronization point, which misses
	// some inter-group races between atomic and non-atomic accesses.
	StrictAtomicSync bool

	// Output receives formatted race reports. Defaults to os.Stderr.
	Output io.Writer
}

// Detector is the race-detector plugin. Create one per simulated device
// and deliver every plugin event to it from the simulator thread.
type Detector struct {
	engine *internal.Detector
}

// New creates a detector for a device whose global memory arena is
// global, configured from the environment: setting
// OCLGRIND_UNIFORM_WRITES disables the uniform-write filter. Reports go
// to standard error.
func New(global device.Memory) *Detector {
	return NewWithConfig(global, Config{
		DisableUniformWriteFilter: os.Getenv("OCLGRIND_UNIFORM_WRITES") != "",
	})
}

// NewWithConfig creates a detector with explicit configuration.
func NewWithConfig(global device.Memory, cfg Config) *Detector {
	return &Detector{
		engine: internal.New(global, internal.Config{
			UniformWriteFilter: !cfg.DisableUniformWriteFilter,
			StrictAtomicSync:   cfg.StrictAtomicSync,
			Output:             cfg.Output,
		}),
	}
}

// Races returns the number of race reports emitted so far.
func (d *Detector) Races() int {
	return d.engine.Races()
}

// KernelBegin must be invoked when a kernel launch starts. The invocation
// is borrowed until KernelEnd; reports use its dimensions to decode
// entity coordinates.
func (d *Detector) KernelBegin(ki device.KernelInvocation) {
	d.engine.KernelBegin(ki)
}

// KernelEnd must be invoked when the kernel launch finishes. It fully
// resets global-memory shadow state: kernel boundaries order all global
// accesses.
func (d *Detector) KernelEnd(ki device.KernelInvocation) {
	d.engine.KernelEnd(ki)
}

// MemoryAllocated must be invoked for every buffer allocation. Private
// allocations are ignored.
func (d *Detector) MemoryAllocated(mem device.Memory, addr, size uint64) {
	d.engine.MemoryAllocated(mem, addr, size)
}

// MemoryDeallocated must be invoked for every buffer release.
func (d *Detector) MemoryDeallocated(mem device.Memory, addr uint64) {
	d.engine.MemoryDeallocated(mem, addr)
}

// MemoryLoad records a load of size bytes at addr by a work-item.
func (d *Detector) MemoryLoad(mem device.Memory, wi device.WorkItem, addr, size uint64) {
	d.engine.MemoryLoad(mem, wi, addr, size)
}

// GroupMemoryLoad records a group-wide load, such as the read side of an
// asynchronous copy. Group-level accesses carry no instruction handle.
func (d *Detector) GroupMemoryLoad(mem device.Memory, wg device.WorkGroup, addr, size uint64) {
	d.engine.GroupMemoryLoad(mem, wg, addr, size)
}

// MemoryStore records a store of len(data) == size bytes at addr by a
// work-item. It must run before the store commits.
func (d *Detector) MemoryStore(mem device.Memory, wi device.WorkItem, addr, size uint64, data []byte) {
	d.engine.MemoryStore(mem, wi, addr, size, data)
}

// GroupMemoryStore records a group-wide store. It must run before the
// store commits.
func (d *Detector) GroupMemoryStore(mem device.Memory, wg device.WorkGroup, addr, size uint64, data []byte) {
	d.engine.GroupMemoryStore(mem, wg, addr, size, data)
}

// MemoryAtomic records an atomic read-modify-write by a work-item. The
// operation kind is informational only.
func (d *Detector) MemoryAtomic(mem device.Memory, wi device.WorkItem, op device.AtomicOp, addr, size uint64) {
	d.engine.MemoryAtomic(mem, wi, op, addr, size)
}

// WorkGroupBarrier records a barrier executed by a work-group with the
// given fence flags.
func (d *Detector) WorkGroupBarrier(wg device.WorkGroup, flags device.BarrierFlags) {
	d.engine.WorkGroupBarrier(wg, flags)
}
