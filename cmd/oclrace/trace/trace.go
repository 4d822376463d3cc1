// Package trace implements the YAML kernel-trace format replayed by the
// oclrace tool.
//
// A trace records one kernel invocation: its dimensions, the buffers it
// uses, and the ordered memory and barrier events the simulator observed.
// Replaying a trace drives the same events through the race detector and
// reports the races it finds.
package trace

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"

	"github.com/kolkov/oclrace/device"
	"github.com/kolkov/oclrace/internal/race/simdev"
	"github.com/kolkov/oclrace/race"
)

// FormatVersion is the newest trace format this package can replay.
// Traces declare their format with a semver "version" field; anything
// with a different major version or newer than FormatVersion is rejected.
const FormatVersion = "v1.0.0"

// Trace format errors.
var (
	// ErrBadVersion marks a version field that is not valid semver.
	ErrBadVersion = errors.New("trace: version is not valid semver")

	// ErrUnsupportedVersion marks a version this package cannot replay.
	ErrUnsupportedVersion = errors.New("trace: unsupported format version")
)

// File is a parsed kernel trace.
type File struct {
	// Version is the semver format version, e.g. "v1.0.0".
	Version string `yaml:"version"`

	// Kernel describes the invocation being traced.
	Kernel Kernel `yaml:"kernel"`

	// Buffers lists the allocations, referenced by index from events.
	Buffers []Buffer `yaml:"buffers"`

	// Events is the ordered event stream.
	Events []Event `yaml:"events"`
}

// Kernel describes the traced invocation. Omitted size components
// default to 1.
type Kernel struct {
	Name       string `yaml:"name"`
	GlobalSize []int  `yaml:"global_size"`
	LocalSize  []int  `yaml:"local_size"`
}

// Buffer describes one allocation.
type Buffer struct {
	// Space is "global", "constant" or "local".
	Space string `yaml:"space"`

	// Group selects the owning work-group for local buffers.
	Group int `yaml:"group,omitempty"`

	// Size is the allocation size in bytes.
	Size uint64 `yaml:"size"`

	// Init optionally pre-fills the buffer (host-side, not an event).
	Init []byte `yaml:"init,omitempty"`
}

// Event is one entry of the event stream. Op selects the kind; the other
// fields apply per kind.
type Event struct {
	// Op is "load", "store", "group-load", "group-store", "atomic" or
	// "barrier".
	Op string `yaml:"op"`

	// Item is the linear global index of the issuing work-item
	// (load/store/atomic).
	Item int `yaml:"item,omitempty"`

	// Group is the linear group index (group-load/group-store/barrier).
	Group int `yaml:"group,omitempty"`

	// Buffer indexes into File.Buffers.
	Buffer int `yaml:"buffer,omitempty"`

	// Offset is the byte offset within the buffer.
	Offset uint64 `yaml:"offset,omitempty"`

	// Size is the access width for loads and atomics; stores take it
	// from len(Data).
	Size uint64 `yaml:"size,omitempty"`

	// Data carries the bytes a store writes.
	Data []byte `yaml:"data,omitempty"`

	// Atomic names the atomic operation ("add", "cmpxchg", ...).
	Atomic string `yaml:"atomic,omitempty"`

	// Fence lists barrier fences: "local" and/or "global".
	Fence []string `yaml:"fence,omitempty"`

	// Where optionally attributes the access to an instruction, shown
	// verbatim in race reports.
	Where string `yaml:"where,omitempty"`
}

// Load reads and parses a trace file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("trace: %w", err)
	}
	return Parse(data)
}

// Parse decodes a trace from YAML and validates it.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("trace: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks the format version and internal consistency.
func (f *File) Validate() error {
	if !semver.IsValid(f.Version) {
		return fmt.Errorf("%w: %q", ErrBadVersion, f.Version)
	}
	if semver.Major(f.Version) != semver.Major(FormatVersion) ||
		semver.Compare(f.Version, FormatVersion) > 0 {
		return fmt.Errorf("%w: %s (supported: %s)", ErrUnsupportedVersion, f.Version, FormatVersion)
	}

	if f.Kernel.Name == "" {
		return errors.New("trace: kernel has no name")
	}
	for i, b := range f.Buffers {
		if _, err := spaceOf(b.Space); err != nil {
			return fmt.Errorf("trace: buffer %d: %w", i, err)
		}
		if b.Size == 0 {
			return fmt.Errorf("trace: buffer %d has zero size", i)
		}
		if uint64(len(b.Init)) > b.Size {
			return fmt.Errorf("trace: buffer %d: init larger than buffer", i)
		}
	}
	for i, e := range f.Events {
		if err := f.validateEvent(e); err != nil {
			return fmt.Errorf("trace: event %d: %w", i, err)
		}
	}
	return nil
}

func (f *File) validateEvent(e Event) error {
	switch e.Op {
	case "load", "store", "atomic", "group-load", "group-store":
		if e.Buffer < 0 || e.Buffer >= len(f.Buffers) {
			return fmt.Errorf("buffer %d out of range", e.Buffer)
		}
		b := f.Buffers[e.Buffer]
		size := e.Size
		if e.Op == "store" || e.Op == "group-store" {
			if len(e.Data) == 0 {
				return errors.New("store without data")
			}
			size = uint64(len(e.Data))
		} else if size == 0 {
			return errors.New("access without size")
		}
		if e.Offset+size > b.Size {
			return fmt.Errorf("access [%d,%d) beyond buffer size %d", e.Offset, e.Offset+size, b.Size)
		}
		if e.Op == "atomic" {
			if _, err := atomicOf(e.Atomic); err != nil {
				return err
			}
		}
	case "barrier":
		if len(e.Fence) == 0 {
			return errors.New("barrier without fences")
		}
		if _, err := fencesOf(e.Fence); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown op %q", e.Op)
	}
	return nil
}

func spaceOf(name string) (device.AddressSpace, error) {
	switch name {
	case "global":
		return device.AddrSpaceGlobal, nil
	case "constant":
		return device.AddrSpaceConstant, nil
	case "local":
		return device.AddrSpaceLocal, nil
	default:
		return 0, fmt.Errorf("unknown address space %q", name)
	}
}

var atomicOps = map[string]device.AtomicOp{
	"add":     device.AtomicAdd,
	"and":     device.AtomicAnd,
	"cmpxchg": device.AtomicCmpXchg,
	"dec":     device.AtomicDec,
	"inc":     device.AtomicInc,
	"max":     device.AtomicMax,
	"min":     device.AtomicMin,
	"or":      device.AtomicOr,
	"sub":     device.AtomicSub,
	"swap":    device.AtomicSwap,
	"xchg":    device.AtomicXchg,
	"xor":     device.AtomicXor,
}

func atomicOf(name string) (device.AtomicOp, error) {
	op, ok := atomicOps[name]
	if !ok {
		return 0, fmt.Errorf("unknown atomic op %q", name)
	}
	return op, nil
}

func fencesOf(names []string) (device.BarrierFlags, error) {
	var flags device.BarrierFlags
	for _, n := range names {
		switch n {
		case "local":
			flags |= device.LocalMemFence
		case "global":
			flags |= device.GlobalMemFence
		default:
			return 0, fmt.Errorf("unknown fence %q", n)
		}
	}
	return flags, nil
}

func size3Of(dims []int) device.Size3 {
	s := device.Size3{X: 1, Y: 1, Z: 1}
	if len(dims) > 0 {
		s.X = dims[0]
	}
	if len(dims) > 1 {
		s.Y = dims[1]
	}
	if len(dims) > 2 {
		s.Z = dims[2]
	}
	return s
}

// Replay drives the trace's event stream through a fresh detector and
// returns the number of races reported. Stores fire the detector hook
// before committing their bytes, preserving the ordering the
// uniform-write filter depends on.
func (f *File) Replay(cfg race.Config) (int, error) {
	kernel, err := simdev.NewKernel(f.Kernel.Name, size3Of(f.Kernel.GlobalSize), size3Of(f.Kernel.LocalSize))
	if err != nil {
		return 0, fmt.Errorf("trace: %w", err)
	}
	items, groups := kernel.Items()

	global := simdev.NewMemory(device.AddrSpaceGlobal)
	constant := simdev.NewMemory(device.AddrSpaceConstant)
	det := race.NewWithConfig(global, cfg)

	det.KernelBegin(kernel)

	// Resolve buffers to (arena, base address) and fire allocation
	// events. Host-side initialization commits directly, without events.
	type binding struct {
		mem  *simdev.Memory
		base uint64
	}
	bindings := make([]binding, len(f.Buffers))
	for i, b := range f.Buffers {
		space, _ := spaceOf(b.Space)
		var mem *simdev.Memory
		switch space {
		case device.AddrSpaceGlobal:
			mem = global
		case device.AddrSpaceConstant:
			mem = constant
		case device.AddrSpaceLocal:
			if b.Group < 0 || b.Group >= len(groups) {
				return 0, fmt.Errorf("trace: buffer %d: group %d out of range", i, b.Group)
			}
			mem = groups[b.Group].Local()
		}
		base := mem.Alloc(b.Size)
		det.MemoryAllocated(mem, base, b.Size)
		if len(b.Init) > 0 {
			mem.Write(base, b.Init)
		}
		bindings[i] = binding{mem, base}
	}

	for i, e := range f.Events {
		if e.Op == "barrier" {
			if e.Group < 0 || e.Group >= len(groups) {
				return 0, fmt.Errorf("trace: event %d: group %d out of range", i, e.Group)
			}
			flags, _ := fencesOf(e.Fence)
			det.WorkGroupBarrier(groups[e.Group], flags)
			continue
		}

		b := bindings[e.Buffer]
		addr := b.base + e.Offset

		switch e.Op {
		case "load", "store", "atomic":
			if e.Item < 0 || e.Item >= len(items) {
				return 0, fmt.Errorf("trace: event %d: item %d out of range", i, e.Item)
			}
			wi := items[e.Item]
			if e.Where != "" {
				wi.SetInstruction(simdev.Instr(e.Where))
			}
			switch e.Op {
			case "load":
				det.MemoryLoad(b.mem, wi, addr, e.Size)
			case "store":
				det.MemoryStore(b.mem, wi, addr, uint64(len(e.Data)), e.Data)
				b.mem.Write(addr, e.Data)
			case "atomic":
				op, _ := atomicOf(e.Atomic)
				det.MemoryAtomic(b.mem, wi, op, addr, e.Size)
			}
		case "group-load", "group-store":
			if e.Group < 0 || e.Group >= len(groups) {
				return 0, fmt.Errorf("trace: event %d: group %d out of range", i, e.Group)
			}
			wg := groups[e.Group]
			if e.Op == "group-load" {
				det.GroupMemoryLoad(b.mem, wg, addr, e.Size)
			} else {
				det.GroupMemoryStore(b.mem, wg, addr, uint64(len(e.Data)), e.Data)
				b.mem.Write(addr, e.Data)
			}
		}
	}

	det.KernelEnd(kernel)
	return det.Races(), nil
}
