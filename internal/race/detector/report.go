package detector

import (
	"fmt"
	"io"
	"strings"

	"github.com/kolkov/oclrace/device"
	"github.com/kolkov/oclrace/internal/race/shadow"
)

// RaceType classifies a reported race.
type RaceType int

const (
	// ReadWriteRace is a conflict where one side read and the other
	// wrote. Atomic/non-atomic conflicts are reported under this type
	// regardless of direction.
	ReadWriteRace RaceType = iota
	// WriteWriteRace is a conflict between two writes.
	WriteWriteRace
)

// String returns the report label for the race type.
func (t RaceType) String() string {
	switch t {
	case ReadWriteRace:
		return "Read-write"
	case WriteWriteRace:
		return "Write-write"
	default:
		return "Unknown"
	}
}

// Entity describes one side of a race: a work-item (WorkItem set), a bare
// work-group (only WorkGroup set), or unknown (neither, possible when the
// responsible entity was forgotten by an intervening synchronization).
type Entity struct {
	// WorkItem is the linear global index, or shadow.NoIndex.
	WorkItem int

	// WorkGroup is the linear group index, or shadow.NoIndex.
	WorkGroup int

	// Instruction the entity was executing, if any.
	Instruction device.Instruction
}

// Report is a structured description of one detected data race.
type Report struct {
	// Type is the race classification.
	Type RaceType

	// Space is the address space of the racing byte.
	Space device.AddressSpace

	// Address is the packed address of the first conflicting byte.
	Address uint64

	// Kernel is the name of the running kernel.
	Kernel string

	// First is the access that completed the race (the current one).
	First Entity

	// Second is the prior conflicting access recorded in shadow state.
	Second Entity

	// Invocation dimensions captured for decoding linear indices.
	GlobalSize device.Size3
	LocalSize  device.Size3
	NumGroups  device.Size3
}

// describe renders an entity's coordinates. Work-items get Global, Local
// and Group 3-D coordinates decoded from the linear global index;
// work-groups get Group coordinates decoded against the group count.
func (r *Report) describe(e Entity) string {
	switch {
	case e.WorkItem != shadow.NoIndex:
		global := device.Unflatten(e.WorkItem, r.GlobalSize)
		local := global.Mod(r.LocalSize)
		group := global.Div(r.LocalSize)
		return fmt.Sprintf("Global%s Local%s Group%s", global, local, group)
	case e.WorkGroup != shadow.NoIndex:
		return "Group" + device.Unflatten(e.WorkGroup, r.NumGroups).String()
	default:
		return "(unknown)"
	}
}

// Format writes the report in the device's diagnostic wording:
//
//	Read-write data race at global memory address 0x100000000
//		Kernel: vecadd
//
//		First entity:  Global(1,0,0) Local(1,0,0) Group(0,0,0)
//			%1 = load i32, i32* %a
//
//		Second entity: Global(0,0,0) Local(0,0,0) Group(0,0,0)
//			store i32 %v, i32* %a
func (r *Report) Format(w io.Writer) {
	fmt.Fprintf(w, "%s data race at %s memory address 0x%x\n", r.Type, r.Space, r.Address)
	fmt.Fprintf(w, "\tKernel: %s\n", r.Kernel)
	fmt.Fprintf(w, "\n")

	fmt.Fprintf(w, "\tFirst entity:  %s\n", r.describe(r.First))
	if r.First.Instruction != nil {
		fmt.Fprintf(w, "\t\t%s\n", r.First.Instruction)
	}
	fmt.Fprintf(w, "\n")

	fmt.Fprintf(w, "\tSecond entity: %s\n", r.describe(r.Second))
	if r.Second.Instruction != nil {
		fmt.Fprintf(w, "\t\t%s\n", r.Second.Instruction)
	}
}

// String returns the formatted report.
func (r *Report) String() string {
	var buf strings.Builder
	r.Format(&buf)
	return buf.String()
}

// logRace builds a report for the current access against the byte's
// recorded state and emits it to the configured output.
func (d *Detector) logRace(kind RaceType, space device.AddressSpace, addr uint64,
	wi device.WorkItem, wg device.WorkGroup, s *shadow.State) {
	first := Entity{WorkItem: shadow.NoIndex, WorkGroup: shadow.NoIndex}
	if wi != nil {
		first.WorkItem = wi.GlobalIndex()
		first.Instruction = wi.CurrentInstruction()
	}
	if wg != nil {
		first.WorkGroup = wg.GroupIndex()
	}

	second := Entity{
		WorkItem:    s.WorkItem,
		WorkGroup:   s.WorkGroup,
		Instruction: s.Instruction,
	}
	if !s.WasWorkItem {
		// The recorded work-item, if any, was forgotten by a
		// synchronization; attribute the access to the group.
		second.WorkItem = shadow.NoIndex
	}

	report := &Report{
		Type:       kind,
		Space:      space,
		Address:    addr,
		Kernel:     d.invocation.Name(),
		First:      first,
		Second:     second,
		GlobalSize: d.invocation.GlobalSize(),
		LocalSize:  d.invocation.LocalSize(),
		NumGroups:  d.invocation.NumGroups(),
	}

	d.races++
	report.Format(d.cfg.Output)
}
