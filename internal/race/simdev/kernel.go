package simdev

import (
	"fmt"

	"github.com/kolkov/oclrace/device"
)

// Instr is a source-level instruction handle: a plain string rendered
// verbatim in race reports.
type Instr string

// String implements device.Instruction.
func (i Instr) String() string {
	return string(i)
}

// Kernel is a fixed-dimension kernel invocation implementing
// device.KernelInvocation.
type Kernel struct {
	name       string
	globalSize device.Size3
	localSize  device.Size3
}

// NewKernel creates an invocation with the given NDRange dimensions.
// Local extents must evenly divide global extents in every dimension.
func NewKernel(name string, globalSize, localSize device.Size3) (*Kernel, error) {
	for _, d := range [][2]int{
		{globalSize.X, localSize.X},
		{globalSize.Y, localSize.Y},
		{globalSize.Z, localSize.Z},
	} {
		if d[1] <= 0 || d[0] <= 0 || d[0]%d[1] != 0 {
			return nil, fmt.Errorf("simdev: local size %v does not divide global size %v",
				localSize, globalSize)
		}
	}
	return &Kernel{name: name, globalSize: globalSize, localSize: localSize}, nil
}

// NewLinearKernel creates a 1-D invocation.
func NewLinearKernel(name string, globalSize, localSize int) (*Kernel, error) {
	return NewKernel(name,
		device.Size3{X: globalSize, Y: 1, Z: 1},
		device.Size3{X: localSize, Y: 1, Z: 1})
}

// Name implements device.KernelInvocation.
func (k *Kernel) Name() string { return k.name }

// GlobalSize implements device.KernelInvocation.
func (k *Kernel) GlobalSize() device.Size3 { return k.globalSize }

// LocalSize implements device.KernelInvocation.
func (k *Kernel) LocalSize() device.Size3 { return k.localSize }

// NumGroups implements device.KernelInvocation.
func (k *Kernel) NumGroups() device.Size3 {
	return device.Size3{
		X: k.globalSize.X / k.localSize.X,
		Y: k.globalSize.Y / k.localSize.Y,
		Z: k.globalSize.Z / k.localSize.Z,
	}
}

// WorkGroup is one group of the invocation, with its own local memory.
type WorkGroup struct {
	index int
	local *Memory
}

// NewWorkGroup creates a group with the given linear index and a fresh
// local memory arena.
func NewWorkGroup(index int) *WorkGroup {
	return &WorkGroup{
		index: index,
		local: NewMemory(device.AddrSpaceLocal),
	}
}

// GroupIndex implements device.WorkGroup.
func (g *WorkGroup) GroupIndex() int { return g.index }

// LocalMemory implements device.WorkGroup.
func (g *WorkGroup) LocalMemory() device.Memory { return g.local }

// Local returns the concrete local memory for allocation and commits.
func (g *WorkGroup) Local() *Memory { return g.local }

// WorkItem is one lane, implementing device.WorkItem. The current
// instruction is settable so callers can attribute each scripted access.
type WorkItem struct {
	index int
	group *WorkGroup
	instr device.Instruction
}

// NewWorkItem creates a work-item with the given linear global index,
// owned by group.
func NewWorkItem(index int, group *WorkGroup) *WorkItem {
	return &WorkItem{index: index, group: group}
}

// GlobalIndex implements device.WorkItem.
func (w *WorkItem) GlobalIndex() int { return w.index }

// WorkGroup implements device.WorkItem.
func (w *WorkItem) WorkGroup() device.WorkGroup { return w.group }

// CurrentInstruction implements device.WorkItem.
func (w *WorkItem) CurrentInstruction() device.Instruction { return w.instr }

// SetInstruction updates the instruction attributed to the work-item's
// next accesses.
func (w *WorkItem) SetInstruction(instr device.Instruction) {
	w.instr = instr
}

// Items builds the invocation's work-items grouped into work-groups,
// indexed linearly. The work-items of a group share one WorkGroup value
// (and thus one local memory).
func (k *Kernel) Items() ([]*WorkItem, []*WorkGroup) {
	groups := make([]*WorkGroup, k.NumGroups().Volume())
	for i := range groups {
		groups[i] = NewWorkGroup(i)
	}
	items := make([]*WorkItem, k.globalSize.Volume())
	for i := range items {
		items[i] = NewWorkItem(i, groups[groupIndexOf(i, k)])
	}
	return items, groups
}

// groupIndexOf maps a linear global index to its linear group index,
// x fastest-varying in both spaces.
func groupIndexOf(linear int, k *Kernel) int {
	global := device.Unflatten(linear, k.globalSize)
	group := global.Div(k.localSize)
	numGroups := k.NumGroups()
	return group.X + numGroups.X*(group.Y+numGroups.Y*group.Z)
}
