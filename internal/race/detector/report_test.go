package detector

import (
	"strings"
	"testing"

	"github.com/kolkov/oclrace/device"
	"github.com/kolkov/oclrace/internal/race/shadow"
	"github.com/kolkov/oclrace/internal/race/simdev"
)

func TestRaceTypeString(t *testing.T) {
	if got := ReadWriteRace.String(); got != "Read-write" {
		t.Errorf("ReadWriteRace.String() = %q", got)
	}
	if got := WriteWriteRace.String(); got != "Write-write" {
		t.Errorf("WriteWriteRace.String() = %q", got)
	}
}

// TestReportFormat_WorkItemCoordinates verifies the 3-D decode of a
// linear work-item index in a 2-D kernel: global size (4,2,1), local
// size (2,2,1), linear index 5 → Global(1,1,0), Local(1,1,0),
// Group(0,0,0).
func TestReportFormat_WorkItemCoordinates(t *testing.T) {
	r := &Report{
		Type:    WriteWriteRace,
		Space:   device.AddrSpaceGlobal,
		Address: 0x100000004,
		Kernel:  "transpose",
		First: Entity{
			WorkItem:    5,
			WorkGroup:   0,
			Instruction: simdev.Instr("store float %v, float addrspace(1)* %dst"),
		},
		Second: Entity{
			WorkItem:  2,
			WorkGroup: 1,
		},
		GlobalSize: device.Size3{X: 4, Y: 2, Z: 1},
		LocalSize:  device.Size3{X: 2, Y: 2, Z: 1},
		NumGroups:  device.Size3{X: 2, Y: 1, Z: 1},
	}

	out := r.String()

	for _, want := range []string{
		"Write-write data race at global memory address 0x100000004",
		"Kernel: transpose",
		"First entity:  Global(1,1,0) Local(1,1,0) Group(0,0,0)",
		"store float %v, float addrspace(1)* %dst",
		"Second entity: Global(2,0,0) Local(0,0,0) Group(1,0,0)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}

// TestReportFormat_GroupEntity verifies group-only coordinates decode
// against the group count.
func TestReportFormat_GroupEntity(t *testing.T) {
	r := &Report{
		Type:    ReadWriteRace,
		Space:   device.AddrSpaceLocal,
		Address: 0x100000000,
		Kernel:  "prefetch",
		First: Entity{
			WorkItem:  shadow.NoIndex,
			WorkGroup: 3,
		},
		Second: Entity{
			WorkItem:  shadow.NoIndex,
			WorkGroup: shadow.NoIndex,
		},
		GlobalSize: device.Size3{X: 8, Y: 2, Z: 1},
		LocalSize:  device.Size3{X: 4, Y: 1, Z: 1},
		NumGroups:  device.Size3{X: 2, Y: 2, Z: 1},
	}

	out := r.String()

	if !strings.Contains(out, "Read-write data race at local memory address 0x100000000") {
		t.Errorf("missing header:\n%s", out)
	}
	// Group 3 in a (2,2,1) group grid is (1,1,0).
	if !strings.Contains(out, "First entity:  Group(1,1,0)") {
		t.Errorf("missing group coordinates:\n%s", out)
	}
	if !strings.Contains(out, "Second entity: (unknown)") {
		t.Errorf("missing unknown entity:\n%s", out)
	}
}

// TestRaceOutput_IncludesInstructions verifies both sides' instruction
// handles appear in emitted reports.
func TestRaceOutput_IncludesInstructions(t *testing.T) {
	f := defaultFixture(t)

	f.items[0].SetInstruction(simdev.Instr("store i32 1, i32 addrspace(1)* %a"))
	f.det.MemoryStore(f.global, f.items[0], f.buf, 1, []byte{1})
	f.global.Write(f.buf, []byte{1})

	f.items[1].SetInstruction(simdev.Instr("store i32 2, i32 addrspace(1)* %a"))
	f.det.MemoryStore(f.global, f.items[1], f.buf, 1, []byte{2})
	f.global.Write(f.buf, []byte{2})

	out := f.out.String()
	if !strings.Contains(out, "store i32 2, i32 addrspace(1)* %a") {
		t.Errorf("first entity instruction missing:\n%s", out)
	}
	if !strings.Contains(out, "store i32 1, i32 addrspace(1)* %a") {
		t.Errorf("second entity instruction missing:\n%s", out)
	}
}
