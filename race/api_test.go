package race_test

import (
	"bytes"
	"testing"

	"github.com/kolkov/oclrace/device"
	"github.com/kolkov/oclrace/internal/race/simdev"
	"github.com/kolkov/oclrace/race"
)

// harness wires a detector facade to a 1-D kernel with one global buffer.
type harness struct {
	global *simdev.Memory
	kernel *simdev.Kernel
	items  []*simdev.WorkItem
	det    *race.Detector
	buf    uint64
}

func newHarness(t *testing.T, cfg race.Config, fromEnv bool) *harness {
	t.Helper()

	h := &harness{global: simdev.NewMemory(device.AddrSpaceGlobal)}
	kernel, err := simdev.NewLinearKernel("vecadd", 4, 2)
	if err != nil {
		t.Fatalf("NewLinearKernel: %v", err)
	}
	h.kernel = kernel
	h.items, _ = kernel.Items()

	if fromEnv {
		h.det = race.New(h.global)
	} else {
		h.det = race.NewWithConfig(h.global, cfg)
	}

	h.det.KernelBegin(kernel)
	h.buf = h.global.Alloc(4)
	h.det.MemoryAllocated(h.global, h.buf, 4)
	return h
}

// storeSame has two different work-items store the value the buffer
// already holds: racy only when the uniform-write filter is off.
func (h *harness) storeSame() {
	h.global.Write(h.buf, []byte{7})
	h.det.MemoryStore(h.global, h.items[0], h.buf, 1, []byte{7})
	h.det.MemoryStore(h.global, h.items[1], h.buf, 1, []byte{7})
}

func TestNew_DefaultFiltersUniformWrites(t *testing.T) {
	t.Setenv("OCLGRIND_UNIFORM_WRITES", "")

	h := newHarness(t, race.Config{}, true)
	h.storeSame()

	if got := h.det.Races(); got != 0 {
		t.Errorf("races = %d, want 0 (uniform writes filtered by default)", got)
	}
}

func TestNew_EnvDisablesFilter(t *testing.T) {
	t.Setenv("OCLGRIND_UNIFORM_WRITES", "1")

	h := newHarness(t, race.Config{}, true)
	h.storeSame()

	if got := h.det.Races(); got != 1 {
		t.Errorf("races = %d, want 1 (OCLGRIND_UNIFORM_WRITES set)", got)
	}
}

func TestNewWithConfig_OutputWriter(t *testing.T) {
	var out bytes.Buffer
	h := newHarness(t, race.Config{Output: &out}, false)

	h.det.MemoryStore(h.global, h.items[0], h.buf, 1, []byte{1})
	h.global.Write(h.buf, []byte{1})
	h.det.MemoryStore(h.global, h.items[1], h.buf, 1, []byte{2})
	h.global.Write(h.buf, []byte{2})

	if h.det.Races() != 1 {
		t.Fatalf("races = %d, want 1", h.det.Races())
	}
	if out.Len() == 0 {
		t.Error("race report not written to configured output")
	}
}

func TestGetInfo(t *testing.T) {
	info := race.GetInfo()
	if info.Version != race.Version {
		t.Errorf("Info.Version = %q, want %q", info.Version, race.Version)
	}
	if info.Algorithm == "" {
		t.Error("Info.Algorithm is empty")
	}
}
