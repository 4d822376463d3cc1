package device

import "testing"

func TestAddressSpaceString(t *testing.T) {
	tests := []struct {
		space AddressSpace
		want  string
	}{
		{AddrSpacePrivate, "private"},
		{AddrSpaceGlobal, "global"},
		{AddrSpaceConstant, "constant"},
		{AddrSpaceLocal, "local"},
		{AddressSpace(9), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.space.String(); got != tt.want {
			t.Errorf("AddressSpace(%d).String() = %q, want %q", tt.space, got, tt.want)
		}
	}
}

func TestAtomicOpString(t *testing.T) {
	if got := AtomicCmpXchg.String(); got != "cmpxchg" {
		t.Errorf("AtomicCmpXchg.String() = %q", got)
	}
	if got := AtomicOp(200).String(); got != "unknown" {
		t.Errorf("AtomicOp(200).String() = %q", got)
	}
}

func TestPackExtractRoundTrip(t *testing.T) {
	tests := []struct {
		buffer, offset uint64
	}{
		{1, 0},
		{1, 5},
		{42, 0xFFFFFFFF},
		{0xFFFFFFFF, 123},
	}
	for _, tt := range tests {
		addr := PackAddress(tt.buffer, tt.offset)
		if got := ExtractBuffer(addr); got != tt.buffer {
			t.Errorf("ExtractBuffer(Pack(%d,%d)) = %d", tt.buffer, tt.offset, got)
		}
		if got := ExtractOffset(addr); got != tt.offset {
			t.Errorf("ExtractOffset(Pack(%d,%d)) = %d", tt.buffer, tt.offset, got)
		}
	}
}

// TestAddressArithmetic verifies in-buffer offsets can be added directly
// to a packed base address, the pattern access events rely on.
func TestAddressArithmetic(t *testing.T) {
	base := PackAddress(7, 0)
	addr := base + 100
	if ExtractBuffer(addr) != 7 {
		t.Errorf("buffer field disturbed by offset arithmetic")
	}
	if ExtractOffset(addr) != 100 {
		t.Errorf("ExtractOffset(base+100) = %d, want 100", ExtractOffset(addr))
	}
}
