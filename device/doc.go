// Package device defines the contracts between the race detector and the
// host simulator.
//
// The detector is a passive plugin: it never executes kernel code and never
// owns simulated memory. Everything it needs from the host is expressed here
// as small interfaces (Memory, WorkItem, WorkGroup, KernelInvocation) plus a
// handful of shared value types (AddressSpace, BarrierFlags, AtomicOp,
// Size3) and the packed-address codec.
//
// # Packed addresses
//
// The simulator encodes every access address as a 64-bit value with the
// owning buffer's handle in the high 32 bits and the byte offset within
// that buffer in the low 32 bits. ExtractBuffer and ExtractOffset split an
// address back into those fields; PackAddress builds one. Address 0 is
// never a valid buffer handle.
//
// # Memory identity
//
// A Memory interface value doubles as the stable identity of the arena it
// represents: the global memory is one value, each work-group's local
// memory another. Implementations must therefore be comparable (in
// practice, a pointer to a concrete type), and must keep the same value for
// the lifetime of the arena.
package device
