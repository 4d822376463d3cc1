// Package shadow implements the per-byte shadow state behind the race
// detector.
//
// Every live non-private allocation on the simulated device owns a Buffer
// of State cells, one per byte. A State records which access kinds are
// still safe at that byte (read / write / atomic) and which execution
// entity was last responsible for it. The Store maps (memory arena, buffer
// handle) pairs to their Buffers and resolves packed access addresses to a
// buffer plus byte offset.
//
// # State machine
//
// A freshly allocated or fully synchronized byte is pristine: all three
// permission bits set, no recorded entity. Accesses monotonically revoke
// permissions (a store revokes reads and writes, any non-atomic access
// revokes atomics) until a synchronization point restores them for its
// scope. The detector engine owns the transition rules; this package only
// owns the representation and the bulk operations.
//
// # Ownership
//
// Buffers are created on memoryAllocated and destroyed on
// memoryDeallocated, and are mutated only from the simulator's single
// calling thread. If the host ever runs work-items concurrently, each
// Buffer needs its own lock; the representation permits that extension but
// does not pay for it today.
package shadow
