// Package detector implements the race-detection engine for simulated
// kernel execution.
//
// The engine consumes the memory and synchronization events emitted by the
// simulator — loads, stores, atomics, barriers, kernel boundaries and the
// allocation lifecycle — and maintains a per-byte shadow state for every
// live non-private buffer (package shadow). Two accesses to the same byte
// race when they come from different execution entities, at least one of
// them revokes the other's permission, and no synchronization of the
// right scope intervened.
//
// # Conflict rules
//
// Per byte, a store revokes both read and write permission; a load revokes
// write permission; any non-atomic access revokes atomic permission.
// Atomics revoke read and write permission but leave atomic permission
// intact, so atomics from different work-items never race with each other.
// A responsible entity is recorded only when the incoming access is at
// least as strong as the recorded one: a store always takes over, a load
// only takes over a byte that still permitted writes.
//
// # Synchronization
//
// A barrier with a local fence fully resets the group's local memory; a
// barrier with a global fence resets only per-work-item tracking on global
// memory (the barrier orders accesses within the group, not across
// groups). The end of a kernel fully resets global memory. A full reset
// restores every byte to pristine.
//
// The engine is invoked synchronously from the simulator's single thread
// and performs no locking of its own.
package detector
