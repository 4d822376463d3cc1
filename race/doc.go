// Package race provides the public plugin API for the kernel data-race
// detector.
//
// The detector attaches to an OpenCL-like simulated device as a passive
// observer. The simulator delivers every memory and synchronization event
// to the plugin hooks on a Detector; the detector maintains one shadow
// state per byte of every live non-private buffer and reports data races:
// conflicting accesses to the same byte by two different execution
// entities with no intervening synchronization of the right scope.
//
// # Quick start
//
//	global := ... // the device's global memory (implements device.Memory)
//	det := race.New(global)
//
//	det.KernelBegin(invocation)
//	det.MemoryAllocated(global, addr, size)
//	det.MemoryStore(global, workItem, addr, 4, data) // before committing!
//	...
//	det.KernelEnd(invocation)
//
//	if det.Races() > 0 {
//		// races were reported on the configured output
//	}
//
// # Event ordering
//
// Hooks must be invoked synchronously from the simulator's execution
// thread, and store hooks must run before the store commits: the
// uniform-write filter reads the old byte values through
// device.Memory.ReadByte to recognize redundant writes.
//
// # Configuration
//
// New reads one environment variable:
//
//	OCLGRIND_UNIFORM_WRITES   set to any non-empty value: report uniform writes too
//	                          (disables the redundant-write filter)
//
// NewWithConfig bypasses the environment and sets everything explicitly,
// including the report output writer and the stricter atomic
// resynchronization mode.
package race
