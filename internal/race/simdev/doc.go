// Package simdev provides a minimal in-memory implementation of the
// device contracts, sufficient to drive the race detector from tests, the
// examples, and the trace replay tool.
//
// It is not a kernel interpreter: callers script the event stream
// themselves (which work-item touches which bytes, where the barriers
// fall) and simdev supplies the memories, kernels, work-groups and
// work-items those events reference.
package simdev
