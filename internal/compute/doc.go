// Package compute provides the worker pool that parallelizes per-cell work.
//
// The [Executor] is deliberately dumb: it partitions an index range into
// contiguous chunks, runs them to completion on a fixed number of workers,
// and aggregates failures. All step-level semantics (double buffering,
// barriers between steps, mass accounting) live with the caller.
package compute
