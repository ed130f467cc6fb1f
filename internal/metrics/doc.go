// Package metrics exposes Prometheus instrumentation for the engine:
// an Allocator decorator counting allocations and erased bytes, batch job
// counters, and a collector reporting runtime and allocator memory.
package metrics
