// Package batch runs independent wide-integer computations concurrently.
//
// Each Job receives its own memory.Arena, so every temporary it allocates
// is erased when the job ends, whatever its outcome. Jobs are bounded by
// the configured concurrency, traced with OpenTelemetry, counted in
// Prometheus, and logged by name and size only.
package batch
