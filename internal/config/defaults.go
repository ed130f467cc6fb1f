package config

import "runtime"

// Resolution chain (highest priority first):
//   1. Environment variables (CTWIDE_MAX_CONCURRENCY, ...)
//   2. Adaptive hardware estimation (this file)
//   3. Static defaults in DefaultConfig

// ApplyAdaptiveDefaults fills fields left at their zero value with estimates
// derived from the host. User-specified values are preserved.
func ApplyAdaptiveDefaults(cfg EngineConfig) EngineConfig {
	if cfg.MaxConcurrency == 0 {
		cfg.MaxConcurrency = EstimateMaxConcurrency()
	}
	return cfg
}

// EstimateMaxConcurrency returns a batch concurrency bound for this machine.
func EstimateMaxConcurrency() int {
	numCPU := runtime.NumCPU()

	switch {
	case numCPU <= 2:
		return numCPU
	case numCPU <= 16:
		return numCPU - 1 // leave a core for the caller
	default:
		return 16
	}
}
