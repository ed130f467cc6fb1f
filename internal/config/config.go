// Package config holds the engine configuration and its environment
// variable overrides.
package config

import (
	"fmt"
	"strconv"
	"strings"

	apperrors "github.com/agbru/ctwide/internal/errors"
)

// EnvPrefix is prepended to every environment variable the engine reads.
const EnvPrefix = "CTWIDE_"

// EngineConfig aggregates the tunables of the allocator and batch layers.
type EngineConfig struct {
	// MemoryLimit caps the bytes the heap allocator may hand out.
	// Zero means unlimited.
	MemoryLimit uint64
	// LockPages asks the allocator to mlock secret buffers where supported.
	LockPages bool
	// ScratchPooling enables the size-class scratch pools used by
	// multiplication. When false every scratch buffer is freshly allocated.
	ScratchPooling bool
	// LogLevel is a zerolog level name ("debug", "info", ...).
	LogLevel string
	// MaxConcurrency bounds the number of concurrent batch jobs.
	// Zero selects a value from the CPU count.
	MaxConcurrency int
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() EngineConfig {
	return EngineConfig{
		ScratchPooling: true,
		LogLevel:       "info",
	}
}

// Load returns DefaultConfig with environment overrides and adaptive
// defaults applied, then validates the result.
func Load() (EngineConfig, error) {
	cfg := DefaultConfig()
	applyEnvOverrides(&cfg)
	cfg = ApplyAdaptiveDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return EngineConfig{}, err
	}
	return cfg, nil
}

var validLogLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true,
	"error": true, "fatal": true, "panic": true, "disabled": true,
}

// Validate checks the semantic consistency of the configuration.
func (c EngineConfig) Validate() error {
	if c.MaxConcurrency < 0 {
		return apperrors.NewConfigError("max concurrency must be non-negative, got %d", c.MaxConcurrency)
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		return apperrors.NewConfigError("unknown log level %q", c.LogLevel)
	}
	return nil
}

// ParseMemoryLimit parses a human-readable size such as "512MiB", "2GB" or
// "4096". Binary (KiB, MiB, GiB) and decimal (KB, MB, GB) suffixes are
// accepted. An empty string yields 0.
func ParseMemoryLimit(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	units := []struct {
		suffix string
		mult   uint64
	}{
		{"KiB", 1 << 10}, {"MiB", 1 << 20}, {"GiB", 1 << 30},
		{"KB", 1000}, {"MB", 1000 * 1000}, {"GB", 1000 * 1000 * 1000},
		{"B", 1},
	}
	mult := uint64(1)
	num := s
	for _, u := range units {
		if strings.HasSuffix(s, u.suffix) {
			mult = u.mult
			num = strings.TrimSpace(strings.TrimSuffix(s, u.suffix))
			break
		}
	}
	v, err := strconv.ParseUint(num, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid memory limit %q: %w", s, err)
	}
	if v != 0 && v > ^uint64(0)/mult {
		return 0, fmt.Errorf("memory limit %q overflows uint64", s)
	}
	return v * mult, nil
}
