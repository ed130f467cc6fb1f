// This file contains environment variable utilities for configuration override.

package config

import (
	"os"
	"strconv"
	"strings"
)

// envOverride declares a single environment variable override.
// Each entry maps an env key (without the CTWIDE_ prefix) to a function that
// applies the env value. Unparseable values leave the field untouched.
type envOverride struct {
	envKey string
	apply  func(*EngineConfig, string)
}

// envOverrides is the declarative table of all environment variable overrides.
var envOverrides = []envOverride{
	{"MEMORY_LIMIT", func(c *EngineConfig, v string) {
		if parsed, err := ParseMemoryLimit(v); err == nil {
			c.MemoryLimit = parsed
		}
	}},
	{"MAX_CONCURRENCY", func(c *EngineConfig, v string) {
		if parsed, err := strconv.Atoi(v); err == nil {
			c.MaxConcurrency = parsed
		}
	}},
	{"LOG_LEVEL", func(c *EngineConfig, v string) {
		c.LogLevel = strings.ToLower(v)
	}},
	{"LOCK_PAGES", func(c *EngineConfig, v string) {
		c.LockPages = parseBoolEnv(v, c.LockPages)
	}},
	{"SCRATCH_POOLING", func(c *EngineConfig, v string) {
		c.ScratchPooling = parseBoolEnv(v, c.ScratchPooling)
	}},
}

// parseBoolEnv parses a boolean environment variable value.
// Accepts "true", "1", "yes" as true; "false", "0", "no" as false (case-insensitive).
// Returns defaultVal if the value is not recognized.
func parseBoolEnv(val string, defaultVal bool) bool {
	switch strings.ToLower(val) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	}
	return defaultVal
}

// applyEnvOverrides applies every non-empty CTWIDE_* variable to config.
//
// Supported environment variables (all prefixed with CTWIDE_):
//   - MEMORY_LIMIT, MAX_CONCURRENCY, LOG_LEVEL, LOCK_PAGES, SCRATCH_POOLING
func applyEnvOverrides(config *EngineConfig) {
	for _, o := range envOverrides {
		if val := os.Getenv(EnvPrefix + o.envKey); val != "" {
			o.apply(config, val)
		}
	}
}
