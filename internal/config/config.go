// Package config resolves Arbor's environment-driven configuration: an
// env var, then a home-dir fallback.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Config holds the environment-resolved settings cmd/arbor needs to wire
// its repositories and default a freshly-ingested project.
type Config struct {
	DBPath            string
	ProjectSeed       int64
	DefaultSlotSeconds int
	Debug             bool
}

// Load resolves Config from the environment, applying an
// env-var-then-fallback chain for the database path.
func Load() (Config, error) {
	cfg := Config{ProjectSeed: 0, DefaultSlotSeconds: 3600}

	dbPath := os.Getenv("ARBOR_DB")
	if dbPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Config{}, fmt.Errorf("finding home directory: %w", err)
		}
		dbPath = filepath.Join(home, ".arbor", "arbor.db")
	}
	cfg.DBPath = dbPath

	if v := os.Getenv("ARBOR_PROJECT_SEED"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("parsing ARBOR_PROJECT_SEED: %w", err)
		}
		cfg.ProjectSeed = n
	}

	if v := os.Getenv("ARBOR_DEFAULT_SLOT_SECONDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("parsing ARBOR_DEFAULT_SLOT_SECONDS: invalid value %q", v)
		}
		cfg.DefaultSlotSeconds = n
	}

	if v := os.Getenv("ARBOR_DEBUG"); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			cfg.Debug = b
		}
	}

	return cfg, nil
}
