package config

import (
	"errors"
	"fmt"

	"github.com/kilianp07/drivesim/infra/runstore"
)

// LoggingConfig selects where the run history is kept. Rotation settings
// apply to the jsonl backend only.
type LoggingConfig struct {
	Backend    string `json:"backend"` // jsonl or sqlite
	Path       string `json:"path"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
	MaxAgeDays int    `json:"max_age_days"`
}

// SetDefaults picks the jsonl backend and a path matching the backend.
func (c *LoggingConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "jsonl"
	}
	if c.Path != "" {
		return
	}
	switch c.Backend {
	case "sqlite":
		c.Path = "runs.db"
	default:
		c.Path = "runs.jsonl"
	}
}

func (c LoggingConfig) Validate() error {
	switch c.Backend {
	case "jsonl", "sqlite":
	default:
		return fmt.Errorf("logging: unknown backend %q", c.Backend)
	}
	if c.Path == "" {
		return errors.New("logging: path is required")
	}
	if c.MaxSizeMB < 0 || c.MaxBackups < 0 || c.MaxAgeDays < 0 {
		return errors.New("logging: rotation limits must not be negative")
	}
	return nil
}

// StoreOptions converts the section into run store options.
func (c LoggingConfig) StoreOptions() runstore.Options {
	return runstore.Options{
		Path:       c.Path,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAgeDays: c.MaxAgeDays,
	}
}
