// Package config provides configuration loading for omcc.
//
// Configuration is loaded from a YAML file and overridden by environment
// variables. Only enforcement tuning, transcript discovery, logging, and
// observability settings live here; the enforcement state itself is persisted
// per working directory by the autopilot store.
package config

import (
	"errors"
	"fmt"
)

// Config holds the complete omcc configuration.
type Config struct {
	Autopilot     AutopilotConfig     `koanf:"autopilot"`
	Transcripts   TranscriptsConfig   `koanf:"transcripts"`
	Logging       LoggingConfig       `koanf:"logging"`
	Observability ObservabilityConfig `koanf:"observability"`
}

// AutopilotConfig holds enforcement tuning.
type AutopilotConfig struct {
	// MaxIterations is the default safety ceiling for new runs. A run forced
	// past this many continuations is failed rather than continued.
	MaxIterations int `koanf:"max_iterations"`

	// StateDirName is the directory created inside the working directory to
	// hold the enforcement record.
	StateDirName string `koanf:"state_dir_name"`

	// ArchiveOnCancel keeps a copy of the record next to the state file when
	// a run is cancelled.
	ArchiveOnCancel bool `koanf:"archive_on_cancel"`
}

// TranscriptsConfig controls where session transcripts are searched for.
type TranscriptsConfig struct {
	// Roots are additional transcript root directories checked after the
	// built-in Claude Code locations.
	Roots []string `koanf:"roots"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// ObservabilityConfig holds OpenTelemetry export settings.
type ObservabilityConfig struct {
	Enabled        bool   `koanf:"enabled"`
	Endpoint       string `koanf:"endpoint"`
	Protocol       string `koanf:"protocol"`
	Insecure       bool   `koanf:"insecure"`
	ServiceName    string `koanf:"service_name"`
	ServiceVersion string `koanf:"service_version"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Autopilot.MaxIterations < 1 {
		return fmt.Errorf("autopilot max_iterations must be >= 1, got %d", c.Autopilot.MaxIterations)
	}
	if c.Autopilot.StateDirName == "" {
		return errors.New("autopilot state_dir_name cannot be empty")
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("logging format must be 'json' or 'console', got %q", c.Logging.Format)
	}
	if c.Observability.Enabled && c.Observability.ServiceName == "" {
		return errors.New("observability service_name required when enabled")
	}
	return nil
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Autopilot.MaxIterations == 0 {
		cfg.Autopilot.MaxIterations = 50
	}
	if cfg.Autopilot.StateDirName == "" {
		cfg.Autopilot.StateDirName = ".omcc"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}
	if cfg.Observability.Endpoint == "" {
		cfg.Observability.Endpoint = "localhost:4317"
	}
	if cfg.Observability.ServiceName == "" {
		cfg.Observability.ServiceName = "omcc"
	}
	if cfg.Observability.ServiceVersion == "" {
		cfg.Observability.ServiceVersion = "0.1.0"
	}
}
