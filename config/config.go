// Package config provides configuration loading and management for the
// ontology validation and versioning engine.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the complete engine configuration.
type Config struct {
	Repo       RepoConfig       `yaml:"repo"`
	Validation ValidationConfig `yaml:"validation"`
	Cascade    CascadeConfig    `yaml:"cascade"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// RepoConfig configures the repository settings.
type RepoConfig struct {
	// Path is the repository root path (auto-detected from git if empty).
	Path string `yaml:"path"`
	// SchemaCacheDir is reserved for a future on-disk compiled-schema
	// cache; the current engine caches compiled schemas in memory only,
	// for the lifetime of one process (§9).
	SchemaCacheDir string `yaml:"schema_cache_dir"`
}

// ValidationConfig configures validator behavior.
type ValidationConfig struct {
	// StrictOrphans promotes orphaned-entity warnings to errors.
	StrictOrphans bool `yaml:"strict_orphans"`
	// SummarySinkPath is an optional append-only file each run appends one
	// JSON line to (§4.9). Empty disables the sink.
	SummarySinkPath string `yaml:"summary_sink_path"`
}

// CascadeConfig configures the cascade engine.
type CascadeConfig struct {
	// OverridesPath is relative to Repo.Path. An absolute path is not
	// treated specially: the file store joins it under Repo.Path too.
	OverridesPath string `yaml:"overrides_path"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	// Level is one of "debug", "info", "warn", "error".
	Level string `yaml:"level"`
	// Format is "text" or "json".
	Format string `yaml:"format"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Repo: RepoConfig{
			Path: "", // Auto-detect
		},
		Validation: ValidationConfig{
			StrictOrphans:   false,
			SummarySinkPath: "",
		},
		Cascade: CascadeConfig{
			OverridesPath: "VERSION_OVERRIDES.json",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Cascade.OverridesPath == "" {
		return fmt.Errorf("cascade.overrides_path is required")
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be \"text\" or \"json\", got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error, got %q", c.Logging.Level)
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file.
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for
// non-zero values).
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if other.Repo.Path != "" {
		c.Repo.Path = other.Repo.Path
	}
	if other.Repo.SchemaCacheDir != "" {
		c.Repo.SchemaCacheDir = other.Repo.SchemaCacheDir
	}

	if other.Validation.StrictOrphans {
		c.Validation.StrictOrphans = true
	}
	if other.Validation.SummarySinkPath != "" {
		c.Validation.SummarySinkPath = other.Validation.SummarySinkPath
	}

	if other.Cascade.OverridesPath != "" {
		c.Cascade.OverridesPath = other.Cascade.OverridesPath
	}

	if other.Logging.Level != "" {
		c.Logging.Level = other.Logging.Level
	}
	if other.Logging.Format != "" {
		c.Logging.Format = other.Logging.Format
	}
}
