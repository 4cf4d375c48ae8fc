// Package config loads blini settings from YAML with environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// DefaultPath is read when no --config flag is given.
const DefaultPath = "blini.yaml"

// Config holds all blini settings.
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Generator GeneratorConfig `yaml:"generator"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Images    ImagesConfig    `yaml:"images"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// DatabaseConfig selects the sqlite driver and file.
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // sqlite3 (cgo) or sqlite (pure Go)
	Path   string `yaml:"path"`
}

// GeneratorConfig configures text generation.
type GeneratorConfig struct {
	MaxChain int `yaml:"max_chain"`
}

// IngestConfig configures bulk learning and background persistence.
type IngestConfig struct {
	Workers       int    `yaml:"workers"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval string `yaml:"flush_interval"`
}

// ImagesConfig configures which images the registry accepts.
type ImagesConfig struct {
	MaxAspectRatio float64  `yaml:"max_aspect_ratio"`
	Extensions     []string `yaml:"extensions"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver: "sqlite3",
			Path:   "blini.db",
		},
		Generator: GeneratorConfig{
			MaxChain: 100,
		},
		Ingest: IngestConfig{
			Workers:       4,
			BatchSize:     50,
			FlushInterval: "100ms",
		},
		Images: ImagesConfig{
			MaxAspectRatio: 2.5,
			Extensions:     []string{"gif", "jpg", "jpeg", "png"},
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults. Environment overrides apply in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if path := os.Getenv("BLINI_DB"); path != "" {
		c.Database.Path = path
	}
	if level := os.Getenv("BLINI_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

// GetFlushInterval returns the ingest flush interval as a duration.
func (c *Config) GetFlushInterval() time.Duration {
	d, err := time.ParseDuration(c.Ingest.FlushInterval)
	if err != nil {
		return 100 * time.Millisecond
	}
	return d
}

// GetLogLevel returns the configured zap level, or info if it does not parse.
func (c *Config) GetLogLevel() zapcore.Level {
	lvl, err := zapcore.ParseLevel(c.Logging.Level)
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

// ValidDrivers lists the supported database drivers.
var ValidDrivers = []string{"sqlite3", "sqlite"}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validDriver := false
	for _, d := range ValidDrivers {
		if c.Database.Driver == d {
			validDriver = true
			break
		}
	}
	if !validDriver {
		return fmt.Errorf("invalid database driver: %s (valid: %v)", c.Database.Driver, ValidDrivers)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database path not configured")
	}
	if c.Generator.MaxChain < 0 {
		return fmt.Errorf("generator.max_chain must not be negative")
	}
	if c.Images.MaxAspectRatio < 1 {
		return fmt.Errorf("images.max_aspect_ratio must be at least 1, got %v", c.Images.MaxAspectRatio)
	}
	return nil
}
