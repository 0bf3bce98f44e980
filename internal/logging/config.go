package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

var (
	validLevels  = []string{"debug", "info", "warn", "error"}
	validFormats = []string{"text", "json"}
)

// Config holds logging configuration.
type Config struct {
	Level    string         `yaml:"level"`  // debug, info, warn, error
	Format   string         `yaml:"format"` // text, json
	Dir      string         `yaml:"dir"`
	Rotation RotationConfig `yaml:"rotation"`
	Console  SinkConfig     `yaml:"console"`
	File     SinkConfig     `yaml:"file"`
}

// RotationConfig is handed to lumberjack.
type RotationConfig struct {
	MaxSize    int  `yaml:"max_size"`    // MB
	MaxBackups int  `yaml:"max_backups"` // files
	MaxAge     int  `yaml:"max_age"`     // days
	Compress   bool `yaml:"compress"`
}

// SinkConfig configures one output. Empty Level and Format inherit the
// top-level values.
type SinkConfig struct {
	Enabled bool   `yaml:"enabled"`
	Level   string `yaml:"level"`
	Format  string `yaml:"format"`
}

func DefaultConfig() Config {
	return Config{
		Level:  "info",
		Format: "text",
		Dir:    "logs",
		Rotation: RotationConfig{
			MaxSize:    100,
			MaxBackups: 10,
			MaxAge:     30,
			Compress:   true,
		},
		Console: SinkConfig{Enabled: true, Level: "info", Format: "text"},
		File:    SinkConfig{Enabled: true, Level: "info", Format: "text"},
	}
}

// ApplyDefaults fills in zero values with defaults. Compress cannot be told
// apart from an explicit false and is left alone.
func (c *Config) ApplyDefaults() {
	d := DefaultConfig()
	if c.Level == "" {
		c.Level = d.Level
	}
	if c.Format == "" {
		c.Format = d.Format
	}
	if c.Dir == "" {
		c.Dir = d.Dir
	}
	if c.Rotation.MaxSize == 0 {
		c.Rotation.MaxSize = d.Rotation.MaxSize
	}
	if c.Rotation.MaxBackups == 0 {
		c.Rotation.MaxBackups = d.Rotation.MaxBackups
	}
	if c.Rotation.MaxAge == 0 {
		c.Rotation.MaxAge = d.Rotation.MaxAge
	}
	c.Console.inherit(c.Level, c.Format)
	c.File.inherit(c.Level, c.Format)
}

// inherit enables a sink that was left entirely unset.
func (s *SinkConfig) inherit(level, format string) {
	if *s == (SinkConfig{}) {
		s.Enabled = true
	}
	if s.Level == "" {
		s.Level = level
	}
	if s.Format == "" {
		s.Format = format
	}
}

// ApplyEnvOverrides applies environment variable overrides.
// ORDERDESK_LOG_LEVEL replaces the level of every sink.
func (c *Config) ApplyEnvOverrides() {
	if val := strings.ToLower(os.Getenv("ORDERDESK_LOG_LEVEL")); val != "" {
		c.Level = val
		c.Console.Level = val
		c.File.Level = val
	}
	if val := os.Getenv("ORDERDESK_LOG_DIR"); val != "" {
		c.Dir = val
	}
}

// ResolvePaths places a relative log directory under dataDir.
func (c *Config) ResolvePaths(_, dataDir string) {
	if c.Dir == "" || filepath.IsAbs(c.Dir) || dataDir == "" {
		return
	}
	c.Dir = filepath.Clean(filepath.Join(dataDir, c.Dir))
}

func (c *Config) Validate() error {
	if !slices.Contains(validLevels, c.Level) {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Level)
	}
	if !slices.Contains(validFormats, c.Format) {
		return fmt.Errorf("invalid log format: %s (must be text or json)", c.Format)
	}
	if c.File.Enabled && c.Dir == "" {
		return fmt.Errorf("log directory cannot be empty")
	}
	for name, s := range map[string]SinkConfig{"console": c.Console, "file": c.File} {
		if !s.Enabled {
			continue
		}
		if s.Level != "" && !slices.Contains(validLevels, s.Level) {
			return fmt.Errorf("invalid %s log level: %s", name, s.Level)
		}
		if s.Format != "" && !slices.Contains(validFormats, s.Format) {
			return fmt.Errorf("invalid %s log format: %s", name, s.Format)
		}
	}
	return nil
}
