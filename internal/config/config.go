// Package config assembles the process configuration from defaults, YAML
// files, a .env file and environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/orderdesk/orderdesk/internal/api/realtime"
	"github.com/orderdesk/orderdesk/internal/identity"
	"github.com/orderdesk/orderdesk/internal/ingest"
	"github.com/orderdesk/orderdesk/internal/logging"
	"github.com/orderdesk/orderdesk/internal/notify"
	"github.com/orderdesk/orderdesk/internal/pagination"
	"github.com/orderdesk/orderdesk/internal/pagination/sessionstore"
	"github.com/orderdesk/orderdesk/internal/server"
	storage "github.com/orderdesk/orderdesk/internal/storage/config"
	"gopkg.in/yaml.v3"
)

// DefaultDir is where LoadConfig looks for config.yml.
const DefaultDir = "config"

// Config holds the application configuration
type Config struct {
	// DataDir anchors relative runtime paths such as the log directory.
	DataDir string `yaml:"data_dir"`

	Server   server.Config   `yaml:"server"`
	Logging  logging.Config  `yaml:"logging"`
	Realtime realtime.Config `yaml:"realtime"`

	Storage    storage.Config      `yaml:"storage"`
	Sessions   sessionstore.Config `yaml:"sessions"`
	Pagination pagination.Config   `yaml:"pagination"`
	Ingest     ingest.Config       `yaml:"ingest"`
	Identity   identity.Config     `yaml:"identity"`
	Notify     notify.Config       `yaml:"notify"`
}

// Default returns a Config with every section at its defaults.
func Default() *Config {
	return &Config{
		DataDir:    ".",
		Server:     server.DefaultConfig(),
		Logging:    logging.DefaultConfig(),
		Realtime:   realtime.DefaultConfig(),
		Storage:    storage.DefaultConfig(),
		Sessions:   sessionstore.DefaultConfig(),
		Pagination: pagination.DefaultConfig(),
		Ingest:     ingest.DefaultConfig(),
		Identity:   identity.DefaultConfig(),
		Notify:     notify.DefaultConfig(),
	}
}

// LoadConfig loads configuration from dir and the environment.
// Order: defaults -> config.yml -> config.local.yml -> .env -> ApplyDefaults
// -> ApplyEnvOverrides -> ResolvePaths -> Validate
func LoadConfig(dir string) (*Config, error) {
	if dir == "" {
		dir = DefaultDir
	}

	// Start from defaults so YAML can override them, bool fields included.
	cfg := Default()

	if err := loadFile(filepath.Join(dir, "config.yml"), cfg); err != nil {
		return nil, err
	}
	if err := loadFile(filepath.Join(dir, "config.local.yml"), cfg); err != nil {
		return nil, err
	}

	// Variables already set in the environment win over .env.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("Failed to load .env", "error", err)
	}
	if val := os.Getenv("ORDERDESK_DATA_DIR"); val != "" {
		cfg.DataDir = val
	}

	if err := cfg.apply(dir); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	return cfg, nil
}

func (c *Config) apply(configDir string) error {
	return ApplyServiceConfigs(configDir, c.DataDir,
		&c.Server,
		&c.Logging,
		&c.Realtime,
		&c.Storage,
		&c.Sessions,
		&c.Pagination,
		&c.Ingest,
		&c.Identity,
		&c.Notify,
	)
}

// loadFile merges filename into cfg. A missing file is skipped.
func loadFile(filename string, cfg *Config) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", filename, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", filename, err)
	}
	return nil
}
