package notify

import (
	"fmt"
	"os"
)

const (
	BackendMemory = "memory"
	BackendNATS   = "nats"
)

type Config struct {
	Backend       string `yaml:"backend"` // "memory" or "nats"
	URL           string `yaml:"url"`
	SubjectPrefix string `yaml:"subject_prefix"`
}

func DefaultConfig() Config {
	return Config{
		Backend:       BackendMemory,
		URL:           "nats://localhost:4222",
		SubjectPrefix: "orderdesk",
	}
}

// ApplyDefaults fills in zero values with defaults.
func (c *Config) ApplyDefaults() {
	defaults := DefaultConfig()
	if c.Backend == "" {
		c.Backend = defaults.Backend
	}
	if c.URL == "" {
		c.URL = defaults.URL
	}
	if c.SubjectPrefix == "" {
		c.SubjectPrefix = defaults.SubjectPrefix
	}
}

// ApplyEnvOverrides applies environment variable overrides.
func (c *Config) ApplyEnvOverrides() {
	if val := os.Getenv("ORDERDESK_NATS_URL"); val != "" {
		c.URL = val
	}
}

// ResolvePaths resolves relative paths using the given base directories.
// No paths to resolve in notify config.
func (*Config) ResolvePaths(_, _ string) {}

func (c *Config) Validate() error {
	switch c.Backend {
	case BackendMemory, BackendNATS:
		return nil
	}
	return fmt.Errorf("notify.backend must be %q or %q, got %q", BackendMemory, BackendNATS, c.Backend)
}
