package sessionstore

import (
	"fmt"
	"os"
	"time"
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

type Config struct {
	Backend   string        `yaml:"backend"` // "memory" or "redis"
	RedisAddr string        `yaml:"redis_addr"`
	KeyPrefix string        `yaml:"key_prefix"`
	TTL       time.Duration `yaml:"ttl"`
}

func DefaultConfig() Config {
	return Config{
		Backend:   BackendMemory,
		RedisAddr: "localhost:6379",
		KeyPrefix: defaultRedisPrefix,
		TTL:       30 * time.Minute,
	}
}

// ApplyDefaults fills in zero values with defaults.
func (c *Config) ApplyDefaults() {
	defaults := DefaultConfig()
	if c.Backend == "" {
		c.Backend = defaults.Backend
	}
	if c.RedisAddr == "" {
		c.RedisAddr = defaults.RedisAddr
	}
	if c.KeyPrefix == "" {
		c.KeyPrefix = defaults.KeyPrefix
	}
	if c.TTL == 0 {
		c.TTL = defaults.TTL
	}
}

// ApplyEnvOverrides applies environment variable overrides.
func (c *Config) ApplyEnvOverrides() {
	if val := os.Getenv("ORDERDESK_REDIS_ADDR"); val != "" {
		c.RedisAddr = val
	}
}

// ResolvePaths resolves relative paths using the given base directories.
// No paths to resolve in session config.
func (*Config) ResolvePaths(_, _ string) {}

func (c *Config) Validate() error {
	switch c.Backend {
	case BackendMemory, BackendRedis:
	default:
		return fmt.Errorf("sessions.backend must be %q or %q, got %q", BackendMemory, BackendRedis, c.Backend)
	}
	if c.TTL < 0 {
		return fmt.Errorf("sessions.ttl must not be negative")
	}
	return nil
}
