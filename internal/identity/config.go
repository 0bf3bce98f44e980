package identity

import (
	"fmt"
	"os"
	"time"
)

type Config struct {
	// Enabled turns on bearer token checks. When disabled every caller is
	// treated as an administrator.
	Enabled   bool          `yaml:"enabled"`
	JWTSecret string        `yaml:"jwt_secret"`
	AdminRole string        `yaml:"admin_role"`
	Issuer    string        `yaml:"issuer"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

func DefaultConfig() Config {
	return Config{
		AdminRole: "admin",
		Issuer:    "orderdesk",
		TokenTTL:  time.Hour,
	}
}

// ApplyDefaults fills in zero values with defaults.
func (c *Config) ApplyDefaults() {
	defaults := DefaultConfig()
	if c.AdminRole == "" {
		c.AdminRole = defaults.AdminRole
	}
	if c.Issuer == "" {
		c.Issuer = defaults.Issuer
	}
	if c.TokenTTL == 0 {
		c.TokenTTL = defaults.TokenTTL
	}
}

// ApplyEnvOverrides applies environment variable overrides.
func (c *Config) ApplyEnvOverrides() {
	if val := os.Getenv("ORDERDESK_JWT_SECRET"); val != "" {
		c.JWTSecret = val
	}
}

// ResolvePaths resolves relative paths using the given base directories.
// No paths to resolve in identity config.
func (*Config) ResolvePaths(_, _ string) {}

func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("identity.jwt_secret must be at least 32 bytes when identity is enabled")
	}
	if c.TokenTTL < 0 {
		return fmt.Errorf("identity.token_ttl must not be negative")
	}
	return nil
}
