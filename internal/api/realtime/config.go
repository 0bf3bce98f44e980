package realtime

import (
	"fmt"
	"os"
	"strings"
)

// Config controls which browser origins may open the feed.
type Config struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	// AllowDevOrigin admits localhost origins when no allow-list matches.
	AllowDevOrigin bool `yaml:"allow_dev_origin"`
}

func DefaultConfig() Config {
	return Config{AllowDevOrigin: true}
}

// ApplyDefaults fills in zero values with defaults.
func (*Config) ApplyDefaults() {}

// ApplyEnvOverrides applies environment variable overrides.
func (c *Config) ApplyEnvOverrides() {
	if val := os.Getenv("ORDERDESK_WS_ORIGINS"); val != "" {
		c.AllowedOrigins = nil
		for _, o := range strings.Split(val, ",") {
			if o = strings.TrimSpace(o); o != "" {
				c.AllowedOrigins = append(c.AllowedOrigins, o)
			}
		}
	}
}

// ResolvePaths resolves relative paths using the given base directories.
// No paths to resolve in realtime config.
func (*Config) ResolvePaths(_, _ string) {}

func (c *Config) Validate() error {
	for _, o := range c.AllowedOrigins {
		if o != "*" && !strings.HasPrefix(o, "http://") && !strings.HasPrefix(o, "https://") {
			return fmt.Errorf("realtime.allowed_origins: %q is not an http(s) origin", o)
		}
	}
	return nil
}
