package pagination

import (
	"fmt"
	"time"
)

const (
	DefaultBrowsePageSize = 100
	DefaultSearchPageSize = 50
)

type Config struct {
	BrowsePageSize int           `yaml:"browse_page_size"`
	SearchPageSize int           `yaml:"search_page_size"`
	FetchTimeout   time.Duration `yaml:"fetch_timeout"`
}

func DefaultConfig() Config {
	return Config{
		BrowsePageSize: DefaultBrowsePageSize,
		SearchPageSize: DefaultSearchPageSize,
		FetchTimeout:   15 * time.Second,
	}
}

// ApplyDefaults fills in zero values with defaults.
func (c *Config) ApplyDefaults() {
	defaults := DefaultConfig()
	if c.BrowsePageSize == 0 {
		c.BrowsePageSize = defaults.BrowsePageSize
	}
	if c.SearchPageSize == 0 {
		c.SearchPageSize = defaults.SearchPageSize
	}
	if c.FetchTimeout == 0 {
		c.FetchTimeout = defaults.FetchTimeout
	}
}

// ApplyEnvOverrides applies environment variable overrides.
// Page sizes are not overridable from the environment.
func (*Config) ApplyEnvOverrides() {}

// ResolvePaths resolves relative paths using the given base directories.
// No paths to resolve in pagination config.
func (*Config) ResolvePaths(_, _ string) {}

func (c *Config) Validate() error {
	if c.BrowsePageSize < 1 {
		return fmt.Errorf("pagination.browse_page_size must be positive, got %d", c.BrowsePageSize)
	}
	if c.SearchPageSize < 1 {
		return fmt.Errorf("pagination.search_page_size must be positive, got %d", c.SearchPageSize)
	}
	if c.FetchTimeout < 0 {
		return fmt.Errorf("pagination.fetch_timeout must not be negative")
	}
	return nil
}
