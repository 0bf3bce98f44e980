package ingest

import (
	"fmt"
	"strings"

	"github.com/orderdesk/orderdesk/pkg/model"
)

type Config struct {
	// MaxUploadBytes caps the size of one spreadsheet.
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`
	// DefaultOrderType is assigned to rows with no order type.
	DefaultOrderType string `yaml:"default_order_type"`
	// AcceptRule is an optional CEL expression over `row`; rows for which it
	// evaluates to false are skipped.
	AcceptRule string `yaml:"accept_rule"`
}

func DefaultConfig() Config {
	return Config{
		MaxUploadBytes:   32 << 20,
		DefaultOrderType: model.DefaultOrderType,
	}
}

// ApplyDefaults fills in zero values with defaults.
func (c *Config) ApplyDefaults() {
	defaults := DefaultConfig()
	if c.MaxUploadBytes == 0 {
		c.MaxUploadBytes = defaults.MaxUploadBytes
	}
	if c.DefaultOrderType == "" {
		c.DefaultOrderType = defaults.DefaultOrderType
	}
}

// ApplyEnvOverrides applies environment variable overrides.
// No env overrides for ingest config.
func (*Config) ApplyEnvOverrides() {}

// ResolvePaths resolves relative paths using the given base directories.
// No paths to resolve in ingest config.
func (*Config) ResolvePaths(_, _ string) {}

func (c *Config) Validate() error {
	if c.MaxUploadBytes < 0 {
		return fmt.Errorf("ingest.max_upload_bytes must not be negative")
	}
	if strings.TrimSpace(c.AcceptRule) != "" {
		if _, err := NewAcceptRule(c.AcceptRule); err != nil {
			return fmt.Errorf("ingest.accept_rule: %w", err)
		}
	}
	return nil
}
