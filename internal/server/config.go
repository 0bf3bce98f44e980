package server

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the configuration of the HTTP listener.
type Config struct {
	Host string `yaml:"host"`

	HTTPPort         int           `yaml:"http_port"`
	HTTPReadTimeout  time.Duration `yaml:"http_read_timeout"`
	HTTPWriteTimeout time.Duration `yaml:"http_write_timeout"`
	HTTPIdleTimeout  time.Duration `yaml:"http_idle_timeout"`

	// CORS
	EnableCORS       bool     `yaml:"enable_cors"`
	AllowedOrigins   []string `yaml:"allowed_origins"`
	AllowedMethods   []string `yaml:"allowed_methods"`
	AllowedHeaders   []string `yaml:"allowed_headers"`
	AllowCredentials bool     `yaml:"allow_credentials"`
	CORSMaxAge       int      `yaml:"cors_max_age"`

	// MetricsPath serves Prometheus metrics; empty disables it.
	MetricsPath string `yaml:"metrics_path"`

	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DefaultConfig returns safe defaults for development.
func DefaultConfig() Config {
	return Config{
		Host:             "localhost",
		HTTPPort:         8080,
		HTTPReadTimeout:  60 * time.Second,
		HTTPWriteTimeout: 150 * time.Second,
		HTTPIdleTimeout:  60 * time.Second,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Request-ID"},
		CORSMaxAge:       86400,
		MetricsPath:      "/metrics",
		ShutdownTimeout:  10 * time.Second,
	}
}

// ApplyDefaults fills in zero values with defaults.
func (c *Config) ApplyDefaults() {
	defaults := DefaultConfig()
	if c.Host == "" {
		c.Host = defaults.Host
	}
	if c.HTTPPort == 0 {
		c.HTTPPort = defaults.HTTPPort
	}
	if c.HTTPReadTimeout == 0 {
		c.HTTPReadTimeout = defaults.HTTPReadTimeout
	}
	if c.HTTPWriteTimeout == 0 {
		c.HTTPWriteTimeout = defaults.HTTPWriteTimeout
	}
	if c.HTTPIdleTimeout == 0 {
		c.HTTPIdleTimeout = defaults.HTTPIdleTimeout
	}
	if c.AllowedMethods == nil {
		c.AllowedMethods = defaults.AllowedMethods
	}
	if c.AllowedHeaders == nil {
		c.AllowedHeaders = defaults.AllowedHeaders
	}
	if c.CORSMaxAge == 0 {
		c.CORSMaxAge = defaults.CORSMaxAge
	}
	if c.MetricsPath == "" {
		c.MetricsPath = defaults.MetricsPath
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = defaults.ShutdownTimeout
	}
}

// ApplyEnvOverrides applies environment variable overrides.
func (c *Config) ApplyEnvOverrides() {
	if val := os.Getenv("ORDERDESK_HTTP_PORT"); val != "" {
		if port, err := strconv.Atoi(val); err == nil {
			c.HTTPPort = port
		}
	}
}

// ResolvePaths resolves relative paths using the given base directories.
// No paths to resolve in server config.
func (*Config) ResolvePaths(_, _ string) {}

// Validate returns an error if the configuration is invalid.
func (c *Config) Validate() error {
	if c.HTTPPort < 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port out of range: %d", c.HTTPPort)
	}
	if c.AllowCredentials {
		for _, o := range c.AllowedOrigins {
			if o == "*" {
				return fmt.Errorf("server.allowed_origins cannot contain \"*\" with allow_credentials")
			}
		}
	}
	return nil
}
