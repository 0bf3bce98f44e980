package config

// ServiceConfig defines the standard configuration lifecycle methods.
// Each component config implements it so LoadConfig can treat them alike.
type ServiceConfig interface {
	// ApplyDefaults fills zero values with sensible defaults
	ApplyDefaults()

	// ApplyEnvOverrides applies environment variable overrides
	ApplyEnvOverrides()

	// ResolvePaths resolves relative paths using the given directories.
	// - configDir: base directory for config-related paths
	// - dataDir: base directory for runtime data paths (e.g., logs)
	ResolvePaths(configDir, dataDir string)

	// Validate returns an error if the configuration is invalid.
	Validate() error
}

// ApplyServiceConfigs applies the configuration lifecycle to all service configs.
// It calls ApplyDefaults, ApplyEnvOverrides, ResolvePaths, and Validate in order
// and stops at the first validation error.
func ApplyServiceConfigs(configDir, dataDir string, configs ...ServiceConfig) error {
	for _, cfg := range configs {
		cfg.ApplyDefaults()
		cfg.ApplyEnvOverrides()
		cfg.ResolvePaths(configDir, dataDir)
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	return nil
}
