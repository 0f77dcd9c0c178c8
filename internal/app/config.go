package app

import (
	"flinktrack/internal/config"
)

// Config holds the application configuration
type Config struct {
	// Debug settings
	Debug bool

	// Silent suppresses all log output
	Silent bool

	// Custom configuration file (optional)
	// When empty, ~/.config/flinktrack/config.yaml is used if it exists
	ConfigPath string

	// Loaded configuration. When set before NewApplication, no file is read.
	Settings *config.Config
}

// NewConfig creates a new application configuration
func NewConfig(debug bool, configPath string) *Config {
	return &Config{
		Debug:      debug,
		ConfigPath: configPath,
	}
}
