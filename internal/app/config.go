package app

import "errors"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	PipelinePath string

	// DriverPath overrides the plugin search path; empty means the
	// PDAL_DRIVER_PATH environment variable and built-in defaults.
	DriverPath string

	LogFormat     string
	LogLevel      string
	MaxConcurrent int
	NoPlugins     bool
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.PipelinePath == "" {
		return nil, errors.New("PipelinePath is a required configuration field and cannot be empty")
	}

	return &cfg, nil
}
