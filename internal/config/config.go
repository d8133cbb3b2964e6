// Package config loads application settings from the environment.
package config

import (
	"github.com/kelseyhightower/envconfig"

	"ecocausal/internal/errors"
)

// Solver and p-value mode selectors
const (
	SolverGradient = "gradient"
	SolverExact    = "exact"

	PValueApproximate = "approximate"
	PValueExact       = "exact"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Analysis AnalysisConfig
	Paths    PathConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8080"`
}

// DatabaseConfig holds database connection settings. An empty URL
// disables persistence; analyses then run without history.
type DatabaseConfig struct {
	URL string `envconfig:"DATABASE_URL"`
}

// AnalysisConfig holds statistical engine settings
type AnalysisConfig struct {
	Solver        string `envconfig:"SOLVER" default:"gradient"`
	PValueMode    string `envconfig:"PVALUE_MODE" default:"approximate"`
	DefaultMaxLag int    `envconfig:"DEFAULT_MAX_LAG" default:"12"`
	Workers       int64  `envconfig:"ANALYSIS_WORKERS" default:"4"`
}

// PathConfig holds file system paths
type PathConfig struct {
	DataFile       string `envconfig:"DATA_FILE"`
	MechanismsFile string `envconfig:"MECHANISMS_FILE"`
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{}
	if err := envconfig.Process("", config); err != nil {
		return nil, errors.Wrap(err, "failed to load configuration from environment")
	}
	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func validateConfig(config *Config) error {
	switch config.Analysis.Solver {
	case SolverGradient, SolverExact:
	default:
		return errors.ConfigInvalid("SOLVER must be gradient or exact, got " + config.Analysis.Solver)
	}
	switch config.Analysis.PValueMode {
	case PValueApproximate, PValueExact:
	default:
		return errors.ConfigInvalid("PVALUE_MODE must be approximate or exact, got " + config.Analysis.PValueMode)
	}
	if config.Analysis.DefaultMaxLag < 1 {
		return errors.ConfigInvalid("DEFAULT_MAX_LAG must be at least 1")
	}
	if config.Analysis.Workers < 1 {
		return errors.ConfigInvalid("ANALYSIS_WORKERS must be at least 1")
	}
	return nil
}
