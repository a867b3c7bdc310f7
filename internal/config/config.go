package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"windaep/domain/aep"
	"windaep/internal/errors"
)

// Estimation methods
const (
	MethodSimple   = "simple"
	MethodExternal = "external"
)

// Solver kinds
const (
	SolverNone   = "none"
	SolverFile   = "file"
	SolverRemote = "remote"
)

// Config represents the complete application configuration
type Config struct {
	Estimator EstimatorConfig
	Solver    SolverConfig
	Check     aep.FDOptions
	Server    ServerConfig
	Batch     BatchConfig
	LogLevel  string
}

// EstimatorConfig selects how AEP is integrated
type EstimatorConfig struct {
	Method string
	// Samples fixes N; zero takes N from each evaluation's inputs
	Samples int
}

// SolverConfig configures the external integration tool
type SolverConfig struct {
	Kind       string
	Command    []string
	WorkDir    string
	InputFile  string
	ResultFile string
	URL        string
	Timeout    time.Duration
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string
	GinMode string
}

// BatchConfig bounds concurrent case evaluation
type BatchConfig struct {
	Concurrency int
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Estimator: loadEstimatorConfig(),
		Solver:    loadSolverConfig(),
		Check:     loadCheckConfig(),
		Server:    loadServerConfig(),
		Batch:     loadBatchConfig(),
		LogLevel:  getEnvOrDefault("LOG_LEVEL", "INFO"),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadEstimatorConfig() EstimatorConfig {
	return EstimatorConfig{
		Method:  strings.ToLower(getEnvOrDefault("AEP_METHOD", MethodSimple)),
		Samples: getEnvIntOrDefault("AEP_SAMPLES", 0),
	}
}

func loadSolverConfig() SolverConfig {
	kind := strings.ToLower(getEnvOrDefault("SOLVER_KIND", ""))
	command := strings.Fields(os.Getenv("SOLVER_COMMAND"))
	url := os.Getenv("SOLVER_URL")
	if kind == "" {
		switch {
		case len(command) > 0:
			kind = SolverFile
		case url != "":
			kind = SolverRemote
		default:
			kind = SolverNone
		}
	}

	return SolverConfig{
		Kind:       kind,
		Command:    command,
		WorkDir:    getEnvOrDefault("SOLVER_WORKDIR", ""),
		InputFile:  getEnvOrDefault("SOLVER_INPUT_FILE", "powerInput.txt"),
		ResultFile: getEnvOrDefault("SOLVER_RESULT_FILE", "AEP.txt"),
		URL:        url,
		Timeout:    getEnvDurationOrDefault("SOLVER_TIMEOUT", 30*time.Second),
	}
}

func loadCheckConfig() aep.FDOptions {
	defaults := aep.DefaultFDOptions()
	return aep.FDOptions{
		Form:     aep.Form(strings.ToLower(getEnvOrDefault("FD_FORM", string(defaults.Form)))),
		StepSize: getEnvFloatOrDefault("FD_STEP_SIZE", defaults.StepSize),
		StepType: aep.StepType(strings.ToLower(getEnvOrDefault("FD_STEP_TYPE", string(defaults.StepType)))),
	}
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		Port:    getEnvOrDefault("PORT", "8080"),
		GinMode: getEnvOrDefault("GIN_MODE", "release"),
	}
}

func loadBatchConfig() BatchConfig {
	return BatchConfig{
		Concurrency: getEnvIntOrDefault("BATCH_CONCURRENCY", 4),
	}
}

func validateConfig(config *Config) error {
	switch config.Estimator.Method {
	case MethodSimple:
	case MethodExternal:
		if config.Solver.Kind == SolverNone {
			return errors.ConfigInvalid("AEP_METHOD=external requires SOLVER_COMMAND or SOLVER_URL")
		}
	default:
		return errors.ConfigInvalid("AEP_METHOD must be simple or external, got " + config.Estimator.Method)
	}
	if config.Estimator.Samples < 0 {
		return errors.ConfigInvalid("AEP_SAMPLES must not be negative")
	}

	switch config.Solver.Kind {
	case SolverNone:
	case SolverFile:
		if len(config.Solver.Command) == 0 {
			return errors.ConfigInvalid("SOLVER_KIND=file requires SOLVER_COMMAND")
		}
	case SolverRemote:
		if config.Solver.URL == "" {
			return errors.ConfigInvalid("SOLVER_KIND=remote requires SOLVER_URL")
		}
	default:
		return errors.ConfigInvalid("SOLVER_KIND must be none, file or remote, got " + config.Solver.Kind)
	}

	if err := config.Check.Validate(); err != nil {
		return errors.WithCode(errors.CodeConfigInvalid, err)
	}
	if config.Batch.Concurrency < 1 {
		return errors.ConfigInvalid("BATCH_CONCURRENCY must be at least 1")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
