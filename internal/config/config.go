package config

import (
	"os"
	"strconv"

	"sweffect/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Sampler  SamplerConfig
	Spline   SplineConfig
	Data     DataConfig
}

// DatabaseConfig holds database connection settings. An empty URL means
// estimates are kept in memory only.
type DatabaseConfig struct {
	URL     string
	SSLMode string
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port string
}

// SamplerConfig holds posterior-sampler tuning shared by all Bayesian
// families. It is threaded into each fitting call rather than kept as
// process state.
type SamplerConfig struct {
	Chains      int
	Iterations  int
	Warmup      int
	Thin        int
	MaxParallel int
	StepSize    float64
	Seed        int64
}

// SplineConfig holds smoothing settings for the penalized-spline family
type SplineConfig struct {
	Lambda float64
}

// DataConfig holds data ingestion settings
type DataConfig struct {
	File            string
	ExtraTimePoints int
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Database: DatabaseConfig{
			URL:     os.Getenv("DATABASE_URL"),
			SSLMode: getEnvOrDefault("SSL_MODE", "disable"),
		},
		Server: ServerConfig{
			Port: getEnvOrDefault("SERVER_PORT", "8080"),
		},
		Sampler: SamplerConfig{
			Chains:      getEnvIntOrDefault("MCMC_CHAINS", 4),
			Iterations:  getEnvIntOrDefault("MCMC_ITERATIONS", 5000),
			Warmup:      getEnvIntOrDefault("MCMC_WARMUP", 1000),
			Thin:        getEnvIntOrDefault("MCMC_THIN", 1),
			MaxParallel: getEnvIntOrDefault("MCMC_MAX_PARALLEL", 4),
			StepSize:    getEnvFloatOrDefault("MCMC_STEP_SIZE", 0.05),
			Seed:        int64(getEnvIntOrDefault("MCMC_SEED", 1)),
		},
		Spline: SplineConfig{
			Lambda: getEnvFloatOrDefault("SPLINE_LAMBDA", 1.0),
		},
		Data: DataConfig{
			File:            os.Getenv("DATA_FILE"),
			ExtraTimePoints: getEnvIntOrDefault("DATA_EXTRA_TIME_POINTS", 0),
		},
	}

	if err := validate(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func validate(c *Config) error {
	if c.Sampler.Chains < 1 {
		return errors.ConfigInvalid("MCMC_CHAINS must be at least 1")
	}
	if c.Sampler.Warmup >= c.Sampler.Iterations {
		return errors.ConfigInvalid("MCMC_WARMUP must be smaller than MCMC_ITERATIONS")
	}
	if c.Sampler.Thin < 1 {
		return errors.ConfigInvalid("MCMC_THIN must be at least 1")
	}
	if c.Sampler.MaxParallel < 1 {
		return errors.ConfigInvalid("MCMC_MAX_PARALLEL must be at least 1")
	}
	if c.Sampler.StepSize <= 0 {
		return errors.ConfigInvalid("MCMC_STEP_SIZE must be positive")
	}
	if c.Spline.Lambda < 0 {
		return errors.ConfigInvalid("SPLINE_LAMBDA must be non-negative")
	}
	if c.Data.ExtraTimePoints < 0 {
		return errors.ConfigInvalid("DATA_EXTRA_TIME_POINTS must be non-negative")
	}
	return nil
}

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvIntOrDefault(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloatOrDefault(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
