// Package config handles environment variable loading for ports, database
// strings, runner settings, etc.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration values for the application.
type Config struct {
	// Database connection string
	DatabaseURL string

	// HTTP server port for the controller
	HTTPPort int

	// APIToken guards the controller's public endpoints. Empty disables auth
	// (local development only).
	APIToken string

	// Rate limit for API clients, requests per second. 0 means unlimited.
	RateLimit float64

	// RateLimitBurst is the token bucket size when rate limiting is on.
	RateLimitBurst int

	// Runner-specific configuration
	RunnerConcurrency int

	// Per-job timeout when the pipeline declares none
	RunnerDefaultTimeout time.Duration

	// Base directory for exec-runtime job working directories
	RunnerWorkDir string

	// OTLP collector endpoint for traces. Empty disables tracing export.
	OTELEndpoint string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		APIToken:             os.Getenv("PIPEGATE_API_TOKEN"),
		HTTPPort:             7070,
		RateLimitBurst:       20,
		RunnerConcurrency:    2,
		RunnerDefaultTimeout: 30 * time.Minute,
		RunnerWorkDir:        os.Getenv("PIPEGATE_WORK_DIR"),
		OTELEndpoint:         os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}

	if portStr := os.Getenv("PORT"); portStr != "" {
		p, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT: %w", err)
		}
		cfg.HTTPPort = p
	}

	if rlStr := os.Getenv("PIPEGATE_RATE_LIMIT"); rlStr != "" {
		rl, err := strconv.ParseFloat(rlStr, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid PIPEGATE_RATE_LIMIT: %w", err)
		}
		cfg.RateLimit = rl
	}

	if burstStr := os.Getenv("PIPEGATE_RATE_LIMIT_BURST"); burstStr != "" {
		b, err := strconv.Atoi(burstStr)
		if err != nil {
			return nil, fmt.Errorf("invalid PIPEGATE_RATE_LIMIT_BURST: %w", err)
		}
		cfg.RateLimitBurst = b
	}

	if concurrencyStr := os.Getenv("RUNNER_CONCURRENCY"); concurrencyStr != "" {
		c, err := strconv.Atoi(concurrencyStr)
		if err != nil {
			return nil, fmt.Errorf("invalid RUNNER_CONCURRENCY: %w", err)
		}
		cfg.RunnerConcurrency = c
	}

	if timeoutStr := os.Getenv("RUNNER_DEFAULT_TIMEOUT"); timeoutStr != "" {
		d, err := time.ParseDuration(timeoutStr)
		if err != nil {
			return nil, fmt.Errorf("invalid RUNNER_DEFAULT_TIMEOUT: %w", err)
		}
		cfg.RunnerDefaultTimeout = d
	}

	return cfg, nil
}

// RequireDatabase validates that a database URL is configured. The
// controller needs it; the local runner does not.
func (c *Config) RequireDatabase() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	return nil
}
