package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.HTTPPort != 7070 {
		t.Errorf("HTTPPort = %d, want 7070", cfg.HTTPPort)
	}
	if cfg.RunnerConcurrency != 2 {
		t.Errorf("RunnerConcurrency = %d, want 2", cfg.RunnerConcurrency)
	}
	if cfg.RunnerDefaultTimeout != 30*time.Minute {
		t.Errorf("RunnerDefaultTimeout = %v, want 30m", cfg.RunnerDefaultTimeout)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("RUNNER_CONCURRENCY", "8")
	t.Setenv("RUNNER_DEFAULT_TIMEOUT", "5m")
	t.Setenv("PIPEGATE_API_TOKEN", "secret")
	t.Setenv("PIPEGATE_RATE_LIMIT", "2.5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.HTTPPort != 9090 {
		t.Errorf("HTTPPort = %d, want 9090", cfg.HTTPPort)
	}
	if cfg.RunnerConcurrency != 8 {
		t.Errorf("RunnerConcurrency = %d, want 8", cfg.RunnerConcurrency)
	}
	if cfg.RunnerDefaultTimeout != 5*time.Minute {
		t.Errorf("RunnerDefaultTimeout = %v, want 5m", cfg.RunnerDefaultTimeout)
	}
	if cfg.APIToken != "secret" {
		t.Errorf("APIToken = %q", cfg.APIToken)
	}
	if cfg.RateLimit != 2.5 {
		t.Errorf("RateLimit = %v, want 2.5", cfg.RateLimit)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"PORT", "not-a-port"},
		{"RUNNER_CONCURRENCY", "many"},
		{"RUNNER_DEFAULT_TIMEOUT", "soon"},
		{"PIPEGATE_RATE_LIMIT", "fast"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("Load accepted %s=%q", tt.key, tt.value)
			}
		})
	}
}

func TestRequireDatabase(t *testing.T) {
	cfg := &Config{}
	if err := cfg.RequireDatabase(); err == nil {
		t.Error("expected error without DATABASE_URL")
	}

	cfg.DatabaseURL = "postgres://localhost/pipegate"
	if err := cfg.RequireDatabase(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
