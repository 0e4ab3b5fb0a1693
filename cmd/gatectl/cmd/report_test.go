package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"

	"pipegate/pkg/api"
)

func TestReportCommand_PassedRun(t *testing.T) {
	resetViper()

	runID := "6d4de0b0-0f8a-4f6e-9a57-2b1f3c4d5e6f"
	started := time.Now().Add(-10 * time.Minute)
	completed := time.Now().Add(-9 * time.Minute)
	exitZero := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET method, got %s", r.Method)
		}
		if !strings.HasSuffix(r.URL.Path, "/runs/"+runID) {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-token" {
			t.Errorf("expected Bearer token, got: %s", r.Header.Get("Authorization"))
		}

		resp := api.RunResponse{
			ID:        runID,
			Pipeline:  "release",
			Source:    "runner",
			OverallOK: true,
			CreatedAt: completed,
			Jobs: []api.JobRowResponse{
				{Name: "build", Result: "success", Required: true, ExitCode: &exitZero, StartedAt: &started, CompletedAt: &completed},
				{Name: "lint", Result: "failure", Required: false},
			},
		}
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	viper.Set("url", server.URL)
	viper.Set("token", "test-token")

	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stdout)
	rootCmd.SetArgs([]string{"report", runID})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := stdout.String()
	if !strings.Contains(output, runID) {
		t.Errorf("expected run ID in output, got: %s", output)
	}
	if !strings.Contains(output, "release") {
		t.Errorf("expected pipeline name in output, got: %s", output)
	}
	if !strings.Contains(output, "gate passed") {
		t.Errorf("expected pass verdict, got: %s", output)
	}
	if !strings.Contains(output, "informational") {
		t.Errorf("expected informational marker for lint, got: %s", output)
	}
}

func TestReportCommand_FailedRunShowsLogTail(t *testing.T) {
	resetViper()

	exitCode := 2
	errMsg := "exit code 2"
	logTail := "compiling...\nerror: undefined symbol"

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := api.RunResponse{
			ID:        "run-failed",
			Pipeline:  "ci",
			Source:    "runner",
			OverallOK: false,
			CreatedAt: time.Now(),
			Jobs: []api.JobRowResponse{
				{Name: "build", Result: "failure", Required: true, ExitCode: &exitCode, Error: &errMsg, LogTail: &logTail},
				{Name: "test", Result: "skipped", Required: true},
			},
		}
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	viper.Set("url", server.URL)
	viper.Set("token", "test-token")

	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stdout)
	rootCmd.SetArgs([]string{"report", "run-failed"})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := stdout.String()
	if !strings.Contains(output, "gate failed") {
		t.Errorf("expected fail verdict, got: %s", output)
	}
	if !strings.Contains(output, "exit code 2") {
		t.Errorf("expected exit code in output, got: %s", output)
	}
	if !strings.Contains(output, "undefined symbol") {
		t.Errorf("expected log tail in output, got: %s", output)
	}
	if !strings.Contains(output, "skipped") {
		t.Errorf("expected skipped job in output, got: %s", output)
	}
}

func TestReportCommand_MissingToken(t *testing.T) {
	resetViper()

	viper.Set("url", "http://localhost:7070")
	viper.Set("token", "")

	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stdout)
	rootCmd.SetArgs([]string{"report", "run-123"})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(stdout.String(), "API token not found") {
		t.Errorf("expected token error message, got: %s", stdout.String())
	}
}

func TestReportCommand_NotFound(t *testing.T) {
	resetViper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	viper.Set("url", server.URL)
	viper.Set("token", "test-token")

	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stdout)
	rootCmd.SetArgs([]string{"report", "non-existent"})

	err := rootCmd.Execute()
	if err == nil {
		t.Fatal("expected error for missing run")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 APIError, got: %v", err)
	}
}

func TestReportCommand_RequiresRunIDArgument(t *testing.T) {
	resetViper()
	viper.Set("token", "test-token")

	var stderr bytes.Buffer
	rootCmd.SetOut(&stderr)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs([]string{"report"})

	if err := rootCmd.Execute(); err == nil {
		t.Error("expected error when no run ID provided")
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		duration time.Duration
		expected string
	}{
		{500 * time.Millisecond, "500ms"},
		{1500 * time.Millisecond, "1.5s"},
		{65 * time.Second, "1m 5s"},
		{125 * time.Minute, "2h 5m"},
	}

	for _, tt := range tests {
		result := formatDuration(tt.duration)
		if result != tt.expected {
			t.Errorf("formatDuration(%v) = %s, want %s", tt.duration, result, tt.expected)
		}
	}
}

func TestRelativeTime(t *testing.T) {
	tests := []struct {
		offset   time.Duration
		contains string
	}{
		{30 * time.Second, "30s"},
		{5 * time.Minute, "5m"},
		{3 * time.Hour, "3h"},
		{48 * time.Hour, "2 days"},
	}

	for _, tt := range tests {
		testTime := time.Now().Add(-tt.offset)
		result := relativeTime(testTime)
		if !strings.Contains(result, tt.contains) {
			t.Errorf("relativeTime(%v ago) should contain %s, got: %s", tt.offset, tt.contains, result)
		}
	}
}
