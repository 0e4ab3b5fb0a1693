package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"

	"pipegate/pkg/api"
)

func resetRunFlags(t *testing.T) {
	t.Helper()

	runCmd.Flags().Set("format", "text")
	runCmd.Flags().Set("push", "false")
}

func writePipeline(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write pipeline file: %v", err)
	}
	return path
}

func TestRunCommand_Success(t *testing.T) {
	resetViper()
	resetRunFlags(t)

	path := writePipeline(t, `
name: demo
jobs:
  - name: build
    run: "true"
  - name: test
    run: "true"
    needs: [build]
`)

	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stdout)
	rootCmd.SetArgs([]string{"run", path, "--workdir", t.TempDir()})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := stdout.String()
	if !strings.Contains(output, "all required jobs succeeded") {
		t.Errorf("expected pass verdict, got: %s", output)
	}
}

func TestRunCommand_FailureSkipsDependentAndFailsGate(t *testing.T) {
	resetViper()
	resetRunFlags(t)

	path := writePipeline(t, `
name: demo
jobs:
  - name: build
    run: "exit 3"
  - name: test
    run: "true"
    needs: [build]
  - name: lint
    run: "true"
    required: false
`)

	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stdout)
	rootCmd.SetArgs([]string{"run", path, "--workdir", t.TempDir()})

	err := rootCmd.Execute()
	if !errors.Is(err, ErrGateFailed) {
		t.Fatalf("expected gate failure, got: %v", err)
	}
	if !strings.Contains(err.Error(), "build") {
		t.Errorf("expected failing job name in error, got: %v", err)
	}

	output := stdout.String()
	if !strings.Contains(output, "skipped") {
		t.Errorf("expected dependent job to be skipped, got: %s", output)
	}
}

func TestRunCommand_InformationalFailureDoesNotGate(t *testing.T) {
	resetViper()
	resetRunFlags(t)

	path := writePipeline(t, `
name: demo
jobs:
  - name: build
    run: "true"
  - name: scan
    run: "exit 1"
    required: false
`)

	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stdout)
	rootCmd.SetArgs([]string{"run", path, "--workdir", t.TempDir()})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := stdout.String()
	if !strings.Contains(output, "all required jobs succeeded") {
		t.Errorf("expected pass verdict, got: %s", output)
	}
}

func TestRunCommand_MissingPipelineFile(t *testing.T) {
	resetViper()
	resetRunFlags(t)

	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stdout)
	rootCmd.SetArgs([]string{"run", filepath.Join(t.TempDir(), "missing.yaml")})

	if err := rootCmd.Execute(); err == nil {
		t.Fatal("expected error for missing pipeline file")
	}
}

func TestRunCommand_InvalidPipeline(t *testing.T) {
	resetViper()
	resetRunFlags(t)

	path := writePipeline(t, `
name: demo
jobs:
  - name: build
    run: "true"
    needs: [nonexistent]
`)

	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stdout)
	rootCmd.SetArgs([]string{"run", path})

	if err := rootCmd.Execute(); err == nil {
		t.Fatal("expected validation error for unknown needs reference")
	}
}

func TestRunCommand_PushRecordsRun(t *testing.T) {
	resetViper()
	resetRunFlags(t)

	var received api.IngestRunRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("failed to decode request body: %v", err)
		}

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(api.IngestRunResponse{RunID: "run-xyz", OverallOK: true})
	}))
	defer server.Close()

	viper.Set("url", server.URL)
	viper.Set("token", "test-token")

	path := writePipeline(t, `
name: demo
jobs:
  - name: build
    run: "true"
`)

	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stdout)
	rootCmd.SetArgs([]string{"run", path, "--workdir", t.TempDir(), "--push"})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if received.Pipeline != "demo" {
		t.Errorf("Pipeline = %q, want demo", received.Pipeline)
	}
	if received.Source != "runner" {
		t.Errorf("Source = %q, want runner", received.Source)
	}
	if received.Results["build"] != "success" {
		t.Errorf("Results[build] = %q, want success", received.Results["build"])
	}
	if len(received.Required) != 1 || received.Required[0] != "build" {
		t.Errorf("Required = %v, want [build]", received.Required)
	}
	if !strings.Contains(stdout.String(), "run-xyz") {
		t.Errorf("expected recorded run ID in output, got: %s", stdout.String())
	}
}
