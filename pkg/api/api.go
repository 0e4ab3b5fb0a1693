// Package api contains shared JSON request/response structs.
// This package is shared between the CLI and Controller.
package api

import (
	"encoding/json"
	"fmt"
	"time"
)

// ResultsMap maps job name to one of the four terminal result strings.
// On the wire it accepts two shapes: the plain form
// {"build": "success"} and the GitHub Actions needs-context form
// {"build": {"result": "success"}}, so a workflow can post toJson(needs)
// verbatim. It always marshals as the plain form.
type ResultsMap map[string]string

func (m *ResultsMap) UnmarshalJSON(data []byte) error {
	var plain map[string]string
	if err := json.Unmarshal(data, &plain); err == nil {
		*m = plain
		return nil
	}

	var needs map[string]struct {
		Result string `json:"result"`
	}
	if err := json.Unmarshal(data, &needs); err != nil {
		return fmt.Errorf("results must map job names to result strings or needs objects: %w", err)
	}
	out := make(map[string]string, len(needs))
	for name, entry := range needs {
		out[name] = entry.Result
	}
	*m = out
	return nil
}

// IngestRunRequest is the request body for recording a completed run.
// The external CI runner supplies Results once all of its jobs have
// terminated.
type IngestRunRequest struct {
	Pipeline string     `json:"pipeline"`
	Source   string     `json:"source,omitempty"`
	Results  ResultsMap `json:"results"`
	Required []string   `json:"required"`
}

// IngestRunResponse is the response body after recording a run.
type IngestRunResponse struct {
	RunID     string `json:"run_id"`
	OverallOK bool   `json:"overall_ok"`
}

// JobRowResponse is one job's line in a run or summary response.
type JobRowResponse struct {
	Name        string     `json:"name"`
	Result      string     `json:"result"`
	Required    bool       `json:"required"`
	ExitCode    *int       `json:"exit_code,omitempty"`
	Error       *string    `json:"error,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	LogTail     *string    `json:"log_tail,omitempty"`
}

// RunResponse represents a stored run in API responses.
type RunResponse struct {
	ID        string           `json:"id"`
	Pipeline  string           `json:"pipeline"`
	Source    string           `json:"source"`
	OverallOK bool             `json:"overall_ok"`
	CreatedAt time.Time        `json:"created_at"`
	Jobs      []JobRowResponse `json:"jobs,omitempty"`
}

// RunSummaryResponse is the aggregation summary of a stored run.
type RunSummaryResponse struct {
	RunID     string           `json:"run_id"`
	Pipeline  string           `json:"pipeline"`
	OverallOK bool             `json:"overall_ok"`
	Rows      []JobRowResponse `json:"rows"`
}

// ListRunsResponse is the response body for listing recent runs.
type ListRunsResponse struct {
	Runs []RunResponse `json:"runs"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}
