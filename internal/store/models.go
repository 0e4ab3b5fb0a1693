// Package store contains the run-history database layer for pipegate.
package store

import (
	"time"

	"pipegate/internal/result"

	"github.com/google/uuid"
)

// Run sources: a run either executed locally through the runner, or its
// results were ingested from an external CI system.
const (
	RunSourceRunner = "runner"
	RunSourceIngest = "ingest"
)

// Run represents one recorded pipeline run.
type Run struct {
	ID        uuid.UUID
	Pipeline  string
	Source    string
	OverallOK bool
	CreatedAt time.Time
}

// RunJob represents one job's terminal result within a run.
// The row is immutable once written; runs are recorded only after every
// job has reached a terminal state.
type RunJob struct {
	ID           int64
	RunID        uuid.UUID
	Name         string
	Result       result.Result
	Required     bool
	ExitCode     *int
	ErrorMessage *string
	StartedAt    *time.Time
	CompletedAt  *time.Time
	LogTail      *string
}
