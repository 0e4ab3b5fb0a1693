package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = errors.New("not found")

// DBTransaction defines the methods shared by *sql.DB and *sql.Tx.
// This allows us to pass either a connection pool or an active transaction to the repository methods.
type DBTransaction interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type Tx interface {
	DBTransaction
	Commit() error
	Rollback() error
}

// RunStore handles persistence of pipeline runs and their job results.
type RunStore interface {
	// CreateRun inserts a run and all of its job rows in one transaction.
	CreateRun(ctx context.Context, run *Run, jobs []RunJob) error

	// GetRunByID returns a run by its ID.
	GetRunByID(ctx context.Context, id uuid.UUID) (*Run, error)

	// GetRunJobs returns the job rows of a run in insertion order.
	GetRunJobs(ctx context.Context, runID uuid.UUID) ([]RunJob, error)

	// ListRuns returns recent runs, newest first.
	ListRuns(ctx context.Context, limit, offset int) ([]Run, error)

	// CountRuns returns the total number of recorded runs.
	CountRuns(ctx context.Context) (int64, error)
}
