package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"pipegate/internal/result"
	"pipegate/internal/store"

	"github.com/google/uuid"
)

// CreateRun inserts the run and all of its job rows atomically.
func (s *Store) CreateRun(ctx context.Context, run *store.Run, jobs []store.RunJob) error {
	tx, err := s.begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertRun(ctx, tx, run); err != nil {
		return err
	}
	for i := range jobs {
		if err := insertRunJob(ctx, tx, run.ID, &jobs[i]); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func insertRun(ctx context.Context, tx store.DBTransaction, run *store.Run) error {
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, pipeline, source, overall_ok, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		run.ID, run.Pipeline, run.Source, run.OverallOK, run.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

func insertRunJob(ctx context.Context, tx store.DBTransaction, runID uuid.UUID, j *store.RunJob) error {
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO run_jobs (run_id, name, result, required, exit_code, error_message, started_at, completed_at, log_tail)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		runID, j.Name, string(j.Result), j.Required,
		j.ExitCode, j.ErrorMessage, j.StartedAt, j.CompletedAt, j.LogTail,
	); err != nil {
		return fmt.Errorf("failed to insert job %q: %w", j.Name, err)
	}
	return nil
}

// GetRunByID returns a run by its ID.
func (s *Store) GetRunByID(ctx context.Context, id uuid.UUID) (*store.Run, error) {
	query := `SELECT id, pipeline, source, overall_ok, created_at FROM runs WHERE id = $1`

	var executor store.DBTransaction = s.db

	var run store.Run
	err := executor.QueryRowContext(ctx, query, id).Scan(
		&run.ID, &run.Pipeline, &run.Source, &run.OverallOK, &run.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &run, nil
}

// GetRunJobs returns the job rows of a run in insertion order.
func (s *Store) GetRunJobs(ctx context.Context, runID uuid.UUID) ([]store.RunJob, error) {
	query := `
	SELECT id, run_id, name, result, required, exit_code, error_message, started_at, completed_at, log_tail
	FROM run_jobs
	WHERE run_id = $1
	ORDER BY id
	`

	var executor store.DBTransaction = s.db
	rows, err := executor.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []store.RunJob
	for rows.Next() {
		var j store.RunJob
		var rawResult string
		if err := rows.Scan(
			&j.ID, &j.RunID, &j.Name, &rawResult, &j.Required,
			&j.ExitCode, &j.ErrorMessage, &j.StartedAt, &j.CompletedAt, &j.LogTail,
		); err != nil {
			return nil, err
		}
		// The column has a CHECK constraint, but the closed set is
		// enforced here too so a bad row cannot cross the boundary.
		j.Result, err = result.Parse(rawResult)
		if err != nil {
			return nil, fmt.Errorf("run %s job %q: %w", runID, j.Name, err)
		}
		jobs = append(jobs, j)
	}

	return jobs, rows.Err()
}

// ListRuns returns recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit, offset int) ([]store.Run, error) {
	query := `
	SELECT id, pipeline, source, overall_ok, created_at
	FROM runs
	ORDER BY created_at DESC
	LIMIT $1 OFFSET $2
	`

	var executor store.DBTransaction = s.db
	rows, err := executor.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []store.Run
	for rows.Next() {
		var run store.Run
		if err := rows.Scan(&run.ID, &run.Pipeline, &run.Source, &run.OverallOK, &run.CreatedAt); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// CountRuns returns the total number of recorded runs.
func (s *Store) CountRuns(ctx context.Context) (int64, error) {
	var executor store.DBTransaction = s.db

	var count int64
	err := executor.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}
