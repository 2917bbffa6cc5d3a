package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// RecordJobRun appends an audit row for a completed dispatcher run.
func (s *Store) RecordJobRun(ctx context.Context, jobName, runID string, lastError string, successCount, errorCount int) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := s.execWithRetry(
		ctx,
		`INSERT INTO job_runs (job_name, run_id, last_run, last_error, success_count, error_count, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		jobName,
		runID,
		now,
		nullableString(lastError),
		successCount,
		errorCount,
		now,
	); err != nil {
		return fmt.Errorf("record job run: %w", err)
	}
	return nil
}

// LastJobRun returns the most recent audit row for a job, or nil when the job
// has never run.
func (s *Store) LastJobRun(ctx context.Context, jobName string) (*JobRun, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT id, job_name, run_id, last_run, last_error, success_count, error_count, created_at
         FROM job_runs WHERE job_name = ? ORDER BY id DESC LIMIT 1`,
		jobName,
	)

	var (
		run       JobRun
		lastError sql.NullString
		lastRun   string
		created   string
	)
	err := row.Scan(&run.ID, &run.JobName, &run.RunID, &lastRun, &lastError, &run.SuccessCount, &run.ErrorCount, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get last job run: %w", err)
	}

	run.LastError = lastError.String
	if t, err := parseTimeString(lastRun); err == nil {
		run.LastRun = t
	}
	if t, err := parseTimeString(created); err == nil {
		run.CreatedAt = t
	}
	return &run, nil
}
