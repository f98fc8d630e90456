package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Bowriverstudio/fscrawler/internal/core/domain"
	"github.com/Bowriverstudio/fscrawler/internal/core/ports/driven"
)

// jobStatusStore implements driven.JobStatusStore.
type jobStatusStore struct {
	store *Store
}

var _ driven.JobStatusStore = (*jobStatusStore)(nil)

// GetStatus retrieves the status of a job.
// Returns nil and no error if the job never ran.
func (s *jobStatusStore) GetStatus(ctx context.Context, job string) (*domain.JobStatus, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT job, last_run, next_check, last_success, indexed, deleted, last_error
		FROM job_status WHERE job = ?
	`, job)

	var status domain.JobStatus
	var lastRun, nextCheck, lastSuccess, lastError sql.NullString
	err := row.Scan(&status.Name, &lastRun, &nextCheck, &lastSuccess,
		&status.Indexed, &status.Deleted, &lastError)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil // Per interface: return nil and no error if not found
	}
	if err != nil {
		return nil, fmt.Errorf("scanning job status: %w", err)
	}
	status.LastRun = parseNullableTime(lastRun)
	status.NextCheck = parseNullableTime(nextCheck)
	status.LastSuccess = parseNullableTime(lastSuccess)
	status.LastError = lastError.String
	return &status, nil
}

// SaveStatus persists a job's status.
func (s *jobStatusStore) SaveStatus(ctx context.Context, status *domain.JobStatus) error {
	if status == nil {
		return domain.ErrInvalidInput
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO job_status (job, last_run, next_check, last_success, indexed, deleted, last_error)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(job) DO UPDATE SET
			last_run = excluded.last_run,
			next_check = excluded.next_check,
			last_success = excluded.last_success,
			indexed = excluded.indexed,
			deleted = excluded.deleted,
			last_error = excluded.last_error
	`, status.Name, formatNullableTime(status.LastRun), formatNullableTime(status.NextCheck),
		formatNullableTime(status.LastSuccess), status.Indexed, status.Deleted,
		nullString(status.LastError))

	if err != nil {
		return fmt.Errorf("saving job status: %w", err)
	}
	return nil
}

// RecordRun logs a finished cycle.
func (s *jobStatusStore) RecordRun(ctx context.Context, run *domain.CycleRun) error {
	if run == nil {
		return domain.ErrInvalidInput
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO cycle_runs (job, started_at, ended_at, success, error, indexed, deleted, unchanged, failures)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.Job,
		formatNullableTime(run.StartedAt),
		formatNullableTime(run.EndedAt),
		boolToInt(run.Success),
		nullString(run.Error),
		run.Indexed, run.Deleted, run.Unchanged, run.Failures)

	if err != nil {
		return fmt.Errorf("recording cycle run: %w", err)
	}
	return nil
}

// History returns recent cycles of a job.
// Results are ordered by start time descending (most recent first).
func (s *jobStatusStore) History(ctx context.Context, job string, limit int) ([]domain.CycleRun, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT job, started_at, ended_at, success, error, indexed, deleted, unchanged, failures
		FROM cycle_runs
		WHERE job = ?
		ORDER BY started_at DESC, id DESC
		LIMIT ?
	`, job, limit)
	if err != nil {
		return nil, fmt.Errorf("querying cycle history: %w", err)
	}
	defer rows.Close()

	var runs []domain.CycleRun //nolint:prealloc // size unknown from query
	for rows.Next() {
		var run domain.CycleRun
		var startedAt, endedAt, errMsg sql.NullString
		var success int
		if err := rows.Scan(&run.Job, &startedAt, &endedAt, &success, &errMsg,
			&run.Indexed, &run.Deleted, &run.Unchanged, &run.Failures); err != nil {
			return nil, fmt.Errorf("scanning cycle run: %w", err)
		}
		run.StartedAt = parseNullableTime(startedAt)
		run.EndedAt = parseNullableTime(endedAt)
		run.Success = success == 1
		run.Error = errMsg.String
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating cycle history: %w", err)
	}
	return runs, nil
}

// PruneHistory removes cycles beyond the most recent keep entries.
func (s *jobStatusStore) PruneHistory(ctx context.Context, job string, keep int) error {
	_, err := s.store.db.ExecContext(ctx, `
		DELETE FROM cycle_runs
		WHERE job = ? AND id NOT IN (
			SELECT id FROM cycle_runs WHERE job = ?
			ORDER BY started_at DESC, id DESC
			LIMIT ?
		)
	`, job, job, keep)
	if err != nil {
		return fmt.Errorf("pruning cycle history: %w", err)
	}
	return nil
}
