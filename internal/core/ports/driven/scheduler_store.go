package driven

import (
	"context"

	"github.com/Bowriverstudio/fscrawler/internal/core/domain"
)

// JobStatusStore persists job status and cycle history.
type JobStatusStore interface {
	// GetStatus returns the status of a job.
	// Returns nil and no error if the job never ran.
	GetStatus(ctx context.Context, job string) (*domain.JobStatus, error)

	// SaveStatus creates or updates the status of a job.
	SaveStatus(ctx context.Context, status *domain.JobStatus) error

	// RecordRun appends a cycle to the job history.
	RecordRun(ctx context.Context, run *domain.CycleRun) error

	// History returns recent cycles of a job, most recent first.
	History(ctx context.Context, job string, limit int) ([]domain.CycleRun, error)

	// PruneHistory removes cycles beyond the most recent keep entries.
	PruneHistory(ctx context.Context, job string, keep int) error
}
