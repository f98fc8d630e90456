package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/Bowriverstudio/fscrawler/internal/core/domain"
	"github.com/Bowriverstudio/fscrawler/internal/core/ports/driven"
)

// Ensure JobStatusStore implements the interface.
var _ driven.JobStatusStore = (*JobStatusStore)(nil)

// JobStatusStore is an in-memory implementation of driven.JobStatusStore.
type JobStatusStore struct {
	mu       sync.RWMutex
	statuses map[string]domain.JobStatus
	runs     map[string][]domain.CycleRun
}

// NewJobStatusStore creates a new in-memory job status store.
func NewJobStatusStore() *JobStatusStore {
	return &JobStatusStore{
		statuses: make(map[string]domain.JobStatus),
		runs:     make(map[string][]domain.CycleRun),
	}
}

// GetStatus returns the status of a job, or nil if it never ran.
func (s *JobStatusStore) GetStatus(_ context.Context, job string) (*domain.JobStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	status, ok := s.statuses[job]
	if !ok {
		return nil, nil
	}
	return &status, nil
}

// SaveStatus creates or updates the status of a job.
func (s *JobStatusStore) SaveStatus(_ context.Context, status *domain.JobStatus) error {
	if status == nil {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[status.Name] = *status
	return nil
}

// RecordRun appends a cycle to the job history.
func (s *JobStatusStore) RecordRun(_ context.Context, run *domain.CycleRun) error {
	if run == nil {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.Job] = append(s.runs[run.Job], *run)
	return nil
}

// History returns recent cycles of a job, most recent first.
func (s *JobStatusStore) History(_ context.Context, job string, limit int) ([]domain.CycleRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	runs := append([]domain.CycleRun(nil), s.runs[job]...)
	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// PruneHistory keeps only the most recent keep cycles.
func (s *JobStatusStore) PruneHistory(ctx context.Context, job string, keep int) error {
	recent, err := s.History(ctx, job, keep)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[job] = recent
	return nil
}
