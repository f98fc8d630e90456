package domain

import "time"

// JobStatus is the persisted status of a crawl job between runs.
type JobStatus struct {
	// Name identifies the job.
	Name string

	// LastRun is when the last cycle started.
	LastRun time.Time

	// NextCheck is when the next cycle is due.
	NextCheck time.Time

	// LastSuccess is when a cycle last completed without error.
	LastSuccess time.Time

	// Indexed is the number of documents published by the last cycle.
	Indexed int

	// Deleted is the number of documents deleted by the last cycle.
	Deleted int

	// LastError contains the last error message, if any.
	LastError string
}

// CycleRun is the history record of one finished crawl cycle.
type CycleRun struct {
	// Job identifies the crawl job.
	Job string

	// StartedAt is when the cycle started.
	StartedAt time.Time

	// EndedAt is when the cycle ended.
	EndedAt time.Time

	// Success indicates whether the cycle completed without error.
	Success bool

	// Error contains the error message if Success is false.
	Error string

	Indexed   int
	Deleted   int
	Unchanged int
	Failures  int
}

// NewCycleRun builds the history record of a cycle.
func NewCycleRun(job string, stats *CycleStats, err error) CycleRun {
	run := CycleRun{Job: job, Success: err == nil}
	if err != nil {
		run.Error = err.Error()
	}
	if stats != nil {
		run.StartedAt = stats.StartedAt
		run.EndedAt = stats.EndedAt
		run.Indexed = stats.Indexed + stats.Folders
		run.Deleted = stats.Deleted
		run.Unchanged = stats.Unchanged
		run.Failures = len(stats.Failures)
	}
	return run
}

// Apply records a finished cycle on the status.
func (s *JobStatus) Apply(run CycleRun, next time.Time) {
	s.LastRun = run.StartedAt
	s.NextCheck = next
	s.Indexed = run.Indexed
	s.Deleted = run.Deleted
	s.LastError = run.Error
	if run.Success {
		s.LastSuccess = run.EndedAt
	}
}
