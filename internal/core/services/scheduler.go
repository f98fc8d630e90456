package services

import (
	"context"
	"errors"
	"time"

	"github.com/Bowriverstudio/fscrawler/internal/core/domain"
	"github.com/Bowriverstudio/fscrawler/internal/core/ports/driven"
	"github.com/Bowriverstudio/fscrawler/internal/core/ports/driving"
	"github.com/Bowriverstudio/fscrawler/internal/logger"
)

// DefaultDebounce is how long the scheduler waits for change events to
// settle before it starts an early cycle.
const DefaultDebounce = 2 * time.Second

// historyKeep bounds the stored cycle history per job.
const historyKeep = 100

// Verify interface compliance.
var _ driving.Scheduler = (*Scheduler)(nil)

// Scheduler runs crawl cycles at a fixed rate.
// It is a pure core service with no external control API.
type Scheduler struct {
	job      string
	rate     time.Duration
	loop     int
	crawler  driving.Crawler
	store    driven.JobStatusStore
	watcher  driven.Watcher
	debounce time.Duration
	now      func() time.Time
}

// NewScheduler creates a scheduler. A negative loop runs forever.
// The status store and watcher are optional - if nil, no status is
// persisted and cycles only run at the update rate.
func NewScheduler(
	job string,
	rate time.Duration,
	loop int,
	crawler driving.Crawler,
	store driven.JobStatusStore,
	watcher driven.Watcher,
) *Scheduler {
	if rate <= 0 {
		rate = domain.DefaultUpdateRate
	}
	return &Scheduler{
		job:      job,
		rate:     rate,
		loop:     loop,
		crawler:  crawler,
		store:    store,
		watcher:  watcher,
		debounce: DefaultDebounce,
		now:      time.Now,
	}
}

// Run executes cycles until the loop count is reached or ctx is done.
// Cycle failures are logged and do not stop the scheduler.
func (s *Scheduler) Run(ctx context.Context) error {
	if s.loop == 0 {
		return nil
	}

	var events <-chan struct{}
	if s.watcher != nil {
		ch, err := s.watcher.Watch(ctx)
		if err != nil {
			logger.Warn("scheduler: watch disabled: %v", err)
		} else {
			events = ch
		}
	}

	for runs := 0; ; {
		stats, err := s.crawler.RunCycle(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		switch {
		case errors.Is(err, domain.ErrSyncInProgress):
			logger.Debug("scheduler: cycle of %s already running", s.job)
		case err != nil:
			logger.Error("scheduler: cycle of %s failed: %v", s.job, err)
		}
		if !errors.Is(err, domain.ErrSyncInProgress) {
			runs++
			s.record(ctx, stats, err)
		}

		if s.loop > 0 && runs >= s.loop {
			return nil
		}
		if err := s.wait(ctx, events); err != nil {
			return err
		}
	}
}

// wait blocks until the update rate elapsed or a debounced change event arrived.
func (s *Scheduler) wait(ctx context.Context, events <-chan struct{}) error {
	timer := time.NewTimer(s.rate)
	defer timer.Stop()
	logger.Debug("scheduler: next cycle of %s at %s", s.job, s.now().Add(s.rate).Format(time.RFC3339))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return nil
		case _, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			return s.settle(ctx, events)
		}
	}
}

// settle waits until no event arrived for the debounce period.
func (s *Scheduler) settle(ctx context.Context, events <-chan struct{}) error {
	quiet := time.NewTimer(s.debounce)
	defer quiet.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-quiet.C:
			logger.Debug("scheduler: change detected for %s", s.job)
			return nil
		case _, ok := <-events:
			if !ok {
				return nil
			}
			quiet.Reset(s.debounce)
		}
	}
}

func (s *Scheduler) record(ctx context.Context, stats *domain.CycleStats, err error) {
	if s.store == nil {
		return
	}
	run := domain.NewCycleRun(s.job, stats, err)
	if run.StartedAt.IsZero() {
		run.StartedAt = s.now()
		run.EndedAt = run.StartedAt
	}
	if recordErr := s.store.RecordRun(ctx, &run); recordErr != nil {
		logger.Warn("scheduler: failed to record cycle of %s: %v", s.job, recordErr)
	}
	if pruneErr := s.store.PruneHistory(ctx, s.job, historyKeep); pruneErr != nil {
		logger.Warn("scheduler: failed to prune history of %s: %v", s.job, pruneErr)
	}

	status, getErr := s.store.GetStatus(ctx, s.job)
	if getErr != nil {
		logger.Warn("scheduler: failed to load status of %s: %v", s.job, getErr)
	}
	if status == nil {
		status = &domain.JobStatus{Name: s.job}
	}
	status.Apply(run, s.now().Add(s.rate))
	if saveErr := s.store.SaveStatus(ctx, status); saveErr != nil {
		logger.Warn("scheduler: failed to save status of %s: %v", s.job, saveErr)
	}
}
