package driving

import (
	"context"
	"time"

	"github.com/Bowriverstudio/fscrawler/internal/core/domain"
)

// Crawler runs crawl cycles against a source.
type Crawler interface {
	// RunCycle runs one crawl cycle. It returns domain.ErrSyncInProgress
	// when a cycle is already running.
	RunCycle(ctx context.Context) (*domain.CycleStats, error)

	// Status returns the current state of the crawler.
	Status() CrawlStatus
}

// CrawlStatus represents the current state of the crawler.
type CrawlStatus struct {
	// Job identifies the crawl job.
	Job string

	// Phase is the current step of the cycle state machine.
	Phase domain.Phase

	// Running indicates if a cycle is in progress.
	Running bool

	// DocumentsProcessed is the count of documents published in the current or last cycle.
	DocumentsProcessed int

	// ErrorCount is the number of failures in the current or last cycle.
	ErrorCount int

	// LastCycle is when the last cycle ended.
	LastCycle time.Time

	// LastError is the error of the last cycle, if any.
	LastError string
}
