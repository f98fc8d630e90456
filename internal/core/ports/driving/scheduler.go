package driving

import "context"

// Scheduler repeats crawl cycles of one job.
type Scheduler interface {
	// Run executes cycles until the configured loop count is reached.
	// Blocks until then, or until context is cancelled.
	Run(ctx context.Context) error
}
