package driven

import (
	"context"

	"github.com/Bowriverstudio/fscrawler/internal/core/domain"
)

// CrawlStateStore persists per-item crawl state across process restarts.
// State is keyed by job name and item path.
type CrawlStateStore interface {
	// List returns all tracked items of a job keyed by path.
	List(ctx context.Context, job string) (map[string]domain.CrawlItemState, error)

	// Save stores or updates the state of one item.
	Save(ctx context.Context, job string, state domain.CrawlItemState) error

	// Delete evicts one item.
	Delete(ctx context.Context, job, path string) error

	// Reset removes all state of a job, forcing a full re-crawl.
	Reset(ctx context.Context, job string) error
}
