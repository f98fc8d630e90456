package driven

import "github.com/Bowriverstudio/fscrawler/internal/core/domain"

// CycleObserver records crawl cycle outcomes, typically as metrics.
type CycleObserver interface {
	// ObserveCycle is called once per finished cycle, including aborted ones.
	ObserveCycle(job string, stats *domain.CycleStats, err error)
}
