package driven

import (
	"context"
	"io"

	"github.com/Bowriverstudio/fscrawler/internal/core/domain"
)

// Source enumerates crawl candidates and serves their content.
type Source interface {
	// Validate checks the source root exists and is readable.
	Validate(ctx context.Context) error

	// Scan enumerates all candidates of one cycle. The skip function is
	// consulted for every entry; directories it rejects are not descended.
	// Scan fails as a whole when the root cannot be enumerated.
	Scan(ctx context.Context, skip SkipFunc) ([]domain.Candidate, error)

	// Open returns the content of a file candidate.
	Open(ctx context.Context, path string) (io.ReadCloser, error)

	// Close releases resources.
	Close() error
}

// SkipFunc reports whether a candidate must be left out of a scan.
type SkipFunc func(c domain.Candidate) bool

// Watcher notifies about changes below a source root.
type Watcher interface {
	// Watch sends a signal on the returned channel whenever something
	// changed. The channel closes when ctx is done.
	Watch(ctx context.Context) (<-chan struct{}, error)
}
