package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Bowriverstudio/fscrawler/internal/core/domain"
	"github.com/Bowriverstudio/fscrawler/internal/core/ports/driven"
)

// crawlStateStore implements driven.CrawlStateStore.
type crawlStateStore struct {
	store *Store
}

var _ driven.CrawlStateStore = (*crawlStateStore)(nil)

// List returns all tracked items of a job keyed by path.
func (s *crawlStateStore) List(ctx context.Context, job string) (map[string]domain.CrawlItemState, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT path, doc_id, is_dir, size, checksum, last_modified, last_indexed
		FROM crawl_states WHERE job = ?
	`, job)
	if err != nil {
		return nil, fmt.Errorf("querying crawl states: %w", err)
	}
	defer rows.Close()

	states := make(map[string]domain.CrawlItemState)
	for rows.Next() {
		var state domain.CrawlItemState
		var isDir int
		var checksum, lastModified, lastIndexed sql.NullString
		if err := rows.Scan(&state.Path, &state.ID, &isDir, &state.Size,
			&checksum, &lastModified, &lastIndexed); err != nil {
			return nil, fmt.Errorf("scanning crawl state: %w", err)
		}
		state.IsDir = isDir == 1
		state.Checksum = checksum.String
		state.LastModified = parseNullableTime(lastModified)
		state.LastIndexed = parseNullableTime(lastIndexed)
		states[state.Path] = state
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating crawl states: %w", err)
	}
	return states, nil
}

// Save stores or updates the state of one item.
func (s *crawlStateStore) Save(ctx context.Context, job string, state domain.CrawlItemState) error {
	if state.Path == "" {
		return domain.ErrInvalidInput
	}
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO crawl_states (job, path, doc_id, is_dir, size, checksum, last_modified, last_indexed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(job, path) DO UPDATE SET
			doc_id = excluded.doc_id,
			is_dir = excluded.is_dir,
			size = excluded.size,
			checksum = excluded.checksum,
			last_modified = excluded.last_modified,
			last_indexed = excluded.last_indexed
	`, job, state.Path, state.ID, boolToInt(state.IsDir), state.Size,
		nullString(state.Checksum), formatNullableTime(state.LastModified),
		formatNullableTime(state.LastIndexed))
	if err != nil {
		return fmt.Errorf("saving crawl state: %w", err)
	}
	return nil
}

// Delete evicts one item.
func (s *crawlStateStore) Delete(ctx context.Context, job, path string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM crawl_states WHERE job = ? AND path = ?", job, path)
	if err != nil {
		return fmt.Errorf("deleting crawl state: %w", err)
	}
	return nil
}

// Reset removes all state of a job.
func (s *crawlStateStore) Reset(ctx context.Context, job string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM crawl_states WHERE job = ?", job)
	if err != nil {
		return fmt.Errorf("resetting crawl state: %w", err)
	}
	return nil
}
