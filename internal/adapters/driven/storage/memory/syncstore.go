package memory

import (
	"context"
	"sync"

	"github.com/Bowriverstudio/fscrawler/internal/core/domain"
	"github.com/Bowriverstudio/fscrawler/internal/core/ports/driven"
)

// Ensure CrawlStateStore implements the interface.
var _ driven.CrawlStateStore = (*CrawlStateStore)(nil)

// CrawlStateStore is an in-memory implementation of driven.CrawlStateStore.
type CrawlStateStore struct {
	mu     sync.RWMutex
	states map[string]map[string]domain.CrawlItemState
}

// NewCrawlStateStore creates a new in-memory crawl state store.
func NewCrawlStateStore() *CrawlStateStore {
	return &CrawlStateStore{
		states: make(map[string]map[string]domain.CrawlItemState),
	}
}

// List returns a copy of all tracked items of a job.
func (s *CrawlStateStore) List(_ context.Context, job string) (map[string]domain.CrawlItemState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]domain.CrawlItemState, len(s.states[job]))
	for path, state := range s.states[job] {
		out[path] = state
	}
	return out, nil
}

// Save stores or updates the state of one item.
func (s *CrawlStateStore) Save(_ context.Context, job string, state domain.CrawlItemState) error {
	if state.Path == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	items, ok := s.states[job]
	if !ok {
		items = make(map[string]domain.CrawlItemState)
		s.states[job] = items
	}
	items[state.Path] = state
	return nil
}

// Delete evicts one item.
func (s *CrawlStateStore) Delete(_ context.Context, job, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states[job], path)
	return nil
}

// Reset removes all state of a job.
func (s *CrawlStateStore) Reset(_ context.Context, job string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, job)
	return nil
}
