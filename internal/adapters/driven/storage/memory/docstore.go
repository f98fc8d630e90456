package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/Bowriverstudio/fscrawler/internal/core/domain"
	"github.com/Bowriverstudio/fscrawler/internal/core/ports/driven"
)

// Ensure DocumentStore implements the interface.
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore is an in-memory implementation of driven.DocumentStore.
// It keeps the raw JSON bodies per index and counts operations, which
// makes it usable for simulation runs and tests.
type DocumentStore struct {
	mu      sync.RWMutex
	indices map[string]map[string][]byte
	upserts int
	deletes int
}

// NewDocumentStore creates a new in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		indices: make(map[string]map[string][]byte),
	}
}

// Upsert stores or replaces a document. The body must be valid JSON.
func (s *DocumentStore) Upsert(_ context.Context, index, id string, document []byte, _ string) error {
	if id == "" {
		return fmt.Errorf("%w: empty document id", domain.ErrInvalidInput)
	}
	if !json.Valid(document) {
		return fmt.Errorf("%w: document body is not json", domain.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	docs, ok := s.indices[index]
	if !ok {
		docs = make(map[string][]byte)
		s.indices[index] = docs
	}
	docs[id] = append([]byte(nil), document...)
	s.upserts++
	return nil
}

// Delete removes a document. Deleting a missing id is not an error.
func (s *DocumentStore) Delete(_ context.Context, index, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.indices[index], id)
	s.deletes++
	return nil
}

// Location returns a pseudo URL for a stored document.
func (s *DocumentStore) Location(index, id string) string {
	return fmt.Sprintf("memory://%s/%s", index, id)
}

// Get returns a stored document body.
func (s *DocumentStore) Get(index, id string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.indices[index][id]
	return doc, ok
}

// IDs returns the sorted ids stored in an index.
func (s *DocumentStore) IDs(index string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.indices[index]))
	for id := range s.indices[index] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Counts returns the number of upsert and delete calls received.
func (s *DocumentStore) Counts() (upserts, deletes int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.upserts, s.deletes
}

// Close is a no-op.
func (s *DocumentStore) Close() error {
	return nil
}
