package bleve

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve"

	"github.com/Bowriverstudio/fscrawler/internal/core/domain"
	"github.com/Bowriverstudio/fscrawler/internal/core/ports/driven"
	"github.com/Bowriverstudio/fscrawler/internal/logger"
)

// Ensure Store implements the interface.
var _ driven.DocumentStore = (*Store)(nil)

// indexExt is appended to index names to form their directory.
const indexExt = ".bleve"

// sourcePrefix namespaces raw document bodies in the internal key space.
const sourcePrefix = "_source/"

// Store publishes documents to bleve indexes, opened lazily by name.
type Store struct {
	dir string

	mu      sync.Mutex
	indexes map[string]bleve.Index
	closed  bool
}

// NewStore creates a store rooted at dir. An empty dir keeps indexes in memory.
func NewStore(dir string) (*Store, error) {
	if dir != "" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("creating index directory: %w", err)
		}
	}
	return &Store{
		dir:     dir,
		indexes: make(map[string]bleve.Index),
	}, nil
}

// Upsert indexes the JSON document under id, replacing any previous version.
// Local indexes have no ingest pipelines, so pipeline is ignored.
func (s *Store) Upsert(ctx context.Context, index, id string, document []byte, pipeline string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if id == "" {
		return fmt.Errorf("%w: empty document id", domain.ErrInvalidInput)
	}

	var fields map[string]interface{}
	if err := json.Unmarshal(document, &fields); err != nil {
		return fmt.Errorf("%w: document body: %v", domain.ErrInvalidInput, err)
	}
	if pipeline != "" {
		logger.Debug("bleve: ignoring pipeline %q for %s/%s", pipeline, index, id)
	}

	idx, err := s.index(index)
	if err != nil {
		return err
	}

	batch := idx.NewBatch()
	if err := batch.Index(id, fields); err != nil {
		return fmt.Errorf("indexing %s/%s: %w", index, id, err)
	}
	batch.SetInternal([]byte(sourcePrefix+id), document)
	if err := idx.Batch(batch); err != nil {
		return fmt.Errorf("indexing %s/%s: %w", index, id, err)
	}
	return nil
}

// Delete removes a document. Deleting a missing id is not an error.
func (s *Store) Delete(ctx context.Context, index, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	idx, err := s.index(index)
	if err != nil {
		return err
	}

	batch := idx.NewBatch()
	batch.Delete(id)
	batch.DeleteInternal([]byte(sourcePrefix + id))
	if err := idx.Batch(batch); err != nil {
		return fmt.Errorf("deleting %s/%s: %w", index, id, err)
	}
	return nil
}

// Location returns the address of a stored document.
func (s *Store) Location(index, id string) string {
	if s.dir == "" {
		return fmt.Sprintf("bleve://memory/%s/%s", index, id)
	}
	return fmt.Sprintf("bleve://%s/%s", s.indexPath(index), id)
}

// Get returns the raw body of a stored document.
func (s *Store) Get(index, id string) ([]byte, error) {
	idx, err := s.index(index)
	if err != nil {
		return nil, err
	}
	body, err := idx.GetInternal([]byte(sourcePrefix + id))
	if err != nil {
		return nil, fmt.Errorf("reading %s/%s: %w", index, id, err)
	}
	if body == nil {
		return nil, domain.ErrNotFound
	}
	return body, nil
}

// Count returns the number of documents in an index.
func (s *Store) Count(index string) (uint64, error) {
	idx, err := s.index(index)
	if err != nil {
		return 0, err
	}
	n, err := idx.DocCount()
	if err != nil {
		return 0, fmt.Errorf("counting %s: %w", index, err)
	}
	return n, nil
}

// Close closes all open indexes.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	var errs []error
	for name, idx := range s.indexes {
		if err := idx.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing %s: %w", name, err))
		}
	}
	s.indexes = nil
	return errors.Join(errs...)
}

// index returns the named index, opening or creating it on first use.
func (s *Store) index(name string) (bleve.Index, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty index name", domain.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, errors.New("bleve store is closed")
	}
	if idx, ok := s.indexes[name]; ok {
		return idx, nil
	}

	idx, err := s.open(name)
	if err != nil {
		return nil, fmt.Errorf("opening index %s: %w", name, err)
	}
	s.indexes[name] = idx
	return idx, nil
}

func (s *Store) open(name string) (bleve.Index, error) {
	if s.dir == "" {
		return bleve.NewMemOnly(bleve.NewIndexMapping())
	}
	path := s.indexPath(name)
	idx, err := bleve.Open(path)
	if errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
		return bleve.New(path, bleve.NewIndexMapping())
	}
	return idx, err
}

func (s *Store) indexPath(name string) string {
	return filepath.Join(s.dir, name+indexExt)
}
