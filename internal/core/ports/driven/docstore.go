package driven

import "context"

// DocumentStore is the searchable store documents are published to.
// Both operations must be idempotent: repeating an upsert with the same
// id and payload, or deleting a missing id, has no further effect.
type DocumentStore interface {
	// Upsert stores or replaces the JSON document under id.
	// Pipeline names an optional ingest pipeline; stores without one ignore it.
	Upsert(ctx context.Context, index, id string, document []byte, pipeline string) error

	// Delete removes the document with id from index.
	Delete(ctx context.Context, index, id string) error

	// Location returns a human-readable address of a stored document.
	Location(index, id string) string

	// Close releases resources.
	Close() error
}
