package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown parser, store or OCR provider type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrSyncInProgress indicates a crawl cycle is already running.
	ErrSyncInProgress = errors.New("sync in progress")

	// Configuration Errors.

	// ErrConfiguration indicates the job settings are invalid.
	// Always fatal at startup.
	ErrConfiguration = errors.New("configuration error")

	// ErrUnsupportedAlgorithm indicates the checksum algorithm is not available.
	ErrUnsupportedAlgorithm = errors.New("unsupported checksum algorithm")

	// Pipeline Errors.

	// ErrFilter indicates an include or exclude pattern could not be compiled.
	// The pattern is treated as matching nothing.
	ErrFilter = errors.New("malformed filter pattern")

	// ErrSourceIO indicates the source byte stream could not be fully read.
	ErrSourceIO = errors.New("source read failed")

	// ErrExtraction indicates a parsing backend failed on an item.
	ErrExtraction = errors.New("extraction failed")

	// ErrMalformedOverlay indicates a user overlay could not be merged into a document.
	// It is a client input fault.
	ErrMalformedOverlay = errors.New("malformed overlay")

	// ErrPublish indicates the document store rejected an upsert or delete.
	ErrPublish = errors.New("publish failed")

	// ErrCycleAborted indicates a crawl cycle stopped before completion.
	ErrCycleAborted = errors.New("crawl cycle aborted")
)

// ConfigError builds a configuration error for the named setting.
func ConfigError(setting string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrConfiguration, setting, err)
}

// ItemError records a failure attached to a single crawl candidate.
type ItemError struct {
	// Path is the real path of the candidate.
	Path string

	// Err is the underlying failure.
	Err error
}

// Error implements the error interface.
func (e *ItemError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying failure.
func (e *ItemError) Unwrap() error {
	return e.Err
}
