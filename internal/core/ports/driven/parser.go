package driven

import "context"

// ParsingBackend extracts text and metadata from raw content.
// It must stop once CharLimit characters are produced and report truncation.
type ParsingBackend interface {
	// Name identifies the backend in logs.
	Name() string

	// Parse extracts text from the request content.
	Parse(ctx context.Context, req ParseRequest) (*ParseResult, error)
}

// ParseRequest is the input of a parsing backend.
type ParseRequest struct {
	// Content is the raw file content.
	Content []byte

	// Filename is the original file name.
	Filename string

	// Extension is the lower-cased file extension without dot. A hint only.
	Extension string

	// CharLimit caps extracted characters. Negative means unlimited.
	CharLimit int
}

// ParseResult is the output of a parsing backend.
type ParseResult struct {
	Text        string
	Metadata    map[string]string
	Truncated   bool
	ContentType string
}
