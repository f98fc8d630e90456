package driving

import (
	"context"
	"io"

	"github.com/Bowriverstudio/fscrawler/internal/core/domain"
)

// AutoID requests a fresh time-ordered identifier for an upload.
const AutoID = "_auto_"

// Uploader indexes a single uploaded file.
type Uploader interface {
	Upload(ctx context.Context, req UploadRequest) (*UploadResponse, error)
}

// UploadRequest is one uploaded file.
type UploadRequest struct {
	// Filename is the client supplied file name.
	Filename string

	// Size is the declared size of the content. Zero when unknown.
	Size int64

	// Content is the file stream.
	Content io.Reader

	// ID is empty for a deterministic id, AutoID for a time-ordered one,
	// or an explicit identifier.
	ID string

	// Tags is an optional JSON overlay merged onto the document.
	Tags []byte

	// Debug echoes the document in the response.
	Debug bool

	// Simulate skips publishing.
	Simulate bool
}

// UploadResponse reports the outcome of an upload.
type UploadResponse struct {
	OK       bool             `json:"ok"`
	Filename string           `json:"filename"`
	ID       string           `json:"id,omitempty"`
	URL      string           `json:"url,omitempty"`
	Doc      *domain.Document `json:"doc,omitempty"`
}
