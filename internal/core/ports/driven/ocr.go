package driven

import (
	"context"

	"github.com/Bowriverstudio/fscrawler/internal/core/domain"
)

// OCRProvider recognises text in image-like content.
// Credentials and endpoint are bound when the provider is built.
type OCRProvider interface {
	// Name returns the configured provider name.
	Name() string

	// Recognize returns the recognised pages and lines of content.
	Recognize(ctx context.Context, content []byte) (*domain.OCRResponse, error)
}
