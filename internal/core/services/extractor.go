package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/Bowriverstudio/fscrawler/internal/core/domain"
	"github.com/Bowriverstudio/fscrawler/internal/core/ports/driven"
	"github.com/Bowriverstudio/fscrawler/internal/logger"
)

// ContentExtractor turns raw file content into text and metadata.
// It reads content once, hashing it on the way, and falls back to OCR
// when the parsing backend finds no text.
type ContentExtractor struct {
	backend     driven.ParsingBackend
	ocr         driven.OCRProvider
	filter      *PathFilter
	fingerprint *Fingerprint

	indexedChars domain.IndexedChars
	ignoreAbove  int64
	ocrEnabled   bool
	jsonSupport  bool
	xmlSupport   bool
}

// NewContentExtractor creates an extractor.
// The OCR provider is optional - if nil, the OCR fallback is disabled.
func NewContentExtractor(
	backend driven.ParsingBackend,
	ocr driven.OCRProvider,
	filter *PathFilter,
	fingerprint *Fingerprint,
	fs domain.FsSettings,
) *ContentExtractor {
	if filter == nil {
		filter = NewPathFilter(nil, nil, nil)
	}
	return &ContentExtractor{
		backend:      backend,
		ocr:          ocr,
		filter:       filter,
		fingerprint:  fingerprint,
		indexedChars: fs.IndexedChars,
		ignoreAbove:  fs.IgnoreAbove,
		ocrEnabled:   fs.CustomOCR.Enabled && ocr != nil,
		jsonSupport:  fs.JSONSupport,
		xmlSupport:   fs.XMLSupport,
	}
}

// Read reads the content once and computes its checksum.
func (e *ContentExtractor) Read(r io.Reader) (Payload, error) {
	return e.fingerprint.Read(r)
}

// Extract reads r and extracts its text. sizeHint is the size reported by
// the source; zero means the size of the content read.
func (e *ContentExtractor) Extract(
	ctx context.Context,
	r io.Reader,
	filename string,
	sizeHint int64,
) (*domain.ExtractionResult, error) {
	payload, err := e.Read(r)
	if err != nil {
		return nil, err
	}
	return e.ExtractPayload(ctx, payload, filename, sizeHint)
}

// ExtractPayload extracts text from content that was already read.
func (e *ContentExtractor) ExtractPayload(
	ctx context.Context,
	payload Payload,
	filename string,
	sizeHint int64,
) (*domain.ExtractionResult, error) {
	size := sizeHint
	if size <= 0 {
		size = int64(len(payload.Content))
	}

	result := &domain.ExtractionResult{
		Checksum:    payload.Checksum,
		ContentType: http.DetectContentType(payload.Content),
		Metadata:    map[string]string{},
	}

	if e.ignoreAbove > 0 && size > e.ignoreAbove {
		logger.Debug("Skipping content of %s: %d bytes is above %d", filename, size, e.ignoreAbove)
		return result, nil
	}
	result.Content = payload.Content
	if err := e.parseStructured(result, filename); err != nil {
		return nil, err
	}

	limit := e.indexedChars.Limit(size)
	parsed, err := e.backend.Parse(ctx, driven.ParseRequest{
		Content:   payload.Content,
		Filename:  filename,
		Extension: Extension(filename),
		CharLimit: limit,
	})
	if err != nil {
		if errors.Is(err, domain.ErrSourceIO) || errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrExtraction, filename, err)
	}

	var clamped bool
	result.Text, clamped = domain.ClampText(parsed.Text, limit)
	result.Truncated = parsed.Truncated || clamped
	if parsed.ContentType != "" {
		result.ContentType = parsed.ContentType
	}
	for k, v := range parsed.Metadata {
		result.Metadata[k] = v
	}

	if strings.TrimSpace(result.Text) != "" || !e.ocrEnabled || !e.filter.IsOCREligible(filename) {
		return result, nil
	}

	logger.Debug("No text in %s, trying OCR with %s", filename, e.ocr.Name())
	resp, err := e.ocr.Recognize(ctx, payload.Content)
	if err != nil {
		logger.Warn("OCR failed for %s: %v", filename, err)
		result.Text = ""
		return result, nil
	}
	result.Text, result.Truncated = domain.ClampText(resp.Text(), limit)
	result.OCR = true
	return result, nil
}

// parseStructured parses JSON and XML bodies when their support is on.
func (e *ContentExtractor) parseStructured(result *domain.ExtractionResult, filename string) error {
	var (
		v   domain.Value
		err error
	)
	switch ext := Extension(filename); {
	case ext == "json" && e.jsonSupport:
		v, err = domain.ParseValue(result.Content)
	case ext == "xml" && e.xmlSupport:
		v, err = parseXMLValue(result.Content)
	default:
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrExtraction, filename, err)
	}
	result.Object = &v
	return nil
}

// Extension returns the lower-cased extension of filename without the dot.
func Extension(filename string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
}
