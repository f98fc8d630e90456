package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Bowriverstudio/fscrawler/internal/core/domain"
	"github.com/Bowriverstudio/fscrawler/internal/core/ports/driven"
	"github.com/Bowriverstudio/fscrawler/internal/core/ports/driving"
	"github.com/Bowriverstudio/fscrawler/internal/logger"
)

// Ensure UploadService implements the interface.
var _ driving.Uploader = (*UploadService)(nil)

// UploadService indexes single uploaded files.
type UploadService struct {
	settings  domain.Settings
	extractor *ContentExtractor
	assembler *DocumentAssembler
	ids       *IDGenerator
	store     driven.DocumentStore
	retry     RetryConfig
	now       func() time.Time
}

// NewUploadService creates an upload service for one job.
// The OCR provider is optional.
func NewUploadService(
	settings domain.Settings,
	backend driven.ParsingBackend,
	ocr driven.OCRProvider,
	store driven.DocumentStore,
) (*UploadService, error) {
	fingerprint, err := NewFingerprint(settings.Fs.Checksum)
	if err != nil {
		return nil, err
	}
	filter := NewPathFilterFromSettings(settings.Fs)
	// Uploads always publish the assembled document, so structured bodies
	// are not parsed.
	fs := settings.Fs
	fs.JSONSupport, fs.XMLSupport = false, false
	return &UploadService{
		settings:  settings,
		extractor: NewContentExtractor(backend, ocr, filter, fingerprint, fs),
		assembler: NewDocumentAssembler(settings.Fs),
		ids:       NewIDGenerator(),
		store:     store,
		retry:     publishRetryConfig(settings.Store.PublishRetries, settings.Store.PublishBackoff.Duration),
		now:       time.Now,
	}, nil
}

// Upload extracts, assembles and publishes one file.
// Tags are merged before publishing; a malformed overlay is returned as
// an error wrapping domain.ErrMalformedOverlay.
func (u *UploadService) Upload(ctx context.Context, req driving.UploadRequest) (*driving.UploadResponse, error) {
	if req.Filename == "" || req.Content == nil {
		return nil, fmt.Errorf("%w: file is required", domain.ErrInvalidInput)
	}

	payload, err := u.extractor.Read(req.Content)
	if err != nil {
		return nil, err
	}
	size := req.Size
	if size <= 0 {
		size = int64(len(payload.Content))
	}
	ext, err := u.extractor.ExtractPayload(ctx, payload, req.Filename, size)
	if err != nil {
		return nil, err
	}

	candidate := domain.Candidate{
		RealPath:     req.Filename,
		VirtualPath:  req.Filename,
		Name:         req.Filename,
		Size:         size,
		LastModified: u.now(),
	}
	doc := u.assembler.Assemble(ext, candidate)
	doc.File.URL = ""
	doc.ID = u.resolveID(req)

	doc, err = MergeOverlay(doc, req.Tags)
	if err != nil {
		return nil, err
	}

	index := u.settings.Store.Index
	resp := &driving.UploadResponse{
		OK:       true,
		Filename: req.Filename,
		ID:       doc.ID,
		URL:      u.store.Location(index, doc.ID),
	}
	if req.Debug {
		resp.Doc = &doc
	}

	if req.Simulate {
		logger.Debug("Simulate mode: not indexing %s", req.Filename)
		return resp, nil
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	if err := retry(ctx, u.retry, func(ctx context.Context) error {
		return u.store.Upsert(ctx, index, doc.ID, body, u.settings.Store.Pipeline)
	}); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrPublish, err)
	}
	logger.Debug("Indexed upload %s as %s", req.Filename, doc.ID)
	return resp, nil
}

func (u *UploadService) resolveID(req driving.UploadRequest) string {
	switch req.ID {
	case "":
		return u.ids.Deterministic(req.Filename)
	case driving.AutoID:
		return u.ids.TimeOrdered()
	default:
		return req.ID
	}
}
