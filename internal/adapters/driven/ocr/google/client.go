// Package google provides an OCR provider backed by the Google Cloud Vision API.
package google

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	vision "google.golang.org/api/vision/v1"

	"github.com/Bowriverstudio/fscrawler/internal/adapters/driven/ocr/throttle"
	"github.com/Bowriverstudio/fscrawler/internal/core/domain"
	"github.com/Bowriverstudio/fscrawler/internal/core/ports/driven"
)

// Ensure Client implements the interface.
var _ driven.OCRProvider = (*Client)(nil)

// Name is the provider name used in settings.
const Name = "google"

// featureType asks for dense document text rather than sparse scene text.
const featureType = "DOCUMENT_TEXT_DETECTION"

// ErrRateLimited indicates the API rejected a call with 429.
var ErrRateLimited = errors.New("google: rate limit exceeded")

// Config holds configuration for the Google Vision client.
type Config struct {
	// APIKey authenticates requests (required).
	APIKey string

	// URL overrides the API endpoint. Empty uses the default endpoint.
	URL string

	// Limiter throttles requests. Nil means unthrottled.
	Limiter *throttle.RateLimiter
}

// Client recognises text with the Google Vision API.
type Client struct {
	service *vision.Service
	limiter *throttle.RateLimiter
}

// NewClient creates a new Google Vision OCR client.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, domain.ConfigError("fs.custom_ocr.subscription_key", errors.New("missing credentials"))
	}

	opts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.URL != "" {
		opts = append(opts, option.WithEndpoint(cfg.URL))
	}
	svc, err := vision.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("google: create vision service: %w", err)
	}

	return &Client{service: svc, limiter: cfg.Limiter}, nil
}

// Name returns the provider name.
func (c *Client) Name() string {
	return Name
}

// Recognize annotates the image and returns its text as a single page.
func (c *Client) Recognize(ctx context.Context, content []byte) (*domain.OCRResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req := &vision.BatchAnnotateImagesRequest{
		Requests: []*vision.AnnotateImageRequest{{
			Image:    &vision.Image{Content: base64.StdEncoding.EncodeToString(content)},
			Features: []*vision.Feature{{Type: featureType}},
		}},
	}
	resp, err := c.service.Images.Annotate(req).Context(ctx).Do()
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code == http.StatusTooManyRequests {
			c.limiter.Backoff(0)
			return nil, ErrRateLimited
		}
		return nil, fmt.Errorf("google: annotate image: %w", err)
	}
	if len(resp.Responses) == 0 {
		return &domain.OCRResponse{}, nil
	}

	image := resp.Responses[0]
	if image.Error != nil && image.Error.Code != 0 {
		return nil, fmt.Errorf("google: annotate image: %s (code %d)", image.Error.Message, image.Error.Code)
	}
	return convert(image), nil
}

func convert(image *vision.AnnotateImageResponse) *domain.OCRResponse {
	var text string
	switch {
	case image.FullTextAnnotation != nil:
		text = image.FullTextAnnotation.Text
	case len(image.TextAnnotations) > 0:
		text = image.TextAnnotations[0].Description
	}

	text = strings.TrimRight(text, "\n")
	if text == "" {
		return &domain.OCRResponse{}
	}

	var page domain.OCRPage
	for _, line := range strings.Split(text, "\n") {
		page.Lines = append(page.Lines, domain.OCRLine{Text: line})
	}
	return &domain.OCRResponse{Pages: []domain.OCRPage{page}}
}
