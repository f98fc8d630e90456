// Package microsoft provides an OCR provider backed by the Microsoft
// Computer Vision text recognition API.
package microsoft

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/Bowriverstudio/fscrawler/internal/adapters/driven/ocr/throttle"
	"github.com/Bowriverstudio/fscrawler/internal/core/domain"
	"github.com/Bowriverstudio/fscrawler/internal/core/ports/driven"
)

// Ensure Client implements the interface.
var _ driven.OCRProvider = (*Client)(nil)

// Name is the provider name used in settings.
const Name = "microsoft"

// Default configuration values.
const (
	DefaultTimeout      = 60 * time.Second
	DefaultPollInterval = time.Second
	DefaultMaxPolls     = 30
)

const subscriptionHeader = "Ocp-Apim-Subscription-Key"

// Operation states reported while polling.
const (
	statusSucceeded = "Succeeded"
	statusFailed    = "Failed"
)

// ErrRateLimited indicates the API rejected a call with 429.
var ErrRateLimited = errors.New("microsoft: rate limit exceeded")

// Config holds configuration for the Microsoft OCR client.
type Config struct {
	// SubscriptionKey is the Ocp-Apim-Subscription-Key (required).
	SubscriptionKey string

	// URL is the recognize endpoint (required).
	URL string

	// Timeout is the HTTP request timeout (default: 60s).
	Timeout time.Duration

	// PollInterval is the delay between operation status checks (default: 1s).
	PollInterval time.Duration

	// MaxPolls bounds status checks for one image (default: 30).
	MaxPolls int

	// Limiter throttles requests. Nil means unthrottled.
	Limiter *throttle.RateLimiter
}

// Client recognises text with the Microsoft vision API.
type Client struct {
	client       *http.Client
	url          string
	key          string
	pollInterval time.Duration
	maxPolls     int
	limiter      *throttle.RateLimiter
}

// recognizeResponse is the API response format.
type recognizeResponse struct {
	Status             string `json:"status"`
	RecognitionResults []struct {
		Page  int `json:"page"`
		Lines []struct {
			Text string `json:"text"`
		} `json:"lines"`
	} `json:"recognitionResults"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewClient creates a new Microsoft OCR client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.SubscriptionKey == "" {
		return nil, domain.ConfigError("fs.custom_ocr.subscription_key", errors.New("missing credentials"))
	}
	if cfg.URL == "" {
		return nil, domain.ConfigError("fs.custom_ocr.url", errors.New("missing endpoint"))
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.MaxPolls == 0 {
		cfg.MaxPolls = DefaultMaxPolls
	}

	return &Client{
		client:       &http.Client{Timeout: cfg.Timeout},
		url:          cfg.URL,
		key:          cfg.SubscriptionKey,
		pollInterval: cfg.PollInterval,
		maxPolls:     cfg.MaxPolls,
		limiter:      cfg.Limiter,
	}, nil
}

// Name returns the provider name.
func (c *Client) Name() string {
	return Name
}

// Recognize sends the image and returns the recognised pages.
// A 202 answer carrying Operation-Location is polled until the operation finishes.
func (c *Client) Recognize(ctx context.Context, content []byte) (*domain.OCRResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("microsoft: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set(subscriptionHeader, c.key)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("microsoft: send request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusAccepted:
		location := resp.Header.Get("Operation-Location")
		if location == "" {
			return nil, errors.New("microsoft: accepted without Operation-Location")
		}
		return c.poll(ctx, location)
	case resp.StatusCode == http.StatusOK:
		return c.decode(resp.Body)
	default:
		return nil, c.statusError(resp)
	}
}

// poll fetches the operation result until it succeeds or fails.
func (c *Client) poll(ctx context.Context, location string) (*domain.OCRResponse, error) {
	for i := 0; i < c.maxPolls; i++ {
		timer := time.NewTimer(c.pollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		parsed, done, err := c.check(ctx, location)
		if err != nil {
			return nil, err
		}
		if done {
			return parsed, nil
		}
	}
	return nil, fmt.Errorf("microsoft: operation not finished after %d polls", c.maxPolls)
}

func (c *Client) check(ctx context.Context, location string) (*domain.OCRResponse, bool, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, false, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, http.NoBody)
	if err != nil {
		return nil, false, fmt.Errorf("microsoft: create request: %w", err)
	}
	req.Header.Set(subscriptionHeader, c.key)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("microsoft: poll operation: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, false, c.statusError(resp)
	}

	var result recognizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, false, fmt.Errorf("microsoft: decode response: %w", err)
	}
	switch result.Status {
	case statusSucceeded:
		return convert(&result), true, nil
	case statusFailed:
		return nil, false, errors.New("microsoft: recognition failed")
	default:
		return nil, false, nil
	}
}

func (c *Client) decode(body io.Reader) (*domain.OCRResponse, error) {
	var result recognizeResponse
	if err := json.NewDecoder(body).Decode(&result); err != nil {
		return nil, fmt.Errorf("microsoft: decode response: %w", err)
	}
	if result.Error != nil {
		return nil, fmt.Errorf("microsoft: %s: %s", result.Error.Code, result.Error.Message)
	}
	return convert(&result), nil
}

func (c *Client) statusError(resp *http.Response) error {
	if resp.StatusCode == http.StatusTooManyRequests {
		seconds, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
		c.limiter.Backoff(time.Duration(seconds) * time.Second)
		return ErrRateLimited
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return fmt.Errorf("microsoft: API error (status %d): %s", resp.StatusCode, string(body))
}

func convert(result *recognizeResponse) *domain.OCRResponse {
	out := &domain.OCRResponse{Pages: make([]domain.OCRPage, 0, len(result.RecognitionResults))}
	for _, page := range result.RecognitionResults {
		lines := make([]domain.OCRLine, 0, len(page.Lines))
		for _, line := range page.Lines {
			lines = append(lines, domain.OCRLine{Text: line.Text})
		}
		out.Pages = append(out.Pages, domain.OCRPage{Lines: lines})
	}
	return out
}
