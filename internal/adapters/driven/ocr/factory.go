// Package ocr builds the configured OCR provider.
package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/Bowriverstudio/fscrawler/internal/adapters/driven/ocr/google"
	"github.com/Bowriverstudio/fscrawler/internal/adapters/driven/ocr/microsoft"
	"github.com/Bowriverstudio/fscrawler/internal/adapters/driven/ocr/throttle"
	"github.com/Bowriverstudio/fscrawler/internal/core/domain"
	"github.com/Bowriverstudio/fscrawler/internal/core/ports/driven"
)

// defaultBurst is the token bucket size used when throttling is on.
const defaultBurst = 1

// Providers lists the supported provider names.
func Providers() []string {
	return []string{microsoft.Name, google.Name}
}

// CreateProvider creates the OCR provider named in settings.
// Returns nil if custom OCR is disabled.
func CreateProvider(ctx context.Context, settings domain.OCRSettings) (driven.OCRProvider, error) {
	if !settings.Enabled {
		return nil, nil
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	limiter := throttle.NewRateLimiter(settings.RequestsPerSecond, defaultBurst)

	switch strings.ToLower(settings.Provider) {
	case microsoft.Name:
		return microsoft.NewClient(microsoft.Config{
			SubscriptionKey: settings.SubscriptionKey,
			URL:             settings.URL,
			Limiter:         limiter,
		})

	case google.Name:
		return google.NewClient(ctx, google.Config{
			APIKey:  settings.SubscriptionKey,
			URL:     settings.URL,
			Limiter: limiter,
		})

	default:
		return nil, domain.ConfigError("fs.custom_ocr.provider",
			fmt.Errorf("%w: %s (supported: %s)", domain.ErrUnsupportedType,
				settings.Provider, strings.Join(Providers(), ", ")))
	}
}
