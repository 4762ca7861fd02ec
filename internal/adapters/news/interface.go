package news

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/selivandex/portfolio-digest/pkg/logger"
	"github.com/selivandex/portfolio-digest/pkg/models"
)

// DefaultLimit is how many articles a provider is asked for
const DefaultLimit = 20

// Provider represents news source provider interface
type Provider interface {
	// GetName returns provider name
	GetName() string

	// FetchLatestNews fetches latest articles mentioning the tickers
	FetchLatestNews(ctx context.Context, tickers []string, limit int) ([]models.Article, error)

	// IsEnabled returns whether provider is enabled
	IsEnabled() bool
}

// FallbackSource asks providers in order and returns the first non-empty result
type FallbackSource struct {
	providers []Provider
	limit     int
}

// NewFallbackSource creates a source over the given providers
func NewFallbackSource(providers ...Provider) *FallbackSource {
	return &FallbackSource{providers: providers, limit: DefaultLimit}
}

// Fetch returns articles from the first provider that has any.
// Provider errors are logged and skipped; the last one is returned only when
// every enabled provider failed.
func (f *FallbackSource) Fetch(ctx context.Context, tickers []string) ([]models.Article, error) {
	var lastErr error
	enabled, failed := 0, 0

	for _, p := range f.providers {
		if !p.IsEnabled() {
			continue
		}
		enabled++

		articles, err := p.FetchLatestNews(ctx, tickers, f.limit)
		if err != nil {
			failed++
			lastErr = fmt.Errorf("%s: %w", p.GetName(), err)
			logger.Warn("news provider failed, trying next",
				zap.String("provider", p.GetName()),
				zap.Error(err),
			)
			continue
		}

		if len(articles) > 0 {
			logger.Debug("fetched news",
				zap.String("provider", p.GetName()),
				zap.Int("count", len(articles)),
				zap.Strings("tickers", tickers),
			)
			return articles, nil
		}
	}

	if enabled > 0 && failed == enabled {
		return nil, fmt.Errorf("all news providers failed: %w", lastErr)
	}
	return nil, nil
}

// Providers returns the names of enabled providers in order
func (f *FallbackSource) Providers() []string {
	names := make([]string, 0, len(f.providers))
	for _, p := range f.providers {
		if p.IsEnabled() {
			names = append(names, p.GetName())
		}
	}
	return names
}
