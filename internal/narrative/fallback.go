package narrative

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/selivandex/portfolio-digest/pkg/logger"
	"github.com/selivandex/portfolio-digest/pkg/models"
)

// Fallback runs Primary and, on any failure, Secondary. Callers never see the
// primary's error.
type Fallback struct {
	Primary   Generator
	Secondary Generator
	Timeout   time.Duration
}

// NewFallback creates a primary-then-secondary generator
func NewFallback(primary, secondary Generator, timeout time.Duration) *Fallback {
	if timeout <= 0 {
		timeout = DefaultDelegateTimeout
	}
	return &Fallback{Primary: primary, Secondary: secondary, Timeout: timeout}
}

func (f *Fallback) Name() string {
	return f.Primary.Name() + "+" + f.Secondary.Name()
}

// Narrate tries the primary once within the timeout, then the secondary
func (f *Fallback) Narrate(ctx context.Context, articles []models.Article, holdings []models.Holding) ([]models.ScoredEvent, error) {
	primaryCtx, cancel := context.WithTimeout(ctx, f.Timeout)
	events, err := f.Primary.Narrate(primaryCtx, articles, holdings)
	cancel()

	if err == nil && len(events) > 0 {
		logger.Debug("primary narrative used",
			zap.String("mode", f.Primary.Name()),
			zap.Int("events", len(events)),
		)
		return events, nil
	}

	logger.Warn("primary narrative failed, using fallback",
		zap.String("primary", f.Primary.Name()),
		zap.String("fallback", f.Secondary.Name()),
		zap.Error(err),
	)

	return f.Secondary.Narrate(ctx, articles, holdings)
}
