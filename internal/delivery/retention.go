package delivery

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/selivandex/portfolio-digest/pkg/logger"
)

// Pruner deletes old delivery entries
type Pruner interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// RetentionWorker trims the delivery log. Entries newer than a couple of days
// are needed for the once-per-day urgent check, so retention is at least 2 days.
type RetentionWorker struct {
	store Pruner
	keep  time.Duration
	now   func() time.Time
}

// NewRetentionWorker keeps the last days of entries
func NewRetentionWorker(store Pruner, days int) *RetentionWorker {
	if days < 2 {
		days = 2
	}
	return &RetentionWorker{
		store: store,
		keep:  time.Duration(days) * 24 * time.Hour,
		now:   time.Now,
	}
}

// Name implements worker.Worker
func (w *RetentionWorker) Name() string {
	return "delivery_log_retention"
}

// Run implements worker.Worker
func (w *RetentionWorker) Run(ctx context.Context) error {
	cutoff := w.now().Add(-w.keep)

	deleted, err := w.store.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to prune delivery log: %w", err)
	}

	if deleted > 0 {
		logger.Info("delivery log pruned",
			zap.Int64("deleted", deleted),
			zap.Time("cutoff", cutoff),
		)
	}
	return nil
}
