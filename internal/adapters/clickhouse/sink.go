package clickhouse

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/selivandex/portfolio-digest/pkg/logger"
	"github.com/selivandex/portfolio-digest/pkg/models"
)

type deliveryBuffer interface {
	Add(entry models.DeliveryEntry)
	Flush()
	Close() error
}

type runSaver interface {
	SaveRun(ctx context.Context, stats models.RunStats, finishedAt time.Time, duration time.Duration) error
}

// Sink mirrors deliveries and run totals into ClickHouse for analytics.
// Write failures are logged and never reach the digest run.
type Sink struct {
	deliveries deliveryBuffer
	runs       runSaver
	now        func() time.Time
}

// NewSink wires a repository with a delivery batch writer
func NewSink(repo *Repository, batchSize int, flushInterval time.Duration) *Sink {
	return &Sink{
		deliveries: NewDeliveryBatchWriter(repo, batchSize, flushInterval),
		runs:       repo,
		now:        time.Now,
	}
}

// OnDelivery buffers one delivery entry
func (s *Sink) OnDelivery(_ context.Context, entry models.DeliveryEntry) {
	s.deliveries.Add(entry)
}

// OnRunComplete flushes pending deliveries and records the run totals
func (s *Sink) OnRunComplete(ctx context.Context, stats models.RunStats, duration time.Duration) {
	s.deliveries.Flush()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	if err := s.runs.SaveRun(ctx, stats, s.now(), duration); err != nil {
		logger.Warn("failed to save run metrics", zap.Error(err))
	}
}

// Close flushes and stops the batch writer
func (s *Sink) Close() error {
	return s.deliveries.Close()
}
