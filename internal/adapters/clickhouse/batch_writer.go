package clickhouse

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/selivandex/portfolio-digest/pkg/logger"
	"github.com/selivandex/portfolio-digest/pkg/models"
)

// FlushFunc writes one batch of buffered records
type FlushFunc[T any] func(ctx context.Context, records []T) error

// BatchWriter buffers records and writes them in batches
type BatchWriter[T any] struct {
	buffer      []T
	bufferMu    sync.Mutex
	maxBatch    int
	flushTicker *time.Ticker
	flushFunc   FlushFunc[T]
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
}

// NewBatchWriter creates new batch writer flushing at maxBatch records or every maxWait
func NewBatchWriter[T any](maxBatch int, maxWait time.Duration, flushFunc FlushFunc[T]) *BatchWriter[T] {
	if maxBatch <= 0 {
		maxBatch = 100
	}
	if maxWait <= 0 {
		maxWait = 10 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())

	bw := &BatchWriter[T]{
		buffer:      make([]T, 0, maxBatch),
		maxBatch:    maxBatch,
		flushTicker: time.NewTicker(maxWait),
		flushFunc:   flushFunc,
		ctx:         ctx,
		cancel:      cancel,
	}

	bw.wg.Add(1)
	go bw.autoFlush()

	return bw
}

// Add adds record to buffer
func (bw *BatchWriter[T]) Add(record T) {
	bw.bufferMu.Lock()
	bw.buffer = append(bw.buffer, record)
	shouldFlush := len(bw.buffer) >= bw.maxBatch
	bw.bufferMu.Unlock()

	if shouldFlush {
		bw.Flush()
	}
}

// autoFlush flushes buffer periodically
func (bw *BatchWriter[T]) autoFlush() {
	defer bw.wg.Done()

	for {
		select {
		case <-bw.flushTicker.C:
			bw.Flush()
		case <-bw.ctx.Done():
			// Final flush before exit
			bw.Flush()
			return
		}
	}
}

// Flush writes buffered records now
func (bw *BatchWriter[T]) Flush() {
	bw.bufferMu.Lock()
	if len(bw.buffer) == 0 {
		bw.bufferMu.Unlock()
		return
	}

	toWrite := make([]T, len(bw.buffer))
	copy(toWrite, bw.buffer)
	bw.buffer = bw.buffer[:0]
	bw.bufferMu.Unlock()

	// The writer's own ctx may already be cancelled during Close
	ctx, cancel := context.WithTimeout(context.WithoutCancel(bw.ctx), 30*time.Second)
	defer cancel()

	if err := bw.flushFunc(ctx, toWrite); err != nil {
		logger.Error("failed to flush batch to ClickHouse",
			zap.Int("records", len(toWrite)),
			zap.Error(err),
		)
		return
	}

	logger.Debug("flushed batch to ClickHouse",
		zap.Int("records", len(toWrite)),
	)
}

// Close stops the writer and flushes remaining data
func (bw *BatchWriter[T]) Close() error {
	bw.flushTicker.Stop()
	bw.cancel()
	bw.wg.Wait()
	return nil
}

// NewDeliveryBatchWriter creates batch writer for delivery log entries
func NewDeliveryBatchWriter(repo *Repository, maxBatch int, maxWait time.Duration) *BatchWriter[models.DeliveryEntry] {
	return NewBatchWriter(maxBatch, maxWait, repo.SaveDeliveries)
}
