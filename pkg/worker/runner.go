// Package worker runs background jobs: on a fixed interval or on a cron schedule.
package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/selivandex/portfolio-digest/pkg/logger"
)

// Worker interface that background workers should implement
type Worker interface {
	// Name returns worker name for logging
	Name() string
	// Run executes one iteration of work
	Run(ctx context.Context) error
}

// Background is anything the group can start and stop
type Background interface {
	Start(ctx context.Context)
	Stop(timeout time.Duration)
}

// PeriodicWorker wraps a Worker with periodic execution
type PeriodicWorker struct {
	worker   Worker
	interval time.Duration
	wg       *sync.WaitGroup
	name     string
}

// NewPeriodicWorker creates new periodic worker
func NewPeriodicWorker(worker Worker, interval time.Duration) *PeriodicWorker {
	return &PeriodicWorker{
		worker:   worker,
		interval: interval,
		wg:       &sync.WaitGroup{},
		name:     worker.Name(),
	}
}

// Start runs the worker once immediately, then every interval until ctx is done
func (pw *PeriodicWorker) Start(ctx context.Context) {
	pw.wg.Add(1)
	go pw.run(ctx)
}

// Stop waits for graceful shutdown
func (pw *PeriodicWorker) Stop(timeout time.Duration) {
	waitStopped(pw.wg, pw.name, timeout)
}

func (pw *PeriodicWorker) run(ctx context.Context) {
	defer pw.wg.Done()

	logger.Info("🚀 Worker started",
		zap.String("worker", pw.name),
		zap.Duration("interval", pw.interval),
	)

	execute(ctx, pw.worker)

	ticker := time.NewTicker(pw.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("🛑 Worker stopping",
				zap.String("worker", pw.name),
			)
			return

		case <-ticker.C:
			execute(ctx, pw.worker)
		}
	}
}

// execute runs one iteration; errors and panics are logged, never fatal
func execute(ctx context.Context, w Worker) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("worker panicked",
				zap.String("worker", w.Name()),
				zap.Any("panic", r),
			)
		}
	}()

	if err := w.Run(ctx); err != nil {
		logger.Error("worker execution failed",
			zap.String("worker", w.Name()),
			zap.Error(err),
		)
	}
}

func waitStopped(wg *sync.WaitGroup, name string, timeout time.Duration) {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("✅ Worker stopped gracefully",
			zap.String("worker", name),
		)
	case <-time.After(timeout):
		logger.Warn("⚠️ Worker stop timeout",
			zap.String("worker", name),
		)
	}
}

// WorkerGroup manages multiple workers with graceful shutdown
type WorkerGroup struct {
	workers []Background
	ctx     context.Context
	cancel  context.CancelFunc
	mu      sync.Mutex
}

// NewWorkerGroup creates new worker group
func NewWorkerGroup(ctx context.Context) *WorkerGroup {
	ctx, cancel := context.WithCancel(ctx)
	return &WorkerGroup{
		ctx:    ctx,
		cancel: cancel,
	}
}

// Add adds an interval worker to the group
func (wg *WorkerGroup) Add(worker Worker, interval time.Duration) {
	wg.AddBackground(NewPeriodicWorker(worker, interval))
}

// AddBackground adds an already built worker (e.g. a CronWorker)
func (wg *WorkerGroup) AddBackground(b Background) {
	wg.mu.Lock()
	defer wg.mu.Unlock()

	wg.workers = append(wg.workers, b)
}

// Start starts all workers
func (wg *WorkerGroup) Start() {
	wg.mu.Lock()
	defer wg.mu.Unlock()

	for _, worker := range wg.workers {
		worker.Start(wg.ctx)
	}

	logger.Info("🚀 Worker group started",
		zap.Int("workers", len(wg.workers)),
	)
}

// Stop cancels the group context and waits for every worker
func (wg *WorkerGroup) Stop(timeout time.Duration) {
	logger.Info("🛑 Stopping worker group...",
		zap.Int("workers", len(wg.workers)),
	)

	wg.cancel()

	wg.mu.Lock()
	defer wg.mu.Unlock()

	for _, worker := range wg.workers {
		worker.Stop(timeout)
	}

	logger.Info("✅ Worker group stopped")
}

// RunBackground starts a single periodic worker
func RunBackground(ctx context.Context, worker Worker, interval time.Duration) *PeriodicWorker {
	pw := NewPeriodicWorker(worker, interval)
	pw.Start(ctx)
	return pw
}
