package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/selivandex/portfolio-digest/pkg/logger"
)

// CronWorker runs a Worker on a standard five-field cron schedule.
// Overlapping fires are skipped while a run is still in progress.
type CronWorker struct {
	worker   Worker
	schedule string
	timeout  time.Duration
	cron     *cron.Cron
}

// NewCronWorker parses schedule and prepares the worker. timeout bounds a
// single run; zero means no bound.
func NewCronWorker(worker Worker, schedule string, timeout time.Duration, loc *time.Location) (*CronWorker, error) {
	if loc == nil {
		loc = time.Local
	}

	cw := &CronWorker{
		worker:   worker,
		schedule: schedule,
		timeout:  timeout,
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
	}

	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("failed to parse cron schedule %q: %w", schedule, err)
	}

	return cw, nil
}

// Start registers the job and starts the scheduler. Runs use ctx, so
// cancelling it interrupts a run in progress.
func (cw *CronWorker) Start(ctx context.Context) {
	_, err := cw.cron.AddFunc(cw.schedule, func() {
		cw.fire(ctx)
	})
	if err != nil {
		// Schedule was validated in NewCronWorker
		logger.Error("failed to register cron job",
			zap.String("worker", cw.worker.Name()),
			zap.Error(err),
		)
		return
	}

	cw.cron.Start()

	logger.Info("⏰ Cron worker scheduled",
		zap.String("worker", cw.worker.Name()),
		zap.String("schedule", cw.schedule),
		zap.Time("next", cw.Next()),
	)
}

// Stop stops scheduling and waits for a run in progress
func (cw *CronWorker) Stop(timeout time.Duration) {
	stopped := cw.cron.Stop()

	select {
	case <-stopped.Done():
		logger.Info("✅ Worker stopped gracefully",
			zap.String("worker", cw.worker.Name()),
		)
	case <-time.After(timeout):
		logger.Warn("⚠️ Worker stop timeout",
			zap.String("worker", cw.worker.Name()),
		)
	}
}

// Next returns the next scheduled fire time (zero before Start)
func (cw *CronWorker) Next() time.Time {
	entries := cw.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

func (cw *CronWorker) fire(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	if cw.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cw.timeout)
		defer cancel()
	}

	logger.Info("cron fired", zap.String("worker", cw.worker.Name()))
	execute(ctx, cw.worker)
}
