package digest

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/selivandex/portfolio-digest/pkg/logger"
	"github.com/selivandex/portfolio-digest/pkg/models"
)

// ErrRunInProgress is returned when another replica holds the run lock
var ErrRunInProgress = errors.New("digest run already in progress")

// Locker guards a run across replicas
type Locker interface {
	TryAcquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// FailureNotifier is told about runs that ended with a fatal error
type FailureNotifier interface {
	NotifyRunFailed(ctx context.Context, err error) error
}

// Job wraps the orchestrator for the scheduler and the HTTP trigger
type Job struct {
	orchestrator *Orchestrator
	lock         Locker
	notifiers    []FailureNotifier
}

// NewJob creates a job. A nil lock means runs are never mutually excluded.
func NewJob(orchestrator *Orchestrator, lock Locker, notifiers ...FailureNotifier) *Job {
	j := &Job{orchestrator: orchestrator, lock: lock}
	for _, n := range notifiers {
		if n != nil {
			j.notifiers = append(j.notifiers, n)
		}
	}
	return j
}

// Name implements worker.Worker
func (j *Job) Name() string {
	return "daily_digest"
}

// Run implements worker.Worker. A run skipped because of the lock is not an error.
func (j *Job) Run(ctx context.Context) error {
	_, err := j.Trigger(ctx)
	if errors.Is(err, ErrRunInProgress) {
		logger.Info("digest run skipped, lock held elsewhere")
		return nil
	}
	return err
}

// Trigger runs the digest once under the lock and returns its stats
func (j *Job) Trigger(ctx context.Context) (models.RunStats, error) {
	if j.lock != nil {
		acquired, err := j.lock.TryAcquire(ctx)
		if err != nil {
			return models.RunStats{}, fmt.Errorf("failed to acquire run lock: %w", err)
		}
		if !acquired {
			return models.RunStats{}, ErrRunInProgress
		}
		defer func() {
			if err := j.lock.Release(context.WithoutCancel(ctx)); err != nil {
				logger.Warn("failed to release run lock", zap.Error(err))
			}
		}()
	}

	stats, err := j.orchestrator.Run(ctx)
	if err != nil {
		j.notifyFailed(ctx, err)
		return stats, err
	}
	return stats, nil
}

func (j *Job) notifyFailed(ctx context.Context, runErr error) {
	ctx = context.WithoutCancel(ctx)
	for _, n := range j.notifiers {
		if err := n.NotifyRunFailed(ctx, runErr); err != nil {
			logger.Warn("failed to notify run failure", zap.Error(err))
		}
	}
}
