package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/amyangfei/redlock-go/v3/redlock"
	"go.uber.org/zap"

	"github.com/selivandex/portfolio-digest/pkg/logger"
)

// RunLockName is the key held while a scheduled run is in progress
const RunLockName = "digest:run:lock"

// DistributedLock wraps redlock-go so only one daemon replica runs a schedule tick
type DistributedLock struct {
	lockManager *redlock.RedLock
	lockName    string
	ttl         time.Duration

	mu     sync.Mutex
	locked bool
	stop   context.CancelFunc
}

// NewDistributedLock creates new distributed lock using redlock-go
func NewDistributedLock(lockManager *redlock.RedLock, name string, ttl time.Duration) *DistributedLock {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &DistributedLock{
		lockManager: lockManager,
		lockName:    name,
		ttl:         ttl,
	}
}

// TryAcquire attempts to take the lock.
// Returns false without error if another replica holds it.
func (dl *DistributedLock) TryAcquire(ctx context.Context) (bool, error) {
	expiry, err := dl.lockManager.Lock(ctx, dl.lockName, dl.ttl)
	if err != nil {
		logger.Debug("run lock already held by another replica",
			zap.String("lock_name", dl.lockName),
		)
		return false, nil
	}

	if expiry <= 0 {
		return false, fmt.Errorf("failed to acquire lock: invalid expiry %v", expiry)
	}

	renewCtx, stop := context.WithCancel(context.WithoutCancel(ctx))

	dl.mu.Lock()
	dl.locked = true
	dl.stop = stop
	dl.mu.Unlock()

	logger.Info("run lock acquired",
		zap.String("lock_name", dl.lockName),
		zap.Duration("ttl", dl.ttl),
		zap.Duration("expiry", expiry),
	)

	go dl.renewLock(renewCtx)

	return true, nil
}

// Release releases the lock; an already expired lock is not an error
func (dl *DistributedLock) Release(ctx context.Context) error {
	dl.mu.Lock()
	if !dl.locked {
		dl.mu.Unlock()
		return nil
	}
	dl.locked = false
	if dl.stop != nil {
		dl.stop()
	}
	dl.mu.Unlock()

	if err := dl.lockManager.UnLock(ctx, dl.lockName); err != nil {
		logger.Warn("failed to release lock (may have already expired)",
			zap.String("lock_name", dl.lockName),
			zap.Error(err),
		)
		return nil
	}

	logger.Info("run lock released", zap.String("lock_name", dl.lockName))
	return nil
}

// renewLock extends the lock at 2/3 of its TTL until released
func (dl *DistributedLock) renewLock(ctx context.Context) {
	ticker := time.NewTicker((dl.ttl * 2) / 3)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			if !dl.isLocked() {
				return
			}

			// redlock-go has no extend, so release and re-acquire
			if err := dl.lockManager.UnLock(ctx, dl.lockName); err != nil {
				logger.Error("lock renewal failed (unlock)", zap.Error(err))
				dl.setLocked(false)
				return
			}

			expiry, err := dl.lockManager.Lock(ctx, dl.lockName, dl.ttl)
			if err != nil || expiry <= 0 {
				logger.Error("run lock lost, another replica may have taken over",
					zap.String("lock_name", dl.lockName),
					zap.Error(err),
				)
				dl.setLocked(false)
				return
			}

			logger.Debug("run lock renewed", zap.Duration("expiry", expiry))
		}
	}
}

func (dl *DistributedLock) isLocked() bool {
	dl.mu.Lock()
	defer dl.mu.Unlock()
	return dl.locked
}

func (dl *DistributedLock) setLocked(v bool) {
	dl.mu.Lock()
	defer dl.mu.Unlock()
	dl.locked = v
}
