package redis

import "context"

// Lock guards a scheduled run across replicas.
// This allows swapping implementations (Redis, PostgreSQL advisory locks, etc.)
type Lock interface {
	// TryAcquire returns true if the lock was taken, false if someone else holds it
	TryAcquire(ctx context.Context) (bool, error)

	// Release releases the lock
	Release(ctx context.Context) error
}

// NoopLock is used when Redis is not configured: it always succeeds
type NoopLock struct{}

func (NoopLock) TryAcquire(context.Context) (bool, error) {
	return true, nil
}

func (NoopLock) Release(context.Context) error {
	return nil
}
