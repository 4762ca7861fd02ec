package digest

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// DefaultSendDelay keeps under a 2 requests/second provider limit
const DefaultSendDelay = 600 * time.Millisecond

// Pacer spaces outbound sends
type Pacer interface {
	Wait(ctx context.Context) error
}

// FixedDelay sleeps a constant duration after each send
type FixedDelay struct {
	Delay time.Duration
}

// Wait sleeps for the delay or until ctx is done
func (f FixedDelay) Wait(ctx context.Context) error {
	if f.Delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(f.Delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TokenBucket allows bursts up to the bucket size, then paces to the rate
type TokenBucket struct {
	limiter *rate.Limiter
}

// NewTokenBucket creates a pacer allowing perSecond sends with the given burst
func NewTokenBucket(perSecond float64, burst int) *TokenBucket {
	if burst < 1 {
		burst = 1
	}
	return &TokenBucket{limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

// Wait blocks until a token is available
func (t *TokenBucket) Wait(ctx context.Context) error {
	return t.limiter.Wait(ctx)
}

// NewPacer picks a token bucket when a rate is configured, otherwise a fixed delay
func NewPacer(delay time.Duration, ratePerSec float64) Pacer {
	if ratePerSec > 0 {
		return NewTokenBucket(ratePerSec, 1)
	}
	return FixedDelay{Delay: delay}
}
