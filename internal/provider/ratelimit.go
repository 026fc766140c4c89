package provider

import (
	"context"
	"sync"
	"time"
)

// Limiter enforces a minimum gap between consecutive provider calls across
// all concurrent callers. The wait and the timestamp update happen under one
// mutex so two simultaneous acquirers can never both proceed immediately.
type Limiter struct {
	mu          sync.Mutex
	minInterval time.Duration
	last        time.Time

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewLimiter creates a limiter with the given minimum inter-call interval.
func NewLimiter(minInterval time.Duration) *Limiter {
	return &Limiter{
		minInterval: minInterval,
		now:         time.Now,
		sleep:       sleepContext,
	}
}

// Acquire blocks until the minimum interval since the previous call has
// elapsed, then stamps the new call time. Callers are served one at a time.
func (l *Limiter) Acquire(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.last.IsZero() {
		if wait := l.minInterval - l.now().Sub(l.last); wait > 0 {
			if err := l.sleep(ctx, wait); err != nil {
				return err
			}
		}
	}

	l.last = l.now()
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
