package operations

import (
	"context"
	"math/rand/v2"
	"time"
)

// Sleeper blocks for a duration or until ctx is done
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// SleeperFunc adapts a function to the Sleeper interface
type SleeperFunc func(ctx context.Context, d time.Duration) error

// Sleep calls f
func (f SleeperFunc) Sleep(ctx context.Context, d time.Duration) error {
	return f(ctx, d)
}

// TimerSleeper sleeps on a real timer
type TimerSleeper struct{}

// Sleep waits for d. It returns ctx.Err() if the context ends first.
func (TimerSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// JitterFunc returns a random duration in [0, limit)
type JitterFunc func(limit time.Duration) time.Duration

// UniformJitter draws uniformly from [0, limit). It returns 0 when limit <= 0.
func UniformJitter(limit time.Duration) time.Duration {
	if limit <= 0 {
		return 0
	}
	return rand.N(limit)
}
