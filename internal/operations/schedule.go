package operations

import (
	"math"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/saucepet/product-research/internal/config"
)

const maxDelay = time.Duration(math.MaxInt64)

// NextDelay returns the base delay that follows current
func NextDelay(current time.Duration, multiplier float64) time.Duration {
	next := float64(current) * multiplier
	if next >= float64(maxDelay) {
		return maxDelay
	}
	return time.Duration(next)
}

// Schedule produces the waits between fetch attempts of one batch. The first
// wait is BaseDelay plus jitter and each later base grows by Multiplier.
// After MaxRetries-1 waits it returns backoff.Stop.
type Schedule struct {
	cfg     config.RetryConfig
	jitter  JitterFunc
	current time.Duration
	retries int
}

var _ backoff.BackOff = (*Schedule)(nil)

// NewSchedule creates a schedule positioned at the first retry
func NewSchedule(cfg config.RetryConfig, jitter JitterFunc) *Schedule {
	if jitter == nil {
		jitter = UniformJitter
	}
	s := &Schedule{cfg: cfg, jitter: jitter}
	s.Reset()
	return s
}

// Reset restarts the schedule at BaseDelay
func (s *Schedule) Reset() {
	s.current = s.cfg.BaseDelay
	s.retries = 0
}

// Current returns the base delay of the next wait, before jitter
func (s *Schedule) Current() time.Duration {
	return s.current
}

// Retries returns the number of waits handed out since the last Reset
func (s *Schedule) Retries() int {
	return s.retries
}

// NextBackOff implements backoff.BackOff
func (s *Schedule) NextBackOff() time.Duration {
	if s.retries >= s.cfg.MaxRetries-1 {
		return backoff.Stop
	}

	wait := s.current + s.jitter(s.cfg.Jitter)
	if wait < s.current {
		wait = maxDelay
	}
	s.current = NextDelay(s.current, s.cfg.Multiplier)
	s.retries++
	return wait
}
