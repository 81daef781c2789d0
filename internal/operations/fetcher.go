package operations

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/saucepet/product-research/internal/config"
	"github.com/saucepet/product-research/internal/trends"
	"github.com/saucepet/product-research/pkg/contracts/domain"
)

// Fetcher wraps a trends client with bounded retry and exponential backoff
type Fetcher struct {
	client trends.Client
	cfg    config.RetryConfig
	opts   options
}

// NewFetcher creates a fetcher for client using the retry policy in cfg
func NewFetcher(client trends.Client, cfg config.RetryConfig, opts ...Option) *Fetcher {
	return &Fetcher{
		client: client,
		cfg:    cfg,
		opts:   buildOptions(opts),
	}
}

// fetchRun holds the state of one Fetch call
type fetchRun struct {
	state    FetchState
	attempt  int
	schedule *Schedule
	table    *domain.Table
	lastErr  error
}

// Fetch returns the batch's table with the partial-data column removed.
// Transient errors are retried until MaxRetries attempts have been made.
// Errors wrapped with backoff.Permanent end the fetch immediately. The
// returned error is always an *OperationError of type fetch.
func (f *Fetcher) Fetch(ctx context.Context, batch domain.Batch, params domain.QueryParams) (*domain.Table, error) {
	ctx, span := f.opts.tracer.TraceFetch(ctx, batch)
	defer span.End()

	run := &fetchRun{
		state:    StateAttempting,
		attempt:  1,
		schedule: NewSchedule(f.cfg, f.opts.jitter),
	}

	for !run.state.IsTerminal() {
		switch run.state {
		case StateAttempting:
			f.attempt(ctx, run, batch, params)
		case StateBackoff:
			f.backoff(ctx, run, batch)
		}
	}

	if run.state == StateExhausted {
		err := NewFetchError(batch, run.attempt, run.lastErr)
		f.opts.tracer.RecordFetchFailure(ctx, err)
		return nil, err
	}
	f.opts.tracer.RecordBatch(ctx, len(run.table.Rows))
	return run.table, nil
}

func (f *Fetcher) attempt(ctx context.Context, run *fetchRun, batch domain.Batch, params domain.QueryParams) {
	f.opts.tracer.RecordAttempt(ctx, run.attempt)

	raw, err := f.client.InterestOverTime(ctx, batch, params)
	if err == nil {
		if raw == nil {
			raw = &domain.Table{Columns: append([]string(nil), batch...)}
		}
		run.table = raw.DropColumn(domain.PartialColumn)
		run.state = StateSucceeded
		return
	}

	run.lastErr = err
	switch {
	case run.attempt >= f.cfg.MaxRetries:
		run.state = StateExhausted
	case isPermanent(err):
		f.opts.logger.WarnContext(ctx, "fetch_permanent_failure",
			slog.Any("batch", []string(batch)),
			slog.Int("attempt", run.attempt),
			slog.String("error", err.Error()))
		run.state = StateExhausted
	case ctx.Err() != nil:
		run.state = StateExhausted
	default:
		run.state = StateBackoff
	}
}

func (f *Fetcher) backoff(ctx context.Context, run *fetchRun, batch domain.Batch) {
	base := run.schedule.Current()
	wait := run.schedule.NextBackOff()
	if wait == backoff.Stop {
		run.state = StateExhausted
		return
	}

	f.opts.logger.WarnContext(ctx, "fetch_retry",
		slog.Any("batch", []string(batch)),
		slog.Int("attempt", run.attempt),
		slog.Int("max_retries", f.cfg.MaxRetries),
		slog.String("error", run.lastErr.Error()),
		slog.Duration("base_delay", base),
		slog.Duration("wait", wait))
	f.opts.tracer.RecordRetry(ctx, run.attempt, wait, run.lastErr)

	if err := f.opts.sleeper.Sleep(ctx, wait); err != nil {
		run.lastErr = errors.Join(run.lastErr, err)
		run.state = StateExhausted
		return
	}

	run.attempt++
	run.state = StateAttempting
}

// MaxWait returns the longest total backoff a single batch can spend
// sleeping, jitter included.
func (f *Fetcher) MaxWait() time.Duration {
	var total time.Duration
	s := NewSchedule(f.cfg, func(limit time.Duration) time.Duration { return limit })
	for wait := s.NextBackOff(); wait != backoff.Stop; wait = s.NextBackOff() {
		total += wait
		if total < 0 {
			return maxDelay
		}
	}
	return total
}

func isPermanent(err error) bool {
	var perm *backoff.PermanentError
	return errors.As(err, &perm)
}
