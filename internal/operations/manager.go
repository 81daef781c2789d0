package operations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/saucepet/product-research/internal/config"
	"github.com/saucepet/product-research/internal/infrastructure"
	"github.com/saucepet/product-research/internal/keywords"
	"github.com/saucepet/product-research/internal/trends"
	"github.com/saucepet/product-research/pkg/contracts/domain"
)

// TableWriter persists the merged table
type TableWriter interface {
	Write(path string, table *domain.Table) error
}

// TableWriterFunc adapts a function to the TableWriter interface
type TableWriterFunc func(path string, table *domain.Table) error

// Write calls f
func (f TableWriterFunc) Write(path string, table *domain.Table) error {
	return f(path, table)
}

// Result describes a completed run
type Result struct {
	Table      *domain.Table
	OutputPath string
	Batches    int
	Rows       int
	Duration   time.Duration
}

// Manager runs the fetch pipeline for one keyword list
type Manager struct {
	cfg        config.Config
	params     domain.QueryParams
	fetcher    *Fetcher
	pacer      *Pacer
	writer     TableWriter
	outputPath string
	opts       options
}

// NewManager creates a pipeline that fetches through client and writes the
// merged table to outputPath.
func NewManager(cfg config.Config, client trends.Client, writer TableWriter, outputPath string, opts ...Option) *Manager {
	o := buildOptions(opts)
	shared := []Option{
		WithSleeper(o.sleeper),
		WithJitter(o.jitter),
		WithLogger(o.logger),
		func(dst *options) { dst.tracer = o.tracer },
	}

	return &Manager{
		cfg:        cfg,
		params:     cfg.Query.Params(),
		fetcher:    NewFetcher(client, cfg.Retry, shared...),
		pacer:      NewPacer(cfg.Pacing, shared...),
		writer:     writer,
		outputPath: outputPath,
		opts:       o,
	}
}

// RunFile loads keywords from path and runs the pipeline
func (m *Manager) RunFile(ctx context.Context, path string) (*Result, error) {
	kws, err := keywords.LoadFile(path)
	if err != nil {
		return nil, NewConfigError("cannot load keywords", err)
	}
	return m.Run(ctx, kws)
}

// Run fetches every batch in order, merges the results and writes the
// output. Any failure aborts the run and nothing is written.
func (m *Manager) Run(ctx context.Context, kws []string) (result *Result, err error) {
	start := time.Now()
	ctx = infrastructure.EnsureTraceID(ctx)

	if len(kws) == 0 {
		return nil, NewConfigError("cannot load keywords", keywords.ErrEmpty)
	}
	batches, err := Split(kws, m.cfg.Batch.Size)
	if err != nil {
		return nil, err
	}

	ctx, span := m.opts.tracer.TraceRun(ctx, len(kws), len(batches))
	defer func() {
		rows := 0
		if result != nil {
			rows = result.Rows
		}
		m.opts.tracer.RecordRunCompletion(ctx, span, time.Since(start), rows, err)
		span.End()
	}()

	m.opts.logger.InfoContext(ctx, "run_start",
		slog.Int("keywords", len(kws)),
		slog.Int("batches", len(batches)),
		slog.Int("batch_size", m.cfg.Batch.Size),
		slog.String("geo", m.params.Geo),
		slog.String("timeframe", m.params.Timeframe),
		slog.Duration("max_backoff_per_batch", m.fetcher.MaxWait()))

	tables, err := m.fetchAll(ctx, batches)
	if err != nil {
		m.logFailure(ctx, err)
		return nil, err
	}

	merged, err := m.merge(ctx, tables)
	if err != nil {
		m.logFailure(ctx, err)
		return nil, err
	}

	if err := m.write(ctx, merged); err != nil {
		m.logFailure(ctx, err)
		return nil, err
	}

	result = &Result{
		Table:      merged,
		OutputPath: m.outputPath,
		Batches:    len(batches),
		Rows:       len(merged.Rows),
		Duration:   time.Since(start),
	}
	m.opts.logger.InfoContext(ctx, "run_complete",
		slog.String("output", result.OutputPath),
		slog.Int("batches", result.Batches),
		slog.Int("columns", len(merged.Columns)),
		slog.Int("rows", result.Rows),
		slog.Duration("duration", result.Duration))
	return result, nil
}

// fetchAll fetches batches sequentially, pausing after each success
func (m *Manager) fetchAll(ctx context.Context, batches []domain.Batch) ([]*domain.Table, error) {
	tables := make([]*domain.Table, 0, len(batches))
	for i, batch := range batches {
		table, err := m.fetcher.Fetch(ctx, batch, m.params)
		if err != nil {
			return nil, err
		}
		tables = append(tables, table)

		m.opts.logger.InfoContext(ctx, "batch_complete",
			slog.Int("batch", i+1),
			slog.Int("total", len(batches)),
			slog.Any("keywords", []string(batch)),
			slog.Int("rows", len(table.Rows)))

		if i == len(batches)-1 && !m.cfg.Pacing.PauseAfterLast {
			continue
		}
		if err := m.pacer.Pause(ctx); err != nil {
			return nil, fmt.Errorf("pause after batch %d: %w", i+1, err)
		}
	}
	return tables, nil
}

func (m *Manager) merge(ctx context.Context, tables []*domain.Table) (*domain.Table, error) {
	_, span := m.opts.tracer.TraceStep(ctx, SpanMerge)
	defer span.End()

	merged, err := Merge(tables)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	return merged, nil
}

func (m *Manager) write(ctx context.Context, table *domain.Table) error {
	_, span := m.opts.tracer.TraceStep(ctx, SpanWrite)
	defer span.End()

	if err := m.writer.Write(m.outputPath, table); err != nil {
		var opErr *OperationError
		if !errors.As(err, &opErr) {
			err = NewWriteError(m.outputPath, err)
		}
		recordSpanError(span, err)
		return err
	}
	return nil
}

func (m *Manager) logFailure(ctx context.Context, err error) {
	infrastructure.WithError(m.opts.logger, err).ErrorContext(ctx, "run_failed",
		slog.String("error_type", string(GetErrorType(err))))
}
