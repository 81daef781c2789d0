package operations

import (
	"context"
	"log/slog"

	"github.com/saucepet/product-research/internal/config"
)

// Pacer spaces out successive batch fetches
type Pacer struct {
	cfg  config.PacingConfig
	opts options
}

// NewPacer creates a pacer from cfg
func NewPacer(cfg config.PacingConfig, opts ...Option) *Pacer {
	return &Pacer{cfg: cfg, opts: buildOptions(opts)}
}

// Pause blocks for BaseDelay plus jitter in [0, Jitter).
func (p *Pacer) Pause(ctx context.Context) error {
	wait := p.cfg.BaseDelay + p.opts.jitter(p.cfg.Jitter)

	p.opts.logger.DebugContext(ctx, "batch_pause", slog.Duration("wait", wait))
	p.opts.tracer.RecordPause(ctx, wait)

	return p.opts.sleeper.Sleep(ctx, wait)
}
