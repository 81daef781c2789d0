package operations

import (
	"log/slog"

	"github.com/saucepet/product-research/internal/infrastructure"
)

// Option configures the collaborators shared by Fetcher, Pacer and Manager
type Option func(*options)

type options struct {
	sleeper Sleeper
	jitter  JitterFunc
	logger  *slog.Logger
	tracer  *RunTracer
}

func buildOptions(opts []Option) options {
	o := options{
		sleeper: TimerSleeper{},
		jitter:  UniformJitter,
		logger:  infrastructure.GetLogger(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.tracer == nil {
		o.tracer = NewRunTracer(nil)
	}
	return o
}

// WithSleeper replaces the timer used for backoff and pacing waits
func WithSleeper(s Sleeper) Option {
	return func(o *options) {
		if s != nil {
			o.sleeper = s
		}
	}
}

// WithJitter replaces the random jitter source
func WithJitter(j JitterFunc) Option {
	return func(o *options) {
		if j != nil {
			o.jitter = j
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithTelemetry records spans and metrics on telemetry
func WithTelemetry(telemetry *infrastructure.Telemetry) Option {
	return func(o *options) {
		o.tracer = NewRunTracer(telemetry)
	}
}
