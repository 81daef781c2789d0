// Command fetchtrends downloads interest-over-time series for a keyword list
// in rate-limited batches and writes them as one table.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/saucepet/product-research/internal/config"
	"github.com/saucepet/product-research/internal/exporter"
	"github.com/saucepet/product-research/internal/infrastructure"
	"github.com/saucepet/product-research/internal/operations"
	"github.com/saucepet/product-research/internal/trends"
	"github.com/saucepet/product-research/internal/validation"
	"github.com/saucepet/product-research/pkg/contracts"
)

// Exit codes
const (
	exitOK          = 0
	exitFailure     = 1
	exitConfigError = 2
)

type options struct {
	configFile string
	keywords   string
	out        string
	geo        string
	timeframe  string
	preview    int
	version    bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr, nil)
	stop()
	os.Exit(code)
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet(config.AppName, flag.ContinueOnError)
	fs.SetOutput(stderr)

	opts := &options{}
	fs.StringVar(&opts.configFile, "config", "", "path to a YAML config file (or "+config.EnvPrefix+"_CONFIG_FILE)")
	fs.StringVar(&opts.keywords, "keywords", "", "keyword file, one keyword per line")
	fs.StringVar(&opts.out, "out", "", "output file (.csv, .tsv, .xlsx or .parquet)")
	fs.StringVar(&opts.geo, "geo", "", "region code, overrides GEO")
	fs.StringVar(&opts.timeframe, "timeframe", "", "timeframe, overrides TF")
	fs.IntVar(&opts.preview, "preview", 0, "print the last N rows of the merged table to stderr")
	fs.BoolVar(&opts.version, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return opts, nil
}

// applyFlags overlays command line values on cfg. Flags beat the environment.
func applyFlags(cfg *config.Config, opts *options) {
	if opts.keywords != "" {
		cfg.Output.KeywordsFile = opts.keywords
	}
	if opts.out != "" {
		cfg.Output.File = opts.out
	}
	if opts.geo != "" {
		cfg.Query.Geo = opts.geo
	}
	if opts.timeframe != "" {
		cfg.Query.Timeframe = opts.timeframe
	}
}

// run executes one invocation and returns the process exit code. A nil
// client selects the HTTP gateway client from the configuration.
func run(ctx context.Context, args []string, stdout, stderr io.Writer, client trends.Client) (code int) {
	var logger *slog.Logger
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(stderr, "PANIC RECOVERED: %v\n%s\n", r, debug.Stack())
			if logger != nil {
				logger.Error("fetchtrends panicked",
					slog.Any("panic", r),
					slog.String("stack", string(debug.Stack())))
			}
			code = exitFailure
		}
	}()

	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitConfigError
	}
	if opts.version {
		fmt.Fprintln(stdout, contracts.GetFullVersionString(config.AppName))
		return exitOK
	}

	cfg, err := config.Load(opts.configFile)
	if err != nil {
		return fail(stderr, nil, operations.NewConfigError("cannot load configuration", err))
	}
	applyFlags(&cfg, opts)
	if err := cfg.Validate(); err != nil {
		return fail(stderr, nil, operations.NewConfigError("invalid configuration", err))
	}

	paths, err := config.GetPaths(cfg)
	if err != nil {
		return fail(stderr, nil, operations.NewConfigError("cannot resolve paths", err))
	}
	if err := paths.EnsureDirectories(); err != nil {
		return fail(stderr, nil, operations.NewWriteError(paths.OutputDir, err))
	}
	cfg.Logging.FilePath = paths.LogFile

	logger, err = infrastructure.InitializeLogger(cfg.Logging, stderr)
	if err != nil {
		return fail(stderr, nil, operations.NewConfigError("cannot initialize logger", err))
	}
	defer infrastructure.CloseLogFile()

	ctx = infrastructure.ContextWithTraceID(ctx)
	logger.InfoContext(ctx, "fetchtrends starting",
		slog.String("version", config.AppVersion),
		slog.String("keywords_file", paths.KeywordsFile),
		slog.String("output_file", paths.OutputFile),
		slog.String("endpoint", cfg.Client.Endpoint))
	paths.LogPathResolution(logger)

	if err := preflight(logger, paths); err != nil {
		return fail(stderr, logger, err)
	}

	telemetry, err := infrastructure.InitializeTelemetry(ctx, cfg.Telemetry, logger)
	if err != nil {
		logger.WarnContext(ctx, "Telemetry disabled", slog.String("error", err.Error()))
		telemetry = infrastructure.NoopTelemetry()
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()

	if client == nil {
		client = trends.NewHTTPClient(cfg.Client, logger)
	}
	manager := operations.NewManager(cfg, client, exporter.NewWriter(cfg.Output, logger), paths.OutputFile,
		operations.WithLogger(logger),
		operations.WithTelemetry(telemetry))

	result, err := manager.RunFile(ctx, paths.KeywordsFile)
	if err != nil {
		return fail(stderr, logger, err)
	}

	if opts.preview != 0 {
		exporter.Preview(stderr, result.Table, opts.preview)
	}
	fmt.Fprintf(stdout, "Trends saved -> %s (%d rows)\n", result.OutputPath, result.Rows)
	return exitOK
}

// preflight checks the input and output files before any request is sent
func preflight(logger *slog.Logger, paths *config.Paths) error {
	v := validation.NewFileValidator(logger)
	if err := v.ValidateFile(paths.KeywordsFile); err != nil {
		return operations.NewConfigError("cannot load keywords", err)
	}
	if err := v.ValidateOutputFile(paths.OutputFile, exporter.SupportedExtensions()); err != nil {
		if errors.Is(err, validation.ErrUnsupportedExtension) {
			return operations.NewConfigError("invalid output file", err)
		}
		return operations.NewWriteError(paths.OutputFile, err)
	}
	return nil
}

// fail prints the final failure line and maps the error to an exit code
func fail(stderr io.Writer, logger *slog.Logger, err error) int {
	kind := operations.GetErrorType(err)
	if kind == "" {
		kind = "run"
	}
	fmt.Fprintf(stderr, "%s error: %v\n", kind, err)
	if logger != nil {
		logger.Error("fetchtrends failed", slog.String("error_type", string(kind)), slog.String("error", err.Error()))
	}

	if kind == operations.ErrorTypeConfig {
		return exitConfigError
	}
	return exitFailure
}
