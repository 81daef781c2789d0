package exporter

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/saucepet/product-research/internal/config"
	"github.com/saucepet/product-research/pkg/contracts/domain"
)

// ErrUnsupportedFormat is returned for an output extension with no encoder
var ErrUnsupportedFormat = errors.New("unsupported output format")

// Writer serializes tables to files, choosing the format from the extension
type Writer struct {
	csv       *CSVWriter
	bomPrefix bool
	logger    *slog.Logger
}

// NewWriter creates a writer using the output options in cfg
func NewWriter(cfg config.OutputConfig, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{
		csv:       NewCSVWriter(),
		bomPrefix: cfg.BOMPrefix,
		logger:    logger.With(slog.String("component", "exporter")),
	}
}

// SupportedExtensions lists the extensions Write accepts
func SupportedExtensions() []string {
	return []string{".csv", ".tsv", ".xlsx", ".parquet"}
}

// Write replaces the file at path with table. On error the destination is
// left untouched.
func (w *Writer) Write(path string, table *domain.Table) error {
	if table == nil {
		return errors.New("nil table")
	}

	encode, err := w.encoder(path, table)
	if err != nil {
		return err
	}

	w.logger.Info("Writing trends file",
		slog.String("file_path", path),
		slog.Int("columns", len(table.Columns)),
		slog.Int("record_count", len(table.Rows)))

	return writeAtomic(path, encode)
}

func (w *Writer) encoder(path string, table *domain.Table) (func(io.Writer) error, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv", ".tsv":
		opts := WriteOptions{
			Headers:   table.Header(),
			Records:   records(table),
			BOMPrefix: w.bomPrefix,
		}
		if ext == ".tsv" {
			opts.Comma = '\t'
		}
		return func(out io.Writer) error { return w.csv.WriteCSV(out, opts) }, nil
	case ".xlsx":
		return func(out io.Writer) error { return writeXLSX(out, table) }, nil
	case ".parquet":
		return func(out io.Writer) error { return writeParquet(out, table) }, nil
	default:
		return nil, fmt.Errorf("%w: %q (want one of %s)", ErrUnsupportedFormat, ext, strings.Join(SupportedExtensions(), ", "))
	}
}

// writeAtomic writes through encode into a temporary sibling of path and
// renames it over path once everything has been flushed.
func writeAtomic(path string, encode func(io.Writer) error) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	buf := bufio.NewWriter(tmp)
	if err := encode(buf); err != nil {
		return err
	}
	if err := buf.Flush(); err != nil {
		return fmt.Errorf("failed to flush: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move into place: %w", err)
	}
	return nil
}
