package validation

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

var (
	// ErrNotReadable is returned when an input file cannot be used
	ErrNotReadable = errors.New("input file not readable")
	// ErrNotWritable is returned when the output location cannot be written
	ErrNotWritable = errors.New("output location not writable")
	// ErrUnsupportedExtension is returned for an output file with an unknown extension
	ErrUnsupportedExtension = errors.New("unsupported output extension")
)

// FileValidator runs the file checks done before any network activity
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger,
	}
}

// ValidateFile checks if a specific file exists and is readable
func (v *FileValidator) ValidateFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("File does not exist",
			slog.String("file", path))
		return fmt.Errorf("%w: %s does not exist", ErrNotReadable, path)
	}
	if err != nil {
		v.logger.Error("Failed to stat file",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("%w: %s: %v", ErrNotReadable, path, err)
	}
	if info.IsDir() {
		v.logger.Error("Path is a directory, not a file",
			slog.String("path", path))
		return fmt.Errorf("%w: %s is a directory", ErrNotReadable, path)
	}

	// Check if file is readable by opening it
	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("File is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("%w: %s: %v", ErrNotReadable, path, err)
	}
	file.Close()

	v.logger.Debug("File validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateOutputDirectory ensures output directory exists or can be created
// and accepts new files.
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("%w: %s: %v", ErrNotWritable, dir, err)
	}

	probe, err := os.CreateTemp(dir, ".write_test*")
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("%w: %s: %v", ErrNotWritable, dir, err)
	}
	probe.Close()
	os.Remove(probe.Name())

	v.logger.Debug("Output directory validated",
		slog.String("directory", dir))
	return nil
}

// ValidateOutputFile checks that path has one of the allowed extensions,
// is not a directory and that its directory is writable.
func (v *FileValidator) ValidateOutputFile(path string, allowed []string) error {
	ext := strings.ToLower(filepath.Ext(path))
	if !slices.Contains(allowed, ext) {
		v.logger.Error("Unsupported output extension",
			slog.String("file", path),
			slog.String("extension", ext))
		return fmt.Errorf("%w: %q (want one of %s)", ErrUnsupportedExtension, ext, strings.Join(allowed, ", "))
	}

	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrNotWritable, path)
	}

	return v.ValidateOutputDirectory(filepath.Dir(path))
}
