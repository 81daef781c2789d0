package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains the file locations a run touches.
// Relative paths are resolved against the working directory.
type Paths struct {
	KeywordsFile string
	OutputDir    string
	OutputFile   string
	LogFile      string
}

// GetPaths resolves the paths named in cfg to absolute paths
func GetPaths(cfg Config) (*Paths, error) {
	keywords, err := filepath.Abs(cfg.Output.KeywordsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve keywords file: %w", err)
	}

	outDir, err := filepath.Abs(cfg.Output.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve output dir: %w", err)
	}

	outFile := cfg.Output.File
	if !filepath.IsAbs(outFile) {
		outFile = filepath.Join(outDir, outFile)
	}

	paths := &Paths{
		KeywordsFile: keywords,
		OutputDir:    filepath.Dir(outFile),
		OutputFile:   outFile,
	}
	if cfg.Logging.FilePath != "" {
		if paths.LogFile, err = filepath.Abs(cfg.Logging.FilePath); err != nil {
			return nil, fmt.Errorf("failed to resolve log file: %w", err)
		}
	}
	return paths, nil
}

// EnsureDirectories creates the output directory if it does not exist
func (p *Paths) EnsureDirectories() error {
	if err := os.MkdirAll(p.OutputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", p.OutputDir, err)
	}
	return nil
}

// LogPathResolution logs resolved paths for debugging
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	logger.Debug("Resolved paths",
		slog.String("keywords_file", p.KeywordsFile),
		slog.String("output_dir", p.OutputDir),
		slog.String("output_file", p.OutputFile),
		slog.String("log_file", p.LogFile))
}
