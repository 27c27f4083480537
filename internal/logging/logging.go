// Package logging builds the client's zap logger. Output goes to a JSON file
// because anything written to stdout or stderr would corrupt the TUI.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options configures New.
type Options struct {
	// Path is the log file. Empty discards logs.
	Path    string
	Verbose bool
	// Stderr additionally mirrors logs to stderr, for one-shot CLI commands.
	Stderr bool
}

// New returns a production zap logger writing to opts.Path, creating the
// parent directory if needed.
func New(opts Options) (*zap.Logger, error) {
	if opts.Path == "" && !opts.Stderr {
		return zap.NewNop(), nil
	}

	cfg := zap.NewProductionConfig()
	cfg.Sampling = nil
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.OutputPaths = nil
	cfg.ErrorOutputPaths = nil
	if opts.Verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	if opts.Path != "" {
		if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
		cfg.OutputPaths = append(cfg.OutputPaths, opts.Path)
		cfg.ErrorOutputPaths = append(cfg.ErrorOutputPaths, opts.Path)
	}
	if opts.Stderr {
		cfg.OutputPaths = append(cfg.OutputPaths, "stderr")
		cfg.ErrorOutputPaths = append(cfg.ErrorOutputPaths, "stderr")
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger.Named("harmonic"), nil
}
