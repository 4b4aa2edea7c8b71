package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Dicklesworthstone/tseg/internal/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newLogger builds the process logger. The terminal belongs to the TUI, so
// records only ever go to a file; with no file configured they are dropped.
// --debug without a file falls back to the default state log.
func newLogger(c config.LogConfig, debug bool, override string) (*slog.Logger, io.Closer, error) {
	path := override
	if path == "" {
		path = c.File
	}
	if path == "" && debug {
		path = config.DefaultLogPath()
	}
	if path == "" {
		return discardLogger(), nil, nil
	}

	level := c.SlogLevel()
	if debug {
		level = slog.LevelDebug
	}

	path = config.ExpandHome(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	h := slog.NewTextHandler(f, &slog.HandlerOptions{Level: level})
	return slog.New(h).With("pid", os.Getpid()), f, nil
}
