package watcher

import (
	"log/slog"
	"time"
)

// ConfigValues holds the values needed to configure a project watcher.
// Primitive fields keep this package free of the config package.
type ConfigValues struct {
	Enabled    bool
	DebounceMs int
}

// NewFromConfig creates a Watcher for path, or returns nil when watching is
// disabled.
func NewFromConfig(cfg ConfigValues, path string, handler Handler, logger *slog.Logger) (*Watcher, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	opts := []Option{WithLogger(logger)}
	if cfg.DebounceMs > 0 {
		opts = append(opts, WithDebounce(time.Duration(cfg.DebounceMs)*time.Millisecond))
	}
	return New(path, handler, opts...)
}
