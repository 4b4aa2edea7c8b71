package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/Dicklesworthstone/tseg/internal/timeline"
	"github.com/Dicklesworthstone/tseg/internal/util"
)

// Config is the tseg configuration.
type Config struct {
	// Theme selects the colour scheme (auto, mocha, latte).
	Theme string `toml:"theme"`

	Timeline TimelineConfig `toml:"timeline"`
	Playback PlaybackConfig `toml:"playback"`
	Store    StoreConfig    `toml:"store"`
	Log      LogConfig      `toml:"log"`
	Watch    WatchConfig    `toml:"watch"`
}

// TimelineConfig controls the geometry of the two timelines.
type TimelineConfig struct {
	// PixelsPerSecond sets the zoom scale; one terminal cell is one pixel.
	PixelsPerSecond float64 `toml:"pixels_per_second"`
	// WindowSpanSeconds fixes the zoom window length. Zero derives it from
	// the terminal width and PixelsPerSecond.
	WindowSpanSeconds float64 `toml:"window_span_seconds"`
	Padding           int     `toml:"padding"`
	HitTolerance      float64 `toml:"hit_tolerance"`
	FrameIntervalMs   int     `toml:"frame_interval_ms"`
	// Palette is cycled by segment index.
	Palette []string `toml:"palette"`
}

// PlaybackConfig controls the rate policy.
type PlaybackConfig struct {
	DefaultMode string  `toml:"default_mode"`
	FastRate    float64 `toml:"fast_rate"`
}

// StoreConfig selects the metadata store backend.
type StoreConfig struct {
	// Backend is "memory" or "sqlite".
	Backend string `toml:"backend"`
	// Path is the SQLite database. Empty places it next to the project
	// file with a .db extension.
	Path string `toml:"path"`
}

// LogConfig controls structured logging. The TUI owns the terminal, so
// logs only go to a file.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// WatchConfig controls reloading of the project file.
type WatchConfig struct {
	Enabled    bool `toml:"enabled"`
	DebounceMs int  `toml:"debounce_ms"`
}

// DefaultPalette is a colour-blind safe set of segment colours.
var DefaultPalette = []string{
	"#E69F00",
	"#56B4E9",
	"#009E73",
	"#F0E442",
	"#0072B2",
	"#D55E00",
	"#CC79A7",
}

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// DefaultPath returns the default config file path
func DefaultPath() string {
	if env := os.Getenv("TSEG_CONFIG"); env != "" {
		return ExpandHome(env)
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "tseg", "config.toml")
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = os.TempDir()
	}
	return filepath.Join(home, ".config", "tseg", "config.toml")
}

// DefaultLogPath is used when --debug is set without a log file.
func DefaultLogPath() string {
	if state := os.Getenv("XDG_STATE_HOME"); state != "" {
		return filepath.Join(state, "tseg", "tseg.log")
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(os.TempDir(), "tseg.log")
	}
	return filepath.Join(home, ".local", "state", "tseg", "tseg.log")
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Theme: "auto",
		Timeline: TimelineConfig{
			PixelsPerSecond: 10,
			Padding:         2,
			HitTolerance:    timeline.DefaultTolerance,
			FrameIntervalMs: 33,
			Palette:         append([]string(nil), DefaultPalette...),
		},
		Playback: PlaybackConfig{
			DefaultMode: timeline.ModeNormal.String(),
			FastRate:    timeline.FastRate,
		},
		Store: StoreConfig{
			Backend: "memory",
		},
		Log: LogConfig{
			Level: "info",
		},
		Watch: WatchConfig{
			Enabled:    true,
			DebounceMs: 200,
		},
	}
}

// Load reads configuration from path. Missing files yield the defaults.
// Precedence: environment > TOML > defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	cfg := Default()

	if data, err := os.ReadFile(path); err == nil {
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if theme := os.Getenv("TSEG_THEME"); theme != "" {
		cfg.Theme = theme
	}
	if pps := os.Getenv("TSEG_PIXELS_PER_SECOND"); pps != "" {
		if v, err := strconv.ParseFloat(pps, 64); err == nil && v > 0 {
			cfg.Timeline.PixelsPerSecond = v
		}
	}
	if span := os.Getenv("TSEG_WINDOW_SPAN"); span != "" {
		if v, err := strconv.ParseFloat(span, 64); err == nil && v >= 0 {
			cfg.Timeline.WindowSpanSeconds = v
		}
	}
	if interval := os.Getenv("TSEG_FRAME_INTERVAL_MS"); interval != "" {
		if n, err := strconv.Atoi(interval); err == nil && n > 0 {
			cfg.Timeline.FrameIntervalMs = n
		}
	}
	if mode := os.Getenv("TSEG_MODE"); mode != "" {
		cfg.Playback.DefaultMode = mode
	}
	if rate := os.Getenv("TSEG_FAST_RATE"); rate != "" {
		if v, err := strconv.ParseFloat(rate, 64); err == nil && v > 0 {
			cfg.Playback.FastRate = v
		}
	}
	if backend := os.Getenv("TSEG_STORE_BACKEND"); backend != "" {
		cfg.Store.Backend = backend
	}
	if p := os.Getenv("TSEG_STORE_PATH"); p != "" {
		cfg.Store.Path = p
	}
	if level := os.Getenv("TSEG_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if file := os.Getenv("TSEG_LOG_FILE"); file != "" {
		cfg.Log.File = file
	}
	if enabled := os.Getenv("TSEG_WATCH_ENABLED"); enabled != "" {
		cfg.Watch.Enabled = enabled == "1" || enabled == "true"
	}
}

// PlaybackMode returns the parsed default mode, falling back to normal.
func (c *Config) PlaybackMode() timeline.Mode {
	m, err := timeline.ParseMode(c.Playback.DefaultMode)
	if err != nil {
		return timeline.ModeNormal
	}
	return m
}

// SlogLevel maps the configured level name to a slog level.
func (c LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.Level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SQLitePath returns the database path for a project file.
func (c StoreConfig) SQLitePath(projectPath string) string {
	if c.Path != "" {
		return ExpandHome(c.Path)
	}
	ext := filepath.Ext(projectPath)
	return strings.TrimSuffix(projectPath, ext) + ".db"
}

// CreateDefault creates a default config file
func CreateDefault() (string, error) {
	path := DefaultPath()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating config directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("config file already exists: %s", path)
	}

	var buffer strings.Builder
	if err := Print(Default(), &buffer); err != nil {
		return "", err
	}

	if err := util.AtomicWriteFile(path, []byte(buffer.String()), 0644); err != nil {
		return "", err
	}

	return path, nil
}

// Print writes config to a writer in TOML format
func Print(cfg *Config, w io.Writer) error {
	fmt.Fprintln(w, "# tseg (terminal segment annotator) configuration")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "# UI theme (auto, mocha, latte)")
	fmt.Fprintf(w, "theme = %q\n", cfg.Theme)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "[timeline]")
	fmt.Fprintln(w, "# One terminal cell is one pixel")
	fmt.Fprintf(w, "pixels_per_second = %s\n", formatFloat(cfg.Timeline.PixelsPerSecond))
	if cfg.Timeline.WindowSpanSeconds > 0 {
		fmt.Fprintf(w, "window_span_seconds = %s\n", formatFloat(cfg.Timeline.WindowSpanSeconds))
	} else {
		fmt.Fprintln(w, "# window_span_seconds = 20.0  # default: derived from width")
	}
	fmt.Fprintf(w, "padding = %d\n", cfg.Timeline.Padding)
	fmt.Fprintf(w, "hit_tolerance = %s\n", formatFloat(cfg.Timeline.HitTolerance))
	fmt.Fprintf(w, "frame_interval_ms = %d\n", cfg.Timeline.FrameIntervalMs)
	fmt.Fprintf(w, "palette = %s\n", renderTOMLStringArray(cfg.Timeline.Palette))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "[playback]")
	fmt.Fprintln(w, "# normal, review (skim gaps), annotation (skim segments)")
	fmt.Fprintf(w, "default_mode = %q\n", cfg.Playback.DefaultMode)
	fmt.Fprintf(w, "fast_rate = %s\n", formatFloat(cfg.Playback.FastRate))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "[store]")
	fmt.Fprintln(w, "# memory or sqlite")
	fmt.Fprintf(w, "backend = %q\n", cfg.Store.Backend)
	if cfg.Store.Path != "" {
		fmt.Fprintf(w, "path = %q\n", cfg.Store.Path)
	} else {
		fmt.Fprintln(w, "# path = \"~/annotations.db\"  # default: next to the project file")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "[log]")
	fmt.Fprintf(w, "level = %q\n", cfg.Log.Level)
	if cfg.Log.File != "" {
		fmt.Fprintf(w, "file = %q\n", cfg.Log.File)
	} else {
		fmt.Fprintln(w, "# file = \"~/.local/state/tseg/tseg.log\"")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "[watch]")
	fmt.Fprintln(w, "# Reload the project file when it changes on disk")
	fmt.Fprintf(w, "enabled = %t\n", cfg.Watch.Enabled)
	fmt.Fprintf(w, "debounce_ms = %d\n", cfg.Watch.DebounceMs)

	return nil
}

func formatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

func renderTOMLStringArray(values []string) string {
	if len(values) == 0 {
		return "[]"
	}
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Quote(v)
	}
	return "[ " + strings.Join(parts, ", ") + " ]"
}

// ExpandHome expands the tilde (~) in a path to the user's home directory.
// Supports "~" and "~/path" formats.
func ExpandHome(path string) string {
	if path == "~" {
		home, err := os.UserHomeDir()
		if err == nil {
			return home
		}
		return path
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}

	return path
}

// Validate checks the configuration for errors and returns all issues found
func Validate(cfg *Config) []error {
	if cfg == nil {
		return []error{fmt.Errorf("config is nil")}
	}

	var errs []error

	switch strings.ToLower(strings.TrimSpace(cfg.Theme)) {
	case "", "auto", "mocha", "latte":
	default:
		errs = append(errs, fmt.Errorf("theme: must be auto, mocha, or latte, got %q", cfg.Theme))
	}

	tl := cfg.Timeline
	if tl.PixelsPerSecond <= 0 && tl.WindowSpanSeconds <= 0 {
		errs = append(errs, fmt.Errorf("timeline: pixels_per_second or window_span_seconds must be positive"))
	}
	if tl.PixelsPerSecond < 0 {
		errs = append(errs, fmt.Errorf("timeline.pixels_per_second: must be non-negative, got %g", tl.PixelsPerSecond))
	}
	if tl.WindowSpanSeconds < 0 {
		errs = append(errs, fmt.Errorf("timeline.window_span_seconds: must be non-negative, got %g", tl.WindowSpanSeconds))
	}
	if tl.Padding < 0 {
		errs = append(errs, fmt.Errorf("timeline.padding: must be non-negative, got %d", tl.Padding))
	}
	if tl.HitTolerance <= 0 {
		errs = append(errs, fmt.Errorf("timeline.hit_tolerance: must be positive, got %g", tl.HitTolerance))
	}
	if tl.FrameIntervalMs < 1 || tl.FrameIntervalMs > 1000 {
		errs = append(errs, fmt.Errorf("timeline.frame_interval_ms: must be between 1 and 1000, got %d", tl.FrameIntervalMs))
	}
	if len(tl.Palette) == 0 {
		errs = append(errs, fmt.Errorf("timeline.palette: must have at least one colour"))
	}
	for i, c := range tl.Palette {
		if !hexColor.MatchString(c) {
			errs = append(errs, fmt.Errorf("timeline.palette[%d]: %q is not a #RRGGBB colour", i, c))
		}
	}

	if _, err := timeline.ParseMode(cfg.Playback.DefaultMode); err != nil {
		errs = append(errs, fmt.Errorf("playback.default_mode: %w", err))
	}
	if cfg.Playback.FastRate <= 0 {
		errs = append(errs, fmt.Errorf("playback.fast_rate: must be positive, got %g", cfg.Playback.FastRate))
	}

	switch cfg.Store.Backend {
	case "memory", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("store.backend: must be \"memory\" or \"sqlite\", got %q", cfg.Store.Backend))
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Log.Level)) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level: must be debug, info, warn, or error, got %q", cfg.Log.Level))
	}

	if cfg.Watch.DebounceMs < 0 {
		errs = append(errs, fmt.Errorf("watch.debounce_ms: must be non-negative, got %d", cfg.Watch.DebounceMs))
	}

	return errs
}
