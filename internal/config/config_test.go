package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Dicklesworthstone/tseg/internal/timeline"
)

func createTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing temp config: %v", err)
	}
	return path
}

// clearEnv isolates a test from TSEG_* variables set in the caller's shell.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		if name, _, ok := strings.Cut(kv, "="); ok && strings.HasPrefix(name, "TSEG_") {
			t.Setenv(name, "")
			os.Unsetenv(name)
		}
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Timeline.PixelsPerSecond <= 0 {
		t.Error("PixelsPerSecond should be positive")
	}
	if cfg.Timeline.HitTolerance != timeline.DefaultTolerance {
		t.Errorf("HitTolerance = %v, want %v", cfg.Timeline.HitTolerance, timeline.DefaultTolerance)
	}
	if len(cfg.Timeline.Palette) != 7 {
		t.Errorf("Palette has %d colours, want 7", len(cfg.Timeline.Palette))
	}
	if cfg.Store.Backend != "memory" {
		t.Errorf("Store.Backend = %q, want memory", cfg.Store.Backend)
	}
	if errs := Validate(cfg); len(errs) != 0 {
		t.Errorf("default config does not validate: %v", errs)
	}

	// Mutating one default must not leak into the next.
	cfg.Timeline.Palette[0] = "#000000"
	if Default().Timeline.Palette[0] != DefaultPalette[0] {
		t.Error("Default() shares the palette slice")
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot get user home dir")
	}

	tests := []struct {
		input    string
		expected string
	}{
		{"~", home},
		{"~/foo", filepath.Join(home, "foo")},
		{"/abs/path", "/abs/path"},
		{"rel/path", "rel/path"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ExpandHome(tt.input)
			if got != tt.expected {
				t.Errorf("ExpandHome(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestLoadNonExistent(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("/nonexistent/path/config.toml")
	if err != nil {
		t.Fatalf("Expected no error for non-existent config (should return defaults): %v", err)
	}
	if cfg.Timeline.FrameIntervalMs != Default().Timeline.FrameIntervalMs {
		t.Errorf("FrameIntervalMs = %d, want default", cfg.Timeline.FrameIntervalMs)
	}
}

func TestLoadFromFile(t *testing.T) {
	clearEnv(t)
	content := `
theme = "latte"

[timeline]
pixels_per_second = 20.0
window_span_seconds = 30.0
padding = 4
palette = ["#112233", "#445566"]

[playback]
default_mode = "review"
fast_rate = 8.0

[store]
backend = "sqlite"
path = "/tmp/annotations.db"

[log]
level = "debug"

[watch]
enabled = false
`
	path := createTempConfig(t, content)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Theme != "latte" {
		t.Errorf("Expected theme latte, got %s", cfg.Theme)
	}
	if cfg.Timeline.PixelsPerSecond != 20 || cfg.Timeline.WindowSpanSeconds != 30 || cfg.Timeline.Padding != 4 {
		t.Errorf("timeline = %+v", cfg.Timeline)
	}
	if len(cfg.Timeline.Palette) != 2 || cfg.Timeline.Palette[1] != "#445566" {
		t.Errorf("palette = %v", cfg.Timeline.Palette)
	}
	// Keys absent from the file keep their defaults.
	if cfg.Timeline.HitTolerance != timeline.DefaultTolerance {
		t.Errorf("hit_tolerance = %v, want default", cfg.Timeline.HitTolerance)
	}
	if cfg.PlaybackMode() != timeline.ModeReview {
		t.Errorf("PlaybackMode = %s, want review", cfg.PlaybackMode())
	}
	if cfg.Playback.FastRate != 8 {
		t.Errorf("fast_rate = %v, want 8", cfg.Playback.FastRate)
	}
	if cfg.Store.Backend != "sqlite" || cfg.Store.Path != "/tmp/annotations.db" {
		t.Errorf("store = %+v", cfg.Store)
	}
	if cfg.Log.SlogLevel() != slog.LevelDebug {
		t.Errorf("log level = %v, want debug", cfg.Log.SlogLevel())
	}
	if cfg.Watch.Enabled {
		t.Error("Expected watch disabled")
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	path := createTempConfig(t, `this is not valid TOML {{{`)
	if _, err := Load(path); err == nil {
		t.Error("Expected error for invalid TOML")
	}
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	path := createTempConfig(t, "[store]\nbackend = \"memory\"\n")

	t.Setenv("TSEG_STORE_BACKEND", "sqlite")
	t.Setenv("TSEG_MODE", "annotation")
	t.Setenv("TSEG_FAST_RATE", "4")
	t.Setenv("TSEG_PIXELS_PER_SECOND", "-1") // ignored
	t.Setenv("TSEG_WATCH_ENABLED", "0")
	t.Setenv("TSEG_LOG_FILE", "/tmp/tseg-test.log")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Store.Backend != "sqlite" {
		t.Errorf("env should override TOML backend, got %q", cfg.Store.Backend)
	}
	if cfg.PlaybackMode() != timeline.ModeAnnotation {
		t.Errorf("mode = %s, want annotation", cfg.PlaybackMode())
	}
	if cfg.Playback.FastRate != 4 {
		t.Errorf("fast_rate = %v, want 4", cfg.Playback.FastRate)
	}
	if cfg.Timeline.PixelsPerSecond != Default().Timeline.PixelsPerSecond {
		t.Errorf("invalid env value applied: %v", cfg.Timeline.PixelsPerSecond)
	}
	if cfg.Watch.Enabled {
		t.Error("TSEG_WATCH_ENABLED=0 should disable watching")
	}
	if cfg.Log.File != "/tmp/tseg-test.log" {
		t.Errorf("log file = %q", cfg.Log.File)
	}
}

func TestDefaultPath(t *testing.T) {
	t.Setenv("TSEG_CONFIG", "")
	t.Setenv("XDG_CONFIG_HOME", "/custom/xdg")
	if got := DefaultPath(); got != "/custom/xdg/tseg/config.toml" {
		t.Errorf("Expected /custom/xdg/tseg/config.toml, got %s", got)
	}

	t.Setenv("TSEG_CONFIG", "/explicit/tseg.toml")
	if got := DefaultPath(); got != "/explicit/tseg.toml" {
		t.Errorf("TSEG_CONFIG should win, got %s", got)
	}
}

func TestStoreSQLitePath(t *testing.T) {
	if got := (StoreConfig{}).SQLitePath("/data/interview.yaml"); got != "/data/interview.db" {
		t.Errorf("derived path = %q", got)
	}
	if got := (StoreConfig{Path: "/x/y.db"}).SQLitePath("/data/interview.yaml"); got != "/x/y.db" {
		t.Errorf("explicit path = %q", got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"bad theme", func(c *Config) { c.Theme = "neon" }, "theme"},
		{"no scale", func(c *Config) { c.Timeline.PixelsPerSecond = 0 }, "timeline"},
		{"negative padding", func(c *Config) { c.Timeline.Padding = -1 }, "timeline.padding"},
		{"zero tolerance", func(c *Config) { c.Timeline.HitTolerance = 0 }, "timeline.hit_tolerance"},
		{"frame interval", func(c *Config) { c.Timeline.FrameIntervalMs = 0 }, "timeline.frame_interval_ms"},
		{"bad colour", func(c *Config) { c.Timeline.Palette = []string{"orange"} }, "timeline.palette[0]"},
		{"empty palette", func(c *Config) { c.Timeline.Palette = nil }, "timeline.palette"},
		{"bad mode", func(c *Config) { c.Playback.DefaultMode = "turbo" }, "playback.default_mode"},
		{"bad rate", func(c *Config) { c.Playback.FastRate = 0 }, "playback.fast_rate"},
		{"bad backend", func(c *Config) { c.Store.Backend = "postgres" }, "store.backend"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"bad debounce", func(c *Config) { c.Watch.DebounceMs = -5 }, "watch.debounce_ms"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			errs := Validate(cfg)
			if len(errs) == 0 {
				t.Fatal("expected a validation error")
			}
			found := false
			for _, err := range errs {
				if strings.HasPrefix(err.Error(), tc.field) {
					found = true
				}
			}
			if !found {
				t.Errorf("no error for %s in %v", tc.field, errs)
			}
		})
	}

	if errs := Validate(nil); len(errs) != 1 {
		t.Errorf("Validate(nil) = %v", errs)
	}
}

func TestSpanOnlyIsValid(t *testing.T) {
	cfg := Default()
	cfg.Timeline.PixelsPerSecond = 0
	cfg.Timeline.WindowSpanSeconds = 20
	if errs := Validate(cfg); len(errs) != 0 {
		t.Errorf("fixed span without pixels_per_second should validate: %v", errs)
	}
}

func TestPrintRoundTrip(t *testing.T) {
	clearEnv(t)
	var buf bytes.Buffer
	if err := Print(Default(), &buf); err != nil {
		t.Fatalf("Print failed: %v", err)
	}
	out := buf.String()
	for _, section := range []string{"[timeline]", "[playback]", "[store]", "[log]", "[watch]"} {
		if !strings.Contains(out, section) {
			t.Errorf("Print output missing %s", section)
		}
	}

	path := createTempConfig(t, out)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("printed config does not parse: %v", err)
	}
	if cfg.Timeline.PixelsPerSecond != Default().Timeline.PixelsPerSecond {
		t.Errorf("pixels_per_second = %v after round trip", cfg.Timeline.PixelsPerSecond)
	}
	if cfg.Timeline.Palette[6] != DefaultPalette[6] {
		t.Errorf("palette = %v after round trip", cfg.Timeline.Palette)
	}
}

func TestCreateDefault(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("TSEG_CONFIG", "")
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	path, err := CreateDefault()
	if err != nil {
		t.Fatalf("CreateDefault failed: %v", err)
	}
	if path != filepath.Join(tmpDir, "tseg", "config.toml") {
		t.Errorf("path = %s", path)
	}
	if _, err := Load(path); err != nil {
		t.Errorf("Created config is not valid: %v", err)
	}

	if _, err := CreateDefault(); err == nil {
		t.Error("Expected error when config already exists")
	}
}
