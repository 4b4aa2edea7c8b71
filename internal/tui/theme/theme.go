// Package theme provides the colour palette used by the annotator.
package theme

import (
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds the UI colours.
type Theme struct {
	Name string

	Base     lipgloss.Color
	Mantle   lipgloss.Color
	Surface0 lipgloss.Color
	Surface1 lipgloss.Color
	Surface2 lipgloss.Color
	Overlay  lipgloss.Color
	Subtext  lipgloss.Color
	Text     lipgloss.Color

	Primary  lipgloss.Color
	Lavender lipgloss.Color
	Pink     lipgloss.Color
	Red      lipgloss.Color
	Green    lipgloss.Color
	Yellow   lipgloss.Color
	Blue     lipgloss.Color

	Error   lipgloss.Color
	Warning lipgloss.Color
	Success lipgloss.Color

	// Segments is cycled by segment index.
	Segments []lipgloss.Color
}

// DefaultSegmentColors is a colour-blind safe palette.
var DefaultSegmentColors = []lipgloss.Color{
	"#E69F00",
	"#56B4E9",
	"#009E73",
	"#F0E442",
	"#0072B2",
	"#D55E00",
	"#CC79A7",
}

// Mocha is the dark theme.
var Mocha = Theme{
	Name:     "mocha",
	Base:     "#1e1e2e",
	Mantle:   "#181825",
	Surface0: "#313244",
	Surface1: "#45475a",
	Surface2: "#585b70",
	Overlay:  "#6c7086",
	Subtext:  "#a6adc8",
	Text:     "#cdd6f4",
	Primary:  "#89b4fa",
	Lavender: "#b4befe",
	Pink:     "#f5c2e7",
	Red:      "#f38ba8",
	Green:    "#a6e3a1",
	Yellow:   "#f9e2af",
	Blue:     "#89b4fa",
	Error:    "#f38ba8",
	Warning:  "#fab387",
	Success:  "#a6e3a1",
	Segments: DefaultSegmentColors,
}

// Latte is the light theme.
var Latte = Theme{
	Name:     "latte",
	Base:     "#eff1f5",
	Mantle:   "#e6e9ef",
	Surface0: "#ccd0da",
	Surface1: "#bcc0cc",
	Surface2: "#acb0be",
	Overlay:  "#9ca0b0",
	Subtext:  "#6c6f85",
	Text:     "#4c4f69",
	Primary:  "#1e66f5",
	Lavender: "#7287fd",
	Pink:     "#ea76cb",
	Red:      "#d20f39",
	Green:    "#40a02b",
	Yellow:   "#df8e1d",
	Blue:     "#1e66f5",
	Error:    "#d20f39",
	Warning:  "#fe640b",
	Success:  "#40a02b",
	Segments: DefaultSegmentColors,
}

// Plain is used when colour is disabled. Empty colours render unstyled.
var Plain = Theme{Name: "plain"}

var (
	mu      sync.RWMutex
	current *Theme
)

// NoColorEnabled reports whether colour output is disabled through a
// non-empty NO_COLOR or TSEG_NO_COLOR.
func NoColorEnabled() bool {
	if os.Getenv("NO_COLOR") != "" {
		return true
	}
	v := strings.ToLower(os.Getenv("TSEG_NO_COLOR"))
	return v == "1" || v == "true"
}

// ForName returns the named theme. "auto" and unknown names pick by
// terminal background.
func ForName(name string) Theme {
	if NoColorEnabled() {
		return Plain
	}
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "mocha":
		return Mocha
	case "latte":
		return Latte
	default:
		if lipgloss.HasDarkBackground() {
			return Mocha
		}
		return Latte
	}
}

// Init selects the theme and the lipgloss colour profile. palette, when
// non-empty, replaces the segment colours.
func Init(name string, palette []string) Theme {
	t := ForName(name)
	if NoColorEnabled() {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
	if len(palette) > 0 && t.Name != Plain.Name {
		colors := make([]lipgloss.Color, len(palette))
		for i, c := range palette {
			colors[i] = lipgloss.Color(c)
		}
		t.Segments = colors
	}
	mu.Lock()
	current = &t
	mu.Unlock()
	return t
}

// Current returns the active theme, initialising it from the environment
// on first use.
func Current() Theme {
	mu.RLock()
	t := current
	mu.RUnlock()
	if t != nil {
		return *t
	}
	return Init("auto", nil)
}

// SegmentColor returns the colour for the segment at display index i.
func (t Theme) SegmentColor(i int) lipgloss.Color {
	if len(t.Segments) == 0 {
		return t.Text
	}
	if i < 0 {
		i = -i
	}
	return t.Segments[i%len(t.Segments)]
}
