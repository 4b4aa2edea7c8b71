package annotator

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// DefaultFrameInterval is roughly 30 frames per second.
const DefaultFrameInterval = 33 * time.Millisecond

// FrameMsg is one tick of the redraw loop.
type FrameMsg struct {
	gen  uint64
	Time time.Time
}

// FrameLoop is the owned redraw task. Every tick carries the generation it
// was scheduled under; ticks from before the last Stop or Start are stale
// and dropped, so at most one loop is ever live.
type FrameLoop struct {
	interval time.Duration
	gen      uint64
	running  bool
}

// NewFrameLoop creates a stopped loop.
func NewFrameLoop(interval time.Duration) *FrameLoop {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	return &FrameLoop{interval: interval}
}

// Interval returns the tick spacing.
func (l *FrameLoop) Interval() time.Duration { return l.interval }

// Running reports whether ticks are being accepted.
func (l *FrameLoop) Running() bool { return l.running }

// Start begins a new generation and schedules its first tick.
func (l *FrameLoop) Start() tea.Cmd {
	l.gen++
	l.running = true
	return l.Next()
}

// Stop cancels the loop. Ticks already in flight are dropped on arrival.
func (l *FrameLoop) Stop() {
	l.gen++
	l.running = false
}

// Accept reports whether msg belongs to the live generation.
func (l *FrameLoop) Accept(msg FrameMsg) bool {
	return l.running && msg.gen == l.gen
}

// Next schedules the following tick of the current generation.
func (l *FrameLoop) Next() tea.Cmd {
	if !l.running {
		return nil
	}
	gen := l.gen
	return tea.Tick(l.interval, func(t time.Time) tea.Msg {
		return FrameMsg{gen: gen, Time: t}
	})
}
