package timeline

import (
	"context"
	"log/slog"

	"github.com/Dicklesworthstone/tseg/internal/store"
)

// Window is the time range shown by the zoomed timeline.
type Window struct {
	Start float64
	End   float64
}

// Span returns the window length in seconds.
func (w Window) Span() float64 {
	return w.End - w.Start
}

// Contains reports whether t lies in [Start, End].
func (w Window) Contains(t float64) bool {
	return t >= w.Start && t <= w.End
}

// ContainsSegment reports whether [start, end] lies entirely inside w.
func (w Window) ContainsSegment(start, end float64) bool {
	return start >= w.Start && end <= w.End
}

// VisibleSegment is a transient copy of a store segment with its cached
// pixel bounds in the zoom viewport. It is rebuilt on every re-derivation
// and never written back.
type VisibleSegment struct {
	store.Segment
	Index int // position in the visible list, drives colour cycling
	X0    int
	X1    int
}

// WindowController owns the zoom window and the list of segments fully
// contained in it.
type WindowController struct {
	source  store.Reader
	fileID  string
	span    float64
	width   int
	padding int
	logger  *slog.Logger

	window  Window
	valid   bool
	mapper  Mapper
	visible []VisibleSegment
	lastErr error

	onRederive func([]VisibleSegment)
}

// NewWindowController creates a controller with no window yet; the first
// OnTick or Recenter establishes it.
func NewWindowController(source store.Reader, fileID string, span float64, width, padding int, logger *slog.Logger) *WindowController {
	if logger == nil {
		logger = slog.Default()
	}
	return &WindowController{
		source:  source,
		fileID:  fileID,
		span:    span,
		width:   width,
		padding: padding,
		logger:  logger,
	}
}

// OnRederive registers fn to run after every re-derivation of the visible list.
func (c *WindowController) OnRederive(fn func([]VisibleSegment)) {
	c.onRederive = fn
}

// OnTick recentres the window when currentTime has left it and reports
// whether it did. Inside the window it is a no-op.
func (c *WindowController) OnTick(ctx context.Context, currentTime float64) bool {
	if c.valid && c.window.Contains(currentTime) {
		return false
	}
	c.Recenter(ctx, currentTime)
	return true
}

// Recenter starts the window at t and re-derives the visible list.
func (c *WindowController) Recenter(ctx context.Context, t float64) {
	c.window = Window{Start: t, End: t + c.span}
	c.valid = true
	c.rederive(ctx)
}

// Refresh re-derives the visible list without moving the window.
func (c *WindowController) Refresh(ctx context.Context) {
	if !c.valid {
		return
	}
	c.rederive(ctx)
}

// SetViewport changes the viewport geometry and span. The window keeps its
// start and is re-derived.
func (c *WindowController) SetViewport(ctx context.Context, width, padding int, span float64) {
	c.width = width
	c.padding = padding
	if span > 0 {
		c.span = span
	}
	if c.valid {
		c.Recenter(ctx, c.window.Start)
	}
}

// Window returns the current window.
func (c *WindowController) Window() Window {
	return c.window
}

// Span returns the configured window length in seconds.
func (c *WindowController) Span() float64 {
	return c.span
}

// Mapper returns the zoom mapper for the current window.
func (c *WindowController) Mapper() Mapper {
	return c.mapper
}

// Visible returns the segments fully inside the window, in store order.
func (c *WindowController) Visible() []VisibleSegment {
	return c.visible
}

// Err returns the error of the last store query, if it failed.
func (c *WindowController) Err() error {
	return c.lastErr
}

func (c *WindowController) rederive(ctx context.Context) {
	c.mapper = NewZoomMapper(c.window, c.width, c.padding)

	segs, err := c.source.SegmentsOverlapping(ctx, c.fileID, c.window.Start, c.window.End)
	if err != nil {
		// Keep the previous list, filtered to the new window.
		c.lastErr = err
		c.logger.Warn("segment query failed; display is stale",
			"file", c.fileID, "start", c.window.Start, "end", c.window.End, "error", err)
		segs = make([]store.Segment, 0, len(c.visible))
		for _, v := range c.visible {
			segs = append(segs, v.Segment)
		}
	} else {
		c.lastErr = nil
	}

	visible := make([]VisibleSegment, 0, len(segs))
	for _, seg := range segs {
		// Partially visible segments are left out rather than clipped.
		if !c.window.ContainsSegment(seg.Start, seg.End) {
			continue
		}
		visible = append(visible, VisibleSegment{
			Segment: seg,
			Index:   len(visible),
			X0:      c.mapper.TimeToCanvas(seg.Start),
			X1:      c.mapper.TimeToCanvas(seg.End),
		})
	}
	c.visible = visible

	if c.onRederive != nil {
		c.onRederive(visible)
	}
}

// IndexOf returns the display index of segment id in visible, or -1.
func IndexOf(visible []VisibleSegment, id string) int {
	for i := range visible {
		if visible[i].ID == id {
			return i
		}
	}
	return -1
}
