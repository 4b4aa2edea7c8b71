package timeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/Dicklesworthstone/tseg/internal/media"
	"github.com/Dicklesworthstone/tseg/internal/store"
)

var (
	// ErrConfiguration is returned when the engine cannot be constructed.
	ErrConfiguration = errors.New("timeline configuration error")
	// ErrOutOfRange marks a seek or resize outside the media or one that
	// would invert a segment. Such edits never reach the store.
	ErrOutOfRange = errors.New("time out of range")
)

// Options configures an Engine.
type Options struct {
	FileID string

	// Width is the viewport width in pixels shared by both timelines.
	Width   int
	Padding int

	// Span is the zoom window length in seconds. When zero it is derived
	// from the track width and PixelsPerSecond.
	Span            float64
	PixelsPerSecond float64

	Tolerance float64
	FastRate  float64
	Mode      Mode

	Logger *slog.Logger
}

// FrameState summarizes one pass of the redraw loop.
type FrameState struct {
	Time       float64
	Window     Window
	Recentered bool
	Inside     bool
	Rate       float64
}

// Engine ties the media surface, the store and the timeline components
// together. All methods run on the UI goroutine except WriteBoundary and
// WriteAttribute, which only touch the store.
type Engine struct {
	media  media.Element
	store  store.Store
	fileID string
	logger *slog.Logger

	overview    Mapper
	window      *WindowController
	interaction Interaction
	policy      RatePolicy
	tolerance   float64
	mode        Mode
	pps         float64
	fixedSpan   float64
	width       int
	padding     int
}

// NewEngine validates the collaborators and establishes the first window at
// the current media time. It fails with ErrConfiguration when the media
// surface or store is unusable.
func NewEngine(ctx context.Context, m media.Element, s store.Store, opts Options) (*Engine, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: media element is nil", ErrConfiguration)
	}
	if err := media.ValidateDuration(m.Duration()); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	if s == nil {
		return nil, fmt.Errorf("%w: store is nil", ErrConfiguration)
	}
	if opts.FileID == "" {
		return nil, fmt.Errorf("%w: file id is empty", ErrConfiguration)
	}
	if opts.Width <= 2*opts.Padding {
		return nil, fmt.Errorf("%w: width %d leaves no track with padding %d", ErrConfiguration, opts.Width, opts.Padding)
	}
	if opts.Span <= 0 && opts.PixelsPerSecond <= 0 {
		return nil, fmt.Errorf("%w: window span or pixels per second required", ErrConfiguration)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	tolerance := opts.Tolerance
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}

	e := &Engine{
		media:     m,
		store:     s,
		fileID:    opts.FileID,
		logger:    logger.With("file", opts.FileID),
		policy:    RatePolicy{Fast: opts.FastRate},
		tolerance: tolerance,
		mode:      opts.Mode,
		pps:       opts.PixelsPerSecond,
		fixedSpan: opts.Span,
		width:     opts.Width,
		padding:   opts.Padding,
	}
	e.overview = NewOverviewMapper(m.Duration(), opts.Width, opts.Padding)
	e.window = NewWindowController(s, opts.FileID, e.span(), opts.Width, opts.Padding, logger)
	e.window.OnRederive(func(visible []VisibleSegment) {
		if e.interaction.Reconcile(visible) {
			e.logger.Debug("interaction reset: segment left the visible list")
		}
	})
	e.window.Recenter(ctx, m.CurrentTime())
	return e, nil
}

func (e *Engine) span() float64 {
	if e.fixedSpan > 0 {
		return e.fixedSpan
	}
	return float64(e.width-2*e.padding) / e.pps
}

// FileID returns the annotated file.
func (e *Engine) FileID() string { return e.fileID }

// Media returns the media surface.
func (e *Engine) Media() media.Element { return e.media }

// Store returns the metadata store.
func (e *Engine) Store() store.Store { return e.store }

// Mode returns the playback mode.
func (e *Engine) Mode() Mode { return e.mode }

// SetMode changes the playback mode. It takes effect on the next frame.
func (e *Engine) SetMode(m Mode) {
	if m != e.mode {
		e.logger.Debug("playback mode changed", "from", e.mode, "to", m)
	}
	e.mode = m
}

// Tolerance returns the boundary hit tolerance in seconds.
func (e *Engine) Tolerance() float64 { return e.tolerance }

// Overview returns the full-duration mapper.
func (e *Engine) Overview() Mapper { return e.overview }

// Zoom returns the mapper for the current window.
func (e *Engine) Zoom() Mapper { return e.window.Mapper() }

// Window returns the current zoom window.
func (e *Engine) Window() Window { return e.window.Window() }

// Visible returns the segments fully inside the zoom window.
func (e *Engine) Visible() []VisibleSegment { return e.window.Visible() }

// QueryErr returns the last failed segment query, if any.
func (e *Engine) QueryErr() error { return e.window.Err() }

// State returns the interaction state.
func (e *Engine) State() State { return e.interaction.State() }

// Selected resolves the selected segment in the visible list.
func (e *Engine) Selected() (VisibleSegment, bool) {
	id, ok := e.interaction.SelectedID()
	if !ok {
		return VisibleSegment{}, false
	}
	idx := IndexOf(e.Visible(), id)
	if idx < 0 {
		return VisibleSegment{}, false
	}
	return e.Visible()[idx], true
}

// Frame runs the per-frame steps that precede painting: read the media
// time, slide the window if needed, and apply the playback rate.
func (e *Engine) Frame(ctx context.Context) FrameState {
	t := e.media.CurrentTime()
	recentered := e.window.OnTick(ctx, t)
	inside := InsideAny(t, e.window.Visible())
	rate := e.policy.Rate(e.mode, inside)
	if e.media.PlaybackRate() != rate {
		e.media.SetPlaybackRate(rate)
	}
	return FrameState{
		Time:       t,
		Window:     e.window.Window(),
		Recentered: recentered,
		Inside:     inside,
		Rate:       rate,
	}
}

// Resize updates the viewport width of both timelines.
func (e *Engine) Resize(ctx context.Context, width int) error {
	if width <= 2*e.padding {
		return fmt.Errorf("%w: width %d too small", ErrConfiguration, width)
	}
	if width == e.width {
		return nil
	}
	e.width = width
	e.overview = NewOverviewMapper(e.media.Duration(), width, e.padding)
	e.window.SetViewport(ctx, width, e.padding, e.span())
	return nil
}

// Refresh re-derives the visible segments, as after a store notification.
func (e *Engine) Refresh(ctx context.Context) {
	e.window.Refresh(ctx)
}

// SeekOverview moves playback to the time under pixel x of the overview.
func (e *Engine) SeekOverview(x int) float64 {
	t := e.overview.CanvasToTime(x)
	e.media.SetCurrentTime(t)
	return t
}

// SeekZoom moves playback to the time under pixel x of the zoom timeline,
// clamped to the media.
func (e *Engine) SeekZoom(x int) float64 {
	t := clampTime(e.Zoom().CanvasToTime(x), e.media.Duration())
	e.media.SetCurrentTime(t)
	return t
}

// SeekBy moves playback by delta seconds, clamped to the media.
func (e *Engine) SeekBy(delta float64) float64 {
	t := clampTime(e.media.CurrentTime()+delta, e.media.Duration())
	e.media.SetCurrentTime(t)
	return t
}

// HitAt classifies pixel x of the zoom timeline.
func (e *Engine) HitAt(x int) Hit {
	zoom := e.Zoom()
	return Classify(zoom.CanvasToTime(x), e.Visible(), e.hitTolerance(zoom))
}

// hitTolerance is the configured tolerance, widened to one cell when cells
// are coarser than it. A cell is classified at its left edge, and every
// boundary lies less than one cell to the right of some edge.
func (e *Engine) hitTolerance(zoom Mapper) float64 {
	return math.Max(e.tolerance, zoom.SecondsPerPixel())
}

// PointerDown handles a press at pixel x inside the segment band.
func (e *Engine) PointerDown(x int) (Hit, State) {
	h := e.HitAt(x)
	return h, e.interaction.PointerDown(h)
}

// PointerDownOutside handles a press outside the band and tick rows.
func (e *Engine) PointerDownOutside() {
	e.interaction.Reset()
}

// PointerMove updates hover state and returns the cursor hint.
func (e *Engine) PointerMove(x int, inBand bool) Cursor {
	if !inBand {
		if e.interaction.State().Kind == StateHovering {
			e.interaction.PointerMove(NoHit)
		}
		return CursorDefault
	}
	h := e.HitAt(x)
	e.interaction.PointerMove(h)
	return CursorFor(h, true)
}

// PointerUp ends a resize at pixel x. It returns the validated commit, or
// ErrOutOfRange when the new boundary is unusable; either way the state
// returns to Idle.
func (e *Engine) PointerUp(x int) (Commit, bool, error) {
	c, ok := e.interaction.PointerUp(e.Zoom().CanvasToTime(x))
	if !ok {
		return Commit{}, false, nil
	}
	if err := e.validateCommit(c); err != nil {
		e.logger.Info("resize rejected", "segment", c.SegmentID, "boundary", c.Boundary, "time", c.Time, "error", err)
		return Commit{}, false, err
	}
	return c, true, nil
}

func (e *Engine) validateCommit(c Commit) error {
	duration := e.media.Duration()
	if c.Time < 0 || c.Time > duration {
		return fmt.Errorf("%w: %.3fs outside [0, %.3f]", ErrOutOfRange, c.Time, duration)
	}
	idx := IndexOf(e.Visible(), c.SegmentID)
	if idx < 0 {
		return fmt.Errorf("%w: segment %s is no longer visible", ErrOutOfRange, c.SegmentID)
	}
	seg := e.Visible()[idx]
	start, end := store.ApplyBoundary(seg.Start, seg.End, c.Boundary, c.Time)
	if start >= end {
		return fmt.Errorf("%w: %s boundary at %.3fs inverts segment [%.3f, %.3f]",
			ErrOutOfRange, c.Boundary, c.Time, seg.Start, seg.End)
	}
	return nil
}

// WriteBoundary sends a commit to the store. It blocks until the store
// answers and is meant to run off the UI goroutine.
func (e *Engine) WriteBoundary(ctx context.Context, c Commit) error {
	if err := e.store.UpdateSegmentBoundary(ctx, e.fileID, c.SegmentID, c.Boundary, c.Time); err != nil {
		return fmt.Errorf("update %s boundary of %s: %w", c.Boundary, c.SegmentID, err)
	}
	return nil
}

// WriteAttribute sends an attribute edit to the store. Like WriteBoundary
// it may block.
func (e *Engine) WriteAttribute(ctx context.Context, segmentID, attributeID, value string) error {
	if err := e.store.UpdateAttributeValue(ctx, e.fileID, segmentID, attributeID, value); err != nil {
		return fmt.Errorf("update attribute %s of %s: %w", attributeID, segmentID, err)
	}
	return nil
}

func clampTime(t, duration float64) float64 {
	if t < 0 {
		return 0
	}
	if t > duration {
		return duration
	}
	return t
}
