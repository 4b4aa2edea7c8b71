// Package annotator is the interactive segment annotator: an overview
// timeline, a zoomed sliding window with the segment band, and the
// attribute panel for the selected segment.
package annotator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Dicklesworthstone/tseg/internal/media"
	"github.com/Dicklesworthstone/tseg/internal/store"
	"github.com/Dicklesworthstone/tseg/internal/timeline"
	"github.com/Dicklesworthstone/tseg/internal/tui/attrpanel"
	"github.com/Dicklesworthstone/tseg/internal/tui/theme"
	"github.com/Dicklesworthstone/tseg/internal/util"
)

const (
	defaultBandHeight = 2
	defaultSeekStep   = 1.0
	statusTTL         = 4 * time.Second
)

// Options configures New.
type Options struct {
	Engine *timeline.Engine
	// Player enables play/pause. When nil the engine's media is used if it
	// implements media.Player.
	Player        media.Player
	Theme         theme.Theme
	Title         string
	FrameInterval time.Duration
	BandHeight    int
	SeekStep      float64 // seconds per arrow key press
	Logger        *slog.Logger
}

// Model is the Bubble Tea model of the annotator.
type Model struct {
	ctx    context.Context
	engine *timeline.Engine
	player media.Player
	loop   *FrameLoop
	theme  theme.Theme
	keys   KeyMap
	help   help.Model
	panel  attrpanel.Model
	layout layout
	logger *slog.Logger

	title    string
	seekStep float64

	width  int
	height int

	frame  timeline.FrameState
	cursor timeline.Cursor
	mouseX int

	status      string
	statusErr   bool
	statusUntil time.Time

	events      <-chan store.ChangeEvent
	unsubscribe func()
	pending     int
	quitting    bool
}

// New creates the model and subscribes to store changes for the engine's
// file. Call Close when the program exits.
func New(ctx context.Context, opts Options) (Model, error) {
	if opts.Engine == nil {
		return Model{}, fmt.Errorf("%w: annotator needs an engine", timeline.ErrConfiguration)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	player := opts.Player
	if player == nil {
		if p, ok := opts.Engine.Media().(media.Player); ok {
			player = p
		}
	}
	band := opts.BandHeight
	if band <= 0 {
		band = defaultBandHeight
	}
	step := opts.SeekStep
	if step <= 0 {
		step = defaultSeekStep
	}
	title := opts.Title
	if title == "" {
		title = opts.Engine.FileID()
	}

	events, cancel := opts.Engine.Store().Subscribe(opts.Engine.FileID())

	h := help.New()
	h.Styles.ShortKey = h.Styles.ShortKey.Foreground(opts.Theme.Subtext)
	h.Styles.ShortDesc = h.Styles.ShortDesc.Foreground(opts.Theme.Overlay)
	h.Styles.FullKey = h.Styles.FullKey.Foreground(opts.Theme.Subtext)
	h.Styles.FullDesc = h.Styles.FullDesc.Foreground(opts.Theme.Overlay)

	m := Model{
		ctx:         ctx,
		engine:      opts.Engine,
		player:      player,
		loop:        NewFrameLoop(opts.FrameInterval),
		theme:       opts.Theme,
		keys:        DefaultKeyMap,
		help:        h,
		panel:       attrpanel.New(opts.Theme, logger),
		layout:      newLayout(band),
		logger:      logger,
		title:       title,
		seekStep:    step,
		width:       opts.Engine.Zoom().Width(),
		cursor:      timeline.CursorDefault,
		events:      events,
		unsubscribe: cancel,
	}
	m.frame = timeline.FrameState{
		Time:   opts.Engine.Media().CurrentTime(),
		Window: opts.Engine.Window(),
		Rate:   opts.Engine.Media().PlaybackRate(),
	}
	m.panel.SetWidth(m.width)
	m.help.Width = m.width
	return m, nil
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.loop.Start(),
		waitForChange(m.events),
		loadAttributes(m.ctx, m.engine.Store()),
	)
}

// Close stops the frame loop and the store subscription.
func (m Model) Close() {
	m.loop.Stop()
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

// Engine returns the timeline engine.
func (m Model) Engine() *timeline.Engine { return m.engine }

// Status returns the transient status line and whether it reports an error.
func (m Model) Status() (string, bool) { return m.status, m.statusErr }

// Cursor returns the pointer hint for the last pointer position.
func (m Model) Cursor() timeline.Cursor { return m.cursor }

// Pending returns the number of store writes in flight.
func (m Model) Pending() int { return m.pending }

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		if err := m.engine.Resize(m.ctx, msg.Width); err != nil {
			m.setError(err, time.Now())
		}
		m.panel.SetWidth(msg.Width)
		m.help.Width = msg.Width
		return m, nil

	case FrameMsg:
		if !m.loop.Accept(msg) {
			return m, nil
		}
		m.frame = m.engine.Frame(m.ctx)
		if !m.statusUntil.IsZero() && msg.Time.After(m.statusUntil) {
			m.clearStatus()
		}
		m.syncPanel(false)
		return m, m.loop.Next()

	case storeChangedMsg:
		m.logger.Debug("store changed", "kind", msg.Event.Kind, "segment", msg.Event.SegmentID)
		m.engine.Refresh(m.ctx)
		m.syncPanel(true)
		return m, waitForChange(m.events)

	case storeClosedMsg:
		m.events = nil
		return m, nil

	case attributesLoadedMsg:
		if msg.Err != nil {
			m.logger.Warn("loading attributes failed", "error", msg.Err)
			m.setError(msg.Err, time.Now())
			return m, nil
		}
		m.panel.SetAttributes(msg.Attributes)
		// Labels come from the first attribute, so a schema change
		// relabels segments without any per-file change event.
		m.engine.Refresh(m.ctx)
		m.syncPanel(true)
		return m, nil

	case boundaryWrittenMsg:
		m.pending--
		if msg.Err != nil {
			m.logger.Warn("boundary write failed", "segment", msg.Commit.SegmentID, "boundary", msg.Commit.Boundary, "error", msg.Err)
			m.setError(msg.Err, time.Now())
			m.engine.Refresh(m.ctx)
			m.syncPanel(true)
			return m, nil
		}
		m.logger.Info("boundary written", "segment", msg.Commit.SegmentID, "boundary", msg.Commit.Boundary, "time", msg.Commit.Time)
		m.setStatus(fmt.Sprintf("%s of %s set to %s",
			msg.Commit.Boundary, msg.Commit.SegmentID, util.FormatHMSMillis(msg.Commit.Time)), time.Now())
		return m, nil

	case attributeWrittenMsg:
		m.pending--
		if msg.Err != nil {
			m.logger.Warn("attribute write failed", "segment", msg.Edit.SegmentID, "attribute", msg.Edit.AttributeID, "error", msg.Err)
			m.setError(msg.Err, time.Now())
			m.engine.Refresh(m.ctx)
			m.syncPanel(true)
		}
		return m, nil

	case ProjectReloadedMsg:
		if msg.Err != nil {
			m.logger.Warn("project reload failed", "error", msg.Err)
			m.setError(msg.Err, time.Now())
		} else if msg.Result.Changed() {
			m.setStatus(fmt.Sprintf("project reloaded: %d added, %d removed, %d moved, %d values",
				msg.Result.Added, msg.Result.Removed, msg.Result.Moved, msg.Result.Values), time.Now())
		}
		if msg.Result.Attributes {
			return m, loadAttributes(m.ctx, m.engine.Store())
		}
		return m, nil

	case attrpanel.EditMsg:
		m.pending++
		return m, writeAttribute(m.ctx, m.engine, msg)

	case tea.MouseMsg:
		return m, m.handleMouse(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.panel, cmd = m.panel.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.panel.Focused() {
		if msg.String() == "ctrl+c" {
			return m.quit()
		}
		var cmd tea.Cmd
		m.panel, cmd = m.panel.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()
	case key.Matches(msg, m.keys.Play):
		m.togglePlay()
	case key.Matches(msg, m.keys.Normal):
		m.setMode(timeline.ModeNormal)
	case key.Matches(msg, m.keys.Review):
		m.setMode(timeline.ModeReview)
	case key.Matches(msg, m.keys.Annotate):
		m.setMode(timeline.ModeAnnotation)
	case key.Matches(msg, m.keys.Back):
		m.frame.Time = m.engine.SeekBy(-m.seekStep)
	case key.Matches(msg, m.keys.Forward):
		m.frame.Time = m.engine.SeekBy(m.seekStep)
	case key.Matches(msg, m.keys.BackFar):
		m.frame.Time = m.engine.SeekBy(-m.engine.Window().Span())
	case key.Matches(msg, m.keys.ForwardFar):
		m.frame.Time = m.engine.SeekBy(m.engine.Window().Span())
	case key.Matches(msg, m.keys.Edit):
		if m.panel.Active() {
			return m, m.panel.Focus()
		}
	case key.Matches(msg, m.keys.ClearSelect):
		m.engine.PointerDownOutside()
		m.syncPanel(false)
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.quitting = true
	m.loop.Stop()
	return m, tea.Quit
}

func (m *Model) togglePlay() {
	if m.player == nil {
		m.setError(errors.New("playback control unavailable for this media"), time.Now())
		return
	}
	if m.player.Playing() {
		m.player.Pause()
	} else {
		m.player.Play()
	}
}

func (m *Model) setMode(mode timeline.Mode) {
	if m.engine.Mode() == mode {
		return
	}
	m.engine.SetMode(mode)
	m.logger.Debug("mode changed", "mode", mode)
	m.setStatus("mode: "+mode.String(), time.Now())
}

// handleMouse routes pointer input by row: the overview and the zoom tick
// rows seek, the band drives the interaction state machine, and the empty
// row under the band clears it.
func (m *Model) handleMouse(msg tea.MouseMsg) tea.Cmd {
	x := msg.X
	r := m.layout.regionAt(msg.Y)
	m.mouseX = x

	switch msg.Action {
	case tea.MouseActionPress:
		switch msg.Button {
		case tea.MouseButtonLeft:
		case tea.MouseButtonWheelUp:
			m.frame.Time = m.engine.SeekBy(-m.seekStep)
			return nil
		case tea.MouseButtonWheelDown:
			m.frame.Time = m.engine.SeekBy(m.seekStep)
			return nil
		default:
			return nil
		}
		switch r {
		case regionOverview:
			m.frame.Time = m.engine.SeekOverview(x)
		case regionTicks:
			m.frame.Time = m.engine.SeekZoom(x)
		case regionBand:
			h, st := m.engine.PointerDown(x)
			m.logger.Debug("band press", "x", x, "zone", h.Zone, "state", st)
			m.cursor = timeline.CursorFor(h, true)
			m.syncPanel(false)
		case regionBelow:
			m.engine.PointerDownOutside()
			m.syncPanel(false)
		}

	case tea.MouseActionMotion:
		m.cursor = m.engine.PointerMove(x, r == regionBand)

	case tea.MouseActionRelease:
		// A release away from the zoom timeline is not seen by it, so a
		// resize in progress stays open until the next press.
		if !r.zoom() {
			return nil
		}
		c, ok, err := m.engine.PointerUp(x)
		if err != nil {
			m.setError(err, time.Now())
			return nil
		}
		if ok {
			m.pending++
			return writeBoundary(m.ctx, m.engine, c)
		}
	}
	return nil
}

// syncPanel points the attribute panel at the current selection. With
// force the selected segment is re-read even when it did not change.
func (m *Model) syncPanel(force bool) {
	sel, ok := m.engine.Selected()
	if !ok {
		if m.panel.Active() {
			m.panel.Clear()
		}
		return
	}
	if force || !m.panel.Active() || m.panel.SegmentID() != sel.ID {
		m.panel.SetSegment(sel.Segment)
	}
}

func (m *Model) setStatus(s string, now time.Time) {
	m.status = s
	m.statusErr = false
	m.statusUntil = now.Add(statusTTL)
}

func (m *Model) setError(err error, now time.Time) {
	m.status = err.Error()
	m.statusErr = true
	m.statusUntil = now.Add(statusTTL)
}

func (m *Model) clearStatus() {
	m.status = ""
	m.statusErr = false
	m.statusUntil = time.Time{}
}
