package annotator

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/truncate"

	"github.com/Dicklesworthstone/tseg/internal/timeline"
	"github.com/Dicklesworthstone/tseg/internal/util"
)

// overviewLabelEvery is the spacing of overview time labels in cells.
const overviewLabelEvery = 10

// zoomLabelSteps are the candidate label spacings of the zoom axis, in
// seconds. The first one that leaves room for a label is used.
var zoomLabelSteps = []float64{1, 2, 5, 10, 15, 30, 60, 120, 300, 600, 1800, 3600}

type region int

const (
	regionNone region = iota
	regionOverview
	regionTicks
	regionBand
	regionBelow
)

// zoom reports whether r belongs to the zoom timeline.
func (r region) zoom() bool {
	return r == regionTicks || r == regionBand || r == regionBelow
}

// layout fixes the row of every canvas part.
type layout struct {
	header         int
	overviewLabels int
	overviewTrack  int
	zoomLabels     int
	zoomTicks      int
	bandLabels     int
	bandTop        int
	bandBottom     int
	below          int
}

func newLayout(bandHeight int) layout {
	l := layout{
		header:         0,
		overviewLabels: 1,
		overviewTrack:  2,
		zoomLabels:     4,
		zoomTicks:      5,
		bandLabels:     6,
		bandTop:        7,
	}
	l.bandBottom = l.bandTop + bandHeight - 1
	l.below = l.bandBottom + 1
	return l
}

// height is the number of canvas rows.
func (l layout) height() int { return l.below + 1 }

func (l layout) regionAt(y int) region {
	switch {
	case y == l.overviewLabels || y == l.overviewTrack:
		return regionOverview
	case y == l.zoomLabels || y == l.zoomTicks:
		return regionTicks
	case y >= l.bandLabels && y <= l.bandBottom:
		return regionBand
	case y == l.below:
		return regionBelow
	}
	return regionNone
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting || m.width <= 0 {
		return ""
	}
	lines := m.render().lines()
	lines = append(lines, m.statusLine())
	if p := m.panel.View(); p != "" {
		lines = append(lines, "", p)
	}
	lines = append(lines, "", m.help.View(m.keys))
	return strings.Join(lines, "\n")
}

func (m Model) render() *canvas {
	c := newCanvas(m.width, m.layout.height())
	m.drawHeader(c)
	m.drawOverview(c)
	m.drawZoomAxis(c)
	m.drawBand(c)
	m.drawPlayhead(c)
	return c
}

func (m Model) drawHeader(c *canvas) {
	t := m.theme
	x := c.text(0, m.layout.header, "tseg ", cellStyle{fg: t.Primary, bold: true})
	c.text(x, m.layout.header, m.title, cellStyle{fg: t.Text})

	state := "⏸"
	if m.player != nil && m.player.Playing() {
		state = "▶"
	}
	right := fmt.Sprintf("%s %s / %s  %s ×%g", state,
		util.FormatHMSMillis(m.frame.Time),
		util.FormatHMS(m.engine.Media().Duration()),
		m.engine.Mode(), m.frame.Rate)
	w := runewidth.StringWidth(right)
	if start := c.width - w; start > x+runewidth.StringWidth(m.title)+1 {
		fg := t.Subtext
		if m.frame.Rate != timeline.NormalRate {
			fg = t.Yellow
		}
		c.text(start, m.layout.header, right, cellStyle{fg: fg})
	}
}

func (m Model) drawOverview(c *canvas) {
	t := m.theme
	ov := m.engine.Overview()
	first, last := ov.Padding(), ov.Padding()+ov.TrackWidth()-1
	labelRow, track := m.layout.overviewLabels, m.layout.overviewTrack

	c.hline(first, last, track, '─', cellStyle{fg: t.Surface2})
	for x := first; x <= last; x += overviewLabelEvery {
		c.set(x, track, '┼', cellStyle{fg: t.Overlay})
		label := util.FormatHMS(ov.CanvasToTime(x))
		if x+runewidth.StringWidth(label) <= c.width {
			c.text(x, labelRow, label, cellStyle{fg: t.Subtext})
		}
	}

	// Zoom window extent.
	w := m.engine.Window()
	x0 := ov.TimeToCanvas(w.Start)
	x1 := ov.TimeToCanvas(math.Min(w.End, ov.End()))
	if x0 != timeline.OutOfRange && x1 != timeline.OutOfRange {
		c.hline(x0, x1, track, '━', cellStyle{fg: t.Lavender})
	}

	if x := ov.TimeToCanvas(m.frame.Time); x != timeline.OutOfRange {
		c.set(x, track, '●', cellStyle{fg: t.Red, bold: true})
	}
}

// zoomLabelStep picks the label spacing for pixelsPerSecond.
func zoomLabelStep(pixelsPerSecond float64) float64 {
	need := float64(runewidth.StringWidth("0:00:00") + 2)
	for _, s := range zoomLabelSteps {
		if s*pixelsPerSecond >= need {
			return s
		}
	}
	return zoomLabelSteps[len(zoomLabelSteps)-1]
}

func (m Model) drawZoomAxis(c *canvas) {
	t := m.theme
	zm := m.engine.Zoom()
	spp := zm.SecondsPerPixel()
	if spp <= 0 {
		return
	}
	step := zoomLabelStep(1 / spp)
	minorStyle := cellStyle{fg: t.Surface2}
	majorStyle := cellStyle{fg: t.Overlay}

	for s := math.Ceil(zm.Start()); s <= zm.End(); s++ {
		x := zm.TimeToCanvas(s)
		if x == timeline.OutOfRange {
			continue
		}
		if math.Mod(s, step) == 0 {
			c.set(x, m.layout.zoomTicks, '│', majorStyle)
			c.centered(x, m.layout.zoomLabels, util.FormatHMS(s), cellStyle{fg: t.Subtext})
		} else if spp <= 0.5 {
			c.set(x, m.layout.zoomTicks, '╷', minorStyle)
		}
	}
}

func (m Model) drawBand(c *canvas) {
	t := m.theme
	st := m.engine.State()
	l := m.layout

	for _, v := range m.engine.Visible() {
		x0, x1 := v.X0, v.X1
		if x1 < x0 {
			x1 = x0
		}
		color := t.SegmentColor(v.Index)

		if v.Label != "" {
			label := truncate.StringWithTail(v.Label, uint(x1-x0+1), "…")
			c.text(x0, l.bandLabels, label, cellStyle{fg: color})
		}

		selected := (st.Kind == timeline.StateSelected || st.Kind == timeline.StateResizing) && st.SegmentID == v.ID
		if selected {
			drawOutline(c, x0, x1, l.bandTop, l.bandBottom, cellStyle{fg: color, bold: true})
		} else {
			fill := '█'
			if st.Kind == timeline.StateHovering && st.SegmentID == v.ID && st.Zone == timeline.ZoneBody {
				fill = '▓'
			}
			for y := l.bandTop; y <= l.bandBottom; y++ {
				c.hline(x0, x1, y, fill, cellStyle{fg: color})
			}
		}

		if st.Kind == timeline.StateHovering && st.SegmentID == v.ID && st.Zone.IsBoundary() {
			edge := x0
			if st.Zone == timeline.ZoneEnd {
				edge = x1
			}
			for y := l.bandTop; y <= l.bandBottom; y++ {
				c.set(edge, y, '┃', cellStyle{fg: t.Pink, bold: true})
			}
		}
	}

	if st.Kind == timeline.StateResizing {
		for y := l.bandTop; y <= l.bandBottom; y++ {
			c.set(m.mouseX, y, '┃', cellStyle{fg: t.Yellow, bold: true})
		}
	}
}

// drawOutline draws the selected segment as a box. A one row band uses
// brackets.
func drawOutline(c *canvas, x0, x1, top, bottom int, st cellStyle) {
	if top == bottom {
		c.hline(x0, x1, top, '─', st)
		c.set(x0, top, '[', st)
		c.set(x1, top, ']', st)
		return
	}
	c.hline(x0, x1, top, '─', st)
	c.hline(x0, x1, bottom, '─', st)
	for y := top + 1; y < bottom; y++ {
		c.set(x0, y, '│', st)
		c.set(x1, y, '│', st)
	}
	c.set(x0, top, '┌', st)
	c.set(x1, top, '┐', st)
	c.set(x0, bottom, '└', st)
	c.set(x1, bottom, '┘', st)
}

func (m Model) drawPlayhead(c *canvas) {
	x := m.engine.Zoom().TimeToCanvas(m.frame.Time)
	if x == timeline.OutOfRange {
		return
	}
	st := cellStyle{fg: m.theme.Red, bold: true}
	c.set(x, m.layout.zoomTicks, '▼', st)
	for y := m.layout.bandLabels; y <= m.layout.bandBottom; y++ {
		c.set(x, y, '│', st)
	}
}

func (m Model) statusLine() string {
	t := m.theme
	w := m.engine.Window()
	parts := []string{
		fmt.Sprintf("window %s–%s", util.FormatHMS(w.Start), util.FormatHMS(w.End)),
		fmt.Sprintf("%d segments", len(m.engine.Visible())),
		"cursor " + string(m.cursor),
	}
	if st := m.engine.State(); st.Kind != timeline.StateIdle {
		parts = append(parts, st.String())
	}
	if m.pending > 0 {
		parts = append(parts, fmt.Sprintf("saving %d", m.pending))
	}
	line := lipgloss.NewStyle().Foreground(t.Overlay).Render(strings.Join(parts, " · "))

	switch {
	case m.status != "" && m.statusErr:
		line += "  " + lipgloss.NewStyle().Foreground(t.Error).Render("✗ "+m.status)
	case m.status != "":
		line += "  " + lipgloss.NewStyle().Foreground(t.Success).Render(m.status)
	case m.engine.QueryErr() != nil:
		line += "  " + lipgloss.NewStyle().Foreground(t.Warning).Render("store: "+m.engine.QueryErr().Error())
	}
	return truncate.StringWithTail(line, uint(m.width), "…")
}
