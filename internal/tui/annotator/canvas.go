package annotator

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// cellStyle is the per-cell attribute set. Cells with equal styles are
// rendered as one run.
type cellStyle struct {
	fg, bg lipgloss.Color
	bold   bool
}

type cell struct {
	ch    rune
	style cellStyle
	// cont marks the second column of a wide rune.
	cont bool
}

// canvas is a fixed grid of terminal cells. One cell is one timeline pixel.
type canvas struct {
	width int
	rows  [][]cell
}

func newCanvas(width, height int) *canvas {
	c := &canvas{width: width, rows: make([][]cell, height)}
	for y := range c.rows {
		row := make([]cell, width)
		for x := range row {
			row[x] = cell{ch: ' '}
		}
		c.rows[y] = row
	}
	return c
}

func (c *canvas) inside(x, y int) bool {
	return y >= 0 && y < len(c.rows) && x >= 0 && x < c.width
}

// set writes one narrow rune. Writes outside the grid are dropped.
func (c *canvas) set(x, y int, ch rune, st cellStyle) {
	if !c.inside(x, y) {
		return
	}
	c.rows[y][x] = cell{ch: ch, style: st}
}

// style recolours a cell without changing its rune.
func (c *canvas) style(x, y int, st cellStyle) {
	if !c.inside(x, y) {
		return
	}
	c.rows[y][x].style = st
}

// hline fills [x0, x1] on row y.
func (c *canvas) hline(x0, x1, y int, ch rune, st cellStyle) {
	for x := x0; x <= x1; x++ {
		c.set(x, y, ch, st)
	}
}

// text writes s starting at x, honouring wide runes. It returns the
// column after the last cell written.
func (c *canvas) text(x, y int, s string, st cellStyle) int {
	for _, r := range s {
		w := runewidth.RuneWidth(r)
		if w == 0 {
			continue
		}
		if x+w > c.width {
			break
		}
		c.set(x, y, r, st)
		if w == 2 {
			if c.inside(x+1, y) {
				c.rows[y][x+1] = cell{cont: true, style: st}
			}
		}
		x += w
	}
	return x
}

// centered writes s centred on column x, kept inside the grid.
func (c *canvas) centered(x, y int, s string, st cellStyle) {
	w := runewidth.StringWidth(s)
	start := x - w/2
	if start+w > c.width {
		start = c.width - w
	}
	if start < 0 {
		start = 0
	}
	c.text(start, y, s, st)
}

func (st cellStyle) render(s string) string {
	if st == (cellStyle{}) {
		return s
	}
	ls := lipgloss.NewStyle()
	if st.fg != "" {
		ls = ls.Foreground(st.fg)
	}
	if st.bg != "" {
		ls = ls.Background(st.bg)
	}
	if st.bold {
		ls = ls.Bold(true)
	}
	return ls.Render(s)
}

// lines renders each row, grouping runs of equal style.
func (c *canvas) lines() []string {
	out := make([]string, len(c.rows))
	for y, row := range c.rows {
		var b strings.Builder
		var run strings.Builder
		var cur cellStyle
		flush := func() {
			if run.Len() > 0 {
				b.WriteString(cur.render(run.String()))
				run.Reset()
			}
		}
		for _, cl := range row {
			if cl.cont {
				continue
			}
			if cl.style != cur {
				flush()
				cur = cl.style
			}
			run.WriteRune(cl.ch)
		}
		flush()
		out[y] = b.String()
	}
	return out
}

// plain returns the runes of row y without styling.
func (c *canvas) plain(y int) string {
	var b strings.Builder
	for _, cl := range c.rows[y] {
		if !cl.cont {
			b.WriteRune(cl.ch)
		}
	}
	return b.String()
}
