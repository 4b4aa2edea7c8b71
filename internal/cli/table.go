package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/ansi"

	"github.com/Dicklesworthstone/tseg/internal/tui/theme"
)

// TableStyle defines the visual style of a table
type TableStyle int

const (
	// TableStyleRounded uses rounded box-drawing corners
	TableStyleRounded TableStyle = iota
	// TableStyleSimple uses square corners
	TableStyleSimple
)

// StyledTable renders terminal tables with box-drawing borders
type StyledTable struct {
	headers []string
	rows    [][]string
	widths  []int
	style   TableStyle
	title   string
	footer  string
}

// NewStyledTable creates a new styled table with headers
func NewStyledTable(headers ...string) *StyledTable {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = cellWidth(h)
	}
	return &StyledTable{
		headers: headers,
		widths:  widths,
		style:   TableStyleRounded,
	}
}

// WithTitle adds a title to the table
func (t *StyledTable) WithTitle(title string) *StyledTable {
	t.title = title
	return t
}

// WithFooter adds a footer to the table
func (t *StyledTable) WithFooter(footer string) *StyledTable {
	t.footer = footer
	return t
}

// WithStyle sets the table style
func (t *StyledTable) WithStyle(style TableStyle) *StyledTable {
	t.style = style
	return t
}

// AddRow adds a row to the table
func (t *StyledTable) AddRow(cols ...string) {
	for i, c := range cols {
		if i < len(t.widths) {
			if w := cellWidth(c); w > t.widths[i] {
				t.widths[i] = w
			}
		}
	}
	t.rows = append(t.rows, cols)
}

// RowCount returns the number of rows
func (t *StyledTable) RowCount() int {
	return len(t.rows)
}

// Render returns the table as a styled string
func (t *StyledTable) Render() string {
	if len(t.headers) == 0 {
		return ""
	}

	th := theme.Current()
	var sb strings.Builder

	topLeft, topRight, bottomLeft, bottomRight := "╭", "╮", "╰", "╯"
	if t.style == TableStyleSimple {
		topLeft, topRight, bottomLeft, bottomRight = "┌", "┐", "└", "┘"
	}
	const horizontal, vertical = "─", "│"

	borderColor := lipgloss.NewStyle().Foreground(th.Surface2)
	headerColor := lipgloss.NewStyle().Foreground(th.Primary).Bold(true)
	textColor := lipgloss.NewStyle().Foreground(th.Text)

	hline := func(left, mid, right string) string {
		var line strings.Builder
		line.WriteString(left)
		for i, w := range t.widths {
			line.WriteString(strings.Repeat(horizontal, w+2))
			if i < len(t.widths)-1 {
				line.WriteString(mid)
			}
		}
		line.WriteString(right)
		return borderColor.Render(line.String())
	}
	row := func(cells []string, style lipgloss.Style) string {
		var line strings.Builder
		line.WriteString(borderColor.Render(vertical))
		for i := range t.headers {
			var cell string
			if i < len(cells) {
				cell = cells[i]
			}
			line.WriteString(" " + style.Render(padCell(cell, t.widths[i])) + " ")
			line.WriteString(borderColor.Render(vertical))
		}
		return line.String()
	}

	if t.title != "" {
		sb.WriteString(headerColor.Render(t.title) + "\n")
	}
	sb.WriteString(hline(topLeft, "┬", topRight) + "\n")
	sb.WriteString(row(t.headers, headerColor) + "\n")
	sb.WriteString(hline("├", "┼", "┤") + "\n")
	for _, r := range t.rows {
		sb.WriteString(row(r, textColor) + "\n")
	}
	sb.WriteString(hline(bottomLeft, "┴", bottomRight) + "\n")
	if t.footer != "" {
		sb.WriteString(SubtleText(t.footer) + "\n")
	}
	return sb.String()
}

// String implements fmt.Stringer
func (t *StyledTable) String() string {
	return t.Render()
}

// cellWidth is the printable width of s, ignoring escape sequences.
func cellWidth(s string) int {
	return ansi.PrintableRuneWidth(s)
}

func padCell(s string, width int) string {
	if w := cellWidth(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}

// SuccessMessage renders a success message with icon
func SuccessMessage(msg string) string {
	return lipgloss.NewStyle().Foreground(theme.Current().Success).Render("✓ " + msg)
}

// ErrorMessage renders an error message with icon
func ErrorMessage(msg string) string {
	return lipgloss.NewStyle().Foreground(theme.Current().Error).Render("✗ " + msg)
}

// SubtleText renders subtle/muted text
func SubtleText(text string) string {
	return lipgloss.NewStyle().Foreground(theme.Current().Subtext).Render(text)
}
