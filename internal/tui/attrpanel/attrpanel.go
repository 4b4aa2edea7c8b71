// Package attrpanel renders and edits the attribute values of the selected
// segment.
package attrpanel

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/Dicklesworthstone/tseg/internal/store"
	"github.com/Dicklesworthstone/tseg/internal/tui/theme"
	"github.com/Dicklesworthstone/tseg/internal/util"
)

// EditMsg asks the owner to write one attribute value to the store.
type EditMsg struct {
	SegmentID   string
	AttributeID string
	Value       string
}

// KeyMap defines the panel keybindings
type KeyMap struct {
	Next       key.Binding
	Prev       key.Binding
	Commit     key.Binding
	Cancel     key.Binding
	PrevOption key.Binding
	NextOption key.Binding
}

// DefaultKeyMap is used by New.
var DefaultKeyMap = KeyMap{
	Next:       key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("tab", "next field")),
	Prev:       key.NewBinding(key.WithKeys("shift+tab", "up"), key.WithHelp("shift+tab", "prev field")),
	Commit:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "save")),
	Cancel:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "leave panel")),
	PrevOption: key.NewBinding(key.WithKeys("left"), key.WithHelp("←", "prev option")),
	NextOption: key.NewBinding(key.WithKeys("right"), key.WithHelp("→", "next option")),
}

type field struct {
	attr   store.Attribute
	value  string
	input  textinput.Model // Text only
	option int             // Select only
}

func (f field) editable() bool {
	switch f.attr.Kind.(type) {
	case store.Text, store.Select:
		return true
	default:
		return false
	}
}

// Model is the attribute panel.
type Model struct {
	attrs   []store.Attribute
	segment store.Segment
	active  bool
	fields  []field
	cursor  int
	focused bool
	width   int

	keys   KeyMap
	theme  theme.Theme
	logger *slog.Logger
	warned map[string]bool
}

// New creates an empty panel.
func New(t theme.Theme, logger *slog.Logger) Model {
	if logger == nil {
		logger = slog.Default()
	}
	return Model{
		keys:   DefaultKeyMap,
		theme:  t,
		logger: logger,
		width:  60,
		warned: make(map[string]bool),
	}
}

// SetAttributes replaces the attribute schema. Kinds this version cannot
// edit are logged once and shown read-only.
func (m *Model) SetAttributes(attrs []store.Attribute) {
	m.attrs = append([]store.Attribute(nil), attrs...)
	for _, a := range m.attrs {
		if u, ok := a.Kind.(store.Unknown); ok && !m.warned[a.ID] {
			m.warned[a.ID] = true
			m.logger.Warn("unsupported attribute type, showing read-only", "attribute", a.ID, "type", u.Type)
		}
	}
	if m.active {
		m.rebuild(true)
	}
}

// SetSegment shows seg. When seg is the segment already shown, a text field
// being edited keeps its draft.
func (m *Model) SetSegment(seg store.Segment) {
	same := m.active && m.segment.ID == seg.ID
	m.segment = seg.Clone()
	m.active = true
	m.rebuild(same)
}

// Clear hides the panel.
func (m *Model) Clear() {
	m.active = false
	m.focused = false
	m.segment = store.Segment{}
	m.fields = nil
	m.cursor = 0
}

// SetWidth sets the rendering width in cells.
func (m *Model) SetWidth(w int) {
	m.width = w
	for i := range m.fields {
		m.fields[i].input.Width = m.inputWidth()
	}
}

// Active reports whether a segment is shown.
func (m Model) Active() bool { return m.active }

// SegmentID returns the shown segment id.
func (m Model) SegmentID() string { return m.segment.ID }

// Focused reports whether the panel receives keys.
func (m Model) Focused() bool { return m.focused }

// Focus gives the panel keyboard focus on its first editable field.
func (m *Model) Focus() tea.Cmd {
	if !m.active || len(m.fields) == 0 {
		return nil
	}
	m.focused = true
	if !m.fields[m.cursor].editable() {
		m.move(1)
	}
	return m.focusCursor()
}

// Blur releases keyboard focus, discarding any text draft.
func (m *Model) Blur() {
	m.focused = false
	for i := range m.fields {
		f := &m.fields[i]
		if f.input.Focused() {
			f.input.Blur()
			f.input.SetValue(f.value)
		}
	}
}

// Keys returns the panel bindings for help rendering.
func (m Model) Keys() KeyMap { return m.keys }

// Update handles keys while focused. Commits are returned as EditMsg.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if !m.focused || len(m.fields) == 0 {
		return m, nil
	}
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, m.updateInput(msg)
	}

	switch {
	case key.Matches(keyMsg, m.keys.Cancel):
		m.Blur()
		return m, nil
	case key.Matches(keyMsg, m.keys.Next):
		commit := m.commitText()
		m.move(1)
		return m, tea.Batch(commit, m.focusCursor())
	case key.Matches(keyMsg, m.keys.Prev):
		commit := m.commitText()
		m.move(-1)
		return m, tea.Batch(commit, m.focusCursor())
	}

	f := &m.fields[m.cursor]
	switch k := f.attr.Kind.(type) {
	case store.Text:
		if key.Matches(keyMsg, m.keys.Commit) {
			return m, m.commitText()
		}
		return m, m.updateInput(msg)
	case store.Select:
		if len(k.Options) == 0 {
			return m, nil
		}
		step := 0
		switch {
		case key.Matches(keyMsg, m.keys.NextOption):
			step = 1
		case key.Matches(keyMsg, m.keys.PrevOption):
			step = -1
		}
		if step == 0 {
			return m, nil
		}
		f.option = (f.option + step + len(k.Options)) % len(k.Options)
		return m, m.edit(f, k.Options[f.option].ID)
	}
	return m, nil
}

func (m *Model) updateInput(msg tea.Msg) tea.Cmd {
	f := &m.fields[m.cursor]
	if !f.input.Focused() {
		return nil
	}
	var cmd tea.Cmd
	f.input, cmd = f.input.Update(msg)
	return cmd
}

// commitText writes the focused text field when its draft differs.
func (m *Model) commitText() tea.Cmd {
	f := &m.fields[m.cursor]
	if _, ok := f.attr.Kind.(store.Text); !ok {
		return nil
	}
	return m.edit(f, f.input.Value())
}

// edit records value as the shown value and emits an EditMsg. The store
// notification that follows refreshes the panel with the confirmed value.
func (m *Model) edit(f *field, value string) tea.Cmd {
	if value == f.value {
		return nil
	}
	f.value = value
	msg := EditMsg{SegmentID: m.segment.ID, AttributeID: f.attr.ID, Value: value}
	return func() tea.Msg { return msg }
}

func (m *Model) move(step int) {
	n := len(m.fields)
	for i := 0; i < n; i++ {
		m.cursor = (m.cursor + step + n) % n
		if m.fields[m.cursor].editable() {
			return
		}
	}
}

func (m *Model) focusCursor() tea.Cmd {
	var cmd tea.Cmd
	for i := range m.fields {
		f := &m.fields[i]
		if i == m.cursor && m.focused {
			if _, ok := f.attr.Kind.(store.Text); ok {
				cmd = f.input.Focus()
			}
			continue
		}
		if f.input.Focused() {
			f.input.Blur()
			f.input.SetValue(f.value)
		}
	}
	return cmd
}

func (m *Model) rebuild(keepDraft bool) {
	old := m.fields
	m.fields = make([]field, len(m.attrs))
	for i, a := range m.attrs {
		value, ok := m.segment.Values[a.ID]
		if !ok {
			value = a.DefaultValue()
		}
		f := field{attr: a, value: value}

		input := textinput.New()
		input.Prompt = ""
		input.CharLimit = 256
		input.Width = m.inputWidth()
		input.SetValue(value)
		if keepDraft && i < len(old) && old[i].attr.ID == a.ID && old[i].input.Focused() {
			input = old[i].input
		}
		f.input = input

		if sel, ok := a.Kind.(store.Select); ok {
			f.option = sel.OptionIndex(value)
		}
		m.fields[i] = f
	}
	if m.cursor >= len(m.fields) {
		m.cursor = 0
	}
	if !keepDraft {
		m.focused = false
		m.cursor = 0
	}
}

func (m Model) labelWidth() int {
	w := 0
	for _, a := range m.attrs {
		if n := runewidth.StringWidth(a.Name); n > w {
			w = n
		}
	}
	if w > 20 {
		w = 20
	}
	return w
}

func (m Model) inputWidth() int {
	w := m.width - m.labelWidth() - 4
	if w < 8 {
		w = 8
	}
	return w
}

// View renders the panel, or an empty string when nothing is selected.
func (m Model) View() string {
	if !m.active {
		return ""
	}
	t := m.theme
	var b strings.Builder

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(t.Lavender)
	rangeStyle := lipgloss.NewStyle().Foreground(t.Subtext)
	title := m.segment.Label
	if title == "" {
		title = "(unlabelled)"
	}
	header := fmt.Sprintf("%s  %s",
		headerStyle.Render(util.Truncate(title, m.width/2)),
		rangeStyle.Render(fmt.Sprintf("%s – %s",
			util.FormatHMSMillis(m.segment.Start), util.FormatHMSMillis(m.segment.End))))
	b.WriteString(header)

	if len(m.fields) == 0 {
		b.WriteString("\n" + lipgloss.NewStyle().Foreground(t.Overlay).Italic(true).Render("no attributes"))
		return b.String()
	}

	lw := m.labelWidth()
	labelStyle := lipgloss.NewStyle().Foreground(t.Subtext)
	focusLabel := lipgloss.NewStyle().Foreground(t.Primary).Bold(true)
	valueStyle := lipgloss.NewStyle().Foreground(t.Text)
	dimStyle := lipgloss.NewStyle().Foreground(t.Overlay).Italic(true)

	for i, f := range m.fields {
		b.WriteString("\n")
		focused := m.focused && i == m.cursor
		marker := "  "
		ls := labelStyle
		if focused {
			marker = lipgloss.NewStyle().Foreground(t.Pink).Bold(true).Render("▸ ")
			ls = focusLabel
		}
		b.WriteString(marker + ls.Render(util.PadRight(f.attr.Name, lw)) + "  ")

		switch k := f.attr.Kind.(type) {
		case store.Text:
			if focused {
				b.WriteString(f.input.View())
			} else if f.value == "" {
				b.WriteString(dimStyle.Render("—"))
			} else {
				b.WriteString(valueStyle.Render(util.Truncate(f.value, m.inputWidth())))
			}
		case store.Select:
			label := f.value
			if f.option >= 0 {
				label = k.Options[f.option].Label
			}
			if label == "" {
				label = "—"
			}
			if focused {
				b.WriteString(valueStyle.Render("‹ " + label + " ›"))
			} else {
				b.WriteString(valueStyle.Render(label))
			}
		case store.Unknown:
			b.WriteString(dimStyle.Render(fmt.Sprintf("%s (read-only %s)", f.value, k.Type)))
		default:
			b.WriteString(dimStyle.Render(f.value))
		}
	}
	return b.String()
}
