package annotator

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the annotator keybindings
type KeyMap struct {
	Play        key.Binding
	Normal      key.Binding
	Review      key.Binding
	Annotate    key.Binding
	Back        key.Binding
	Forward     key.Binding
	BackFar     key.Binding
	ForwardFar  key.Binding
	Edit        key.Binding
	ClearSelect key.Binding
	Help        key.Binding
	Quit        key.Binding
}

// DefaultKeyMap returns the default keybindings
var DefaultKeyMap = KeyMap{
	Play:        key.NewBinding(key.WithKeys(" ", "p"), key.WithHelp("space", "play/pause")),
	Normal:      key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "normal")),
	Review:      key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "review")),
	Annotate:    key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "annotate")),
	Back:        key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "back")),
	Forward:     key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "forward")),
	BackFar:     key.NewBinding(key.WithKeys("shift+left", "H"), key.WithHelp("H", "back one window")),
	ForwardFar:  key.NewBinding(key.WithKeys("shift+right", "L"), key.WithHelp("L", "forward one window")),
	Edit:        key.NewBinding(key.WithKeys("tab", "enter"), key.WithHelp("tab", "edit attributes")),
	ClearSelect: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear selection")),
	Help:        key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Play, k.Review, k.Annotate, k.Edit, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Play, k.Back, k.Forward, k.BackFar, k.ForwardFar},
		{k.Normal, k.Review, k.Annotate},
		{k.Edit, k.ClearSelect, k.Help, k.Quit},
	}
}
