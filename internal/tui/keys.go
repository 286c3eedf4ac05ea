package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings of the console.
type KeyMap struct {
	Run     key.Binding
	Reset   key.Binding
	NextTab key.Binding
	PrevTab key.Binding

	// Graph list.
	Up      key.Binding
	Down    key.Binding
	Select  key.Binding
	Refresh key.Binding

	Help key.Binding
	Quit key.Binding
}

// DefaultKeyMap is the built-in key binding set. Editor tabs leave plain
// keys to the textarea, so their actions sit on ctrl chords.
var DefaultKeyMap = KeyMap{
	Run: key.NewBinding(
		key.WithKeys("ctrl+r", "f5"),
		key.WithHelp("C-r", "run"),
	),
	Reset: key.NewBinding(
		key.WithKeys("ctrl+l"),
		key.WithHelp("C-l", "reset buffer"),
	),
	NextTab: key.NewBinding(
		key.WithKeys("ctrl+n"),
		key.WithHelp("C-n", "next tab"),
	),
	PrevTab: key.NewBinding(
		key.WithKeys("ctrl+p"),
		key.WithHelp("C-p", "prev tab"),
	),
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "down"),
	),
	Select: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "use graph"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "refresh"),
	),
	Help: key.NewBinding(
		key.WithKeys("f1"),
		key.WithHelp("F1", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c", "ctrl+q"),
		key.WithHelp("C-q", "quit"),
	),
}

// editorKeys and graphKeys adapt KeyMap to help.KeyMap per tab.
type editorKeys struct{ KeyMap }

func (k editorKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Run, k.Reset, k.NextTab, k.Quit}
}

func (k editorKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Run, k.Reset},
		{k.NextTab, k.PrevTab},
		{k.Help, k.Quit},
	}
}

type graphKeys struct{ KeyMap }

func (k graphKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Select, k.Refresh, k.NextTab, k.Quit}
}

func (k graphKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Select, k.Refresh},
		{k.NextTab, k.PrevTab},
		{k.Help, k.Quit},
	}
}
