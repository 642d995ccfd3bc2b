package emu

import "github.com/charmbracelet/bubbles/key"

// KeyMap binds host keys to synthetic badge buttons.
type KeyMap struct {
	PressA key.Binding
	PressB key.Binding
	LongA  key.Binding
	LongB  key.Binding
	Quit   key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		PressA: key.NewBinding(
			key.WithKeys("z"),
			key.WithHelp("z", "press A"),
		),
		PressB: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "press B"),
		),
		LongA: key.NewBinding(
			key.WithKeys("Z"),
			key.WithHelp("Z", "hold A"),
		),
		LongB: key.NewBinding(
			key.WithKeys("X"),
			key.WithHelp("X", "hold B (menu)"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}
