package screens

import (
	"github.com/pxp9/name-badge/pkg/input"
	"github.com/pxp9/name-badge/pkg/render"
	"github.com/pxp9/name-badge/pkg/ui"
)

// MenuName is the registry key of the root menu.
const MenuName = "menu"

// MenuEntry is one selectable row: a label and the screen it opens.
type MenuEntry struct {
	Label  string
	Target string
}

// Menu is the root screen. A moves the highlight down, long-A moves it up,
// B opens the highlighted entry.
type Menu struct {
	entries []MenuEntry
	idx     int
}

// NewMenu builds the root menu over the given entries.
func NewMenu(entries []MenuEntry) *Menu {
	return &Menu{entries: entries}
}

func (m *Menu) Name() string { return MenuName }

func (m *Menu) Mount(env *ui.Env, args any) {
	m.idx = 0
}

func (m *Menu) HandleButton(ev input.ButtonEvent) *ui.Nav {
	if len(m.entries) == 0 {
		return nil
	}
	switch {
	case ev.Button == input.ButtonA && ev.Kind == input.SinglePress:
		m.idx = (m.idx + 1) % len(m.entries)
	case ev.Button == input.ButtonA && ev.Kind == input.LongPress:
		m.idx = (m.idx - 1 + len(m.entries)) % len(m.entries)
	case ev.Button == input.ButtonB && ev.Kind == input.SinglePress:
		return &ui.Nav{Target: m.entries[m.idx].Target}
	}
	return nil
}

func (m *Menu) HandleTimer(tok ui.TimerToken) {}

func (m *Menu) Render() render.Document {
	doc := render.Document{Title: "Menu"}
	for i, e := range m.entries {
		prefix := "  "
		if i == m.idx {
			prefix = "> "
		}
		doc.Lines = append(doc.Lines, render.Line{
			Text:     prefix + e.Label,
			Emphasis: i == m.idx,
		})
	}
	return doc
}
