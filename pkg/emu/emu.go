// Package emu runs the badge runtime on a developer host. Keystrokes become
// synthetic button edges feeding the exact same classifier and lifecycle
// manager that run on the device; only the edge source and the renderer
// differ, so screen behavior on the host is screen behavior on the badge.
package emu

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/pxp9/name-badge/pkg/input"
	"github.com/pxp9/name-badge/pkg/render"
)

// shortHold is the synthetic hold duration for a tap. Comfortably under any
// sane long-press threshold.
const shortHold = 50 * time.Millisecond

// defaultRefresh drives the host view between badge frames.
const defaultRefresh = 200 * time.Millisecond

// Config wires the emulator model into the runtime core.
type Config struct {
	// Edges receives the synthetic press/release pairs.
	Edges chan<- input.Edge

	// Term is the renderer the lifecycle manager draws into; the emulator
	// view shows its latest frame.
	Term *render.TermRenderer

	// LongPress is the classifier threshold, so a synthetic hold is
	// guaranteed to classify long.
	LongPress time.Duration

	// Refresh is the host view cadence. Zero uses defaultRefresh.
	Refresh time.Duration
}

type frameMsg time.Time

// Model is the bubbletea host shell around the badge runtime.
type Model struct {
	cfg  Config
	keys KeyMap

	// clk is a virtual clock for synthetic edge timestamps, stepped well
	// past the debounce window on every keystroke.
	clk time.Time
}

// NewModel builds the emulator model.
func NewModel(cfg Config) Model {
	if cfg.Refresh <= 0 {
		cfg.Refresh = defaultRefresh
	}
	return Model{
		cfg:  cfg,
		keys: DefaultKeyMap(),
		clk:  time.Now(),
	}
}

// Init starts the view refresh tick.
func (m Model) Init() tea.Cmd {
	return m.frameTick()
}

func (m Model) frameTick() tea.Cmd {
	return tea.Tick(m.cfg.Refresh, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case frameMsg:
		return m, m.frameTick()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.PressA):
			m = m.press(input.ButtonA, false)
		case key.Matches(msg, m.keys.PressB):
			m = m.press(input.ButtonB, false)
		case key.Matches(msg, m.keys.LongA):
			m = m.press(input.ButtonA, true)
		case key.Matches(msg, m.keys.LongB):
			m = m.press(input.ButtonB, true)
		}
		return m, nil
	}
	return m, nil
}

// press emits one complete press/release cycle. The virtual clock steps a
// full second between cycles so the debounce window never swallows them.
func (m Model) press(b input.Button, long bool) Model {
	m.clk = m.clk.Add(time.Second)
	hold := shortHold
	if long {
		hold = m.cfg.LongPress + shortHold
	}
	m.cfg.Edges <- input.Edge{Button: b, Pressed: true, At: m.clk}
	m.cfg.Edges <- input.Edge{Button: b, Pressed: false, At: m.clk.Add(hold)}
	return m
}

var helpStyle = lipgloss.NewStyle().Faint(true)

// View shows the badge's latest frame plus a key hint footer.
func (m Model) View() string {
	bindings := []key.Binding{m.keys.PressA, m.keys.PressB, m.keys.LongA, m.keys.LongB, m.keys.Quit}
	help := ""
	for i, b := range bindings {
		if i > 0 {
			help += "  "
		}
		help += b.Help().Key + ":" + b.Help().Desc
	}
	return m.cfg.Term.View() + "\n" + helpStyle.Render(help) + "\n"
}

// Run launches the emulator program. It refuses to start when stdout is not
// a terminal, so accidental use in a pipeline fails loudly instead of
// emitting escape soup.
func Run(cfg Config) error {
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return errors.New("emu: stdout is not a terminal")
	}
	p := tea.NewProgram(NewModel(cfg), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("emu: %w", err)
	}
	return nil
}
