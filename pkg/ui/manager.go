package ui

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pxp9/name-badge/pkg/input"
	"github.com/pxp9/name-badge/pkg/render"
	"github.com/pxp9/name-badge/pkg/sensors"
)

// DefaultFrameInterval is the render cadence when the config leaves it unset.
const DefaultFrameInterval = time.Second

// timerQueueDepth bounds in-flight timer deliveries. Stale tokens are cheap
// to drop, so the queue only needs to absorb a burst.
const timerQueueDepth = 16

// ChromeSources are the collaborators sampled once per frame for the overlay.
type ChromeSources struct {
	Battery  sensors.Battery
	Link     sensors.Link
	Now      func() time.Time
	Location func() string
}

// ManagerConfig wires a Manager.
type ManagerConfig struct {
	// Root is the screen mounted at boot and the long-press-B target.
	Root string

	// Buttons is the classified event stream from the input reader.
	Buttons <-chan input.ButtonEvent

	// Renderer receives one frame per cadence tick and after every event.
	Renderer render.Renderer

	// FrameInterval is the render cadence. Zero uses DefaultFrameInterval.
	FrameInterval time.Duration

	Chrome ChromeSources
	Logger *slog.Logger
}

// Manager owns exactly one mounted screen and dispatches every event to it,
// strictly in arrival order. All screen callbacks run on the Run goroutine;
// screens never need their own locking.
type Manager struct {
	cfg ManagerConfig
	log *slog.Logger

	screens map[string]Screen
	current Screen

	// gen is the mount generation; bumped on every navigation so timer
	// tokens from unmounted screens are recognizably stale.
	gen     uint64
	timerID uint64
	pending map[uint64]*time.Timer
	timers  chan TimerToken
	done    chan struct{}
}

// NewManager returns a manager with no screens registered.
func NewManager(cfg ManagerConfig) *Manager {
	if cfg.FrameInterval <= 0 {
		cfg.FrameInterval = DefaultFrameInterval
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Manager{
		cfg:     cfg,
		log:     log.With("component", "ui"),
		screens: make(map[string]Screen),
		pending: make(map[uint64]*time.Timer),
		timers:  make(chan TimerToken, timerQueueDepth),
		done:    make(chan struct{}),
	}
}

// Register adds a screen. It returns an error on a duplicate name.
func (m *Manager) Register(s Screen) error {
	name := s.Name()
	if _, exists := m.screens[name]; exists {
		return fmt.Errorf("ui: screen %q already registered", name)
	}
	m.screens[name] = s
	return nil
}

// Run mounts the root screen and processes events until ctx is cancelled.
// Teardown cancels every pending screen timer.
func (m *Manager) Run(ctx context.Context) error {
	if err := m.mountRoot(); err != nil {
		return err
	}
	m.renderFrame()

	ticker := time.NewTicker(m.cfg.FrameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.teardown()
			return ctx.Err()

		case ev, ok := <-m.cfg.Buttons:
			if !ok {
				m.teardown()
				return nil
			}
			m.handleButton(ev)
			m.renderFrame()

		case tok := <-m.timers:
			m.dispatchTimer(tok)
			m.renderFrame()

		case <-ticker.C:
			m.renderFrame()
		}
	}
}

// mountRoot performs the boot mount.
func (m *Manager) mountRoot() error {
	root, ok := m.screens[m.cfg.Root]
	if !ok {
		return fmt.Errorf("ui: root screen %q not registered", m.cfg.Root)
	}
	m.gen++
	root.Mount(&Env{m: m, gen: m.gen}, nil)
	m.current = root
	return nil
}

// handleButton routes one event. Long-press B is the reserved back-to-menu
// chord, intercepted here and never shown to the screen.
func (m *Manager) handleButton(ev input.ButtonEvent) {
	if ev.Button == input.ButtonB && ev.Kind == input.LongPress {
		if m.current.Name() == m.cfg.Root {
			return
		}
		m.navigate(m.cfg.Root, nil)
		return
	}

	nav := m.current.HandleButton(ev)
	if nav == nil {
		return
	}
	m.navigate(nav.Target, nav.Args)
}

// navigate unmounts the current screen (cancelling its timers) and mounts the
// target with fresh state. An unknown target is logged and ignored rather
// than crashing the event loop.
func (m *Manager) navigate(target string, args any) {
	next, ok := m.screens[target]
	if !ok {
		m.log.Error("navigation to unknown screen", "target", target)
		return
	}

	m.cancelTimers()
	from := ""
	if m.current != nil {
		from = m.current.Name()
	}
	m.gen++
	next.Mount(&Env{m: m, gen: m.gen}, args)
	m.current = next
	m.log.Debug("navigated", "from", from, "to", target)
}

// dispatchTimer delivers a token to the active screen, dropping tokens whose
// mount generation is stale (their screen was unmounted after the timer
// fired but before delivery).
func (m *Manager) dispatchTimer(tok TimerToken) {
	if tok.gen != m.gen {
		m.log.Debug("dropped stale timer", "gen", tok.gen, "current", m.gen)
		return
	}
	delete(m.pending, tok.id)
	m.current.HandleTimer(tok)
}

// scheduleTimer arms a one-shot timer owned by mount generation gen.
func (m *Manager) scheduleTimer(gen uint64, d time.Duration) TimerToken {
	m.timerID++
	tok := TimerToken{gen: gen, id: m.timerID}
	m.pending[tok.id] = time.AfterFunc(d, func() {
		select {
		case m.timers <- tok:
		case <-m.done:
		}
	})
	return tok
}

// cancelTimers stops every pending timer for the outgoing mount. A timer that
// already fired still carries the old generation and is dropped at dispatch.
func (m *Manager) cancelTimers() {
	for id, t := range m.pending {
		t.Stop()
		delete(m.pending, id)
	}
}

// Frame builds the read-only render state: the current screen's content plus
// freshly sampled chrome. It is pure with respect to screen state.
func (m *Manager) Frame() render.Frame {
	f := render.Frame{
		Screen: m.current.Name(),
		Doc:    m.current.Render(),
	}
	c := m.cfg.Chrome
	if c.Battery != nil {
		f.Chrome.BatteryPercent = c.Battery.Percent()
	}
	if c.Link != nil {
		f.Chrome.LinkUp = c.Link.Up()
	}
	if c.Now != nil {
		f.Chrome.Now = c.Now()
	} else {
		f.Chrome.Now = time.Now()
	}
	if c.Location != nil {
		f.Chrome.Location = c.Location()
	}
	return f
}

// renderFrame hands one frame to the renderer. Render failures are logged,
// never propagated: a bad frame must not take down the event loop.
func (m *Manager) renderFrame() {
	if m.cfg.Renderer == nil {
		return
	}
	if err := m.cfg.Renderer.Render(m.Frame()); err != nil {
		m.log.Error("render failed", "screen", m.current.Name(), "error", err)
	}
}

func (m *Manager) teardown() {
	m.cancelTimers()
	close(m.done)
	m.log.Info("ui manager stopped")
}
