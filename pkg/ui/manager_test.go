package ui

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/pxp9/name-badge/pkg/input"
	"github.com/pxp9/name-badge/pkg/render"
	"github.com/pxp9/name-badge/pkg/sensors"
)

// fakeScreen records every lifecycle call. nextNav, when set, is returned
// from the next HandleButton.
type fakeScreen struct {
	name string

	mu       sync.Mutex
	mounts   int
	lastArgs any
	env      *Env
	buttons  []input.ButtonEvent
	timers   []TimerToken
	nextNav  *Nav
	onMount  func(env *Env)
}

func (f *fakeScreen) Name() string { return f.name }

func (f *fakeScreen) Mount(env *Env, args any) {
	f.mu.Lock()
	f.mounts++
	f.lastArgs = args
	f.env = env
	f.mu.Unlock()
	if f.onMount != nil {
		f.onMount(env)
	}
}

func (f *fakeScreen) HandleButton(ev input.ButtonEvent) *Nav {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.buttons = append(f.buttons, ev)
	nav := f.nextNav
	f.nextNav = nil
	return nav
}

func (f *fakeScreen) HandleTimer(tok TimerToken) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.timers = append(f.timers, tok)
}

func (f *fakeScreen) Render() render.Document {
	return render.Document{Title: f.name}
}

func (f *fakeScreen) mountCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mounts
}

func (f *fakeScreen) timerCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.timers)
}

func (f *fakeScreen) buttonCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.buttons)
}

// countingRenderer counts frames and remembers the last one.
type countingRenderer struct {
	mu     sync.Mutex
	frames int
	last   render.Frame
}

func (r *countingRenderer) Render(f render.Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames++
	r.last = f
	return nil
}

func newTestManager(t *testing.T, screens ...*fakeScreen) *Manager {
	t.Helper()
	m := NewManager(ManagerConfig{
		Root:   "menu",
		Logger: slog.New(slog.DiscardHandler),
		Chrome: ChromeSources{
			Battery: sensors.FixedBattery(80),
			Link:    sensors.FixedLink(true),
		},
	})
	for _, s := range screens {
		if err := m.Register(s); err != nil {
			t.Fatalf("Register(%s) failed: %v", s.name, err)
		}
	}
	return m
}

func press(b input.Button, k input.PressKind) input.ButtonEvent {
	return input.ButtonEvent{Button: b, Kind: k}
}

func TestRegisterDuplicate(t *testing.T) {
	m := newTestManager(t, &fakeScreen{name: "menu"})
	if err := m.Register(&fakeScreen{name: "menu"}); err == nil {
		t.Fatal("duplicate Register should fail")
	}
}

func TestRootMissing(t *testing.T) {
	m := newTestManager(t)
	if err := m.mountRoot(); err == nil {
		t.Fatal("mountRoot should fail with no root registered")
	}
}

func TestBootMountsRoot(t *testing.T) {
	menu := &fakeScreen{name: "menu"}
	m := newTestManager(t, menu)
	if err := m.mountRoot(); err != nil {
		t.Fatalf("mountRoot failed: %v", err)
	}
	if menu.mountCount() != 1 {
		t.Errorf("root mounted %d times, want 1", menu.mountCount())
	}
	if m.current != menu {
		t.Error("current screen is not the root")
	}
}

func TestButtonRoutedToActiveScreen(t *testing.T) {
	menu := &fakeScreen{name: "menu"}
	m := newTestManager(t, menu)
	_ = m.mountRoot()

	m.handleButton(press(input.ButtonA, input.SinglePress))
	if menu.buttonCount() != 1 {
		t.Fatalf("active screen saw %d buttons, want 1", menu.buttonCount())
	}
}

func TestNavRequestFromButtonHandler(t *testing.T) {
	menu := &fakeScreen{name: "menu"}
	weather := &fakeScreen{name: "weather"}
	m := newTestManager(t, menu, weather)
	_ = m.mountRoot()

	menu.nextNav = &Nav{Target: "weather", Args: "forecast"}
	m.handleButton(press(input.ButtonB, input.SinglePress))

	if weather.mountCount() != 1 {
		t.Fatalf("weather mounted %d times, want 1", weather.mountCount())
	}
	if weather.lastArgs != "forecast" {
		t.Errorf("mount args = %v, want forecast", weather.lastArgs)
	}
	if m.current != weather {
		t.Error("current screen did not change")
	}
}

func TestNavToUnknownScreenIgnored(t *testing.T) {
	menu := &fakeScreen{name: "menu"}
	m := newTestManager(t, menu)
	_ = m.mountRoot()

	menu.nextNav = &Nav{Target: "does-not-exist"}
	m.handleButton(press(input.ButtonA, input.SinglePress))
	if m.current != menu {
		t.Error("current screen changed on unknown navigation target")
	}
}

func TestLongPressBReturnsToRoot(t *testing.T) {
	menu := &fakeScreen{name: "menu"}
	weather := &fakeScreen{name: "weather"}
	m := newTestManager(t, menu, weather)
	_ = m.mountRoot()
	m.navigate("weather", nil)

	m.handleButton(press(input.ButtonB, input.LongPress))

	if m.current != menu {
		t.Fatal("long-press B did not return to root")
	}
	if menu.mountCount() != 2 {
		t.Errorf("root mounted %d times, want 2 (boot + return)", menu.mountCount())
	}
	// The reserved chord is intercepted centrally, never shown to the screen.
	if weather.buttonCount() != 0 {
		t.Errorf("screen saw %d buttons, want 0 (long-B is reserved)", weather.buttonCount())
	}
}

func TestLongPressBOnRootIsNoOp(t *testing.T) {
	menu := &fakeScreen{name: "menu"}
	m := newTestManager(t, menu)
	_ = m.mountRoot()

	m.handleButton(press(input.ButtonB, input.LongPress))
	if menu.mountCount() != 1 {
		t.Errorf("root remounted on long-B, mounts = %d", menu.mountCount())
	}
	if menu.buttonCount() != 0 {
		t.Error("long-B leaked to the root screen")
	}
}

func TestTimerDeliveredToOwningMount(t *testing.T) {
	menu := &fakeScreen{name: "menu"}
	m := newTestManager(t, menu)
	_ = m.mountRoot()

	tok := m.scheduleTimer(m.gen, time.Hour)
	m.dispatchTimer(tok)

	if menu.timerCount() != 1 {
		t.Fatalf("screen saw %d timers, want 1", menu.timerCount())
	}
}

func TestStaleTimerDroppedAfterNavigation(t *testing.T) {
	menu := &fakeScreen{name: "menu"}
	weather := &fakeScreen{name: "weather"}
	m := newTestManager(t, menu, weather)
	_ = m.mountRoot()

	// The menu mount schedules a timer, then navigation unmounts it. The
	// token is already "in flight" when dispatch happens.
	tok := m.scheduleTimer(m.gen, time.Hour)
	m.navigate("weather", nil)
	m.dispatchTimer(tok)

	if weather.timerCount() != 0 {
		t.Errorf("timer scheduled by menu delivered to weather (%d deliveries)", weather.timerCount())
	}
	if menu.timerCount() != 0 {
		t.Errorf("timer delivered to unmounted menu (%d deliveries)", menu.timerCount())
	}
}

func TestRunEndToEndTimerCancellation(t *testing.T) {
	buttons := make(chan input.ButtonEvent)
	menu := &fakeScreen{name: "menu"}
	weather := &fakeScreen{name: "weather"}
	// Weather schedules a short timer at every mount.
	weather.onMount = func(env *Env) { env.After(30 * time.Millisecond) }

	rend := &countingRenderer{}
	m := NewManager(ManagerConfig{
		Root:          "menu",
		Buttons:       buttons,
		Renderer:      rend,
		FrameInterval: 5 * time.Millisecond,
		Logger:        slog.New(slog.DiscardHandler),
	})
	_ = m.Register(menu)
	_ = m.Register(weather)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	// menu -> weather, then straight back before weather's timer fires.
	menu.mu.Lock()
	menu.nextNav = &Nav{Target: "weather"}
	menu.mu.Unlock()
	buttons <- press(input.ButtonA, input.SinglePress)
	buttons <- press(input.ButtonB, input.LongPress)

	time.Sleep(80 * time.Millisecond)
	if got := weather.timerCount(); got != 0 {
		t.Errorf("cancelled mount received %d timer deliveries", got)
	}
	if got := menu.timerCount(); got != 0 {
		t.Errorf("menu received %d timer deliveries it never scheduled", got)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop on cancel")
	}
}

func TestTimerRedeliveredOnRemount(t *testing.T) {
	buttons := make(chan input.ButtonEvent)
	menu := &fakeScreen{name: "menu"}
	weather := &fakeScreen{name: "weather"}
	weather.onMount = func(env *Env) { env.After(10 * time.Millisecond) }

	m := NewManager(ManagerConfig{
		Root:          "menu",
		Buttons:       buttons,
		FrameInterval: 5 * time.Millisecond,
		Logger:        slog.New(slog.DiscardHandler),
	})
	_ = m.Register(menu)
	_ = m.Register(weather)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = m.Run(ctx) }()

	menu.mu.Lock()
	menu.nextNav = &Nav{Target: "weather"}
	menu.mu.Unlock()
	buttons <- press(input.ButtonA, input.SinglePress)

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) && weather.timerCount() == 0 {
		time.Sleep(2 * time.Millisecond)
	}
	if weather.timerCount() == 0 {
		t.Fatal("live mount never received its timer")
	}
}

func TestFrameCombinesScreenAndChrome(t *testing.T) {
	menu := &fakeScreen{name: "menu"}
	m := newTestManager(t, menu)
	_ = m.mountRoot()

	f := m.Frame()
	if f.Screen != "menu" {
		t.Errorf("Frame.Screen = %q", f.Screen)
	}
	if f.Doc.Title != "menu" {
		t.Errorf("Frame.Doc.Title = %q", f.Doc.Title)
	}
	if f.Chrome.BatteryPercent != 80 || !f.Chrome.LinkUp {
		t.Errorf("chrome = %+v, want battery 80 link up", f.Chrome)
	}

	// Frame is pure: building it twice changes nothing.
	f2 := m.Frame()
	if f2.Screen != f.Screen || f2.Doc.Title != f.Doc.Title {
		t.Error("repeated Frame calls disagree")
	}
	if menu.mountCount() != 1 || menu.buttonCount() != 0 {
		t.Error("Frame mutated screen state")
	}
}
