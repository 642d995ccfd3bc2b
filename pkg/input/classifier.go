package input

import (
	"context"
	"log/slog"
	"time"
)

// Default classifier tuning. Overridable via config.
const (
	DefaultLongPressThreshold = 600 * time.Millisecond
	DefaultDebounceWindow     = 20 * time.Millisecond
)

// ClassifierConfig tunes debounce and long-press behavior.
type ClassifierConfig struct {
	// LongPressThreshold is the minimum hold duration for a LongPress.
	// Zero uses DefaultLongPressThreshold.
	LongPressThreshold time.Duration

	// DebounceWindow is the minimum spacing between accepted edges for the
	// same button. Zero uses DefaultDebounceWindow.
	DebounceWindow time.Duration
}

// buttonState tracks a single button between edges.
type buttonState struct {
	pressed      bool
	lastAccepted time.Time
	pressedAt    time.Time
	sawPress     bool
}

// Classifier converts raw edges into ButtonEvents. One classifier instance
// handles all buttons; it is not safe for concurrent use and is normally
// driven by a single Reader goroutine.
type Classifier struct {
	cfg    ClassifierConfig
	states [numButtons]buttonState
}

// NewClassifier returns a classifier with the given tuning.
func NewClassifier(cfg ClassifierConfig) *Classifier {
	if cfg.LongPressThreshold <= 0 {
		cfg.LongPressThreshold = DefaultLongPressThreshold
	}
	if cfg.DebounceWindow <= 0 {
		cfg.DebounceWindow = DefaultDebounceWindow
	}
	return &Classifier{cfg: cfg}
}

// Feed processes one raw edge. It returns a non-nil event only on a debounced
// release edge: LongPress when the button was held at least the threshold,
// SinglePress otherwise. A completed press/release cycle yields exactly one
// event; bounce edges and repeated levels yield none.
func (c *Classifier) Feed(e Edge) *ButtonEvent {
	if e.Button >= numButtons {
		// ParseButton guards this path; a raw driver feeding indexes directly
		// still must not corrupt state.
		return nil
	}
	st := &c.states[e.Button]

	// Coalesce electrical bounce: ignore anything inside the debounce window
	// of the previously accepted edge for this button.
	if !st.lastAccepted.IsZero() && e.At.Sub(st.lastAccepted) < c.cfg.DebounceWindow {
		return nil
	}

	// A repeated level (press while pressed, release while released) is not a
	// transition.
	if e.Pressed == st.pressed {
		return nil
	}

	st.pressed = e.Pressed
	st.lastAccepted = e.At

	if e.Pressed {
		st.pressedAt = e.At
		st.sawPress = true
		return nil
	}

	// Release without an observed press (e.g. button held across boot):
	// not a completed cycle, emit nothing.
	if !st.sawPress {
		return nil
	}
	st.sawPress = false

	held := e.At.Sub(st.pressedAt)
	kind := SinglePress
	if held >= c.cfg.LongPressThreshold {
		kind = LongPress
	}
	return &ButtonEvent{Button: e.Button, Kind: kind, HeldFor: held}
}

// Reader is the long-lived loop that bridges a raw edge source (GPIO driver
// or emulator) to the lifecycle manager's event channel.
type Reader struct {
	cls    *Classifier
	edges  <-chan Edge
	events chan<- ButtonEvent
	log    *slog.Logger
}

// NewReader wires a classifier between an edge source and an event sink.
func NewReader(cfg ClassifierConfig, edges <-chan Edge, events chan<- ButtonEvent, log *slog.Logger) *Reader {
	if log == nil {
		log = slog.Default()
	}
	return &Reader{
		cls:    NewClassifier(cfg),
		edges:  edges,
		events: events,
		log:    log,
	}
}

// Run consumes edges until ctx is cancelled or the edge channel closes.
func (r *Reader) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-r.edges:
			if !ok {
				return
			}
			ev := r.cls.Feed(e)
			if ev == nil {
				continue
			}
			r.log.Debug("button event", "button", ev.Button.String(), "kind", ev.Kind.String(), "held", ev.HeldFor)
			select {
			case r.events <- *ev:
			case <-ctx.Done():
				return
			}
		}
	}
}
