// Package ui owns the badge's screen lifecycle: a single active screen,
// central button/timer dispatch, per-mount timer ownership, and the composed
// render state handed to the renderer once per frame.
package ui

import (
	"time"

	"github.com/pxp9/name-badge/pkg/input"
	"github.com/pxp9/name-badge/pkg/render"
)

// Screen is the contract every badge screen implements. A screen holds only
// screen-local state; Mount resets it for a fresh mount and may schedule
// per-mount timers through env. Long-press B never reaches HandleButton: the
// manager intercepts it as "back to menu".
type Screen interface {
	// Name is the unique registry key (e.g. "weather").
	Name() string

	// Mount initializes fresh screen-local state. env is valid for this
	// mount only; timers scheduled on it die at the next navigation.
	Mount(env *Env, args any)

	// HandleButton reacts to one classified press. Returning a non-nil Nav
	// requests navigation; returning nil keeps the current screen.
	HandleButton(ev input.ButtonEvent) *Nav

	// HandleTimer reacts to a timer this mount scheduled via env.After.
	HandleTimer(tok TimerToken)

	// Render produces the screen's semantic content. It must not mutate
	// state: the manager may render the same state any number of times.
	Render() render.Document
}

// Nav requests navigation to another screen.
type Nav struct {
	Target string
	Args   any
}

// TimerToken identifies one scheduled timer. The generation ties it to a
// specific mount: a token from a stale mount is dropped at delivery time, so
// a timer that fired during navigation is a no-op rather than a misdelivery.
type TimerToken struct {
	gen uint64
	id  uint64
}

// Zero reports whether the token is the zero value (never scheduled).
func (t TimerToken) Zero() bool { return t.gen == 0 && t.id == 0 }

// Env is a screen's handle back into the manager, scoped to one mount.
type Env struct {
	m   *Manager
	gen uint64
}

// After schedules a one-shot timer owned by this mount. The returned token is
// delivered to HandleTimer unless the screen is unmounted first.
func (e *Env) After(d time.Duration) TimerToken {
	return e.m.scheduleTimer(e.gen, d)
}
