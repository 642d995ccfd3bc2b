// Package input turns raw button edges from the badge's two physical buttons
// into discrete press events. The classifier itself is pure state tracking:
// time always arrives stamped on the edge, never from the wall clock, so the
// logic is fully testable without sleeping.
package input

import (
	"fmt"
	"time"
)

// Button identifies one of the badge's physical buttons.
type Button uint8

const (
	// ButtonA is the primary (top) button.
	ButtonA Button = iota
	// ButtonB is the secondary (bottom) button. Long-press B is reserved by
	// the lifecycle manager as "back to menu".
	ButtonB

	numButtons
)

// String returns the button label silkscreened on the board.
func (b Button) String() string {
	switch b {
	case ButtonA:
		return "A"
	case ButtonB:
		return "B"
	default:
		return fmt.Sprintf("Button(%d)", uint8(b))
	}
}

// ParseButton maps a driver-level identifier to a Button. Unknown identifiers
// are rejected here, at the boundary, so the classifier never sees them.
func ParseButton(id string) (Button, error) {
	switch id {
	case "A", "a", "btn0":
		return ButtonA, nil
	case "B", "b", "btn1":
		return ButtonB, nil
	default:
		return 0, fmt.Errorf("input: unknown button id %q", id)
	}
}

// PressKind distinguishes a quick tap from a held press.
type PressKind uint8

const (
	SinglePress PressKind = iota
	LongPress
)

// String returns a log-friendly name.
func (k PressKind) String() string {
	if k == LongPress {
		return "long_press"
	}
	return "single_press"
}

// Edge is a raw electrical transition reported by the button driver or the
// host emulator. Pressed is true on the press edge, false on release.
type Edge struct {
	Button  Button
	Pressed bool
	At      time.Time
}

// ButtonEvent is the classified result of one completed press/release cycle.
type ButtonEvent struct {
	Button  Button
	Kind    PressKind
	HeldFor time.Duration
}
