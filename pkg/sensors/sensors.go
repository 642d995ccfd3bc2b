// Package sensors provides the chrome data collaborators: battery level and
// network link status. Reads are idempotent point-in-time samples; the
// lifecycle manager polls them once per frame with no locking.
package sensors

// Battery reports the remaining charge.
type Battery interface {
	// Percent returns the charge level in [0, 100]. Implementations return a
	// best-effort value and never fail; an unreadable gauge reads as 0.
	Percent() int
}

// Link reports whether the badge has a usable network path.
type Link interface {
	Up() bool
}

// FixedBattery is a constant battery level, used by the emulator and tests.
type FixedBattery int

// Percent returns the fixed level.
func (b FixedBattery) Percent() int { return int(b) }

// FixedLink is a constant link status.
type FixedLink bool

// Up returns the fixed status.
func (l FixedLink) Up() bool { return bool(l) }
