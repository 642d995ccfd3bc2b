// Package config provides TOML-based configuration for the badge runtime.
package config

import (
	"fmt"
	"time"
)

// Duration makes time.Duration usable as a TOML value, so the config file
// can say `long_press_threshold = "600ms"` or `cooldown = "5m"` instead of
// raw nanosecond counts.
type Duration struct {
	time.Duration
}

// UnmarshalText parses a Go duration string. An empty value is zero, left to
// the per-field default to resolve. Negative durations are rejected here;
// none of the badge's timing knobs can mean anything backwards.
func (d *Duration) UnmarshalText(text []byte) error {
	s := string(text)
	if s == "" {
		d.Duration = 0
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	if parsed < 0 {
		return fmt.Errorf("negative duration %q not allowed", s)
	}
	d.Duration = parsed
	return nil
}

// MarshalText renders the duration back in the same string form.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}
