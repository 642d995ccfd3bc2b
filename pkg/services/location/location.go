// Package location implements the badge's timezone/location service. It
// resolves the badge's position by IP geolocation, persists the result so a
// reboot offline keeps the right clock, and owns the single mutable
// "current place" cell every other component reads through an accessor.
package location

import (
	"time"
)

// Place is the resolved location document. It is persisted verbatim.
type Place struct {
	Timezone  string  `json:"timezone"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Name      string  `json:"name"`
}

// Zone parses the place's timezone, falling back to UTC when the zone is
// unset or unknown rather than failing a render pass.
func (p Place) Zone() *time.Location {
	if p.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
