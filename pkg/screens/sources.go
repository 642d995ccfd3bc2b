// Package screens holds the concrete badge screens. Each screen keeps only
// screen-local state and reads cached service data through narrow source
// interfaces, so tests drive them with small fakes instead of live pollers.
package screens

import (
	"time"

	"github.com/pxp9/name-badge/pkg/poll"
	"github.com/pxp9/name-badge/pkg/services/ical"
	"github.com/pxp9/name-badge/pkg/services/location"
	"github.com/pxp9/name-badge/pkg/services/schedule"
	"github.com/pxp9/name-badge/pkg/services/weather"
)

// WeatherSource is the weather poller surface the weather screen consumes.
// *poll.Poller[weather.Report] satisfies it.
type WeatherSource interface {
	Read() (weather.Report, bool)
	Status() poll.Status
	ForceRefresh()
}

// ScheduleSource is the conference program poller surface.
type ScheduleSource interface {
	Read() (schedule.Program, bool)
	Status() poll.Status
}

// CalendarSource is the personal calendar poller surface.
type CalendarSource interface {
	Read() ([]ical.Event, bool)
	Status() poll.Status
	ForceRefresh()
}

// LocationSource supplies the resolved place and zone-local time.
// *location.Service satisfies it.
type LocationSource interface {
	Current() location.Place
	Now() time.Time
}
