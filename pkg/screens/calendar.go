package screens

import (
	"fmt"
	"time"

	"github.com/pxp9/name-badge/pkg/input"
	"github.com/pxp9/name-badge/pkg/render"
	"github.com/pxp9/name-badge/pkg/services/ical"
	"github.com/pxp9/name-badge/pkg/ui"
)

// CalendarName is the registry key of the personal calendar screen.
const CalendarName = "calendar"

// calendarLines caps how many event rows fit on the panel.
const calendarLines = 5

// Calendar shows the wearer's ICS events for one focus date. A steps forward
// a day, long-A forward a month, B back a day.
type Calendar struct {
	src CalendarSource
	loc LocationSource

	focus time.Time
}

// NewCalendar builds the calendar screen over an ICS poller.
func NewCalendar(src CalendarSource, loc LocationSource) *Calendar {
	return &Calendar{src: src, loc: loc}
}

func (c *Calendar) Name() string { return CalendarName }

// Mount focuses today in the resolved zone. A time.Time argument overrides
// the focus date (used when another screen links to a specific day).
func (c *Calendar) Mount(env *ui.Env, args any) {
	if t, ok := args.(time.Time); ok {
		c.focus = midnight(t)
		return
	}
	now := time.Now()
	if c.loc != nil {
		now = c.loc.Now()
	}
	c.focus = midnight(now)
}

func (c *Calendar) HandleButton(ev input.ButtonEvent) *ui.Nav {
	switch {
	case ev.Button == input.ButtonA && ev.Kind == input.SinglePress:
		c.focus = c.focus.AddDate(0, 0, 1)
	case ev.Button == input.ButtonA && ev.Kind == input.LongPress:
		c.focus = addMonths(c.focus, 1)
	case ev.Button == input.ButtonB && ev.Kind == input.SinglePress:
		c.focus = c.focus.AddDate(0, 0, -1)
	}
	return nil
}

func (c *Calendar) HandleTimer(tok ui.TimerToken) {}

func (c *Calendar) Render() render.Document {
	doc := render.Document{
		Title:   "Calendar",
		BigText: fmt.Sprintf("%d", c.focus.Day()),
	}
	doc.Lines = append(doc.Lines, render.Line{
		Text:     c.focus.Format("Mon Jan 2 2006"),
		Align:    render.AlignCenter,
		Emphasis: true,
	})

	events, ok := c.src.Read()
	if !ok {
		doc.Lines = append(doc.Lines, render.Line{Text: "no data", Align: render.AlignCenter})
		if st := c.src.Status(); st.LastError != "" {
			doc.Lines = append(doc.Lines, render.Line{Text: st.LastError, Align: render.AlignCenter})
		}
		return doc
	}

	day := ical.On(events, c.focus)
	if len(day) == 0 {
		doc.Lines = append(doc.Lines, render.Line{Text: "free", Align: render.AlignCenter})
		return doc
	}
	for i, ev := range day {
		if i >= calendarLines {
			doc.Lines = append(doc.Lines, render.Line{Text: fmt.Sprintf("+%d more", len(day)-i)})
			break
		}
		doc.Lines = append(doc.Lines, render.Line{Text: eventLine(ev, c.focus.Location())})
	}
	return doc
}

func eventLine(ev ical.Event, zone *time.Location) string {
	if ev.AllDay {
		return "all day  " + ev.Summary
	}
	line := ev.Start.In(zone).Format("15:04") + "  " + ev.Summary
	if ev.Location != "" {
		line += " @ " + ev.Location
	}
	return line
}

// midnight truncates t to the start of its calendar day, keeping the zone.
func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// addMonths shifts t by delta calendar months, keeping the day-of-month and
// clamping it to the target month's length. time.AddDate would normalize
// Jan 31 + 1 month into Mar 2/3; here it lands on the last day of February.
func addMonths(t time.Time, delta int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(delta), 1, 0, 0, 0, 0, t.Location())
	if last := daysIn(first.Year(), first.Month(), t.Location()); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, t.Location())
}

// daysIn returns the number of days in the given month. Day 0 of the next
// month is the last day of this one.
func daysIn(year int, month time.Month, zone *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, zone).Day()
}
