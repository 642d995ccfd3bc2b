package screens

import (
	"strings"
	"testing"
	"time"

	"github.com/pxp9/name-badge/pkg/config"
	"github.com/pxp9/name-badge/pkg/input"
	"github.com/pxp9/name-badge/pkg/poll"
	"github.com/pxp9/name-badge/pkg/render"
	"github.com/pxp9/name-badge/pkg/services/ical"
	"github.com/pxp9/name-badge/pkg/services/location"
	"github.com/pxp9/name-badge/pkg/services/schedule"
	"github.com/pxp9/name-badge/pkg/services/weather"
)

type fakeWeather struct {
	report    weather.Report
	ok        bool
	status    poll.Status
	refreshes int
}

func (f *fakeWeather) Read() (weather.Report, bool) { return f.report, f.ok }
func (f *fakeWeather) Status() poll.Status          { return f.status }
func (f *fakeWeather) ForceRefresh()                { f.refreshes++ }

type fakeCalendar struct {
	events []ical.Event
	ok     bool
	status poll.Status
}

func (f *fakeCalendar) Read() ([]ical.Event, bool) { return f.events, f.ok }
func (f *fakeCalendar) Status() poll.Status        { return f.status }
func (f *fakeCalendar) ForceRefresh()              {}

type fakeSchedule struct {
	prog   schedule.Program
	ok     bool
	status poll.Status
}

func (f *fakeSchedule) Read() (schedule.Program, bool) { return f.prog, f.ok }
func (f *fakeSchedule) Status() poll.Status            { return f.status }

type fakeLocation struct {
	place location.Place
	now   time.Time
}

func (f *fakeLocation) Current() location.Place { return f.place }
func (f *fakeLocation) Now() time.Time          { return f.now }

func single(b input.Button) input.ButtonEvent {
	return input.ButtonEvent{Button: b, Kind: input.SinglePress}
}

func long(b input.Button) input.ButtonEvent {
	return input.ButtonEvent{Button: b, Kind: input.LongPress}
}

func docText(doc render.Document) string {
	var b strings.Builder
	b.WriteString(doc.Title)
	b.WriteString("\n")
	b.WriteString(doc.BigText)
	for _, l := range doc.Lines {
		b.WriteString("\n")
		b.WriteString(l.Text)
	}
	return b.String()
}

// --- menu ---

func testMenu() *Menu {
	return NewMenu([]MenuEntry{
		{Label: "Badge", Target: BadgeName},
		{Label: "Weather", Target: WeatherName},
		{Label: "Schedule", Target: ScheduleName},
	})
}

func TestMenuCycleAndSelect(t *testing.T) {
	m := testMenu()
	m.Mount(nil, nil)

	if nav := m.HandleButton(single(input.ButtonA)); nav != nil {
		t.Fatal("cycling should not navigate")
	}
	nav := m.HandleButton(single(input.ButtonB))
	if nav == nil || nav.Target != WeatherName {
		t.Fatalf("select after one cycle = %+v, want weather", nav)
	}
}

func TestMenuWrapsBothWays(t *testing.T) {
	m := testMenu()
	m.Mount(nil, nil)

	m.HandleButton(long(input.ButtonA)) // back from first wraps to last
	if nav := m.HandleButton(single(input.ButtonB)); nav == nil || nav.Target != ScheduleName {
		t.Fatalf("backward wrap selected %+v, want schedule", nav)
	}

	m.Mount(nil, nil)
	for i := 0; i < 3; i++ {
		m.HandleButton(single(input.ButtonA)) // three forward = full loop
	}
	if nav := m.HandleButton(single(input.ButtonB)); nav == nil || nav.Target != BadgeName {
		t.Fatalf("forward wrap selected %+v, want badge", nav)
	}
}

func TestMenuRemountResetsHighlight(t *testing.T) {
	m := testMenu()
	m.Mount(nil, nil)
	m.HandleButton(single(input.ButtonA))
	m.Mount(nil, nil)
	if nav := m.HandleButton(single(input.ButtonB)); nav == nil || nav.Target != BadgeName {
		t.Fatalf("highlight survived remount, selected %+v", nav)
	}
}

func TestMenuHighlightRendered(t *testing.T) {
	m := testMenu()
	m.Mount(nil, nil)
	m.HandleButton(single(input.ButtonA))

	doc := m.Render()
	if len(doc.Lines) != 3 {
		t.Fatalf("menu rendered %d lines, want 3", len(doc.Lines))
	}
	if !doc.Lines[1].Emphasis || doc.Lines[0].Emphasis {
		t.Error("highlight not on second entry")
	}
}

func TestMenuEmptyIsInert(t *testing.T) {
	m := NewMenu(nil)
	m.Mount(nil, nil)
	if nav := m.HandleButton(single(input.ButtonB)); nav != nil {
		t.Fatal("empty menu navigated")
	}
}

// --- badge ---

func TestBadgeRendersIdentityAndPlace(t *testing.T) {
	b := NewBadge(config.BadgeConfig{Name: "Ada", Handle: "@ada", Company: "Analytical"},
		&fakeLocation{place: location.Place{Name: "Ghent"}})
	b.Mount(nil, nil)

	got := docText(b.Render())
	for _, want := range []string{"Ada", "@ada", "Analytical", "Ghent"} {
		if !strings.Contains(got, want) {
			t.Errorf("badge render missing %q:\n%s", want, got)
		}
	}
	if nav := b.HandleButton(single(input.ButtonA)); nav != nil {
		t.Error("badge should ignore buttons")
	}
}

// --- weather ---

func TestWeatherNoDataShowsReason(t *testing.T) {
	src := &fakeWeather{status: poll.Status{LastError: "bad_status: 502"}}
	w := NewWeather(src, nil)
	w.Mount(nil, nil)

	got := docText(w.Render())
	if !strings.Contains(got, "no data") {
		t.Errorf("missing no-data marker:\n%s", got)
	}
	if !strings.Contains(got, "bad_status: 502") {
		t.Errorf("missing last-error reason:\n%s", got)
	}
}

func TestWeatherCurrentAndForecastToggle(t *testing.T) {
	at := time.Date(2026, 8, 26, 14, 0, 0, 0, time.UTC)
	src := &fakeWeather{ok: true, report: weather.Report{
		TempC:     21.6,
		Condition: "partly cloudy",
		WindKmh:   12,
		FetchedAt: time.Now(),
		Hourly: []weather.HourTemp{
			{At: at, TempC: 21.6},
			{At: at.Add(time.Hour), TempC: 20.1},
		},
	}}
	w := NewWeather(src, nil)
	w.Mount(nil, nil)

	got := docText(w.Render())
	if !strings.Contains(got, "22\u00b0C") || !strings.Contains(got, "partly cloudy") {
		t.Errorf("current view wrong:\n%s", got)
	}

	w.HandleButton(single(input.ButtonA))
	got = docText(w.Render())
	if !strings.Contains(got, "14:00") || !strings.Contains(got, "20.1") {
		t.Errorf("forecast view wrong:\n%s", got)
	}

	w.HandleButton(single(input.ButtonA))
	if got = docText(w.Render()); !strings.Contains(got, "22\u00b0C") {
		t.Errorf("toggle back to current failed:\n%s", got)
	}
}

func TestWeatherRefreshButton(t *testing.T) {
	src := &fakeWeather{ok: true}
	w := NewWeather(src, nil)
	w.Mount(nil, nil)

	w.HandleButton(single(input.ButtonB))
	w.HandleButton(single(input.ButtonB))
	if src.refreshes != 2 {
		t.Errorf("refreshes = %d, want 2", src.refreshes)
	}
}

// --- calendar ---

func TestAddMonthsClampsDay(t *testing.T) {
	cases := []struct {
		from  string
		delta int
		want  string
	}{
		{"2025-01-31", 1, "2025-02-28"},
		{"2024-01-31", 1, "2024-02-29"}, // leap year
		{"2025-03-31", -1, "2025-02-28"},
		{"2024-03-31", -1, "2024-02-29"},
		{"2025-12-15", 1, "2026-01-15"},
		{"2025-01-15", -1, "2024-12-15"},
		{"2025-05-31", 1, "2025-06-30"},
	}
	for _, tc := range cases {
		from, err := time.ParseInLocation("2006-01-02", tc.from, time.UTC)
		if err != nil {
			t.Fatal(err)
		}
		got := addMonths(from, tc.delta).Format("2006-01-02")
		if got != tc.want {
			t.Errorf("addMonths(%s, %d) = %s, want %s", tc.from, tc.delta, got, tc.want)
		}
	}
}

func TestCalendarDayNavigation(t *testing.T) {
	now := time.Date(2026, 1, 31, 10, 30, 0, 0, time.UTC)
	c := NewCalendar(&fakeCalendar{ok: true}, &fakeLocation{now: now})
	c.Mount(nil, nil)

	if got := c.focus.Format("2006-01-02"); got != "2026-01-31" {
		t.Fatalf("mount focus = %s, want today", got)
	}

	c.HandleButton(single(input.ButtonA))
	if got := c.focus.Format("2006-01-02"); got != "2026-02-01" {
		t.Errorf("A = %s, want next day", got)
	}
	c.HandleButton(single(input.ButtonB))
	c.HandleButton(single(input.ButtonB))
	if got := c.focus.Format("2006-01-02"); got != "2026-01-30" {
		t.Errorf("B B = %s, want previous day", got)
	}
}

func TestCalendarMonthJumpClamps(t *testing.T) {
	now := time.Date(2026, 1, 31, 9, 0, 0, 0, time.UTC)
	c := NewCalendar(&fakeCalendar{ok: true}, &fakeLocation{now: now})
	c.Mount(nil, nil)

	c.HandleButton(long(input.ButtonA))
	if got := c.focus.Format("2006-01-02"); got != "2026-02-28" {
		t.Errorf("long-A from Jan 31 = %s, want Feb 28", got)
	}
}

func TestCalendarRendersEventsForFocusDay(t *testing.T) {
	day := time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC)
	src := &fakeCalendar{ok: true, events: []ical.Event{
		{Start: day.Add(9 * time.Hour), End: day.Add(10 * time.Hour), Summary: "Standup", Location: "Room 1"},
		{Start: day.AddDate(0, 0, 1), Summary: "Tomorrow thing"},
	}}
	c := NewCalendar(src, &fakeLocation{now: day.Add(8 * time.Hour)})
	c.Mount(nil, nil)

	got := docText(c.Render())
	if !strings.Contains(got, "Standup") || !strings.Contains(got, "Room 1") {
		t.Errorf("focus-day event missing:\n%s", got)
	}
	if strings.Contains(got, "Tomorrow thing") {
		t.Errorf("other-day event leaked in:\n%s", got)
	}

	c.HandleButton(single(input.ButtonA))
	if got = docText(c.Render()); !strings.Contains(got, "Tomorrow thing") {
		t.Errorf("next-day event missing after A:\n%s", got)
	}
}

func TestCalendarNoData(t *testing.T) {
	src := &fakeCalendar{status: poll.Status{LastError: "network_error: dial"}}
	c := NewCalendar(src, &fakeLocation{now: time.Now()})
	c.Mount(nil, nil)

	got := docText(c.Render())
	if !strings.Contains(got, "no data") || !strings.Contains(got, "network_error") {
		t.Errorf("no-data state wrong:\n%s", got)
	}
}

// --- schedule ---

func testProgram() schedule.Program {
	return schedule.Program{
		Conference: "GopherCon",
		Days: []schedule.Day{
			{
				Date: time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC),
				Talks: []schedule.Talk{
					{Start: "09:00", End: "09:45", Title: "Keynote", Speaker: "A. Speaker"},
					{Start: "10:00", End: "10:45", Title: "Generics in anger", Speaker: "B. Speaker"},
				},
			},
			{
				Date: time.Date(2026, 8, 27, 0, 0, 0, 0, time.UTC),
				Talks: []schedule.Talk{
					{Start: "09:00", End: "09:45", Title: "Closing", Speaker: "C. Speaker"},
				},
			},
		},
	}
}

func TestScheduleMountsOnToday(t *testing.T) {
	src := &fakeSchedule{ok: true, prog: testProgram()}
	loc := &fakeLocation{now: time.Date(2026, 8, 27, 8, 0, 0, 0, time.UTC)}
	s := NewSchedule(src, loc)
	s.Mount(nil, nil)

	if got := docText(s.Render()); !strings.Contains(got, "Closing") {
		t.Errorf("mount did not land on today's program:\n%s", got)
	}
}

func TestScheduleTalkAndDayNavigation(t *testing.T) {
	src := &fakeSchedule{ok: true, prog: testProgram()}
	loc := &fakeLocation{now: time.Date(2026, 8, 26, 8, 0, 0, 0, time.UTC)}
	s := NewSchedule(src, loc)
	s.Mount(nil, nil)

	if got := docText(s.Render()); !strings.Contains(got, "Keynote") {
		t.Fatalf("initial talk wrong:\n%s", got)
	}

	s.HandleButton(single(input.ButtonA))
	if got := docText(s.Render()); !strings.Contains(got, "Generics in anger") {
		t.Errorf("A did not advance talk:\n%s", got)
	}

	s.HandleButton(single(input.ButtonA)) // wraps
	if got := docText(s.Render()); !strings.Contains(got, "Keynote") {
		t.Errorf("talk cursor did not wrap:\n%s", got)
	}

	s.HandleButton(single(input.ButtonB)) // previous wraps backward
	if got := docText(s.Render()); !strings.Contains(got, "Generics in anger") {
		t.Errorf("B did not step back:\n%s", got)
	}

	s.HandleButton(long(input.ButtonA))
	if got := docText(s.Render()); !strings.Contains(got, "Closing") {
		t.Errorf("long-A did not advance day:\n%s", got)
	}
}

func TestScheduleNoData(t *testing.T) {
	src := &fakeSchedule{status: poll.Status{LastError: "malformed_payload: yaml"}}
	s := NewSchedule(src, &fakeLocation{now: time.Now()})
	s.Mount(nil, nil)

	got := docText(s.Render())
	if !strings.Contains(got, "no data") || !strings.Contains(got, "malformed_payload") {
		t.Errorf("no-data state wrong:\n%s", got)
	}
}

func TestScheduleRenderDoesNotMutateCursor(t *testing.T) {
	src := &fakeSchedule{ok: true, prog: testProgram()}
	s := NewSchedule(src, &fakeLocation{now: time.Date(2026, 8, 27, 8, 0, 0, 0, time.UTC)})
	s.Mount(nil, nil)

	day, talk := s.day, s.talk

	// The cached program shrinks under the cursor; Render must show valid
	// content without touching screen state.
	src.prog = schedule.Program{Conference: "GopherCon", Days: testProgram().Days[:1]}
	_ = s.Render()
	_ = s.Render()

	if s.day != day || s.talk != talk {
		t.Fatalf("Render mutated cursor: (%d, %d) -> (%d, %d)", day, talk, s.day, s.talk)
	}
}

func TestScheduleCursorSurvivesProgramShrink(t *testing.T) {
	src := &fakeSchedule{ok: true, prog: testProgram()}
	s := NewSchedule(src, &fakeLocation{now: time.Date(2026, 8, 27, 8, 0, 0, 0, time.UTC)})
	s.Mount(nil, nil)

	// The next poll replaces the program with a single-day one.
	src.prog = schedule.Program{Conference: "GopherCon", Days: testProgram().Days[:1]}
	if got := docText(s.Render()); !strings.Contains(got, "Keynote") {
		t.Errorf("cursor not clamped after shrink:\n%s", got)
	}
}
