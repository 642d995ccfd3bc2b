package screens

import (
	"fmt"

	"github.com/pxp9/name-badge/pkg/input"
	"github.com/pxp9/name-badge/pkg/render"
	"github.com/pxp9/name-badge/pkg/services/schedule"
	"github.com/pxp9/name-badge/pkg/ui"
)

// ScheduleName is the registry key of the conference program screen.
const ScheduleName = "schedule"

// Schedule browses the conference program one talk at a time. A steps to the
// next talk, long-A to the next day, B to the previous talk.
type Schedule struct {
	src ScheduleSource
	loc LocationSource

	day  int
	talk int
}

// NewSchedule builds the program screen over a schedule poller.
func NewSchedule(src ScheduleSource, loc LocationSource) *Schedule {
	return &Schedule{src: src, loc: loc}
}

func (s *Schedule) Name() string { return ScheduleName }

// Mount positions on today's program day when the cache has one, otherwise
// on the first day.
func (s *Schedule) Mount(env *ui.Env, args any) {
	s.day, s.talk = 0, 0
	prog, ok := s.src.Read()
	if !ok || s.loc == nil {
		return
	}
	if i := prog.DayIndex(s.loc.Now()); i >= 0 {
		s.day = i
	}
}

func (s *Schedule) HandleButton(ev input.ButtonEvent) *ui.Nav {
	prog, ok := s.src.Read()
	if !ok || len(prog.Days) == 0 {
		return nil
	}
	s.day, s.talk = clampCursor(prog, s.day, s.talk)

	talks := len(prog.Days[s.day].Talks)
	switch {
	case ev.Button == input.ButtonA && ev.Kind == input.SinglePress:
		if talks > 0 {
			s.talk = (s.talk + 1) % talks
		}
	case ev.Button == input.ButtonA && ev.Kind == input.LongPress:
		s.day = (s.day + 1) % len(prog.Days)
		s.talk = 0
	case ev.Button == input.ButtonB && ev.Kind == input.SinglePress:
		if talks > 0 {
			s.talk = (s.talk - 1 + talks) % talks
		}
	}
	return nil
}

func (s *Schedule) HandleTimer(tok ui.TimerToken) {}

func (s *Schedule) Render() render.Document {
	prog, ok := s.src.Read()
	if !ok {
		doc := render.Document{Title: "Schedule"}
		doc.Lines = append(doc.Lines, render.Line{Text: "no data", Align: render.AlignCenter, Emphasis: true})
		if st := s.src.Status(); st.LastError != "" {
			doc.Lines = append(doc.Lines, render.Line{Text: st.LastError, Align: render.AlignCenter})
		}
		return doc
	}
	if len(prog.Days) == 0 {
		return render.Document{
			Title: prog.Conference,
			Lines: []render.Line{{Text: "empty program", Align: render.AlignCenter}},
		}
	}
	// Render must not mutate the cursor; clamp into locals in case the
	// cached program shrank since the last button press.
	dayIdx, talkIdx := clampCursor(prog, s.day, s.talk)

	day := prog.Days[dayIdx]
	doc := render.Document{Title: prog.Conference}
	doc.Lines = append(doc.Lines, render.Line{
		Text:     day.Date.Format("Mon Jan 2"),
		Align:    render.AlignCenter,
		Emphasis: true,
	})
	if len(day.Talks) == 0 {
		doc.Lines = append(doc.Lines, render.Line{Text: "no talks", Align: render.AlignCenter})
		return doc
	}

	t := day.Talks[talkIdx]
	doc.Lines = append(doc.Lines,
		render.Line{Text: t.Start + " - " + t.End},
		render.Line{Text: t.Title, Emphasis: true},
		render.Line{Text: t.Speaker},
	)
	if t.Room != "" {
		doc.Lines = append(doc.Lines, render.Line{Text: t.Room})
	}
	doc.Lines = append(doc.Lines, render.Line{
		Text:  fmt.Sprintf("%d/%d", talkIdx+1, len(day.Talks)),
		Align: render.AlignRight,
	})
	return doc
}

// clampCursor maps a cursor onto a program that may have changed shape
// between polls. Pure: button handlers persist the result, Render does not.
func clampCursor(prog schedule.Program, day, talk int) (int, int) {
	if day >= len(prog.Days) {
		return 0, 0
	}
	if talk >= len(prog.Days[day].Talks) {
		return day, 0
	}
	return day, talk
}
