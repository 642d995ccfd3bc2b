package screens

import (
	"fmt"
	"time"

	"github.com/pxp9/name-badge/pkg/input"
	"github.com/pxp9/name-badge/pkg/render"
	"github.com/pxp9/name-badge/pkg/services/weather"
	"github.com/pxp9/name-badge/pkg/ui"
)

// WeatherName is the registry key of the weather screen.
const WeatherName = "weather"

// weatherTick is the per-mount re-render cadence, so the "updated N ago"
// line stays honest between pollers and frames.
const weatherTick = time.Minute

// forecastLines caps how many hourly rows fit on the panel.
const forecastLines = 6

// Weather shows cached conditions. A toggles between the current reading and
// the hourly forecast; B nudges the poller for a refresh.
type Weather struct {
	src WeatherSource
	loc LocationSource

	env      *ui.Env
	tick     ui.TimerToken
	forecast bool
}

// NewWeather builds the weather screen over a poller.
func NewWeather(src WeatherSource, loc LocationSource) *Weather {
	return &Weather{src: src, loc: loc}
}

func (w *Weather) Name() string { return WeatherName }

func (w *Weather) Mount(env *ui.Env, args any) {
	w.env = env
	w.forecast = false
	if env != nil {
		w.tick = env.After(weatherTick)
	}
}

func (w *Weather) HandleButton(ev input.ButtonEvent) *ui.Nav {
	switch {
	case ev.Button == input.ButtonA && ev.Kind == input.SinglePress:
		w.forecast = !w.forecast
	case ev.Button == input.ButtonB && ev.Kind == input.SinglePress:
		w.src.ForceRefresh()
	}
	return nil
}

func (w *Weather) HandleTimer(tok ui.TimerToken) {
	if tok != w.tick || w.env == nil {
		return
	}
	w.tick = w.env.After(weatherTick)
}

func (w *Weather) Render() render.Document {
	report, ok := w.src.Read()
	if !ok {
		doc := render.Document{Title: "Weather"}
		doc.Lines = append(doc.Lines, render.Line{Text: "no data", Align: render.AlignCenter, Emphasis: true})
		if st := w.src.Status(); st.LastError != "" {
			doc.Lines = append(doc.Lines, render.Line{Text: st.LastError, Align: render.AlignCenter})
		}
		return doc
	}

	if w.forecast {
		return w.renderForecast(report)
	}

	doc := render.Document{
		Title:   "Weather",
		BigText: fmt.Sprintf("%.0f°C", report.TempC),
	}
	doc.Lines = append(doc.Lines,
		render.Line{Text: report.Condition, Align: render.AlignCenter, Emphasis: true},
		render.Line{Text: fmt.Sprintf("wind %.0f km/h", report.WindKmh), Align: render.AlignCenter},
		render.Line{Text: "updated " + w.age(report.FetchedAt), Align: render.AlignCenter},
	)
	return doc
}

func (w *Weather) renderForecast(report weather.Report) render.Document {
	doc := render.Document{Title: "Forecast"}
	zone := time.UTC
	if w.loc != nil {
		zone = w.loc.Current().Zone()
	}
	for i, h := range report.Hourly {
		if i >= forecastLines {
			break
		}
		doc.Lines = append(doc.Lines, render.Line{
			Text: fmt.Sprintf("%s  %5.1f°", h.At.In(zone).Format("15:04"), h.TempC),
		})
	}
	if len(doc.Lines) == 0 {
		doc.Lines = append(doc.Lines, render.Line{Text: "no hourly data", Align: render.AlignCenter})
	}
	return doc
}

func (w *Weather) age(fetched time.Time) string {
	now := time.Now()
	if w.loc != nil {
		now = w.loc.Now()
	}
	d := now.Sub(fetched)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	default:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	}
}
