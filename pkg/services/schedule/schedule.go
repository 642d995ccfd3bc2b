// Package schedule fetches the conference program shown on the badge's
// schedule screen. The program comes from a JSON API when a URL is
// configured; otherwise a YAML file bundled onto the badge at provisioning
// time is used, so the schedule screen works with no connectivity at all.
package schedule

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pxp9/name-badge/pkg/poll"
)

const requestTimeout = 15 * time.Second

// Talk is one program slot. Start and End are conference-local clock times
// ("09:45"); the badge shows them verbatim.
type Talk struct {
	Start   string `json:"start" yaml:"start"`
	End     string `json:"end" yaml:"end"`
	Title   string `json:"title" yaml:"title"`
	Speaker string `json:"speaker" yaml:"speaker"`
	Room    string `json:"room" yaml:"room"`
	Track   string `json:"track" yaml:"track"`
}

// Day groups the talks of one conference day.
type Day struct {
	Date  time.Time `json:"date" yaml:"date"`
	Talks []Talk    `json:"talks" yaml:"talks"`
}

// Program is the cached schedule payload.
type Program struct {
	Conference string    `json:"conference" yaml:"conference"`
	Days       []Day     `json:"days" yaml:"days"`
	FetchedAt  time.Time `json:"fetched_at" yaml:"-"`
}

// DayIndex returns the index of the day matching date (by calendar day), or
// -1 when the program has no such day.
func (p Program) DayIndex(date time.Time) int {
	y, m, d := date.Date()
	for i, day := range p.Days {
		dy, dm, dd := day.Date.Date()
		if dy == y && dm == m && dd == d {
			return i
		}
	}
	return -1
}

// wireProgram is the transport shape; dates arrive as "2006-01-02" strings.
type wireProgram struct {
	Conference string `json:"conference" yaml:"conference"`
	Days       []struct {
		Date  string `json:"date" yaml:"date"`
		Talks []Talk `json:"talks" yaml:"talks"`
	} `json:"days" yaml:"days"`
}

func (w wireProgram) toProgram() (Program, error) {
	p := Program{Conference: w.Conference, FetchedAt: time.Now()}
	for _, d := range w.Days {
		date, err := time.Parse("2006-01-02", d.Date)
		if err != nil {
			return Program{}, fmt.Errorf("day date %q: %w", d.Date, err)
		}
		p.Days = append(p.Days, Day{Date: date, Talks: d.Talks})
	}
	return p, nil
}

// Source fetches the program from the API or the fallback file.
type Source struct {
	url      string
	fallback string
	http     *http.Client
}

// NewSource returns a program source. With an empty url, Fetch reads the
// fallback file instead of the network.
func NewSource(url, fallbackFile string) *Source {
	return &Source{
		url:      url,
		fallback: fallbackFile,
		http:     &http.Client{Timeout: requestTimeout},
	}
}

// Fetch retrieves the program. Failures are classified as *poll.FetchError.
func (s *Source) Fetch(ctx context.Context) (Program, error) {
	if s.url == "" {
		return s.loadFallback()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return Program{}, poll.NetworkError(err)
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return Program{}, poll.NetworkError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Program{}, poll.BadStatus(resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return Program{}, poll.NetworkError(err)
	}

	var wire wireProgram
	if err := json.Unmarshal(body, &wire); err != nil {
		return Program{}, poll.Malformed(err)
	}
	p, err := wire.toProgram()
	if err != nil {
		return Program{}, poll.Malformed(err)
	}
	return p, nil
}

// loadFallback parses the bundled YAML program.
func (s *Source) loadFallback() (Program, error) {
	if s.fallback == "" {
		return Program{}, poll.NetworkError(fmt.Errorf("no schedule url and no fallback file configured"))
	}
	data, err := os.ReadFile(s.fallback)
	if err != nil {
		return Program{}, poll.NetworkError(fmt.Errorf("fallback schedule: %w", err))
	}
	var wire wireProgram
	if err := yaml.Unmarshal(data, &wire); err != nil {
		return Program{}, poll.Malformed(err)
	}
	p, err := wire.toProgram()
	if err != nil {
		return Program{}, poll.Malformed(err)
	}
	return p, nil
}
