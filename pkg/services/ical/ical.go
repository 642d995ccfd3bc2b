// Package ical fetches and parses the wearer's personal calendar feed for the
// badge's calendar screen. The parser covers the slice of RFC 5545 the badge
// needs: unfolded lines, VEVENT blocks, date and date-time starts/ends, and
// escaped text values. Anything it cannot make sense of is a malformed-payload
// fetch failure, absorbed by the poller like any other.
package ical

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/pxp9/name-badge/pkg/poll"
)

const requestTimeout = 15 * time.Second

// Event is one calendar entry.
type Event struct {
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	AllDay   bool      `json:"all_day"`
	Summary  string    `json:"summary"`
	Location string    `json:"location"`
}

// Client fetches an ICS feed over HTTP.
type Client struct {
	url  string
	http *http.Client
}

// NewClient returns an ICS feed client.
func NewClient(url string) *Client {
	return &Client{
		url:  url,
		http: &http.Client{Timeout: requestTimeout},
	}
}

// Fetch downloads and parses the feed. Events come back sorted by start time.
func (c *Client) Fetch(ctx context.Context) ([]Event, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, poll.NetworkError(err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, poll.NetworkError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, poll.BadStatus(resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, poll.NetworkError(err)
	}

	events, err := Parse(body)
	if err != nil {
		return nil, poll.Malformed(err)
	}
	return events, nil
}

// Parse decodes ICS data into events, sorted by start time. Events without a
// DTSTART are rejected; an unterminated VEVENT is a parse error.
func Parse(data []byte) ([]Event, error) {
	lines := unfold(string(data))

	var events []Event
	var cur *Event
	for _, line := range lines {
		name, params, value, ok := splitProperty(line)
		if !ok {
			continue
		}
		switch name {
		case "BEGIN":
			if value == "VEVENT" {
				if cur != nil {
					return nil, fmt.Errorf("ical: nested VEVENT")
				}
				cur = &Event{}
			}
		case "END":
			if value != "VEVENT" {
				continue
			}
			if cur == nil {
				return nil, fmt.Errorf("ical: END:VEVENT without BEGIN")
			}
			if cur.Start.IsZero() {
				return nil, fmt.Errorf("ical: VEVENT missing DTSTART")
			}
			if cur.End.IsZero() {
				cur.End = cur.Start
			}
			events = append(events, *cur)
			cur = nil
		case "DTSTART":
			if cur == nil {
				continue
			}
			t, allDay, err := parseDateTime(value, params)
			if err != nil {
				return nil, err
			}
			cur.Start = t
			cur.AllDay = allDay
		case "DTEND":
			if cur == nil {
				continue
			}
			t, _, err := parseDateTime(value, params)
			if err != nil {
				return nil, err
			}
			cur.End = t
		case "SUMMARY":
			if cur != nil {
				cur.Summary = unescape(value)
			}
		case "LOCATION":
			if cur != nil {
				cur.Location = unescape(value)
			}
		}
	}
	if cur != nil {
		return nil, fmt.Errorf("ical: unterminated VEVENT")
	}

	sort.Slice(events, func(i, j int) bool { return events[i].Start.Before(events[j].Start) })
	return events, nil
}

// On filters events to those starting on the given calendar day, compared in
// date's location.
func On(events []Event, date time.Time) []Event {
	y, m, d := date.Date()
	loc := date.Location()

	var out []Event
	for _, ev := range events {
		ey, em, ed := ev.Start.In(loc).Date()
		if ey == y && em == m && ed == d {
			out = append(out, ev)
		}
	}
	return out
}

// unfold joins continuation lines (lines starting with space or tab) onto the
// previous line, per RFC 5545 §3.1.
func unfold(s string) []string {
	raw := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	var lines []string
	for _, l := range raw {
		if l == "" {
			continue
		}
		if (l[0] == ' ' || l[0] == '\t') && len(lines) > 0 {
			lines[len(lines)-1] += l[1:]
			continue
		}
		lines = append(lines, l)
	}
	return lines
}

// splitProperty breaks "NAME;PARAM=X;PARAM=Y:value" into its parts.
func splitProperty(line string) (name string, params map[string]string, value string, ok bool) {
	colon := strings.Index(line, ":")
	if colon < 0 {
		return "", nil, "", false
	}
	head, value := line[:colon], line[colon+1:]

	parts := strings.Split(head, ";")
	name = strings.ToUpper(parts[0])
	params = make(map[string]string, len(parts)-1)
	for _, p := range parts[1:] {
		if eq := strings.Index(p, "="); eq > 0 {
			params[strings.ToUpper(p[:eq])] = p[eq+1:]
		}
	}
	return name, params, value, true
}

// parseDateTime handles the three forms the badge sees in the wild: all-day
// dates, UTC date-times, and TZID or floating local date-times.
func parseDateTime(value string, params map[string]string) (time.Time, bool, error) {
	if params["VALUE"] == "DATE" || len(value) == 8 {
		t, err := time.Parse("20060102", value)
		if err != nil {
			return time.Time{}, false, fmt.Errorf("ical: date %q: %w", value, err)
		}
		return t, true, nil
	}

	if strings.HasSuffix(value, "Z") {
		t, err := time.Parse("20060102T150405Z", value)
		if err != nil {
			return time.Time{}, false, fmt.Errorf("ical: utc date-time %q: %w", value, err)
		}
		return t, false, nil
	}

	loc := time.UTC
	if tzid := params["TZID"]; tzid != "" {
		if l, err := time.LoadLocation(tzid); err == nil {
			loc = l
		}
	}
	t, err := time.ParseInLocation("20060102T150405", value, loc)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("ical: date-time %q: %w", value, err)
	}
	return t, false, nil
}

// unescape reverses RFC 5545 text escaping.
func unescape(s string) string {
	r := strings.NewReplacer(`\n`, "\n", `\N`, "\n", `\,`, ",", `\;`, ";", `\\`, `\`)
	return r.Replace(s)
}
