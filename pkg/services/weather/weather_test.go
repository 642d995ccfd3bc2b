package weather

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pxp9/name-badge/pkg/poll"
)

const samplePayload = `{
	"current": {"temperature_2m": 18.4, "weather_code": 61, "wind_speed_10m": 12.5},
	"hourly": {
		"time": ["2026-08-26T10:00", "2026-08-26T11:00"],
		"temperature_2m": [18.4, 19.1]
	}
}`

func TestFetchParsesReport(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(samplePayload))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	r, err := c.Fetch(context.Background(), 40.4168, -3.7038)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	if r.TempC != 18.4 {
		t.Errorf("TempC = %v, want 18.4", r.TempC)
	}
	if r.Condition != "Rain" {
		t.Errorf("Condition = %q, want Rain (code 61)", r.Condition)
	}
	if len(r.Hourly) != 2 {
		t.Fatalf("Hourly has %d points, want 2", len(r.Hourly))
	}
	if r.Hourly[1].TempC != 19.1 {
		t.Errorf("Hourly[1].TempC = %v, want 19.1", r.Hourly[1].TempC)
	}
	if r.FetchedAt.IsZero() {
		t.Error("FetchedAt not set")
	}
	for _, want := range []string{"latitude=40.4168", "longitude=-3.7038"} {
		if !strings.Contains(gotQuery, want) {
			t.Errorf("query %q missing %q", gotQuery, want)
		}
	}
}

func TestFetchBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream sad", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Fetch(context.Background(), 0, 0)
	assertKind(t, err, poll.KindBadStatus)
}

func TestFetchMalformedPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"current": "not an object"`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Fetch(context.Background(), 0, 0)
	assertKind(t, err, poll.KindMalformed)
}

func TestFetchBadHourlyTimestamp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"hourly": {"time": ["yesterday-ish"], "temperature_2m": [1.0]}}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Fetch(context.Background(), 0, 0)
	assertKind(t, err, poll.KindMalformed)
}

func TestFetchNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	_, err := NewClient(srv.URL).Fetch(context.Background(), 0, 0)
	assertKind(t, err, poll.KindNetwork)
}

func TestConditionText(t *testing.T) {
	for _, tc := range []struct {
		code int
		want string
	}{
		{0, "Clear"}, {2, "Partly cloudy"}, {3, "Overcast"},
		{45, "Fog"}, {53, "Drizzle"}, {65, "Rain"}, {73, "Snow"},
		{81, "Showers"}, {96, "Thunderstorm"}, {42, "Unknown"},
	} {
		if got := conditionText(tc.code); got != tc.want {
			t.Errorf("conditionText(%d) = %q, want %q", tc.code, got, tc.want)
		}
	}
}

func assertKind(t *testing.T, err error, want poll.FailureKind) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error")
	}
	var fe *poll.FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("error %v is not a *poll.FetchError", err)
	}
	if fe.Kind != want {
		t.Errorf("Kind = %v, want %v", fe.Kind, want)
	}
}
