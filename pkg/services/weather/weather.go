// Package weather provides the Open-Meteo forecast client backing the badge's
// weather screen. The client is an opaque fetch function from the poller's
// point of view: it returns a typed Report or a classified *poll.FetchError.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pxp9/name-badge/pkg/poll"
)

// DefaultBaseURL is the public Open-Meteo forecast endpoint.
const DefaultBaseURL = "https://api.open-meteo.com/v1/forecast"

const requestTimeout = 10 * time.Second

// HourTemp is one point of the short-range hourly forecast.
type HourTemp struct {
	At    time.Time `json:"at"`
	TempC float64   `json:"temp_c"`
}

// Report is the cached weather payload.
type Report struct {
	TempC     float64    `json:"temp_c"`
	Code      int        `json:"code"`
	Condition string     `json:"condition"`
	WindKmh   float64    `json:"wind_kmh"`
	Hourly    []HourTemp `json:"hourly"`
	FetchedAt time.Time  `json:"fetched_at"`
}

// Client fetches forecasts from an Open-Meteo-compatible endpoint.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a forecast client. An empty baseURL uses DefaultBaseURL.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: requestTimeout},
	}
}

// apiResponse mirrors the subset of the Open-Meteo payload the badge uses.
type apiResponse struct {
	Current struct {
		Temperature float64 `json:"temperature_2m"`
		WeatherCode int     `json:"weather_code"`
		WindSpeed   float64 `json:"wind_speed_10m"`
	} `json:"current"`
	Hourly struct {
		Time        []string  `json:"time"`
		Temperature []float64 `json:"temperature_2m"`
	} `json:"hourly"`
}

// Fetch retrieves the current conditions and a 12-hour forecast for the given
// coordinates. Failures are returned as *poll.FetchError.
func (c *Client) Fetch(ctx context.Context, lat, lon float64) (Report, error) {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(lat, 'f', 4, 64))
	q.Set("longitude", strconv.FormatFloat(lon, 'f', 4, 64))
	q.Set("current", "temperature_2m,weather_code,wind_speed_10m")
	q.Set("hourly", "temperature_2m")
	q.Set("forecast_hours", "12")
	q.Set("timezone", "UTC")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return Report{}, poll.NetworkError(err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Report{}, poll.NetworkError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Report{}, poll.BadStatus(resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Report{}, poll.NetworkError(err)
	}

	var api apiResponse
	if err := json.Unmarshal(body, &api); err != nil {
		return Report{}, poll.Malformed(err)
	}

	r := Report{
		TempC:     api.Current.Temperature,
		Code:      api.Current.WeatherCode,
		Condition: conditionText(api.Current.WeatherCode),
		WindKmh:   api.Current.WindSpeed,
		FetchedAt: time.Now(),
	}
	for i, ts := range api.Hourly.Time {
		if i >= len(api.Hourly.Temperature) {
			break
		}
		at, err := time.Parse("2006-01-02T15:04", ts)
		if err != nil {
			return Report{}, poll.Malformed(fmt.Errorf("hourly time %q: %w", ts, err))
		}
		r.Hourly = append(r.Hourly, HourTemp{At: at.UTC(), TempC: api.Hourly.Temperature[i]})
	}
	return r, nil
}

// conditionText maps WMO weather interpretation codes to short display text.
func conditionText(code int) string {
	switch {
	case code == 0:
		return "Clear"
	case code <= 2:
		return "Partly cloudy"
	case code == 3:
		return "Overcast"
	case code == 45 || code == 48:
		return "Fog"
	case code >= 51 && code <= 57:
		return "Drizzle"
	case code >= 61 && code <= 67:
		return "Rain"
	case code >= 71 && code <= 77:
		return "Snow"
	case code >= 80 && code <= 82:
		return "Showers"
	case code == 85 || code == 86:
		return "Snow showers"
	case code >= 95:
		return "Thunderstorm"
	default:
		return "Unknown"
	}
}
