package location

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pxp9/name-badge/pkg/poll"
)

// DefaultGeoURL is the public ip-api.com endpoint.
const DefaultGeoURL = "http://ip-api.com/json"

const (
	requestTimeout  = 10 * time.Second
	defaultAttempts = 3
	defaultBaseWait = 500 * time.Millisecond
	maxBackoff      = 4 * time.Second
)

// Resolver geolocates the badge by its public IP. One Resolve call makes a
// bounded number of attempts with exponential backoff between them; this
// backoff lives inside the fetch, below the poller's circuit breaker.
type Resolver struct {
	geoURL   string
	http     *http.Client
	attempts int
	baseWait time.Duration
}

// ResolverConfig tunes the retry behavior. Zero values use defaults.
type ResolverConfig struct {
	GeoURL   string
	Attempts int
	BaseWait time.Duration
}

// NewResolver returns a geolocation resolver.
func NewResolver(cfg ResolverConfig) *Resolver {
	if cfg.GeoURL == "" {
		cfg.GeoURL = DefaultGeoURL
	}
	if cfg.Attempts <= 0 {
		cfg.Attempts = defaultAttempts
	}
	if cfg.BaseWait <= 0 {
		cfg.BaseWait = defaultBaseWait
	}
	return &Resolver{
		geoURL:   cfg.GeoURL,
		http:     &http.Client{Timeout: requestTimeout},
		attempts: cfg.Attempts,
		baseWait: cfg.BaseWait,
	}
}

// geoResponse mirrors the ip-api.com JSON payload.
type geoResponse struct {
	Status   string  `json:"status"`
	Message  string  `json:"message"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Timezone string  `json:"timezone"`
	City     string  `json:"city"`
	Country  string  `json:"country"`
}

// Resolve geolocates the badge, retrying up to the configured attempt count.
// The last failure is returned as a *poll.FetchError.
func (r *Resolver) Resolve(ctx context.Context) (Place, error) {
	var lastErr error
	wait := r.baseWait
	for attempt := 1; attempt <= r.attempts; attempt++ {
		if attempt > 1 {
			timer := time.NewTimer(wait)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return Place{}, poll.NetworkError(ctx.Err())
			}
			wait *= 2
			if wait > maxBackoff {
				wait = maxBackoff
			}
		}

		pl, err := r.resolveOnce(ctx)
		if err == nil {
			return pl, nil
		}
		lastErr = err
	}
	return Place{}, lastErr
}

func (r *Resolver) resolveOnce(ctx context.Context) (Place, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.geoURL, nil)
	if err != nil {
		return Place{}, poll.NetworkError(err)
	}

	resp, err := r.http.Do(req)
	if err != nil {
		return Place{}, poll.NetworkError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Place{}, poll.BadStatus(resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return Place{}, poll.NetworkError(err)
	}

	var geo geoResponse
	if err := json.Unmarshal(body, &geo); err != nil {
		return Place{}, poll.Malformed(err)
	}
	if geo.Status != "success" {
		return Place{}, poll.Malformed(fmt.Errorf("geolocation status %q: %s", geo.Status, geo.Message))
	}
	if geo.Timezone == "" {
		return Place{}, poll.Malformed(fmt.Errorf("geolocation response missing timezone"))
	}

	return Place{
		Timezone:  geo.Timezone,
		Latitude:  geo.Lat,
		Longitude: geo.Lon,
		Name:      placeName(geo.City, geo.Country),
	}, nil
}

// placeName joins the reverse-geocoded parts that are present.
func placeName(city, country string) string {
	parts := make([]string, 0, 2)
	if city != "" {
		parts = append(parts, city)
	}
	if country != "" {
		parts = append(parts, country)
	}
	return strings.Join(parts, ", ")
}
