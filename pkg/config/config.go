package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the badge runtime. It is read once at
// boot and never reloaded.
type Config struct {
	Badge    BadgeConfig    `toml:"badge"`
	Input    InputConfig    `toml:"input"`
	Weather  WeatherConfig  `toml:"weather"`
	Location LocationConfig `toml:"location"`
	Schedule ScheduleConfig `toml:"schedule"`
	Calendar CalendarConfig `toml:"calendar"`
	Display  DisplayConfig  `toml:"display"`
	Runtime  RuntimeConfig  `toml:"runtime"`
}

// BadgeConfig is the wearer identity shown on the badge card screen.
type BadgeConfig struct {
	Name    string `toml:"name"`
	Handle  string `toml:"handle"`
	Company string `toml:"company"`
}

// InputConfig tunes the button classifier.
type InputConfig struct {
	// LongPressThreshold is the minimum hold time for a long press.
	LongPressThreshold Duration `toml:"long_press_threshold"`

	// DebounceWindow coalesces electrical bounce: a raw edge arriving within
	// this window of the previous accepted edge for the same button is ignored.
	DebounceWindow Duration `toml:"debounce_window"`
}

// PollerConfig holds the resilience knobs shared by background services.
// The weather and location instances carry separate copies because their
// constants intentionally differ.
type PollerConfig struct {
	Interval         Duration `toml:"interval"`
	FailureThreshold int      `toml:"failure_threshold"`
	Cooldown         Duration `toml:"cooldown"`
}

// WeatherConfig configures the weather poller and its upstream.
type WeatherConfig struct {
	Poll    PollerConfig `toml:"poll"`
	BaseURL string       `toml:"base_url"`
}

// LocationConfig configures the timezone/location service. When Latitude and
// Longitude are both non-zero (or Name is set), automatic geolocation is
// skipped entirely.
type LocationConfig struct {
	Poll            PollerConfig `toml:"poll"`
	GeoURL          string       `toml:"geo_url"`
	DefaultTimezone string       `toml:"default_timezone"`
	Latitude        float64      `toml:"latitude"`
	Longitude       float64      `toml:"longitude"`
	Name            string       `toml:"name"`

	// Retry knobs for the geolocation fetch itself (bounded exponential
	// backoff inside one fetch attempt, distinct from the breaker).
	RetryAttempts int      `toml:"retry_attempts"`
	RetryBaseWait Duration `toml:"retry_base_wait"`
}

// ScheduleConfig configures the conference-schedule poller. When URL is empty
// the bundled fallback file is used instead of the network.
type ScheduleConfig struct {
	Poll         PollerConfig `toml:"poll"`
	URL          string       `toml:"url"`
	FallbackFile string       `toml:"fallback_file"`
}

// CalendarConfig configures the personal ICS calendar poller.
type CalendarConfig struct {
	Poll PollerConfig `toml:"poll"`
	URL  string       `toml:"url"`
}

// DisplayConfig describes the panel geometry and frame cadence.
type DisplayConfig struct {
	Columns       int      `toml:"columns"`
	Rows          int      `toml:"rows"`
	PanelWidth    int      `toml:"panel_width"`
	PanelHeight   int      `toml:"panel_height"`
	Rotation      int      `toml:"rotation"` // degrees, multiples of 90
	FrameInterval Duration `toml:"frame_interval"`
}

// RuntimeConfig holds process-level settings.
type RuntimeConfig struct {
	// WaitTimeout bounds the synchronous first-value wait at screen mount.
	WaitTimeout Duration `toml:"wait_timeout"`
	DataDir     string   `toml:"data_dir"`
	LogFile     string   `toml:"log_file"`
	LogLevel    string   `toml:"log_level"`
}

// Validate checks invariants the rest of the runtime relies on.
func (c *Config) Validate() error {
	if c.Input.LongPressThreshold.Duration <= 0 {
		return fmt.Errorf("input.long_press_threshold must be positive")
	}
	if c.Input.DebounceWindow.Duration < 0 {
		return fmt.Errorf("input.debounce_window must not be negative")
	}
	if c.Input.DebounceWindow.Duration >= c.Input.LongPressThreshold.Duration {
		return fmt.Errorf("input.debounce_window must be shorter than long_press_threshold")
	}
	for _, p := range []struct {
		name string
		cfg  PollerConfig
	}{
		{"weather.poll", c.Weather.Poll},
		{"location.poll", c.Location.Poll},
		{"schedule.poll", c.Schedule.Poll},
		{"calendar.poll", c.Calendar.Poll},
	} {
		if p.cfg.Interval.Duration <= 0 {
			return fmt.Errorf("%s.interval must be positive", p.name)
		}
		if p.cfg.FailureThreshold < 1 {
			return fmt.Errorf("%s.failure_threshold must be at least 1", p.name)
		}
		if p.cfg.Cooldown.Duration <= 0 {
			return fmt.Errorf("%s.cooldown must be positive", p.name)
		}
	}
	if c.Location.DefaultTimezone == "" {
		return fmt.Errorf("location.default_timezone must be set")
	}
	if _, err := time.LoadLocation(c.Location.DefaultTimezone); err != nil {
		return fmt.Errorf("location.default_timezone: %w", err)
	}
	if c.Display.Columns <= 0 || c.Display.Rows <= 0 {
		return fmt.Errorf("display.columns and display.rows must be positive")
	}
	if c.Display.Rotation%90 != 0 {
		return fmt.Errorf("display.rotation must be a multiple of 90")
	}
	if c.Runtime.WaitTimeout.Duration <= 0 {
		return fmt.Errorf("runtime.wait_timeout must be positive")
	}
	return nil
}
