package config

import (
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

// Load reads configuration from the standard config path.
// Search order:
//  1. $XDG_CONFIG_HOME/name-badge/config.toml
//  2. ~/.config/name-badge/config.toml
//
// If no file exists, returns DefaultConfig().
func Load() (*Config, error) {
	paths := configSearchPaths()
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return LoadFromFile(p)
		}
	}
	cfg := DefaultConfig()
	applyEnvOverrides(cfg)
	return cfg, nil
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := DefaultConfig()
			applyEnvOverrides(cfg)
			return cfg, nil
		}
		return nil, err
	}
	defer f.Close()
	return LoadFromReader(f)
}

// LoadFromReader reads configuration from an io.Reader.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.NewDecoder(r).Decode(cfg); err != nil {
		return nil, err
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

// DefaultConfig returns the default configuration with sensible defaults.
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	dataDir := filepath.Join(xdgCacheHome(home), "name-badge")

	return &Config{
		Badge: BadgeConfig{
			Name: "name-badge",
		},
		Input: InputConfig{
			LongPressThreshold: Duration{600 * time.Millisecond},
			DebounceWindow:     Duration{20 * time.Millisecond},
		},
		Weather: WeatherConfig{
			Poll: PollerConfig{
				Interval:         Duration{10 * time.Minute},
				FailureThreshold: 3,
				Cooldown:         Duration{5 * time.Minute},
			},
			BaseURL: "https://api.open-meteo.com/v1/forecast",
		},
		Location: LocationConfig{
			Poll: PollerConfig{
				Interval:         Duration{1 * time.Hour},
				FailureThreshold: 3,
				Cooldown:         Duration{5 * time.Minute},
			},
			GeoURL:          "http://ip-api.com/json",
			DefaultTimezone: "UTC",
			RetryAttempts:   3,
			RetryBaseWait:   Duration{500 * time.Millisecond},
		},
		Schedule: ScheduleConfig{
			Poll: PollerConfig{
				Interval:         Duration{30 * time.Minute},
				FailureThreshold: 3,
				Cooldown:         Duration{5 * time.Minute},
			},
		},
		Calendar: CalendarConfig{
			Poll: PollerConfig{
				Interval:         Duration{15 * time.Minute},
				FailureThreshold: 3,
				Cooldown:         Duration{5 * time.Minute},
			},
		},
		Display: DisplayConfig{
			Columns:       40,
			Rows:          15,
			PanelWidth:    296,
			PanelHeight:   128,
			Rotation:      0,
			FrameInterval: Duration{1 * time.Second},
		},
		Runtime: RuntimeConfig{
			WaitTimeout: Duration{5 * time.Second},
			DataDir:     dataDir,
			LogFile:     filepath.Join(dataDir, "badge.log"),
			LogLevel:    "info",
		},
	}
}

// applyEnvOverrides checks environment variables and overrides config values.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("BADGE_TZ"); v != "" {
		cfg.Location.DefaultTimezone = v
	}
	if v := os.Getenv("BADGE_LAT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Location.Latitude = f
		}
	}
	if v := os.Getenv("BADGE_LON"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Location.Longitude = f
		}
	}
	if v := os.Getenv("BADGE_SCHEDULE_URL"); v != "" {
		cfg.Schedule.URL = v
	}
	if v := os.Getenv("BADGE_CALENDAR_URL"); v != "" {
		cfg.Calendar.URL = v
	}
}

// configSearchPaths returns the ordered list of config file paths to try.
func configSearchPaths() []string {
	home, _ := os.UserHomeDir()
	var paths []string

	xdg := xdgConfigHome(home)
	paths = append(paths, filepath.Join(xdg, "name-badge", "config.toml"))

	// If XDG_CONFIG_HOME was explicitly set, also try the fallback default.
	defaultXDG := filepath.Join(home, ".config")
	if xdg != defaultXDG {
		paths = append(paths, filepath.Join(defaultXDG, "name-badge", "config.toml"))
	}

	return paths
}

// xdgConfigHome returns XDG_CONFIG_HOME or ~/.config as fallback.
func xdgConfigHome(home string) string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return v
	}
	return filepath.Join(home, ".config")
}

// xdgCacheHome returns XDG_CACHE_HOME or ~/.cache as fallback.
func xdgCacheHome(home string) string {
	if v := os.Getenv("XDG_CACHE_HOME"); v != "" {
		return v
	}
	return filepath.Join(home, ".cache")
}
