// name-badge is the runtime for a battery-powered conference badge.
//
// It keeps weather, conference schedule, and personal calendar data fresh
// over flaky venue Wi-Fi, classifies the badge's two physical buttons into
// press events, and drives a small set of screens onto the e-paper panel.
// The same runtime core runs on a developer host as a terminal emulator.
//
// Usage:
//
//	name-badge [flags]
//
// Flags:
//
//	-config string  Path to configuration file (default: XDG search path)
//	-emulate        Run the terminal emulator instead of the device runtime
//	-once           Fetch location/weather/schedule once, print, and exit
//	-verbose        Enable verbose logging
//	-version        Print version and exit
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/pxp9/name-badge/pkg/config"
	"github.com/pxp9/name-badge/pkg/emu"
	"github.com/pxp9/name-badge/pkg/input"
	"github.com/pxp9/name-badge/pkg/poll"
	"github.com/pxp9/name-badge/pkg/render"
	"github.com/pxp9/name-badge/pkg/screens"
	"github.com/pxp9/name-badge/pkg/sensors"
	"github.com/pxp9/name-badge/pkg/services/ical"
	"github.com/pxp9/name-badge/pkg/services/location"
	"github.com/pxp9/name-badge/pkg/services/schedule"
	"github.com/pxp9/name-badge/pkg/services/weather"
	"github.com/pxp9/name-badge/pkg/store"
	"github.com/pxp9/name-badge/pkg/ui"
)

var (
	version = "0.1.0"
	commit  = "dev"
	date    = "unknown"
)

// batterySupply is the kernel power-supply name on the badge board.
const batterySupply = "battery"

func main() {
	var (
		configPath  = flag.String("config", "", "Path to configuration file")
		emulate     = flag.Bool("emulate", false, "Run the terminal emulator instead of the device runtime")
		runOnce     = flag.Bool("once", false, "Fetch location/weather/schedule once, print, and exit")
		verbose     = flag.Bool("verbose", false, "Enable verbose logging")
		showVersion = flag.Bool("version", false, "Print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("name-badge %s (%s) built %s\n", version, commit, date)
		os.Exit(0)
	}

	// Load configuration
	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.LoadFromFile(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger, closeLog, err := setupLogging(cfg, *verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	// Setup context with signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("received shutdown signal")
		cancel()
	}()

	if *runOnce {
		if err := diagnosticPass(ctx, cfg, logger); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(ctx, cancel, cfg, logger, *emulate); err != nil {
		logger.Error("runtime failed", "error", err)
		os.Exit(1)
	}
}

// run wires the full runtime: store, pollers, input pipeline, screens, and
// the lifecycle manager, then blocks until ctx is cancelled.
func run(ctx context.Context, cancel context.CancelFunc, cfg *config.Config, logger *slog.Logger, emulate bool) error {
	st, err := store.Open(cfg.Runtime.DataDir)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	// Location first: everything downstream reads coordinates and zone
	// through it, warm-started from the persisted document.
	loc := location.New(cfg.Location, cfg.Runtime.WaitTimeout.Duration, st, logger)
	go loc.Run(ctx)

	// Bounded boot wait: give geolocation one chance to resolve so the first
	// weather fetch uses real coordinates. On timeout the persisted document
	// or default timezone serves and polling catches up in the background.
	if pl, ok := loc.Wait(ctx); ok {
		logger.Info("location ready", "name", pl.Name, "tz", pl.Timezone)
	} else {
		logger.Warn("location unresolved at boot, using fallback", "tz", loc.Current().Timezone)
	}

	weatherPoller := newWeatherPoller(cfg, st, loc, logger)
	go weatherPoller.Run(ctx)

	schedulePoller := newSchedulePoller(cfg, st, logger)
	go schedulePoller.Run(ctx)

	var calendarSrc screens.CalendarSource
	if cfg.Calendar.URL != "" {
		p := newCalendarPoller(cfg, st, logger)
		go p.Run(ctx)
		calendarSrc = p
	} else {
		calendarSrc = disabledCalendar{}
	}

	// Input pipeline: raw edges in, classified events out.
	edges := make(chan input.Edge, 16)
	events := make(chan input.ButtonEvent, 8)
	reader := input.NewReader(input.ClassifierConfig{
		LongPressThreshold: cfg.Input.LongPressThreshold.Duration,
		DebounceWindow:     cfg.Input.DebounceWindow.Duration,
	}, edges, events, logger)
	go reader.Run(ctx)

	var battery sensors.Battery
	var link sensors.Link
	var renderer render.Renderer
	var term *render.TermRenderer
	if emulate {
		battery = sensors.FixedBattery(100)
		link = sensors.FixedLink(true)
		term = render.NewTermRenderer(cfg.Display.Columns, cfg.Display.Rows)
		renderer = term
	} else {
		battery = sensors.NewSysfsBattery(batterySupply)
		link = sensors.NetLink{}
		renderer = render.NewPanelRenderer(render.PanelConfig{
			Width:    cfg.Display.PanelWidth,
			Height:   cfg.Display.PanelHeight,
			Rotation: cfg.Display.Rotation,
		}, render.NewFileSink(filepath.Join(cfg.Runtime.DataDir, "frame.png")))
	}

	manager := ui.NewManager(ui.ManagerConfig{
		Root:          screens.MenuName,
		Buttons:       events,
		Renderer:      renderer,
		FrameInterval: cfg.Display.FrameInterval.Duration,
		Logger:        logger,
		Chrome: ui.ChromeSources{
			Battery:  battery,
			Link:     link,
			Now:      loc.Now,
			Location: func() string { return loc.Current().Name },
		},
	})
	for _, s := range []ui.Screen{
		screens.NewMenu([]screens.MenuEntry{
			{Label: "Badge", Target: screens.BadgeName},
			{Label: "Weather", Target: screens.WeatherName},
			{Label: "Schedule", Target: screens.ScheduleName},
			{Label: "Calendar", Target: screens.CalendarName},
		}),
		screens.NewBadge(cfg.Badge, loc),
		screens.NewWeather(weatherPoller, loc),
		screens.NewSchedule(schedulePoller, loc),
		screens.NewCalendar(calendarSrc, loc),
	} {
		if err := manager.Register(s); err != nil {
			return err
		}
	}

	// Block the first frame briefly on the first weather report so boot shows
	// data instead of flashing "no data"; the timeout keeps the UI from
	// hanging on dead Wi-Fi.
	if _, ok := weatherPoller.Wait(ctx); !ok {
		logger.Warn("no weather at boot, screens show no data until a poll succeeds")
	}

	if emulate {
		managerDone := make(chan error, 1)
		go func() { managerDone <- manager.Run(ctx) }()

		err := emu.Run(emu.Config{
			Edges:     edges,
			Term:      term,
			LongPress: cfg.Input.LongPressThreshold.Duration,
			Refresh:   cfg.Display.FrameInterval.Duration,
		})
		cancel()
		<-managerDone
		return err
	}

	// Device mode: the GPIO helper pipes one edge per line into stdin.
	go readEdges(ctx, os.Stdin, edges, logger)
	err = manager.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// newWeatherPoller builds the weather poller, fetching for wherever the
// location service currently says the badge is. Successful reports are
// persisted so a reboot inside the venue starts warm.
func newWeatherPoller(cfg *config.Config, st *store.Store, loc *location.Service, logger *slog.Logger) *poll.Poller[weather.Report] {
	client := weather.NewClient(cfg.Weather.BaseURL)
	p := poll.New(poll.Config{
		Name:             "weather",
		Interval:         cfg.Weather.Poll.Interval.Duration,
		FailureThreshold: cfg.Weather.Poll.FailureThreshold,
		Cooldown:         cfg.Weather.Poll.Cooldown.Duration,
		WaitTimeout:      cfg.Runtime.WaitTimeout.Duration,
		Logger:           logger,
	}, func(ctx context.Context) (weather.Report, error) {
		pl := loc.Current()
		report, err := client.Fetch(ctx, pl.Latitude, pl.Longitude)
		if err != nil {
			return weather.Report{}, err
		}
		if err := store.PutTyped(st, "weather", report); err != nil {
			logger.Warn("persisting weather failed", "error", err)
		}
		return report, nil
	})
	if report, savedAt, ok := store.GetTyped[weather.Report](st, "weather"); ok {
		p.Seed(report, savedAt)
	}
	return p
}

func newSchedulePoller(cfg *config.Config, st *store.Store, logger *slog.Logger) *poll.Poller[schedule.Program] {
	src := schedule.NewSource(cfg.Schedule.URL, cfg.Schedule.FallbackFile)
	p := poll.New(poll.Config{
		Name:             "schedule",
		Interval:         cfg.Schedule.Poll.Interval.Duration,
		FailureThreshold: cfg.Schedule.Poll.FailureThreshold,
		Cooldown:         cfg.Schedule.Poll.Cooldown.Duration,
		WaitTimeout:      cfg.Runtime.WaitTimeout.Duration,
		Logger:           logger,
	}, func(ctx context.Context) (schedule.Program, error) {
		prog, err := src.Fetch(ctx)
		if err != nil {
			return schedule.Program{}, err
		}
		if err := store.PutTyped(st, "schedule", prog); err != nil {
			logger.Warn("persisting schedule failed", "error", err)
		}
		return prog, nil
	})
	if prog, savedAt, ok := store.GetTyped[schedule.Program](st, "schedule"); ok {
		p.Seed(prog, savedAt)
	}
	return p
}

func newCalendarPoller(cfg *config.Config, st *store.Store, logger *slog.Logger) *poll.Poller[[]ical.Event] {
	client := ical.NewClient(cfg.Calendar.URL)
	p := poll.New(poll.Config{
		Name:             "calendar",
		Interval:         cfg.Calendar.Poll.Interval.Duration,
		FailureThreshold: cfg.Calendar.Poll.FailureThreshold,
		Cooldown:         cfg.Calendar.Poll.Cooldown.Duration,
		WaitTimeout:      cfg.Runtime.WaitTimeout.Duration,
		Logger:           logger,
	}, func(ctx context.Context) ([]ical.Event, error) {
		events, err := client.Fetch(ctx)
		if err != nil {
			return nil, err
		}
		if err := store.PutTyped(st, "calendar", events); err != nil {
			logger.Warn("persisting calendar failed", "error", err)
		}
		return events, nil
	})
	if events, savedAt, ok := store.GetTyped[[]ical.Event](st, "calendar"); ok {
		p.Seed(events, savedAt)
	}
	return p
}

// disabledCalendar stands in when no calendar URL is configured; the screen
// shows its standard no-data state with the reason.
type disabledCalendar struct{}

func (disabledCalendar) Read() ([]ical.Event, bool) { return nil, false }
func (disabledCalendar) Status() poll.Status {
	return poll.Status{Name: "calendar", LastError: "no calendar configured"}
}
func (disabledCalendar) ForceRefresh() {}

// readEdges parses driver lines of the form "<button-id> <0|1>" ("btn0 1" is
// A pressed) and stamps them with arrival time. Unknown ids are dropped at
// this boundary.
func readEdges(ctx context.Context, r io.Reader, edges chan<- input.Edge, logger *slog.Logger) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) != 2 {
			continue
		}
		btn, err := input.ParseButton(fields[0])
		if err != nil {
			logger.Warn("dropping edge", "error", err)
			continue
		}
		e := input.Edge{Button: btn, Pressed: fields[1] == "1", At: time.Now()}
		select {
		case edges <- e:
		case <-ctx.Done():
			return
		}
	}
}

// diagnosticPass resolves location and fetches weather and schedule once,
// printing plain text. Useful over SSH on the device to tell network trouble
// from screen trouble.
func diagnosticPass(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	loc := location.New(cfg.Location, cfg.Runtime.WaitTimeout.Duration, nil, logger)
	pl := loc.Current()
	if pl.Latitude == 0 && pl.Longitude == 0 && cfg.Location.GeoURL != "" {
		resolver := location.NewResolver(location.ResolverConfig{
			GeoURL:   cfg.Location.GeoURL,
			Attempts: cfg.Location.RetryAttempts,
			BaseWait: cfg.Location.RetryBaseWait.Duration,
		})
		resolved, err := resolver.Resolve(ctx)
		if err != nil {
			fmt.Printf("location: ERROR %v\n", err)
		} else {
			pl = resolved
		}
	}
	fmt.Printf("location: %s (%s) %.4f,%.4f\n", pl.Name, pl.Timezone, pl.Latitude, pl.Longitude)

	report, err := weather.NewClient(cfg.Weather.BaseURL).Fetch(ctx, pl.Latitude, pl.Longitude)
	if err != nil {
		fmt.Printf("weather: ERROR %v\n", err)
	} else {
		fmt.Printf("weather: %.1fC %s wind %.0f km/h\n", report.TempC, report.Condition, report.WindKmh)
	}

	prog, err := schedule.NewSource(cfg.Schedule.URL, cfg.Schedule.FallbackFile).Fetch(ctx)
	if err != nil {
		fmt.Printf("schedule: ERROR %v\n", err)
	} else {
		fmt.Printf("schedule: %s, %d days\n", prog.Conference, len(prog.Days))
	}
	return nil
}

// setupLogging writes to stderr, and additionally to the configured log file
// when one is set.
func setupLogging(cfg *config.Config, verbose bool) (*slog.Logger, func(), error) {
	level := slog.LevelInfo
	if verbose || strings.EqualFold(cfg.Runtime.LogLevel, "debug") {
		level = slog.LevelDebug
	}

	var w io.Writer = os.Stderr
	closeLog := func() {}
	if cfg.Runtime.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Runtime.LogFile), 0755); err != nil {
			return nil, nil, fmt.Errorf("create log directory: %w", err)
		}
		f, err := os.OpenFile(cfg.Runtime.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		w = io.MultiWriter(os.Stderr, f)
		closeLog = func() { f.Close() }
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), closeLog, nil
}
