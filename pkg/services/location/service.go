package location

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/pxp9/name-badge/pkg/config"
	"github.com/pxp9/name-badge/pkg/poll"
	"github.com/pxp9/name-badge/pkg/store"
)

// StoreKey is the document key the resolved place is persisted under.
const StoreKey = "location"

// Service keeps the badge's location and timezone current. Boot order for the
// initial value: fixed override from config, then the persisted document,
// then the configured default timezone with no coordinates. Unless fixed, a
// resilient poller refreshes the place in the background and every success is
// written back to the store.
type Service struct {
	log   *slog.Logger
	store *store.Store
	fixed bool

	mu      sync.RWMutex
	current Place

	poller *poll.Poller[Place]
}

// New builds the service. st may be nil (emulator mode), in which case
// nothing is persisted.
func New(cfg config.LocationConfig, waitTimeout time.Duration, st *store.Store, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	s := &Service{
		log:   log.With("service", "location"),
		store: st,
	}

	// Fixed coordinates from the operator override everything, including the
	// background poller.
	if cfg.Latitude != 0 || cfg.Longitude != 0 || cfg.Name != "" {
		tz := cfg.DefaultTimezone
		s.current = Place{
			Timezone:  tz,
			Latitude:  cfg.Latitude,
			Longitude: cfg.Longitude,
			Name:      cfg.Name,
		}
		s.fixed = true
		s.log.Info("using fixed location", "name", cfg.Name, "tz", tz)
		return s
	}

	resolver := NewResolver(ResolverConfig{
		GeoURL:   cfg.GeoURL,
		Attempts: cfg.RetryAttempts,
		BaseWait: cfg.RetryBaseWait.Duration,
	})
	s.poller = poll.New(poll.Config{
		Name:             "location",
		Interval:         cfg.Poll.Interval.Duration,
		FailureThreshold: cfg.Poll.FailureThreshold,
		Cooldown:         cfg.Poll.Cooldown.Duration,
		WaitTimeout:      waitTimeout,
		Logger:           log,
	}, func(ctx context.Context) (Place, error) {
		pl, err := resolver.Resolve(ctx)
		if err != nil {
			return Place{}, err
		}
		s.setCurrent(pl)
		s.persist(pl)
		return pl, nil
	})

	// Warm start: the persisted document beats the default timezone.
	if st != nil {
		if pl, savedAt, ok := store.GetTyped[Place](st, StoreKey); ok {
			s.current = pl
			s.poller.Seed(pl, savedAt)
			s.log.Info("restored persisted location", "name", pl.Name, "tz", pl.Timezone)
			return s
		}
	}
	s.current = Place{Timezone: cfg.DefaultTimezone}
	s.log.Info("no persisted location, using default timezone", "tz", cfg.DefaultTimezone)
	return s
}

// Run starts the background poller. It returns immediately for a fixed
// location.
func (s *Service) Run(ctx context.Context) {
	if s.fixed {
		return
	}
	s.poller.Run(ctx)
}

// Wait blocks up to the configured wait timeout for the first resolve to
// land, then returns the current place. On timeout it degrades to whatever
// fallback the service booted with (persisted document or default timezone)
// and reports false. Fixed locations return immediately.
func (s *Service) Wait(ctx context.Context) (Place, bool) {
	if s.poller == nil {
		return s.Current(), true
	}
	if pl, ok := s.poller.Wait(ctx); ok {
		return pl, true
	}
	return s.Current(), false
}

// Current returns a snapshot of the current place. It never blocks.
func (s *Service) Current() Place {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Now returns the current time in the badge's timezone.
func (s *Service) Now() time.Time {
	return time.Now().In(s.Current().Zone())
}

// ForceRefresh nudges the poller; a no-op for fixed locations.
func (s *Service) ForceRefresh() {
	if s.poller != nil {
		s.poller.ForceRefresh()
	}
}

// Status reports poller health. A fixed location is always healthy.
func (s *Service) Status() poll.Status {
	if s.poller == nil {
		return poll.Status{Name: "location", Breaker: poll.BreakerClosed, HasValue: true}
	}
	return s.poller.Status()
}

func (s *Service) setCurrent(pl Place) {
	s.mu.Lock()
	s.current = pl
	s.mu.Unlock()
}

func (s *Service) persist(pl Place) {
	if s.store == nil {
		return
	}
	if err := store.PutTyped(s.store, StoreKey, pl); err != nil {
		s.log.Warn("failed to persist location", "error", err)
	}
}
