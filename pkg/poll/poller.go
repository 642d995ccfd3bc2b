package poll

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Default resilience tuning. Overridable per instance via Config.
const (
	DefaultFailureThreshold = 3
	DefaultCooldown         = 5 * time.Minute
	DefaultWaitTimeout      = 5 * time.Second
)

// BreakerState is the circuit-breaker state guarding the upstream.
type BreakerState uint8

const (
	// BreakerClosed is normal operation: every cycle fetches.
	BreakerClosed BreakerState = iota
	// BreakerOpen suppresses all fetches until the cooldown timer fires.
	BreakerOpen
	// BreakerHalfOpen permits exactly one trial fetch after a cooldown.
	BreakerHalfOpen
)

// String returns a log-friendly name.
func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half_open"
	default:
		return fmt.Sprintf("BreakerState(%d)", uint8(s))
	}
}

// FetchFunc performs one fetch against the upstream. Implementations should
// return a *FetchError so failures are classified; any other error is counted
// as a network failure.
type FetchFunc[V any] func(ctx context.Context) (V, error)

// Config tunes one Poller instance. The weather and location services carry
// deliberately separate copies of these knobs.
type Config struct {
	// Name identifies the poller in logs and status output.
	Name string

	// Interval is the periodic fetch cadence. Required.
	Interval time.Duration

	// FailureThreshold is the consecutive-failure count that opens the
	// breaker. Zero uses DefaultFailureThreshold.
	FailureThreshold int

	// Cooldown is how long the breaker stays open before the half-open trial.
	// Zero uses DefaultCooldown.
	Cooldown time.Duration

	// WaitTimeout bounds Wait calls. Zero uses DefaultWaitTimeout.
	WaitTimeout time.Duration

	Logger *slog.Logger
}

// Status is a point-in-time snapshot of a poller's health, used by screens to
// show an explicit "no data" reason and by diagnostics.
type Status struct {
	Name        string
	Breaker     BreakerState
	Failures    int
	HasValue    bool
	LastError   string
	LastSuccess time.Time
}

// Poller keeps one externally fetched value fresh under intermittent
// connectivity. All fetching happens inside Run's goroutine, so at most one
// fetch is ever in flight; Read and Status take a snapshot under a read lock
// and never touch the network.
type Poller[V any] struct {
	cfg   Config
	fetch FetchFunc[V]
	log   *slog.Logger

	refresh chan struct{}

	mu          sync.RWMutex
	value       V
	hasValue    bool
	breaker     BreakerState
	failures    int
	lastErr     error
	lastSuccess time.Time

	firstValue chan struct{}
	firstOnce  sync.Once
}

// New creates a poller for the given fetch function. Call Run to start it.
func New[V any](cfg Config, fetch FetchFunc[V]) *Poller[V] {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = DefaultFailureThreshold
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = DefaultCooldown
	}
	if cfg.WaitTimeout <= 0 {
		cfg.WaitTimeout = DefaultWaitTimeout
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Poller[V]{
		cfg:        cfg,
		fetch:      fetch,
		log:        log.With("poller", cfg.Name),
		refresh:    make(chan struct{}, 1),
		firstValue: make(chan struct{}),
	}
}

// Seed preloads a previously persisted value so screens have data before the
// first fetch completes (e.g. after a reboot in a dead spot). Must be called
// before Run.
func (p *Poller[V]) Seed(v V, at time.Time) {
	p.mu.Lock()
	p.value = v
	p.hasValue = true
	p.lastSuccess = at
	p.mu.Unlock()
	p.firstOnce.Do(func() { close(p.firstValue) })
}

// Read returns the last successfully cached value. It never blocks on network
// I/O and never fails: absence of data is (zero, false).
func (p *Poller[V]) Read() (V, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.value, p.hasValue
}

// Wait returns the cached value, blocking up to the configured WaitTimeout
// for the first fetch to complete. On timeout it degrades to (zero, false)
// rather than hanging the caller.
func (p *Poller[V]) Wait(ctx context.Context) (V, bool) {
	if v, ok := p.Read(); ok {
		return v, true
	}
	timer := time.NewTimer(p.cfg.WaitTimeout)
	defer timer.Stop()
	select {
	case <-p.firstValue:
		return p.Read()
	case <-timer.C:
	case <-ctx.Done():
	}
	var zero V
	return zero, false
}

// ForceRefresh requests an out-of-band fetch as soon as possible. It does not
// bypass the breaker and is dropped if a refresh is already pending.
func (p *Poller[V]) ForceRefresh() {
	select {
	case p.refresh <- struct{}{}:
	default:
	}
}

// Status returns a snapshot of the poller's health.
func (p *Poller[V]) Status() Status {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s := Status{
		Name:        p.cfg.Name,
		Breaker:     p.breaker,
		Failures:    p.failures,
		HasValue:    p.hasValue,
		LastSuccess: p.lastSuccess,
	}
	if p.lastErr != nil {
		s.LastError = p.lastErr.Error()
	}
	return s
}

// Breaker returns the current circuit state.
func (p *Poller[V]) Breaker() BreakerState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.breaker
}

// Run owns the fetch cycle until ctx is cancelled. It performs one immediate
// fetch at startup, then fetches on every periodic tick while the breaker is
// closed. Opening the breaker arms a one-shot cooldown timer whose firing
// moves the breaker to half-open and immediately attempts one trial fetch; a
// failed trial re-opens the breaker and re-arms the same cooldown.
func (p *Poller[V]) Run(ctx context.Context) {
	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	var cooldown *time.Timer
	var cooldownC <-chan time.Time
	defer func() {
		if cooldown != nil {
			cooldown.Stop()
		}
	}()
	armCooldown := func() {
		if cooldown != nil {
			cooldown.Stop()
		}
		cooldown = time.NewTimer(p.cfg.Cooldown)
		cooldownC = cooldown.C
	}

	if p.cycle(ctx) {
		armCooldown()
	}

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			if p.Breaker() == BreakerOpen {
				// No fetch while open; the cooldown timer owns recovery.
				continue
			}
			if p.cycle(ctx) {
				armCooldown()
			}

		case <-p.refresh:
			if p.Breaker() == BreakerOpen {
				p.log.Debug("refresh ignored, breaker open")
				continue
			}
			if p.cycle(ctx) {
				armCooldown()
			}

		case <-cooldownC:
			cooldownC = nil
			p.halfOpen()
			if p.cycle(ctx) {
				armCooldown()
			}
		}
	}
}

// cycle performs one fetch and applies the breaker transition. It reports
// whether the breaker opened (caller arms the cooldown timer).
func (p *Poller[V]) cycle(ctx context.Context) (opened bool) {
	v, err := p.safeFetch(ctx)
	if err != nil {
		return p.recordFailure(err)
	}
	p.recordSuccess(v)
	return false
}

// safeFetch invokes the fetch function, converting a panic during response
// parsing into a malformed-payload failure instead of crashing the loop.
func (p *Poller[V]) safeFetch(ctx context.Context) (v V, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = Malformed(fmt.Errorf("panic during fetch: %v", r))
		}
	}()
	return p.fetch(ctx)
}

func (p *Poller[V]) recordSuccess(v V) {
	p.mu.Lock()
	prev := p.breaker
	p.value = v
	p.hasValue = true
	p.failures = 0
	p.breaker = BreakerClosed
	p.lastErr = nil
	p.lastSuccess = time.Now()
	p.mu.Unlock()

	p.firstOnce.Do(func() { close(p.firstValue) })
	if prev != BreakerClosed {
		p.log.Info("breaker closed", "from", prev.String())
	}
}

func (p *Poller[V]) recordFailure(err error) (opened bool) {
	p.mu.Lock()
	p.failures++
	p.lastErr = err
	switch p.breaker {
	case BreakerHalfOpen:
		// Failed trial: back to open, caller re-arms the cooldown.
		p.breaker = BreakerOpen
		opened = true
	case BreakerClosed:
		if p.failures >= p.cfg.FailureThreshold {
			p.breaker = BreakerOpen
			opened = true
		}
	}
	failures := p.failures
	state := p.breaker
	p.mu.Unlock()

	if opened {
		p.log.Warn("breaker opened", "failures", failures, "cooldown", p.cfg.Cooldown, "error", err)
	} else {
		p.log.Debug("fetch failed", "failures", failures, "breaker", state.String(), "error", err)
	}
	return opened
}

func (p *Poller[V]) halfOpen() {
	p.mu.Lock()
	p.breaker = BreakerHalfOpen
	p.mu.Unlock()
	p.log.Info("breaker half-open, attempting trial fetch")
}
