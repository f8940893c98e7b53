// Package breaker implements the per-dependency circuit breaker guarding
// every outbound call the gateway makes, plus the proxy that routes call
// outcomes back into it.
package breaker

import (
	"sync"
	"time"
)

type State string

const (
	Closed   State = "CLOSED"
	Open     State = "OPEN"
	HalfOpen State = "HALF_OPEN"
)

type Config struct {
	// FailureThreshold is the number of failures inside Window that trips
	// the breaker open.
	FailureThreshold int
	// Window is the sliding interval over which failures are counted.
	Window time.Duration
	// OpenTimeout is how long the breaker stays open before letting a
	// half-open trial through.
	OpenTimeout time.Duration
	// HalfOpenLimit caps concurrent half-open trial calls; all of them must
	// succeed before the breaker closes again.
	HalfOpenLimit int
}

func (c Config) withDefaults() Config {
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = 10
	}
	if c.Window <= 0 {
		c.Window = 60 * time.Second
	}
	if c.OpenTimeout <= 0 {
		c.OpenTimeout = 5 * time.Second
	}
	if c.HalfOpenLimit <= 0 {
		c.HalfOpenLimit = 3
	}
	return c
}

// TransitionHook observes state changes, e.g. for metrics. Called outside
// hot-path invariants but while the breaker lock is held; keep it cheap.
type TransitionHook func(name string, from, to State)

type Breaker struct {
	name string
	cfg  Config
	hook TransitionHook
	now  func() time.Time

	mu       sync.Mutex
	state    State
	failures []time.Time
	openedAt time.Time

	halfOpenAttempts  int
	halfOpenSuccesses int
	halfOpenFailures  int
}

func New(name string, cfg Config, hook TransitionHook) *Breaker {
	return &Breaker{
		name:  name,
		cfg:   cfg.withDefaults(),
		hook:  hook,
		now:   time.Now,
		state: Closed,
	}
}

func (b *Breaker) Name() string { return b.name }

func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// RequestAvailable reports whether a call may proceed right now.
//
// In OPEN state, once the open timeout has elapsed the breaker moves to
// HALF_OPEN and grants the caller the first trial slot; the transition and
// the grant happen under one lock acquisition. In HALF_OPEN state each grant
// reserves one of the remaining trial slots.
func (b *Breaker) RequestAvailable() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Closed:
		return true
	case Open:
		if b.now().Sub(b.openedAt) >= b.cfg.OpenTimeout {
			b.transition(HalfOpen)
			b.halfOpenAttempts = 1
			b.halfOpenSuccesses = 0
			b.halfOpenFailures = 0
			return true
		}
		return false
	case HalfOpen:
		if b.halfOpenAttempts < b.cfg.HalfOpenLimit {
			b.halfOpenAttempts++
			return true
		}
		return false
	}
	return false
}

// RecordSuccess marks a successful call in CLOSED (or, defensively, OPEN)
// state: the breaker closes and the failure window is dropped. Half-open
// trials report through RecordHalfOpenOutcome instead.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.transition(Closed)
	b.failures = nil
}

// RecordFailure appends a failure to the sliding window and trips the
// breaker open once the in-window count reaches the threshold.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	b.failures = append(b.failures, now)
	b.prune(now)

	if len(b.failures) >= b.cfg.FailureThreshold {
		b.transition(Open)
		b.openedAt = now
	}
}

// RecordHalfOpenOutcome reports the result of a half-open trial call. A full
// set of HalfOpenLimit successes closes the breaker; a single failure reopens
// it immediately and counts toward the failure window.
func (b *Breaker) RecordHalfOpenOutcome(success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != HalfOpen {
		return
	}
	if success {
		b.halfOpenSuccesses++
		if b.halfOpenSuccesses >= b.cfg.HalfOpenLimit {
			b.transition(Closed)
			b.failures = nil
		}
		return
	}
	b.halfOpenFailures++
	b.transition(Open)
	b.openedAt = b.now()
	b.failures = append(b.failures, b.openedAt)
}

// prune drops window entries older than cfg.Window. Caller holds b.mu.
func (b *Breaker) prune(now time.Time) {
	cut := 0
	for cut < len(b.failures) && now.Sub(b.failures[cut]) > b.cfg.Window {
		cut++
	}
	if cut > 0 {
		b.failures = b.failures[cut:]
	}
}

// transition flips the state and fires the hook on actual change. Caller
// holds b.mu.
func (b *Breaker) transition(to State) {
	if b.state == to {
		return
	}
	from := b.state
	b.state = to
	if b.hook != nil {
		b.hook(b.name, from, to)
	}
}

// Registry owns one breaker per downstream dependency, built once at process
// start and shared by reference with every proxy.
type Registry struct {
	mu       sync.Mutex
	cfg      Config
	hook     TransitionHook
	breakers map[string]*Breaker
}

func NewRegistry(cfg Config, hook TransitionHook, names ...string) *Registry {
	r := &Registry{
		cfg:      cfg.withDefaults(),
		hook:     hook,
		breakers: make(map[string]*Breaker, len(names)),
	}
	for _, n := range names {
		r.breakers[n] = New(n, r.cfg, hook)
	}
	return r
}

// Get returns the breaker for name, creating one on first use for names not
// declared up front.
func (r *Registry) Get(name string) *Breaker {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.breakers[name]
	if !ok {
		b = New(name, r.cfg, r.hook)
		r.breakers[name] = b
	}
	return b
}
