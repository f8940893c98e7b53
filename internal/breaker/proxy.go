package breaker

import (
	"context"
	"errors"
	"time"

	"booking_gateway/internal/adapters/observability"
	"booking_gateway/internal/domain"
)

// ErrOpen is the cause attached to the UnavailableError returned when the
// breaker refuses a call without attempting it.
var ErrOpen = errors.New("circuit breaker open")

// Proxy wraps one downstream dependency's calls with breaker gating and a
// fixed per-call timeout. It is the only place call outcomes are translated
// into breaker state.
type Proxy struct {
	b       *Breaker
	service string
	timeout time.Duration
}

func NewProxy(reg *Registry, service string, timeout time.Duration) *Proxy {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Proxy{b: reg.Get(service), service: service, timeout: timeout}
}

func (p *Proxy) Service() string   { return p.service }
func (p *Proxy) Breaker() *Breaker { return p.b }

// Do executes fn through the proxy's breaker.
//
// If the breaker refuses the call, Do fails fast with an UnavailableError
// and no network call is made. Whether the call counts as a half-open trial
// is captured before fn runs, not re-read after, so a concurrent state
// change cannot misroute the outcome.
//
// domain.ErrNotFound and domain.ErrInvalidInput are responses from a healthy
// dependency: they propagate untouched and count as success. Any other error
// counts as a dependency failure and is wrapped in an UnavailableError.
func Do[T any](ctx context.Context, p *Proxy, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	if !p.b.RequestAvailable() {
		observability.ObserveExternal(p.service, "rejected", 0)
		return zero, domain.Unavailable(p.service, ErrOpen)
	}
	trial := p.b.State() == HalfOpen

	cctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	v, err := fn(cctx)
	if err != nil && !clientError(err) {
		observability.ObserveExternal(p.service, "error", time.Since(start))
		if trial {
			p.b.RecordHalfOpenOutcome(false)
		} else {
			p.b.RecordFailure()
		}
		return zero, domain.Unavailable(p.service, err)
	}

	observability.ObserveExternal(p.service, "ok", time.Since(start))
	if trial {
		p.b.RecordHalfOpenOutcome(true)
	} else {
		p.b.RecordSuccess()
	}
	return v, err
}

// Exec is Do for calls without a result value.
func Exec(ctx context.Context, p *Proxy, fn func(context.Context) error) error {
	_, err := Do(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// Fallback substitutes def for v when err marks the dependency unavailable.
// Client errors and successes pass through: fallbacks degrade outages only.
func Fallback[T any](v T, err error, def T) (T, error) {
	if err != nil && domain.IsUnavailable(err) {
		return def, nil
	}
	return v, err
}

// clientError reports whether err is a well-formed response from a healthy
// dependency rather than evidence of an outage.
func clientError(err error) bool {
	return errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrInvalidInput)
}
