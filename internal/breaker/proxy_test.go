package breaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"booking_gateway/internal/domain"
)

var errBoom = errors.New("connection refused")

func newTestProxy(cfg Config) (*Proxy, *fakeClock) {
	reg := NewRegistry(cfg, nil, "payment")
	p := NewProxy(reg, "payment", time.Second)
	clk := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	p.b.now = clk.now
	return p, clk
}

func TestDoPassesValueThrough(t *testing.T) {
	p, _ := newTestProxy(Config{})

	v, err := Do(context.Background(), p, func(ctx context.Context) (int, error) {
		return 270, nil
	})
	if err != nil || v != 270 {
		t.Fatalf("got (%d, %v), want (270, nil)", v, err)
	}
}

func TestDoFailsFastWhenOpen(t *testing.T) {
	p, _ := newTestProxy(Config{FailureThreshold: 1, Window: time.Minute, OpenTimeout: time.Hour})
	p.b.RecordFailure()

	called := false
	_, err := Do(context.Background(), p, func(ctx context.Context) (int, error) {
		called = true
		return 0, nil
	})
	if called {
		t.Fatal("open breaker must not let the call through")
	}
	var ue *domain.UnavailableError
	if !errors.As(err, &ue) || ue.Service != "payment" {
		t.Fatalf("err = %v, want payment UnavailableError", err)
	}
	if !errors.Is(err, ErrOpen) {
		t.Fatalf("err = %v, want wrapped ErrOpen", err)
	}
}

func TestDoRecordsFailureAndWraps(t *testing.T) {
	p, _ := newTestProxy(Config{FailureThreshold: 2, Window: time.Minute})

	fail := func(ctx context.Context) (int, error) { return 0, errBoom }
	if _, err := Do(context.Background(), p, fail); !domain.IsUnavailable(err) {
		t.Fatalf("err = %v, want UnavailableError", err)
	}
	if _, err := Do(context.Background(), p, fail); !domain.IsUnavailable(err) {
		t.Fatalf("err = %v, want UnavailableError", err)
	}
	if got := p.b.State(); got != Open {
		t.Fatalf("state = %s, want OPEN after threshold failures", got)
	}
}

func TestDoClientErrorsCountAsSuccess(t *testing.T) {
	p, _ := newTestProxy(Config{FailureThreshold: 1, Window: time.Minute})

	_, err := Do(context.Background(), p, func(ctx context.Context) (int, error) {
		return 0, domain.ErrNotFound
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound passthrough", err)
	}
	if got := p.b.State(); got != Closed {
		t.Fatalf("a 404-class response tripped the breaker, state = %s", got)
	}
}

func TestDoRoutesHalfOpenOutcomes(t *testing.T) {
	p, clk := newTestProxy(Config{FailureThreshold: 1, Window: time.Minute, OpenTimeout: 5 * time.Second, HalfOpenLimit: 2})
	p.b.RecordFailure()
	clk.advance(5 * time.Second)

	// Trial failure reopens immediately instead of feeding the window.
	_, _ = Do(context.Background(), p, func(ctx context.Context) (int, error) {
		return 0, errBoom
	})
	if got := p.b.State(); got != Open {
		t.Fatalf("state = %s, want OPEN after failed trial", got)
	}

	clk.advance(5 * time.Second)
	ok := func(ctx context.Context) (int, error) { return 1, nil }
	if _, err := Do(context.Background(), p, ok); err != nil {
		t.Fatalf("trial 1: %v", err)
	}
	if _, err := Do(context.Background(), p, ok); err != nil {
		t.Fatalf("trial 2: %v", err)
	}
	if got := p.b.State(); got != Closed {
		t.Fatalf("state = %s, want CLOSED after full trial budget succeeded", got)
	}
}

func TestDoAppliesCallTimeout(t *testing.T) {
	reg := NewRegistry(Config{}, nil, "payment")
	p := NewProxy(reg, "payment", 20*time.Millisecond)

	_, err := Do(context.Background(), p, func(ctx context.Context) (int, error) {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(time.Second):
			return 1, nil
		}
	})
	if !domain.IsUnavailable(err) {
		t.Fatalf("err = %v, want UnavailableError from timeout", err)
	}
}

func TestFallback(t *testing.T) {
	def := domain.Loyalty{}
	got, err := Fallback(domain.Loyalty{}, domain.Unavailable("loyalty", errBoom), def)
	if err != nil || got != def {
		t.Fatalf("fallback not applied: (%+v, %v)", got, err)
	}

	// Client errors are not degraded.
	if _, err := Fallback(domain.Loyalty{}, domain.ErrNotFound, def); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}

	want := domain.Loyalty{Discount: 10}
	if got, err := Fallback(want, nil, def); err != nil || got != want {
		t.Fatalf("success value replaced: (%+v, %v)", got, err)
	}
}

func TestExec(t *testing.T) {
	p, _ := newTestProxy(Config{FailureThreshold: 1, Window: time.Minute, OpenTimeout: time.Hour})

	if err := Exec(context.Background(), p, func(ctx context.Context) error { return nil }); err != nil {
		t.Fatalf("err = %v", err)
	}
	if err := Exec(context.Background(), p, func(ctx context.Context) error { return errBoom }); !domain.IsUnavailable(err) {
		t.Fatalf("err = %v, want UnavailableError", err)
	}
	// Breaker tripped by the failure above; next call is refused outright.
	if err := Exec(context.Background(), p, func(ctx context.Context) error { return nil }); !errors.Is(err, ErrOpen) {
		t.Fatalf("err = %v, want ErrOpen", err)
	}
}
