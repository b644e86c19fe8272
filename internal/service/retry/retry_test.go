package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/printshop/internal/domain"
)

func noSleep(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.MaxAttempts != 3 {
		t.Fatalf("unexpected MaxAttempts: %d", cfg.MaxAttempts)
	}
	if cfg.InitialDelay <= 0 || cfg.MaxDelay <= 0 {
		t.Fatalf("delays must be positive: %+v", cfg)
	}
	if cfg.BackoffFactor <= 1 {
		t.Fatalf("backoff factor should be > 1: %f", cfg.BackoffFactor)
	}
}

func TestRetrierRetriesTransientErrors(t *testing.T) {
	r := New(Config{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, BackoffFactor: 2}, nil)
	r.sleep = noSleep

	calls := 0
	err := r.Do(context.Background(), "op", func(context.Context) error {
		calls++
		if calls < 3 {
			return domain.ErrCourierUnavailable
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestRetrierStopsOnNonRetryable(t *testing.T) {
	r := New(Config{MaxAttempts: 5}, nil)
	r.sleep = noSleep

	calls := 0
	err := r.Do(context.Background(), "op", func(context.Context) error {
		calls++
		return domain.ErrOrderNotFound
	})
	if !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected single call, got %d", calls)
	}
}

func TestRetrierReturnsLastError(t *testing.T) {
	r := New(Config{MaxAttempts: 2}, nil)
	r.sleep = noSleep

	calls := 0
	err := r.Do(context.Background(), "op", func(context.Context) error {
		calls++
		return domain.ErrInvoicingUnavailable
	})
	if !errors.Is(err, domain.ErrInvoicingUnavailable) || calls != 2 {
		t.Fatalf("unexpected result: err=%v calls=%d", err, calls)
	}
}

func TestRetrierHonorsContext(t *testing.T) {
	r := New(Config{MaxAttempts: 3, InitialDelay: time.Hour}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := r.Do(ctx, "op", func(context.Context) error {
		return domain.ErrCourierUnavailable
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestCircuitBreakerOpensAndRecovers(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker(2, time.Minute, nil)
	cb.now = func() time.Time { return now }

	failing := func() error { return domain.ErrCourierUnavailable }
	_ = cb.Execute("op", failing)
	_ = cb.Execute("op", failing)
	if cb.State() != CircuitOpen {
		t.Fatalf("expected open breaker, got %v", cb.State())
	}

	if err := cb.Execute("op", func() error { return nil }); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}

	now = now.Add(2 * time.Minute)
	if err := cb.Execute("op", func() error { return nil }); err != nil {
		t.Fatalf("expected half-open probe to succeed, got %v", err)
	}
	if cb.State() != CircuitClosed {
		t.Fatalf("expected closed breaker, got %v", cb.State())
	}
}

func TestCircuitBreakerIgnoresBusinessErrors(t *testing.T) {
	cb := NewCircuitBreaker(1, time.Minute, nil)
	_ = cb.Execute("op", func() error { return domain.ErrInvalidCheckout })
	if cb.State() != CircuitClosed {
		t.Fatalf("validation error must not open breaker")
	}
}

type flakyCourier struct {
	failures int
	calls    int
}

func (f *flakyCourier) CreateShipment(context.Context, domain.ShipmentRequest) (domain.Shipment, error) {
	f.calls++
	if f.calls <= f.failures {
		return domain.Shipment{}, domain.ErrCourierUnavailable
	}
	return domain.Shipment{AWBNumber: "AWB1", Carrier: "DPD"}, nil
}

func TestCourierDecorator(t *testing.T) {
	r := New(Config{MaxAttempts: 3}, nil)
	r.sleep = noSleep
	next := &flakyCourier{failures: 1}

	c := Courier(next, Policy{Retrier: r, Breaker: NewCircuitBreaker(5, time.Minute, nil)})
	shipment, err := c.CreateShipment(context.Background(), domain.ShipmentRequest{OrderID: "o-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if shipment.AWBNumber != "AWB1" || next.calls != 2 {
		t.Fatalf("unexpected shipment %+v after %d calls", shipment, next.calls)
	}
}
