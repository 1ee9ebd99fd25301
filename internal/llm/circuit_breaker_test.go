package llm

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestCircuitBreakerPassesThroughSuccess(t *testing.T) {
	cb := NewCircuitBreaker()

	result, err := cb.Execute(context.Background(), func() (interface{}, error) {
		return []float32{1, 2}, nil
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if vec := result.([]float32); len(vec) != 2 {
		t.Errorf("unexpected result: %v", vec)
	}
	if cb.State() != "closed" {
		t.Errorf("expected closed, got %s", cb.State())
	}
}

func TestCircuitBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	cb := NewCircuitBreakerWithConfig(CircuitBreakerConfig{
		MaxFailures:          3,
		Timeout:              time.Hour,
		HalfOpenMaxSuccesses: 1,
	})

	failing := func() (interface{}, error) {
		return nil, errors.New("upstream down")
	}

	for i := 0; i < 3; i++ {
		if _, err := cb.Execute(context.Background(), failing); err == nil {
			t.Fatalf("call %d: expected failure", i)
		}
	}

	if cb.State() != "open" {
		t.Fatalf("expected open after 3 failures, got %s", cb.State())
	}

	called := false
	_, err := cb.Execute(context.Background(), func() (interface{}, error) {
		called = true
		return nil, nil
	})
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("expected ErrCircuitOpen, got %v", err)
	}
	if called {
		t.Error("open circuit must not invoke the function")
	}
}

func TestCircuitBreakerResetsOnSuccess(t *testing.T) {
	cb := NewCircuitBreakerWithConfig(CircuitBreakerConfig{
		MaxFailures:          3,
		Timeout:              time.Hour,
		HalfOpenMaxSuccesses: 1,
	})

	fail := func() (interface{}, error) { return nil, errors.New("down") }
	ok := func() (interface{}, error) { return nil, nil }

	for _, fn := range []func() (interface{}, error){fail, fail, ok, fail, fail} {
		_, _ = cb.Execute(context.Background(), fn)
	}

	// The success in the middle reset the consecutive-failure count.
	if cb.State() != "closed" {
		t.Errorf("expected closed, got %s", cb.State())
	}
}

func TestCircuitBreakerCancelledContext(t *testing.T) {
	cb := NewCircuitBreaker()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := cb.Execute(ctx, func() (interface{}, error) {
		t.Error("function must not run with a cancelled context")
		return nil, nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestCircuitBreakerMetrics(t *testing.T) {
	cb := NewCircuitBreaker()

	_, _ = cb.Execute(context.Background(), func() (interface{}, error) { return nil, nil })
	_, _ = cb.Execute(context.Background(), func() (interface{}, error) { return nil, errors.New("x") })

	m := cb.Metrics()
	if m.TotalRequests != 2 || m.TotalSuccesses != 1 || m.TotalFailures != 1 {
		t.Errorf("unexpected metrics: %+v", m)
	}
}
