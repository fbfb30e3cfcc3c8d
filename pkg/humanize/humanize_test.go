package humanize

import (
	"context"
	"math/rand"
	"testing"
	"time"
)

func instantSleep(recorded *[]time.Duration) SleepFunc {
	return func(ctx context.Context, d time.Duration) error {
		*recorded = append(*recorded, d)
		return nil
	}
}

func TestUniformStaysInRange(t *testing.T) {
	h := New(rand.New(rand.NewSource(1)))

	for i := 0; i < 1000; i++ {
		d := h.Uniform(30*time.Second, 60*time.Second)
		if d < 30*time.Second || d > 60*time.Second {
			t.Fatalf("Uniform returned %v outside [30s, 60s]", d)
		}
	}
}

func TestUniformDegenerateRange(t *testing.T) {
	h := New(rand.New(rand.NewSource(1)))
	if d := h.Uniform(5*time.Second, 5*time.Second); d != 5*time.Second {
		t.Errorf("Expected 5s for a degenerate range, got %v", d)
	}
}

func TestDelayTotalWithinBounds(t *testing.T) {
	var recorded []time.Duration
	h := New(rand.New(rand.NewSource(7))).WithSleep(instantSleep(&recorded))

	if err := h.Delay(context.Background(), 2*time.Second, 4*time.Second); err != nil {
		t.Fatalf("Delay failed: %v", err)
	}

	var total time.Duration
	for _, d := range recorded {
		total += d
	}
	// Micro-step division truncates, so the total may fall slightly short
	if total < 2*time.Second-10*time.Millisecond || total > 4*time.Second {
		t.Errorf("Expected total sleep near [2s, 4s], got %v", total)
	}
}

func TestDelayHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	h := New(rand.New(rand.NewSource(7)))
	if err := h.Delay(ctx, time.Second, 2*time.Second); err == nil {
		t.Error("Expected error from cancelled context")
	}
}

func TestDeterministicUnderSeed(t *testing.T) {
	a := New(rand.New(rand.NewSource(99)))
	b := New(rand.New(rand.NewSource(99)))

	for i := 0; i < 10; i++ {
		if a.Uniform(time.Second, time.Minute) != b.Uniform(time.Second, time.Minute) {
			t.Fatal("Expected identical draws from identical seeds")
		}
	}
}
