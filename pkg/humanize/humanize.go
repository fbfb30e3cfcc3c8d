package humanize

import (
	"context"
	"math/rand"
	"time"

	"xtractor/pkg/retry"
)

// SleepFunc blocks for the given duration or until the context is
// cancelled. Tests swap it out to run instantly while recording the
// durations the behavior layer asked for.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Pointer is the minimal input surface needed for mouse drift
type Pointer interface {
	MouseMove(ctx context.Context, x, y float64) error
}

// Humanizer produces the randomized, human-like behavior the platform
// expects from a real visitor: jittered delays, drifting mouse
// movements, and typing cadence. All randomness flows through one
// seedable source so behavior is reproducible in tests.
type Humanizer struct {
	rng     *rand.Rand
	sleep   SleepFunc
	pointer Pointer
}

// New creates a humanizer using the given randomness source
func New(rng *rand.Rand) *Humanizer {
	return &Humanizer{
		rng:   rng,
		sleep: retry.Wait,
	}
}

// WithSleep overrides the sleep implementation
func (h *Humanizer) WithSleep(fn SleepFunc) *Humanizer {
	h.sleep = fn
	return h
}

// WithPointer attaches a mouse surface for micro-movements during delays
func (h *Humanizer) WithPointer(p Pointer) *Humanizer {
	h.pointer = p
	return h
}

// Sleep blocks for d, honoring cancellation
func (h *Humanizer) Sleep(ctx context.Context, d time.Duration) error {
	return h.sleep(ctx, d)
}

// Uniform returns a duration drawn uniformly from [min, max]
func (h *Humanizer) Uniform(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(h.rng.Int63n(int64(max-min)))
}

// Chance returns true with probability p
func (h *Humanizer) Chance(p float64) bool {
	return h.rng.Float64() < p
}

// Intn returns a uniform value in [0, n)
func (h *Humanizer) Intn(n int) int {
	return h.rng.Intn(n)
}

// Delay sleeps for a jittered duration in [min, max], split into a few
// micro-steps with occasional mouse micro-movements so the pause does
// not look like a single mechanical wait.
func (h *Humanizer) Delay(ctx context.Context, min, max time.Duration) error {
	total := h.Uniform(min, max)
	steps := 3 + h.rng.Intn(5)

	for i := 0; i < steps; i++ {
		if err := h.Sleep(ctx, total/time.Duration(steps)); err != nil {
			return err
		}
		if h.pointer != nil && h.Chance(0.3) {
			x := float64(100 + h.rng.Intn(200))
			y := float64(100 + h.rng.Intn(200))
			if err := h.pointer.MouseMove(ctx, x, y); err != nil {
				return err
			}
		}
	}
	return nil
}

// MouseDrift simulates a few curved mouse movements across the page
func (h *Humanizer) MouseDrift(ctx context.Context) error {
	if h.pointer == nil {
		return nil
	}

	moves := 2 + h.rng.Intn(3)
	for i := 0; i < moves; i++ {
		startX := float64(100 + h.rng.Intn(400))
		startY := float64(100 + h.rng.Intn(300))
		endX := float64(500 + h.rng.Intn(400))
		endY := float64(200 + h.rng.Intn(400))

		steps := 5 + h.rng.Intn(6)
		for s := 0; s < steps; s++ {
			t := float64(s) / float64(steps)
			x := startX + (endX-startX)*t
			y := startY + (endY-startY)*t
			if err := h.pointer.MouseMove(ctx, x, y); err != nil {
				return err
			}
			if err := h.Sleep(ctx, h.Uniform(10*time.Millisecond, 50*time.Millisecond)); err != nil {
				return err
			}
		}
	}
	return nil
}

// TypingDelay returns the pause before the next keystroke
func (h *Humanizer) TypingDelay() time.Duration {
	return h.Uniform(50*time.Millisecond, 200*time.Millisecond)
}

// TypingPause reports whether to take a longer break mid-typing, and
// how long; humans occasionally stop to think
func (h *Humanizer) TypingPause() (time.Duration, bool) {
	if h.Chance(0.1) {
		return h.Uniform(500*time.Millisecond, 1500*time.Millisecond), true
	}
	return 0, false
}
