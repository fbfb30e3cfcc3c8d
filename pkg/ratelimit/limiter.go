package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter defines the interface for pacing navigations against the platform
type Limiter interface {
	// Allow checks if a request is allowed under the current rate limit
	Allow() bool
	// Wait blocks until the rate limit allows another request or the
	// context is cancelled
	Wait(ctx context.Context) error
	// Reset restores the limiter to full capacity
	Reset()
}

// NavigationLimiter paces page navigations using a token bucket
type NavigationLimiter struct {
	limiter   *rate.Limiter
	perMinute int
}

// NewNavigationLimiter creates a limiter allowing perMinute navigations,
// with a small burst so the login sequence is not throttled
func NewNavigationLimiter(perMinute int) *NavigationLimiter {
	if perMinute <= 0 {
		perMinute = 10
	}
	return &NavigationLimiter{
		limiter:   rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 3),
		perMinute: perMinute,
	}
}

// Allow checks if a navigation can proceed now
func (n *NavigationLimiter) Allow() bool {
	return n.limiter.Allow()
}

// Wait blocks until a navigation is allowed
func (n *NavigationLimiter) Wait(ctx context.Context) error {
	return n.limiter.Wait(ctx)
}

// Reset restores the limiter to a fresh token bucket
func (n *NavigationLimiter) Reset() {
	n.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(n.perMinute)), 3)
}
