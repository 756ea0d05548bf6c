// Package limiter provides the politeness delay applied between page fetches.
package limiter

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultDelay is the minimum pause after one response before the next
// request to the platform.
const DefaultDelay = 3 * time.Second

// RateLimiter blocks callers until the next request may be sent.
type RateLimiter interface {
	Wait(context.Context) error // blocks until allowed or ctx is done
	Done()                      // marks the end of the request admitted by Wait
	Limit() rate.Limit
}

// delayLimiter admits a request only once delay has passed since the
// previous request finished. Each Done drains the bucket, so the refill
// starts at the end of the response rather than at admission.
type delayLimiter struct {
	mu    sync.Mutex
	delay time.Duration
	lim   *rate.Limiter
}

// NewDelay returns a limiter that holds every request until delay after
// the previous one called Done. The first request is admitted immediately.
// A non-positive delay yields Nop.
func NewDelay(delay time.Duration) RateLimiter {
	if delay <= 0 {
		return Nop()
	}
	return &delayLimiter{
		delay: delay,
		lim:   rate.NewLimiter(rate.Every(delay), 1),
	}
}

func (l *delayLimiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	lim := l.lim
	l.mu.Unlock()
	return lim.Wait(ctx)
}

func (l *delayLimiter) Done() {
	lim := rate.NewLimiter(rate.Every(l.delay), 1)
	lim.Allow()

	l.mu.Lock()
	l.lim = lim
	l.mu.Unlock()
}

func (l *delayLimiter) Limit() rate.Limit {
	return rate.Every(l.delay)
}

type nopLimiter struct{}

// Nop returns a limiter that never blocks.
func Nop() RateLimiter {
	return nopLimiter{}
}

func (nopLimiter) Wait(ctx context.Context) error {
	return ctx.Err()
}

func (nopLimiter) Done() {}

func (nopLimiter) Limit() rate.Limit {
	return rate.Inf
}
