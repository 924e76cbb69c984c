package ratelimit

import (
	"context"
	"time"

	"farm-photos-backend/internal/kv"
)

// Limiter is a fixed-window counter shared across processes through the
// key-value store. The first request in a window starts the clock; requests
// past the ceiling inside the window are refused.
type Limiter struct {
	kv      *kv.Client
	window  time.Duration
	ceiling int
}

func New(client *kv.Client, window time.Duration, ceiling int) *Limiter {
	return &Limiter{
		kv:      client,
		window:  window,
		ceiling: ceiling,
	}
}

// Allow reports whether the client may proceed. clientKey is typically the
// source address; scope separates independent limits sharing one store.
func (l *Limiter) Allow(ctx context.Context, scope, clientKey string) (bool, error) {
	n, err := l.kv.IncrWithWindow(ctx, kv.RateLimitKey(scope, clientKey), l.window)
	if err != nil {
		return false, err
	}
	return n <= int64(l.ceiling), nil
}
