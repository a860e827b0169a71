package ratelimit

import (
	"context"
)

// Limiter defines the interface for rate limiting.
type Limiter interface {
	// Allow checks if a request from the given key should be allowed.
	Allow(ctx context.Context, key string) (allowed bool, err error)
}

// KeyLimiter applies one fixed window and threshold to every key.
type KeyLimiter struct {
	window    *SlidingWindow
	seconds   int64
	threshold int64
}

// NewKeyLimiter creates a Limiter allowing threshold events per windowSeconds.
func NewKeyLimiter(window *SlidingWindow, windowSeconds, threshold int64) *KeyLimiter {
	return &KeyLimiter{
		window:    window,
		seconds:   windowSeconds,
		threshold: threshold,
	}
}

func (l *KeyLimiter) Allow(ctx context.Context, key string) (bool, error) {
	over, err := l.window.Evaluate(ctx, key, l.seconds, l.threshold)
	if err != nil {
		return false, err
	}

	return !over, nil
}
