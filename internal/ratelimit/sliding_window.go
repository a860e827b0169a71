package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/serroba/sliding-window/internal/window"
	"go.uber.org/zap"
)

// DefaultKeyPrefix namespaces every window key in the shared store.
const DefaultKeyPrefix = "sl_:"

// MaxWindowSeconds keeps the window in milliseconds exactly representable
// as a float64 sorted-set score.
const MaxWindowSeconds = (1 << 53) / 1000

// Engine is the subset of window.Engine the facade drives.
type Engine interface {
	Evaluate(ctx context.Context, key string, now, windowLength, threshold, expireSeconds int64) (bool, error)
	EvaluateAndCleanup(ctx context.Context, key string, now, windowLength, threshold, expireSeconds int64) (bool, error)
	Count(ctx context.Context, key string, now, windowLength, expireSeconds int64) (int64, error)
}

// SlidingWindow is the entry point callers use: it takes windows in seconds,
// namespaces keys and stamps every call with a single clock reading.
type SlidingWindow struct {
	engine Engine
	prefix string
	now    func() time.Time
	logger *zap.Logger
}

// Option configures a SlidingWindow.
type Option func(*SlidingWindow)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *SlidingWindow) {
		s.now = now
	}
}

// WithKeyPrefix overrides DefaultKeyPrefix.
func WithKeyPrefix(prefix string) Option {
	return func(s *SlidingWindow) {
		s.prefix = prefix
	}
}

// NewSlidingWindow creates a new rate limiter facade over engine.
func NewSlidingWindow(engine Engine, logger *zap.Logger, opts ...Option) *SlidingWindow {
	s := &SlidingWindow{
		engine: engine,
		prefix: DefaultKeyPrefix,
		now:    time.Now,
		logger: logger,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Evaluate records an event for key and reports whether more than threshold
// events happened in the last windowSeconds.
func (s *SlidingWindow) Evaluate(ctx context.Context, key string, windowSeconds, threshold int64) (bool, error) {
	if err := checkArgs(key, windowSeconds); err != nil {
		return false, err
	}

	now := s.now().UnixMilli()

	over, err := s.engine.Evaluate(ctx, s.prefix+key, now, windowSeconds*1000, threshold, windowSeconds)
	if err != nil {
		return false, err
	}

	s.logger.Debug("sliding window evaluated",
		zap.String("key", key),
		zap.Int64("window", windowSeconds),
		zap.Int64("threshold", threshold),
		zap.Bool("overLimit", over),
	)

	return over, nil
}

// EvaluateAndCleanup is Evaluate, but an over-limit key is cleared so the
// next event starts a fresh window.
func (s *SlidingWindow) EvaluateAndCleanup(
	ctx context.Context, key string, windowSeconds, threshold int64,
) (bool, error) {
	if err := checkArgs(key, windowSeconds); err != nil {
		return false, err
	}

	now := s.now().UnixMilli()

	over, err := s.engine.EvaluateAndCleanup(ctx, s.prefix+key, now, windowSeconds*1000, threshold, windowSeconds)
	if err != nil {
		return false, err
	}

	s.logger.Debug("sliding window evaluated with cleanup",
		zap.String("key", key),
		zap.Int64("window", windowSeconds),
		zap.Int64("threshold", threshold),
		zap.Bool("overLimit", over),
	)

	return over, nil
}

// Count records an event for key and returns the number of events in the
// last windowSeconds, this one included.
func (s *SlidingWindow) Count(ctx context.Context, key string, windowSeconds int64) (int64, error) {
	if err := checkArgs(key, windowSeconds); err != nil {
		return 0, err
	}

	now := s.now().UnixMilli()

	count, err := s.engine.Count(ctx, s.prefix+key, now, windowSeconds*1000, windowSeconds)
	if err != nil {
		return 0, err
	}

	s.logger.Debug("sliding window counted",
		zap.String("key", key),
		zap.Int64("window", windowSeconds),
		zap.Int64("count", count),
	)

	return count, nil
}

// checkArgs runs before prefixing, which would hide an empty key, and
// before the window is scaled to milliseconds.
func checkArgs(key string, windowSeconds int64) error {
	if key == "" {
		return fmt.Errorf("%w: empty key", window.ErrInvalidRequest)
	}

	if windowSeconds > MaxWindowSeconds {
		return fmt.Errorf("%w: window %ds exceeds %ds", window.ErrInvalidRequest, windowSeconds, int64(MaxWindowSeconds))
	}

	return nil
}
