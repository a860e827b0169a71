package window

import (
	"context"
	"fmt"
)

// IDGenerator produces the members that disambiguate same-score entries.
type IDGenerator interface {
	NextID() (int64, error)
}

// Engine runs the three sliding window operations, each as a single atomic
// store operation. It keeps no state of its own.
type Engine struct {
	store Store
	ids   IDGenerator
}

// NewEngine creates a new sliding window engine.
func NewEngine(store Store, ids IDGenerator) *Engine {
	return &Engine{
		store: store,
		ids:   ids,
	}
}

// Evaluate records an event and reports whether the window now holds more
// than threshold events.
func (e *Engine) Evaluate(
	ctx context.Context, key string, now, windowLength, threshold, expireSeconds int64,
) (bool, error) {
	res, err := e.apply(ctx, Request{
		Key:           key,
		Now:           now,
		WindowLength:  windowLength,
		ExpireSeconds: expireSeconds,
		Threshold:     threshold,
		Mode:          ModeEvaluate,
	})
	if err != nil {
		return false, err
	}

	return res.Exceeded, nil
}

// EvaluateAndCleanup behaves like Evaluate, except that an over-limit result
// also discards every entry of the key.
func (e *Engine) EvaluateAndCleanup(
	ctx context.Context, key string, now, windowLength, threshold, expireSeconds int64,
) (bool, error) {
	res, err := e.apply(ctx, Request{
		Key:           key,
		Now:           now,
		WindowLength:  windowLength,
		ExpireSeconds: expireSeconds,
		Threshold:     threshold,
		Mode:          ModeEvaluateAndCleanup,
	})
	if err != nil {
		return false, err
	}

	return res.Exceeded, nil
}

// Count records an event and returns how many events the window holds,
// the new one included.
func (e *Engine) Count(ctx context.Context, key string, now, windowLength, expireSeconds int64) (int64, error) {
	res, err := e.apply(ctx, Request{
		Key:           key,
		Now:           now,
		WindowLength:  windowLength,
		ExpireSeconds: expireSeconds,
		Mode:          ModeCount,
	})
	if err != nil {
		return 0, err
	}

	return res.Count, nil
}

func (e *Engine) apply(ctx context.Context, req Request) (Result, error) {
	if err := validate(req); err != nil {
		return Result{}, err
	}

	member, err := e.ids.NextID()
	if err != nil {
		return Result{}, err
	}

	req.Member = member

	res, err := e.store.Apply(ctx, req)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %s %q: %w", ErrStoreUnavailable, req.Mode, req.Key, err)
	}

	return res, nil
}

func validate(req Request) error {
	switch {
	case req.Key == "":
		return fmt.Errorf("%w: empty key", ErrInvalidRequest)
	case req.WindowLength <= 0:
		return fmt.Errorf("%w: window length %dms must be positive", ErrInvalidRequest, req.WindowLength)
	case req.ExpireSeconds <= 0:
		return fmt.Errorf("%w: expire seconds %d must be positive", ErrInvalidRequest, req.ExpireSeconds)
	case req.Threshold < 0:
		return fmt.Errorf("%w: threshold %d must not be negative", ErrInvalidRequest, req.Threshold)
	default:
		return nil
	}
}
