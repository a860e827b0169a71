package ratelimit

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Exceeded describes one over-limit decision.
type Exceeded struct {
	Scene      string
	Key        string
	Window     int64
	Threshold  int64
	Cleanup    bool
	OccurredAt time.Time
}

// ExceededNotifier is told about every over-limit decision SceneService makes.
type ExceededNotifier interface {
	NotifyExceeded(ctx context.Context, exceeded Exceeded) error
}

// SceneService applies the window configured for a scene to a key.
type SceneService struct {
	window   *SlidingWindow
	scenes   SceneProvider
	notifier ExceededNotifier
	logger   *zap.Logger
}

// NewSceneService creates a scene-driven limiter. notifier may be nil.
func NewSceneService(
	window *SlidingWindow, scenes SceneProvider, notifier ExceededNotifier, logger *zap.Logger,
) *SceneService {
	return &SceneService{
		window:   window,
		scenes:   scenes,
		notifier: notifier,
		logger:   logger,
	}
}

// Scene returns the configuration of a scene.
func (s *SceneService) Scene(ctx context.Context, scene string) (SceneConfig, error) {
	cfg, err := s.scenes.Scene(ctx, scene)
	if err != nil {
		return SceneConfig{}, fmt.Errorf("scene %q: %w", scene, err)
	}

	return cfg, nil
}

// Evaluate reports whether key is over the limit configured for scene.
func (s *SceneService) Evaluate(ctx context.Context, scene, key string) (bool, error) {
	_, over, err := s.evaluate(ctx, scene, key, false)

	return over, err
}

// EvaluateAndCleanup is Evaluate with the key cleared when over the limit.
func (s *SceneService) EvaluateAndCleanup(ctx context.Context, scene, key string) (bool, error) {
	_, over, err := s.evaluate(ctx, scene, key, true)

	return over, err
}

func (s *SceneService) evaluate(ctx context.Context, scene, key string, cleanup bool) (SceneConfig, bool, error) {
	cfg, err := s.Scene(ctx, scene)
	if err != nil {
		return SceneConfig{}, false, err
	}

	evaluate := s.window.Evaluate
	if cleanup {
		evaluate = s.window.EvaluateAndCleanup
	}

	over, err := evaluate(ctx, key, cfg.Window, cfg.Threshold)
	if err != nil {
		return cfg, false, err
	}

	if over {
		s.notify(ctx, scene, key, cfg, cleanup)
	}

	return cfg, over, nil
}

// Count returns the number of events for key in the scene's window.
func (s *SceneService) Count(ctx context.Context, scene, key string) (int64, error) {
	cfg, err := s.Scene(ctx, scene)
	if err != nil {
		return 0, err
	}

	return s.window.Count(ctx, key, cfg.Window)
}

func (s *SceneService) notify(ctx context.Context, scene, key string, cfg SceneConfig, cleanup bool) {
	if s.notifier == nil {
		return
	}

	err := s.notifier.NotifyExceeded(ctx, Exceeded{
		Scene:      scene,
		Key:        key,
		Window:     cfg.Window,
		Threshold:  cfg.Threshold,
		Cleanup:    cleanup,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		s.logger.Warn("failed to notify exceeded limit",
			zap.String("scene", scene),
			zap.String("key", key),
			zap.Error(err),
		)
	}
}
