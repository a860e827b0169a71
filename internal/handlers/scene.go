package handlers

import (
	"context"

	"go.uber.org/zap"
)

// SceneLimiter evaluates windows configured per scene.
type SceneLimiter interface {
	Evaluate(ctx context.Context, scene, key string) (bool, error)
	EvaluateAndCleanup(ctx context.Context, scene, key string) (bool, error)
	Count(ctx context.Context, scene, key string) (int64, error)
}

// SceneHandler exposes configured scenes over HTTP.
type SceneHandler struct {
	scenes SceneLimiter
	logger *zap.Logger
}

// NewSceneHandler creates a new SceneHandler.
func NewSceneHandler(scenes SceneLimiter, logger *zap.Logger) *SceneHandler {
	return &SceneHandler{
		scenes: scenes,
		logger: logger,
	}
}

// Check records an event for the key in the scene's window.
func (h *SceneHandler) Check(ctx context.Context, req *SceneRequest) (*SceneCheckResponse, error) {
	return h.check(ctx, req, h.scenes.Evaluate)
}

// CheckAndClean is Check, but an over-limit key starts a fresh window.
func (h *SceneHandler) CheckAndClean(ctx context.Context, req *SceneRequest) (*SceneCheckResponse, error) {
	return h.check(ctx, req, h.scenes.EvaluateAndCleanup)
}

// Count records an event and returns the events in the scene's window.
func (h *SceneHandler) Count(ctx context.Context, req *SceneRequest) (*SceneCountResponse, error) {
	key := requestKey(ctx, req.Key)

	count, err := h.scenes.Count(ctx, req.Scene, key)
	if err != nil {
		h.logger.Error("scene count failed", zap.String("scene", req.Scene), zap.Error(err))

		return nil, toHTTPError(err)
	}

	resp := &SceneCountResponse{}
	resp.Body.Scene = req.Scene
	resp.Body.Key = key
	resp.Body.Count = count

	return resp, nil
}

func (h *SceneHandler) check(
	ctx context.Context,
	req *SceneRequest,
	evaluate func(ctx context.Context, scene, key string) (bool, error),
) (*SceneCheckResponse, error) {
	key := requestKey(ctx, req.Key)

	over, err := evaluate(ctx, req.Scene, key)
	if err != nil {
		h.logger.Error("scene check failed", zap.String("scene", req.Scene), zap.Error(err))

		return nil, toHTTPError(err)
	}

	resp := &SceneCheckResponse{}
	resp.Body.Scene = req.Scene
	resp.Body.Key = key
	resp.Body.OverLimit = over
	resp.Body.Message = decisionMessage(over)

	return resp, nil
}

// requestKey falls back to the calling client when no key was given.
func requestKey(ctx context.Context, key string) string {
	if key != "" {
		return key
	}

	return RequestMetaFromContext(ctx).ClientKey()
}
