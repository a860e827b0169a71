package handlers

import (
	"context"

	"go.uber.org/zap"
)

// WindowLimiter evaluates windows supplied by the caller.
type WindowLimiter interface {
	Evaluate(ctx context.Context, key string, windowSeconds, threshold int64) (bool, error)
	EvaluateAndCleanup(ctx context.Context, key string, windowSeconds, threshold int64) (bool, error)
	Count(ctx context.Context, key string, windowSeconds int64) (int64, error)
}

// WindowHandler exposes ad-hoc sliding windows over HTTP.
type WindowHandler struct {
	limiter WindowLimiter
	logger  *zap.Logger
}

// NewWindowHandler creates a new WindowHandler.
func NewWindowHandler(limiter WindowLimiter, logger *zap.Logger) *WindowHandler {
	return &WindowHandler{
		limiter: limiter,
		logger:  logger,
	}
}

// Check records an event and reports whether the key went over the limit.
func (h *WindowHandler) Check(ctx context.Context, req *CheckRequest) (*CheckResponse, error) {
	over, err := h.limiter.Evaluate(ctx, req.Key, req.Window, req.Threshold)
	if err != nil {
		h.logger.Error("sliding window check failed", zap.String("key", req.Key), zap.Error(err))

		return nil, toHTTPError(err)
	}

	return newCheckResponse(req.Key, req.Window, req.Threshold, over), nil
}

// CheckAndClean is Check, but an over-limit key starts a fresh window.
func (h *WindowHandler) CheckAndClean(ctx context.Context, req *CheckAndCleanRequest) (*CheckResponse, error) {
	over, err := h.limiter.EvaluateAndCleanup(ctx, req.Key, req.Window, req.Threshold)
	if err != nil {
		h.logger.Error("sliding window check-and-clean failed", zap.String("key", req.Key), zap.Error(err))

		return nil, toHTTPError(err)
	}

	return newCheckResponse(req.Key, req.Window, req.Threshold, over), nil
}

// Count records an event and returns the events inside the window.
func (h *WindowHandler) Count(ctx context.Context, req *CountRequest) (*CountResponse, error) {
	count, err := h.limiter.Count(ctx, req.Key, req.Window)
	if err != nil {
		h.logger.Error("sliding window count failed", zap.String("key", req.Key), zap.Error(err))

		return nil, toHTTPError(err)
	}

	resp := &CountResponse{}
	resp.Body.Key = req.Key
	resp.Body.Window = req.Window
	resp.Body.Count = count

	return resp, nil
}

func newCheckResponse(key string, window, threshold int64, over bool) *CheckResponse {
	resp := &CheckResponse{}
	resp.Body.Key = key
	resp.Body.Window = window
	resp.Body.Threshold = threshold
	resp.Body.OverLimit = over
	resp.Body.Message = decisionMessage(over)

	return resp
}
