package handlers

import (
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/sliding-window/internal/ratelimit"
	"github.com/serroba/sliding-window/internal/window"
)

const (
	messageAccepted = "request accepted"
	messageRejected = "too many requests, please retry later"
)

func decisionMessage(overLimit bool) string {
	if overLimit {
		return messageRejected
	}

	return messageAccepted
}

// toHTTPError maps limiter failures onto status codes.
func toHTTPError(err error) error {
	switch {
	case errors.Is(err, window.ErrInvalidRequest):
		return huma.Error400BadRequest(err.Error())
	case errors.Is(err, ratelimit.ErrSceneNotFound):
		return huma.Error404NotFound(err.Error())
	case errors.Is(err, window.ErrStoreUnavailable):
		return huma.Error503ServiceUnavailable("sliding window store unavailable")
	default:
		return huma.Error500InternalServerError("internal server error")
	}
}
