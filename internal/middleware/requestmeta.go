package middleware

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/sliding-window/internal/handlers"
)

// RequestMeta is a middleware that adds the client IP and user-agent to the request context.
func RequestMeta(_ huma.API) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		meta := handlers.RequestMeta{
			ClientIP:  clientIP(ctx),
			UserAgent: ctx.Header("User-Agent"),
		}

		next(huma.WithContext(ctx, handlers.ContextWithRequestMeta(ctx.Context(), meta)))
	}
}
