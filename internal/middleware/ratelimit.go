package middleware

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/sliding-window/internal/handlers"
	"github.com/serroba/sliding-window/internal/ratelimit"
	"github.com/serroba/sliding-window/internal/window"
	"go.uber.org/zap"
)

// RateLimiter returns a Huma middleware that limits requests based on client IP and User-Agent.
func RateLimiter(api huma.API, limiter ratelimit.Limiter) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		if cfg := ratelimit.GetEndpointConfig(ctx); cfg != nil && cfg.Disabled {
			next(ctx)

			return
		}

		allowed, err := limiter.Allow(ctx.Context(), clientKey(ctx))
		if err != nil {
			writeLimiterErr(api, ctx, err)

			return
		}

		if !allowed {
			_ = huma.WriteErr(api, ctx, http.StatusTooManyRequests, "rate limit exceeded")

			return
		}

		next(ctx)
	}
}

// SceneRateLimiter returns a Huma middleware that counts every request
// against the scenes its scopes resolve to.
//
// Operations can opt out with ratelimit.EndpointConfig{Disabled: true} in
// their metadata, or name their own scene in place of read/write.
func SceneRateLimiter(
	api huma.API,
	limiter *ratelimit.SceneLimiter,
	resolver ratelimit.ScopeResolver,
	logger *zap.Logger,
) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		path := getOperationPath(ctx)

		if cfg := ratelimit.GetEndpointConfig(ctx); cfg != nil && cfg.Disabled {
			logger.Debug("rate limiting disabled for endpoint",
				zap.String("path", path), zap.String("method", ctx.Method()))
			next(ctx)

			return
		}

		allowed, exceeded, err := limiter.Allow(ctx.Context(), clientKey(ctx), resolver.Resolve(ctx))
		if err != nil {
			logger.Error("rate limit check failed", zap.String("path", path), zap.Error(err))
			writeLimiterErr(api, ctx, err)

			return
		}

		if !allowed {
			handleRateLimitExceeded(api, ctx, exceeded, path, logger)

			return
		}

		next(ctx)
	}
}

func getOperationPath(ctx huma.Context) string {
	if op := ctx.Operation(); op != nil {
		return op.Path
	}

	return ""
}

func writeLimiterErr(api huma.API, ctx huma.Context, err error) {
	if errors.Is(err, window.ErrStoreUnavailable) {
		_ = huma.WriteErr(api, ctx, http.StatusServiceUnavailable, "rate limiter unavailable", err)

		return
	}

	_ = huma.WriteErr(api, ctx, http.StatusInternalServerError, "internal server error", err)
}

// handleRateLimitExceeded answers 429 and tells the client when the scene's
// window has fully slid past this request.
func handleRateLimitExceeded(
	api huma.API,
	ctx huma.Context,
	exceeded *ratelimit.LimitExceeded,
	path string,
	logger *zap.Logger,
) {
	msg := "rate limit exceeded"

	if exceeded != nil {
		msg = fmt.Sprintf("rate limit exceeded: %s scope allows %d requests in %ds",
			exceeded.Scope, exceeded.Config.Threshold, exceeded.Config.Window)
		ctx.SetHeader("Retry-After", strconv.FormatInt(exceeded.Config.Window, 10))

		logger.Warn("rate limit exceeded",
			zap.String("path", path),
			zap.String("method", ctx.Method()),
			zap.String("scope", string(exceeded.Scope)),
			zap.Int64("threshold", exceeded.Config.Threshold),
			zap.Int64("window", exceeded.Config.Window),
			zap.String("client_ip", clientIP(ctx)),
		)
	}

	_ = huma.WriteErr(api, ctx, http.StatusTooManyRequests, msg)
}

func clientKey(ctx huma.Context) string {
	return handlers.RequestMeta{
		ClientIP:  clientIP(ctx),
		UserAgent: ctx.Header("User-Agent"),
	}.ClientKey()
}

// clientIP extracts the client IP from the request, considering proxies.
func clientIP(ctx huma.Context) string {
	// X-Forwarded-For may list every proxy; the first entry is the client.
	if xff := ctx.Header("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")

		return strings.TrimSpace(first)
	}

	if xri := ctx.Header("X-Real-IP"); xri != "" {
		return xri
	}

	addr := ctx.RemoteAddr()
	if addr == "" {
		addr = ctx.Host()
	}

	ip, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}

	return ip
}
