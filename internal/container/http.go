package container

import (
	"fmt"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor" // CBOR format support for huma
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/do"
	"github.com/serroba/sliding-window/internal/handlers"
	"github.com/serroba/sliding-window/internal/health"
	"github.com/serroba/sliding-window/internal/metrics"
	"github.com/serroba/sliding-window/internal/middleware"
	"github.com/serroba/sliding-window/internal/ratelimit"
	"go.uber.org/zap"
)

// HTTPPackage provides the router and the huma API with every route registered.
func HTTPPackage(i *do.Injector) {
	do.Provide(i, func(_ *do.Injector) (*chi.Mux, error) {
		return chi.NewMux(), nil
	})

	do.Provide(i, func(i *do.Injector) (huma.API, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)
		router := do.MustInvoke[*chi.Mux](i)

		router.Handle("/metrics", metrics.Handler(do.MustInvoke[*prometheus.Registry](i)))

		api := humachi.New(router, huma.DefaultConfig("Sliding Window Rate Limiter", "1.0.0"))
		api.UseMiddleware(middleware.RequestMeta(api))

		checkers := map[string]health.Checker{
			"redis": health.NewRedisChecker(do.MustInvoke[*RedisClient](i).Client),
		}
		if opts.DatabaseURL != "" {
			checkers["postgres"] = health.NewPostgresChecker(do.MustInvoke[*PostgresPool](i).Pool)
		}

		health.RegisterRoutes(api, health.NewHandler(checkers))

		if !opts.Enabled {
			logger.Info("sliding window disabled")

			return api, nil
		}

		sw := do.MustInvoke[*ratelimit.SlidingWindow](i)
		scenes := do.MustInvoke[*ratelimit.SceneService](i)

		api.UseMiddleware(middleware.SceneRateLimiter(
			api, ratelimit.NewSceneLimiter(scenes), ratelimit.NewOperationScopeResolver(), logger))

		if opts.ClientLimit != "" {
			cfg, err := ratelimit.ParseSceneConfig(opts.ClientLimit)
			if err != nil {
				return nil, fmt.Errorf("invalid --client-limit: %w", err)
			}

			api.UseMiddleware(middleware.RateLimiter(api, ratelimit.NewKeyLimiter(sw, cfg.Window, cfg.Threshold)))
		}

		handlers.RegisterRoutes(api,
			handlers.NewWindowHandler(sw, logger),
			handlers.NewSceneHandler(scenes, logger),
		)

		return api, nil
	})
}
