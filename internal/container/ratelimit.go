package container

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/samber/do"
	"github.com/serroba/sliding-window/internal/events"
	"github.com/serroba/sliding-window/internal/messaging"
	"github.com/serroba/sliding-window/internal/metrics"
	"github.com/serroba/sliding-window/internal/ratelimit"
	"github.com/serroba/sliding-window/internal/snowflake"
	"github.com/serroba/sliding-window/internal/store"
	"github.com/serroba/sliding-window/internal/window"
	"go.uber.org/zap"
)

const startupTimeout = 10 * time.Second

// MetricsPackage provides the Prometheus registry and the window collectors.
func MetricsPackage(i *do.Injector) {
	do.Provide(i, func(_ *do.Injector) (*prometheus.Registry, error) {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)

		return reg, nil
	})

	do.Provide(i, func(i *do.Injector) (*metrics.Metrics, error) {
		return metrics.New(do.MustInvoke[*prometheus.Registry](i))
	})
}

// RepositoryPackage provides the scene table. Scenes from --scenes are
// served from memory, or seeded into PostgreSQL behind a Redis cache when a
// database is configured.
func RepositoryPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (ratelimit.SceneProvider, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		scenes, err := ratelimit.ParseScenes(opts.Scenes)
		if err != nil {
			return nil, fmt.Errorf("invalid --scenes: %w", err)
		}

		if opts.DatabaseURL == "" {
			logger.Info("using in-memory scenes", zap.Int("count", len(scenes)))

			return store.NewMemorySceneStore(scenes), nil
		}

		pool := do.MustInvoke[*PostgresPool](i)
		redisClient := do.MustInvoke[*RedisClient](i).Client

		ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
		defer cancel()

		postgres := store.NewPostgresSceneStore(pool.Pool)
		if err := postgres.Migrate(ctx); err != nil {
			return nil, err
		}

		cache := store.NewRedisSceneCache(postgres, redisClient, time.Duration(opts.SceneCacheTTL)*time.Second)

		for name, cfg := range scenes {
			if err := cache.Save(ctx, name, cfg); err != nil {
				return nil, fmt.Errorf("failed to seed scene %q: %w", name, err)
			}
		}

		logger.Info("using postgres scenes", zap.Int("seeded", len(scenes)))

		return cache, nil
	})
}

// RateLimitPackage provides the window store, the id generator and the
// limiters built on them.
func RateLimitPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (window.Store, error) {
		opts := do.MustInvoke[*Options](i)

		var s window.Store

		switch opts.StoreMode {
		case StoreModeScript:
			s = store.NewRedisWindowStore(do.MustInvoke[*RedisClient](i).Client)
		case StoreModeWatch:
			s = store.NewRedisWatchWindowStore(do.MustInvoke[*RedisClient](i).Client, opts.WatchRetries)
		case StoreModeMemory:
			s = store.NewMemoryWindowStore()
		default:
			return nil, fmt.Errorf("unknown store mode %q", opts.StoreMode)
		}

		return metrics.NewInstrumentedStore(s, do.MustInvoke[*metrics.Metrics](i)), nil
	})

	do.Provide(i, func(i *do.Injector) (*snowflake.Generator, error) {
		opts := do.MustInvoke[*Options](i)

		return snowflake.New(int64(opts.DatacenterID), int64(opts.MachineID))
	})

	do.Provide(i, func(i *do.Injector) (*ratelimit.SlidingWindow, error) {
		opts := do.MustInvoke[*Options](i)
		engine := window.NewEngine(do.MustInvoke[window.Store](i), do.MustInvoke[*snowflake.Generator](i))

		return ratelimit.NewSlidingWindow(engine, do.MustInvoke[*zap.Logger](i),
			ratelimit.WithKeyPrefix(opts.KeyPrefix)), nil
	})

	do.Provide(i, func(i *do.Injector) (*ratelimit.SceneService, error) {
		notifier := events.NewNotifier(messaging.NewPublishFunc[events.WindowExceededEvent](
			do.MustInvoke[*messaging.PublisherGroup](i).Publisher(),
			events.TopicWindowExceeded,
		))

		return ratelimit.NewSceneService(
			do.MustInvoke[*ratelimit.SlidingWindow](i),
			do.MustInvoke[ratelimit.SceneProvider](i),
			notifier,
			do.MustInvoke[*zap.Logger](i),
		), nil
	})
}

// PublisherGroupPackage provides the Redis Streams publisher for events.
func PublisherGroupPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*messaging.PublisherGroup, error) {
		opts := do.MustInvoke[*Options](i)
		maxlens := map[string]int64{events.TopicWindowExceeded: int64(opts.EventStreamMaxLen)}

		publisher, err := messaging.NewRedisPublisher(
			do.MustInvoke[*RedisClient](i).Client, maxlens, do.MustInvoke[*zap.Logger](i))
		if err != nil {
			return nil, err
		}

		return messaging.NewPublisherGroup(publisher), nil
	})
}

// ConsumerGroupPackage provides the consumers of window events.
func ConsumerGroupPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*messaging.ConsumerGroup, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		subscriber, err := messaging.NewRedisSubscriber(do.MustInvoke[*RedisClient](i).Client, opts.ConsumerGroup, logger)
		if err != nil {
			return nil, err
		}

		group := messaging.NewConsumerGroup(opts.ConsumerGroup, subscriber, logger)
		events.RegisterConsumers(group, logger)

		return group, nil
	})
}
