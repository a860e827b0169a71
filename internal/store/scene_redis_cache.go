package store

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/sliding-window/internal/ratelimit"
	"golang.org/x/sync/singleflight"
)

// sceneLoadTimeout bounds a shared source read, which outlives any single
// caller's context.
const sceneLoadTimeout = 5 * time.Second

// SceneRepository is a scene source that can also be written to.
type SceneRepository interface {
	ratelimit.SceneProvider
	Save(ctx context.Context, name string, cfg ratelimit.SceneConfig) error
}

// RedisSceneCache wraps a SceneRepository with Redis caching for reads.
// Unknown scenes are never cached, so not-found always comes from the source.
// Concurrent misses for the same scene share one source read.
type RedisSceneCache struct {
	store  SceneRepository
	client redis.Cmdable
	prefix string
	ttl    time.Duration
	loads  singleflight.Group
}

// NewRedisSceneCache creates a new Redis-cached scene repository decorator.
func NewRedisSceneCache(store SceneRepository, client redis.Cmdable, ttl time.Duration) *RedisSceneCache {
	return &RedisSceneCache{
		store:  store,
		client: client,
		prefix: "scene:",
		ttl:    ttl,
	}
}

// Save stores a scene in the underlying store and refreshes the cache.
func (r *RedisSceneCache) Save(ctx context.Context, name string, cfg ratelimit.SceneConfig) error {
	if err := r.store.Save(ctx, name, cfg); err != nil {
		return err
	}

	// Write-through
	r.cacheScene(ctx, name, cfg)

	return nil
}

// Scene returns a scene, checking the cache first.
func (r *RedisSceneCache) Scene(ctx context.Context, name string) (ratelimit.SceneConfig, error) {
	if cfg, ok := r.getFromCache(ctx, name); ok {
		return cfg, nil
	}

	v, err, _ := r.loads.Do(name, func() (any, error) {
		// Callers joining this load must not fail because the first one left.
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sceneLoadTimeout)
		defer cancel()

		cfg, err := r.store.Scene(loadCtx, name)
		if err != nil {
			return ratelimit.SceneConfig{}, err
		}

		r.cacheScene(loadCtx, name, cfg)

		return cfg, nil
	})
	if err != nil {
		return ratelimit.SceneConfig{}, err
	}

	return v.(ratelimit.SceneConfig), nil
}

// Invalidate drops a cached scene so the next read goes to the store.
func (r *RedisSceneCache) Invalidate(ctx context.Context, name string) error {
	return r.client.Del(ctx, r.prefix+name).Err()
}

func (r *RedisSceneCache) getFromCache(ctx context.Context, name string) (ratelimit.SceneConfig, bool) {
	result, err := r.client.HGetAll(ctx, r.prefix+name).Result()
	if err != nil || len(result) == 0 {
		return ratelimit.SceneConfig{}, false
	}

	window, err := strconv.ParseInt(result["window_seconds"], 10, 64)
	if err != nil {
		return ratelimit.SceneConfig{}, false
	}

	threshold, err := strconv.ParseInt(result["threshold"], 10, 64)
	if err != nil {
		return ratelimit.SceneConfig{}, false
	}

	return ratelimit.SceneConfig{Window: window, Threshold: threshold}, true
}

func (r *RedisSceneCache) cacheScene(ctx context.Context, name string, cfg ratelimit.SceneConfig) {
	pipe := r.client.Pipeline()
	key := r.prefix + name

	pipe.HSet(ctx, key, map[string]any{
		"window_seconds": cfg.Window,
		"threshold":      cfg.Threshold,
	})

	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}

	_, _ = pipe.Exec(ctx)
}
