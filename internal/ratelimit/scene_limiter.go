package ratelimit

import (
	"context"
	"errors"
	"fmt"
)

// LimitExceeded contains information about which limit was exceeded.
type LimitExceeded struct {
	Scope  Scope
	Config SceneConfig
}

// SceneLimiter enforces the scenes named by resolved scopes. A scope whose
// scene is not configured is skipped.
type SceneLimiter struct {
	scenes *SceneService
}

// NewSceneLimiter creates a new scope-driven rate limiter.
func NewSceneLimiter(scenes *SceneService) *SceneLimiter {
	return &SceneLimiter{scenes: scenes}
}

// Allow checks the client against every scope in order and stops at the
// first one over its limit. The LimitExceeded value is nil when allowed.
func (l *SceneLimiter) Allow(ctx context.Context, clientKey string, scopes []Scope) (bool, *LimitExceeded, error) {
	for _, scope := range scopes {
		cfg, over, err := l.scenes.evaluate(ctx, string(scope), l.buildKey(clientKey, scope), false)
		if errors.Is(err, ErrSceneNotFound) {
			continue
		}

		if err != nil {
			return false, nil, err
		}

		if over {
			return false, &LimitExceeded{
				Scope:  scope,
				Config: cfg,
			}, nil
		}
	}

	return true, nil, nil
}

// buildKey keeps each scope's window separate for the same client.
func (l *SceneLimiter) buildKey(clientKey string, scope Scope) string {
	return fmt.Sprintf("client:%s:%s", scope, clientKey)
}
