package store

import (
	"context"
	"sync"

	"github.com/serroba/sliding-window/internal/ratelimit"
)

// MemorySceneStore is an in-memory implementation of ratelimit.SceneProvider.
type MemorySceneStore struct {
	mu     sync.RWMutex
	scenes map[string]ratelimit.SceneConfig
}

// NewMemorySceneStore creates a new in-memory scene store seeded with scenes.
func NewMemorySceneStore(scenes map[string]ratelimit.SceneConfig) *MemorySceneStore {
	m := &MemorySceneStore{
		scenes: make(map[string]ratelimit.SceneConfig, len(scenes)),
	}

	for name, cfg := range scenes {
		m.scenes[name] = cfg
	}

	return m
}

// Save creates or replaces a scene.
func (m *MemorySceneStore) Save(_ context.Context, name string, cfg ratelimit.SceneConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.scenes[name] = cfg

	return nil
}

func (m *MemorySceneStore) Scene(_ context.Context, name string) (ratelimit.SceneConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cfg, ok := m.scenes[name]
	if !ok {
		return ratelimit.SceneConfig{}, ratelimit.ErrSceneNotFound
	}

	return cfg, nil
}
