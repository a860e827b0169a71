package store_test

import (
	"context"
	"testing"

	"github.com/serroba/sliding-window/internal/ratelimit"
	"github.com/serroba/sliding-window/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySceneStore(t *testing.T) {
	ctx := context.Background()

	t.Run("returns seeded scenes", func(t *testing.T) {
		s := store.NewMemorySceneStore(map[string]ratelimit.SceneConfig{
			"login": {Window: 60, Threshold: 5},
		})

		cfg, err := s.Scene(ctx, "login")

		require.NoError(t, err)
		assert.Equal(t, ratelimit.SceneConfig{Window: 60, Threshold: 5}, cfg)
	})

	t.Run("save overwrites existing scene", func(t *testing.T) {
		s := store.NewMemorySceneStore(map[string]ratelimit.SceneConfig{
			"sms": {Window: 300, Threshold: 3},
		})

		err := s.Save(ctx, "sms", ratelimit.SceneConfig{Window: 60, Threshold: 1})
		require.NoError(t, err)

		cfg, _ := s.Scene(ctx, "sms")
		assert.Equal(t, ratelimit.SceneConfig{Window: 60, Threshold: 1}, cfg)
	})

	t.Run("unknown scene returns ErrSceneNotFound", func(t *testing.T) {
		s := store.NewMemorySceneStore(nil)

		cfg, err := s.Scene(ctx, "missing")

		assert.Zero(t, cfg)
		assert.ErrorIs(t, err, ratelimit.ErrSceneNotFound)
	})

	t.Run("does not alias the seed map", func(t *testing.T) {
		seed := map[string]ratelimit.SceneConfig{"login": {Window: 60, Threshold: 5}}
		s := store.NewMemorySceneStore(seed)

		delete(seed, "login")

		_, err := s.Scene(ctx, "login")
		assert.NoError(t, err)
	})
}
