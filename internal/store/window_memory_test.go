package store_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/serroba/sliding-window/internal/store"
	"github.com/serroba/sliding-window/internal/window"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func request(key string, now, member int64, mode window.Mode) window.Request {
	return window.Request{
		Key:           key,
		Now:           now,
		WindowLength:  1000,
		ExpireSeconds: 1,
		Threshold:     2,
		Member:        member,
		Mode:          mode,
	}
}

func TestMemoryWindowStore(t *testing.T) {
	ctx := context.Background()

	t.Run("records and counts entries", func(t *testing.T) {
		s := store.NewMemoryWindowStore()

		for i := int64(1); i <= 3; i++ {
			res, err := s.Apply(ctx, request("key1", 10_000, i, window.ModeEvaluate))
			require.NoError(t, err)
			assert.Equal(t, i, res.Count)
			assert.Equal(t, i > 2, res.Exceeded)
		}

		assert.Equal(t, int64(3), s.Len("key1"))
	})

	t.Run("tracks keys independently", func(t *testing.T) {
		s := store.NewMemoryWindowStore()

		_, _ = s.Apply(ctx, request("key1", 10_000, 1, window.ModeEvaluate))
		_, _ = s.Apply(ctx, request("key1", 10_000, 2, window.ModeEvaluate))

		res, err := s.Apply(ctx, request("key2", 10_000, 3, window.ModeEvaluate))

		require.NoError(t, err)
		assert.Equal(t, int64(1), res.Count, "key2 should have its own window")
	})

	t.Run("purges entries at or below the floor", func(t *testing.T) {
		s := store.NewMemoryWindowStore()

		_, _ = s.Apply(ctx, request("key1", 10_000, 1, window.ModeCount))
		_, _ = s.Apply(ctx, request("key1", 10_001, 2, window.ModeCount))

		// Floor is 10_000: the first entry leaves, the second stays.
		res, err := s.Apply(ctx, request("key1", 11_000, 3, window.ModeCount))

		require.NoError(t, err)
		assert.Equal(t, int64(2), res.Count)
	})

	t.Run("drops the whole key once it expires", func(t *testing.T) {
		s := store.NewMemoryWindowStore()

		req := request("key1", 10_000, 1, window.ModeCount)
		req.WindowLength = 60_000
		_, _ = s.Apply(ctx, req)

		// Still inside the window, but past the one second TTL.
		req.Now = 11_000
		req.Member = 2
		res, err := s.Apply(ctx, req)

		require.NoError(t, err)
		assert.Equal(t, int64(1), res.Count)
	})

	t.Run("evicts expired keys that are never touched again", func(t *testing.T) {
		s := store.NewMemoryWindowStore()

		for i := range 1000 {
			_, err := s.Apply(ctx, request(fmt.Sprintf("k%d", i), 10_000, int64(i), window.ModeCount))
			require.NoError(t, err)
		}

		require.Equal(t, 1000, s.Size())

		_, err := s.Apply(ctx, request("other", 10_000+3_600_000, 1, window.ModeCount))
		require.NoError(t, err)

		assert.Equal(t, 1, s.Size())
		assert.Zero(t, s.Len("k0"))
		assert.Equal(t, int64(1), s.Len("other"))
	})

	t.Run("keeps live keys while sweeping", func(t *testing.T) {
		s := store.NewMemoryWindowStore()

		_, _ = s.Apply(ctx, request("short", 10_000, 1, window.ModeCount))

		long := request("long", 10_000, 2, window.ModeCount)
		long.ExpireSeconds = 60
		_, _ = s.Apply(ctx, long)

		_, err := s.Apply(ctx, request("other", 12_000, 3, window.ModeCount))
		require.NoError(t, err)

		assert.Equal(t, 2, s.Size())
		assert.Zero(t, s.Len("short"))
		assert.Equal(t, int64(1), s.Len("long"))
	})

	t.Run("count mode never reports exceeded", func(t *testing.T) {
		s := store.NewMemoryWindowStore()

		var res window.Result
		for i := int64(1); i <= 5; i++ {
			res, _ = s.Apply(ctx, request("key1", 10_000, i, window.ModeCount))
		}

		assert.Equal(t, int64(5), res.Count)
		assert.False(t, res.Exceeded)
	})

	t.Run("cleanup deletes the key only when over", func(t *testing.T) {
		s := store.NewMemoryWindowStore()

		_, _ = s.Apply(ctx, request("key1", 10_000, 1, window.ModeEvaluateAndCleanup))
		_, _ = s.Apply(ctx, request("key1", 10_000, 2, window.ModeEvaluateAndCleanup))
		assert.Equal(t, int64(2), s.Len("key1"))

		res, err := s.Apply(ctx, request("key1", 10_000, 3, window.ModeEvaluateAndCleanup))

		require.NoError(t, err)
		assert.True(t, res.Exceeded)
		assert.Equal(t, int64(3), res.Count)
		assert.Zero(t, s.Len("key1"))
	})

	t.Run("returns context errors", func(t *testing.T) {
		s := store.NewMemoryWindowStore()

		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := s.Apply(cancelled, request("key1", 10_000, 1, window.ModeEvaluate))

		require.ErrorIs(t, err, context.Canceled)
		assert.Zero(t, s.Len("key1"))
	})
}
