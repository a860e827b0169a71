package handlers_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/serroba/sliding-window/internal/handlers"
	"github.com/serroba/sliding-window/internal/window"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubScenes struct {
	over  bool
	count int64
	err   error

	scene string
	key   string
}

func (s *stubScenes) Evaluate(_ context.Context, scene, key string) (bool, error) {
	s.scene, s.key = scene, key

	return s.over, s.err
}

func (s *stubScenes) EvaluateAndCleanup(ctx context.Context, scene, key string) (bool, error) {
	return s.Evaluate(ctx, scene, key)
}

func (s *stubScenes) Count(_ context.Context, scene, key string) (int64, error) {
	s.scene, s.key = scene, key

	return s.count, s.err
}

func TestSceneHandler(t *testing.T) {
	t.Run("uses the given key", func(t *testing.T) {
		stub := &stubScenes{over: true}
		handler := handlers.NewSceneHandler(stub, zap.NewNop())

		resp, err := handler.Check(context.Background(), &handlers.SceneRequest{Scene: "login", Key: "alice"})

		require.NoError(t, err)
		assert.True(t, resp.Body.OverLimit)
		assert.Equal(t, "login", stub.scene)
		assert.Equal(t, "alice", stub.key)
	})

	t.Run("falls back to the client key", func(t *testing.T) {
		stub := &stubScenes{count: 2}
		handler := handlers.NewSceneHandler(stub, zap.NewNop())
		meta := handlers.RequestMeta{ClientIP: "192.0.2.1", UserAgent: "curl/8.0"}
		ctx := handlers.ContextWithRequestMeta(context.Background(), meta)

		resp, err := handler.Count(ctx, &handlers.SceneRequest{Scene: "sms"})

		require.NoError(t, err)
		assert.Equal(t, meta.ClientKey(), stub.key)
		assert.Equal(t, meta.ClientKey(), resp.Body.Key)
		assert.Equal(t, int64(2), resp.Body.Count)
	})

	t.Run("store failures are unavailable", func(t *testing.T) {
		handler := handlers.NewSceneHandler(&stubScenes{err: window.ErrStoreUnavailable}, zap.NewNop())

		_, err := handler.CheckAndClean(context.Background(), &handlers.SceneRequest{Scene: "login", Key: "a"})

		assert.Equal(t, http.StatusServiceUnavailable, statusOf(t, err))
	})
}

func TestRequestMeta(t *testing.T) {
	t.Run("client key depends on IP and User-Agent", func(t *testing.T) {
		a := handlers.RequestMeta{ClientIP: "192.0.2.1", UserAgent: "curl/8.0"}
		b := handlers.RequestMeta{ClientIP: "192.0.2.1", UserAgent: "wget/1.0"}

		assert.Equal(t, a.ClientKey(), a.ClientKey())
		assert.NotEqual(t, a.ClientKey(), b.ClientKey())
		assert.Len(t, a.ClientKey(), 64)
	})

	t.Run("missing metadata is empty", func(t *testing.T) {
		assert.Equal(t, handlers.RequestMeta{}, handlers.RequestMetaFromContext(context.Background()))
	})
}
