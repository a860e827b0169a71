package messaging_test

import (
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/sliding-window/internal/messaging"
	"github.com/stretchr/testify/assert"
)

func TestNewRedisPublisherConfig(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	t.Cleanup(func() { _ = client.Close() })

	t.Run("caps the listed streams", func(t *testing.T) {
		cfg := messaging.NewRedisPublisherConfig(client, map[string]int64{"window.exceeded": 10_000})

		assert.Equal(t, map[string]int64{"window.exceeded": 10_000}, cfg.Maxlens)
		assert.Equal(t, client, cfg.Client)
	})

	t.Run("ignores non-positive caps", func(t *testing.T) {
		cfg := messaging.NewRedisPublisherConfig(client, map[string]int64{"window.exceeded": 0, "other": -1})

		assert.Empty(t, cfg.Maxlens)
	})
}
