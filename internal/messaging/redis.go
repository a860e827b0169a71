package messaging

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewRedisPublisherConfig caps each topic in maxlens at that many entries.
// Topics without a positive cap grow unbounded.
func NewRedisPublisherConfig(client redis.UniversalClient, maxlens map[string]int64) redisstream.PublisherConfig {
	capped := make(map[string]int64, len(maxlens))

	for topic, maxlen := range maxlens {
		if maxlen > 0 {
			capped[topic] = maxlen
		}
	}

	return redisstream.PublisherConfig{
		Client:  client,
		Maxlens: capped,
	}
}

// NewRedisPublisher publishes to Redis Streams, one stream per topic,
// trimming the streams listed in maxlens.
func NewRedisPublisher(
	client redis.UniversalClient, maxlens map[string]int64, logger *zap.Logger,
) (*redisstream.Publisher, error) {
	publisher, err := redisstream.NewPublisher(
		NewRedisPublisherConfig(client, maxlens),
		NewZapLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("create redis stream publisher: %w", err)
	}

	return publisher, nil
}

// NewRedisSubscriber reads Redis Streams as a member of consumerGroup, so
// several consumer processes share the work.
func NewRedisSubscriber(
	client redis.UniversalClient, consumerGroup string, logger *zap.Logger,
) (*redisstream.Subscriber, error) {
	subscriber, err := redisstream.NewSubscriber(
		redisstream.SubscriberConfig{
			Client:        client,
			ConsumerGroup: consumerGroup,
		},
		NewZapLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("create redis stream subscriber: %w", err)
	}

	return subscriber, nil
}
