package messaging

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.uber.org/zap"
)

// Runnable is a consumer bound to one topic.
type Runnable interface {
	Topic() string
	Start(ctx context.Context) error
	Shutdown() error
}

// ConsumerGroup runs every consumer of one stream consumer group over a
// shared subscriber, and closes the subscriber when it stops.
type ConsumerGroup struct {
	name       string
	consumers  []Runnable
	subscriber message.Subscriber
	logger     *zap.Logger
}

// NewConsumerGroup creates a consumer group named name.
func NewConsumerGroup(name string, subscriber message.Subscriber, logger *zap.Logger) *ConsumerGroup {
	return &ConsumerGroup{
		name:       name,
		subscriber: subscriber,
		logger:     logger.With(zap.String("consumerGroup", name)),
	}
}

// Subscribe registers handler for topic on the group's subscriber.
func Subscribe[T any](g *ConsumerGroup, topic string, handler Handler[T]) {
	g.Add(NewConsumer(g.subscriber, topic, handler, g.logger))
}

// Add registers a consumer to the group.
func (g *ConsumerGroup) Add(consumer Runnable) {
	g.consumers = append(g.consumers, consumer)
}

// Name returns the stream consumer group name.
func (g *ConsumerGroup) Name() string {
	return g.name
}

// Topics lists the topics consumed by the group, in registration order.
func (g *ConsumerGroup) Topics() []string {
	topics := make([]string, 0, len(g.consumers))
	for _, c := range g.consumers {
		topics = append(topics, c.Topic())
	}

	return topics
}

// Start starts every consumer. If one fails, those already started are
// shut down again.
func (g *ConsumerGroup) Start(ctx context.Context) error {
	if len(g.consumers) == 0 {
		return fmt.Errorf("consumer group %q has no consumers", g.name)
	}

	for i, consumer := range g.consumers {
		if err := consumer.Start(ctx); err != nil {
			for j := i - 1; j >= 0; j-- {
				_ = g.consumers[j].Shutdown()
			}

			return fmt.Errorf("consumer group %q: start %s: %w", g.name, consumer.Topic(), err)
		}
	}

	g.logger.Info("consumer group started", zap.Strings("topics", g.Topics()))

	return nil
}

// Shutdown stops consumers in reverse start order, then closes the
// subscriber. The first error is returned after everything was attempted.
func (g *ConsumerGroup) Shutdown() error {
	g.logger.Info("shutting down consumer group")

	var firstErr error

	for i := len(g.consumers) - 1; i >= 0; i-- {
		if err := g.consumers[i].Shutdown(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("consumer group %q: stop %s: %w", g.name, g.consumers[i].Topic(), err)
		}
	}

	if err := g.subscriber.Close(); err != nil && firstErr == nil {
		firstErr = err
	}

	return firstErr
}
