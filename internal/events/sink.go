package events

import (
	"context"

	"github.com/serroba/sliding-window/internal/messaging"
	"go.uber.org/zap"
)

// RegisterConsumers subscribes the event sinks to group.
func RegisterConsumers(group *messaging.ConsumerGroup, logger *zap.Logger) {
	messaging.Subscribe(group, TopicWindowExceeded, NewLogSink(logger).Handle)
}

// LogSink records consumed events in the log.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a new log-backed event sink.
func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Handle has the signature of messaging.Handler.
func (s *LogSink) Handle(_ context.Context, event *WindowExceededEvent) error {
	s.logger.Info("window exceeded",
		zap.String("scene", event.Scene),
		zap.String("key", event.Key),
		zap.Int64("window", event.Window),
		zap.Int64("threshold", event.Threshold),
		zap.Bool("cleanup", event.Cleanup),
		zap.Time("occurredAt", event.OccurredAt),
	)

	return nil
}
