package events

import (
	"context"

	"github.com/serroba/sliding-window/internal/messaging"
	"github.com/serroba/sliding-window/internal/ratelimit"
)

// Notifier publishes over-limit decisions as WindowExceededEvent.
type Notifier struct {
	publish messaging.Publish[WindowExceededEvent]
}

// NewNotifier creates a ratelimit.ExceededNotifier backed by publish.
func NewNotifier(publish messaging.Publish[WindowExceededEvent]) *Notifier {
	return &Notifier{publish: publish}
}

func (n *Notifier) NotifyExceeded(ctx context.Context, exceeded ratelimit.Exceeded) error {
	return n.publish(ctx, &WindowExceededEvent{
		Scene:      exceeded.Scene,
		Key:        exceeded.Key,
		Window:     exceeded.Window,
		Threshold:  exceeded.Threshold,
		Cleanup:    exceeded.Cleanup,
		OccurredAt: exceeded.OccurredAt,
	})
}

var _ ratelimit.ExceededNotifier = (*Notifier)(nil)
