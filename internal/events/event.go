package events

import "time"

// TopicWindowExceeded carries a WindowExceededEvent per over-limit decision.
const TopicWindowExceeded = "window.exceeded"

// WindowExceededEvent is emitted when a key goes over its scene's limit.
type WindowExceededEvent struct {
	Scene      string    `json:"scene"`
	Key        string    `json:"key"`
	Window     int64     `json:"window"`
	Threshold  int64     `json:"threshold"`
	Cleanup    bool      `json:"cleanup"`
	OccurredAt time.Time `json:"occurredAt"`
}
