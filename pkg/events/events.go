package events

import "context"

// Channel names consumed by external delivery collaborators
// (push/email/SMS workers subscribe to these).
const (
	ChannelMessages   = "carelink:events:messages"
	ChannelBroadcasts = "carelink:events:broadcasts"
)

const (
	EventMessageCreated = "message.created"
	EventBroadcastSent  = "broadcast.sent"
)

type Event struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp int64       `json:"timestamp"`
}

type Publisher interface {
	Publish(ctx context.Context, channel string, event Event) error
}

// NopPublisher drops events. Used when no broker is configured and in tests.
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, channel string, event Event) error {
	return nil
}
