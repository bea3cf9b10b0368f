package repository

import (
	"context"

	"github.com/oksasatya/mother-community/internal/domain/entity"
)

// RealtimePublisher pushes message change events to subscribers of a topic.
type RealtimePublisher interface {
	Publish(ctx context.Context, topic string, evt entity.MessageEvent) error
}

// Feed opens subscriptions on the push feed.
type Feed interface {
	Subscribe(ctx context.Context, topics ...string) (Subscription, error)
}

// Subscription delivers events until Close is called or the subscribing
// context ends; the Events channel is closed afterwards.
type Subscription interface {
	Events() <-chan entity.MessageEvent
	Close() error
}

// ConversationTopic is the topic shared by both participants of a
// conversation, independent of argument order.
func ConversationTopic(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return "messages:pair:" + a + ":" + b
}

// InboxTopic carries every change to messages addressed to or read by userID.
func InboxTopic(userID string) string {
	return "messages:user:" + userID
}
