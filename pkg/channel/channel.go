// Package channel wraps publish/subscribe against a durable, topic-routed
// broker. Delivery is at-least-once per durable queue; a handler error
// negatively acknowledges the delivery so the broker redelivers or
// dead-letters it per its policy.
package channel

import "context"

// Handler processes a single delivery. Returning an error Naks the message.
type Handler func(ctx context.Context, topic string, payload []byte) error

// Publisher sends an encoded event to a topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload []byte) error
	Close()
}

// Subscriber registers a handler on a topic under a durable consumer name.
// Subscriptions are long-lived; messages are acknowledged manually after
// the handler returns.
type Subscriber interface {
	Subscribe(topic string, durableName string, handler Handler) error
	Close()
}
