package nats

import (
	"context"
	"fmt"
	"log"
	"time"

	"rag-chat-orchestrator/pkg/channel"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// Subscriber handles listening for events from NATS.
type Subscriber struct {
	nc          *nats.Conn
	js          jetstream.JetStream
	maxInFlight int
	consumers   []jetstream.ConsumeContext
}

// NewSubscriber creates a new NATS subscriber. maxInFlight bounds the number
// of unacknowledged deliveries per durable consumer, which is the worker's
// prefetch limit.
func NewSubscriber(url string, maxInFlight int) (*Subscriber, error) {
	nc, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(5),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	return &Subscriber{nc: nc, js: js, maxInFlight: maxInFlight}, nil
}

// Subscribe registers a handler for a subject under a durable consumer so no
// messages are lost across restarts. Handler errors Nak the delivery.
func (s *Subscriber) Subscribe(topic string, durableName string, handler channel.Handler) error {
	ctx := context.Background()

	consumer, err := s.js.CreateOrUpdateConsumer(ctx, StreamName, jetstream.ConsumerConfig{
		Durable:       durableName,
		FilterSubject: topic,
		AckPolicy:     jetstream.AckExplicitPolicy,
		MaxAckPending: s.maxInFlight,
	})
	if err != nil {
		return fmt.Errorf("failed to create consumer: %w", err)
	}

	cc, err := consumer.Consume(func(msg jetstream.Msg) {
		if err := handler(context.Background(), msg.Subject(), msg.Data()); err != nil {
			log.Printf("Handler failed for %s: %v", msg.Subject(), err)
			msg.Nak() // Retry
			return
		}
		msg.Ack()
	})
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	s.consumers = append(s.consumers, cc)
	log.Printf("Subscribed to %s with durable %s", topic, durableName)
	return nil
}

// Close stops all consumers and closes the connection.
func (s *Subscriber) Close() {
	for _, cc := range s.consumers {
		cc.Stop()
	}
	if s.nc != nil {
		s.nc.Close()
	}
}
