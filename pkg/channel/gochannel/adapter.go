// Package gochannel adapts watermill's in-process pub/sub to the channel
// interfaces. Used for single-process deployments and as the test transport;
// it keeps the same ack/nack contract as the NATS adapter.
package gochannel

import (
	"context"
	"log"

	"rag-chat-orchestrator/pkg/channel"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type Adapter struct {
	pubSub *gochannel.GoChannel
	cancel context.CancelFunc
	ctx    context.Context
}

func NewAdapter() *Adapter {
	ctx, cancel := context.WithCancel(context.Background())
	return &Adapter{
		pubSub: gochannel.NewGoChannel(gochannel.Config{}, watermill.NewStdLogger(false, false)),
		ctx:    ctx,
		cancel: cancel,
	}
}

func (a *Adapter) Publish(ctx context.Context, topic string, payload []byte) error {
	msg := message.NewMessage(watermill.NewUUID(), payload)
	return a.pubSub.Publish(topic, msg)
}

// Subscribe consumes a topic on a background goroutine. The durable name is
// ignored: the in-process bus has no persistence, every subscriber sees the
// full stream for the lifetime of the process.
func (a *Adapter) Subscribe(topic string, durableName string, handler channel.Handler) error {
	messages, err := a.pubSub.Subscribe(a.ctx, topic)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			if err := handler(a.ctx, topic, msg.Payload); err != nil {
				log.Printf("Handler failed for %s: %v", topic, err)
				msg.Nack()
				continue
			}
			msg.Ack()
		}
	}()

	return nil
}

func (a *Adapter) Close() {
	a.cancel()
	if err := a.pubSub.Close(); err != nil {
		log.Printf("Error closing in-process bus: %v", err)
	}
}
