package events

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"
)

type SubscriberConfig struct {
	URL           string
	QueueGroup    string // consumer group name, e.g. ConsumerGroupEngagementStats
	DurableName   string
	MaxDeliver    int
	MaxAckPending int
}

// Subscriber wraps a durable JetStream subscription scoped to one consumer
// group, giving every process in that group at-least-once, load-balanced
// delivery.
type Subscriber struct {
	sub    message.Subscriber
	logger watermill.LoggerAdapter
}

func NewSubscriber(cfg SubscriberConfig, logger watermill.LoggerAdapter) (*Subscriber, error) {
	if logger == nil {
		logger = watermill.NewStdLogger(false, false)
	}

	subOpts := []natsgo.SubOpt{
		natsgo.MaxDeliver(cfg.MaxDeliver),
		natsgo.MaxAckPending(cfg.MaxAckPending),
		natsgo.DeliverNew(),
	}

	wmConfig := wmNats.SubscriberConfig{
		URL:              cfg.URL,
		QueueGroupPrefix: cfg.QueueGroup,
		NatsOptions:      []natsgo.Option{natsgo.RetryOnFailedConnect(true)},
		Unmarshaler:      &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled:         false,
			AutoProvision:    true,
			AckAsync:         false,
			SubscribeOptions: subOpts,
			DurablePrefix:    cfg.DurableName,
		},
	}

	sub, err := wmNats.NewSubscriber(wmConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill subscriber: %w", err)
	}
	return &Subscriber{sub: sub, logger: logger}, nil
}

// Run subscribes to topic and invokes handle for every message until ctx is
// canceled. A handler error nacks the message and is logged, but never
// stops processing of the next message: failures on one unit must not
// prevent its siblings from being processed.
func (s *Subscriber) Run(ctx context.Context, topic string, handle func(ctx context.Context, payload []byte) error) error {
	messages, err := s.sub.Subscribe(ctx, topic)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", topic, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			if err := handle(ctx, msg.Payload); err != nil {
				s.logger.Error("message processing failed", err, watermill.LogFields{
					"message_uuid": msg.UUID,
					"topic":        topic,
				})
				msg.Nack()
				continue
			}
			msg.Ack()
		}
	}
}

func (s *Subscriber) Close() error {
	return s.sub.Close()
}
