package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	natsgo "github.com/nats-io/nats.go"
	"github.com/sony/gobreaker/v2"
)

// ProducerConfig mirrors the platform's connection-settings style: plain
// fields with sane defaults, loaded from env at the config layer.
type ProducerConfig struct {
	URL              string
	MaxReconnects    int
	ReconnectWait    int // seconds, kept as int to match env parsing helpers
}

// Producer owns a lazy-reconnecting connection and validates payloads
// against their schema before publishing. An invalid payload is a
// non-retriable error; a broker-side failure is wrapped by a circuit
// breaker so repeated outages fail fast instead of hanging every caller.
type Producer struct {
	publisher message.Publisher
	breaker   *gobreaker.CircuitBreaker[any]
	mu        sync.RWMutex
	closed    bool
	logger    watermill.LoggerAdapter
}

func NewProducer(cfg ProducerConfig, logger watermill.LoggerAdapter) (*Producer, error) {
	if logger == nil {
		logger = watermill.NewStdLogger(false, false)
	}

	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.MaxReconnects),
		natsgo.DisconnectErrHandler(func(nc *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("producer disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("producer reconnected", watermill.LogFields{"url": nc.ConnectedUrl()})
		}),
	}

	wmConfig := wmNats.PublisherConfig{
		URL:         cfg.URL,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled:      false,
			AutoProvision: true,
			TrackMsgId:    true,
		},
	}

	pub, err := wmNats.NewPublisher(wmConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill publisher: %w", err)
	}

	settings := gobreaker.Settings{
		Name: "events-producer",
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	}

	return &Producer{
		publisher: pub,
		breaker:   gobreaker.NewCircuitBreaker[any](settings),
		logger:    logger,
	}, nil
}

func (p *Producer) publish(ctx context.Context, topic string, payload []byte) error {
	p.mu.RLock()
	closed := p.closed
	p.mu.RUnlock()
	if closed {
		return fmt.Errorf("events: producer closed")
	}

	_, err := p.breaker.Execute(func() (any, error) {
		msg := message.NewMessage(uuid.NewString(), payload)
		return nil, p.publisher.Publish(topic, msg)
	})
	return err
}

// PublishEngagement validates then publishes an EngagementEvent.
func (p *Producer) PublishEngagement(ctx context.Context, e EngagementEvent) error {
	if err := e.Validate(); err != nil {
		return err
	}
	data, err := e.Marshal()
	if err != nil {
		return err
	}
	return p.publish(ctx, TopicEngagementEvents, data)
}

// PublishPostScore validates then publishes a PostScoreEvent.
func (p *Producer) PublishPostScore(ctx context.Context, e PostScoreEvent) error {
	if err := e.Validate(); err != nil {
		return err
	}
	data, err := e.Marshal()
	if err != nil {
		return err
	}
	return p.publish(ctx, TopicPostScoreEvents, data)
}

func (p *Producer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.publisher.Close()
}
