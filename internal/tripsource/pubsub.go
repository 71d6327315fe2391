package tripsource

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"
)

// PubSubConfig configures the Pub/Sub source and publisher.
type PubSubConfig struct {
	ProjectID    string
	Subscription string
	Topic        string
	Logger       zerolog.Logger
}

// PubSubSource receives offer envelopes from a Pub/Sub subscription.
type PubSubSource struct {
	client       *pubsub.Client
	subscriber   *pubsub.Subscriber
	subscription string
	logger       zerolog.Logger
}

// NewPubSubSource connects to Pub/Sub.
func NewPubSubSource(ctx context.Context, cfg PubSubConfig) (*PubSubSource, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	subscriber := client.Subscriber(cfg.Subscription)
	// Offers go stale within seconds; keep the in-flight window small.
	subscriber.ReceiveSettings.MaxOutstandingMessages = 50
	subscriber.ReceiveSettings.MaxExtension = time.Minute

	return &PubSubSource{
		client:       client,
		subscriber:   subscriber,
		subscription: cfg.Subscription,
		logger:       cfg.Logger,
	}, nil
}

// Run receives until ctx is cancelled.
func (s *PubSubSource) Run(ctx context.Context, handle Handler) error {
	s.logger.Info().
		Str("subscription", s.subscription).
		Msg("starting pubsub trip source")

	return s.subscriber.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		logger := s.logger.With().Str("message_id", msg.ID).Logger()
		if deliver(ctx, logger, msg.Data, handle) {
			msg.Ack()
			return
		}
		msg.Nack()
	})
}

// Close closes the Pub/Sub client.
func (s *PubSubSource) Close() error {
	return s.client.Close()
}

// deliver decodes and handles one payload and reports whether it is settled.
// Malformed payloads and dropped offers are settled; other failures are not,
// so the broker redelivers them.
func deliver(ctx context.Context, logger zerolog.Logger, data []byte, handle Handler) bool {
	env, err := Decode(data)
	if err != nil {
		logger.Error().Err(err).Msg("discarding malformed offer")
		return true
	}

	logger = logger.With().Str("driver_id", env.DriverID).Str("offer_id", env.Offer.ID).Logger()

	if err := handle(ctx, env); err != nil {
		if IsDropped(err) {
			logger.Warn().Err(err).Msg("offer dropped")
			return true
		}
		logger.Error().Err(err).Msg("offer handling failed")
		return false
	}

	logger.Debug().Msg("offer handled")
	return true
}

// PubSubPublisher publishes envelopes to a Pub/Sub topic.
type PubSubPublisher struct {
	client    *pubsub.Client
	publisher *pubsub.Publisher
}

// NewPubSubPublisher connects to Pub/Sub.
func NewPubSubPublisher(ctx context.Context, cfg PubSubConfig) (*PubSubPublisher, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}
	return &PubSubPublisher{client: client, publisher: client.Publisher(cfg.Topic)}, nil
}

// Publish sends env and waits for the server to accept it.
func (p *PubSubPublisher) Publish(ctx context.Context, env Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode offer: %w", err)
	}

	result := p.publisher.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: map[string]string{"driver_id": env.DriverID, "platform": env.Offer.Platform},
	})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("publish offer: %w", err)
	}
	return nil
}

// Close flushes pending messages and closes the client.
func (p *PubSubPublisher) Close() error {
	p.publisher.Stop()
	return p.client.Close()
}

var (
	_ Source    = (*PubSubSource)(nil)
	_ Publisher = (*PubSubPublisher)(nil)
)
