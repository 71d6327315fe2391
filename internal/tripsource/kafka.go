package tripsource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// KafkaConfig configures the Kafka source and publisher.
type KafkaConfig struct {
	Brokers []string
	Topic   string
	GroupID string
	Logger  zerolog.Logger
}

// KafkaSource consumes offer envelopes with a consumer group.
type KafkaSource struct {
	reader *kafka.Reader
	cfg    KafkaConfig
}

// NewKafkaSource creates a reader; it connects lazily.
func NewKafkaSource(cfg KafkaConfig) *KafkaSource {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  500 * time.Millisecond,
	})
	return &KafkaSource{reader: reader, cfg: cfg}
}

// Run consumes until ctx is cancelled. A message is committed once it is
// settled; unsettled messages are retried in place with backoff.
func (s *KafkaSource) Run(ctx context.Context, handle Handler) error {
	s.cfg.Logger.Info().
		Str("topic", s.cfg.Topic).
		Strs("brokers", s.cfg.Brokers).
		Str("group", s.cfg.GroupID).
		Msg("starting kafka trip source")

	fetchBackoff := backoff.NewExponentialBackOff()
	fetchBackoff.InitialInterval = time.Second
	fetchBackoff.MaxInterval = 30 * time.Second
	fetchBackoff.MaxElapsedTime = 0

	for {
		msg, err := s.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			wait := fetchBackoff.NextBackOff()
			s.cfg.Logger.Warn().Err(err).Dur("backoff", wait).Msg("kafka fetch failed")
			if !sleep(ctx, wait) {
				return nil
			}
			continue
		}
		fetchBackoff.Reset()

		logger := s.cfg.Logger.With().Int("partition", msg.Partition).Int64("offset", msg.Offset).Logger()
		for attempt := 1; !deliver(ctx, logger, msg.Value, handle); attempt++ {
			if attempt >= 3 {
				logger.Error().Msg("giving up on offer after retries")
				break
			}
			if !sleep(ctx, time.Duration(attempt)*time.Second) {
				return nil
			}
		}

		if err := s.reader.CommitMessages(ctx, msg); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn().Err(err).Msg("kafka commit failed")
		}
	}
}

// Close closes the reader.
func (s *KafkaSource) Close() error {
	return s.reader.Close()
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// KafkaPublisher writes envelopes keyed by driver ID. The hash balancer maps
// a key to one partition, so a driver's offers are consumed in publish order.
type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaPublisher creates a writer.
func NewKafkaPublisher(cfg KafkaConfig) *KafkaPublisher {
	return &KafkaPublisher{writer: &kafka.Writer{
		Addr:     kafka.TCP(cfg.Brokers...),
		Topic:    cfg.Topic,
		Balancer: &kafka.Hash{},
	}}
}

func kafkaMessage(env Envelope) (kafka.Message, error) {
	data, err := json.Marshal(env)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("encode offer: %w", err)
	}
	return kafka.Message{Key: []byte(env.DriverID), Value: data}, nil
}

// Publish writes env.
func (p *KafkaPublisher) Publish(ctx context.Context, env Envelope) error {
	msg, err := kafkaMessage(env)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write offer: %w", err)
	}
	return nil
}

// Close flushes and closes the writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

var (
	_ Source    = (*KafkaSource)(nil)
	_ Publisher = (*KafkaPublisher)(nil)
)
