// Package kafka publishes research lifecycle events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/BlockchainHB/launchfast-sub000/internal/application/research"
	"github.com/BlockchainHB/launchfast-sub000/internal/config"
	"github.com/BlockchainHB/launchfast-sub000/internal/infrastructure/monitoring/logging"
	"github.com/BlockchainHB/launchfast-sub000/pkg/errors"
)

var ErrPublisherClosed = errors.New(errors.ErrCodeInternal, "kafka publisher is closed")

const eventTypeResearchCompleted = "keyword-research.completed"

// writerInterface abstracts kafka.Writer for testing.
type writerInterface interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher delivers research events to Kafka.  Messages are keyed by user ID
// so one user's events stay ordered within a partition.
type Publisher struct {
	writer writerInterface
	logger logging.Logger
	closed atomic.Bool
}

var _ research.EventPublisher = (*Publisher)(nil)

// NewPublisher builds a Publisher from the service Kafka configuration.
func NewPublisher(cfg config.KafkaConfig, log logging.Logger) (*Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.NewValidation("kafka: at least one broker is required")
	}
	if cfg.Topic == "" {
		return nil, errors.NewValidation("kafka: topic is required")
	}
	if log == nil {
		log = logging.NewNopLogger()
	}

	writeTimeout := cfg.WriteTimeout
	if writeTimeout == 0 {
		writeTimeout = 10 * time.Second
	}
	maxAttempts := cfg.ProducerRetries + 1

	requiredAcks := kafka.RequireOne
	switch cfg.RequiredAcks {
	case 0:
		requiredAcks = kafka.RequireNone
	case -1:
		requiredAcks = kafka.RequireAll
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		MaxAttempts:  maxAttempts,
		BatchSize:    cfg.BatchSize,
		WriteTimeout: writeTimeout,
		RequiredAcks: requiredAcks,
	}

	return &Publisher{writer: writer, logger: log.Named("kafka")}, nil
}

// PublishResearchCompleted sends one completion event.  The caller treats
// failures as best-effort, but the error is still returned for logging.
func (p *Publisher) PublishResearchCompleted(ctx context.Context, evt research.ResearchCompletedEvent) error {
	if p.closed.Load() {
		return ErrPublisherClosed
	}

	payload, err := json.Marshal(evt)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode research event")
	}

	msg := kafka.Message{
		Key:   []byte(evt.UserID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(eventTypeResearchCompleted)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return errors.Wrap(err, errors.ErrCodeExternalService, "failed to publish research event")
	}

	p.logger.Debug("published research event",
		logging.String("session_id", evt.SessionID),
		logging.Int("keywords", evt.KeywordCount),
	)
	return nil
}

// Close flushes and shuts down the writer.  Safe to call more than once.
func (p *Publisher) Close() error {
	if p.closed.Swap(true) {
		return nil
	}
	return p.writer.Close()
}
