package kafka

import (
	"context"
	"errors"
	"fmt"

	"github.com/segmentio/kafka-go"

	"printwatch/internal/config"
	"printwatch/internal/logger"
	"printwatch/internal/metrics"
	"printwatch/internal/models"
)

// Consumer reads sensor readings from the readings topic and hands them to
// the worker pool. Offsets are committed after the reading is queued, so a
// crash before enqueue redelivers the message (transport-level retry owns
// store failures, per the error policy).
type Consumer struct {
	reader      *kafka.Reader
	readingChan chan<- models.Reading
}

// NewConsumer creates a consumer-group reader on the readings topic.
func NewConsumer(cfg config.KafkaConfig, readingChan chan<- models.Reading) (*Consumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("at least one broker is required")
	}
	if cfg.ReadingsTopic == "" {
		return nil, errors.New("readings topic is required")
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.ReadingsTopic,
		GroupID:  cfg.GroupID,
		MinBytes: 1,
		MaxBytes: 1 << 20, // 1MB
	})

	return &Consumer{
		reader:      reader,
		readingChan: readingChan,
	}, nil
}

// Run consumes until the context is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	log := logger.WithComponent("consumer")
	log.Info().
		Str("topic", c.reader.Config().Topic).
		Str("group_id", c.reader.Config().GroupID).
		Msg("consumer started")

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return fmt.Errorf("fetch message: %w", err)
		}

		reading, err := models.DecodeReading(msg.Value)
		if err != nil {
			// Malformed payloads are logged and skipped; redelivery would
			// never succeed.
			metrics.ReadingsConsumedTotal.WithLabelValues("malformed").Inc()
			log.Error().
				Err(err).
				Int64("offset", msg.Offset).
				Int("partition", msg.Partition).
				Msg("skipping malformed reading")
			if err := c.reader.CommitMessages(ctx, msg); err != nil {
				return fmt.Errorf("commit message: %w", err)
			}
			continue
		}

		select {
		case c.readingChan <- reading:
			metrics.ReadingsConsumedTotal.WithLabelValues("accepted").Inc()
		case <-ctx.Done():
			return nil
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("commit message: %w", err)
		}
	}
}

// Close closes the underlying reader.
func (c *Consumer) Close() error {
	return c.reader.Close()
}
