package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"printwatch/internal/config"
	"printwatch/internal/logger"
	"printwatch/internal/metrics"
	"printwatch/internal/models"
)

// Notifier errors
var (
	ErrNotifierClosed = errors.New("notifier is closed")
)

// Notifier publishes anomaly notifications for downstream consumers.
// Dispatch is best effort: callers log failures but never let them block
// counter persistence.
type Notifier interface {
	Notify(ctx context.Context, n models.AnomalyNotification) error
	Close() error
}

// KafkaNotifier publishes anomaly notifications to a fixed Kafka topic,
// keyed by device so all events for one device land on one partition.
type KafkaNotifier struct {
	writer       *kafka.Writer
	maxRetries   int
	retryBackoff time.Duration
	closed       atomic.Bool

	sent   atomic.Uint64
	failed atomic.Uint64
}

// NewKafkaNotifier creates a notifier for the anomaly topic.
func NewKafkaNotifier(cfg config.KafkaConfig) (*KafkaNotifier, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("at least one broker is required")
	}
	if cfg.AnomalyTopic == "" {
		return nil, errors.New("anomaly topic is required")
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.AnomalyTopic,
		Balancer:     &kafka.Hash{}, // Partition by device
		WriteTimeout: cfg.WriteTimeout,
		RequiredAcks: kafka.RequireOne,
		MaxAttempts:  1, // Retry handled here, with backoff
		Async:        false,
	}

	return &KafkaNotifier{
		writer:       writer,
		maxRetries:   cfg.MaxRetries,
		retryBackoff: cfg.RetryBackoff,
	}, nil
}

// Notify publishes one anomaly notification with bounded retry.
func (n *KafkaNotifier) Notify(ctx context.Context, notification models.AnomalyNotification) error {
	if n.closed.Load() {
		return ErrNotifierClosed
	}

	data, err := json.Marshal(notification)
	if err != nil {
		n.failed.Add(1)
		return fmt.Errorf("failed to serialize notification: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(notification.DeviceID),
		Value: data,
		Time:  time.Now().UTC(),
	}

	start := time.Now()
	err = n.publishWithRetry(ctx, msg)
	metrics.NotifyDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		n.failed.Add(1)
		metrics.NotificationsTotal.WithLabelValues("failed").Inc()
		return err
	}

	n.sent.Add(1)
	metrics.NotificationsTotal.WithLabelValues("success").Inc()
	return nil
}

// publishWithRetry publishes a message with exponential backoff retry.
func (n *KafkaNotifier) publishWithRetry(ctx context.Context, msg kafka.Message) error {
	log := logger.WithComponent("notifier")
	var lastErr error
	backoff := n.retryBackoff

	for attempt := 0; attempt <= n.maxRetries; attempt++ {
		if attempt > 0 {
			log.Warn().
				Int("attempt", attempt).
				Dur("backoff", backoff).
				Msg("retrying notification publish")

			metrics.NotifyRetries.Inc()

			select {
			case <-time.After(backoff):
				backoff *= 2
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		err := n.writer.WriteMessages(ctx, msg)
		if err == nil {
			return nil
		}

		lastErr = err
		log.Warn().
			Err(err).
			Int("attempt", attempt+1).
			Msg("notification publish attempt failed")

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
	}

	return fmt.Errorf("notification failed after %d attempts: %w", n.maxRetries+1, lastErr)
}

// Close closes the underlying writer.
func (n *KafkaNotifier) Close() error {
	if n.closed.Swap(true) {
		return nil // Already closed
	}
	return n.writer.Close()
}

// Stats returns notifier counters.
func (n *KafkaNotifier) Stats() Stats {
	return Stats{
		Sent:   n.sent.Load(),
		Failed: n.failed.Load(),
	}
}

// Stats holds notifier metrics.
type Stats struct {
	Sent   uint64
	Failed uint64
}
