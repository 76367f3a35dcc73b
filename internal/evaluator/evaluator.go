package evaluator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"printwatch/internal/logger"
	"printwatch/internal/metrics"
	"printwatch/internal/models"
	"printwatch/internal/notify"
	"printwatch/internal/store"
)

// ErrUnknownDevice means no profile exists for the reading's device; the
// evaluation is a no-op with zero writes and zero notifications.
var ErrUnknownDevice = errors.New("unknown device")

// Result describes the outcome of one evaluation.
type Result struct {
	DeviceID         string `json:"PrinterId"`
	Triggered        bool   `json:"triggered"`
	OutOfBoundsCount int    `json:"outOfBoundsCount"`
	EventCount       int    `json:"eventCount"`
}

// Evaluator drives the per-reading state machine: fetch profile, compute the
// next counter state, dispatch a notification on trigger, persist. All state
// lives in the profile store; evaluations for the same device are serialized
// by a per-device lock while different devices proceed in parallel.
type Evaluator struct {
	store    store.ProfileStore
	notifier notify.Notifier
	locks    *keyedMutex
}

// New constructs an Evaluator over the given store and notifier.
func New(profiles store.ProfileStore, notifier notify.Notifier) *Evaluator {
	return &Evaluator{
		store:    profiles,
		notifier: notifier,
		locks:    newKeyedMutex(),
	}
}

// Evaluate processes one reading. The raw device identifier is normalized
// first; models.ErrInvalidDeviceID marks a malformed inbound message and
// ErrUnknownDevice an unprovisioned one. Store failures are wrapped and
// surfaced without internal retry; the invoker owns redelivery.
func (e *Evaluator) Evaluate(ctx context.Context, deviceID string, value float64) (Result, error) {
	start := time.Now()
	defer func() {
		metrics.EvaluationDuration.Observe(time.Since(start).Seconds())
	}()

	id, err := models.NormalizeDeviceID(deviceID)
	if err != nil {
		metrics.EvaluationsTotal.WithLabelValues("invalid_id").Inc()
		return Result{}, err
	}

	unlock := e.locks.Lock(id)
	defer unlock()

	profile, err := e.store.Profile(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			metrics.EvaluationsTotal.WithLabelValues("unknown_device").Inc()
			return Result{}, fmt.Errorf("%w: %s", ErrUnknownDevice, id)
		}
		metrics.EvaluationsTotal.WithLabelValues("error").Inc()
		return Result{}, fmt.Errorf("fetch profile: %w", err)
	}

	delta := Apply(profile, value)

	if delta.Triggered {
		// Notification goes out before persistence. A failed dispatch is
		// logged and counted but never blocks the counter update: the
		// recorded event count is the source of truth, delivery is best
		// effort.
		notification := models.AnomalyNotification{
			DeviceID: id,
			Events:   delta.EventCount,
		}
		if err := e.notifier.Notify(ctx, notification); err != nil {
			log := logger.WithComponent("evaluator")
			log.Error().
				Err(err).
				Str("device_id", id).
				Int("events", delta.EventCount).
				Msg("anomaly notification dispatch failed")
		}
	}

	if err := e.store.UpdateCounters(ctx, id, delta.OutOfBoundsCount, delta.EventCount); err != nil {
		metrics.EvaluationsTotal.WithLabelValues("error").Inc()
		return Result{}, fmt.Errorf("persist counters: %w", err)
	}

	switch {
	case delta.Triggered:
		metrics.EvaluationsTotal.WithLabelValues("triggered").Inc()
		metrics.EventsTriggeredTotal.Inc()
	case delta.InBounds:
		metrics.EvaluationsTotal.WithLabelValues("in_bounds").Inc()
	default:
		metrics.EvaluationsTotal.WithLabelValues("out_of_bounds").Inc()
	}

	return Result{
		DeviceID:         id,
		Triggered:        delta.Triggered,
		OutOfBoundsCount: delta.OutOfBoundsCount,
		EventCount:       delta.EventCount,
	}, nil
}
