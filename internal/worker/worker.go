package worker

import (
	"context"
	"errors"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"printwatch/internal/evaluator"
	"printwatch/internal/logger"
	"printwatch/internal/metrics"
	"printwatch/internal/models"
)

// Evaluator is the slice of the threshold evaluator the pool drives.
type Evaluator interface {
	Evaluate(ctx context.Context, deviceID string, value float64) (evaluator.Result, error)
}

// Pool manages workers that drain the reading channel and evaluate each
// reading. Per-device ordering is the evaluator's job; the pool only provides
// parallelism across devices.
type Pool struct {
	evaluator   Evaluator
	readingChan chan models.Reading
	workers     int
	evalTimeout time.Duration

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc

	// Metrics
	processed atomic.Uint64
	failed    atomic.Uint64
}

// Config holds worker pool configuration
type Config struct {
	Evaluator   Evaluator
	ReadingChan chan models.Reading
	Workers     int
	EvalTimeout time.Duration
}

// NewPool creates a new worker pool
func NewPool(cfg Config) *Pool {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.EvalTimeout <= 0 {
		cfg.EvalTimeout = 10 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Pool{
		evaluator:   cfg.Evaluator,
		readingChan: cfg.ReadingChan,
		workers:     cfg.Workers,
		evalTimeout: cfg.EvalTimeout,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start begins processing readings
func (p *Pool) Start() {
	log := logger.WithComponent("worker_pool")
	log.Info().
		Int("workers", p.workers).
		Dur("eval_timeout", p.evalTimeout).
		Msg("starting worker pool")

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop drains the channel and stops all workers.
func (p *Pool) Stop() {
	log := logger.WithComponent("worker_pool")
	log.Info().Msg("stopping worker pool")
	p.cancel()
	p.wg.Wait()
	log.Info().Msg("worker pool stopped")
}

// worker evaluates readings from the channel
func (p *Pool) worker(id int) {
	defer p.wg.Done()

	log := logger.WithComponent("worker").With().Int("worker_id", id).Logger()

	// Panic recovery
	defer func() {
		if r := recover(); r != nil {
			stack := debug.Stack()
			log.Error().
				Interface("panic", r).
				Bytes("stack", stack).
				Msg("worker panic recovered")
			metrics.PanicsRecovered.WithLabelValues("worker").Inc()
		}
	}()

	log.Info().Msg("worker started")
	defer log.Info().Msg("worker stopped")

	for {
		select {
		case <-p.ctx.Done():
			return

		case reading, ok := <-p.readingChan:
			if !ok {
				return
			}
			p.evaluate(log, reading)
		}
	}
}

// evaluate runs one reading through the evaluator with a deadline.
func (p *Pool) evaluate(log zerolog.Logger, reading models.Reading) {
	ctx, cancel := context.WithTimeout(p.ctx, p.evalTimeout)
	defer cancel()

	result, err := p.evaluator.Evaluate(ctx, reading.DeviceID, reading.Value)
	metrics.WorkerQueueSize.Set(float64(len(p.readingChan)))

	switch {
	case err == nil:
		p.processed.Add(1)
		metrics.WorkerProcessedTotal.Inc()
		if result.Triggered {
			log.Info().
				Str("device_id", result.DeviceID).
				Int("events", result.EventCount).
				Msg("anomaly event triggered")
		}

	case errors.Is(err, evaluator.ErrUnknownDevice):
		// Policy: readings for unprovisioned devices are a successful no-op.
		p.processed.Add(1)
		metrics.WorkerProcessedTotal.Inc()
		log.Warn().
			Str("device_id", reading.DeviceID).
			Msg("reading for unknown device dropped")

	default:
		p.failed.Add(1)
		metrics.WorkerFailedTotal.Inc()
		log.Error().
			Err(err).
			Str("device_id", reading.DeviceID).
			Float64("value", reading.Value).
			Msg("evaluation failed")
	}
}

// Stats returns worker pool statistics
func (p *Pool) Stats() Stats {
	return Stats{
		Processed: p.processed.Load(),
		Failed:    p.failed.Load(),
	}
}

// Stats holds worker pool metrics
type Stats struct {
	Processed uint64
	Failed    uint64
}
