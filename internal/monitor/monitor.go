package monitor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"printwatch/internal/config"
	"printwatch/internal/evaluator"
	"printwatch/internal/handlers"
	"printwatch/internal/kafka"
	"printwatch/internal/logger"
	"printwatch/internal/metrics"
	"printwatch/internal/middleware"
	"printwatch/internal/models"
	"printwatch/internal/notify"
	"printwatch/internal/store"
	"printwatch/internal/worker"
)

// Monitor is the high-level coordinator wiring the consumer, worker pool,
// evaluator, and HTTP surface together.
type Monitor struct {
	cfg         *config.Config
	profiles    store.ProfileStore
	notifier    *notify.KafkaNotifier
	consumer    *kafka.Consumer
	pool        *worker.Pool
	httpServer  *http.Server
	readingChan chan models.Reading
	wg          sync.WaitGroup
}

// New constructs a Monitor with given config.
func New(cfg *config.Config) *Monitor {
	return &Monitor{
		cfg:         cfg,
		readingChan: make(chan models.Reading, cfg.Worker.QueueSize),
	}
}

// Run starts background goroutines and blocks until context cancelled.
func (m *Monitor) Run(ctx context.Context) error {
	log := logger.WithComponent("monitor")
	log.Info().Msg("monitor starting")

	// Profile store
	profiles, err := store.NewRedisStore(m.cfg.Redis.Addr, m.cfg.Redis.Password, m.cfg.Redis.DB)
	if err != nil {
		return fmt.Errorf("failed to initialize profile store: %w", err)
	}
	m.profiles = profiles
	defer m.profiles.Close()
	log.Info().Str("addr", m.cfg.Redis.Addr).Msg("profile store connected")

	// Notifier
	notifier, err := notify.NewKafkaNotifier(m.cfg.Kafka)
	if err != nil {
		return fmt.Errorf("failed to initialize notifier: %w", err)
	}
	m.notifier = notifier
	defer m.notifier.Close()
	log.Info().
		Strs("brokers", m.cfg.Kafka.Brokers).
		Str("topic", m.cfg.Kafka.AnomalyTopic).
		Msg("notifier initialized")

	// Evaluator and worker pool
	eval := evaluator.New(m.profiles, m.notifier)
	m.pool = worker.NewPool(worker.Config{
		Evaluator:   eval,
		ReadingChan: m.readingChan,
		Workers:     m.cfg.Worker.Workers,
		EvalTimeout: m.cfg.Worker.EvalTimeout,
	})
	m.pool.Start()

	// Readings consumer
	consumer, err := kafka.NewConsumer(m.cfg.Kafka, m.readingChan)
	if err != nil {
		return fmt.Errorf("failed to initialize consumer: %w", err)
	}
	m.consumer = consumer

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		if err := m.consumer.Run(ctx); err != nil {
			log.Error().Err(err).Msg("consumer exited with error")
		}
	}()

	// HTTP server
	m.initHTTPServer(eval)

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		log.Info().Str("addr", m.cfg.HTTP.Addr).Msg("starting HTTP server")
		if err := m.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("HTTP server error")
		}
	}()

	// Stats reporting goroutine
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.reportStats(ctx)
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	return m.shutdown()
}

// initHTTPServer wires the ingest/report surface.
func (m *Monitor) initHTTPServer(eval *evaluator.Evaluator) {
	mux := http.NewServeMux()

	ingestHandler := handlers.NewIngestHandler(handlers.IngestConfig{
		Evaluator:   eval,
		MaxBodySize: m.cfg.HTTP.MaxBodySize,
	})
	mux.Handle("/ingest", middleware.Chain(
		ingestHandler,
		middleware.Recovery,
		middleware.Logging,
	))

	mux.Handle("/report", middleware.Chain(
		handlers.NewReportHandler(m.profiles),
		middleware.Recovery,
		middleware.Logging,
	))

	mux.Handle("/devices", middleware.Chain(
		handlers.NewDevicesHandler(m.profiles),
		middleware.Recovery,
		middleware.Logging,
	))

	// Health check
	mux.HandleFunc("/health", m.healthHandler)

	// Stats endpoint
	mux.HandleFunc("/stats", m.statsHandler)

	// Prometheus metrics endpoint
	mux.Handle("/metrics", promhttp.Handler())

	metrics.WorkerQueueCapacity.Set(float64(cap(m.readingChan)))

	m.httpServer = &http.Server{
		Addr:         m.cfg.HTTP.Addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// shutdown performs graceful shutdown
func (m *Monitor) shutdown() error {
	log := logger.WithComponent("monitor")
	log.Info().Msg("initiating graceful shutdown")

	// 1. Stop accepting new HTTP requests
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	log.Info().Msg("stopping HTTP server")
	if err := m.httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop the consumer so no more readings are enqueued
	log.Info().Msg("closing consumer")
	if err := m.consumer.Close(); err != nil {
		log.Error().Err(err).Msg("consumer close error")
	}

	// 3. Close reading channel to signal no more incoming readings
	close(m.readingChan)

	// 4. Wait for workers to finish (with timeout)
	done := make(chan struct{})
	go func() {
		m.pool.Stop()
		close(done)
	}()

	select {
	case <-done:
		log.Info().Msg("workers stopped gracefully")
	case <-time.After(15 * time.Second):
		log.Warn().Msg("worker shutdown timeout - forcing exit")
	}

	// 5. Wait for all goroutines
	m.wg.Wait()

	log.Info().Msg("monitor stopped gracefully")
	return nil
}

// reportStats periodically logs statistics
func (m *Monitor) reportStats(ctx context.Context) {
	log := logger.WithComponent("monitor")
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			workerStats := m.pool.Stats()
			notifierStats := m.notifier.Stats()

			metrics.WorkerQueueSize.Set(float64(len(m.readingChan)))

			log.Info().
				Uint64("worker_processed", workerStats.Processed).
				Uint64("worker_failed", workerStats.Failed).
				Uint64("notifications_sent", notifierStats.Sent).
				Uint64("notifications_failed", notifierStats.Failed).
				Int("queue_size", len(m.readingChan)).
				Msg("stats")
		}
	}
}

// healthHandler handles health check requests
func (m *Monitor) healthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := m.profiles.Ping(ctx); err != nil {
		http.Error(w, fmt.Sprintf("unhealthy: %v", err), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"healthy","timestamp":"%s"}`, time.Now().Format(time.RFC3339))
}

// statsHandler returns current statistics
func (m *Monitor) statsHandler(w http.ResponseWriter, r *http.Request) {
	workerStats := m.pool.Stats()
	notifierStats := m.notifier.Stats()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{
		"worker": {
			"processed": %d,
			"failed": %d
		},
		"notifier": {
			"sent": %d,
			"failed": %d
		},
		"queue": {
			"buffered": %d,
			"capacity": %d
		}
	}`,
		workerStats.Processed,
		workerStats.Failed,
		notifierStats.Sent,
		notifierStats.Failed,
		len(m.readingChan),
		cap(m.readingChan),
	)
}
