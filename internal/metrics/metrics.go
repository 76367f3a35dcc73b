package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "printwatch_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "printwatch_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint", "status"},
	)

	// Readings consumer metrics
	ReadingsConsumedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "printwatch_readings_consumed_total",
			Help: "Total number of readings consumed from the readings topic",
		},
		[]string{"status"}, // status: accepted, malformed, dropped
	)

	// Evaluation metrics
	EvaluationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "printwatch_evaluations_total",
			Help: "Total number of reading evaluations by outcome",
		},
		[]string{"outcome"}, // outcome: in_bounds, out_of_bounds, triggered, unknown_device, invalid_id, error
	)

	EventsTriggeredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "printwatch_events_triggered_total",
			Help: "Total number of anomaly events triggered",
		},
	)

	EvaluationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "printwatch_evaluation_duration_seconds",
			Help:    "End-to-end time for one reading evaluation",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
	)

	// Profile store metrics
	StoreOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "printwatch_store_op_duration_seconds",
			Help:    "Profile store operation latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"op"}, // op: get, update, save, scan
	)

	StoreErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "printwatch_store_errors_total",
			Help: "Total number of profile store failures",
		},
		[]string{"op"},
	)

	// Notifier metrics
	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "printwatch_notifications_total",
			Help: "Total number of anomaly notifications published",
		},
		[]string{"status"}, // status: success, failed
	)

	NotifyDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "printwatch_notify_duration_seconds",
			Help:    "Time taken to publish an anomaly notification",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
	)

	NotifyRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "printwatch_notify_retries_total",
			Help: "Total number of notification publish retries",
		},
	)

	// Worker metrics
	WorkerQueueSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "printwatch_worker_queue_size",
			Help: "Current size of the reading queue",
		},
	)

	WorkerQueueCapacity = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "printwatch_worker_queue_capacity",
			Help: "Capacity of the reading queue",
		},
	)

	WorkerProcessedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "printwatch_worker_processed_total",
			Help: "Total number of readings processed by workers",
		},
	)

	WorkerFailedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "printwatch_worker_failed_total",
			Help: "Total number of readings failed in workers",
		},
	)

	// Panic recovery
	PanicsRecovered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "printwatch_panics_recovered_total",
			Help: "Total number of panics recovered",
		},
		[]string{"component"},
	)
)
