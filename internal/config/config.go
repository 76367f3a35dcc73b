package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds runtime configuration for the monitor.
type Config struct {
	Kafka  KafkaConfig
	Redis  RedisConfig
	HTTP   HTTPConfig
	Worker WorkerConfig
	// Log level: debug, info, warn, error
	LogLevel string
}

// KafkaConfig holds broker and topic settings.
type KafkaConfig struct {
	Brokers []string
	// Topic carrying inbound sensor readings
	ReadingsTopic string
	// Topic anomaly notifications are published to
	AnomalyTopic string
	// Consumer group for the readings topic
	GroupID string
	// Notifier retry settings
	MaxRetries   int
	RetryBackoff time.Duration
	WriteTimeout time.Duration
}

// RedisConfig holds profile store settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// HTTPConfig holds the ingest/report server settings.
type HTTPConfig struct {
	Addr        string
	MaxBodySize int64
}

// WorkerConfig holds evaluation worker pool settings.
type WorkerConfig struct {
	Workers   int
	QueueSize int
	// Per-evaluation deadline covering store and notifier calls
	EvalTimeout time.Duration
}

// Default returns a sensible default config for local dev.
func Default() *Config {
	return &Config{
		Kafka: KafkaConfig{
			Brokers:       []string{"localhost:9092"},
			ReadingsTopic: "anom/detect",
			AnomalyTopic:  "anom/pred",
			GroupID:       "printwatch",
			MaxRetries:    3,
			RetryBackoff:  100 * time.Millisecond,
			WriteTimeout:  5 * time.Second,
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		HTTP: HTTPConfig{
			Addr:        ":8080",
			MaxBodySize: 1 << 20, // 1MB
		},
		Worker: WorkerConfig{
			Workers:     4,
			QueueSize:   1000,
			EvalTimeout: 10 * time.Second,
		},
		LogLevel: "info",
	}
}

// FromEnv returns the default config with environment overrides applied.
func FromEnv() *Config {
	cfg := Default()

	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_READINGS_TOPIC"); v != "" {
		cfg.Kafka.ReadingsTopic = v
	}
	if v := os.Getenv("KAFKA_ANOMALY_TOPIC"); v != "" {
		cfg.Kafka.AnomalyTopic = v
	}
	if v := os.Getenv("KAFKA_GROUP_ID"); v != "" {
		cfg.Kafka.GroupID = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			cfg.Redis.DB = db
		}
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := os.Getenv("WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Worker.Workers = n
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	return cfg
}
