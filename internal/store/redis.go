package store

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"printwatch/internal/metrics"
	"printwatch/internal/models"
)

// Hash field names, matching the stored record shape.
const (
	fieldLower  = "Lower"
	fieldUpper  = "Upper"
	fieldWindow = "Window"
	fieldStreak = "OutOfBoundsCount"
	fieldEvents = "EventCount"

	keyPrefix = "profile:"
)

// RedisStore keeps one hash per device at profile:<DeviceID>. Counter updates
// are field-level HSET writes, so thresholds and window are never rewritten by
// the evaluation path.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(addr, password string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		PoolSize:     100,
		MinIdleConns: 10,
		MaxRetries:   3,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStore{client: client}, nil
}

func profileKey(deviceID string) string {
	return keyPrefix + deviceID
}

// Profile fetches a device profile by normalized identifier.
func (s *RedisStore) Profile(ctx context.Context, deviceID string) (models.DeviceProfile, error) {
	start := time.Now()

	fields, err := s.client.HGetAll(ctx, profileKey(deviceID)).Result()
	metrics.StoreOpDuration.WithLabelValues("get").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.StoreErrorsTotal.WithLabelValues("get").Inc()
		return models.DeviceProfile{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	// HGETALL returns an empty map for a missing key
	if len(fields) == 0 {
		return models.DeviceProfile{}, ErrNotFound
	}

	p, err := profileFromHash(deviceID, fields)
	if err != nil {
		return models.DeviceProfile{}, fmt.Errorf("corrupt profile record for %s: %w", deviceID, err)
	}

	return p, nil
}

// UpdateCounters writes exactly the two counter fields.
func (s *RedisStore) UpdateCounters(ctx context.Context, deviceID string, outOfBounds, events int) error {
	start := time.Now()

	err := s.client.HSet(ctx, profileKey(deviceID),
		fieldStreak, outOfBounds,
		fieldEvents, events,
	).Err()
	metrics.StoreOpDuration.WithLabelValues("update").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.StoreErrorsTotal.WithLabelValues("update").Inc()
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return nil
}

// SaveProfile writes a full profile record.
func (s *RedisStore) SaveProfile(ctx context.Context, p models.DeviceProfile) error {
	start := time.Now()

	err := s.client.HSet(ctx, profileKey(p.DeviceID), hashFromProfile(p)).Err()
	metrics.StoreOpDuration.WithLabelValues("save").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.StoreErrorsTotal.WithLabelValues("save").Inc()
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return nil
}

// Profiles scans every stored profile.
func (s *RedisStore) Profiles(ctx context.Context) ([]models.DeviceProfile, error) {
	start := time.Now()
	defer func() {
		metrics.StoreOpDuration.WithLabelValues("scan").Observe(time.Since(start).Seconds())
	}()

	var profiles []models.DeviceProfile

	iter := s.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		deviceID := strings.TrimPrefix(key, keyPrefix)

		p, err := s.Profile(ctx, deviceID)
		if err != nil {
			// Key deleted between scan and fetch
			if err == ErrNotFound {
				continue
			}
			return nil, err
		}
		profiles = append(profiles, p)
	}
	if err := iter.Err(); err != nil {
		metrics.StoreErrorsTotal.WithLabelValues("scan").Inc()
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return profiles, nil
}

// Ping verifies Redis connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// profileFromHash decodes a Redis hash into a profile.
func profileFromHash(deviceID string, fields map[string]string) (models.DeviceProfile, error) {
	lower, err := strconv.ParseFloat(fields[fieldLower], 64)
	if err != nil {
		return models.DeviceProfile{}, fmt.Errorf("field %s: %v", fieldLower, err)
	}
	upper, err := strconv.ParseFloat(fields[fieldUpper], 64)
	if err != nil {
		return models.DeviceProfile{}, fmt.Errorf("field %s: %v", fieldUpper, err)
	}
	window, err := strconv.Atoi(fields[fieldWindow])
	if err != nil {
		return models.DeviceProfile{}, fmt.Errorf("field %s: %v", fieldWindow, err)
	}
	streak, err := strconv.Atoi(fields[fieldStreak])
	if err != nil {
		return models.DeviceProfile{}, fmt.Errorf("field %s: %v", fieldStreak, err)
	}
	events, err := strconv.Atoi(fields[fieldEvents])
	if err != nil {
		return models.DeviceProfile{}, fmt.Errorf("field %s: %v", fieldEvents, err)
	}

	return models.DeviceProfile{
		DeviceID:         deviceID,
		Thresholds:       models.Thresholds{Lower: lower, Upper: upper},
		Window:           window,
		OutOfBoundsCount: streak,
		EventCount:       events,
	}, nil
}

// hashFromProfile encodes a profile as Redis hash fields.
func hashFromProfile(p models.DeviceProfile) map[string]interface{} {
	return map[string]interface{}{
		fieldLower:  p.Thresholds.Lower,
		fieldUpper:  p.Thresholds.Upper,
		fieldWindow: p.Window,
		fieldStreak: p.OutOfBoundsCount,
		fieldEvents: p.EventCount,
	}
}
