package store

import (
	"context"
	"sync"

	"printwatch/internal/models"
)

// MemoryStore is an in-process ProfileStore used for tests and local runs
// without Redis. Safe for concurrent use.
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[string]models.DeviceProfile
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles: make(map[string]models.DeviceProfile),
	}
}

func (s *MemoryStore) Profile(ctx context.Context, deviceID string) (models.DeviceProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[deviceID]
	if !ok {
		return models.DeviceProfile{}, ErrNotFound
	}
	return p, nil
}

func (s *MemoryStore) UpdateCounters(ctx context.Context, deviceID string, outOfBounds, events int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[deviceID]
	if !ok {
		// Mirrors the field-level hash write: an update against a missing
		// record creates a partial record in Redis, but the evaluator never
		// updates a device it could not fetch, so treat this as a bug.
		return ErrNotFound
	}

	p.OutOfBoundsCount = outOfBounds
	p.EventCount = events
	s.profiles[deviceID] = p
	return nil
}

func (s *MemoryStore) SaveProfile(ctx context.Context, p models.DeviceProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.profiles[p.DeviceID] = p
	return nil
}

func (s *MemoryStore) Profiles(ctx context.Context) ([]models.DeviceProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.DeviceProfile, 0, len(s.profiles))
	for _, p := range s.profiles {
		out = append(out, p)
	}
	return out, nil
}

func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }
