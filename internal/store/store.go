package store

import (
	"context"
	"errors"

	"printwatch/internal/models"
)

// Store errors
var (
	// ErrNotFound means no profile exists for the device identifier.
	ErrNotFound = errors.New("device profile not found")
	// ErrUnavailable wraps transient store failures; the caller owns retry.
	ErrUnavailable = errors.New("profile store unavailable")
)

// ProfileStore is the durable mapping from device identifier to profile.
// UpdateCounters writes only the two counter fields so concurrent writers of
// unrelated fields are never clobbered; callers serialize per device.
type ProfileStore interface {
	// Profile returns the stored profile, or ErrNotFound.
	Profile(ctx context.Context, deviceID string) (models.DeviceProfile, error)

	// UpdateCounters persists the streak and event counters for a device
	// without touching thresholds or window.
	UpdateCounters(ctx context.Context, deviceID string, outOfBounds, events int) error

	// SaveProfile writes a full profile record (provisioning path).
	SaveProfile(ctx context.Context, p models.DeviceProfile) error

	// Profiles returns every stored profile. Diagnostic scan, not on the
	// ingestion hot path.
	Profiles(ctx context.Context) ([]models.DeviceProfile, error)

	// Ping verifies connectivity.
	Ping(ctx context.Context) error

	Close() error
}
