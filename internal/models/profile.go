package models

import (
	"errors"
)

// Thresholds defines the inclusive acceptable range for a device's sensor.
// A value v is in bounds iff Lower <= v <= Upper.
type Thresholds struct {
	Lower float64 `json:"Lower"`
	Upper float64 `json:"Upper"`
}

// DeviceProfile is the durable per-device record. Thresholds and Window are
// written at provisioning time; the evaluator only ever updates the two
// counters.
type DeviceProfile struct {
	// Canonical device identifier, used as the storage key
	DeviceID string `json:"PrinterId"`

	// Inclusive acceptable range for readings
	Thresholds Thresholds `json:"Thresholds"`

	// Consecutive out-of-bounds readings required to trigger an event
	Window int `json:"Window"`

	// Current consecutive-breach streak; always in [0, Window)
	// after a completed evaluation
	OutOfBoundsCount int `json:"OutOfBoundsCount"`

	// Total anomaly events triggered for this device; never decreases
	EventCount int `json:"EventCount"`
}

// Validation errors
var (
	ErrInvalidWindow     = errors.New("window must be at least 1")
	ErrInvalidThresholds = errors.New("lower threshold exceeds upper threshold")
	ErrNegativeCounter   = errors.New("counters cannot be negative")
)

// Validate checks the profile invariants that provisioning must uphold.
func (p *DeviceProfile) Validate() error {
	if _, err := NormalizeDeviceID(p.DeviceID); err != nil {
		return err
	}

	if p.Window < 1 {
		return ErrInvalidWindow
	}

	if p.Thresholds.Lower > p.Thresholds.Upper {
		return ErrInvalidThresholds
	}

	if p.OutOfBoundsCount < 0 || p.EventCount < 0 {
		return ErrNegativeCounter
	}

	return nil
}

// InBounds reports whether a reading value falls inside the inclusive range.
func (p *DeviceProfile) InBounds(value float64) bool {
	return value >= p.Thresholds.Lower && value <= p.Thresholds.Upper
}
