package evaluator

import (
	"printwatch/internal/models"
)

// Delta is the counter state produced by evaluating one reading against a
// profile. The input profile is never mutated; the caller persists exactly
// these two counters.
type Delta struct {
	OutOfBoundsCount int
	EventCount       int
	// Triggered is set when the streak reached the window on this reading
	Triggered bool
	// InBounds records whether the reading fell inside the thresholds
	InBounds bool
}

// Apply computes the next counter state for one reading. Boundary values are
// in bounds (inclusive range). An out-of-bounds reading extends the streak;
// when the streak reaches the window the event counter increments by one and
// the streak resets to zero, so the streak returned is always in [0, window).
func Apply(p models.DeviceProfile, value float64) Delta {
	d := Delta{
		EventCount: p.EventCount,
		InBounds:   p.InBounds(value),
	}

	if d.InBounds {
		d.OutOfBoundsCount = 0
		return d
	}

	d.OutOfBoundsCount = p.OutOfBoundsCount + 1

	if d.OutOfBoundsCount >= p.Window {
		d.EventCount = p.EventCount + 1
		d.OutOfBoundsCount = 0
		d.Triggered = true
	}

	return d
}
