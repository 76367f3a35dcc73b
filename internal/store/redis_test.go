package store

import (
	"context"
	"errors"
	"testing"

	"printwatch/internal/models"
)

func TestProfileFromHash(t *testing.T) {
	fields := map[string]string{
		"Lower":            "10.5",
		"Upper":            "90",
		"Window":           "3",
		"OutOfBoundsCount": "2",
		"EventCount":       "5",
	}

	p, err := profileFromHash("Sf36", fields)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := models.DeviceProfile{
		DeviceID:         "Sf36",
		Thresholds:       models.Thresholds{Lower: 10.5, Upper: 90},
		Window:           3,
		OutOfBoundsCount: 2,
		EventCount:       5,
	}
	if p != want {
		t.Errorf("profileFromHash = %+v, want %+v", p, want)
	}
}

func TestProfileFromHashCorruptFields(t *testing.T) {
	base := map[string]string{
		"Lower":            "10",
		"Upper":            "90",
		"Window":           "3",
		"OutOfBoundsCount": "0",
		"EventCount":       "0",
	}

	for _, field := range []string{"Lower", "Upper", "Window", "OutOfBoundsCount", "EventCount"} {
		t.Run(field, func(t *testing.T) {
			fields := make(map[string]string, len(base))
			for k, v := range base {
				fields[k] = v
			}
			fields[field] = "not-a-number"

			if _, err := profileFromHash("Sf36", fields); err == nil {
				t.Errorf("expected error for corrupt %s", field)
			}
		})
	}
}

func TestHashFromProfileRoundTrip(t *testing.T) {
	p := models.DeviceProfile{
		DeviceID:         "Sf36",
		Thresholds:       models.Thresholds{Lower: -5, Upper: 120.25},
		Window:           7,
		OutOfBoundsCount: 4,
		EventCount:       12,
	}

	hash := hashFromProfile(p)

	// Encode values the way go-redis stores them
	asStrings := map[string]string{
		"Lower":            "-5",
		"Upper":            "120.25",
		"Window":           "7",
		"OutOfBoundsCount": "4",
		"EventCount":       "12",
	}
	if len(hash) != len(asStrings) {
		t.Fatalf("unexpected field count: %d", len(hash))
	}

	got, err := profileFromHash("Sf36", asStrings)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != p {
		t.Errorf("round trip = %+v, want %+v", got, p)
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if _, err := s.Profile(ctx, "Ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	p := models.DeviceProfile{
		DeviceID:   "Sf36",
		Thresholds: models.Thresholds{Lower: 10, Upper: 90},
		Window:     3,
	}
	if err := s.SaveProfile(ctx, p); err != nil {
		t.Fatalf("SaveProfile: %v", err)
	}

	if err := s.UpdateCounters(ctx, "Sf36", 2, 1); err != nil {
		t.Fatalf("UpdateCounters: %v", err)
	}

	got, err := s.Profile(ctx, "Sf36")
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if got.OutOfBoundsCount != 2 || got.EventCount != 1 {
		t.Errorf("counters not updated: %+v", got)
	}
	if got.Thresholds != p.Thresholds || got.Window != p.Window {
		t.Errorf("counter update touched read-only fields: %+v", got)
	}

	if err := s.UpdateCounters(ctx, "Ghost", 1, 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound updating missing device, got %v", err)
	}
}
