package evaluator_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"printwatch/internal/evaluator"
	"printwatch/internal/logger"
	"printwatch/internal/models"
	"printwatch/internal/notify"
	"printwatch/internal/store"
)

func TestMain(m *testing.M) {
	logger.Logger = zerolog.Nop()
	os.Exit(m.Run())
}

// fakeNotifier records notifications and can be made to fail.
type fakeNotifier struct {
	mu         sync.Mutex
	sent       []models.AnomalyNotification
	shouldFail bool
}

func (f *fakeNotifier) Notify(ctx context.Context, n models.AnomalyNotification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.shouldFail {
		return errors.New("broker unreachable")
	}
	f.sent = append(f.sent, n)
	return nil
}

func (f *fakeNotifier) Close() error { return nil }

func (f *fakeNotifier) notifications() []models.AnomalyNotification {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.AnomalyNotification, len(f.sent))
	copy(out, f.sent)
	return out
}

// failingStore wraps a MemoryStore and fails selected operations.
type failingStore struct {
	*store.MemoryStore
	failFetch  bool
	failUpdate bool
	updates    int
}

func (f *failingStore) Profile(ctx context.Context, id string) (models.DeviceProfile, error) {
	if f.failFetch {
		return models.DeviceProfile{}, store.ErrUnavailable
	}
	return f.MemoryStore.Profile(ctx, id)
}

func (f *failingStore) UpdateCounters(ctx context.Context, id string, oob, events int) error {
	if f.failUpdate {
		return store.ErrUnavailable
	}
	f.updates++
	return f.MemoryStore.UpdateCounters(ctx, id, oob, events)
}

func seedStore(t *testing.T, streak, events int) *store.MemoryStore {
	t.Helper()
	s := store.NewMemoryStore()
	err := s.SaveProfile(context.Background(), models.DeviceProfile{
		DeviceID:         "Sf36",
		Thresholds:       models.Thresholds{Lower: 10, Upper: 90},
		Window:           3,
		OutOfBoundsCount: streak,
		EventCount:       events,
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return s
}

func TestEvaluateTriggeringUpdate(t *testing.T) {
	ctx := context.Background()
	s := seedStore(t, 2, 5)
	n := &fakeNotifier{}
	e := evaluator.New(s, n)

	// Streak at 2 of window 3; one more breach must trigger.
	res, err := e.Evaluate(ctx, "sf36", 5.0)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	want := evaluator.Result{DeviceID: "Sf36", Triggered: true, OutOfBoundsCount: 0, EventCount: 6}
	if res != want {
		t.Errorf("Result = %+v, want %+v", res, want)
	}

	sent := n.notifications()
	if len(sent) != 1 {
		t.Fatalf("notifications sent = %d, want 1", len(sent))
	}
	if sent[0] != (models.AnomalyNotification{DeviceID: "Sf36", Events: 6}) {
		t.Errorf("notification = %+v", sent[0])
	}

	p, err := s.Profile(ctx, "Sf36")
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if p.OutOfBoundsCount != 0 || p.EventCount != 6 {
		t.Errorf("persisted counters = {%d %d}, want {0 6}", p.OutOfBoundsCount, p.EventCount)
	}
}

func TestEvaluateInBoundsResetsStreak(t *testing.T) {
	ctx := context.Background()
	s := seedStore(t, 2, 5)
	n := &fakeNotifier{}
	e := evaluator.New(s, n)

	res, err := e.Evaluate(ctx, "sf36", 50.0)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	want := evaluator.Result{DeviceID: "Sf36", Triggered: false, OutOfBoundsCount: 0, EventCount: 5}
	if res != want {
		t.Errorf("Result = %+v, want %+v", res, want)
	}
	if len(n.notifications()) != 0 {
		t.Errorf("unexpected notifications: %v", n.notifications())
	}
}

func TestEvaluateBoundaryValueInBounds(t *testing.T) {
	ctx := context.Background()
	s := seedStore(t, 2, 5)
	e := evaluator.New(s, &fakeNotifier{})

	// Exactly the upper threshold: no breach.
	res, err := e.Evaluate(ctx, "sf36", 90.0)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if res.OutOfBoundsCount != 0 || res.Triggered {
		t.Errorf("boundary value treated as breach: %+v", res)
	}
}

func TestEvaluateUnknownDevice(t *testing.T) {
	ctx := context.Background()
	base := seedStore(t, 0, 0)
	s := &failingStore{MemoryStore: base}
	n := &fakeNotifier{}
	e := evaluator.New(s, n)

	_, err := e.Evaluate(ctx, "ghost-id", 42.0)
	if !errors.Is(err, evaluator.ErrUnknownDevice) {
		t.Fatalf("error = %v, want ErrUnknownDevice", err)
	}
	if s.updates != 0 {
		t.Errorf("store written %d times for unknown device, want 0", s.updates)
	}
	if len(n.notifications()) != 0 {
		t.Errorf("notifications sent for unknown device: %v", n.notifications())
	}
}

func TestEvaluateInvalidIdentifier(t *testing.T) {
	e := evaluator.New(store.NewMemoryStore(), &fakeNotifier{})

	for _, id := range []string{"", "   "} {
		if _, err := e.Evaluate(context.Background(), id, 1.0); !errors.Is(err, models.ErrInvalidDeviceID) {
			t.Errorf("Evaluate(%q) error = %v, want ErrInvalidDeviceID", id, err)
		}
	}
}

func TestEvaluateStoreUnavailable(t *testing.T) {
	ctx := context.Background()

	t.Run("fetch fails", func(t *testing.T) {
		s := &failingStore{MemoryStore: seedStore(t, 0, 0), failFetch: true}
		e := evaluator.New(s, &fakeNotifier{})

		if _, err := e.Evaluate(ctx, "sf36", 5.0); !errors.Is(err, store.ErrUnavailable) {
			t.Errorf("error = %v, want ErrUnavailable", err)
		}
	})

	t.Run("update fails", func(t *testing.T) {
		s := &failingStore{MemoryStore: seedStore(t, 0, 0), failUpdate: true}
		e := evaluator.New(s, &fakeNotifier{})

		if _, err := e.Evaluate(ctx, "sf36", 5.0); !errors.Is(err, store.ErrUnavailable) {
			t.Errorf("error = %v, want ErrUnavailable", err)
		}
	})
}

func TestEvaluateNotificationFailureStillPersists(t *testing.T) {
	ctx := context.Background()
	s := seedStore(t, 2, 5)
	n := &fakeNotifier{shouldFail: true}
	e := evaluator.New(s, n)

	res, err := e.Evaluate(ctx, "sf36", 5.0)
	if err != nil {
		t.Fatalf("Evaluate must not fail on notification failure: %v", err)
	}
	if !res.Triggered || res.EventCount != 6 {
		t.Errorf("unexpected result: %+v", res)
	}

	// Counters are durable even though delivery failed.
	p, err := s.Profile(ctx, "Sf36")
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if p.OutOfBoundsCount != 0 || p.EventCount != 6 {
		t.Errorf("persisted counters = {%d %d}, want {0 6}", p.OutOfBoundsCount, p.EventCount)
	}
}

func TestEvaluateStreakInvariantAcrossSequence(t *testing.T) {
	ctx := context.Background()
	s := seedStore(t, 0, 0)
	e := evaluator.New(s, &fakeNotifier{})

	values := []float64{200, 200, 50, 5, 5, 5, 5, 5, 5, 90, 10, 9.99}
	for i, v := range values {
		res, err := e.Evaluate(ctx, "sf36", v)
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if res.OutOfBoundsCount < 0 || res.OutOfBoundsCount >= 3 {
			t.Fatalf("step %d: streak %d outside [0, window)", i, res.OutOfBoundsCount)
		}
	}

	// Six consecutive breaches in the middle: exactly two triggers.
	p, _ := s.Profile(ctx, "Sf36")
	if p.EventCount != 2 {
		t.Errorf("event count = %d, want 2", p.EventCount)
	}
}

func TestEvaluateConcurrentSameDevice(t *testing.T) {
	ctx := context.Background()
	s := seedStore(t, 0, 0)
	e := evaluator.New(s, &fakeNotifier{})

	// 30 concurrent breaches for one device with window 3: per-device
	// serialization must yield exactly 10 events with no lost updates.
	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := e.Evaluate(ctx, "sf36", 500.0); err != nil {
				t.Errorf("Evaluate: %v", err)
			}
		}()
	}
	wg.Wait()

	p, err := s.Profile(ctx, "Sf36")
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if p.EventCount != 10 {
		t.Errorf("event count = %d, want 10", p.EventCount)
	}
	if p.OutOfBoundsCount != 0 {
		t.Errorf("streak = %d, want 0", p.OutOfBoundsCount)
	}
}

var _ notify.Notifier = (*fakeNotifier)(nil)
var _ store.ProfileStore = (*failingStore)(nil)
