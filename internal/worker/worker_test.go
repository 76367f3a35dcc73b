package worker_test

import (
	"context"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"printwatch/internal/evaluator"
	"printwatch/internal/logger"
	"printwatch/internal/models"
	"printwatch/internal/worker"
)

func TestMain(m *testing.M) {
	logger.Logger = zerolog.Nop()
	os.Exit(m.Run())
}

// mockEvaluator counts evaluations and can fail or trigger.
type mockEvaluator struct {
	evaluated atomic.Uint64
	err       error
	triggered bool
}

func (m *mockEvaluator) Evaluate(ctx context.Context, deviceID string, value float64) (evaluator.Result, error) {
	m.evaluated.Add(1)
	if m.err != nil {
		return evaluator.Result{}, m.err
	}
	return evaluator.Result{DeviceID: deviceID, Triggered: m.triggered}, nil
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestPoolProcessesReadings(t *testing.T) {
	ch := make(chan models.Reading, 100)
	eval := &mockEvaluator{}
	pool := worker.NewPool(worker.Config{
		Evaluator:   eval,
		ReadingChan: ch,
		Workers:     4,
	})

	pool.Start()
	defer pool.Stop()

	for i := 0; i < 50; i++ {
		ch <- models.Reading{DeviceID: "Sf36", Value: float64(i)}
	}

	waitFor(t, func() bool { return pool.Stats().Processed == 50 })

	if got := eval.evaluated.Load(); got != 50 {
		t.Errorf("evaluator called %d times, want 50", got)
	}
	if failed := pool.Stats().Failed; failed != 0 {
		t.Errorf("failed = %d, want 0", failed)
	}
}

func TestPoolUnknownDeviceCountsProcessed(t *testing.T) {
	ch := make(chan models.Reading, 10)
	eval := &mockEvaluator{err: evaluator.ErrUnknownDevice}
	pool := worker.NewPool(worker.Config{
		Evaluator:   eval,
		ReadingChan: ch,
		Workers:     1,
	})

	pool.Start()
	defer pool.Stop()

	ch <- models.Reading{DeviceID: "ghost", Value: 42}

	waitFor(t, func() bool { return pool.Stats().Processed == 1 })

	if failed := pool.Stats().Failed; failed != 0 {
		t.Errorf("unknown device counted as failure: %d", failed)
	}
}

func TestPoolCountsFailures(t *testing.T) {
	ch := make(chan models.Reading, 10)
	eval := &mockEvaluator{err: context.DeadlineExceeded}
	pool := worker.NewPool(worker.Config{
		Evaluator:   eval,
		ReadingChan: ch,
		Workers:     2,
	})

	pool.Start()
	defer pool.Stop()

	for i := 0; i < 5; i++ {
		ch <- models.Reading{DeviceID: "Sf36", Value: 1}
	}

	waitFor(t, func() bool { return pool.Stats().Failed == 5 })

	if processed := pool.Stats().Processed; processed != 0 {
		t.Errorf("processed = %d, want 0", processed)
	}
}

func TestPoolStopsOnChannelClose(t *testing.T) {
	ch := make(chan models.Reading)
	pool := worker.NewPool(worker.Config{
		Evaluator:   &mockEvaluator{},
		ReadingChan: ch,
		Workers:     2,
	})

	pool.Start()
	close(ch)

	done := make(chan struct{})
	go func() {
		pool.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("pool did not stop after channel close")
	}
}
