package evaluator

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"pulsemon/config"
	"pulsemon/internals/modules/monitor"

	"github.com/rs/zerolog"
)

// fakeStore mimics the row-locked store: EvaluateAt re-decides against
// the current state under a mutex, so a second evaluation is a no-op.
type fakeStore struct {
	mu       sync.Mutex
	monitors map[string]*monitor.Monitor
	history  []monitor.HistoryEntry
	failing  map[string]error
}

func newFakeStore(monitors ...*monitor.Monitor) *fakeStore {
	f := &fakeStore{
		monitors: make(map[string]*monitor.Monitor),
		failing:  make(map[string]error),
	}
	for _, m := range monitors {
		f.monitors[m.Slug] = m
	}
	return f
}

func (f *fakeStore) ListAll(ctx context.Context) ([]monitor.Monitor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]monitor.Monitor, 0, len(f.monitors))
	for _, m := range f.monitors {
		out = append(out, *m)
	}
	return out, nil
}

func (f *fakeStore) EvaluateAt(ctx context.Context, slug string, now time.Time) (*monitor.Transition, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.failing[slug]; err != nil {
		return nil, err
	}

	m, ok := f.monitors[slug]
	if !ok {
		return nil, nil
	}

	next, changed := monitor.Decide(m.Status, m.LastPing, m.IntervalSec, m.GraceSec, now)
	if !changed {
		return nil, nil
	}

	prev := m.Status
	m.Status = next

	note := monitor.TimeoutNote(now.Sub(*m.LastPing), monitor.Threshold(m.IntervalSec, m.GraceSec))
	f.history = append(f.history, monitor.HistoryEntry{
		Slug:       slug,
		PrevStatus: prev,
		NewStatus:  next,
		Note:       note,
		CreatedAt:  now,
	})

	return &monitor.Transition{
		Prev: prev,
		New:  next,
		Note: note,
		Snapshot: monitor.Snapshot{
			Slug:        m.Slug,
			Name:        m.Name,
			Status:      next,
			OccurredAt:  now,
			IntervalSec: m.IntervalSec,
			GraceSec:    m.GraceSec,
			LastPing:    m.LastPing,
			WebhookURL:  m.WebhookURL,
		},
	}, nil
}

type fakeSink struct {
	mu     sync.Mutex
	events []monitor.Transition
}

func (f *fakeSink) Enqueue(tr monitor.Transition) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, tr)
}

func (f *fakeSink) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

func newTestEvaluator(store Store, sink Sink) *Evaluator {
	logg := zerolog.Nop()
	cfg := &config.WorkerConfig{IntervalSec: 60}
	return New(context.Background(), cfg, store, sink, &logg)
}

func staleMonitor(slug string, behind time.Duration) *monitor.Monitor {
	ts := time.Now().UTC().Add(-behind)
	return &monitor.Monitor{
		Slug:        slug,
		Name:        slug,
		IntervalSec: 60,
		Status:      monitor.StatusUp,
		LastPing:    &ts,
	}
}

func TestRunCycle_MarksStaleMonitorDown(t *testing.T) {
	store := newFakeStore(staleMonitor("stale", 2*time.Minute))
	sink := &fakeSink{}

	newTestEvaluator(store, sink).runCycle()

	if store.monitors["stale"].Status != monitor.StatusDown {
		t.Errorf("expected DOWN, got %s", store.monitors["stale"].Status)
	}
	if len(store.history) != 1 {
		t.Fatalf("expected one history entry, got %d", len(store.history))
	}
	if store.history[0].Note == "" {
		t.Error("timeout transition must carry a delta/threshold note")
	}
	if sink.count() != 1 {
		t.Errorf("expected one enqueued transition, got %d", sink.count())
	}
}

func TestRunCycle_NeverPingedStaysUnknown(t *testing.T) {
	store := newFakeStore(&monitor.Monitor{
		Slug:        "silent",
		IntervalSec: 60,
		Status:      monitor.StatusUnknown,
	})
	sink := &fakeSink{}

	newTestEvaluator(store, sink).runCycle()

	if store.monitors["silent"].Status != monitor.StatusUnknown {
		t.Errorf("monitor without a heartbeat must stay UNKNOWN, got %s", store.monitors["silent"].Status)
	}
	if sink.count() != 0 {
		t.Error("no transition must be enqueued for a never-pinged monitor")
	}
}

func TestRunCycle_SecondCycleIsNoop(t *testing.T) {
	store := newFakeStore(staleMonitor("stale", 2*time.Minute))
	sink := &fakeSink{}
	ev := newTestEvaluator(store, sink)

	ev.runCycle()
	ev.runCycle()

	if len(store.history) != 1 {
		t.Errorf("DOWN -> DOWN must not append history, got %d entries", len(store.history))
	}
	if sink.count() != 1 {
		t.Errorf("DOWN -> DOWN must not enqueue again, got %d events", sink.count())
	}
}

func TestRunCycle_FreshMonitorUntouched(t *testing.T) {
	store := newFakeStore(staleMonitor("fresh", 10*time.Second))
	sink := &fakeSink{}

	newTestEvaluator(store, sink).runCycle()

	if store.monitors["fresh"].Status != monitor.StatusUp {
		t.Errorf("expected UP, got %s", store.monitors["fresh"].Status)
	}
	if sink.count() != 0 {
		t.Error("a fresh monitor must not produce a transition")
	}
}

func TestRunCycle_OneFailureDoesNotStopCycle(t *testing.T) {
	store := newFakeStore(
		staleMonitor("broken", 2*time.Minute),
		staleMonitor("healthy-path", 2*time.Minute),
	)
	store.failing["broken"] = errors.New("connection reset")
	sink := &fakeSink{}

	newTestEvaluator(store, sink).runCycle()

	if store.monitors["healthy-path"].Status != monitor.StatusDown {
		t.Error("a failing monitor must not block evaluation of the rest")
	}
	if store.monitors["broken"].Status != monitor.StatusUp {
		t.Error("the failing monitor must be left unchanged")
	}
	if sink.count() != 1 {
		t.Errorf("expected one enqueued transition, got %d", sink.count())
	}
}

func TestEvaluateAt_ConcurrentSameBoundary(t *testing.T) {
	store := newFakeStore(staleMonitor("contended", 2*time.Minute))
	now := time.Now().UTC()

	var (
		wg          sync.WaitGroup
		transitions atomic.Int32
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr, err := store.EvaluateAt(context.Background(), "contended", now)
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			if tr != nil {
				transitions.Add(1)
			}
		}()
	}
	wg.Wait()

	if got := transitions.Load(); got != 1 {
		t.Errorf("exactly one evaluator must win the transition, got %d", got)
	}
	if len(store.history) != 1 {
		t.Errorf("concurrent evaluations must record exactly one history entry, got %d", len(store.history))
	}
	if store.monitors["contended"].Status != monitor.StatusDown {
		t.Errorf("expected DOWN, got %s", store.monitors["contended"].Status)
	}
}

func TestRun_EvaluatesPromptlyAtStartup(t *testing.T) {
	store := newFakeStore(staleMonitor("stale-at-boot", 2*time.Minute))
	sink := &fakeSink{}
	ctx, cancel := context.WithCancel(context.Background())
	logg := zerolog.Nop()
	// interval far longer than the test, only the startup pass can fire
	ev := New(ctx, &config.WorkerConfig{IntervalSec: 3600}, store, sink, &logg)

	go ev.Run()

	deadline := time.Now().Add(2 * time.Second)
	for sink.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	cancel()
	<-ev.Done()

	if sink.count() != 1 {
		t.Fatalf("startup must evaluate without waiting a full interval, got %d transitions", sink.count())
	}
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	logg := zerolog.Nop()
	ev := New(ctx, &config.WorkerConfig{IntervalSec: 60}, newFakeStore(), &fakeSink{}, &logg)

	go ev.Run()
	cancel()

	select {
	case <-ev.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("evaluator did not stop after context cancellation")
	}
}
