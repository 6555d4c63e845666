package heartbeat

import (
	"context"
	"sync"
	"testing"
	"time"

	"pulsemon/internals/modules/monitor"
	"pulsemon/pkg/apperror"

	"github.com/rs/zerolog"
)

type fakeStore struct {
	mu       sync.Mutex
	monitors map[string]*monitor.Monitor
	history  []monitor.HistoryEntry
}

func newFakeStore(monitors ...*monitor.Monitor) *fakeStore {
	f := &fakeStore{monitors: make(map[string]*monitor.Monitor)}
	for _, m := range monitors {
		f.monitors[m.Slug] = m
	}
	return f
}

func (f *fakeStore) RecordHeartbeat(ctx context.Context, slug, token string, now time.Time) (monitor.Snapshot, *monitor.Transition, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	m, ok := f.monitors[slug]
	if !ok || m.Token != token {
		return monitor.Snapshot{}, nil, &apperror.Error{Kind: apperror.NotFound, Message: "monitor not found"}
	}

	prev := m.Status
	if prev == "" {
		prev = monitor.StatusUnknown
	}

	ts := now
	m.LastPing = &ts
	m.Status = monitor.StatusUp

	snap := monitor.Snapshot{
		Slug:        m.Slug,
		Name:        m.Name,
		Status:      monitor.StatusUp,
		OccurredAt:  now,
		IntervalSec: m.IntervalSec,
		GraceSec:    m.GraceSec,
		LastPing:    &ts,
		WebhookURL:  m.WebhookURL,
	}

	if prev == monitor.StatusUp {
		return snap, nil, nil
	}

	f.history = append(f.history, monitor.HistoryEntry{
		Slug:       m.Slug,
		PrevStatus: prev,
		NewStatus:  monitor.StatusUp,
		Note:       "heartbeat received",
		CreatedAt:  now,
	})

	return snap, &monitor.Transition{
		Prev:     prev,
		New:      monitor.StatusUp,
		Note:     "heartbeat received",
		Snapshot: snap,
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

func newTestService(store Store, sink Sink) *Service {
	logg := zerolog.Nop()
	return NewService(store, sink, &logg)
}

func TestPing_RecoversDownMonitor(t *testing.T) {
	store := newFakeStore(&monitor.Monitor{
		Slug:        "backup-job",
		Name:        "Backup Job",
		Token:       "tok123",
		IntervalSec: 60,
		Status:      monitor.StatusDown,
		WebhookURL:  "http://example.com/hook",
	})
	sink := &fakeSink{}
	svc := newTestService(store, sink)

	if err := svc.Ping(context.Background(), "backup-job", "tok123"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	m := store.monitors["backup-job"]
	if m.Status != monitor.StatusUp {
		t.Errorf("expected UP, got %s", m.Status)
	}
	if m.LastPing == nil {
		t.Fatal("last_ping must be set by a heartbeat")
	}
	if len(store.history) != 1 {
		t.Fatalf("expected one history entry, got %d", len(store.history))
	}
	if store.history[0].PrevStatus != monitor.StatusDown || store.history[0].NewStatus != monitor.StatusUp {
		t.Errorf("unexpected history entry: %+v", store.history[0])
	}
	if store.history[0].Note != "heartbeat received" {
		t.Errorf("unexpected note: %q", store.history[0].Note)
	}
	if len(sink.events) != 1 {
		t.Fatalf("expected one transition event, got %d", len(sink.events))
	}
	if sink.events[0].Snapshot.WebhookURL != "http://example.com/hook" {
		t.Error("transition snapshot must carry the webhook destination")
	}
}

func TestPing_FirstHeartbeatLeavesUnknown(t *testing.T) {
	store := newFakeStore(&monitor.Monitor{
		Slug:        "cron-a",
		Token:       "tok",
		IntervalSec: 60,
		Status:      monitor.StatusUnknown,
	})
	sink := &fakeSink{}
	svc := newTestService(store, sink)

	if err := svc.Ping(context.Background(), "cron-a", "tok"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if store.monitors["cron-a"].Status != monitor.StatusUp {
		t.Error("first heartbeat must move UNKNOWN to UP")
	}
	if len(sink.events) != 1 {
		t.Error("UNKNOWN -> UP is a transition and must be notified")
	}
}

func TestPing_AlreadyUpIsQuiet(t *testing.T) {
	before := time.Now().UTC().Add(-10 * time.Second)
	store := newFakeStore(&monitor.Monitor{
		Slug:        "cron-b",
		Token:       "tok",
		IntervalSec: 60,
		Status:      monitor.StatusUp,
		LastPing:    &before,
	})
	sink := &fakeSink{}
	svc := newTestService(store, sink)

	if err := svc.Ping(context.Background(), "cron-b", "tok"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	m := store.monitors["cron-b"]
	if !m.LastPing.After(before) {
		t.Error("last_ping must advance on every accepted heartbeat")
	}
	if len(store.history) != 0 {
		t.Error("UP -> UP must not append history")
	}
	if len(sink.events) != 0 {
		t.Error("UP -> UP must not notify")
	}
}

func TestPing_WrongToken(t *testing.T) {
	store := newFakeStore(&monitor.Monitor{
		Slug:        "cron-c",
		Token:       "right",
		IntervalSec: 60,
		Status:      monitor.StatusUp,
	})
	sink := &fakeSink{}
	svc := newTestService(store, sink)

	err := svc.Ping(context.Background(), "cron-c", "wrong")
	if !apperror.IsKind(err, apperror.NotFound) {
		t.Fatalf("wrong token must look like not found, got %v", err)
	}
	if store.monitors["cron-c"].LastPing != nil {
		t.Error("rejected heartbeat must not mutate state")
	}
	if len(sink.events) != 0 {
		t.Error("rejected heartbeat must not notify")
	}
}

func TestPing_UnknownSlug(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeSink{})

	err := svc.Ping(context.Background(), "nope", "tok")
	if !apperror.IsKind(err, apperror.NotFound) {
		t.Fatalf("unknown slug must be not found, got %v", err)
	}
}
