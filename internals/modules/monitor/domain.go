package monitor

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusUnknown Status = "UNKNOWN"
	StatusUp      Status = "UP"
	StatusDown    Status = "DOWN"
)

type Monitor struct {
	ID          uuid.UUID
	Name        string
	Slug        string
	Token       string
	IntervalSec int32
	GraceSec    int32
	LastPing    *time.Time // nil means never pinged
	Status      Status
	WebhookURL  string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type CreateMonitorCmd struct {
	Name        string
	Slug        string
	Token       string
	IntervalSec int32
	GraceSec    int32
	WebhookURL  string
}

// HistoryEntry is one recorded status transition. Entries are append-only
// and are removed only when their monitor is deleted.
type HistoryEntry struct {
	ID         int64
	Slug       string
	PrevStatus Status
	NewStatus  Status
	Note       string
	CreatedAt  time.Time
}

// Snapshot is the monitor state that leaves the system with a transition,
// it doubles as the webhook payload.
type Snapshot struct {
	Slug        string     `json:"slug"`
	Name        string     `json:"name"`
	Status      Status     `json:"status"`
	OccurredAt  time.Time  `json:"occurred_at"`
	IntervalSec int32      `json:"interval_seconds"`
	GraceSec    int32      `json:"grace_seconds"`
	LastPing    *time.Time `json:"last_ping"`
	WebhookURL  string     `json:"-"` // destination, never part of the payload
}

// Transition is a committed status change, store update and history entry
// are already durable by the time one of these exists.
type Transition struct {
	Prev     Status
	New      Status
	Note     string
	Snapshot Snapshot
}
