package monitor

import "time"

type CreateMonitorRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Slug        string `json:"slug" validate:"required,max=100,hostname_rfc1123"`
	IntervalSec int32  `json:"interval_seconds" validate:"required,gt=0"`
	GraceSec    int32  `json:"grace_seconds" validate:"gte=0"`
	WebhookURL  string `json:"webhook_url" validate:"omitempty,url"`
}

type MonitorResponse struct {
	Name        string     `json:"name"`
	Slug        string     `json:"slug"`
	Token       string     `json:"token,omitempty"` // only returned on creation
	IntervalSec int32      `json:"interval_seconds"`
	GraceSec    int32      `json:"grace_seconds"`
	Status      Status     `json:"status"`
	LastPing    *time.Time `json:"last_ping"`
	WebhookURL  string     `json:"webhook_url,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

type HistoryEntryResponse struct {
	PrevStatus Status    `json:"prev_status"`
	NewStatus  Status    `json:"new_status"`
	Note       string    `json:"note"`
	CreatedAt  time.Time `json:"created_at"`
}
