package notification

import (
	"time"

	"github.com/google/uuid"

	"github.com/notifykit/notifykit/pkg/channel"
)

// Priority controls dispatch ordering between notifications.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh:
		return true
	}
	return false
}

// Notification is the aggregate for one logical send request. The
// channel set is never empty at persistence time; duplicates are
// collapsed at intake. Status is mutated only through the store so the
// state machine is enforced on every write.
type Notification struct {
	ID           uuid.UUID         `json:"id"`
	TemplateName string            `json:"template_name"`
	Recipient    channel.Recipient `json:"recipient"`
	Data         map[string]any    `json:"data,omitempty"`
	Channels     []string          `json:"channels"`
	Priority     Priority          `json:"priority"`
	Status       Status            `json:"status"`
	ScheduledFor *time.Time        `json:"scheduled_for,omitempty"`
	Metadata     map[string]any    `json:"metadata,omitempty"`
	JobIDs       []uuid.UUID       `json:"job_ids,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}
