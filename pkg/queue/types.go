package queue

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Weight represents job priority as a numeric dispatch weight.
// Lower values are leased first: high=1 executes before normal=5 before low=10.
type Weight int8

// Weight constants
const (
	WeightHigh   Weight = 1
	WeightNormal Weight = 5
	WeightLow    Weight = 10
)

// Valid checks if the weight is one of the known priority tiers.
func (w Weight) Valid() bool {
	return w == WeightHigh || w == WeightNormal || w == WeightLow
}

// Status represents the queue-side lifecycle of a job.
type Status string

const (
	// StatusPending covers both waiting (eligible now) and scheduled
	// (ReadyAt in the future) jobs; Stats splits the two.
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Job is one (notification, channel) execution unit managed by the queue.
// Payload carries everything needed to re-render and deliver independently of
// the notification record, so workers never join against the notification
// store to execute.
type Job struct {
	ID             uuid.UUID       `json:"id"`
	NotificationID uuid.UUID       `json:"notification_id"`
	Channel        string          `json:"channel"`
	Payload        json.RawMessage `json:"payload,omitempty"`
	Status         Status          `json:"status"`
	Weight         Weight          `json:"weight"`
	AttemptsMade   int             `json:"attempts_made"`
	MaxAttempts    int             `json:"max_attempts"`
	ReadyAt        time.Time       `json:"ready_at"`
	LeasedUntil    *time.Time      `json:"leased_until,omitempty"`
	LeasedBy       *uuid.UUID      `json:"leased_by,omitempty"`
	LastError      string          `json:"last_error,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`

	// seq preserves submission order for FIFO tie-breaks within a priority tier.
	seq uint64
}

// Stats reports mutually exclusive job counts; the categories sum to the total
// number of known jobs.
type Stats struct {
	Waiting   int `json:"waiting"`
	Scheduled int `json:"scheduled"`
	Active    int `json:"active"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
}

// Total returns the total number of known jobs.
func (s Stats) Total() int {
	return s.Waiting + s.Scheduled + s.Active + s.Completed + s.Failed
}
