package notification

import (
	"time"

	"github.com/google/uuid"
)

// LogStatus is the outcome recorded by a delivery log entry.
type LogStatus string

const (
	LogPending    LogStatus = "pending"
	LogProcessing LogStatus = "processing"
	LogSent       LogStatus = "sent"
	LogFailed     LogStatus = "failed"
	LogCancelled  LogStatus = "cancelled"
)

// Valid reports whether s is a known log status.
func (s LogStatus) Valid() bool {
	switch s {
	case LogPending, LogProcessing, LogSent, LogFailed, LogCancelled:
		return true
	}
	return false
}

// DeliveryLog records one delivery attempt for one channel of a
// notification. Entries are append-only: exactly one entry per attempt
// outcome, never mutated afterwards.
type DeliveryLog struct {
	ID             uuid.UUID      `json:"id"`
	NotificationID uuid.UUID      `json:"notification_id"`
	Channel        string         `json:"channel"`
	Status         LogStatus      `json:"status"`
	Response       map[string]any `json:"response,omitempty"`
	Error          string         `json:"error,omitempty"`
	Attempt        int            `json:"attempt"`
	Duration       time.Duration  `json:"duration,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}

// LogStats is the aggregate view over the delivery log. SuccessRate is
// sent over total as a percentage; AvgDuration averages entries that
// recorded a duration.
type LogStats struct {
	Total       int           `json:"total"`
	Sent        int           `json:"sent"`
	Failed      int           `json:"failed"`
	Processing  int           `json:"processing"`
	Pending     int           `json:"pending"`
	SuccessRate float64       `json:"success_rate"`
	AvgDuration time.Duration `json:"avg_duration"`
}

// ChannelStats is the per-channel aggregate view.
type ChannelStats struct {
	Channel     string        `json:"channel"`
	Total       int           `json:"total"`
	Sent        int           `json:"sent"`
	Failed      int           `json:"failed"`
	Processing  int           `json:"processing"`
	AvgDuration time.Duration `json:"avg_duration"`
}

// TimelineBucket is one time-bucketed count of delivery outcomes.
type TimelineBucket struct {
	Time   time.Time `json:"time"`
	Status LogStatus `json:"status"`
	Count  int       `json:"count"`
}
