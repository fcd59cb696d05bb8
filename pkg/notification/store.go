package notification

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store persists notifications. UpdateStatus enforces the status
// machine: implementations reject writes that Status.Transition
// forbids, including any write to a cancelled notification.
type Store interface {
	Create(ctx context.Context, n *Notification) error
	FindByID(ctx context.Context, id uuid.UUID) (*Notification, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error
	SetJobIDs(ctx context.Context, id uuid.UUID, jobIDs []uuid.UUID) error
	List(ctx context.Context, filter Filter) ([]Notification, error)
}

// Filter narrows List results. Zero values mean "no constraint";
// Limit defaults to 50 when unset.
type Filter struct {
	Status   Status
	Channel  string
	Priority Priority
	From     time.Time
	To       time.Time
	Limit    int
	Offset   int
}

// TimeRange bounds a read-side query. Zero values mean unbounded.
type TimeRange struct {
	From time.Time
	To   time.Time
}

// Contains reports whether t falls inside the range.
func (r TimeRange) Contains(t time.Time) bool {
	if !r.From.IsZero() && t.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && t.After(r.To) {
		return false
	}
	return true
}

// LogFilter narrows Search results over the delivery log.
type LogFilter struct {
	NotificationID uuid.UUID
	Channel        string
	Status         LogStatus
	Range          TimeRange
	Limit          int
	Offset         int
}

// LogStore persists the append-only delivery log and serves its read
// projections. Append is the only write; everything else is a pure
// query.
type LogStore interface {
	Append(ctx context.Context, log *DeliveryLog) error
	FindByID(ctx context.Context, id uuid.UUID) (*DeliveryLog, error)
	// FindByNotification returns all entries for one notification in
	// chronological order.
	FindByNotification(ctx context.Context, notificationID uuid.UUID) ([]DeliveryLog, error)
	// Search returns entries matching the filter, newest first.
	Search(ctx context.Context, filter LogFilter) ([]DeliveryLog, error)
	Stats(ctx context.Context, within TimeRange) (LogStats, error)
	StatsByChannel(ctx context.Context, within TimeRange) ([]ChannelStats, error)
	// Failed returns the most recent failed entries, newest first.
	Failed(ctx context.Context, limit int) ([]DeliveryLog, error)
	// Timeline buckets sent/failed/processing counts per interval,
	// oldest bucket first.
	Timeline(ctx context.Context, within TimeRange, interval time.Duration) ([]TimelineBucket, error)
}
