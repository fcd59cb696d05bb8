package notification

import "fmt"

// Status is the lifecycle state of a notification.
type Status string

const (
	StatusPending    Status = "pending"
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusSent       Status = "sent"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusQueued, StatusProcessing, StatusSent, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition may leave s. Sent and
// failed are not terminal here: with multi-channel fan-out the status
// reflects the most recent per-channel outcome, so a sibling channel's
// job may still move a sent notification back to processing. Only
// cancellation freezes the record.
func (s Status) Terminal() bool {
	return s == StatusCancelled
}

// transitions lists the allowed next states per current state.
// Same-state updates are treated as idempotent no-ops by CanTransition
// and do not appear here. Cancelled is the exception: a frozen record
// accepts no write at all, not even a repeated cancel.
var transitions = map[Status][]Status{
	StatusPending:    {StatusQueued, StatusProcessing, StatusCancelled},
	StatusQueued:     {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusSent, StatusFailed, StatusCancelled},
	StatusSent:       {StatusProcessing, StatusFailed},
	StatusFailed:     {StatusProcessing, StatusSent},
	StatusCancelled:  nil,
}

// CanTransition reports whether moving from s to next is allowed.
func (s Status) CanTransition(next Status) bool {
	if s == next {
		return s != StatusCancelled
	}
	for _, allowed := range transitions[s] {
		if next == allowed {
			return true
		}
	}
	return false
}

// Transition validates a status change, returning ErrInvalidTransition
// with both states named when the machine forbids it.
func (s Status) Transition(next Status) error {
	if !next.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidStatus, next)
	}
	if !s.CanTransition(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s, next)
	}
	return nil
}
