package notification

import "errors"

var (
	// ErrNotFound is returned when no notification exists for the given ID.
	ErrNotFound = errors.New("notification not found")

	// ErrLogNotFound is returned when no delivery log exists for the given ID.
	ErrLogNotFound = errors.New("delivery log not found")

	// ErrInvalidLog indicates a delivery log entry missing required fields.
	ErrInvalidLog = errors.New("invalid delivery log entry")

	// ErrInvalidStatus indicates a status value outside the known set.
	ErrInvalidStatus = errors.New("invalid notification status")

	// ErrInvalidTransition is returned when a status update would violate
	// the state machine, including any write to a cancelled notification.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrInvalidPriority indicates a priority value outside {low, normal, high}.
	ErrInvalidPriority = errors.New("invalid notification priority")

	// ErrNoChannels is returned when a notification would be persisted
	// with an empty channel set.
	ErrNoChannels = errors.New("notification requires at least one channel")
)
