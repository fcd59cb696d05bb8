package queue

import "errors"

// Common errors
var (
	// ErrStorageNil is returned when a nil storage is provided.
	ErrStorageNil = errors.New("storage cannot be nil")

	// ErrPayloadNil is returned when attempting to enqueue a nil payload.
	ErrPayloadNil = errors.New("payload cannot be nil")

	// ErrPayloadMarshal is returned when payload marshaling fails.
	ErrPayloadMarshal = errors.New("failed to marshal payload to JSON")

	// ErrInvalidWeight is returned when a priority weight is not a known tier.
	ErrInvalidWeight = errors.New("priority weight must be high, normal, or low")

	// ErrChannelRequired is returned when a job is submitted without a channel name.
	ErrChannelRequired = errors.New("job channel is required")

	// ErrScheduleInPast is returned when a scheduled time is not strictly in the future.
	ErrScheduleInPast = errors.New("scheduled time must be in the future")

	// ErrNoEligibleJobs is returned by Lease when no job is currently eligible.
	ErrNoEligibleJobs = errors.New("no eligible jobs")

	// ErrJobNotFound is returned when a job ID is unknown to the storage.
	ErrJobNotFound = errors.New("job not found")

	// ErrJobNotActive is returned when acking or retrying a job that is not leased.
	ErrJobNotActive = errors.New("job is not active")

	// ErrRetriesExhausted is returned by Retry when the attempt budget is spent
	// and the job has been terminally failed.
	ErrRetriesExhausted = errors.New("job retries exhausted")
)
