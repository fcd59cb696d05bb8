package dispatch

import "errors"

var (
	// ErrValidationFailed aggregates all intake validation messages; it is
	// returned by Send when Validate reports an invalid request.
	ErrValidationFailed = errors.New("validation failed")

	// ErrChannelMismatch is returned by Prepare when the template's native
	// channel is not among the requested channels.
	ErrChannelMismatch = errors.New("template channel not in requested channels")

	// ErrMissingVariables is returned by Prepare when the render context
	// lacks required template variables.
	ErrMissingVariables = errors.New("missing required variables")

	// ErrInvalidRecipient indicates the channel refused the recipient
	// during job processing.
	ErrInvalidRecipient = errors.New("channel rejected recipient")

	// ErrChannelUnavailable indicates the channel's transport is currently
	// unreachable; the job is retried later.
	ErrChannelUnavailable = errors.New("channel unavailable")

	// ErrDeliveryFailed wraps a delivery failure reported by a channel.
	ErrDeliveryFailed = errors.New("delivery failed")
)
