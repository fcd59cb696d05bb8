package channel

import "errors"

var (
	// ErrChannelNotFound is returned by Registry.Get when no channel is
	// registered under the requested name.
	ErrChannelNotFound = errors.New("channel not found")

	// ErrChannelExists is returned by Registry.Register when a channel
	// with the same name is already registered.
	ErrChannelExists = errors.New("channel already registered")

	// ErrInvalidRecipient indicates the recipient lacks the contact
	// details the channel needs (email address, phone number, URL).
	ErrInvalidRecipient = errors.New("invalid recipient for channel")

	// ErrInvalidConfig indicates a channel or transport was constructed
	// with incomplete configuration.
	ErrInvalidConfig = errors.New("invalid channel configuration")

	// ErrSendFailed wraps provider-level delivery failures.
	ErrSendFailed = errors.New("failed to send message")
)
