package channel

import "context"

// Recipient identifies where a message should be delivered. Each
// channel reads the fields it cares about and ignores the rest; Extra
// carries provider-specific addressing that has no first-class field.
type Recipient struct {
	Email      string         `json:"email,omitempty"`
	Phone      string         `json:"phone,omitempty"`
	Name       string         `json:"name,omitempty"`
	WebhookURL string         `json:"webhook_url,omitempty"`
	Extra      map[string]any `json:"extra,omitempty"`
}

// Params carries a fully rendered message to a channel. Body is the
// rendered template output; Subject is optional and only meaningful
// for channels that have one.
type Params struct {
	Recipient Recipient      `json:"recipient"`
	Subject   string         `json:"subject,omitempty"`
	Body      string         `json:"body"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Result reports the outcome of a single delivery attempt. A failed
// attempt is not a Go error: the caller decides whether to retry based
// on Success, and Error preserves the provider's reason for the
// delivery log.
type Result struct {
	Success   bool           `json:"success"`
	MessageID string         `json:"message_id,omitempty"`
	Provider  string         `json:"provider,omitempty"`
	Error     string         `json:"error,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Channel delivers rendered messages over one medium.
type Channel interface {
	// Name returns the unique channel identifier ("email", "sms", "webhook").
	Name() string

	// Send delivers the message and reports the outcome. Implementations
	// must not panic on provider failures; they return a failed Result.
	Send(ctx context.Context, params Params) Result

	// IsAvailable reports whether the channel is currently able to
	// deliver. Unavailable channels cause jobs to be retried later
	// rather than failed outright.
	IsAvailable(ctx context.Context) bool

	// ValidateRecipient reports whether the recipient carries the
	// contact details this channel requires.
	ValidateRecipient(recipient Recipient) bool
}

// SuccessResult builds a successful delivery Result.
func SuccessResult(messageID, provider string, metadata map[string]any) Result {
	return Result{
		Success:   true,
		MessageID: messageID,
		Provider:  provider,
		Metadata:  metadata,
	}
}

// ErrorResult builds a failed delivery Result.
func ErrorResult(errMsg string, metadata map[string]any) Result {
	return Result{
		Success:  false,
		Error:    errMsg,
		Metadata: metadata,
	}
}
