package channel

import "context"

// Message is a single outbound email handed to a Mailer.
type Message struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Subject  string `json:"subject"`
	BodyHTML string `json:"body_html"`
	BodyText string `json:"body_text,omitempty"`
	Tag      string `json:"tag,omitempty"`
}

// Mailer is the email transport behind the email channel. Send returns
// the provider-assigned message ID on success; Provider names the
// transport for delivery logs.
type Mailer interface {
	Send(ctx context.Context, msg Message) (string, error)
	Provider() string
}
