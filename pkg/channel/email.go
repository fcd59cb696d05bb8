package channel

import (
	"context"
	"fmt"
	"log/slog"
)

// EmailConfig holds the sender identity used for all outbound email.
type EmailConfig struct {
	FromName    string `env:"EMAIL_FROM_NAME" envDefault:"Notifications"`
	FromAddress string `env:"EMAIL_FROM_ADDRESS,required"`
}

// Email delivers messages over a pluggable Mailer transport. The HTML
// body is sanitized before sending and a plain-text alternative is
// derived from it.
type Email struct {
	mailer Mailer
	cfg    EmailConfig
	log    *slog.Logger
}

// NewEmail creates the email channel.
func NewEmail(mailer Mailer, cfg EmailConfig, opts ...EmailOption) (*Email, error) {
	if mailer == nil {
		return nil, fmt.Errorf("%w: mailer is required", ErrInvalidConfig)
	}
	if !ValidEmail(cfg.FromAddress) {
		return nil, fmt.Errorf("%w: FromAddress must be a valid email address", ErrInvalidConfig)
	}

	e := &Email{
		mailer: mailer,
		cfg:    cfg,
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// EmailOption configures the email channel.
type EmailOption func(*Email)

// WithEmailLogger sets the logger used for delivery outcomes.
func WithEmailLogger(log *slog.Logger) EmailOption {
	return func(e *Email) {
		if log != nil {
			e.log = log
		}
	}
}

// Name implements Channel.
func (e *Email) Name() string { return "email" }

// ValidateRecipient implements Channel.
func (e *Email) ValidateRecipient(recipient Recipient) bool {
	return ValidEmail(recipient.Email)
}

// IsAvailable implements Channel. A configured mailer is assumed
// reachable; transient transport failures surface per send and are
// handled by the retry cycle.
func (e *Email) IsAvailable(ctx context.Context) bool {
	return e.mailer != nil
}

// Send implements Channel.
func (e *Email) Send(ctx context.Context, params Params) Result {
	if !e.ValidateRecipient(params.Recipient) {
		return ErrorResult("invalid email recipient", nil)
	}

	subject := params.Subject
	if subject == "" {
		subject = "Notification"
	}

	html := SanitizeHTML(params.Body)
	msg := Message{
		From:     fmt.Sprintf("%q <%s>", e.cfg.FromName, e.cfg.FromAddress),
		To:       params.Recipient.Email,
		Subject:  subject,
		BodyHTML: html,
		BodyText: StripHTML(html),
	}
	if tag, ok := params.Metadata["tag"].(string); ok {
		msg.Tag = tag
	}

	messageID, err := e.mailer.Send(ctx, msg)
	if err != nil {
		e.log.ErrorContext(ctx, "email delivery failed",
			slog.String("to", params.Recipient.Email),
			slog.Any("error", err))
		return ErrorResult(err.Error(), map[string]any{"recipient": params.Recipient.Email})
	}

	e.log.InfoContext(ctx, "email sent",
		slog.String("to", params.Recipient.Email),
		slog.String("message_id", messageID))
	return SuccessResult(messageID, e.mailer.Provider(), nil)
}
