package channel

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// SMSSender is the transport behind the SMS channel. Send returns the
// provider-assigned message ID on success.
type SMSSender interface {
	Send(ctx context.Context, to, body string) (string, error)
	Provider() string
}

// SMS delivers short text messages over a pluggable SMSSender. The
// message body is stripped of HTML before sending since SMS has no
// markup.
type SMS struct {
	sender SMSSender
	log    *slog.Logger
}

// NewSMS creates the SMS channel.
func NewSMS(sender SMSSender, opts ...SMSOption) (*SMS, error) {
	if sender == nil {
		return nil, fmt.Errorf("%w: sender is required", ErrInvalidConfig)
	}
	s := &SMS{
		sender: sender,
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// SMSOption configures the SMS channel.
type SMSOption func(*SMS)

// WithSMSLogger sets the logger used for delivery outcomes.
func WithSMSLogger(log *slog.Logger) SMSOption {
	return func(s *SMS) {
		if log != nil {
			s.log = log
		}
	}
}

// Name implements Channel.
func (s *SMS) Name() string { return "sms" }

// ValidateRecipient implements Channel.
func (s *SMS) ValidateRecipient(recipient Recipient) bool {
	return ValidPhone(recipient.Phone)
}

// IsAvailable implements Channel.
func (s *SMS) IsAvailable(ctx context.Context) bool {
	return s.sender != nil
}

// Send implements Channel.
func (s *SMS) Send(ctx context.Context, params Params) Result {
	if !s.ValidateRecipient(params.Recipient) {
		return ErrorResult("invalid phone recipient", nil)
	}

	body := StripHTML(params.Body)
	messageID, err := s.sender.Send(ctx, params.Recipient.Phone, body)
	if err != nil {
		s.log.ErrorContext(ctx, "sms delivery failed",
			slog.String("to", params.Recipient.Phone),
			slog.Any("error", err))
		return ErrorResult(err.Error(), map[string]any{"recipient": params.Recipient.Phone})
	}

	s.log.InfoContext(ctx, "sms sent",
		slog.String("to", params.Recipient.Phone),
		slog.String("message_id", messageID))
	return SuccessResult(messageID, s.sender.Provider(), nil)
}

// DevSMSSender implements SMSSender for local development by logging
// messages instead of sending them.
type DevSMSSender struct {
	log *slog.Logger
}

// NewDevSMSSender creates a development SMS transport.
func NewDevSMSSender(log *slog.Logger) *DevSMSSender {
	if log == nil {
		log = slog.Default()
	}
	return &DevSMSSender{log: log}
}

// Provider implements SMSSender.
func (d *DevSMSSender) Provider() string { return "dev" }

// Send implements SMSSender.
func (d *DevSMSSender) Send(ctx context.Context, to, body string) (string, error) {
	id := uuid.New().String()
	d.log.InfoContext(ctx, "dev sms",
		slog.String("to", to),
		slog.String("body", body),
		slog.String("message_id", id))
	return id, nil
}
