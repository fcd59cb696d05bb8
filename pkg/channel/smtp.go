package channel

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/smtp"
	"strings"
)

// SMTPConfig configures the SMTP mail transport.
type SMTPConfig struct {
	Host     string `env:"SMTP_HOST"`
	Port     int    `env:"SMTP_PORT" envDefault:"587"`
	Username string `env:"SMTP_USER"`
	Password string `env:"SMTP_PASS"`
}

// SMTPMailer delivers email through a plain SMTP server.
type SMTPMailer struct {
	addr string
	host string
	auth smtp.Auth
}

// NewSMTPMailer constructs an SMTP transport.
func NewSMTPMailer(cfg SMTPConfig) (*SMTPMailer, error) {
	if cfg.Host == "" || cfg.Port == 0 {
		return nil, fmt.Errorf("%w: SMTP host and port are required", ErrInvalidConfig)
	}

	var auth smtp.Auth
	if cfg.Username != "" && cfg.Password != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}

	return &SMTPMailer{
		addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		host: cfg.Host,
		auth: auth,
	}, nil
}

// Provider implements Mailer.
func (m *SMTPMailer) Provider() string { return "smtp" }

// Send implements Mailer. The message ID is generated locally since
// plain SMTP does not return one.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if msg.To == "" {
		return "", fmt.Errorf("%w: no recipient", ErrSendFailed)
	}

	messageID := fmt.Sprintf("<%s@%s>", randomToken(), m.host)
	body, contentType := buildMIMEBody(msg)

	headers := []string{
		fmt.Sprintf("From: %s", msg.From),
		fmt.Sprintf("To: %s", msg.To),
		fmt.Sprintf("Subject: %s", msg.Subject),
		fmt.Sprintf("Message-ID: %s", messageID),
		"MIME-Version: 1.0",
		fmt.Sprintf("Content-Type: %s", contentType),
	}
	raw := strings.Join(headers, "\r\n") + "\r\n\r\n" + body

	if err := smtp.SendMail(m.addr, m.auth, senderAddress(msg.From), []string{msg.To}, []byte(raw)); err != nil {
		return "", fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	return messageID, nil
}

// buildMIMEBody renders the message body, producing a multipart
// alternative when both HTML and text variants are present.
func buildMIMEBody(msg Message) (body string, contentType string) {
	if msg.BodyHTML != "" && msg.BodyText != "" {
		boundary := "np-" + randomToken()
		var sb strings.Builder
		sb.WriteString("This is a multipart message in MIME format.\r\n")
		fmt.Fprintf(&sb, "--%s\r\n", boundary)
		sb.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
		sb.WriteString(msg.BodyText)
		sb.WriteString("\r\n")
		fmt.Fprintf(&sb, "--%s\r\n", boundary)
		sb.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
		sb.WriteString(msg.BodyHTML)
		sb.WriteString("\r\n")
		fmt.Fprintf(&sb, "--%s--", boundary)
		return sb.String(), fmt.Sprintf("multipart/alternative; boundary=%s", boundary)
	}

	if msg.BodyHTML != "" {
		return msg.BodyHTML, "text/html; charset=UTF-8"
	}
	return msg.BodyText, "text/plain; charset=UTF-8"
}

// senderAddress extracts the bare address from a "Name <addr>" header.
func senderAddress(from string) string {
	if i := strings.IndexByte(from, '<'); i >= 0 {
		if j := strings.IndexByte(from[i:], '>'); j > 0 {
			return from[i+1 : i+j]
		}
	}
	return from
}

func randomToken() string {
	var b [12]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "fallback-token"
	}
	return hex.EncodeToString(b[:])
}
