package channel

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// DevMailer implements Mailer for local development. Instead of
// talking to a provider it writes each message as an HTML file plus a
// JSON metadata file under a directory, so rendered output can be
// inspected in a browser.
type DevMailer struct {
	dir string
}

// NewDevMailer creates a development mail transport that saves messages
// to dir. The directory is created on first send.
func NewDevMailer(dir string) *DevMailer {
	return &DevMailer{dir: dir}
}

// Provider implements Mailer.
func (d *DevMailer) Provider() string { return "dev" }

type devMessageMeta struct {
	Timestamp string `json:"timestamp"`
	From      string `json:"from"`
	To        string `json:"to"`
	Subject   string `json:"subject"`
	Tag       string `json:"tag,omitempty"`
}

// Send implements Mailer.
func (d *DevMailer) Send(ctx context.Context, msg Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: failed to create directory: %v", ErrSendFailed, err)
	}

	now := time.Now()
	identifier := msg.Tag
	if identifier == "" {
		identifier = msg.Subject
	}
	base := fmt.Sprintf("%s_%s", now.Format("2006_01_02_150405"), sanitizeFilename(identifier))

	htmlPath := filepath.Join(d.dir, base+".html")
	if err := os.WriteFile(htmlPath, []byte(msg.BodyHTML), 0o644); err != nil {
		return "", fmt.Errorf("%w: failed to write html file: %v", ErrSendFailed, err)
	}

	meta := devMessageMeta{
		Timestamp: now.Format(time.RFC3339),
		From:      msg.From,
		To:        msg.To,
		Subject:   msg.Subject,
		Tag:       msg.Tag,
	}
	metaJSON, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return "", fmt.Errorf("%w: failed to marshal metadata: %v", ErrSendFailed, err)
	}
	if err := os.WriteFile(filepath.Join(d.dir, base+".json"), metaJSON, 0o644); err != nil {
		return "", fmt.Errorf("%w: failed to write metadata file: %v", ErrSendFailed, err)
	}

	return base, nil
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-z0-9]+`)

// sanitizeFilename reduces an arbitrary subject or tag to a safe
// lowercase file name fragment.
func sanitizeFilename(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = unsafeFilenameChars.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if s == "" {
		return "message"
	}
	if len(s) > 60 {
		s = s[:60]
	}
	return s
}
