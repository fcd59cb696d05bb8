package channel_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/notifykit/notifykit/pkg/channel"
)

func TestDevMailer_Send(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	mailer := channel.NewDevMailer(dir)
	require.Equal(t, "dev", mailer.Provider())

	id, err := mailer.Send(context.Background(), channel.Message{
		From:     "noreply@example.com",
		To:       "user@example.com",
		Subject:  "Welcome Aboard!",
		BodyHTML: "<h1>Hello</h1>",
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	html, err := os.ReadFile(filepath.Join(dir, id+".html"))
	require.NoError(t, err)
	require.Equal(t, "<h1>Hello</h1>", string(html))

	meta, err := os.ReadFile(filepath.Join(dir, id+".json"))
	require.NoError(t, err)
	require.Contains(t, string(meta), `"to": "user@example.com"`)
	require.Contains(t, string(meta), `"subject": "Welcome Aboard!"`)
}
