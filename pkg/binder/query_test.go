package binder_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notifykit/notifykit/pkg/binder"
)

func TestQuery_ListFilters(t *testing.T) {
	t.Parallel()

	type listParams struct {
		Status   string `query:"status"`
		Priority string `query:"priority"`
		Channel  string `query:"channel"`
		Limit    int    `query:"limit"`
		Offset   int    `query:"offset"`
	}

	tests := []struct {
		name     string
		query    string
		expected listParams
	}{
		{
			name:     "status with pagination",
			query:    "status=queued&limit=50&offset=100",
			expected: listParams{Status: "queued", Limit: 50, Offset: 100},
		},
		{
			name:     "channel and priority",
			query:    "channel=email&priority=high",
			expected: listParams{Channel: "email", Priority: "high"},
		},
		{
			name:     "absent params stay zero",
			query:    "status=sent",
			expected: listParams{Status: "sent"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/notifications?"+tt.query, nil)

			var got listParams
			require.NoError(t, binder.Query()(req, &got))
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestQuery_MultiValueAndTypes(t *testing.T) {
	t.Parallel()

	type searchParams struct {
		Channels   []string `query:"channels"`
		Statuses   []string `query:"status"`
		Attempts   []int    `query:"attempts"`
		MinSuccess float64  `query:"min_success"`
		Failed     *bool    `query:"failed"`
		Verbose    bool     `query:"verbose"`
	}

	req := httptest.NewRequest(http.MethodGet,
		"/logs?channels=email,sms&status=sent&status=failed&attempts=1,2,3&min_success=0.95&failed=true&verbose=false",
		nil)

	var got searchParams
	require.NoError(t, binder.Query()(req, &got))

	// Comma-separated and repeated keys both expand into slices.
	assert.Equal(t, []string{"email", "sms"}, got.Channels)
	assert.Equal(t, []string{"sent", "failed"}, got.Statuses)
	assert.Equal(t, []int{1, 2, 3}, got.Attempts)
	assert.Equal(t, 0.95, got.MinSuccess)
	require.NotNil(t, got.Failed)
	assert.True(t, *got.Failed)
	assert.False(t, got.Verbose)
}

func TestQuery_TimeRange(t *testing.T) {
	t.Parallel()

	type rangeParams struct {
		From     string `query:"from"`
		To       string `query:"to"`
		Interval string `query:"interval"`
		Timezone string `query:"tz"`
	}

	req := httptest.NewRequest(http.MethodGet,
		"/logs/timeline?from=2026-01-01T00:00:00Z&to=2026-01-31T23:59:59Z&interval=1h&tz=Europe/Lisbon",
		nil)

	var got rangeParams
	require.NoError(t, binder.Query()(req, &got))
	assert.Equal(t, "2026-01-01T00:00:00Z", got.From)
	assert.Equal(t, "2026-01-31T23:59:59Z", got.To)
	assert.Equal(t, "1h", got.Interval)
	assert.Equal(t, "Europe/Lisbon", got.Timezone)
}

func TestQuery_InvalidInt(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/notifications?limit=lots", nil)

	var got struct {
		Limit int `query:"limit"`
	}
	err := binder.Query()(req, &got)
	require.Error(t, err)
	assert.ErrorIs(t, err, binder.ErrFailedToParseQuery)
}

func TestForm_TemplateUpsertScenario(t *testing.T) {
	t.Parallel()

	type templateForm struct {
		Name      string   `form:"name"`
		Channel   string   `form:"channel"`
		Subject   string   `form:"subject"`
		Body      string   `form:"body"`
		Variables []string `form:"variables"`
		Active    bool     `form:"active"`
		Internal  string   `form:"-"`
	}

	formData := url.Values{
		"name":      {"welcome"},
		"channel":   {"email"},
		"subject":   {"Welcome {{name}}"},
		"body":      {"Hi {{name}}, your code is {{code}}"},
		"variables": {"name", "code"},
		"active":    {"true"},
	}

	req := httptest.NewRequest(http.MethodPost, "/templates", strings.NewReader(formData.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var got templateForm
	require.NoError(t, binder.Form()(req, &got))
	assert.Equal(t, "welcome", got.Name)
	assert.Equal(t, "email", got.Channel)
	assert.Equal(t, "Welcome {{name}}", got.Subject)
	assert.Equal(t, []string{"name", "code"}, got.Variables)
	assert.True(t, got.Active)
	assert.Empty(t, got.Internal)
}
