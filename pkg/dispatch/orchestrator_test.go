package dispatch_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/notifykit/notifykit/pkg/channel"
	"github.com/notifykit/notifykit/pkg/dispatch"
	"github.com/notifykit/notifykit/pkg/notification"
	"github.com/notifykit/notifykit/pkg/queue"
	"github.com/notifykit/notifykit/pkg/template"
)

type fixture struct {
	templates *template.MemoryStore
	store     *notification.MemoryStore
	queue     *queue.Queue
	orch      *dispatch.Orchestrator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	templates := template.NewMemoryStore()
	_, err := templates.Create(context.Background(), template.Template{
		Name:    "welcome",
		Channel: "email",
		Subject: "Welcome {{name}}",
		Body:    "Hi {{name}}, code {{code}}",
	})
	require.NoError(t, err)

	storage := queue.NewMemoryStorage()
	t.Cleanup(func() { _ = storage.Close() })
	q, err := queue.New(storage)
	require.NoError(t, err)

	store := notification.NewMemoryStore()
	orch, err := dispatch.NewOrchestrator(templates, store, q)
	require.NoError(t, err)

	return &fixture{templates: templates, store: store, queue: q, orch: orch}
}

func validRequest() dispatch.SendRequest {
	return dispatch.SendRequest{
		TemplateName: "welcome",
		Recipient:    channel.Recipient{Email: "ana@example.com", Name: "Ana"},
		Data:         map[string]any{"code": "123"},
		Channels:     []string{"email"},
	}
}

func TestOrchestrator_Validate(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	v := f.orch.Validate(ctx, validRequest())
	require.True(t, v.Valid)
	require.Empty(t, v.Errors)
}

func TestOrchestrator_Validate_TemplateNotFound(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	req := validRequest()
	req.TemplateName = "missing"
	// Recipient problems are not even checked; the template lookup
	// short-circuits because every later check depends on it.
	req.Recipient = channel.Recipient{}

	v := f.orch.Validate(context.Background(), req)
	require.False(t, v.Valid)
	require.Len(t, v.Errors, 1)
	require.Contains(t, v.Errors[0], `"missing" not found`)
}

func TestOrchestrator_Validate_AccumulatesErrors(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	req := dispatch.SendRequest{
		TemplateName: "welcome",
		Recipient:    channel.Recipient{Phone: "4155550134"},
		Data:         nil,
		Channels:     []string{"email", "sms"},
	}

	v := f.orch.Validate(context.Background(), req)
	require.False(t, v.Valid)
	require.Len(t, v.Errors, 2)
	require.Contains(t, v.Errors[0], "recipient.email")
	require.Contains(t, v.Errors[1], "missing variables")
	require.Contains(t, v.Errors[1], "name")
	require.Contains(t, v.Errors[1], "code")
}

func TestOrchestrator_Validate_Idempotent(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	req := validRequest()
	req.Data = nil

	first := f.orch.Validate(ctx, req)
	second := f.orch.Validate(ctx, req)
	require.Equal(t, first, second)
}

func TestOrchestrator_Prepare(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	prepared, err := f.orch.Prepare(context.Background(), validRequest())
	require.NoError(t, err)
	require.Equal(t, "Welcome Ana", prepared.Subject)
	require.Equal(t, "Hi Ana, code 123", prepared.Body)
	require.Equal(t, []string{"email"}, prepared.Channels)
	require.Equal(t, notification.PriorityNormal, prepared.Priority)
}

func TestOrchestrator_Prepare_ChannelMismatch(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	req := validRequest()
	req.Channels = []string{"sms"}

	_, err := f.orch.Prepare(context.Background(), req)
	require.ErrorIs(t, err, dispatch.ErrChannelMismatch)
}

func TestOrchestrator_Prepare_MissingVariables(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	req := validRequest()
	req.Data = nil

	_, err := f.orch.Prepare(context.Background(), req)
	require.ErrorIs(t, err, dispatch.ErrMissingVariables)
	require.Contains(t, err.Error(), "code")
}

func TestOrchestrator_Prepare_DefaultsToNativeChannel(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	req := validRequest()
	req.Channels = nil

	prepared, err := f.orch.Prepare(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, []string{"email"}, prepared.Channels)
}

func TestOrchestrator_Send_FanOut(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	req := validRequest()
	req.Recipient.Phone = "4155550134"
	req.Channels = []string{"email", "sms", "email"} // duplicate collapsed

	receipt, err := f.orch.Send(ctx, req)
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, receipt.ID)
	require.Len(t, receipt.JobIDs, 2)
	require.Equal(t, notification.StatusQueued, receipt.Status)

	n, err := f.store.FindByID(ctx, receipt.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"email", "sms"}, n.Channels)
	require.Equal(t, receipt.JobIDs, n.JobIDs)

	stats, err := f.queue.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, stats.Waiting)
}

func TestOrchestrator_Send_ValidationFailed(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	req := validRequest()
	req.Data = nil

	_, err := f.orch.Send(ctx, req)
	require.ErrorIs(t, err, dispatch.ErrValidationFailed)
	require.Contains(t, err.Error(), "code")

	// Nothing persisted, nothing queued.
	all, err := f.store.List(ctx, notification.Filter{})
	require.NoError(t, err)
	require.Empty(t, all)

	stats, err := f.queue.Stats(ctx)
	require.NoError(t, err)
	require.Zero(t, stats.Total())
}

func TestOrchestrator_Send_ScheduleInPast(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	past := time.Now().Add(-time.Minute)
	req := validRequest()
	req.ScheduledFor = &past

	_, err := f.orch.Send(ctx, req)
	require.ErrorIs(t, err, queue.ErrScheduleInPast)

	stats, err := f.queue.Stats(ctx)
	require.NoError(t, err)
	require.Zero(t, stats.Total())
}

func TestOrchestrator_Send_Scheduled(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	future := time.Now().Add(time.Hour)
	req := validRequest()
	req.ScheduledFor = &future

	receipt, err := f.orch.Send(ctx, req)
	require.NoError(t, err)
	require.Equal(t, notification.StatusPending, receipt.Status)

	stats, err := f.queue.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, stats.Scheduled)
	require.Zero(t, stats.Waiting)
}

func TestOrchestrator_Cancel(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	receipt, err := f.orch.Send(ctx, validRequest())
	require.NoError(t, err)

	require.NoError(t, f.orch.Cancel(ctx, receipt.ID))

	n, err := f.store.FindByID(ctx, receipt.ID)
	require.NoError(t, err)
	require.Equal(t, notification.StatusCancelled, n.Status)

	// Cancelled notifications are frozen.
	err = f.store.UpdateStatus(ctx, receipt.ID, notification.StatusProcessing)
	require.ErrorIs(t, err, notification.ErrInvalidTransition)
}
