package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/notifykit/notifykit/pkg/channel"
	"github.com/notifykit/notifykit/pkg/notification"
	"github.com/notifykit/notifykit/pkg/queue"
	"github.com/notifykit/notifykit/pkg/template"
)

// SendRequest is one logical send: which template to render, who to
// reach, and over which channels. Channels defaults to the template's
// native channel; Priority defaults to normal.
type SendRequest struct {
	TemplateName string                `json:"template_name"`
	Recipient    channel.Recipient     `json:"recipient"`
	Data         map[string]any        `json:"data,omitempty"`
	Channels     []string              `json:"channels,omitempty"`
	Priority     notification.Priority `json:"priority,omitempty"`
	ScheduledFor *time.Time            `json:"scheduled_for,omitempty"`
	Metadata     map[string]any        `json:"metadata,omitempty"`
}

// Validation is the verdict returned by Validate. Errors preserves the
// order checks ran in.
type Validation struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// Receipt acknowledges an accepted send request. Delivery outcomes are
// observable only through the status and log read APIs afterwards.
type Receipt struct {
	ID       uuid.UUID           `json:"id"`
	JobIDs   []uuid.UUID         `json:"job_ids"`
	Status   notification.Status `json:"status"`
	QueuedAt time.Time           `json:"queued_at"`
}

// Prepared is a fully rendered notification ready for a channel.
type Prepared struct {
	Template     *template.Template
	Recipient    channel.Recipient
	Subject      string
	Body         string
	Channels     []string
	Priority     notification.Priority
	ScheduledFor *time.Time
}

// jobPayload is the self-contained job body: everything a worker needs
// to re-render and deliver without reading the notification record.
type jobPayload struct {
	TemplateName string            `json:"template_name"`
	Recipient    channel.Recipient `json:"recipient"`
	Data         map[string]any    `json:"data,omitempty"`
	Channels     []string          `json:"channels"`
}

// Orchestrator validates send requests, renders templates, persists
// notifications, and fans each request out into one queue job per
// channel. All collaborators are injected at construction; the
// orchestrator holds no mutable state and is safe for concurrent use.
type Orchestrator struct {
	templates template.Store
	store     notification.Store
	queue     *queue.Queue
	log       *slog.Logger
	now       func() time.Time
}

// NewOrchestrator creates an orchestrator over the given collaborators.
func NewOrchestrator(templates template.Store, store notification.Store, q *queue.Queue, opts ...OrchestratorOption) (*Orchestrator, error) {
	if templates == nil {
		return nil, fmt.Errorf("template store is required")
	}
	if store == nil {
		return nil, fmt.Errorf("notification store is required")
	}
	if q == nil {
		return nil, fmt.Errorf("queue is required")
	}

	o := &Orchestrator{
		templates: templates,
		store:     store,
		queue:     q,
		log:       slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithOrchestratorLogger sets the logger.
func WithOrchestratorLogger(log *slog.Logger) OrchestratorOption {
	return func(o *Orchestrator) {
		if log != nil {
			o.log = log
		}
	}
}

// Validate checks a send request without side effects and returns a
// verdict with every problem found, in check order. An unknown template
// short-circuits the remaining checks since they all depend on it.
// Validate never fails; store errors surface as validation messages.
func (o *Orchestrator) Validate(ctx context.Context, req SendRequest) Validation {
	var errs []string

	tpl, err := o.templates.FindByName(ctx, req.TemplateName)
	if err != nil {
		errs = append(errs, fmt.Sprintf("template %q not found", req.TemplateName))
		return Validation{Valid: false, Errors: errs}
	}

	channels := resolveChannels(req.Channels, tpl.Channel)
	for _, name := range channels {
		switch name {
		case "email":
			if req.Recipient.Email == "" {
				errs = append(errs, "email channel requires recipient.email")
			} else if !channel.ValidEmail(req.Recipient.Email) {
				errs = append(errs, fmt.Sprintf("invalid email address %q", req.Recipient.Email))
			}
		case "sms":
			if req.Recipient.Phone == "" {
				errs = append(errs, "sms channel requires recipient.phone")
			} else if !channel.ValidPhone(req.Recipient.Phone) {
				errs = append(errs, fmt.Sprintf("invalid phone number %q", req.Recipient.Phone))
			}
		case "webhook":
			if req.Recipient.WebhookURL == "" {
				errs = append(errs, "webhook channel requires recipient.webhook_url")
			}
		}
	}

	renderCtx := mergeContext(req.Recipient, req.Data)
	if missing := template.MissingVariables(tpl.Subject, tpl.Body, renderCtx, tpl.Variables); len(missing) > 0 {
		errs = append(errs, fmt.Sprintf("missing variables: %s", strings.Join(missing, ", ")))
	}

	return Validation{Valid: len(errs) == 0, Errors: errs}
}

// Prepare re-resolves the template and renders subject and body for
// the request. It fails with ErrChannelMismatch when the template's
// native channel is absent from the requested set, and with
// ErrMissingVariables when the context lacks required variables.
func (o *Orchestrator) Prepare(ctx context.Context, req SendRequest) (*Prepared, error) {
	tpl, err := o.templates.FindByName(ctx, req.TemplateName)
	if err != nil {
		return nil, err
	}

	channels := resolveChannels(req.Channels, tpl.Channel)
	found := false
	for _, name := range channels {
		if name == tpl.Channel {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: template channel %q, requested %v", ErrChannelMismatch, tpl.Channel, channels)
	}

	renderCtx := mergeContext(req.Recipient, req.Data)
	if missing := template.MissingVariables(tpl.Subject, tpl.Body, renderCtx, tpl.Variables); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingVariables, strings.Join(missing, ", "))
	}

	subject, body, err := template.RenderTemplate(tpl, renderCtx)
	if err != nil {
		return nil, err
	}

	priority := req.Priority
	if priority == "" {
		priority = notification.PriorityNormal
	}

	return &Prepared{
		Template:     tpl,
		Recipient:    req.Recipient,
		Subject:      subject,
		Body:         body,
		Channels:     channels,
		Priority:     priority,
		ScheduledFor: req.ScheduledFor,
	}, nil
}

// Send validates the request, persists one notification, and submits
// one job per requested channel. The notification lands as queued, or
// pending when scheduled for later. Validation failures and past
// schedules reject synchronously; nothing is persisted on rejection.
func (o *Orchestrator) Send(ctx context.Context, req SendRequest) (*Receipt, error) {
	if req.ScheduledFor != nil && !req.ScheduledFor.After(o.now()) {
		return nil, queue.ErrScheduleInPast
	}

	if v := o.Validate(ctx, req); !v.Valid {
		return nil, fmt.Errorf("%w: %s", ErrValidationFailed, strings.Join(v.Errors, "; "))
	}

	tpl, err := o.templates.FindByName(ctx, req.TemplateName)
	if err != nil {
		return nil, err
	}

	channels := resolveChannels(req.Channels, tpl.Channel)
	priority := req.Priority
	if priority == "" {
		priority = notification.PriorityNormal
	}
	status := notification.StatusQueued
	if req.ScheduledFor != nil {
		status = notification.StatusPending
	}

	n := &notification.Notification{
		TemplateName: req.TemplateName,
		Recipient:    req.Recipient,
		Data:         req.Data,
		Channels:     channels,
		Priority:     priority,
		Status:       status,
		ScheduledFor: req.ScheduledFor,
		Metadata:     req.Metadata,
	}
	if err := o.store.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("failed to persist notification: %w", err)
	}

	payload := jobPayload{
		TemplateName: req.TemplateName,
		Recipient:    req.Recipient,
		Data:         req.Data,
		Channels:     channels,
	}
	weight := priorityWeight(priority)

	jobIDs := make([]uuid.UUID, 0, len(channels))
	for _, name := range channels {
		var job *queue.Job
		if req.ScheduledFor != nil {
			job, err = o.queue.Schedule(ctx, n.ID, name, payload, *req.ScheduledFor, queue.WithWeight(weight))
		} else {
			job, err = o.queue.Enqueue(ctx, n.ID, name, payload, queue.WithWeight(weight))
		}
		if err != nil {
			return nil, fmt.Errorf("failed to submit %s job: %w", name, err)
		}
		jobIDs = append(jobIDs, job.ID)
	}

	if err := o.store.SetJobIDs(ctx, n.ID, jobIDs); err != nil {
		return nil, fmt.Errorf("failed to record job ids: %w", err)
	}

	o.log.InfoContext(ctx, "notification accepted",
		slog.String("notification_id", n.ID.String()),
		slog.String("template", req.TemplateName),
		slog.Int("jobs", len(jobIDs)),
		slog.String("status", string(status)))

	return &Receipt{
		ID:       n.ID,
		JobIDs:   jobIDs,
		Status:   status,
		QueuedAt: n.CreatedAt,
	}, nil
}

// Cancel freezes a notification. Cancellation is terminal: workers see
// the state and stop moving the record. Cancelling an already sent or
// failed notification reports ErrInvalidTransition.
func (o *Orchestrator) Cancel(ctx context.Context, id uuid.UUID) error {
	if err := o.store.UpdateStatus(ctx, id, notification.StatusCancelled); err != nil {
		return err
	}
	o.log.InfoContext(ctx, "notification cancelled", slog.String("notification_id", id.String()))
	return nil
}

// resolveChannels falls back to the template's native channel and
// collapses duplicates while preserving first-seen order.
func resolveChannels(requested []string, native string) []string {
	if len(requested) == 0 {
		return []string{native}
	}
	seen := make(map[string]struct{}, len(requested))
	out := make([]string, 0, len(requested))
	for _, name := range requested {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

// mergeContext flattens recipient fields and request data into one
// render context. Data wins on key collisions so callers can override
// recipient-derived values.
func mergeContext(recipient channel.Recipient, data map[string]any) template.Context {
	ctx := make(template.Context, len(data)+4)
	if recipient.Email != "" {
		ctx["email"] = recipient.Email
	}
	if recipient.Phone != "" {
		ctx["phone"] = recipient.Phone
	}
	if recipient.Name != "" {
		ctx["name"] = recipient.Name
	}
	if recipient.WebhookURL != "" {
		ctx["webhook_url"] = recipient.WebhookURL
	}
	for k, v := range recipient.Extra {
		ctx[k] = v
	}
	for k, v := range data {
		ctx[k] = v
	}
	return ctx
}

// priorityWeight maps notification priority onto queue dispatch weight.
func priorityWeight(p notification.Priority) queue.Weight {
	switch p {
	case notification.PriorityHigh:
		return queue.WeightHigh
	case notification.PriorityLow:
		return queue.WeightLow
	default:
		return queue.WeightNormal
	}
}
