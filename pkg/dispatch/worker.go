package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/notifykit/notifykit/pkg/channel"
	"github.com/notifykit/notifykit/pkg/notification"
	"github.com/notifykit/notifykit/pkg/queue"
)

const (
	defaultConcurrency  = 5
	defaultPollInterval = 250 * time.Millisecond
)

// errCancelled marks a job skipped because its notification was
// cancelled; the job is already acked when it is returned.
var errCancelled = errors.New("notification cancelled")

// Pool runs a fixed number of concurrent executors, each looping lease,
// process, ack-or-retry over the dispatch queue. The queue's lease
// semantics guarantee no two executors ever hold the same job.
type Pool struct {
	queue    *queue.Queue
	orch     *Orchestrator
	registry *channel.Registry
	store    notification.Store
	logs     notification.LogStore

	concurrency  int
	pollInterval time.Duration
	backoff      queue.BackoffStrategy
	log          *slog.Logger
}

// NewPool creates a worker pool over the given collaborators.
func NewPool(q *queue.Queue, orch *Orchestrator, registry *channel.Registry, store notification.Store, logs notification.LogStore, opts ...PoolOption) (*Pool, error) {
	if q == nil {
		return nil, fmt.Errorf("queue is required")
	}
	if orch == nil {
		return nil, fmt.Errorf("orchestrator is required")
	}
	if registry == nil {
		return nil, fmt.Errorf("channel registry is required")
	}
	if store == nil {
		return nil, fmt.Errorf("notification store is required")
	}
	if logs == nil {
		return nil, fmt.Errorf("delivery log store is required")
	}

	p := &Pool{
		queue:        q,
		orch:         orch,
		registry:     registry,
		store:        store,
		logs:         logs,
		concurrency:  defaultConcurrency,
		pollInterval: defaultPollInterval,
		backoff:      queue.DefaultBackoffStrategy(),
		log:          slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// PoolOption configures a Pool.
type PoolOption func(*Pool)

// WithConcurrency sets the number of concurrent executors.
func WithConcurrency(n int) PoolOption {
	return func(p *Pool) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// WithPollInterval sets how long an idle executor sleeps between lease
// attempts.
func WithPollInterval(d time.Duration) PoolOption {
	return func(p *Pool) {
		if d > 0 {
			p.pollInterval = d
		}
	}
}

// WithBackoff sets the retry backoff strategy.
func WithBackoff(strategy queue.BackoffStrategy) PoolOption {
	return func(p *Pool) {
		if strategy != nil {
			p.backoff = strategy
		}
	}
}

// WithPoolLogger sets the logger.
func WithPoolLogger(log *slog.Logger) PoolOption {
	return func(p *Pool) {
		if log != nil {
			p.log = log
		}
	}
}

// Run starts the executors and blocks until ctx is cancelled. Executors
// finish the job they hold before exiting; Run returns ctx.Err() once
// all of them have stopped.
func (p *Pool) Run(ctx context.Context) error {
	p.log.InfoContext(ctx, "worker pool starting", slog.Int("concurrency", p.concurrency))

	var wg sync.WaitGroup
	for i := 0; i < p.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.runExecutor(ctx, uuid.New())
		}()
	}
	wg.Wait()

	p.log.Info("worker pool stopped")
	return ctx.Err()
}

func (p *Pool) runExecutor(ctx context.Context, workerID uuid.UUID) {
	for {
		if ctx.Err() != nil {
			return
		}

		job, err := p.queue.Lease(ctx, workerID)
		if err != nil {
			if !errors.Is(err, queue.ErrNoEligibleJobs) && !errors.Is(err, context.Canceled) {
				p.log.ErrorContext(ctx, "lease failed",
					slog.String("worker_id", workerID.String()),
					slog.Any("error", err))
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(p.pollInterval):
			}
			continue
		}

		p.processJob(ctx, job)
	}
}

// processJob runs one delivery attempt end to end. A panic inside the
// attempt is converted into an ordinary retryable failure so a broken
// channel implementation cannot take the executor down.
func (p *Pool) processJob(ctx context.Context, job *queue.Job) {
	start := time.Now()
	attempt := job.AttemptsMade + 1

	result, err := p.attemptDelivery(ctx, job, attempt)
	duration := time.Since(start)

	if errors.Is(err, errCancelled) {
		return
	}
	if err == nil && result.Success {
		p.recordSuccess(ctx, job, attempt, duration, result)
		return
	}

	errMsg := ""
	switch {
	case err != nil:
		errMsg = err.Error()
	case result.Error != "":
		errMsg = fmt.Errorf("%w: %s", ErrDeliveryFailed, result.Error).Error()
	default:
		errMsg = ErrDeliveryFailed.Error()
	}
	p.recordFailure(ctx, job, attempt, duration, errMsg)
}

// attemptDelivery renders and sends one job. Execution-class errors
// come back as errors; channel-reported delivery failures come back as
// an unsuccessful Result. The caller treats both as retryable.
func (p *Pool) attemptDelivery(ctx context.Context, job *queue.Job, attempt int) (result channel.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			p.log.ErrorContext(ctx, "panic during delivery",
				slog.String("job_id", job.ID.String()),
				slog.Any("panic", r))
			err = fmt.Errorf("%w: panic: %v", ErrDeliveryFailed, r)
		}
	}()

	p.appendLog(ctx, job, notification.LogProcessing, attempt, 0, nil, "")

	if cancelled := p.markProcessing(ctx, job); cancelled {
		return channel.Result{}, errCancelled
	}

	var payload jobPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return channel.Result{}, fmt.Errorf("failed to decode job payload: %w", err)
	}

	prepared, err := p.orch.Prepare(ctx, SendRequest{
		TemplateName: payload.TemplateName,
		Recipient:    payload.Recipient,
		Data:         payload.Data,
		Channels:     payload.Channels,
	})
	if err != nil {
		return channel.Result{}, err
	}

	ch, err := p.registry.Get(job.Channel)
	if err != nil {
		return channel.Result{}, err
	}
	if !ch.ValidateRecipient(payload.Recipient) {
		return channel.Result{}, fmt.Errorf("%w: channel %s", ErrInvalidRecipient, job.Channel)
	}
	if !ch.IsAvailable(ctx) {
		return channel.Result{}, fmt.Errorf("%w: %s", ErrChannelUnavailable, job.Channel)
	}

	result = ch.Send(ctx, channel.Params{
		Recipient: payload.Recipient,
		Subject:   prepared.Subject,
		Body:      prepared.Body,
		Metadata: map[string]any{
			"notification_id": job.NotificationID.String(),
			"attempt":         attempt,
		},
	})
	return result, nil
}

// markProcessing moves the notification to processing. A cancelled
// notification freezes the record: the job is acked without delivery
// and a cancelled log entry records the skip.
func (p *Pool) markProcessing(ctx context.Context, job *queue.Job) (cancelled bool) {
	err := p.store.UpdateStatus(ctx, job.NotificationID, notification.StatusProcessing)
	if err == nil {
		return false
	}
	if !errors.Is(err, notification.ErrInvalidTransition) {
		p.log.WarnContext(ctx, "status update failed",
			slog.String("notification_id", job.NotificationID.String()),
			slog.Any("error", err))
		return false
	}

	p.appendLog(ctx, job, notification.LogCancelled, job.AttemptsMade+1, 0, nil, "notification cancelled")
	if ackErr := p.queue.Ack(ctx, job.ID); ackErr != nil {
		p.log.WarnContext(ctx, "ack of cancelled job failed",
			slog.String("job_id", job.ID.String()),
			slog.Any("error", ackErr))
	}
	return true
}

func (p *Pool) recordSuccess(ctx context.Context, job *queue.Job, attempt int, duration time.Duration, result channel.Result) {
	response := map[string]any{
		"message_id": result.MessageID,
		"provider":   result.Provider,
	}
	for k, v := range result.Metadata {
		response[k] = v
	}

	p.appendLog(ctx, job, notification.LogSent, attempt, duration, response, "")

	if err := p.store.UpdateStatus(ctx, job.NotificationID, notification.StatusSent); err != nil &&
		!errors.Is(err, notification.ErrInvalidTransition) {
		p.log.WarnContext(ctx, "status update failed",
			slog.String("notification_id", job.NotificationID.String()),
			slog.Any("error", err))
	}
	if err := p.queue.Ack(ctx, job.ID); err != nil {
		p.log.WarnContext(ctx, "ack failed",
			slog.String("job_id", job.ID.String()),
			slog.Any("error", err))
	}

	p.log.InfoContext(ctx, "job delivered",
		slog.String("job_id", job.ID.String()),
		slog.String("channel", job.Channel),
		slog.Int("attempt", attempt),
		slog.Duration("duration", duration))
}

func (p *Pool) recordFailure(ctx context.Context, job *queue.Job, attempt int, duration time.Duration, errMsg string) {
	p.appendLog(ctx, job, notification.LogFailed, attempt, duration, nil, errMsg)

	delay := p.backoff.NextDelay(attempt)
	err := p.queue.Retry(ctx, job.ID, delay, errMsg)
	switch {
	case errors.Is(err, queue.ErrRetriesExhausted):
		if updErr := p.store.UpdateStatus(ctx, job.NotificationID, notification.StatusFailed); updErr != nil &&
			!errors.Is(updErr, notification.ErrInvalidTransition) {
			p.log.WarnContext(ctx, "status update failed",
				slog.String("notification_id", job.NotificationID.String()),
				slog.Any("error", updErr))
		}
		p.log.ErrorContext(ctx, "job failed permanently",
			slog.String("job_id", job.ID.String()),
			slog.String("channel", job.Channel),
			slog.Int("attempts", attempt),
			slog.String("error", errMsg))
	case err != nil:
		p.log.ErrorContext(ctx, "retry scheduling failed",
			slog.String("job_id", job.ID.String()),
			slog.Any("error", err))
	default:
		p.log.WarnContext(ctx, "job failed, retry scheduled",
			slog.String("job_id", job.ID.String()),
			slog.String("channel", job.Channel),
			slog.Int("attempt", attempt),
			slog.Duration("delay", delay),
			slog.String("error", errMsg))
	}
}

// appendLog writes one delivery log entry; the log is the durable
// record of every outcome, so append failures are loud but not fatal.
func (p *Pool) appendLog(ctx context.Context, job *queue.Job, status notification.LogStatus, attempt int, duration time.Duration, response map[string]any, errMsg string) {
	entry := &notification.DeliveryLog{
		NotificationID: job.NotificationID,
		Channel:        job.Channel,
		Status:         status,
		Response:       response,
		Error:          errMsg,
		Attempt:        attempt,
		Duration:       duration,
	}
	if err := p.logs.Append(ctx, entry); err != nil {
		p.log.ErrorContext(ctx, "failed to append delivery log",
			slog.String("job_id", job.ID.String()),
			slog.String("status", string(status)),
			slog.Any("error", err))
	}
}
