package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Queue is a priority-ordered, delay-capable holding area for dispatch jobs.
// It decouples notification intake from worker execution: intake appends jobs,
// workers lease them exclusively. All state lives in the Storage; the facade
// adds submission validation, defaulting, and the pause switch.
type Queue struct {
	storage Storage
	paused  atomic.Bool

	defaultWeight      Weight
	defaultMaxAttempts int
	leaseFor           time.Duration
	logger             *slog.Logger
}

// New creates a Queue backed by the given storage.
func New(storage Storage, opts ...Option) (*Queue, error) {
	if storage == nil {
		return nil, ErrStorageNil
	}

	options := &queueOptions{
		defaultWeight:      WeightNormal,
		defaultMaxAttempts: 3,
		leaseFor:           5 * time.Minute,
		logger:             slog.Default(),
	}

	for _, opt := range opts {
		opt(options)
	}

	return &Queue{
		storage:            storage,
		defaultWeight:      options.defaultWeight,
		defaultMaxAttempts: options.defaultMaxAttempts,
		leaseFor:           options.leaseFor,
		logger:             options.logger,
	}, nil
}

// Enqueue submits a job that becomes eligible immediately.
func (q *Queue) Enqueue(ctx context.Context, notificationID uuid.UUID, channel string, payload any, opts ...EnqueueOption) (*Job, error) {
	return q.submit(ctx, notificationID, channel, payload, time.Time{}, opts)
}

// Schedule submits a job that becomes eligible only once wall-clock time
// reaches at. Fails with ErrScheduleInPast unless at is strictly in the future.
func (q *Queue) Schedule(ctx context.Context, notificationID uuid.UUID, channel string, payload any, at time.Time, opts ...EnqueueOption) (*Job, error) {
	if !at.After(time.Now()) {
		return nil, ErrScheduleInPast
	}
	return q.submit(ctx, notificationID, channel, payload, at, opts)
}

func (q *Queue) submit(ctx context.Context, notificationID uuid.UUID, channel string, payload any, readyAt time.Time, opts []EnqueueOption) (*Job, error) {
	if channel == "" {
		return nil, ErrChannelRequired
	}
	if payload == nil {
		return nil, ErrPayloadNil
	}

	options := &enqueueOptions{
		weight:      q.defaultWeight,
		maxAttempts: q.defaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(options)
	}

	if !options.weight.Valid() {
		return nil, ErrInvalidWeight
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPayloadMarshal, err)
	}

	now := time.Now()
	if readyAt.IsZero() {
		readyAt = now
	}

	job := &Job{
		ID:             uuid.New(),
		NotificationID: notificationID,
		Channel:        channel,
		Payload:        payloadBytes,
		Status:         StatusPending,
		Weight:         options.weight,
		AttemptsMade:   0,
		MaxAttempts:    options.maxAttempts,
		ReadyAt:        readyAt,
		CreatedAt:      now,
	}

	if err := q.storage.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to create job for channel %q: %w", channel, err)
	}

	q.logger.Debug("job enqueued",
		slog.String("job_id", job.ID.String()),
		slog.String("channel", channel),
		slog.Int("weight", int(job.Weight)),
		slog.Time("ready_at", job.ReadyAt))

	return job, nil
}

// Lease atomically removes and returns the highest-priority eligible job.
// Returns ErrNoEligibleJobs when nothing is eligible or the queue is paused.
func (q *Queue) Lease(ctx context.Context, workerID uuid.UUID) (*Job, error) {
	if q.paused.Load() {
		return nil, ErrNoEligibleJobs
	}
	return q.storage.ClaimJob(ctx, workerID, q.leaseFor)
}

// Ack marks a leased job permanently complete; no further attempts occur.
func (q *Queue) Ack(ctx context.Context, jobID uuid.UUID) error {
	return q.storage.AckJob(ctx, jobID)
}

// Retry re-admits a leased job after the delay, consuming one attempt.
// Returns ErrRetriesExhausted when the attempt budget is spent; the job is
// then terminally failed and the caller decides what that means for the
// owning notification.
func (q *Queue) Retry(ctx context.Context, jobID uuid.UUID, delay time.Duration, lastError string) error {
	return q.storage.RetryJob(ctx, jobID, delay, lastError)
}

// GetJob returns the current state of a job.
func (q *Queue) GetJob(ctx context.Context, jobID uuid.UUID) (*Job, error) {
	return q.storage.GetJob(ctx, jobID)
}

// Stats returns mutually exclusive queue counters.
func (q *Queue) Stats(ctx context.Context) (Stats, error) {
	return q.storage.Stats(ctx)
}

// Pause stops Lease from yielding new work without discarding existing jobs.
func (q *Queue) Pause() {
	q.paused.Store(true)
	q.logger.Info("queue paused")
}

// Resume restarts leasing after a Pause.
func (q *Queue) Resume() {
	q.paused.Store(false)
	q.logger.Info("queue resumed")
}

// Paused reports whether the queue is currently paused.
func (q *Queue) Paused() bool {
	return q.paused.Load()
}

// PurgeFinished removes completed and failed jobs older than the cutoff.
func (q *Queue) PurgeFinished(ctx context.Context, olderThan time.Time) (int, error) {
	return q.storage.PurgeFinished(ctx, olderThan)
}
