package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStorage implements Storage on a queue_jobs table (see the goose
// migrations under migrations/). Claims use FOR UPDATE SKIP LOCKED so
// concurrent workers never lease the same job; expired leases are folded into
// the claim predicate instead of a background reaper.
type PostgresStorage struct {
	pool *pgxpool.Pool
}

// NewPostgresStorage creates a Postgres-backed queue storage.
func NewPostgresStorage(pool *pgxpool.Pool) (*PostgresStorage, error) {
	if pool == nil {
		return nil, ErrStorageNil
	}
	return &PostgresStorage{pool: pool}, nil
}

const jobColumns = `id, notification_id, channel, payload, status, weight,
	attempts_made, max_attempts, ready_at, leased_until, leased_by,
	coalesce(last_error, ''), created_at`

func (ps *PostgresStorage) CreateJob(ctx context.Context, job *Job) error {
	if job == nil {
		return fmt.Errorf("job cannot be nil")
	}

	_, err := ps.pool.Exec(ctx, `
		INSERT INTO queue_jobs (id, notification_id, channel, payload, status,
			weight, attempts_made, max_attempts, ready_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		job.ID, job.NotificationID, job.Channel, []byte(job.Payload), string(StatusPending),
		int(job.Weight), job.AttemptsMade, job.MaxAttempts, job.ReadyAt, job.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}

	return nil
}

func (ps *PostgresStorage) ClaimJob(ctx context.Context, workerID uuid.UUID, leaseFor time.Duration) (*Job, error) {
	row := ps.pool.QueryRow(ctx, `
		UPDATE queue_jobs SET
			status = 'active',
			leased_until = now() + $2,
			leased_by = $1
		WHERE id = (
			SELECT id FROM queue_jobs
			WHERE (status = 'pending' AND ready_at <= now())
			   OR (status = 'active' AND leased_until < now())
			ORDER BY weight ASC, seq ASC
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING `+jobColumns,
		workerID, leaseFor,
	)

	job, err := scanJob(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoEligibleJobs
	}
	if err != nil {
		return nil, fmt.Errorf("failed to claim job: %w", err)
	}

	return job, nil
}

func (ps *PostgresStorage) AckJob(ctx context.Context, jobID uuid.UUID) error {
	tag, err := ps.pool.Exec(ctx, `
		UPDATE queue_jobs SET
			status = 'completed',
			leased_until = NULL,
			leased_by = NULL
		WHERE id = $1 AND status = 'active'`,
		jobID,
	)
	if err != nil {
		return fmt.Errorf("failed to ack job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ps.classifyMiss(ctx, jobID)
	}

	return nil
}

func (ps *PostgresStorage) RetryJob(ctx context.Context, jobID uuid.UUID, delay time.Duration, lastError string) error {
	row := ps.pool.QueryRow(ctx, `
		UPDATE queue_jobs SET
			attempts_made = attempts_made + 1,
			last_error = $2,
			leased_until = NULL,
			leased_by = NULL,
			status = CASE WHEN attempts_made + 1 >= max_attempts
				THEN 'failed' ELSE 'pending' END,
			ready_at = CASE WHEN attempts_made + 1 >= max_attempts
				THEN ready_at ELSE now() + $3 END
		WHERE id = $1 AND status = 'active'
		RETURNING status`,
		jobID, lastError, delay,
	)

	var status string
	err := row.Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return ps.classifyMiss(ctx, jobID)
	}
	if err != nil {
		return fmt.Errorf("failed to retry job: %w", err)
	}

	if status == string(StatusFailed) {
		return ErrRetriesExhausted
	}

	return nil
}

// classifyMiss distinguishes an unknown job from one that is simply not leased.
func (ps *PostgresStorage) classifyMiss(ctx context.Context, jobID uuid.UUID) error {
	var status string
	err := ps.pool.QueryRow(ctx, `SELECT status FROM queue_jobs WHERE id = $1`, jobID).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrJobNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to look up job: %w", err)
	}
	return fmt.Errorf("%w: job %s is %s", ErrJobNotActive, jobID, status)
}

func (ps *PostgresStorage) GetJob(ctx context.Context, jobID uuid.UUID) (*Job, error) {
	row := ps.pool.QueryRow(ctx, `SELECT `+jobColumns+` FROM queue_jobs WHERE id = $1`, jobID)

	job, err := scanJob(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	return job, nil
}

func (ps *PostgresStorage) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	err := ps.pool.QueryRow(ctx, `
		SELECT
			count(*) FILTER (WHERE status = 'pending' AND ready_at <= now())
				+ count(*) FILTER (WHERE status = 'active' AND leased_until < now()),
			count(*) FILTER (WHERE status = 'pending' AND ready_at > now()),
			count(*) FILTER (WHERE status = 'active' AND leased_until >= now()),
			count(*) FILTER (WHERE status = 'completed'),
			count(*) FILTER (WHERE status = 'failed')
		FROM queue_jobs`,
	).Scan(&stats.Waiting, &stats.Scheduled, &stats.Active, &stats.Completed, &stats.Failed)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to collect queue stats: %w", err)
	}

	return stats, nil
}

func (ps *PostgresStorage) PurgeFinished(ctx context.Context, olderThan time.Time) (int, error) {
	tag, err := ps.pool.Exec(ctx, `
		DELETE FROM queue_jobs
		WHERE status IN ('completed', 'failed') AND created_at < $1`,
		olderThan,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to purge finished jobs: %w", err)
	}

	return int(tag.RowsAffected()), nil
}

func scanJob(row pgx.Row) (*Job, error) {
	var (
		job     Job
		payload []byte
		status  string
		weight  int
	)

	err := row.Scan(&job.ID, &job.NotificationID, &job.Channel, &payload, &status,
		&weight, &job.AttemptsMade, &job.MaxAttempts, &job.ReadyAt,
		&job.LeasedUntil, &job.LeasedBy, &job.LastError, &job.CreatedAt)
	if err != nil {
		return nil, err
	}

	job.Payload = payload
	job.Status = Status(status)
	job.Weight = Weight(weight)

	return &job, nil
}
