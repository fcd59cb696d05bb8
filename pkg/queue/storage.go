package queue

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Storage encapsulates all persistence concerns of the dispatch queue.
// Implementations must make ClaimJob safe under concurrent callers: no two
// claims may ever return the same job.
type Storage interface {
	// CreateJob persists a new job. The job becomes eligible once ReadyAt passes.
	CreateJob(ctx context.Context, job *Job) error

	// ClaimJob atomically leases the best eligible job: lowest weight first,
	// submission order within a tier, ReadyAt not after now, not currently
	// leased. Returns ErrNoEligibleJobs when nothing qualifies.
	ClaimJob(ctx context.Context, workerID uuid.UUID, leaseFor time.Duration) (*Job, error)

	// AckJob marks a leased job permanently complete.
	AckJob(ctx context.Context, jobID uuid.UUID) error

	// RetryJob consumes one attempt and re-admits the job after the delay.
	// When the attempt budget is exhausted the job is terminally failed
	// instead and ErrRetriesExhausted is returned.
	RetryJob(ctx context.Context, jobID uuid.UUID, delay time.Duration, lastError string) error

	// GetJob returns a job by ID, or ErrJobNotFound.
	GetJob(ctx context.Context, jobID uuid.UUID) (*Job, error)

	// Stats returns mutually exclusive job counts.
	Stats(ctx context.Context) (Stats, error)

	// PurgeFinished removes completed and failed jobs older than the cutoff,
	// returning the number removed. Retention housekeeping, not dispatch logic.
	PurgeFinished(ctx context.Context, olderThan time.Time) (int, error)
}
