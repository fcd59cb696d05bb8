// Package queue provides the durable, priority-ordered, delay-capable job
// queue that decouples notification intake from delivery workers.
//
// Each Job is one (notification, channel) pair carrying a self-contained
// payload, so workers can render and deliver without touching the
// notification store. Jobs are ordered by Weight (high=1 before normal=5
// before low=10) with submission-order FIFO inside a tier, and become
// eligible only once their ReadyAt instant has passed.
//
// # Architecture
//
//  1. The Storage interface encapsulates all persistence concerns; the Queue
//     facade adds validation, defaulting, and the pause switch on top.
//  2. ClaimJob is the concurrency-critical operation: it atomically leases the
//     best eligible job, so no two workers ever process the same one. Leases
//     are time-bounded; a lease that expires without an ack or retry makes
//     the job claimable again.
//  3. Retry consumes one attempt and re-admits the job after a delay computed
//     by a BackoffStrategy; once the attempt budget is spent the job fails
//     terminally and Retry reports ErrRetriesExhausted.
//
// Three Storage implementations ship with the package: MemoryStorage for tests
// and local development, RedisStorage (sorted sets with Lua-atomic claims),
// and PostgresStorage (FOR UPDATE SKIP LOCKED).
//
// # Usage
//
//	q, err := queue.New(queue.NewMemoryStorage())
//	if err != nil {
//	    return err
//	}
//
//	job, err := q.Enqueue(ctx, notificationID, "email", payload,
//	    queue.WithWeight(queue.WeightHigh),
//	    queue.WithMaxAttempts(3),
//	)
//
//	// Worker side:
//	job, err = q.Lease(ctx, workerID)
//	if errors.Is(err, queue.ErrNoEligibleJobs) {
//	    // idle until the next poll
//	}
package queue
