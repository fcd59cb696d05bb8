package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStorage implements Storage for testing and local development.
type MemoryStorage struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]*Job
	seq  uint64

	// Lease management
	leaseTicker *time.Ticker
	done        chan struct{}
	closeOnce   sync.Once
}

// NewMemoryStorage creates a new in-memory storage implementation.
func NewMemoryStorage() *MemoryStorage {
	ms := &MemoryStorage{
		jobs: make(map[uuid.UUID]*Job),
		done: make(chan struct{}),
	}

	// Reclaims jobs whose lease expired without an ack or retry, so work
	// claimed by a crashed worker is not lost.
	ms.leaseTicker = time.NewTicker(time.Second)
	go ms.leaseExpirationManager()

	return ms
}

// Close stops the background lease manager.
func (ms *MemoryStorage) Close() error {
	ms.closeOnce.Do(func() {
		close(ms.done)
		ms.leaseTicker.Stop()
	})
	return nil
}

func (ms *MemoryStorage) CreateJob(ctx context.Context, job *Job) error {
	if job == nil {
		return fmt.Errorf("job cannot be nil")
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	if _, exists := ms.jobs[job.ID]; exists {
		return fmt.Errorf("job with ID %s already exists", job.ID)
	}

	ms.seq++
	jobCopy := *job
	jobCopy.seq = ms.seq
	ms.jobs[job.ID] = &jobCopy

	return nil
}

func (ms *MemoryStorage) ClaimJob(ctx context.Context, workerID uuid.UUID, leaseFor time.Duration) (*Job, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := time.Now()
	var best *Job

	// Weight-first selection, submission order within a tier. Jobs with an
	// expired lease count as eligible again.
	for _, job := range ms.jobs {
		if !ms.eligible(job, now) {
			continue
		}
		if best == nil ||
			job.Weight < best.Weight ||
			(job.Weight == best.Weight && job.seq < best.seq) {
			best = job
		}
	}

	if best == nil {
		return nil, ErrNoEligibleJobs
	}

	leaseUntil := now.Add(leaseFor)
	best.Status = StatusActive
	best.LeasedUntil = &leaseUntil
	best.LeasedBy = &workerID

	jobCopy := *best
	return &jobCopy, nil
}

func (ms *MemoryStorage) eligible(job *Job, now time.Time) bool {
	switch job.Status {
	case StatusPending:
		return !job.ReadyAt.After(now)
	case StatusActive:
		return job.LeasedUntil != nil && job.LeasedUntil.Before(now)
	default:
		return false
	}
}

func (ms *MemoryStorage) AckJob(ctx context.Context, jobID uuid.UUID) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	job, exists := ms.jobs[jobID]
	if !exists {
		return ErrJobNotFound
	}
	if job.Status != StatusActive {
		return fmt.Errorf("%w: job %s is %s", ErrJobNotActive, jobID, job.Status)
	}

	job.Status = StatusCompleted
	job.LeasedUntil = nil
	job.LeasedBy = nil

	return nil
}

func (ms *MemoryStorage) RetryJob(ctx context.Context, jobID uuid.UUID, delay time.Duration, lastError string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	job, exists := ms.jobs[jobID]
	if !exists {
		return ErrJobNotFound
	}
	if job.Status != StatusActive {
		return fmt.Errorf("%w: job %s is %s", ErrJobNotActive, jobID, job.Status)
	}

	job.AttemptsMade++
	job.LastError = lastError
	job.LeasedUntil = nil
	job.LeasedBy = nil

	if job.AttemptsMade >= job.MaxAttempts {
		job.Status = StatusFailed
		return ErrRetriesExhausted
	}

	job.Status = StatusPending
	job.ReadyAt = time.Now().Add(delay)

	return nil
}

func (ms *MemoryStorage) GetJob(ctx context.Context, jobID uuid.UUID) (*Job, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	job, exists := ms.jobs[jobID]
	if !exists {
		return nil, ErrJobNotFound
	}

	jobCopy := *job
	return &jobCopy, nil
}

func (ms *MemoryStorage) Stats(ctx context.Context) (Stats, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := time.Now()
	var stats Stats

	for _, job := range ms.jobs {
		switch job.Status {
		case StatusPending:
			if job.ReadyAt.After(now) {
				stats.Scheduled++
			} else {
				stats.Waiting++
			}
		case StatusActive:
			// An expired lease means the job is claimable again and
			// counts as waiting, matching the redis and postgres stores.
			if job.LeasedUntil != nil && job.LeasedUntil.Before(now) {
				stats.Waiting++
			} else {
				stats.Active++
			}
		case StatusCompleted:
			stats.Completed++
		case StatusFailed:
			stats.Failed++
		}
	}

	return stats, nil
}

func (ms *MemoryStorage) PurgeFinished(ctx context.Context, olderThan time.Time) (int, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	removed := 0
	for id, job := range ms.jobs {
		if (job.Status == StatusCompleted || job.Status == StatusFailed) && job.CreatedAt.Before(olderThan) {
			delete(ms.jobs, id)
			removed++
		}
	}

	return removed, nil
}

func (ms *MemoryStorage) leaseExpirationManager() {
	for {
		select {
		case <-ms.leaseTicker.C:
			ms.expireLeases()
		case <-ms.done:
			return
		}
	}
}

// expireLeases resets active jobs whose lease has lapsed back to pending,
// preserving their attempt count.
func (ms *MemoryStorage) expireLeases() {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := time.Now()
	for _, job := range ms.jobs {
		if job.Status == StatusActive && job.LeasedUntil != nil && job.LeasedUntil.Before(now) {
			job.Status = StatusPending
			job.LeasedUntil = nil
			job.LeasedBy = nil
		}
	}
}
