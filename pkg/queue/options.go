package queue

import (
	"log/slog"
	"time"
)

// Option is a functional option for configuring a Queue.
type Option func(*queueOptions)

type queueOptions struct {
	defaultWeight      Weight
	defaultMaxAttempts int
	leaseFor           time.Duration
	logger             *slog.Logger
}

// WithDefaultWeight sets the priority weight used when none is given at submission.
func WithDefaultWeight(w Weight) Option {
	return func(o *queueOptions) {
		if w.Valid() {
			o.defaultWeight = w
		}
	}
}

// WithDefaultMaxAttempts sets the attempt budget used when none is given at
// submission. Capped at 10 to prevent unbounded retry loops.
func WithDefaultMaxAttempts(n int) Option {
	return func(o *queueOptions) {
		if n > 0 && n <= 10 {
			o.defaultMaxAttempts = n
		}
	}
}

// WithLeaseDuration sets how long a claimed job stays leased before it is
// reclaimed from a dead worker.
func WithLeaseDuration(d time.Duration) Option {
	return func(o *queueOptions) {
		if d > 0 {
			o.leaseFor = d
		}
	}
}

// WithLogger sets the logger for the queue.
func WithLogger(logger *slog.Logger) Option {
	return func(o *queueOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// EnqueueOption is a functional option for a single job submission.
type EnqueueOption func(*enqueueOptions)

type enqueueOptions struct {
	weight      Weight
	maxAttempts int
}

// WithWeight sets the priority weight for the job.
func WithWeight(w Weight) EnqueueOption {
	return func(o *enqueueOptions) {
		o.weight = w
	}
}

// WithMaxAttempts sets the maximum number of delivery attempts (1-10).
func WithMaxAttempts(n int) EnqueueOption {
	return func(o *enqueueOptions) {
		if n > 0 && n <= 10 {
			o.maxAttempts = n
		}
	}
}
