package queue

import (
	"math"
	"math/rand"
	"time"
)

// BackoffStrategy computes the delay before a failed job is retried.
// Implementations should be safe for concurrent use.
type BackoffStrategy interface {
	// NextDelay returns the retry delay for the given attempt number.
	// Attempt starts at 1 for the first retry.
	NextDelay(attempt int) time.Duration
}

// ExponentialBackoff implements exponential backoff with jitter.
// Jitter spreads retries from many failing jobs so they do not hit a
// recovering provider at the same instant.
type ExponentialBackoff struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	JitterFactor float64
}

// NextDelay returns min(InitialDelay * Multiplier^(attempt-1) * (1 ± JitterFactor), MaxDelay).
func (e ExponentialBackoff) NextDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	initial := e.InitialDelay
	if initial == 0 {
		initial = time.Second
	}

	maxDelay := e.MaxDelay
	if maxDelay == 0 {
		maxDelay = 30 * time.Second
	}

	multiplier := e.Multiplier
	if multiplier == 0 {
		multiplier = 2
	}

	delay := float64(initial) * math.Pow(multiplier, float64(attempt-1))

	// Zero jitter is intentionally allowed for deterministic behavior.
	if e.JitterFactor > 0 {
		randomJitter := (rand.Float64()*2 - 1) * e.JitterFactor
		delay = delay * (1 + randomJitter)
	}

	if delay > float64(maxDelay) {
		delay = float64(maxDelay)
	}

	return time.Duration(delay)
}

// LinearBackoff implements linearly increasing delays without jitter.
type LinearBackoff struct {
	Delay    time.Duration
	MaxDelay time.Duration
}

// NextDelay returns min(Delay * attempt, MaxDelay).
func (l LinearBackoff) NextDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	delay := l.Delay
	if delay == 0 {
		delay = time.Second
	}

	maxDelay := l.MaxDelay
	if maxDelay == 0 {
		maxDelay = 30 * time.Second
	}

	d := delay * time.Duration(attempt)
	if d > maxDelay {
		d = maxDelay
	}

	return d
}

// FixedBackoff implements a constant delay between retries.
type FixedBackoff struct {
	// Delay is the fixed delay between retries.
	Delay time.Duration
}

// NextDelay always returns the same delay regardless of attempt number.
func (f FixedBackoff) NextDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	return f.Delay
}

// DefaultBackoffStrategy returns the production retry policy: exponential
// starting at one second, doubling per attempt, capped at 30s, 10% jitter.
func DefaultBackoffStrategy() BackoffStrategy {
	return ExponentialBackoff{
		InitialDelay: time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2,
		JitterFactor: 0.1,
	}
}
