package queue_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/notifykit/notifykit/pkg/queue"
)

func TestExponentialBackoff(t *testing.T) {
	t.Parallel()

	t.Run("doubles without jitter", func(t *testing.T) {
		t.Parallel()

		b := queue.ExponentialBackoff{
			InitialDelay: time.Second,
			MaxDelay:     time.Minute,
			Multiplier:   2,
		}

		assert.Equal(t, time.Second, b.NextDelay(1))
		assert.Equal(t, 2*time.Second, b.NextDelay(2))
		assert.Equal(t, 4*time.Second, b.NextDelay(3))
		assert.Equal(t, 8*time.Second, b.NextDelay(4))
	})

	t.Run("respects max delay", func(t *testing.T) {
		t.Parallel()

		b := queue.ExponentialBackoff{
			InitialDelay: time.Second,
			MaxDelay:     5 * time.Second,
			Multiplier:   2,
		}

		assert.Equal(t, 5*time.Second, b.NextDelay(10))
	})

	t.Run("jitter stays within bounds", func(t *testing.T) {
		t.Parallel()

		b := queue.ExponentialBackoff{
			InitialDelay: time.Second,
			MaxDelay:     time.Minute,
			Multiplier:   2,
			JitterFactor: 0.1,
		}

		for i := 0; i < 50; i++ {
			d := b.NextDelay(2)
			assert.GreaterOrEqual(t, d, 1800*time.Millisecond)
			assert.LessOrEqual(t, d, 2200*time.Millisecond)
		}
	})

	t.Run("zero attempt yields zero", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, time.Duration(0), queue.ExponentialBackoff{}.NextDelay(0))
	})
}

func TestLinearBackoff(t *testing.T) {
	t.Parallel()

	b := queue.LinearBackoff{Delay: 2 * time.Second, MaxDelay: 5 * time.Second}

	assert.Equal(t, 2*time.Second, b.NextDelay(1))
	assert.Equal(t, 4*time.Second, b.NextDelay(2))
	assert.Equal(t, 5*time.Second, b.NextDelay(3))
}

func TestFixedBackoff(t *testing.T) {
	t.Parallel()

	b := queue.FixedBackoff{Delay: 3 * time.Second}

	assert.Equal(t, 3*time.Second, b.NextDelay(1))
	assert.Equal(t, 3*time.Second, b.NextDelay(9))
}
