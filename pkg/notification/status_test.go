package notification_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notifykit/notifykit/pkg/notification"
)

func TestStatus_CanTransition(t *testing.T) {
	t.Parallel()

	allowed := []struct {
		from, to notification.Status
	}{
		{notification.StatusPending, notification.StatusQueued},
		{notification.StatusPending, notification.StatusProcessing},
		{notification.StatusPending, notification.StatusCancelled},
		{notification.StatusQueued, notification.StatusProcessing},
		{notification.StatusQueued, notification.StatusCancelled},
		{notification.StatusProcessing, notification.StatusSent},
		{notification.StatusProcessing, notification.StatusFailed},
		{notification.StatusProcessing, notification.StatusCancelled},
		// Last write wins when several channel jobs update one notification.
		{notification.StatusSent, notification.StatusProcessing},
		{notification.StatusFailed, notification.StatusProcessing},
		{notification.StatusFailed, notification.StatusSent},
	}
	for _, tc := range allowed {
		assert.True(t, tc.from.CanTransition(tc.to), "%s -> %s", tc.from, tc.to)
	}

	forbidden := []struct {
		from, to notification.Status
	}{
		{notification.StatusQueued, notification.StatusPending},
		{notification.StatusProcessing, notification.StatusQueued},
		{notification.StatusSent, notification.StatusPending},
		{notification.StatusSent, notification.StatusQueued},
		{notification.StatusSent, notification.StatusCancelled},
		{notification.StatusFailed, notification.StatusCancelled},
		{notification.StatusCancelled, notification.StatusProcessing},
		{notification.StatusCancelled, notification.StatusSent},
		{notification.StatusCancelled, notification.StatusFailed},
		{notification.StatusCancelled, notification.StatusQueued},
	}
	for _, tc := range forbidden {
		assert.False(t, tc.from.CanTransition(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestStatus_SameStateIsIdempotent(t *testing.T) {
	t.Parallel()

	for _, s := range []notification.Status{
		notification.StatusPending,
		notification.StatusQueued,
		notification.StatusProcessing,
		notification.StatusSent,
		notification.StatusFailed,
	} {
		assert.True(t, s.CanTransition(s), string(s))
	}

	// A cancelled record accepts no write, a repeated cancel included.
	assert.False(t, notification.StatusCancelled.CanTransition(notification.StatusCancelled))
}

func TestStatus_Transition(t *testing.T) {
	t.Parallel()

	require.NoError(t, notification.StatusPending.Transition(notification.StatusQueued))

	err := notification.StatusCancelled.Transition(notification.StatusSent)
	require.ErrorIs(t, err, notification.ErrInvalidTransition)

	err = notification.StatusPending.Transition(notification.Status("bogus"))
	require.ErrorIs(t, err, notification.ErrInvalidStatus)
}

func TestStatus_Terminal(t *testing.T) {
	t.Parallel()

	assert.True(t, notification.StatusCancelled.Terminal())
	assert.False(t, notification.StatusSent.Terminal())
	assert.False(t, notification.StatusFailed.Terminal())
	assert.False(t, notification.StatusProcessing.Terminal())
}
