package channel_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/notifykit/notifykit/pkg/channel"
)

type stubChannel struct {
	name   string
	result channel.Result
}

func (s *stubChannel) Name() string { return s.name }

func (s *stubChannel) Send(ctx context.Context, params channel.Params) channel.Result {
	return s.result
}

func (s *stubChannel) IsAvailable(ctx context.Context) bool { return true }

func (s *stubChannel) ValidateRecipient(recipient channel.Recipient) bool { return true }

func TestRegistry_Register(t *testing.T) {
	t.Parallel()

	reg := channel.NewRegistry()

	require.NoError(t, reg.Register(&stubChannel{name: "email"}))
	require.True(t, reg.Has("email"))

	err := reg.Register(&stubChannel{name: "email"})
	require.ErrorIs(t, err, channel.ErrChannelExists)

	err = reg.Register(nil)
	require.ErrorIs(t, err, channel.ErrInvalidConfig)

	err = reg.Register(&stubChannel{name: ""})
	require.ErrorIs(t, err, channel.ErrInvalidConfig)
}

func TestRegistry_Get(t *testing.T) {
	t.Parallel()

	reg := channel.NewRegistry()
	stub := &stubChannel{name: "sms"}
	require.NoError(t, reg.Register(stub))

	got, err := reg.Get("sms")
	require.NoError(t, err)
	require.Same(t, stub, got)

	_, err = reg.Get("push")
	require.ErrorIs(t, err, channel.ErrChannelNotFound)
	require.False(t, reg.Has("push"))
}

func TestRegistry_List(t *testing.T) {
	t.Parallel()

	reg := channel.NewRegistry()
	require.Empty(t, reg.List())

	require.NoError(t, reg.Register(&stubChannel{name: "webhook"}))
	require.NoError(t, reg.Register(&stubChannel{name: "email"}))
	require.NoError(t, reg.Register(&stubChannel{name: "sms"}))

	require.Equal(t, []string{"email", "sms", "webhook"}, reg.List())
}
