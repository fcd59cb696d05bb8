package main

import (
	"context"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRun_StopsOnSIGTERM(t *testing.T) {
	t.Setenv("HTTP_ADDR", "127.0.0.1:0")
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("QUEUE_DRIVER", "memory")
	t.Setenv("EMAIL_PROVIDER", "dev")
	t.Setenv("EMAIL_FROM_ADDRESS", "noreply@example.com")

	done := make(chan error, 1)
	go func() { done <- run(context.Background()) }()

	// Let the server and worker pool start before signalling.
	time.Sleep(200 * time.Millisecond)

	proc, err := os.FindProcess(os.Getpid())
	require.NoError(t, err)
	require.NoError(t, proc.Signal(syscall.SIGTERM))

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not stop after SIGTERM")
	}
}
