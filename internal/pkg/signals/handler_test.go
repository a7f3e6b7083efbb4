package signals

import (
	"context"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupHandler_CancelsContextOnSignal(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cleanup := SetupHandler(ctx, cancel)
	defer cleanup()

	// Send SIGTERM to ourselves
	proc, err := os.FindProcess(os.Getpid())
	require.NoError(t, err)
	require.NoError(t, proc.Signal(syscall.SIGTERM))

	select {
	case <-ctx.Done():
	case <-time.After(1 * time.Second):
		t.Fatal("Context was not cancelled after signal")
	}
}

func TestSetupHandler_CleanupAfterCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	cleanup := SetupHandler(ctx, cancel)
	cancel()

	assert.NotPanics(t, cleanup)
}

func TestSetupHandler_CleanupWithoutSignal(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cleanup := SetupHandler(ctx, cancel)
	assert.NotPanics(t, cleanup)
	assert.Error(t, ctx.Err(), "cleanup cancels the context")
}
