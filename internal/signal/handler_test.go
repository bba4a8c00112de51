package signal

import (
	"context"
	"os"
	"sync/atomic"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler_FirstSignalCancels(t *testing.T) {
	h := NewHandler(context.Background(), nil)
	defer h.Stop()

	assert.NoError(t, h.Context().Err())
	assert.Nil(t, h.Signal())
	assert.Equal(t, 0, h.ExitCode())

	h.handleSignal(syscall.SIGINT)

	require.ErrorIs(t, h.Context().Err(), context.Canceled)
	select {
	case <-h.Interrupted():
	default:
		t.Fatal("interrupted channel should be closed after a signal")
	}
	assert.Equal(t, syscall.SIGINT, h.Signal())
	assert.Equal(t, 130, h.ExitCode())
}

func TestHandler_SecondSignalForces(t *testing.T) {
	var forced atomic.Int32
	h := NewHandler(context.Background(), func(os.Signal) { forced.Add(1) })
	defer h.Stop()

	h.handleSignal(syscall.SIGTERM)
	assert.Equal(t, int32(0), forced.Load())

	h.handleSignal(syscall.SIGINT)
	assert.Equal(t, int32(1), forced.Load())

	h.handleSignal(syscall.SIGINT)
	assert.Equal(t, int32(1), forced.Load(), "only the second signal forces")
	assert.Equal(t, syscall.SIGTERM, h.Signal(), "the first signal is remembered")
	assert.Equal(t, 143, h.ExitCode())
}

func TestHandler_StopCancelsWithoutInterrupt(t *testing.T) {
	h := NewHandler(context.Background(), nil)
	h.Stop()
	h.Stop()

	require.ErrorIs(t, h.Context().Err(), context.Canceled)
	select {
	case <-h.Interrupted():
		t.Fatal("Stop is not an interrupt")
	default:
	}
}

func TestHandler_ParentCancellation(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	h := NewHandler(parent, nil)
	defer h.Stop()

	cancel()
	require.ErrorIs(t, h.Context().Err(), context.Canceled)
	assert.Nil(t, h.Signal())
}
