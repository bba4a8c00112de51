//go:build unix

package flock_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	docerrors "github.com/lerboi/FileManagement-sub001/internal/errors"
	"github.com/lerboi/FileManagement-sub001/internal/flock"
)

func TestAcquire(t *testing.T) {
	t.Parallel()

	t.Run("acquires and releases a new lock", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "nested", "record.json.lock")

		lock, err := flock.Acquire(context.Background(), path, time.Second)
		require.NoError(t, err)
		require.NoError(t, lock.Release())
	})

	t.Run("second acquire times out while the first is held", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "record.json.lock")

		first, err := flock.Acquire(context.Background(), path, time.Second)
		require.NoError(t, err)
		defer func() { _ = first.Release() }()

		_, err = flock.Acquire(context.Background(), path, 100*time.Millisecond)
		require.Error(t, err)
		assert.True(t, errors.Is(err, docerrors.ErrLockTimeout))
	})

	t.Run("lock can be reacquired after release", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "record.json.lock")

		first, err := flock.Acquire(context.Background(), path, time.Second)
		require.NoError(t, err)
		require.NoError(t, first.Release())

		second, err := flock.Acquire(context.Background(), path, time.Second)
		require.NoError(t, err)
		require.NoError(t, second.Release())
	})

	t.Run("canceled context aborts acquisition", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := flock.Acquire(ctx, filepath.Join(t.TempDir(), "x.lock"), time.Second)
		require.ErrorIs(t, err, context.Canceled)
	})

	t.Run("release of nil lock is a no-op", func(t *testing.T) {
		t.Parallel()
		var lock *flock.Lock
		assert.NoError(t, lock.Release())
	})
}
