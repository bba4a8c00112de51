package flock

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	docerrors "github.com/lerboi/FileManagement-sub001/internal/errors"
)

// DefaultTimeout is the maximum duration to wait for acquiring a file lock.
const DefaultTimeout = 5 * time.Second

// retryInterval is the pause between two lock attempts.
const retryInterval = 25 * time.Millisecond

// Lock is a held exclusive lock on a lock file.
type Lock struct {
	f *os.File
}

// Acquire opens (creating if needed) the lock file at path and takes an
// exclusive lock on it. It returns ErrLockTimeout once timeout elapses.
func Acquire(ctx context.Context, path string, timeout time.Duration) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600) //#nosec G302,G304 -- lock path is built by the store
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file: %w", err)
	}

	deadline := time.Now().Add(timeout)
	for {
		if err := ctx.Err(); err != nil {
			_ = f.Close()
			return nil, err
		}

		if err := tryExclusive(f.Fd()); err == nil {
			return &Lock{f: f}, nil
		}

		if time.Now().After(deadline) {
			_ = f.Close()
			return nil, fmt.Errorf("failed to acquire lock on %s: %w", path, docerrors.ErrLockTimeout)
		}

		time.Sleep(retryInterval)
	}
}

// Release unlocks and closes the lock file. A nil lock is a no-op.
func (l *Lock) Release() error {
	if l == nil || l.f == nil {
		return nil
	}

	if err := unlock(l.f.Fd()); err != nil {
		_ = l.f.Close()
		return fmt.Errorf("failed to release lock: %w", err)
	}

	err := l.f.Close()
	l.f = nil
	return err
}
