// Package flock provides cross-platform file locking for the file-backed stores.
//
// Record files are guarded by a sibling ".lock" file. Acquire retries a
// non-blocking exclusive lock until it succeeds, the context is done or the
// timeout elapses:
//
//	lock, err := flock.Acquire(ctx, path+".lock", flock.DefaultTimeout)
//	if err != nil {
//	    return err
//	}
//	defer func() { _ = lock.Release() }()
package flock
