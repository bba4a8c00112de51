// Package testutil provides testing utilities for docflow.
//
// This package contains mock errors shared by store, queue and transport
// fakes. It should only be imported by test files (*_test.go).
package testutil

import "errors"

// Mock errors for testing purposes.
var (
	// ErrMockBucketUnavailable simulates an object store write failure.
	ErrMockBucketUnavailable = errors.New("bucket unavailable")

	// ErrMockDiskFull simulates a local write failure.
	ErrMockDiskFull = errors.New("disk full")

	// ErrMockRedisDown simulates an unreachable Redis server.
	ErrMockRedisDown = errors.New("redis down")

	// ErrMockConnectionReset simulates a transient network failure.
	ErrMockConnectionReset = errors.New("connection reset")

	// ErrMockNATSClosed simulates a closed NATS connection.
	ErrMockNATSClosed = errors.New("nats: connection closed")
)
