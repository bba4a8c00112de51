package testutil

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMockErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"ErrMockBucketUnavailable", ErrMockBucketUnavailable, "bucket unavailable"},
		{"ErrMockDiskFull", ErrMockDiskFull, "disk full"},
		{"ErrMockRedisDown", ErrMockRedisDown, "redis down"},
		{"ErrMockConnectionReset", ErrMockConnectionReset, "connection reset"},
		{"ErrMockNATSClosed", ErrMockNATSClosed, "nats: connection closed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.EqualError(t, tt.err, tt.want)
			assert.ErrorIs(t, fmt.Errorf("wrapped: %w", tt.err), tt.err)
		})
	}
}

func TestMockErrorsAreDistinct(t *testing.T) {
	all := []error{ErrMockBucketUnavailable, ErrMockDiskFull, ErrMockRedisDown, ErrMockConnectionReset, ErrMockNATSClosed}
	for i, a := range all {
		for j, b := range all {
			if i != j {
				assert.False(t, errors.Is(a, b), "%v should not match %v", a, b)
			}
		}
	}
}
