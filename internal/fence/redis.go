package fence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gomodule/redigo/redis"
	"github.com/google/uuid"

	docerrors "github.com/lerboi/FileManagement-sub001/internal/errors"
)

const keyPrefix = "docflow:fence:"

// releaseScript deletes the key only while it still holds our token.
//
//nolint:gochecknoglobals // compiled once, shared by every Redis fence
var releaseScript = redis.NewScript(1, `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis is a Fence shared by every process talking to the same Redis.
type Redis struct {
	pool *redis.Pool
	ttl  time.Duration
}

var _ Fence = (*Redis)(nil)

// NewRedis creates a fence on the Redis server at addr.
func NewRedis(addr string, ttl time.Duration) *Redis {
	return &Redis{pool: NewPool(addr), ttl: ttl}
}

// NewPool builds the connection pool used by the Redis-backed components.
func NewPool(addr string) *redis.Pool {
	return &redis.Pool{
		MaxIdle:     4,
		IdleTimeout: 5 * time.Minute,
		DialContext: func(ctx context.Context) (redis.Conn, error) {
			return redis.DialContext(ctx, "tcp", addr)
		},
	}
}

// Acquire implements Fence with SET NX PX.
func (r *Redis) Acquire(ctx context.Context, taskID string) (string, error) {
	conn, err := r.pool.GetContext(ctx)
	if err != nil {
		return "", docerrors.NewStorageError("fence_acquire", taskID, err)
	}
	defer func() { _ = conn.Close() }()

	token := uuid.NewString()
	_, err = redis.String(conn.Do("SET", keyPrefix+taskID, token, "NX", "PX", r.ttl.Milliseconds()))
	if errors.Is(err, redis.ErrNil) {
		return "", docerrors.ErrGenerationInProgress
	}
	if err != nil {
		return "", docerrors.NewStorageError("fence_acquire", taskID, err)
	}
	return token, nil
}

// Release implements Fence.
func (r *Redis) Release(ctx context.Context, taskID, token string) error {
	conn, err := r.pool.GetContext(ctx)
	if err != nil {
		return docerrors.NewStorageError("fence_release", taskID, err)
	}
	defer func() { _ = conn.Close() }()

	if _, err := releaseScript.Do(conn, keyPrefix+taskID, token); err != nil {
		return fmt.Errorf("failed to release fence for task '%s': %w", taskID, err)
	}
	return nil
}

// Close releases the connection pool.
func (r *Redis) Close() error {
	return r.pool.Close()
}
