package followup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gomodule/redigo/redis"

	docerrors "github.com/lerboi/FileManagement-sub001/internal/errors"
)

// Redis list keys. New actions are pushed on the left and popped from the
// right, so both lists read oldest first with LRANGE from the right end.
const (
	pendingKey = "docflow:followup:pending"
	deadKey    = "docflow:followup:dead"
)

// RedisQueue is a Queue shared across processes through Redis lists.
type RedisQueue struct {
	pool *redis.Pool
}

var _ Queue = (*RedisQueue)(nil)

// NewRedisQueue creates a queue on the given pool.
func NewRedisQueue(pool *redis.Pool) *RedisQueue {
	return &RedisQueue{pool: pool}
}

// Enqueue implements Queue.
func (q *RedisQueue) Enqueue(ctx context.Context, a Action) error {
	return q.push(ctx, pendingKey, a)
}

// Dequeue implements Queue.
func (q *RedisQueue) Dequeue(ctx context.Context) (Action, error) {
	conn, err := q.pool.GetContext(ctx)
	if err != nil {
		return Action{}, docerrors.NewStorageError("dequeue", pendingKey, err)
	}
	defer func() { _ = conn.Close() }()

	raw, err := redis.Bytes(conn.Do("RPOP", pendingKey))
	if errors.Is(err, redis.ErrNil) {
		return Action{}, docerrors.ErrQueueEmpty
	}
	if err != nil {
		return Action{}, docerrors.NewStorageError("dequeue", pendingKey, err)
	}

	var a Action
	if err := json.Unmarshal(raw, &a); err != nil {
		return Action{}, fmt.Errorf("failed to decode follow-up action: %w", err)
	}
	return a, nil
}

// DeadLetter implements Queue.
func (q *RedisQueue) DeadLetter(ctx context.Context, a Action) error {
	return q.push(ctx, deadKey, a)
}

// Dead implements Queue.
func (q *RedisQueue) Dead(ctx context.Context) ([]Action, error) {
	conn, err := q.pool.GetContext(ctx)
	if err != nil {
		return nil, docerrors.NewStorageError("dead", deadKey, err)
	}
	defer func() { _ = conn.Close() }()

	items, err := redis.ByteSlices(conn.Do("LRANGE", deadKey, 0, -1))
	if err != nil {
		return nil, docerrors.NewStorageError("dead", deadKey, err)
	}

	out := make([]Action, 0, len(items))
	for i := len(items) - 1; i >= 0; i-- {
		var a Action
		if err := json.Unmarshal(items[i], &a); err != nil {
			return nil, fmt.Errorf("failed to decode dead-lettered action: %w", err)
		}
		out = append(out, a)
	}
	return out, nil
}

// Len implements Queue.
func (q *RedisQueue) Len(ctx context.Context) (int, error) {
	conn, err := q.pool.GetContext(ctx)
	if err != nil {
		return 0, docerrors.NewStorageError("len", pendingKey, err)
	}
	defer func() { _ = conn.Close() }()

	n, err := redis.Int(conn.Do("LLEN", pendingKey))
	if err != nil {
		return 0, docerrors.NewStorageError("len", pendingKey, err)
	}
	return n, nil
}

func (q *RedisQueue) push(ctx context.Context, key string, a Action) error {
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("failed to encode follow-up action: %w", err)
	}

	conn, err := q.pool.GetContext(ctx)
	if err != nil {
		return docerrors.NewStorageError("push", key, err)
	}
	defer func() { _ = conn.Close() }()

	if _, err := conn.Do("LPUSH", key, data); err != nil {
		return docerrors.NewStorageError("push", key, err)
	}
	return nil
}
