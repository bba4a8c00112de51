package followup

import (
	"context"
	"sync"

	docerrors "github.com/lerboi/FileManagement-sub001/internal/errors"
)

// Queue stores pending and dead-lettered actions.
type Queue interface {
	// Enqueue appends an action to the pending list.
	Enqueue(ctx context.Context, a Action) error

	// Dequeue removes and returns the oldest pending action, or
	// ErrQueueEmpty.
	Dequeue(ctx context.Context) (Action, error)

	// DeadLetter records an action that will not be retried.
	DeadLetter(ctx context.Context, a Action) error

	// Dead returns every dead-lettered action, oldest first.
	Dead(ctx context.Context) ([]Action, error)

	// Len reports the number of pending actions.
	Len(ctx context.Context) (int, error)
}

// MemoryQueue is an in-process Queue.
type MemoryQueue struct {
	mu      sync.Mutex
	pending []Action
	dead    []Action
}

var _ Queue = (*MemoryQueue)(nil)

// NewMemoryQueue creates an empty in-process queue.
func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{}
}

// Enqueue implements Queue.
func (q *MemoryQueue) Enqueue(ctx context.Context, a Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = append(q.pending, a)
	return nil
}

// Dequeue implements Queue.
func (q *MemoryQueue) Dequeue(ctx context.Context) (Action, error) {
	if err := ctx.Err(); err != nil {
		return Action{}, err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return Action{}, docerrors.ErrQueueEmpty
	}
	a := q.pending[0]
	q.pending = q.pending[1:]
	return a, nil
}

// DeadLetter implements Queue.
func (q *MemoryQueue) DeadLetter(_ context.Context, a Action) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.dead = append(q.dead, a)
	return nil
}

// Dead implements Queue.
func (q *MemoryQueue) Dead(_ context.Context) ([]Action, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Action, len(q.dead))
	copy(out, q.dead)
	return out, nil
}

// Len implements Queue.
func (q *MemoryQueue) Len(_ context.Context) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending), nil
}
