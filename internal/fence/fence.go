// Package fence guards a task against concurrent generation runs.
//
// A caller acquires a token for a task before generating and releases it
// afterwards. While a token is held every other Acquire for the same task
// fails with ErrGenerationInProgress. Tokens expire after a TTL so a
// crashed holder cannot block a task forever.
package fence

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lerboi/FileManagement-sub001/internal/clock"
	docerrors "github.com/lerboi/FileManagement-sub001/internal/errors"
)

// Fence hands out per-task generation tokens.
type Fence interface {
	// Acquire returns a token for taskID, or ErrGenerationInProgress if a
	// live token already exists.
	Acquire(ctx context.Context, taskID string) (string, error)

	// Release drops the token if it is still the current one. Releasing an
	// expired or foreign token is a no-op.
	Release(ctx context.Context, taskID, token string) error
}

type memoryEntry struct {
	token   string
	expires time.Time
}

// Memory is an in-process Fence.
type Memory struct {
	mu      sync.Mutex
	ttl     time.Duration
	clock   clock.Clock
	entries map[string]memoryEntry
}

var _ Fence = (*Memory)(nil)

// NewMemory creates an in-process fence whose tokens live for ttl.
func NewMemory(ttl time.Duration, c clock.Clock) *Memory {
	return &Memory{
		ttl:     ttl,
		clock:   clock.OrReal(c),
		entries: make(map[string]memoryEntry),
	}
}

// Acquire implements Fence.
func (m *Memory) Acquire(ctx context.Context, taskID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	if e, ok := m.entries[taskID]; ok && now.Before(e.expires) {
		return "", docerrors.ErrGenerationInProgress
	}
	token := uuid.NewString()
	m.entries[taskID] = memoryEntry{token: token, expires: now.Add(m.ttl)}
	return token, nil
}

// Release implements Fence.
func (m *Memory) Release(_ context.Context, taskID, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.entries[taskID]; ok && e.token == token {
		delete(m.entries, taskID)
	}
	return nil
}
