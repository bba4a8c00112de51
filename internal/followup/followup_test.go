package followup

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lerboi/FileManagement-sub001/internal/domain"
	docerrors "github.com/lerboi/FileManagement-sub001/internal/errors"
	"github.com/lerboi/FileManagement-sub001/internal/fence"
	"github.com/lerboi/FileManagement-sub001/internal/testutil"
)

// fakeClients is a ClientStore whose MergeClientFields fails a set number
// of times before succeeding.
type fakeClients struct {
	mu       sync.Mutex
	failures int
	failWith error
	calls    int
	merged   map[string]map[string]any
}

func (f *fakeClients) GetClient(_ context.Context, id string) (*domain.Client, error) {
	return &domain.Client{ID: id}, nil
}

func (f *fakeClients) SaveClient(_ context.Context, _ *domain.Client) error { return nil }

func (f *fakeClients) MergeClientFields(_ context.Context, id string, fields map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failures > 0 {
		f.failures--
		return f.failWith
	}
	if f.merged == nil {
		f.merged = make(map[string]map[string]any)
	}
	f.merged[id] = fields
	return nil
}

var errFlaky = testutil.ErrMockConnectionReset

func TestClientSummary(t *testing.T) {
	at := time.Date(2025, 3, 7, 12, 30, 0, 0, time.UTC)
	a := ClientSummary("task-1", "c1", at)

	assert.NotEmpty(t, a.ID)
	assert.Equal(t, KindClientSummary, a.Kind)
	assert.Equal(t, "c1", a.ClientID)
	assert.Equal(t, "task-1", a.Fields["last_completed_task_id"])
	assert.Equal(t, "2025-03-07T12:30:00Z", a.Fields["last_completed_at"])
}

func TestMemoryQueue_FIFO(t *testing.T) {
	ctx := context.Background()
	q := NewMemoryQueue()

	_, err := q.Dequeue(ctx)
	require.ErrorIs(t, err, docerrors.ErrQueueEmpty)

	require.NoError(t, q.Enqueue(ctx, Action{ID: "1"}))
	require.NoError(t, q.Enqueue(ctx, Action{ID: "2"}))
	n, err := q.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	a, err := q.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1", a.ID)
}

func TestRedisQueue(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	pool := fence.NewPool(mr.Addr())
	t.Cleanup(func() { _ = pool.Close() })
	q := NewRedisQueue(pool)

	_, err := q.Dequeue(ctx)
	require.ErrorIs(t, err, docerrors.ErrQueueEmpty)

	require.NoError(t, q.Enqueue(ctx, Action{ID: "1", Kind: KindClientSummary, ClientID: "c1"}))
	require.NoError(t, q.Enqueue(ctx, Action{ID: "2", Kind: KindClientSummary, ClientID: "c2"}))

	n, err := q.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	a, err := q.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1", a.ID)
	assert.Equal(t, "c1", a.ClientID)

	require.NoError(t, q.DeadLetter(ctx, Action{ID: "x"}))
	require.NoError(t, q.DeadLetter(ctx, Action{ID: "y"}))
	dead, err := q.Dead(ctx)
	require.NoError(t, err)
	require.Len(t, dead, 2)
	assert.Equal(t, "x", dead[0].ID)
	assert.Equal(t, "y", dead[1].ID)
}

func TestProcessor_Drain(t *testing.T) {
	tests := []struct {
		name        string
		failures    int
		failWith    error
		maxAttempts int
		wantStats   Stats
		wantCalls   int
		wantDead    bool
	}{
		{name: "applies first time", maxAttempts: 3, wantStats: Stats{Applied: 1}, wantCalls: 1},
		{name: "succeeds after retries", failures: 2, failWith: errFlaky, maxAttempts: 3, wantStats: Stats{Applied: 1}, wantCalls: 3},
		{name: "dead letters after max attempts", failures: 5, failWith: errFlaky, maxAttempts: 3, wantStats: Stats{DeadLettered: 1}, wantCalls: 3, wantDead: true},
		{name: "missing client is not retried", failures: 5, failWith: docerrors.ErrClientNotFound, maxAttempts: 3, wantStats: Stats{DeadLettered: 1}, wantCalls: 1, wantDead: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			q := NewMemoryQueue()
			clients := &fakeClients{failures: tc.failures, failWith: tc.failWith}
			p := NewProcessor(q, clients, tc.maxAttempts, zerolog.Nop(), WithBackoff(time.Millisecond))

			require.NoError(t, q.Enqueue(ctx, ClientSummary("task-1", "c1", time.Now())))

			stats, err := p.Drain(ctx)
			require.NoError(t, err)
			assert.Equal(t, tc.wantStats, stats)
			assert.Equal(t, tc.wantCalls, clients.calls)

			dead, err := q.Dead(ctx)
			require.NoError(t, err)
			if tc.wantDead {
				require.Len(t, dead, 1)
				assert.NotEmpty(t, dead[0].LastError)
				assert.Equal(t, tc.wantCalls, dead[0].Attempts)
			} else {
				assert.Empty(t, dead)
				assert.Equal(t, "task-1", clients.merged["c1"]["last_completed_task_id"])
			}

			n, err := q.Len(ctx)
			require.NoError(t, err)
			assert.Zero(t, n)
		})
	}
}

func TestProcessor_UnknownKind(t *testing.T) {
	ctx := context.Background()
	q := NewMemoryQueue()
	p := NewProcessor(q, &fakeClients{}, 3, zerolog.Nop(), WithBackoff(time.Millisecond))

	require.NoError(t, q.Enqueue(ctx, Action{ID: "a", Kind: "mystery"}))

	stats, err := p.Drain(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{DeadLettered: 1}, stats)
}

func TestProcessor_CanceledDuringBackoff(t *testing.T) {
	q := NewMemoryQueue()
	clients := &fakeClients{failures: 10, failWith: errFlaky}
	p := NewProcessor(q, clients, 5, zerolog.Nop(), WithBackoff(time.Hour))

	require.NoError(t, q.Enqueue(context.Background(), Action{ID: "a", Kind: KindClientSummary, ClientID: "c1"}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := p.Drain(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	n, err := q.Len(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n, "interrupted action is requeued")
}
