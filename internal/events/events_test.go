package events

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lerboi/FileManagement-sub001/internal/testutil"
)

func TestBus_PublishSubscribe(t *testing.T) {
	bus := NewBus(10, zerolog.Nop())
	defer bus.Close()

	received := make(chan Event, 1)
	unsub := bus.Subscribe(EventTaskCreated, func(e Event) { received <- e })
	defer unsub()

	require.NoError(t, bus.Publish(context.Background(), New(EventTaskCreated, map[string]any{"task_id": "task-1"})))

	select {
	case e := <-received:
		assert.Equal(t, EventTaskCreated, e.Type)
		assert.Equal(t, "task-1", e.Data["task_id"])
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestBus_OnlyMatchingType(t *testing.T) {
	bus := NewBus(10, zerolog.Nop())
	defer bus.Close()

	var mu sync.Mutex
	var got []EventType
	unsub := bus.Subscribe(EventTaskCompleted, func(e Event) {
		mu.Lock()
		got = append(got, e.Type)
		mu.Unlock()
	})
	defer unsub()

	ctx := context.Background()
	require.NoError(t, bus.Publish(ctx, New(EventTaskCreated, nil)))
	require.NoError(t, bus.Publish(ctx, New(EventTaskCompleted, nil)))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	}, time.Second, 5*time.Millisecond)
	mu.Lock()
	assert.Equal(t, []EventType{EventTaskCompleted}, got)
	mu.Unlock()
}

func TestBus_SubscriberPanicDoesNotStopDelivery(t *testing.T) {
	bus := NewBus(10, zerolog.Nop())
	defer bus.Close()

	received := make(chan struct{}, 2)
	first := true
	unsub := bus.Subscribe(EventTaskGenerated, func(Event) {
		if first {
			first = false
			panic("boom")
		}
		received <- struct{}{}
	})
	defer unsub()

	ctx := context.Background()
	require.NoError(t, bus.Publish(ctx, New(EventTaskGenerated, nil)))
	require.NoError(t, bus.Publish(ctx, New(EventTaskGenerated, nil)))

	select {
	case <-received:
	case <-time.After(time.Second):
		t.Fatal("second event not delivered after panic")
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus(10, zerolog.Nop())
	defer bus.Close()

	unsub := bus.Subscribe(EventTaskCreated, func(Event) {})
	unsub()

	bus.mu.RLock()
	defer bus.mu.RUnlock()
	assert.Empty(t, bus.subscribers[EventTaskCreated])
}

type fakeConn struct {
	subjects []string
	payloads [][]byte
	err      error
	drained  bool
}

func (f *fakeConn) Publish(subject string, data []byte) error {
	if f.err != nil {
		return f.err
	}
	f.subjects = append(f.subjects, subject)
	f.payloads = append(f.payloads, data)
	return nil
}

func (f *fakeConn) Drain() error {
	f.drained = true
	return nil
}

func TestNATSPublisher_Publish(t *testing.T) {
	conn := &fakeConn{}
	p := &NATSPublisher{conn: conn, prefix: "docflow"}

	e := New(EventTemplateMigrated, map[string]any{"template_id": "nda"})
	require.NoError(t, p.Publish(context.Background(), e))

	require.Len(t, conn.subjects, 1)
	assert.Equal(t, "docflow.template.migrated", conn.subjects[0])

	var decoded Event
	require.NoError(t, json.Unmarshal(conn.payloads[0], &decoded))
	assert.Equal(t, EventTemplateMigrated, decoded.Type)
	assert.Equal(t, "nda", decoded.Data["template_id"])

	require.NoError(t, p.Close())
	assert.True(t, conn.drained)
}

func TestNATSPublisher_Errors(t *testing.T) {
	conn := &fakeConn{err: testutil.ErrMockNATSClosed}
	p := &NATSPublisher{conn: conn}

	err := p.Publish(context.Background(), New(EventTaskCreated, nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "task.created")
	assert.Equal(t, "task.created", p.Subject(EventTaskCreated))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, p.Publish(ctx, New(EventTaskCreated, nil)), context.Canceled)
}

func TestNewNATSPublisher_Unreachable(t *testing.T) {
	_, err := NewNATSPublisher("nats://127.0.0.1:1", "docflow")
	require.Error(t, err)
}
