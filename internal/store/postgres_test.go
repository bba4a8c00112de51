package store

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lerboi/FileManagement-sub001/internal/constants"
	"github.com/lerboi/FileManagement-sub001/internal/domain"
	docerrors "github.com/lerboi/FileManagement-sub001/internal/errors"
)

// newPostgresStore connects to DOCFLOW_TEST_POSTGRES_DSN or skips.
func newPostgresStore(t *testing.T) *PostgresStore {
	t.Helper()
	dsn := os.Getenv("DOCFLOW_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("DOCFLOW_TEST_POSTGRES_DSN not set")
	}
	s, err := NewPostgresStore(context.Background(), dsn, nil, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestNewPostgresStore_EmptyDSN(t *testing.T) {
	_, err := NewPostgresStore(context.Background(), "", nil, zerolog.Nop())
	require.ErrorIs(t, err, docerrors.ErrEmptyValue)
}

func TestPostgresStore_TaskVersioning(t *testing.T) {
	s := newPostgresStore(t)
	ctx := context.Background()
	id := "task-" + uuid.NewString()
	t.Cleanup(func() { _ = s.DeleteTask(context.Background(), id) })

	task := newTask(id, "c-"+id, constants.TaskStatusDraft)
	require.NoError(t, s.CreateTask(ctx, task))
	require.ErrorIs(t, s.CreateTask(ctx, newTask(id, "c", constants.TaskStatusDraft)), docerrors.ErrAlreadyExists)

	stale, err := s.GetTask(ctx, id)
	require.NoError(t, err)

	task.Status = constants.TaskStatusInProgress
	require.NoError(t, s.UpdateTask(ctx, task))
	assert.Equal(t, int64(2), task.Version)

	err = s.UpdateTask(ctx, stale)
	require.ErrorIs(t, err, docerrors.ErrVersionConflict)
	assert.Equal(t, int64(1), stale.Version)

	tasks, err := s.ListTasks(ctx, TaskFilter{ClientID: "c-" + id, Status: constants.TaskStatusInProgress})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, id, tasks[0].ID)
}

func TestPostgresStore_NotFound(t *testing.T) {
	s := newPostgresStore(t)
	ctx := context.Background()

	_, err := s.GetTask(ctx, "missing-"+uuid.NewString())
	require.ErrorIs(t, err, docerrors.ErrTaskNotFound)

	ghost := newTask("ghost-"+uuid.NewString(), "c", constants.TaskStatusDraft)
	ghost.Version = 1
	require.ErrorIs(t, s.UpdateTask(ctx, ghost), docerrors.ErrTaskNotFound)
}

func TestPostgresStore_MergeClientFields(t *testing.T) {
	s := newPostgresStore(t)
	ctx := context.Background()
	id := "client-" + uuid.NewString()

	require.NoError(t, s.SaveClient(ctx, &domain.Client{ID: id, Fields: map[string]any{"first_name": "Ada"}}))
	require.NoError(t, s.MergeClientFields(ctx, id, map[string]any{"last_task_id": "t-1"}))

	got, err := s.GetClient(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.Fields["first_name"])
	assert.Equal(t, "t-1", got.Fields["last_task_id"])
}
