package task

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lerboi/FileManagement-sub001/internal/constants"
	"github.com/lerboi/FileManagement-sub001/internal/domain"
	docerrors "github.com/lerboi/FileManagement-sub001/internal/errors"
)

func TestIsValidTransition(t *testing.T) {
	tests := []struct {
		name string
		from constants.TaskStatus
		to   constants.TaskStatus
		want bool
	}{
		{"draft to in_progress", constants.TaskStatusDraft, constants.TaskStatusInProgress, true},
		{"in_progress to awaiting", constants.TaskStatusInProgress, constants.TaskStatusAwaiting, true},
		{"awaiting to completed", constants.TaskStatusAwaiting, constants.TaskStatusCompleted, true},
		{"awaiting to in_progress needs retry", constants.TaskStatusAwaiting, constants.TaskStatusInProgress, false},
		{"draft to awaiting", constants.TaskStatusDraft, constants.TaskStatusAwaiting, false},
		{"in_progress to completed", constants.TaskStatusInProgress, constants.TaskStatusCompleted, false},
		{"completed to in_progress", constants.TaskStatusCompleted, constants.TaskStatusInProgress, false},
		{"completed to awaiting", constants.TaskStatusCompleted, constants.TaskStatusAwaiting, false},
		{"same status", constants.TaskStatusAwaiting, constants.TaskStatusAwaiting, false},
		{"unknown status", constants.TaskStatus("archived"), constants.TaskStatusInProgress, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidTransition(tt.from, tt.to))
		})
	}
}

func TestIsValidRetryTransition(t *testing.T) {
	assert.True(t, IsValidRetryTransition(constants.TaskStatusAwaiting, constants.TaskStatusInProgress))
	assert.True(t, IsValidRetryTransition(constants.TaskStatusInProgress, constants.TaskStatusAwaiting))
	assert.False(t, IsValidRetryTransition(constants.TaskStatusCompleted, constants.TaskStatusInProgress))
}

func TestIsTerminalStatus(t *testing.T) {
	assert.True(t, IsTerminalStatus(constants.TaskStatusCompleted))
	assert.False(t, IsTerminalStatus(constants.TaskStatusAwaiting))
	assert.Nil(t, GetValidTargetStatuses(constants.TaskStatusCompleted))
}

func TestGetValidTargetStatuses_ReturnsCopy(t *testing.T) {
	targets := GetValidTargetStatuses(constants.TaskStatusDraft)
	require.Len(t, targets, 1)
	targets[0] = constants.TaskStatusCompleted

	assert.Equal(t, []constants.TaskStatus{constants.TaskStatusInProgress}, ValidTransitions[constants.TaskStatusDraft])
}

func TestCanRetry(t *testing.T) {
	msg := "boom"
	tests := []struct {
		name string
		task *domain.Task
		want bool
	}{
		{"in_progress", &domain.Task{Status: constants.TaskStatusInProgress}, true},
		{"awaiting", &domain.Task{Status: constants.TaskStatusAwaiting}, true},
		{"draft", &domain.Task{Status: constants.TaskStatusDraft}, false},
		{"completed with generation error", &domain.Task{Status: constants.TaskStatusCompleted, GenerationError: &msg}, false},
		{"unknown status with generation error", &domain.Task{Status: "legacy", GenerationError: &msg}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanRetry(tt.task))
		})
	}
}

func TestTransition_RecordsHistory(t *testing.T) {
	at := time.Date(2025, 3, 7, 10, 0, 0, 0, time.UTC)
	task := &domain.Task{ID: "t1", Status: constants.TaskStatusDraft}

	require.NoError(t, Transition(context.Background(), task, constants.TaskStatusInProgress, "finalized", At(at)))

	assert.Equal(t, constants.TaskStatusInProgress, task.Status)
	assert.Equal(t, at, task.UpdatedAt)
	require.Len(t, task.Transitions, 1)
	assert.Equal(t, domain.Transition{
		FromStatus: constants.TaskStatusDraft,
		ToStatus:   constants.TaskStatusInProgress,
		Timestamp:  at,
		Reason:     "finalized",
	}, task.Transitions[0])
	assert.Nil(t, task.CompletedAt)
}

func TestTransition_CompletedStampsCompletedAt(t *testing.T) {
	at := time.Date(2025, 3, 7, 10, 0, 0, 0, time.UTC)
	task := &domain.Task{Status: constants.TaskStatusAwaiting}

	require.NoError(t, Transition(context.Background(), task, constants.TaskStatusCompleted, "", At(at)))
	require.NotNil(t, task.CompletedAt)
	assert.Equal(t, at, *task.CompletedAt)
}

func TestTransition_RetryEdge(t *testing.T) {
	ctx := context.Background()
	task := &domain.Task{Status: constants.TaskStatusAwaiting}

	err := Transition(ctx, task, constants.TaskStatusInProgress, "")
	require.ErrorIs(t, err, docerrors.ErrInvalidTransition)
	assert.Equal(t, constants.TaskStatusAwaiting, task.Status)
	assert.Empty(t, task.Transitions)

	require.NoError(t, Transition(ctx, task, constants.TaskStatusInProgress, "retry", AsRetry()))
	assert.Equal(t, constants.TaskStatusInProgress, task.Status)
}

func TestTransition_InvalidNamesAllowedTargets(t *testing.T) {
	task := &domain.Task{Status: constants.TaskStatusInProgress}

	err := Transition(context.Background(), task, constants.TaskStatusCompleted, "")
	var terr *docerrors.TransitionError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, "in_progress", terr.From)
	assert.Equal(t, "completed", terr.To)
	assert.Equal(t, []string{"awaiting"}, terr.Allowed)
}

func TestTransition_FromTerminal(t *testing.T) {
	task := &domain.Task{Status: constants.TaskStatusCompleted}

	err := Transition(context.Background(), task, constants.TaskStatusInProgress, "", AsRetry())
	require.ErrorIs(t, err, docerrors.ErrInvalidTransition)
	assert.Contains(t, err.Error(), "none (terminal)")
}

func TestTransition_NilAndCanceled(t *testing.T) {
	err := Transition(context.Background(), nil, constants.TaskStatusInProgress, "")
	require.ErrorIs(t, err, docerrors.ErrInvalidTransition)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = Transition(ctx, &domain.Task{Status: constants.TaskStatusDraft}, constants.TaskStatusInProgress, "")
	assert.True(t, errors.Is(err, context.Canceled))
}
