// Package task provides the task lifecycle for docflow.
//
// This file implements the task state machine, which enforces valid state
// transitions and keeps an audit trail of every status change.
//
// Import rules:
//   - CAN import: internal/constants, internal/domain, internal/errors, std lib
//   - MUST NOT import: internal/cli
package task

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/lerboi/FileManagement-sub001/internal/constants"
	"github.com/lerboi/FileManagement-sub001/internal/domain"
	docerrors "github.com/lerboi/FileManagement-sub001/internal/errors"
)

// ValidTransitions defines the forward transitions of the task lifecycle.
// Format: from_status -> []to_statuses
//
//	Draft → InProgress
//	InProgress → Awaiting
//	Awaiting → Completed
//
// Completed is terminal.
//
//nolint:gochecknoglobals // Exported for testing and read-only lookup table
var ValidTransitions = map[constants.TaskStatus][]constants.TaskStatus{
	constants.TaskStatusDraft:      {constants.TaskStatusInProgress},
	constants.TaskStatusInProgress: {constants.TaskStatusAwaiting},
	constants.TaskStatusAwaiting:   {constants.TaskStatusCompleted},
}

// RetryTransitions are only taken through an explicit retry or regeneration.
//
//	Awaiting → InProgress
//
//nolint:gochecknoglobals // read-only lookup table
var RetryTransitions = map[constants.TaskStatus][]constants.TaskStatus{
	constants.TaskStatusAwaiting: {constants.TaskStatusInProgress},
}

// IsValidTransition checks if a forward transition is allowed.
// Returns false for transitions from terminal states or to the same state.
func IsValidTransition(from, to constants.TaskStatus) bool {
	if from == to {
		return false
	}
	return slices.Contains(ValidTransitions[from], to)
}

// IsValidRetryTransition checks if a transition is allowed when retrying.
// Every forward transition is also valid during a retry.
func IsValidRetryTransition(from, to constants.TaskStatus) bool {
	return IsValidTransition(from, to) || slices.Contains(RetryTransitions[from], to)
}

// IsTerminalStatus returns true for states where no further transitions are allowed.
func IsTerminalStatus(status constants.TaskStatus) bool {
	return status == constants.TaskStatusCompleted
}

// CanRetry reports whether a task may be reset and regenerated. Drafts
// must be finalized first and completed tasks are closed.
func CanRetry(t *domain.Task) bool {
	switch t.Status {
	case constants.TaskStatusInProgress, constants.TaskStatusAwaiting:
		return true
	case constants.TaskStatusDraft, constants.TaskStatusCompleted:
		return false
	default:
		return t.GenerationError != nil
	}
}

// GetValidTargetStatuses returns all forward target statuses for a given status.
// Returns nil for terminal states or unknown statuses.
func GetValidTargetStatuses(from constants.TaskStatus) []constants.TaskStatus {
	targets, exists := ValidTransitions[from]
	if !exists {
		return nil
	}
	result := make([]constants.TaskStatus, len(targets))
	copy(result, targets)
	return result
}

type transitionOptions struct {
	retry bool
	at    time.Time
}

// TransitionOption adjusts a single Transition call.
type TransitionOption func(*transitionOptions)

// AsRetry also permits RetryTransitions.
func AsRetry() TransitionOption {
	return func(o *transitionOptions) { o.retry = true }
}

// At stamps the transition with t instead of the current time.
func At(t time.Time) TransitionOption {
	return func(o *transitionOptions) { o.at = t }
}

// Transition validates and applies a state transition to the task.
// It records the transition in the task's history and updates timestamps.
// The caller is responsible for persisting the updated task.
//
// Returns an error if ctx is canceled, task is nil, or the transition is
// invalid (a *errors.TransitionError naming the allowed targets).
func Transition(ctx context.Context, task *domain.Task, to constants.TaskStatus, reason string, opts ...TransitionOption) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if task == nil {
		return fmt.Errorf("%w: task is nil", docerrors.ErrInvalidTransition)
	}

	var o transitionOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.at.IsZero() {
		o.at = time.Now().UTC()
	}

	from := task.Status
	valid := IsValidTransition(from, to)
	if o.retry {
		valid = IsValidRetryTransition(from, to)
	}
	if !valid {
		return transitionError(from, to, o.retry)
	}

	task.Transitions = append(task.Transitions, domain.Transition{
		FromStatus: from,
		ToStatus:   to,
		Timestamp:  o.at,
		Reason:     reason,
	})
	task.Status = to
	task.UpdatedAt = o.at

	if IsTerminalStatus(to) {
		completed := o.at
		task.CompletedAt = &completed
	}
	return nil
}

func transitionError(from, to constants.TaskStatus, retry bool) *docerrors.TransitionError {
	targets := GetValidTargetStatuses(from)
	if retry {
		targets = append(targets, RetryTransitions[from]...)
	}
	allowed := make([]string, 0, len(targets))
	for _, s := range targets {
		allowed = append(allowed, s.String())
	}
	return &docerrors.TransitionError{From: from.String(), To: to.String(), Allowed: allowed}
}
