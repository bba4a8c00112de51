// Package errors provides centralized error handling for docflow.
//
// This package defines sentinel errors used for programmatic error categorization
// throughout the application. All error types can be checked using errors.Is(),
// and the structured errors in typed.go can be extracted with errors.As().
//
// IMPORTANT: This package MUST NOT import any other internal packages.
// Only standard library imports are allowed.
package errors

import "errors"

// Sentinel errors for error categorization.
var (
	// ErrValidation indicates bad or missing input, or failed required-field checks.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound indicates a task, template, client or service does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidTransition indicates an attempt to make an invalid state transition.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrPartialGeneration indicates some templates failed to render while
	// others succeeded. The task remains usable.
	ErrPartialGeneration = errors.New("partial generation failure")

	// ErrTotalGeneration indicates every template of a task failed to render.
	ErrTotalGeneration = errors.New("total generation failure")

	// ErrCompletionPrecondition indicates a task cannot be completed yet.
	ErrCompletionPrecondition = errors.New("completion precondition not met")

	// ErrStorage indicates a record or object store I/O failure.
	ErrStorage = errors.New("storage error")

	// ErrMigrationConflict indicates an ambiguous or unresolved rename decision.
	ErrMigrationConflict = errors.New("migration conflict")

	// ErrMigrationFailed indicates that no template of a migration plan could be migrated.
	ErrMigrationFailed = errors.New("migration failed")

	// ErrGenerationInProgress indicates another generate or retry call holds
	// the generation token of the same task.
	ErrGenerationInProgress = errors.New("generation already in progress")

	// ErrVersionConflict indicates a record was modified since it was read.
	ErrVersionConflict = errors.New("record version conflict")

	// ErrAlreadyExists indicates an attempt to create a record that already exists.
	ErrAlreadyExists = errors.New("record already exists")

	// ErrRender indicates the render capability failed for a template.
	ErrRender = errors.New("render failed")

	// ErrLockTimeout indicates a file lock could not be acquired within the timeout period.
	ErrLockTimeout = errors.New("lock acquisition timeout")

	// ErrPathTraversal indicates an attempt to use path traversal in an object key.
	ErrPathTraversal = errors.New("path traversal detected")

	// ErrEmptyValue indicates that a required value was empty.
	ErrEmptyValue = errors.New("value cannot be empty")

	// ErrQueueEmpty indicates there is no follow-up action to process.
	ErrQueueEmpty = errors.New("follow-up queue is empty")

	// ErrConfigNil indicates that a nil config was passed to validation.
	ErrConfigNil = errors.New("config is nil")

	// ErrConfigInvalidStorage indicates an invalid storage configuration value.
	ErrConfigInvalidStorage = errors.New("invalid storage configuration")

	// ErrConfigInvalidGeneration indicates an invalid generation configuration value.
	ErrConfigInvalidGeneration = errors.New("invalid generation configuration")

	// ErrConfigInvalidFence indicates an invalid fence configuration value.
	ErrConfigInvalidFence = errors.New("invalid fence configuration")

	// ErrConfigInvalidFollowUp indicates an invalid follow-up configuration value.
	ErrConfigInvalidFollowUp = errors.New("invalid followup configuration")

	// ErrConfigInvalidEvents indicates an invalid events configuration value.
	ErrConfigInvalidEvents = errors.New("invalid events configuration")

	// ErrConfigInvalidSchema indicates an invalid schema configuration value.
	ErrConfigInvalidSchema = errors.New("invalid schema configuration")

	// ErrInvalidOutputFormat indicates an invalid output format was specified.
	ErrInvalidOutputFormat = errors.New("invalid output format")

	// ErrInvalidArgument indicates that an invalid argument was provided.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrMenuCanceled indicates the user canceled an interactive prompt.
	ErrMenuCanceled = errors.New("menu canceled")

	// ErrNoMenuOptions indicates a selection menu was built without options.
	ErrNoMenuOptions = errors.New("no menu options")
)

// Entity-specific not-found errors. Each wraps ErrNotFound, so
// errors.Is(err, ErrNotFound) holds for all of them.
var (
	ErrTaskNotFound     = &notFound{kind: "task"}
	ErrTemplateNotFound = &notFound{kind: "template"}
	ErrClientNotFound   = &notFound{kind: "client"}
	ErrServiceNotFound  = &notFound{kind: "service"}
	ErrObjectNotFound   = &notFound{kind: "object"}
)

type notFound struct {
	kind string
}

func (e *notFound) Error() string { return e.kind + " not found" }

func (e *notFound) Unwrap() error { return ErrNotFound }
