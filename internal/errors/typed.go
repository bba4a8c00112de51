package errors

import (
	"errors"
	"fmt"
	"strings"
)

// TransitionError reports an illegal status change and names the statuses
// that would have been allowed from the current one.
type TransitionError struct {
	From    string
	To      string
	Allowed []string
}

// Error implements the error interface.
func (e *TransitionError) Error() string {
	allowed := "none (terminal)"
	if len(e.Allowed) > 0 {
		allowed = strings.Join(e.Allowed, ", ")
	}
	return fmt.Sprintf("%s: cannot transition from %s to %s (allowed: %s)",
		ErrInvalidTransition, e.From, e.To, allowed)
}

// Unwrap returns ErrInvalidTransition.
func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// PreconditionError aggregates every reason a task cannot be completed.
// MissingTemplates names each generated template with no signed counterpart.
type PreconditionError struct {
	Reasons          []string
	MissingTemplates []string
}

// Error implements the error interface.
func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s: %s", ErrCompletionPrecondition, strings.Join(e.Reasons, "; "))
}

// Unwrap returns ErrCompletionPrecondition.
func (e *PreconditionError) Unwrap() error {
	return ErrCompletionPrecondition
}

// Issue is one field-level validation problem.
type Issue struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Issue codes.
const (
	IssueRequired    = "required"
	IssueInvalidType = "invalid_type"
)

// ValidationError carries every validation issue found, not just the first.
type ValidationError struct {
	Issues []Issue
}

// NewValidationError builds a ValidationError from a single message.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Issues: []Issue{{Field: field, Code: "invalid", Message: message}}}
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		msgs = append(msgs, issue.Message)
	}
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(msgs, "; "))
}

// Unwrap returns ErrValidation.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// StorageError wraps an I/O failure of a record or object store.
// It matches both ErrStorage and the underlying cause.
type StorageError struct {
	Op  string
	Key string
	Err error
}

// NewStorageError wraps err, returning nil when err is nil.
func NewStorageError(op, key string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Key: key, Err: err}
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %s %s: %v", ErrStorage, e.Op, e.Key, e.Err)
}

// Unwrap exposes both the storage sentinel and the cause.
func (e *StorageError) Unwrap() []error {
	return []error{ErrStorage, e.Err}
}

// ExitCode2Error wraps an error to indicate exit code 2 should be used.
type ExitCode2Error struct {
	Err error
}

// NewExitCode2Error wraps an error to indicate exit code 2.
func NewExitCode2Error(err error) *ExitCode2Error {
	return &ExitCode2Error{Err: err}
}

// Error implements the error interface.
func (e *ExitCode2Error) Error() string {
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *ExitCode2Error) Unwrap() error {
	return e.Err
}

// IsExitCode2Error checks if an error should result in exit code 2.
func IsExitCode2Error(err error) bool {
	var e *ExitCode2Error
	return errors.As(err, &e)
}
