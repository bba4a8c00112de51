package domain

import "github.com/lerboi/FileManagement-sub001/internal/constants"

// Re-export status types from constants so consumers can import domain
// types and status types together.
type (
	// TaskStatus represents the state of a task in the lifecycle state machine.
	TaskStatus = constants.TaskStatus

	// DocumentStatus represents the state of one generated document.
	DocumentStatus = constants.DocumentStatus

	// TemplateStatus represents the publication state of a template.
	TemplateStatus = constants.TemplateStatus
)

// Re-export TaskStatus constants for convenience.
const (
	TaskStatusDraft      = constants.TaskStatusDraft
	TaskStatusInProgress = constants.TaskStatusInProgress
	TaskStatusAwaiting   = constants.TaskStatusAwaiting
	TaskStatusCompleted  = constants.TaskStatusCompleted
)

// Re-export DocumentStatus constants for convenience.
const (
	DocumentStatusPending   = constants.DocumentStatusPending
	DocumentStatusGenerated = constants.DocumentStatusGenerated
	DocumentStatusFailed    = constants.DocumentStatusFailed
)
