package constants

// TaskStatus represents the state of a task in the docflow state machine.
// Status values use snake_case for JSON serialization compatibility.
type TaskStatus string

// Task status constants define the valid states a task can be in.
// These follow the lifecycle:
//
//	Draft → InProgress
//	InProgress → Awaiting
//	Awaiting → Completed, InProgress (retry only)
const (
	// TaskStatusDraft indicates a task was created but not yet finalized.
	TaskStatusDraft TaskStatus = "draft"

	// TaskStatusInProgress indicates documents are being generated or the
	// last generation attempt produced nothing usable.
	TaskStatusInProgress TaskStatus = "in_progress"

	// TaskStatusAwaiting indicates at least one document was generated and
	// the task is waiting for signed copies.
	TaskStatusAwaiting TaskStatus = "awaiting"

	// TaskStatusCompleted indicates signed copies were collected. Terminal.
	TaskStatusCompleted TaskStatus = "completed"
)

// String returns the string representation of the TaskStatus.
func (s TaskStatus) String() string {
	return string(s)
}

// DocumentStatus represents the state of one generated document.
type DocumentStatus string

// Document status constants.
const (
	DocumentStatusPending   DocumentStatus = "pending"
	DocumentStatusGenerated DocumentStatus = "generated"
	DocumentStatusFailed    DocumentStatus = "failed"
)

// String returns the string representation of the DocumentStatus.
func (s DocumentStatus) String() string {
	return string(s)
}

// TemplateStatus represents the publication state of a template.
// Only active templates may be rendered.
type TemplateStatus string

// Template status constants.
const (
	TemplateStatusDraft    TemplateStatus = "draft"
	TemplateStatusActive   TemplateStatus = "active"
	TemplateStatusArchived TemplateStatus = "archived"
)

// String returns the string representation of the TemplateStatus.
func (s TemplateStatus) String() string {
	return string(s)
}

// FieldType is the declared type of a data field or custom field.
type FieldType string

// Field type constants. Types other than these are accepted and treated as text.
const (
	FieldTypeText   FieldType = "text"
	FieldTypeEmail  FieldType = "email"
	FieldTypeNumber FieldType = "number"
	FieldTypeDate   FieldType = "date"
	FieldTypeSelect FieldType = "select"
)

// String returns the string representation of the FieldType.
func (t FieldType) String() string {
	return string(t)
}
