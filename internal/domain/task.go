// Package domain provides shared domain types for the docflow document engine.
// These types are used across all internal packages to ensure consistent data structures.
//
// This package follows strict import rules:
//   - CAN import: internal/constants, internal/errors, standard library
//   - MUST NOT import: any other internal packages
//
// All JSON field names use snake_case.
package domain

import (
	"time"

	"github.com/lerboi/FileManagement-sub001/internal/constants"
)

// Task pairs one client with one service's template bundle and tracks it
// from creation to collected signatures.
//
// Example JSON representation:
//
//	{
//	    "id": "6f0c1a52-6f6e-4a53-9d0f-3b1d7c2e9a10",
//	    "status": "awaiting",
//	    "is_draft": false,
//	    "client_id": "client-42",
//	    "service_id": "incorporation",
//	    "template_ids": ["articles", "bylaws"],
//	    "generated_documents": [...],
//	    "signed_documents": [],
//	    "created_at": "2025-12-27T10:00:00Z",
//	    "updated_at": "2025-12-27T10:05:00Z",
//	    "version": 3,
//	    "schema_version": "1.0"
//	}
type Task struct {
	// ID is the unique identifier for the task (a UUID).
	ID string `json:"id"`

	// Status is the current state in the task lifecycle.
	Status constants.TaskStatus `json:"status"`

	// IsDraft is true until the task is finalized.
	IsDraft bool `json:"is_draft"`

	ClientID  string `json:"client_id"`
	ServiceID string `json:"service_id"`

	// TemplateIDs is the service's template list captured at creation.
	// Later edits to the service never change it.
	TemplateIDs []string `json:"template_ids"`

	// CustomFieldValues holds task-level inputs keyed by canonical field key.
	CustomFieldValues map[string]string `json:"custom_field_values,omitempty"`

	// GeneratedDocuments holds at most one entry per template id.
	GeneratedDocuments []GeneratedDocument `json:"generated_documents"`

	SignedDocuments []SignedDocument `json:"signed_documents"`
	AdditionalFiles []AdditionalFile `json:"additional_files,omitempty"`

	// GenerationError summarizes the failures of the last generation run.
	// Nil when the last run fully succeeded or no run happened yet.
	GenerationError *string `json:"generation_error"`

	Notes      string `json:"notes,omitempty"`
	Priority   string `json:"priority,omitempty"`
	AssignedTo string `json:"assigned_to,omitempty"`

	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
	CompletedAt           *time.Time `json:"completed_at,omitempty"`
	GenerationCompletedAt *time.Time `json:"generation_completed_at,omitempty"`

	// Transitions is the audit trail of every status change.
	Transitions []Transition `json:"transitions,omitempty"`

	// Version is incremented on every save and checked on update.
	Version int64 `json:"version"`

	// SchemaVersion indicates the version of the Task struct schema.
	SchemaVersion string `json:"schema_version"`
}

// Transition records one status change of a task.
type Transition struct {
	FromStatus constants.TaskStatus `json:"from_status"`
	ToStatus   constants.TaskStatus `json:"to_status"`
	Timestamp  time.Time            `json:"timestamp"`
	Reason     string               `json:"reason,omitempty"`
}

// GeneratedDocument is the rendered output for one (task, template) pair.
type GeneratedDocument struct {
	TemplateID   string                   `json:"template_id"`
	TemplateName string                   `json:"template_name"`
	FileName     string                   `json:"file_name"`
	Status       constants.DocumentStatus `json:"status"`
	StoragePath  string                   `json:"storage_path,omitempty"`
	GeneratedAt  *time.Time               `json:"generated_at,omitempty"`
	Error        string                   `json:"error,omitempty"`
}

// IsGenerated reports whether the document rendered and was stored.
func (d GeneratedDocument) IsGenerated() bool {
	return d.Status == constants.DocumentStatusGenerated
}

// SignedDocument is an externally supplied signed counterpart of a generated document.
type SignedDocument struct {
	TemplateID  string    `json:"template_id"`
	StoragePath string    `json:"storage_path"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// AdditionalFile is a supporting file attached to a task outside the template flow.
type AdditionalFile struct {
	Name        string    `json:"name"`
	StoragePath string    `json:"storage_path"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// GeneratedCount returns the number of documents in generated status.
func (t *Task) GeneratedCount() int {
	n := 0
	for _, doc := range t.GeneratedDocuments {
		if doc.IsGenerated() {
			n++
		}
	}
	return n
}

// SignedFor returns the signed document for a template id, if any.
func (t *Task) SignedFor(templateID string) (SignedDocument, bool) {
	for _, doc := range t.SignedDocuments {
		if doc.TemplateID == templateID {
			return doc, true
		}
	}
	return SignedDocument{}, false
}

// Clone returns a deep copy so callers can mutate without affecting the original.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	c := *t
	c.TemplateIDs = append([]string(nil), t.TemplateIDs...)
	c.GeneratedDocuments = append([]GeneratedDocument(nil), t.GeneratedDocuments...)
	c.SignedDocuments = append([]SignedDocument(nil), t.SignedDocuments...)
	c.AdditionalFiles = append([]AdditionalFile(nil), t.AdditionalFiles...)
	c.Transitions = append([]Transition(nil), t.Transitions...)
	if t.CustomFieldValues != nil {
		c.CustomFieldValues = make(map[string]string, len(t.CustomFieldValues))
		for k, v := range t.CustomFieldValues {
			c.CustomFieldValues[k] = v
		}
	}
	if t.GenerationError != nil {
		msg := *t.GenerationError
		c.GenerationError = &msg
	}
	return &c
}
