// Package store provides persistence for tasks, templates, services and
// clients, with a file-backed implementation for single-node use and a
// Postgres implementation for shared deployments.
//
// Tasks and templates carry a version counter. Updates must present the
// version they read; a mismatch fails with ErrVersionConflict and nothing
// is written. A successful update increments the version in place.
package store

import (
	"context"

	"github.com/lerboi/FileManagement-sub001/internal/constants"
	"github.com/lerboi/FileManagement-sub001/internal/domain"
)

// TaskFilter narrows and pages ListTasks. Zero values match everything.
type TaskFilter struct {
	Status   constants.TaskStatus
	ClientID string
	// Limit caps the number of tasks returned; 0 means no cap.
	Limit  int
	Offset int
}

// Match reports whether a task satisfies the filter's predicates.
func (f TaskFilter) Match(t *domain.Task) bool {
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.ClientID != "" && t.ClientID != f.ClientID {
		return false
	}
	return true
}

// TaskStore persists tasks.
type TaskStore interface {
	// CreateTask stores a new task. Returns ErrAlreadyExists if the id is taken.
	CreateTask(ctx context.Context, task *domain.Task) error

	// GetTask returns a task by id, or ErrTaskNotFound.
	GetTask(ctx context.Context, id string) (*domain.Task, error)

	// UpdateTask saves a task read at task.Version.
	UpdateTask(ctx context.Context, task *domain.Task) error

	// ListTasks returns matching tasks, newest first.
	ListTasks(ctx context.Context, filter TaskFilter) ([]*domain.Task, error)

	// DeleteTask removes a task record. Stored documents are not touched.
	DeleteTask(ctx context.Context, id string) error
}

// TemplateStore persists templates.
type TemplateStore interface {
	// GetTemplate returns a template by id, or ErrTemplateNotFound.
	GetTemplate(ctx context.Context, id string) (*domain.Template, error)

	// SaveTemplate creates a template when Version is 0 and the id is free,
	// and otherwise updates it with a version check.
	SaveTemplate(ctx context.Context, tmpl *domain.Template) error

	// ListTemplates returns every template ordered by id.
	ListTemplates(ctx context.Context) ([]*domain.Template, error)
}

// ServiceStore persists services.
type ServiceStore interface {
	GetService(ctx context.Context, id string) (*domain.Service, error)
	SaveService(ctx context.Context, svc *domain.Service) error
	ListServices(ctx context.Context) ([]*domain.Service, error)
}

// ClientStore persists client records.
type ClientStore interface {
	GetClient(ctx context.Context, id string) (*domain.Client, error)
	SaveClient(ctx context.Context, client *domain.Client) error

	// MergeClientFields sets the given fields on a client, leaving the
	// others unchanged.
	MergeClientFields(ctx context.Context, id string, fields map[string]any) error
}

// Store combines every record store.
type Store interface {
	TaskStore
	TemplateStore
	ServiceStore
	ClientStore

	// Close releases connections held by the store.
	Close() error
}
