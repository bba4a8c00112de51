// Package events publishes lifecycle events for tasks and templates.
//
// Publishing is fire-and-forget from the caller's point of view: a failed
// publish is logged by the caller and never fails the operation that
// produced the event.
package events

import (
	"context"
	"time"
)

// EventType names a lifecycle event.
type EventType string

const (
	// EventTaskCreated is published when a task is created.
	EventTaskCreated EventType = "task.created"
	// EventTaskGenerated is published after a generation batch finishes.
	EventTaskGenerated EventType = "task.generated"
	// EventTaskCompleted is published when a task reaches completed.
	EventTaskCompleted EventType = "task.completed"
	// EventTemplateMigrated is published for each template a migration saved.
	EventTemplateMigrated EventType = "template.migrated"
)

// Event is one published occurrence.
type Event struct {
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
}

// New builds an event stamped with the current UTC time.
func New(t EventType, data map[string]any) Event {
	return Event{Type: t, Timestamp: time.Now().UTC(), Data: data}
}

// Publisher delivers events.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Nop discards every event.
type Nop struct{}

// Publish implements Publisher.
func (Nop) Publish(context.Context, Event) error { return nil }
