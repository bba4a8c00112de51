// Package followup queues side effects that run after a task completes.
//
// Completing a task must never be undone because a secondary write failed,
// so those writes are recorded as actions on a queue and applied by a
// Processor with bounded retries. Actions that exhaust their attempts land
// on a dead-letter list where operators can inspect them.
package followup

import (
	"time"

	"github.com/google/uuid"
)

// Kind names what an action does.
type Kind string

// KindClientSummary merges a completed task's summary into its client record.
const KindClientSummary Kind = "client_summary"

// Action is one queued side effect.
type Action struct {
	ID       string         `json:"id"`
	Kind     Kind           `json:"kind"`
	TaskID   string         `json:"task_id"`
	ClientID string         `json:"client_id"`
	Fields   map[string]any `json:"fields,omitempty"`

	Attempts   int       `json:"attempts"`
	LastError  string    `json:"last_error,omitempty"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// ClientSummary builds the action recording a completed task on its client.
func ClientSummary(taskID, clientID string, completedAt time.Time) Action {
	return Action{
		ID:       uuid.NewString(),
		Kind:     KindClientSummary,
		TaskID:   taskID,
		ClientID: clientID,
		Fields: map[string]any{
			"last_completed_task_id": taskID,
			"last_completed_at":      completedAt.UTC().Format(time.RFC3339),
		},
		EnqueuedAt: completedAt,
	}
}
