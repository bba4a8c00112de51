package domain

import "time"

// FieldDescriptor describes one field of a data schema snapshot.
type FieldDescriptor struct {
	Name string `json:"name" yaml:"name"`
	Type string `json:"type" yaml:"type"`
}

// SchemaSnapshot is a named, point-in-time list of field descriptors.
type SchemaSnapshot struct {
	Version string            `json:"version,omitempty" yaml:"version,omitempty"`
	Fields  []FieldDescriptor `json:"fields" yaml:"fields"`
}

// TypeChange is a field whose name survived but whose type did not.
type TypeChange struct {
	Name    string `json:"name"`
	OldType string `json:"old_type"`
	NewType string `json:"new_type"`
}

// RenameCandidate pairs a removed field with a similar added field.
type RenameCandidate struct {
	OldField   string  `json:"old_field"`
	NewField   string  `json:"new_field"`
	Similarity float64 `json:"similarity"`
}

// SchemaChangeSet is the difference between two schema snapshots.
// PotentialRenames is ranked by similarity, highest first.
type SchemaChangeSet struct {
	Added            []FieldDescriptor `json:"added"`
	Removed          []FieldDescriptor `json:"removed"`
	TypeChanged      []TypeChange      `json:"type_changed"`
	PotentialRenames []RenameCandidate `json:"potential_renames"`
}

// IsEmpty reports whether the two snapshots were equivalent.
func (c *SchemaChangeSet) IsEmpty() bool {
	return len(c.Added) == 0 && len(c.Removed) == 0 && len(c.TypeChanged) == 0
}

// Severity ranks how badly a template is hit by a schema change.
type Severity string

// Severity levels.
const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
)

// TemplateIssue is one reference from a template to a changed field.
type TemplateIssue struct {
	Field    string   `json:"field"`
	Severity Severity `json:"severity"`
	// Location is where the reference was found: field_mapping, custom_field or content.
	Location string `json:"location"`
	Message  string `json:"message"`
}

// AffectedTemplate lists every issue found in one template.
type AffectedTemplate struct {
	TemplateID   string          `json:"template_id"`
	TemplateName string          `json:"template_name"`
	Issues       []TemplateIssue `json:"issues"`
}

// ActionType is the kind of a migration action.
type ActionType string

// Migration action types.
const (
	ActionRenameField    ActionType = "rename_field"
	ActionRemoveField    ActionType = "remove_field"
	ActionNoteTypeChange ActionType = "note_type_change"
)

// MigrationAction is one step of a template migration.
type MigrationAction struct {
	Type    ActionType `json:"type" yaml:"type"`
	Field   string     `json:"field" yaml:"field"`
	NewName string     `json:"new_name,omitempty" yaml:"new_name,omitempty"`
	OldType string     `json:"old_type,omitempty" yaml:"old_type,omitempty"`
	NewType string     `json:"new_type,omitempty" yaml:"new_type,omitempty"`
}

// TemplateMigration is the ordered list of actions for one template.
type TemplateMigration struct {
	TemplateID string            `json:"template_id" yaml:"template_id"`
	Actions    []MigrationAction `json:"actions" yaml:"actions"`
}

// MigrationPlan is a set of per-template migrations produced together.
type MigrationPlan struct {
	ID         string              `json:"id" yaml:"id"`
	CreatedAt  time.Time           `json:"created_at" yaml:"created_at"`
	Migrations []TemplateMigration `json:"migrations" yaml:"migrations"`
}
