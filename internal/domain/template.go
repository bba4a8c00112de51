package domain

import (
	"time"

	"github.com/lerboi/FileManagement-sub001/internal/constants"
)

// Template is a document skeleton whose {{token}} placeholders are bound to
// data field names. Only active templates may be rendered.
//
// Example YAML representation (as accepted by template import):
//
//	id: engagement-letter
//	name: Engagement Letter
//	status: active
//	content: "Dear {{client_name}}, ..."
//	field_mappings:
//	  client_name: full_name
//	custom_fields:
//	  - name: fee
//	    label: Fee Amount
//	    type: number
//	    required: true
type Template struct {
	ID     string                   `json:"id" yaml:"id"`
	Name   string                   `json:"name" yaml:"name"`
	Status constants.TemplateStatus `json:"status" yaml:"status"`

	// Content is the template markup containing {{token}} placeholders.
	Content string `json:"content" yaml:"content"`

	// SourcePath optionally names an object store key holding the template
	// source. When set it takes precedence over Content.
	SourcePath string `json:"source_path,omitempty" yaml:"source_path,omitempty"`

	// FileName is the output file name. Defaults to "<id>.txt".
	FileName string `json:"file_name,omitempty" yaml:"file_name,omitempty"`

	// FieldMappings maps placeholder tokens to data field names.
	FieldMappings map[string]string `json:"field_mappings,omitempty" yaml:"field_mappings,omitempty"`

	CustomFields []CustomField `json:"custom_fields,omitempty" yaml:"custom_fields,omitempty"`

	// MigrationLog records every schema migration applied to this template.
	MigrationLog []MigrationLogEntry `json:"migration_log,omitempty" yaml:"migration_log,omitempty"`

	Version   int64     `json:"version" yaml:"-"`
	CreatedAt time.Time `json:"created_at" yaml:"-"`
	UpdatedAt time.Time `json:"updated_at" yaml:"-"`
}

// IsActive reports whether the template may be rendered.
func (t *Template) IsActive() bool {
	return t.Status == constants.TemplateStatusActive
}

// OutputFileName returns the configured file name or the default derived from the id.
func (t *Template) OutputFileName() string {
	if t.FileName != "" {
		return t.FileName
	}
	return t.ID + ".txt"
}

// Clone returns a deep copy of the template.
func (t *Template) Clone() *Template {
	if t == nil {
		return nil
	}
	c := *t
	if t.FieldMappings != nil {
		c.FieldMappings = make(map[string]string, len(t.FieldMappings))
		for k, v := range t.FieldMappings {
			c.FieldMappings[k] = v
		}
	}
	c.CustomFields = make([]CustomField, len(t.CustomFields))
	for i, f := range t.CustomFields {
		f.Options = append([]string(nil), f.Options...)
		c.CustomFields[i] = f
	}
	if t.CustomFields == nil {
		c.CustomFields = nil
	}
	c.MigrationLog = append([]MigrationLogEntry(nil), t.MigrationLog...)
	return &c
}

// CustomField is an extra task-specific input declared by a template.
// Either Name or Label may be used to look up its value.
type CustomField struct {
	Name     string              `json:"name" yaml:"name"`
	Label    string              `json:"label,omitempty" yaml:"label,omitempty"`
	Type     constants.FieldType `json:"type" yaml:"type"`
	Required bool                `json:"required" yaml:"required"`
	Options  []string            `json:"options,omitempty" yaml:"options,omitempty"`
	Default  string              `json:"default,omitempty" yaml:"default,omitempty"`
}

// DisplayName returns the label when set, otherwise the name.
func (f CustomField) DisplayName() string {
	if f.Label != "" {
		return f.Label
	}
	return f.Name
}

// MigrationLogEntry is a human-readable record of one applied migration.
type MigrationLogEntry struct {
	PlanID    string    `json:"plan_id" yaml:"plan_id"`
	AppliedAt time.Time `json:"applied_at" yaml:"applied_at"`
	Actions   []string  `json:"actions" yaml:"actions"`
}
