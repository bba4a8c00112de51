// Package template loads template, service and client definitions from
// files, validates them, and imports them into the record store.
package template

import (
	"fmt"
	"slices"
	"strings"

	"github.com/lerboi/FileManagement-sub001/internal/constants"
	"github.com/lerboi/FileManagement-sub001/internal/domain"
	docerrors "github.com/lerboi/FileManagement-sub001/internal/errors"
	"github.com/lerboi/FileManagement-sub001/internal/fields"
)

const defaultStatus = constants.TemplateStatusActive

// ValidStatuses returns all valid template status values.
func ValidStatuses() []constants.TemplateStatus {
	return []constants.TemplateStatus{
		constants.TemplateStatusDraft,
		constants.TemplateStatusActive,
		constants.TemplateStatusArchived,
	}
}

// ValidateTemplate checks a template has an id, a known status, a source,
// complete field mappings and uniquely named custom fields. Every problem
// found is reported.
func ValidateTemplate(t *domain.Template) error {
	var issues []docerrors.Issue
	add := func(field, message string) {
		issues = append(issues, docerrors.Issue{Field: field, Code: "invalid", Message: message})
	}

	if strings.TrimSpace(t.ID) == "" {
		add("id", "template id is required")
	}
	if strings.TrimSpace(t.Name) == "" {
		add("name", "template name is required")
	}
	if !slices.Contains(ValidStatuses(), t.Status) {
		add("status", fmt.Sprintf("invalid status %q", t.Status))
	}
	if strings.TrimSpace(t.Content) == "" && strings.TrimSpace(t.SourcePath) == "" {
		add("content", "content or source_path is required")
	}
	for token, field := range t.FieldMappings {
		if strings.TrimSpace(token) == "" || strings.TrimSpace(field) == "" {
			add("field_mappings", fmt.Sprintf("mapping %q -> %q must name both a token and a field", token, field))
		}
	}

	seen := make(map[string]string)
	for i, cf := range t.CustomFields {
		key := fields.KeyOf(cf)
		if key.Canonical == "" {
			add("custom_fields", fmt.Sprintf("custom field %d needs a name or label", i))
			continue
		}
		if prev, dup := seen[key.Canonical]; dup {
			add("custom_fields", fmt.Sprintf("custom field %q duplicates %q", cf.DisplayName(), prev))
			continue
		}
		seen[key.Canonical] = cf.DisplayName()
		if cf.Type == constants.FieldTypeSelect && len(cf.Options) == 0 {
			add("custom_fields", fmt.Sprintf("select field %q has no options", cf.DisplayName()))
		}
	}

	if len(issues) > 0 {
		return &docerrors.ValidationError{Issues: issues}
	}
	return nil
}

// ValidateService checks a service has an id and at least one template id.
func ValidateService(s *domain.Service) error {
	if strings.TrimSpace(s.ID) == "" {
		return docerrors.NewValidationError("id", "service id is required")
	}
	if len(s.TemplateIDs) == 0 {
		return docerrors.NewValidationError("template_ids", fmt.Sprintf("service %s has no templates", s.ID))
	}
	return nil
}

// ValidateClient checks a client has an id.
func ValidateClient(c *domain.Client) error {
	if strings.TrimSpace(c.ID) == "" {
		return docerrors.NewValidationError("id", "client id is required")
	}
	if c.Fields == nil {
		c.Fields = map[string]any{}
	}
	return nil
}
