package fields

import (
	"fmt"

	"github.com/lerboi/FileManagement-sub001/internal/domain"
)

// Conflict reports a field declared by two templates with incompatible
// settings. Conflicts are warnings; callers decide whether to block.
type Conflict struct {
	Field         string `json:"field"`
	FirstTemplate string `json:"first_template"`
	Template      string `json:"template"`
	FirstType     string `json:"first_type"`
	Type          string `json:"type"`
	FirstRequired bool   `json:"first_required"`
	Required      bool   `json:"required"`
}

// String formats the conflict as a one-line warning.
func (c Conflict) String() string {
	return fmt.Sprintf("field %s: template %s declares (type=%s, required=%t) but template %s declares (type=%s, required=%t)",
		c.Field, c.FirstTemplate, c.FirstType, c.FirstRequired, c.Template, c.Type, c.Required)
}

type declaration struct {
	template string
	field    domain.CustomField
}

// DetectConflicts compares every field declaration against the first
// declaration of the same canonical key, in template order.
func DetectConflicts(templates []*domain.Template) []Conflict {
	first := make(map[string]declaration)
	var out []Conflict
	for _, t := range templates {
		if t == nil {
			continue
		}
		for _, f := range t.CustomFields {
			k := KeyOf(f).Canonical
			if k == "" {
				continue
			}
			prev, ok := first[k]
			if !ok {
				first[k] = declaration{template: t.ID, field: f}
				continue
			}
			if prev.field.Type == f.Type && prev.field.Required == f.Required {
				continue
			}
			out = append(out, Conflict{
				Field:         k,
				FirstTemplate: prev.template,
				Template:      t.ID,
				FirstType:     string(prev.field.Type),
				Type:          string(f.Type),
				FirstRequired: prev.field.Required,
				Required:      f.Required,
			})
		}
	}
	return out
}
