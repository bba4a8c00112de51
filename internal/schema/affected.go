package schema

import (
	"context"
	"fmt"
	"sort"

	"github.com/lerboi/FileManagement-sub001/internal/domain"
	"github.com/lerboi/FileManagement-sub001/internal/fields"
	"github.com/lerboi/FileManagement-sub001/internal/render"
)

// Issue locations.
const (
	LocationFieldMapping = "field_mapping"
	LocationCustomField  = "custom_field"
	LocationContent      = "content"
)

// FindAffectedTemplates reports, per template, every reference to a removed
// field (high severity) or a type-changed field (medium severity).
// References are found in field mapping values, custom field names or
// labels, and {{token}} placeholders in the content. Templates with no
// references are omitted. Results are ordered by template id.
func FindAffectedTemplates(ctx context.Context, templates []*domain.Template, cs domain.SchemaChangeSet) ([]domain.AffectedTemplate, error) {
	changed := make(map[string]domain.TemplateIssue)
	for _, f := range cs.Removed {
		changed[f.Name] = domain.TemplateIssue{
			Field:    f.Name,
			Severity: domain.SeverityHigh,
			Message:  fmt.Sprintf("field %s was removed", f.Name),
		}
	}
	for _, tc := range cs.TypeChanged {
		changed[tc.Name] = domain.TemplateIssue{
			Field:    tc.Name,
			Severity: domain.SeverityMedium,
			Message:  fmt.Sprintf("field %s changed type from %s to %s", tc.Name, tc.OldType, tc.NewType),
		}
	}

	var out []domain.AffectedTemplate
	for _, tmpl := range templates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if issues := scanTemplate(tmpl, changed); len(issues) > 0 {
			out = append(out, domain.AffectedTemplate{
				TemplateID:   tmpl.ID,
				TemplateName: tmpl.Name,
				Issues:       issues,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TemplateID < out[j].TemplateID })
	return out, nil
}

func scanTemplate(tmpl *domain.Template, changed map[string]domain.TemplateIssue) []domain.TemplateIssue {
	var issues []domain.TemplateIssue
	seen := make(map[string]bool)
	add := func(field, location string) {
		base, ok := changed[field]
		if !ok || seen[field+"|"+location] {
			return
		}
		seen[field+"|"+location] = true
		base.Location = location
		issues = append(issues, base)
	}

	tokens := sortedKeys(tmpl.FieldMappings)
	for _, token := range tokens {
		add(tmpl.FieldMappings[token], LocationFieldMapping)
	}

	names := make([]string, 0, len(changed))
	for name := range changed {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, cf := range tmpl.CustomFields {
		key := fields.KeyOf(cf)
		for _, name := range names {
			canon := fields.Canonical(name)
			if canon == key.Canonical || (cf.Label != "" && canon == fields.Canonical(cf.Label)) {
				add(name, LocationCustomField)
			}
		}
	}

	for _, token := range render.Tokens(tmpl.Content) {
		if _, mapped := tmpl.FieldMappings[token]; mapped {
			continue
		}
		add(token, LocationContent)
	}
	return issues
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
