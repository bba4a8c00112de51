package schema

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/lerboi/FileManagement-sub001/internal/blob"
	"github.com/lerboi/FileManagement-sub001/internal/clock"
	"github.com/lerboi/FileManagement-sub001/internal/constants"
	"github.com/lerboi/FileManagement-sub001/internal/domain"
	"github.com/lerboi/FileManagement-sub001/internal/events"
	"github.com/lerboi/FileManagement-sub001/internal/fields"
	"github.com/lerboi/FileManagement-sub001/internal/render"
	"github.com/lerboi/FileManagement-sub001/internal/store"
)

// ApplyFailure is a template a migration could not be applied to.
type ApplyFailure struct {
	TemplateID string `json:"template_id"`
	Error      string `json:"error"`
}

// ApplyResult reports a migration run. Warnings hold non-fatal problems
// such as snapshots that could not be written.
type ApplyResult struct {
	Successful []string       `json:"successful"`
	Failed     []ApplyFailure `json:"failed"`
	Warnings   []string       `json:"warnings,omitempty"`
}

// Migrator applies migration plans to stored templates.
type Migrator struct {
	templates store.TemplateStore
	blobs     blob.Store
	events    events.Publisher
	clock     clock.Clock
	logger    zerolog.Logger
}

// NewMigrator creates a Migrator. blobs may be nil to skip snapshots and
// publisher may be nil to skip events.
func NewMigrator(templates store.TemplateStore, blobs blob.Store, publisher events.Publisher, c clock.Clock, logger zerolog.Logger) *Migrator {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Migrator{
		templates: templates,
		blobs:     blobs,
		events:    publisher,
		clock:     clock.OrReal(c),
		logger:    logger.With().Str("component", "migrator").Logger(),
	}
}

// Apply migrates each template of the plan independently. A failing
// template is reported and does not stop the others. The returned error is
// only set when ctx ends.
func (m *Migrator) Apply(ctx context.Context, plan *domain.MigrationPlan) (*ApplyResult, error) {
	res := &ApplyResult{Successful: []string{}, Failed: []ApplyFailure{}}
	for _, mig := range plan.Migrations {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		logger := m.logger.With().Str("plan_id", plan.ID).Str("template_id", mig.TemplateID).Logger()

		warning, err := m.applyOne(ctx, plan.ID, mig)
		if warning != "" {
			res.Warnings = append(res.Warnings, warning)
		}
		if err != nil {
			logger.Warn().Err(err).Msg("template migration failed")
			res.Failed = append(res.Failed, ApplyFailure{TemplateID: mig.TemplateID, Error: err.Error()})
			continue
		}
		logger.Info().Int("actions", len(mig.Actions)).Msg("template migrated")
		res.Successful = append(res.Successful, mig.TemplateID)
	}
	return res, nil
}

func (m *Migrator) applyOne(ctx context.Context, planID string, mig domain.TemplateMigration) (string, error) {
	tmpl, err := m.templates.GetTemplate(ctx, mig.TemplateID)
	if err != nil {
		return "", err
	}

	warning := m.snapshot(ctx, planID, tmpl)

	log := ApplyActions(tmpl, mig.Actions)
	tmpl.MigrationLog = append(tmpl.MigrationLog, domain.MigrationLogEntry{
		PlanID:    planID,
		AppliedAt: m.clock.Now(),
		Actions:   log,
	})
	if err := m.templates.SaveTemplate(ctx, tmpl); err != nil {
		return warning, err
	}

	if err := m.events.Publish(ctx, events.New(events.EventTemplateMigrated, map[string]any{
		"template_id": tmpl.ID,
		"plan_id":     planID,
		"actions":     len(mig.Actions),
	})); err != nil {
		m.logger.Warn().Err(err).Str("template_id", tmpl.ID).Msg("failed to publish event")
	}
	return warning, nil
}

// snapshot stores the template as it was before migration. It is best
// effort: a failure becomes a warning.
func (m *Migrator) snapshot(ctx context.Context, planID string, tmpl *domain.Template) string {
	if m.blobs == nil {
		return ""
	}
	data, err := json.MarshalIndent(tmpl, "", "  ")
	if err == nil {
		err = m.blobs.Put(ctx, blob.SnapshotKey(planID, tmpl.ID), data)
	}
	if err != nil {
		m.logger.Warn().Err(err).Str("template_id", tmpl.ID).Msg("failed to snapshot template before migration")
		return fmt.Sprintf("template %s: snapshot not saved: %v", tmpl.ID, err)
	}
	return ""
}

// ApplyActions rewrites tmpl in place and returns a description of each
// action taken.
//
// rename_field rewrites every {{old}} placeholder to {{new}}, every field
// mapping value equal to old, a mapping keyed by old, and custom fields
// named old. remove_field replaces {{old}} and every placeholder mapped to
// old with the removed-field marker, drops mappings to or from old, and
// drops custom fields named old.
// note_type_change changes nothing.
func ApplyActions(tmpl *domain.Template, actions []domain.MigrationAction) []string {
	log := make([]string, 0, len(actions))
	for _, a := range actions {
		switch a.Type {
		case domain.ActionRenameField:
			renameField(tmpl, a.Field, a.NewName)
			log = append(log, fmt.Sprintf("renamed %s to %s", a.Field, a.NewName))
		case domain.ActionRemoveField:
			removeField(tmpl, a.Field)
			log = append(log, fmt.Sprintf("removed %s", a.Field))
		case domain.ActionNoteTypeChange:
			log = append(log, fmt.Sprintf("type of %s changed from %s to %s (advisory)", a.Field, a.OldType, a.NewType))
		default:
			log = append(log, fmt.Sprintf("skipped unknown action %s on %s", a.Type, a.Field))
		}
	}
	return log
}

func renameField(tmpl *domain.Template, oldName, newName string) {
	tmpl.Content = render.ReplaceToken(tmpl.Content, oldName, func(string) string {
		return "{{" + newName + "}}"
	})

	for token, field := range tmpl.FieldMappings {
		if field == oldName {
			tmpl.FieldMappings[token] = newName
		}
	}
	if field, ok := tmpl.FieldMappings[oldName]; ok {
		if _, taken := tmpl.FieldMappings[newName]; !taken {
			delete(tmpl.FieldMappings, oldName)
			tmpl.FieldMappings[newName] = field
		}
	}

	canon := fields.Canonical(oldName)
	for i := range tmpl.CustomFields {
		if fields.Canonical(tmpl.CustomFields[i].Name) == canon {
			tmpl.CustomFields[i].Name = newName
		}
	}
}

func removeField(tmpl *domain.Template, name string) {
	removed := func(string) string { return constants.RemovedFieldMarker }
	tmpl.Content = render.ReplaceToken(tmpl.Content, name, removed)

	// Placeholders mapped to the removed field are marked as well.
	for token, field := range tmpl.FieldMappings {
		if field == name {
			tmpl.Content = render.ReplaceToken(tmpl.Content, token, removed)
		}
		if field == name || token == name {
			delete(tmpl.FieldMappings, token)
		}
	}

	canon := fields.Canonical(name)
	kept := tmpl.CustomFields[:0]
	for _, cf := range tmpl.CustomFields {
		if fields.Canonical(cf.Name) != canon {
			kept = append(kept, cf)
		}
	}
	tmpl.CustomFields = kept
}
