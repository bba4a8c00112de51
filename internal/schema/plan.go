package schema

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lerboi/FileManagement-sub001/internal/domain"
	docerrors "github.com/lerboi/FileManagement-sub001/internal/errors"
)

// GenerateMigrationPlan turns affected templates into per-template actions.
//
// choices maps a removed field to the added field it was renamed to. Each
// choice must be one of the change set's rename candidates and no two
// removed fields may be renamed to the same new field; otherwise the plan
// fails with ErrMigrationConflict. Removed fields without a choice are
// removed; type changes become advisory notes.
func GenerateMigrationPlan(affected []domain.AffectedTemplate, cs domain.SchemaChangeSet, choices map[string]string) (*domain.MigrationPlan, error) {
	if err := checkChoices(cs, choices); err != nil {
		return nil, err
	}

	removed := make(map[string]bool, len(cs.Removed))
	for _, f := range cs.Removed {
		removed[f.Name] = true
	}
	typeChanges := make(map[string]domain.TypeChange, len(cs.TypeChanged))
	for _, tc := range cs.TypeChanged {
		typeChanges[tc.Name] = tc
	}

	plan := &domain.MigrationPlan{
		ID:         uuid.NewString(),
		CreatedAt:  time.Now().UTC(),
		Migrations: []domain.TemplateMigration{},
	}
	for _, at := range affected {
		var actions []domain.MigrationAction
		seen := make(map[string]bool)
		for _, issue := range at.Issues {
			if seen[issue.Field] {
				continue
			}
			seen[issue.Field] = true

			switch {
			case removed[issue.Field]:
				if newName, ok := choices[issue.Field]; ok {
					actions = append(actions, domain.MigrationAction{Type: domain.ActionRenameField, Field: issue.Field, NewName: newName})
				} else {
					actions = append(actions, domain.MigrationAction{Type: domain.ActionRemoveField, Field: issue.Field})
				}
			case typeChanges[issue.Field].Name != "":
				tc := typeChanges[issue.Field]
				actions = append(actions, domain.MigrationAction{
					Type:    domain.ActionNoteTypeChange,
					Field:   tc.Name,
					OldType: tc.OldType,
					NewType: tc.NewType,
				})
			}
		}
		if len(actions) > 0 {
			plan.Migrations = append(plan.Migrations, domain.TemplateMigration{TemplateID: at.TemplateID, Actions: actions})
		}
	}
	return plan, nil
}

func checkChoices(cs domain.SchemaChangeSet, choices map[string]string) error {
	candidates := make(map[[2]string]bool, len(cs.PotentialRenames))
	for _, c := range cs.PotentialRenames {
		candidates[[2]string{c.OldField, c.NewField}] = true
	}

	olds := make([]string, 0, len(choices))
	for old := range choices {
		olds = append(olds, old)
	}
	sort.Strings(olds)

	var problems []string
	claimedBy := make(map[string]string, len(choices))
	for _, old := range olds {
		newName := choices[old]
		if !candidates[[2]string{old, newName}] {
			problems = append(problems, fmt.Sprintf("%s -> %s is not a rename candidate", old, newName))
			continue
		}
		if prev, ok := claimedBy[newName]; ok {
			problems = append(problems, fmt.Sprintf("%s is claimed by both %s and %s", newName, prev, old))
			continue
		}
		claimedBy[newName] = old
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", docerrors.ErrMigrationConflict, strings.Join(problems, "; "))
	}
	return nil
}

// ResolveHighestSimilarity picks renames from the ranked candidate list so
// that each added field and each removed field is used at most once, best
// scores first.
func ResolveHighestSimilarity(cs domain.SchemaChangeSet) map[string]string {
	choices := make(map[string]string)
	taken := make(map[string]bool)
	for _, c := range cs.PotentialRenames {
		if _, done := choices[c.OldField]; done || taken[c.NewField] {
			continue
		}
		choices[c.OldField] = c.NewField
		taken[c.NewField] = true
	}
	return choices
}

// Ambiguous returns the added fields claimed by more than one removed
// field, mapped to their claimants in rank order.
func Ambiguous(cs domain.SchemaChangeSet) map[string][]string {
	claims := make(map[string][]string)
	for _, c := range cs.PotentialRenames {
		claims[c.NewField] = append(claims[c.NewField], c.OldField)
	}
	for k, v := range claims {
		if len(v) < 2 {
			delete(claims, k)
		}
	}
	return claims
}
