// Package schema detects drift between two data schema snapshots, finds the
// templates that reference changed fields, and plans and applies template
// migrations.
package schema

import (
	"sort"

	"github.com/lerboi/FileManagement-sub001/internal/constants"
	"github.com/lerboi/FileManagement-sub001/internal/domain"
)

// Analyzer diffs schema snapshots.
type Analyzer struct {
	// Threshold is the exclusive lower bound on Similarity for a rename
	// candidate.
	Threshold float64
}

// NewAnalyzer creates an Analyzer. A threshold outside [0, 1) selects the default.
func NewAnalyzer(threshold float64) *Analyzer {
	if threshold < 0 || threshold >= 1 {
		threshold = constants.RenameSimilarityThreshold
	}
	return &Analyzer{Threshold: threshold}
}

// AnalyzeSchemaChange diffs two snapshots with the default threshold.
func AnalyzeSchemaChange(oldSchema, newSchema domain.SchemaSnapshot) domain.SchemaChangeSet {
	return NewAnalyzer(constants.RenameSimilarityThreshold).Analyze(oldSchema, newSchema)
}

// Analyze diffs two snapshots by exact field name.
//
// Fields only in the old snapshot are removed, fields only in the new one
// are added, and fields in both with different types are type changes.
// Every removed × added pair scoring above the threshold is a rename
// candidate. Candidates are ranked by similarity, highest first, and are
// not deduplicated: several removed fields may claim the same added field.
func (a *Analyzer) Analyze(oldSchema, newSchema domain.SchemaSnapshot) domain.SchemaChangeSet {
	oldByName := index(oldSchema.Fields)
	newByName := index(newSchema.Fields)

	cs := domain.SchemaChangeSet{
		Added:            []domain.FieldDescriptor{},
		Removed:          []domain.FieldDescriptor{},
		TypeChanged:      []domain.TypeChange{},
		PotentialRenames: []domain.RenameCandidate{},
	}

	for _, f := range uniqueFields(oldSchema.Fields) {
		nf, ok := newByName[f.Name]
		switch {
		case !ok:
			cs.Removed = append(cs.Removed, f)
		case nf.Type != f.Type:
			cs.TypeChanged = append(cs.TypeChanged, domain.TypeChange{Name: f.Name, OldType: f.Type, NewType: nf.Type})
		}
	}
	for _, f := range uniqueFields(newSchema.Fields) {
		if _, ok := oldByName[f.Name]; !ok {
			cs.Added = append(cs.Added, f)
		}
	}

	for _, r := range cs.Removed {
		for _, ad := range cs.Added {
			if s := Similarity(r.Name, ad.Name); s > a.Threshold {
				cs.PotentialRenames = append(cs.PotentialRenames, domain.RenameCandidate{
					OldField:   r.Name,
					NewField:   ad.Name,
					Similarity: s,
				})
			}
		}
	}
	sort.SliceStable(cs.PotentialRenames, func(i, j int) bool {
		pi, pj := cs.PotentialRenames[i], cs.PotentialRenames[j]
		if pi.Similarity != pj.Similarity {
			return pi.Similarity > pj.Similarity
		}
		if pi.OldField != pj.OldField {
			return pi.OldField < pj.OldField
		}
		return pi.NewField < pj.NewField
	})
	return cs
}

func index(fields []domain.FieldDescriptor) map[string]domain.FieldDescriptor {
	m := make(map[string]domain.FieldDescriptor, len(fields))
	for _, f := range fields {
		if _, dup := m[f.Name]; !dup {
			m[f.Name] = f
		}
	}
	return m
}

// uniqueFields drops repeated names, keeping the first declaration.
func uniqueFields(fields []domain.FieldDescriptor) []domain.FieldDescriptor {
	seen := make(map[string]bool, len(fields))
	out := make([]domain.FieldDescriptor, 0, len(fields))
	for _, f := range fields {
		if f.Name == "" || seen[f.Name] {
			continue
		}
		seen[f.Name] = true
		out = append(out, f)
	}
	return out
}
