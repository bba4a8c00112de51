package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lerboi/FileManagement-sub001/internal/constants"
	"github.com/lerboi/FileManagement-sub001/internal/domain"
)

func snapshot(fields ...string) domain.SchemaSnapshot {
	s := domain.SchemaSnapshot{}
	for i := 0; i < len(fields); i += 2 {
		s.Fields = append(s.Fields, domain.FieldDescriptor{Name: fields[i], Type: fields[i+1]})
	}
	return s
}

func names(fields []domain.FieldDescriptor) []string {
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		out = append(out, f.Name)
	}
	return out
}

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"kitten", "sitting", 3},
		{"café", "cafe", 1},
		{"first_name", "firstname", 1},
	}
	for _, tt := range tests {
		t.Run(tt.a+"/"+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.want, Levenshtein(tt.a, tt.b))
			assert.Equal(t, tt.want, Levenshtein(tt.b, tt.a))
		})
	}
}

func TestSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, Similarity("email", "email"), 1e-9)
	assert.InDelta(t, 1.0, Similarity("Email", "EMAIL"), 1e-9)
	assert.InDelta(t, 0.94, Similarity("first_name", "firstname"), 1e-9)
	assert.InDelta(t, 8.0/14+0.4*6.0/14, Similarity("middle_name", "middle_initial"), 1e-9)
	assert.InDelta(t, 0.0, Similarity("email", "phone"), 1e-9)
	assert.Less(t, Similarity("zip", "postal_code"), constants.RenameSimilarityThreshold)
	assert.Less(t, Similarity("email", "middle_initial"), constants.RenameSimilarityThreshold)
}

func TestAnalyze_RenameCandidate(t *testing.T) {
	oldSchema := snapshot("full_name", "text", "middle_name", "text", "age", "number", "email", "email")
	newSchema := snapshot("full_name", "text", "middle_initial", "text", "age", "text", "phone", "text")

	cs := AnalyzeSchemaChange(oldSchema, newSchema)

	assert.Equal(t, []string{"middle_name", "email"}, names(cs.Removed))
	assert.Equal(t, []string{"middle_initial", "phone"}, names(cs.Added))
	assert.Equal(t, []domain.TypeChange{{Name: "age", OldType: "number", NewType: "text"}}, cs.TypeChanged)

	require.Len(t, cs.PotentialRenames, 1)
	c := cs.PotentialRenames[0]
	assert.Equal(t, "middle_name", c.OldField)
	assert.Equal(t, "middle_initial", c.NewField)
	assert.GreaterOrEqual(t, c.Similarity, 0.6)
}

func TestAnalyze_Invariants(t *testing.T) {
	oldSchema := snapshot("first_name", "text", "first_names", "text", "zip", "text", "dob", "date", "kept", "text")
	newSchema := snapshot("firstname", "text", "postal_code", "text", "birth_date", "date", "kept", "text")

	cs := NewAnalyzer(0.5).Analyze(oldSchema, newSchema)

	removed := make(map[string]bool)
	for _, f := range cs.Removed {
		removed[f.Name] = true
	}
	added := make(map[string]bool)
	for _, f := range cs.Added {
		assert.False(t, removed[f.Name], "%s is both added and removed", f.Name)
		added[f.Name] = true
	}
	for i, c := range cs.PotentialRenames {
		assert.True(t, removed[c.OldField], c.OldField)
		assert.True(t, added[c.NewField], c.NewField)
		assert.Greater(t, c.Similarity, 0.5)
		if i > 0 {
			assert.GreaterOrEqual(t, cs.PotentialRenames[i-1].Similarity, c.Similarity)
		}
	}
	assert.NotContains(t, names(cs.Removed), "kept")
}

func TestAnalyze_MultipleClaims(t *testing.T) {
	oldSchema := snapshot("first_name", "text", "first_names", "text")
	newSchema := snapshot("firstname", "text")

	cs := AnalyzeSchemaChange(oldSchema, newSchema)

	require.Len(t, cs.PotentialRenames, 2)
	assert.Equal(t, "first_name", cs.PotentialRenames[0].OldField)
	assert.Equal(t, "first_names", cs.PotentialRenames[1].OldField)

	assert.Equal(t, map[string]string{"first_name": "firstname"}, ResolveHighestSimilarity(cs))
	assert.Equal(t, map[string][]string{"firstname": {"first_name", "first_names"}}, Ambiguous(cs))
}

func TestAnalyze_Identical(t *testing.T) {
	s := snapshot("a", "text", "b", "number")
	cs := AnalyzeSchemaChange(s, s)

	assert.True(t, cs.IsEmpty())
	assert.NotNil(t, cs.Added)
	assert.NotNil(t, cs.Removed)
	assert.NotNil(t, cs.TypeChanged)
	assert.NotNil(t, cs.PotentialRenames)
}

func TestNewAnalyzer_Threshold(t *testing.T) {
	assert.InDelta(t, constants.RenameSimilarityThreshold, NewAnalyzer(1.5).Threshold, 1e-9)
	assert.InDelta(t, constants.RenameSimilarityThreshold, NewAnalyzer(-0.1).Threshold, 1e-9)
	assert.InDelta(t, 0.8, NewAnalyzer(0.8).Threshold, 1e-9)
}
