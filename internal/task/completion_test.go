package task

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lerboi/FileManagement-sub001/internal/constants"
	"github.com/lerboi/FileManagement-sub001/internal/domain"
	docerrors "github.com/lerboi/FileManagement-sub001/internal/errors"
)

func generatedDoc(id, name string) domain.GeneratedDocument {
	return domain.GeneratedDocument{TemplateID: id, TemplateName: name, Status: constants.DocumentStatusGenerated}
}

func TestCheckCompletion(t *testing.T) {
	tests := []struct {
		name        string
		task        *domain.Task
		wantErr     bool
		wantMissing []string
		wantReasons int
	}{
		{
			name: "all generated documents signed",
			task: &domain.Task{
				Status:             constants.TaskStatusAwaiting,
				GeneratedDocuments: []domain.GeneratedDocument{generatedDoc("A", "Alpha"), {TemplateID: "B", Status: constants.DocumentStatusFailed}},
				SignedDocuments:    []domain.SignedDocument{{TemplateID: "A"}},
			},
		},
		{
			name: "extra signed documents are ignored",
			task: &domain.Task{
				Status:             constants.TaskStatusAwaiting,
				GeneratedDocuments: []domain.GeneratedDocument{generatedDoc("A", "Alpha")},
				SignedDocuments:    []domain.SignedDocument{{TemplateID: "A"}, {TemplateID: "Z"}},
			},
		},
		{
			name: "one generated and nothing signed",
			task: &domain.Task{
				Status:             constants.TaskStatusAwaiting,
				GeneratedDocuments: []domain.GeneratedDocument{generatedDoc("A", "Alpha")},
			},
			wantErr:     true,
			wantMissing: []string{"A"},
			wantReasons: 1,
		},
		{
			name: "nothing generated",
			task: &domain.Task{
				Status:             constants.TaskStatusAwaiting,
				GeneratedDocuments: []domain.GeneratedDocument{{TemplateID: "A", Status: constants.DocumentStatusFailed}},
			},
			wantErr:     true,
			wantReasons: 1,
		},
		{
			name: "every problem reported together",
			task: &domain.Task{
				Status:             constants.TaskStatusInProgress,
				GeneratedDocuments: []domain.GeneratedDocument{generatedDoc("A", "Alpha"), generatedDoc("B", "Beta")},
				SignedDocuments:    []domain.SignedDocument{{TemplateID: "B"}},
			},
			wantErr:     true,
			wantMissing: []string{"A"},
			wantReasons: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckCompletion(tt.task)
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, docerrors.ErrCompletionPrecondition)
			var perr *docerrors.PreconditionError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, tt.wantMissing, perr.MissingTemplates)
			assert.Len(t, perr.Reasons, tt.wantReasons)
		})
	}
}

func TestCheckCompletion_NamesTemplate(t *testing.T) {
	task := &domain.Task{
		Status:             constants.TaskStatusAwaiting,
		GeneratedDocuments: []domain.GeneratedDocument{generatedDoc("nda", "Mutual NDA")},
	}

	err := CheckCompletion(task)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Mutual NDA (nda)")
}
