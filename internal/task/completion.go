package task

import (
	"fmt"

	"github.com/lerboi/FileManagement-sub001/internal/constants"
	"github.com/lerboi/FileManagement-sub001/internal/domain"
	docerrors "github.com/lerboi/FileManagement-sub001/internal/errors"
)

// CheckCompletion verifies that a task may be completed: it is awaiting,
// has at least one generated document, and every generated document has a
// signed counterpart for the same template. Every failing condition is
// reported in one *errors.PreconditionError. Signed documents for templates
// that were never generated are ignored.
func CheckCompletion(t *domain.Task) error {
	var perr docerrors.PreconditionError

	if t.Status != constants.TaskStatusAwaiting {
		perr.Reasons = append(perr.Reasons,
			fmt.Sprintf("task is %s, it must be %s", t.Status, constants.TaskStatusAwaiting))
	}

	generated := 0
	for _, doc := range t.GeneratedDocuments {
		if !doc.IsGenerated() {
			continue
		}
		generated++
		if _, ok := t.SignedFor(doc.TemplateID); !ok {
			perr.MissingTemplates = append(perr.MissingTemplates, doc.TemplateID)
			perr.Reasons = append(perr.Reasons,
				fmt.Sprintf("missing signed copy of %s", documentLabel(doc)))
		}
	}
	if generated == 0 {
		perr.Reasons = append(perr.Reasons, "no generated documents")
	}

	if len(perr.Reasons) == 0 {
		return nil
	}
	return &perr
}

func documentLabel(doc domain.GeneratedDocument) string {
	if doc.TemplateName == "" || doc.TemplateName == doc.TemplateID {
		return doc.TemplateID
	}
	return fmt.Sprintf("%s (%s)", doc.TemplateName, doc.TemplateID)
}
