package generation

import (
	"fmt"
	"strings"

	"github.com/lerboi/FileManagement-sub001/internal/domain"
	docerrors "github.com/lerboi/FileManagement-sub001/internal/errors"
)

// Batch result labels, also used as metric labels.
const (
	ResultSuccess = "success"
	ResultPartial = "partial"
	ResultFailed  = "failed"
)

// BatchResult splits one batch's documents by outcome. Both slices keep
// the task's template order.
type BatchResult struct {
	Succeeded []domain.GeneratedDocument
	Failed    []domain.GeneratedDocument
}

// Fold builds a BatchResult from per-template documents.
func Fold(docs []domain.GeneratedDocument) BatchResult {
	var r BatchResult
	for _, d := range docs {
		if d.IsGenerated() {
			r.Succeeded = append(r.Succeeded, d)
		} else {
			r.Failed = append(r.Failed, d)
		}
	}
	return r
}

// Result classifies the batch as success, partial or failed.
func (r BatchResult) Result() string {
	switch {
	case len(r.Failed) == 0:
		return ResultSuccess
	case len(r.Succeeded) == 0:
		return ResultFailed
	default:
		return ResultPartial
	}
}

// Err returns ErrPartialGeneration or ErrTotalGeneration naming the failed
// templates, or nil when everything rendered.
func (r BatchResult) Err() error {
	msg := r.FailureMessage()
	switch r.Result() {
	case ResultFailed:
		return fmt.Errorf("%w: %s", docerrors.ErrTotalGeneration, msg)
	case ResultPartial:
		return fmt.Errorf("%w: %s", docerrors.ErrPartialGeneration, msg)
	default:
		return nil
	}
}

// FailureMessage joins the failed documents' errors, one per template.
func (r BatchResult) FailureMessage() string {
	parts := make([]string, 0, len(r.Failed))
	for _, d := range r.Failed {
		name := d.TemplateName
		if name == "" {
			name = d.TemplateID
		}
		parts = append(parts, fmt.Sprintf("%s: %s", name, d.Error))
	}
	return strings.Join(parts, "; ")
}

// Outcome is what one pipeline run reports back to the lifecycle controller.
type Outcome struct {
	// DocumentsGenerated counts documents in generated status.
	DocumentsGenerated int
	// Warnings lists non-fatal problems, including every failed template.
	Warnings []string
	// Documents has exactly one entry per distinct template id, in order.
	Documents []domain.GeneratedDocument
	// GenerationError is nil when every template rendered.
	GenerationError *string
	Batch           BatchResult
}

// Success reports whether at least one document was generated.
func (o *Outcome) Success() bool {
	return o.DocumentsGenerated > 0
}

// Err returns the batch's partial or total failure, if any.
func (o *Outcome) Err() error {
	return o.Batch.Err()
}

func newOutcome(docs []domain.GeneratedDocument, warnings []string) *Outcome {
	batch := Fold(docs)
	o := &Outcome{
		DocumentsGenerated: len(batch.Succeeded),
		Documents:          docs,
		Batch:              batch,
		Warnings:           warnings,
	}
	if len(batch.Failed) > 0 {
		msg := batch.FailureMessage()
		o.GenerationError = &msg
		for _, d := range batch.Failed {
			o.Warnings = append(o.Warnings, fmt.Sprintf("template %s failed: %s", d.TemplateID, d.Error))
		}
	}
	return o
}
