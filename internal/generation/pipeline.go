// Package generation renders every template of a task into stored documents.
//
// Templates are rendered concurrently and independently: a failing template
// is recorded and never stops the others. Each run reports one document per
// template, successful or failed, plus the aggregated generation error.
package generation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/lerboi/FileManagement-sub001/internal/blob"
	"github.com/lerboi/FileManagement-sub001/internal/clock"
	"github.com/lerboi/FileManagement-sub001/internal/config"
	"github.com/lerboi/FileManagement-sub001/internal/constants"
	"github.com/lerboi/FileManagement-sub001/internal/domain"
	docerrors "github.com/lerboi/FileManagement-sub001/internal/errors"
	"github.com/lerboi/FileManagement-sub001/internal/fields"
	"github.com/lerboi/FileManagement-sub001/internal/metrics"
	"github.com/lerboi/FileManagement-sub001/internal/render"
	"github.com/lerboi/FileManagement-sub001/internal/store"
)

// Deps are the collaborators a Pipeline needs.
type Deps struct {
	Templates store.TemplateStore
	Clients   store.ClientStore
	Blobs     blob.Store
	Renderer  render.Renderer
	Clock     clock.Clock
	Metrics   *metrics.Metrics
}

// Pipeline renders a task's templates.
type Pipeline struct {
	templates store.TemplateStore
	clients   store.ClientStore
	blobs     blob.Store
	renderer  render.Renderer
	resolver  *fields.Resolver
	clock     clock.Clock
	metrics   *metrics.Metrics
	cfg       config.GenerationConfig
	logger    zerolog.Logger
}

// New creates a Pipeline. Zero concurrency or timeouts fall back to defaults.
func New(deps Deps, cfg config.GenerationConfig, logger zerolog.Logger) *Pipeline {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = constants.DefaultGenerationConcurrency
	}
	if cfg.TemplateTimeout <= 0 {
		cfg.TemplateTimeout = constants.DefaultTemplateTimeout
	}
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = constants.DefaultBatchTimeout
	}
	renderer := deps.Renderer
	if renderer == nil {
		renderer = render.NewTextRenderer(cfg.MissingValueMarker)
	}
	c := clock.OrReal(deps.Clock)
	return &Pipeline{
		templates: deps.Templates,
		clients:   deps.Clients,
		blobs:     deps.Blobs,
		renderer:  renderer,
		resolver:  fields.NewResolver(c),
		clock:     c,
		metrics:   deps.Metrics,
		cfg:       cfg,
		logger:    logger.With().Str("component", "generation").Logger(),
	}
}

// Run renders every template of task. It does not modify task.
//
// Run returns an error only when the batch cannot start: no templates, or
// the client record cannot be loaded. Template failures are reported in the
// Outcome.
func (p *Pipeline) Run(ctx context.Context, task *domain.Task) (*Outcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ids := distinct(task.TemplateIDs)
	if len(ids) == 0 {
		return nil, docerrors.NewValidationError("template_ids", fmt.Sprintf("task %s has no templates", task.ID))
	}

	client, err := p.clients.GetClient(ctx, task.ClientID)
	if err != nil {
		return nil, fmt.Errorf("failed to load client for task '%s': %w", task.ID, err)
	}

	logger := p.logger.With().Str("task_id", task.ID).Str("client_id", task.ClientID).Logger()
	ctx = logger.WithContext(ctx)

	batchCtx, cancel := context.WithTimeout(ctx, p.cfg.BatchTimeout)
	defer cancel()

	docs := make([]domain.GeneratedDocument, len(ids))
	warnings := make([][]string, len(ids))

	// Goroutines always return nil so one failing template cannot cancel
	// the rest of the batch.
	var g errgroup.Group
	g.SetLimit(p.cfg.Concurrency)
	for i, id := range ids {
		g.Go(func() error {
			docs[i], warnings[i] = p.generateOne(batchCtx, task, client, id)
			return nil
		})
	}
	_ = g.Wait()

	var all []string
	for _, w := range warnings {
		all = append(all, w...)
	}
	out := newOutcome(docs, all)
	p.metrics.ObserveBatch(out.Batch.Result())

	logger.Info().
		Int("generated", out.DocumentsGenerated).
		Int("failed", len(out.Batch.Failed)).
		Str("result", out.Batch.Result()).
		Msg("generation batch finished")
	return out, nil
}

// generateOne renders a single template. Failures are returned as a failed
// document, never as an error.
func (p *Pipeline) generateOne(ctx context.Context, task *domain.Task, client *domain.Client, templateID string) (domain.GeneratedDocument, []string) {
	logger := zerolog.Ctx(ctx).With().Str("template_id", templateID).Logger()
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, p.cfg.TemplateTimeout)
	defer cancel()

	doc := domain.GeneratedDocument{TemplateID: templateID, Status: constants.DocumentStatusPending}
	fail := func(err error) (domain.GeneratedDocument, []string) {
		doc.Status = constants.DocumentStatusFailed
		doc.Error = err.Error()
		p.metrics.ObserveRender(time.Since(start), false)
		logger.Warn().Err(err).Msg("template generation failed")
		return doc, nil
	}

	tmpl, err := p.templates.GetTemplate(ctx, templateID)
	if err != nil {
		return fail(err)
	}
	doc.TemplateName = tmpl.Name
	doc.FileName = tmpl.OutputFileName()

	if !tmpl.IsActive() {
		return fail(fmt.Errorf("template %s is %s, only active templates can be rendered", tmpl.ID, tmpl.Status))
	}

	data := p.resolver.Resolve(client, tmpl.CustomFields, task.CustomFieldValues)

	// Field problems do not block rendering; missing values render as the
	// marker and the issues travel back as warnings.
	var warnings []string
	if err := fields.Validate(tmpl.CustomFields, data); err != nil {
		var verr *docerrors.ValidationError
		if errors.As(err, &verr) {
			for _, issue := range verr.Issues {
				warnings = append(warnings, fmt.Sprintf("template %s: %s", tmpl.ID, issue.Message))
			}
		}
	}

	source := []byte(tmpl.Content)
	if tmpl.SourcePath != "" {
		source, err = p.blobs.Get(ctx, tmpl.SourcePath)
		if err != nil {
			return fail(fmt.Errorf("failed to load template source: %w", err))
		}
	}

	out, err := p.renderer.Render(ctx, render.Request{
		TemplateID: tmpl.ID,
		Source:     source,
		Mappings:   tmpl.FieldMappings,
		Data:       data,
	})
	if err != nil {
		d, _ := fail(err)
		return d, warnings
	}

	key := blob.DocumentKey(task.ClientID, task.ID, tmpl.ID, doc.FileName)
	if err := p.blobs.Put(ctx, key, out); err != nil {
		d, _ := fail(err)
		return d, warnings
	}

	now := p.clock.Now()
	doc.Status = constants.DocumentStatusGenerated
	doc.StoragePath = key
	doc.GeneratedAt = &now
	p.metrics.ObserveRender(time.Since(start), true)
	logger.Debug().Str("storage_path", key).Msg("document generated")
	return doc, warnings
}

// distinct drops repeated ids, keeping first occurrences in order.
func distinct(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
