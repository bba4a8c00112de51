package task

import (
	"context"
	"errors"
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lerboi/FileManagement-sub001/internal/blob"
	"github.com/lerboi/FileManagement-sub001/internal/clock"
	"github.com/lerboi/FileManagement-sub001/internal/constants"
	"github.com/lerboi/FileManagement-sub001/internal/domain"
	docerrors "github.com/lerboi/FileManagement-sub001/internal/errors"
	"github.com/lerboi/FileManagement-sub001/internal/events"
	"github.com/lerboi/FileManagement-sub001/internal/fence"
	"github.com/lerboi/FileManagement-sub001/internal/fields"
	"github.com/lerboi/FileManagement-sub001/internal/followup"
	"github.com/lerboi/FileManagement-sub001/internal/generation"
	"github.com/lerboi/FileManagement-sub001/internal/metrics"
	"github.com/lerboi/FileManagement-sub001/internal/store"
)

// Result is the updated task plus any non-fatal warnings.
type Result struct {
	Task     *domain.Task
	Warnings []string
}

// GenerateResult reports one generation run.
type GenerateResult struct {
	// Success is true when at least one document was generated.
	Success            bool
	DocumentsGenerated int
	Warnings           []string
	Task               *domain.Task
}

// CreateRequest describes a new task.
type CreateRequest struct {
	ClientID          string
	ServiceID         string
	CustomFieldValues map[string]string
	Notes             string
	Priority          string
	AssignedTo        string
	// Draft keeps the task in draft until Finalize. Otherwise the task
	// starts in progress.
	Draft bool
}

// CompleteRequest carries optional data recorded at completion.
type CompleteRequest struct {
	Notes string
}

// Deps are the collaborators a Controller needs. Fence, FollowUps, Events
// and Metrics are optional.
type Deps struct {
	Store     store.Store
	Blobs     blob.Store
	Pipeline  *generation.Pipeline
	Fence     fence.Fence
	FollowUps followup.Queue
	Events    events.Publisher
	Metrics   *metrics.Metrics
	Clock     clock.Clock
}

// Controller drives tasks through their lifecycle.
type Controller struct {
	store     store.Store
	blobs     blob.Store
	pipeline  *generation.Pipeline
	fence     fence.Fence
	followups followup.Queue
	events    events.Publisher
	metrics   *metrics.Metrics
	clock     clock.Clock
	logger    zerolog.Logger
}

// NewController creates a Controller.
func NewController(deps Deps, logger zerolog.Logger) *Controller {
	c := &Controller{
		store:     deps.Store,
		blobs:     deps.Blobs,
		pipeline:  deps.Pipeline,
		fence:     deps.Fence,
		followups: deps.FollowUps,
		events:    deps.Events,
		metrics:   deps.Metrics,
		clock:     clock.OrReal(deps.Clock),
		logger:    logger.With().Str("component", "task_controller").Logger(),
	}
	if c.fence == nil {
		c.fence = fence.NewMemory(constants.DefaultFenceTTL, c.clock)
	}
	if c.events == nil {
		c.events = events.Nop{}
	}
	return c
}

// CreateDraft creates a task for a client and service, snapshotting the
// service's template list.
func (c *Controller) CreateDraft(ctx context.Context, req CreateRequest) (*Result, error) {
	var verr docerrors.ValidationError
	if strings.TrimSpace(req.ClientID) == "" {
		verr.Issues = append(verr.Issues, docerrors.Issue{Field: "client_id", Code: docerrors.IssueRequired, Message: "client id is required"})
	}
	if strings.TrimSpace(req.ServiceID) == "" {
		verr.Issues = append(verr.Issues, docerrors.Issue{Field: "service_id", Code: docerrors.IssueRequired, Message: "service id is required"})
	}
	if len(verr.Issues) > 0 {
		return nil, &verr
	}

	if _, err := c.store.GetClient(ctx, req.ClientID); err != nil {
		return nil, err
	}
	svc, err := c.store.GetService(ctx, req.ServiceID)
	if err != nil {
		return nil, err
	}
	if !svc.IsActive {
		return nil, docerrors.NewValidationError("service_id", fmt.Sprintf("service %s is inactive", svc.ID))
	}
	if len(svc.TemplateIDs) == 0 {
		return nil, docerrors.NewValidationError("service_id", fmt.Sprintf("service %s has no templates", svc.ID))
	}

	var warnings []string
	templates := make([]*domain.Template, 0, len(svc.TemplateIDs))
	for _, id := range svc.TemplateIDs {
		tmpl, err := c.store.GetTemplate(ctx, id)
		if errors.Is(err, docerrors.ErrTemplateNotFound) {
			warnings = append(warnings, fmt.Sprintf("template %s not found, it will fail to generate", id))
			continue
		}
		if err != nil {
			return nil, err
		}
		templates = append(templates, tmpl)
	}
	for _, conflict := range fields.DetectConflicts(templates) {
		warnings = append(warnings, conflict.String())
	}

	status := constants.TaskStatusInProgress
	if req.Draft {
		status = constants.TaskStatusDraft
	}
	now := c.clock.Now()
	t := &domain.Task{
		ID:                 uuid.NewString(),
		Status:             status,
		IsDraft:            req.Draft,
		ClientID:           req.ClientID,
		ServiceID:          svc.ID,
		TemplateIDs:        append([]string(nil), svc.TemplateIDs...),
		CustomFieldValues:  fields.NewIndex(fields.Collect(templates)).Normalize(req.CustomFieldValues),
		GeneratedDocuments: []domain.GeneratedDocument{},
		SignedDocuments:    []domain.SignedDocument{},
		Notes:              req.Notes,
		Priority:           req.Priority,
		AssignedTo:         req.AssignedTo,
		CreatedAt:          now,
	}
	if err := c.store.CreateTask(ctx, t); err != nil {
		return nil, err
	}

	c.logger.Info().
		Str("task_id", t.ID).
		Str("client_id", t.ClientID).
		Str("service_id", t.ServiceID).
		Str("status", t.Status.String()).
		Msg("task created")
	c.publish(ctx, events.EventTaskCreated, t, nil)
	return &Result{Task: t, Warnings: warnings}, nil
}

// Finalize moves a draft into progress and generates its documents.
func (c *Controller) Finalize(ctx context.Context, taskID string) (*Result, error) {
	token, err := c.fence.Acquire(ctx, taskID)
	if err != nil {
		return nil, err
	}
	defer c.release(ctx, taskID, token)

	t, err := c.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !t.IsDraft || t.Status != constants.TaskStatusDraft {
		return nil, transitionError(t.Status, constants.TaskStatusInProgress, false)
	}

	t.IsDraft = false
	if err := c.transition(ctx, t, constants.TaskStatusInProgress, "finalized"); err != nil {
		return nil, err
	}
	if err := c.store.UpdateTask(ctx, t); err != nil {
		return nil, err
	}

	gen, err := c.generate(ctx, t)
	if err != nil {
		return nil, err
	}
	return &Result{Task: gen.Task, Warnings: gen.Warnings}, nil
}

// Generate renders the task's documents. An awaiting task is moved back to
// in progress first and its previous documents are replaced.
func (c *Controller) Generate(ctx context.Context, taskID string) (*GenerateResult, error) {
	token, err := c.fence.Acquire(ctx, taskID)
	if err != nil {
		return nil, err
	}
	defer c.release(ctx, taskID, token)

	t, err := c.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	switch t.Status {
	case constants.TaskStatusInProgress:
	case constants.TaskStatusAwaiting:
		if err := c.transition(ctx, t, constants.TaskStatusInProgress, "regenerate", AsRetry()); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: task %s is %s, generation requires %s or %s",
			docerrors.ErrInvalidTransition, t.ID, t.Status,
			constants.TaskStatusInProgress, constants.TaskStatusAwaiting)
	}
	return c.generate(ctx, t)
}

// Retry clears previous generation results and regenerates every
// template from scratch.
func (c *Controller) Retry(ctx context.Context, taskID string) (*Result, error) {
	token, err := c.fence.Acquire(ctx, taskID)
	if err != nil {
		return nil, err
	}
	defer c.release(ctx, taskID, token)

	t, err := c.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !CanRetry(t) {
		return nil, transitionError(t.Status, constants.TaskStatusInProgress, true)
	}

	t.GeneratedDocuments = []domain.GeneratedDocument{}
	t.GenerationError = nil
	if t.Status == constants.TaskStatusAwaiting {
		if err := c.transition(ctx, t, constants.TaskStatusInProgress, "retry", AsRetry()); err != nil {
			return nil, err
		}
	}
	if err := c.store.UpdateTask(ctx, t); err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Debug().Str("task_id", t.ID).Msg("generation state reset for retry")

	gen, err := c.generate(ctx, t)
	if err != nil {
		return nil, err
	}
	return &Result{Task: gen.Task, Warnings: gen.Warnings}, nil
}

// generate runs the pipeline for an in-progress task and records the
// outcome. The caller holds the fence.
func (c *Controller) generate(ctx context.Context, t *domain.Task) (*GenerateResult, error) {
	logger := c.logger.With().Str("task_id", t.ID).Str("client_id", t.ClientID).Logger()
	ctx = logger.WithContext(ctx)

	out, err := c.pipeline.Run(ctx, t)
	if err != nil {
		return nil, err
	}

	now := c.clock.Now()
	t.GeneratedDocuments = out.Documents
	t.GenerationError = out.GenerationError
	t.GenerationCompletedAt = &now

	if out.Success() {
		reason := fmt.Sprintf("generated %d of %d documents", out.DocumentsGenerated, len(out.Documents))
		if err := c.transition(ctx, t, constants.TaskStatusAwaiting, reason); err != nil {
			return nil, err
		}
	}
	if err := c.store.UpdateTask(ctx, t); err != nil {
		return nil, err
	}

	if genErr := out.Err(); genErr != nil {
		logger.Warn().Err(genErr).Int("generated", out.DocumentsGenerated).Msg("generation finished with failures")
	} else {
		logger.Info().Int("generated", out.DocumentsGenerated).Msg("generation finished")
	}
	c.publish(ctx, events.EventTaskGenerated, t, map[string]any{
		"documents_generated": out.DocumentsGenerated,
		"result":              out.Batch.Result(),
	})

	return &GenerateResult{
		Success:            out.Success(),
		DocumentsGenerated: out.DocumentsGenerated,
		Warnings:           out.Warnings,
		Task:               t,
	}, nil
}

// Complete closes an awaiting task whose generated documents are all
// signed. The client summary update is queued afterwards; failing to queue
// it is reported as a warning and does not undo the completion.
func (c *Controller) Complete(ctx context.Context, taskID string, req CompleteRequest) (*Result, error) {
	token, err := c.fence.Acquire(ctx, taskID)
	if err != nil {
		return nil, err
	}
	defer c.release(ctx, taskID, token)

	t, err := c.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := CheckCompletion(t); err != nil {
		return nil, err
	}

	if req.Notes != "" {
		t.Notes = req.Notes
	}
	if err := c.transition(ctx, t, constants.TaskStatusCompleted, "all documents signed"); err != nil {
		return nil, err
	}
	if err := c.store.UpdateTask(ctx, t); err != nil {
		return nil, err
	}

	var warnings []string
	if c.followups != nil {
		action := followup.ClientSummary(t.ID, t.ClientID, *t.CompletedAt)
		if err := c.followups.Enqueue(ctx, action); err != nil {
			c.logger.Warn().Err(err).Str("task_id", t.ID).Msg("failed to queue client summary")
			warnings = append(warnings, fmt.Sprintf("client record not updated: %v", err))
		}
	}

	c.logger.Info().Str("task_id", t.ID).Msg("task completed")
	c.publish(ctx, events.EventTaskCompleted, t, nil)
	return &Result{Task: t, Warnings: warnings}, nil
}

// AttachSigned registers a signed copy of a generated template, replacing
// any earlier copy for the same template. The object must already exist.
func (c *Controller) AttachSigned(ctx context.Context, taskID, templateID, storagePath string) (*Result, error) {
	if strings.TrimSpace(storagePath) == "" {
		return nil, docerrors.NewValidationError("storage_path", "storage path is required")
	}
	if _, err := c.blobs.URL(ctx, storagePath); err != nil {
		return nil, err
	}

	t, err := c.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if t.Status != constants.TaskStatusAwaiting {
		return nil, docerrors.NewValidationError("status",
			fmt.Sprintf("signed copies can only be attached while %s, task is %s", constants.TaskStatusAwaiting, t.Status))
	}
	if !slices.Contains(t.TemplateIDs, templateID) {
		return nil, docerrors.NewValidationError("template_id",
			fmt.Sprintf("template %s is not part of task %s", templateID, t.ID))
	}

	signed := domain.SignedDocument{TemplateID: templateID, StoragePath: storagePath, UploadedAt: c.clock.Now()}
	replaced := false
	for i := range t.SignedDocuments {
		if t.SignedDocuments[i].TemplateID == templateID {
			t.SignedDocuments[i] = signed
			replaced = true
		}
	}
	if !replaced {
		t.SignedDocuments = append(t.SignedDocuments, signed)
	}
	if err := c.store.UpdateTask(ctx, t); err != nil {
		return nil, err
	}
	return &Result{Task: t}, nil
}

// UploadSigned stores a signed file under the task's prefix and attaches it.
func (c *Controller) UploadSigned(ctx context.Context, taskID, templateID, fileName string, data []byte) (*Result, error) {
	t, err := c.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	key := path.Join(blob.TaskPrefix(t.ClientID, t.ID), "signed", templateID, path.Base(fileName))
	if err := blob.ValidateKey(key); err != nil {
		return nil, err
	}
	if err := c.blobs.Put(ctx, key, data); err != nil {
		return nil, err
	}
	return c.AttachSigned(ctx, taskID, templateID, key)
}

// Get returns a task.
func (c *Controller) Get(ctx context.Context, taskID string) (*domain.Task, error) {
	return c.store.GetTask(ctx, taskID)
}

// List returns tasks matching filter, newest first.
func (c *Controller) List(ctx context.Context, filter store.TaskFilter) ([]*domain.Task, error) {
	return c.store.ListTasks(ctx, filter)
}

// DocumentURLs returns a URL per generated document, keyed by template id.
func (c *Controller) DocumentURLs(ctx context.Context, taskID string) (map[string]string, error) {
	t, err := c.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	urls := make(map[string]string, len(t.GeneratedDocuments))
	for _, doc := range t.GeneratedDocuments {
		if !doc.IsGenerated() {
			continue
		}
		u, err := c.blobs.URL(ctx, doc.StoragePath)
		if err != nil {
			return nil, err
		}
		urls[doc.TemplateID] = u
	}
	return urls, nil
}

// Delete removes a task and every object stored under its prefix.
func (c *Controller) Delete(ctx context.Context, taskID string) (int, error) {
	t, err := c.store.GetTask(ctx, taskID)
	if err != nil {
		return 0, err
	}
	n, err := c.blobs.DeletePrefix(ctx, blob.TaskPrefix(t.ClientID, t.ID))
	if err != nil {
		return 0, err
	}
	if err := c.store.DeleteTask(ctx, t.ID); err != nil {
		return n, err
	}
	c.logger.Info().Str("task_id", t.ID).Int("objects_removed", n).Msg("task deleted")
	return n, nil
}

func (c *Controller) transition(ctx context.Context, t *domain.Task, to constants.TaskStatus, reason string, opts ...TransitionOption) error {
	from := t.Status
	opts = append(opts, At(c.clock.Now()))
	if err := Transition(ctx, t, to, reason, opts...); err != nil {
		return err
	}
	c.metrics.ObserveTransition(from.String(), to.String())
	return nil
}

func (c *Controller) release(ctx context.Context, taskID, token string) {
	if err := c.fence.Release(context.WithoutCancel(ctx), taskID, token); err != nil {
		c.logger.Warn().Err(err).Str("task_id", taskID).Msg("failed to release generation fence")
	}
}

func (c *Controller) publish(ctx context.Context, typ events.EventType, t *domain.Task, extra map[string]any) {
	data := map[string]any{
		"task_id":   t.ID,
		"client_id": t.ClientID,
		"status":    t.Status.String(),
	}
	for k, v := range extra {
		data[k] = v
	}
	if err := c.events.Publish(ctx, events.New(typ, data)); err != nil {
		c.logger.Warn().Err(err).Str("event", string(typ)).Str("task_id", t.ID).Msg("failed to publish event")
	}
}
