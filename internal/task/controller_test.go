package task

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lerboi/FileManagement-sub001/internal/blob"
	"github.com/lerboi/FileManagement-sub001/internal/clock"
	"github.com/lerboi/FileManagement-sub001/internal/config"
	"github.com/lerboi/FileManagement-sub001/internal/constants"
	"github.com/lerboi/FileManagement-sub001/internal/domain"
	docerrors "github.com/lerboi/FileManagement-sub001/internal/errors"
	"github.com/lerboi/FileManagement-sub001/internal/events"
	"github.com/lerboi/FileManagement-sub001/internal/fence"
	"github.com/lerboi/FileManagement-sub001/internal/followup"
	"github.com/lerboi/FileManagement-sub001/internal/generation"
	"github.com/lerboi/FileManagement-sub001/internal/metrics"
	"github.com/lerboi/FileManagement-sub001/internal/render"
	"github.com/lerboi/FileManagement-sub001/internal/store"
	"github.com/lerboi/FileManagement-sub001/internal/testutil"
)

var controllerNow = time.Date(2025, 3, 7, 9, 0, 0, 0, time.UTC) //nolint:gochecknoglobals // test fixture

// switchableBlobs fails Put for keys under any template listed in failing
// and counts successful writes per key.
type switchableBlobs struct {
	blob.Store
	mu      sync.Mutex
	failing map[string]bool
	puts    map[string]int
}

func (s *switchableBlobs) Put(ctx context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for tmpl := range s.failing {
		if strings.Contains(key, "/"+tmpl+"/") {
			return docerrors.NewStorageError("put", key, testutil.ErrMockBucketUnavailable)
		}
	}
	s.puts[key]++
	return s.Store.Put(ctx, key, data)
}

func (s *switchableBlobs) fail(templates ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failing = make(map[string]bool, len(templates))
	for _, t := range templates {
		s.failing[t] = true
	}
}

// failingQueue rejects every enqueue.
type failingQueue struct{ followup.Queue }

func (failingQueue) Enqueue(context.Context, followup.Action) error {
	return docerrors.NewStorageError("push", "followup", testutil.ErrMockRedisDown)
}

type controllerHarness struct {
	ctrl    *Controller
	records *store.FileStore
	blobs   *switchableBlobs
	queue   *followup.MemoryQueue
	bus     *events.Bus
	fence   *fence.Memory
	metrics *metrics.Metrics
}

func newControllerHarness(t *testing.T, renderer render.Renderer) *controllerHarness {
	t.Helper()
	ctx := context.Background()
	clk := clock.Fixed(controllerNow)

	records, err := store.NewFileStore(t.TempDir(), clk, zerolog.Nop())
	require.NoError(t, err)
	files, err := blob.NewFileStore(t.TempDir(), "", zerolog.Nop())
	require.NoError(t, err)
	blobs := &switchableBlobs{Store: files, puts: map[string]int{}}

	require.NoError(t, records.SaveClient(ctx, &domain.Client{ID: "c1", Fields: map[string]any{
		"first_name": "Ada",
		"last_name":  "Lovelace",
	}}))
	for _, tmpl := range []*domain.Template{
		{ID: "A", Name: "Alpha", Status: constants.TemplateStatusActive, Content: "A for {{full_name}} re {{matter_ref}}",
			CustomFields: []domain.CustomField{{Name: "matter_ref", Label: "Matter Reference", Type: constants.FieldTypeText}}},
		{ID: "B", Name: "Beta", Status: constants.TemplateStatusActive, Content: "B for {{full_name}}"},
	} {
		require.NoError(t, records.SaveTemplate(ctx, tmpl))
	}
	require.NoError(t, records.SaveService(ctx, &domain.Service{ID: "svc", Name: "Onboarding", TemplateIDs: []string{"A", "B"}, IsActive: true}))
	require.NoError(t, records.SaveService(ctx, &domain.Service{ID: "closed", Name: "Closed", TemplateIDs: []string{"A"}}))
	require.NoError(t, records.SaveService(ctx, &domain.Service{ID: "empty", Name: "Empty", IsActive: true}))

	m := metrics.New()
	pipeline := generation.New(generation.Deps{
		Templates: records,
		Clients:   records,
		Blobs:     blobs,
		Renderer:  renderer,
		Clock:     clk,
		Metrics:   m,
	}, config.GenerationConfig{Concurrency: 2}, zerolog.Nop())

	h := &controllerHarness{
		records: records,
		blobs:   blobs,
		queue:   followup.NewMemoryQueue(),
		bus:     events.NewBus(10, zerolog.Nop()),
		fence:   fence.NewMemory(time.Minute, clk),
		metrics: m,
	}
	t.Cleanup(h.bus.Close)
	h.ctrl = NewController(Deps{
		Store:     records,
		Blobs:     blobs,
		Pipeline:  pipeline,
		Fence:     h.fence,
		FollowUps: h.queue,
		Events:    h.bus,
		Metrics:   m,
		Clock:     clk,
	}, zerolog.Nop())
	return h
}

func (h *controllerHarness) create(t *testing.T, draft bool) *domain.Task {
	t.Helper()
	res, err := h.ctrl.CreateDraft(context.Background(), CreateRequest{
		ClientID:          "c1",
		ServiceID:         "svc",
		CustomFieldValues: map[string]string{"Matter Reference": "M-7"},
		Draft:             draft,
	})
	require.NoError(t, err)
	return res.Task
}

func TestController_CreateDraft(t *testing.T) {
	h := newControllerHarness(t, nil)

	created := make(chan events.Event, 1)
	unsub := h.bus.Subscribe(events.EventTaskCreated, func(e events.Event) { created <- e })
	defer unsub()

	task := h.create(t, true)
	assert.NotEmpty(t, task.ID)
	assert.Equal(t, constants.TaskStatusDraft, task.Status)
	assert.True(t, task.IsDraft)
	assert.Equal(t, []string{"A", "B"}, task.TemplateIDs)
	assert.Equal(t, map[string]string{"matter_ref": "M-7"}, task.CustomFieldValues)
	assert.Empty(t, task.GeneratedDocuments)
	assert.Nil(t, task.GenerationError)

	stored, err := h.records.GetTask(context.Background(), task.ID)
	require.NoError(t, err)
	assert.Equal(t, task.TemplateIDs, stored.TemplateIDs)

	select {
	case e := <-created:
		assert.Equal(t, task.ID, e.Data["task_id"])
	case <-time.After(time.Second):
		t.Fatal("task.created not published")
	}
}

func TestController_CreateDraft_NoDraftStage(t *testing.T) {
	h := newControllerHarness(t, nil)

	task := h.create(t, false)
	assert.Equal(t, constants.TaskStatusInProgress, task.Status)
	assert.False(t, task.IsDraft)
}

func TestController_CreateDraft_Rejects(t *testing.T) {
	h := newControllerHarness(t, nil)
	ctx := context.Background()

	tests := []struct {
		name    string
		req     CreateRequest
		wantErr error
	}{
		{"missing ids", CreateRequest{}, docerrors.ErrValidation},
		{"unknown client", CreateRequest{ClientID: "ghost", ServiceID: "svc"}, docerrors.ErrClientNotFound},
		{"unknown service", CreateRequest{ClientID: "c1", ServiceID: "ghost"}, docerrors.ErrServiceNotFound},
		{"inactive service", CreateRequest{ClientID: "c1", ServiceID: "closed"}, docerrors.ErrValidation},
		{"service without templates", CreateRequest{ClientID: "c1", ServiceID: "empty"}, docerrors.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.ctrl.CreateDraft(ctx, tt.req)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}

	_, err := h.ctrl.CreateDraft(ctx, CreateRequest{})
	var verr *docerrors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Issues, 2)
}

func TestController_Finalize(t *testing.T) {
	h := newControllerHarness(t, nil)
	ctx := context.Background()
	task := h.create(t, true)

	res, err := h.ctrl.Finalize(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.TaskStatusAwaiting, res.Task.Status)
	assert.False(t, res.Task.IsDraft)
	assert.Equal(t, 2, res.Task.GeneratedCount())
	assert.Nil(t, res.Task.GenerationError)
	require.NotNil(t, res.Task.GenerationCompletedAt)

	require.Len(t, res.Task.Transitions, 2)
	assert.Equal(t, constants.TaskStatusInProgress, res.Task.Transitions[0].ToStatus)
	assert.Equal(t, constants.TaskStatusAwaiting, res.Task.Transitions[1].ToStatus)

	data, err := h.blobs.Get(ctx, res.Task.GeneratedDocuments[0].StoragePath)
	require.NoError(t, err)
	assert.Equal(t, "A for Ada Lovelace re M-7", string(data))

	_, err = h.ctrl.Finalize(ctx, task.ID)
	require.ErrorIs(t, err, docerrors.ErrInvalidTransition)
}

// A renders, B fails to store: the task still moves to awaiting with only
// B named in the generation error.
func TestController_PartialFailure(t *testing.T) {
	h := newControllerHarness(t, nil)
	ctx := context.Background()
	task := h.create(t, false)
	h.blobs.fail("B")

	gen, err := h.ctrl.Generate(ctx, task.ID)
	require.NoError(t, err)
	assert.True(t, gen.Success)
	assert.Equal(t, 1, gen.DocumentsGenerated)
	assert.NotEmpty(t, gen.Warnings)

	got := gen.Task
	assert.Equal(t, constants.TaskStatusAwaiting, got.Status)
	require.Len(t, got.GeneratedDocuments, 2)
	assert.Equal(t, "A", got.GeneratedDocuments[0].TemplateID)
	assert.Equal(t, constants.DocumentStatusGenerated, got.GeneratedDocuments[0].Status)
	assert.Equal(t, "B", got.GeneratedDocuments[1].TemplateID)
	assert.Equal(t, constants.DocumentStatusFailed, got.GeneratedDocuments[1].Status)
	assert.NotEmpty(t, got.GeneratedDocuments[1].Error)
	require.NotNil(t, got.GenerationError)
	assert.Contains(t, *got.GenerationError, "Beta")
	assert.NotContains(t, *got.GenerationError, "Alpha")
}

// After a partial failure, retry re-renders both templates from an empty
// state, not just the failed one.
func TestController_RetryRegeneratesEverything(t *testing.T) {
	var h *controllerHarness
	var seenDuringRender []*domain.Task
	var mu sync.Mutex
	renderer := render.Func(func(ctx context.Context, req render.Request) ([]byte, error) {
		tasks, err := h.records.ListTasks(ctx, store.TaskFilter{})
		if err == nil && len(tasks) == 1 {
			mu.Lock()
			seenDuringRender = append(seenDuringRender, tasks[0])
			mu.Unlock()
		}
		return render.NewTextRenderer("").Render(ctx, req)
	})
	h = newControllerHarness(t, renderer)
	ctx := context.Background()
	task := h.create(t, false)

	h.blobs.fail("B")
	_, err := h.ctrl.Generate(ctx, task.ID)
	require.NoError(t, err)
	keyA := "clients/c1/tasks/" + task.ID + "/A/A.txt"
	assert.Equal(t, 1, h.blobs.puts[keyA])

	h.blobs.fail()
	mu.Lock()
	seenDuringRender = nil
	mu.Unlock()

	res, err := h.ctrl.Retry(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.TaskStatusAwaiting, res.Task.Status)
	assert.Equal(t, 2, res.Task.GeneratedCount())
	assert.Len(t, res.Task.GeneratedDocuments, 2)
	assert.Nil(t, res.Task.GenerationError)
	assert.Equal(t, 2, h.blobs.puts[keyA], "A must be rendered again")

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, seenDuringRender)
	for _, seen := range seenDuringRender {
		assert.Empty(t, seen.GeneratedDocuments, "generated documents are cleared before re-render")
		assert.Nil(t, seen.GenerationError, "generation error is cleared before re-render")
		assert.Equal(t, constants.TaskStatusInProgress, seen.Status)
	}

	var retryEdge bool
	for _, tr := range res.Task.Transitions {
		if tr.FromStatus == constants.TaskStatusAwaiting && tr.ToStatus == constants.TaskStatusInProgress {
			retryEdge = tr.Reason == "retry"
		}
	}
	assert.True(t, retryEdge)
}

func TestController_TotalFailureStaysInProgress(t *testing.T) {
	h := newControllerHarness(t, nil)
	ctx := context.Background()
	task := h.create(t, false)
	h.blobs.fail("A", "B")

	gen, err := h.ctrl.Generate(ctx, task.ID)
	require.NoError(t, err)
	assert.False(t, gen.Success)
	assert.Zero(t, gen.DocumentsGenerated)
	assert.Equal(t, constants.TaskStatusInProgress, gen.Task.Status)
	require.NotNil(t, gen.Task.GenerationError)
	assert.Contains(t, *gen.Task.GenerationError, "Alpha")
	assert.Contains(t, *gen.Task.GenerationError, "Beta")

	h.blobs.fail()
	res, err := h.ctrl.Retry(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.TaskStatusAwaiting, res.Task.Status)
}

func TestController_RegenerateKeepsOneEntryPerTemplate(t *testing.T) {
	h := newControllerHarness(t, nil)
	ctx := context.Background()
	task := h.create(t, false)

	for range 3 {
		gen, err := h.ctrl.Generate(ctx, task.ID)
		require.NoError(t, err)
		assert.Len(t, gen.Task.GeneratedDocuments, 2)
		assert.Equal(t, constants.TaskStatusAwaiting, gen.Task.Status)
	}
}

func TestController_GenerateRejects(t *testing.T) {
	h := newControllerHarness(t, nil)
	ctx := context.Background()

	draft := h.create(t, true)
	_, err := h.ctrl.Generate(ctx, draft.ID)
	require.ErrorIs(t, err, docerrors.ErrInvalidTransition)

	_, err = h.ctrl.Generate(ctx, "missing")
	require.ErrorIs(t, err, docerrors.ErrTaskNotFound)

	task := h.create(t, false)
	token, err := h.fence.Acquire(ctx, task.ID)
	require.NoError(t, err)
	_, err = h.ctrl.Generate(ctx, task.ID)
	require.ErrorIs(t, err, docerrors.ErrGenerationInProgress)
	_, err = h.ctrl.Retry(ctx, task.ID)
	require.ErrorIs(t, err, docerrors.ErrGenerationInProgress)
	require.NoError(t, h.fence.Release(ctx, task.ID, token))

	_, err = h.ctrl.Generate(ctx, task.ID)
	require.NoError(t, err)
}

func TestController_CompleteRequiresSignatures(t *testing.T) {
	h := newControllerHarness(t, nil)
	ctx := context.Background()
	task := h.create(t, false)
	h.blobs.fail("B")
	_, err := h.ctrl.Generate(ctx, task.ID)
	require.NoError(t, err)

	_, err = h.ctrl.Complete(ctx, task.ID, CompleteRequest{})
	var perr *docerrors.PreconditionError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, []string{"A"}, perr.MissingTemplates)

	stored, err := h.records.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.TaskStatusAwaiting, stored.Status)
}

func TestController_Complete(t *testing.T) {
	h := newControllerHarness(t, nil)
	ctx := context.Background()
	task := h.create(t, false)
	_, err := h.ctrl.Generate(ctx, task.ID)
	require.NoError(t, err)

	_, err = h.ctrl.UploadSigned(ctx, task.ID, "A", "/tmp/scans/alpha-signed.pdf", []byte("signed A"))
	require.NoError(t, err)
	res, err := h.ctrl.UploadSigned(ctx, task.ID, "B", "beta-signed.pdf", []byte("signed B"))
	require.NoError(t, err)
	require.Len(t, res.Task.SignedDocuments, 2)
	assert.Equal(t, "clients/c1/tasks/"+task.ID+"/signed/A/alpha-signed.pdf", res.Task.SignedDocuments[0].StoragePath)

	done, err := h.ctrl.Complete(ctx, task.ID, CompleteRequest{Notes: "filed"})
	require.NoError(t, err)
	assert.Empty(t, done.Warnings)
	assert.Equal(t, constants.TaskStatusCompleted, done.Task.Status)
	assert.Equal(t, "filed", done.Task.Notes)
	require.NotNil(t, done.Task.CompletedAt)
	assert.Equal(t, controllerNow, *done.Task.CompletedAt)

	n, err := h.queue.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	p := followup.NewProcessor(h.queue, h.records, 3, zerolog.Nop(), followup.WithBackoff(time.Millisecond))
	stats, err := p.Drain(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Applied)
	client, err := h.records.GetClient(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, task.ID, client.Fields["last_completed_task_id"])

	_, err = h.ctrl.Retry(ctx, task.ID)
	require.ErrorIs(t, err, docerrors.ErrInvalidTransition)
	_, err = h.ctrl.Complete(ctx, task.ID, CompleteRequest{})
	require.ErrorIs(t, err, docerrors.ErrCompletionPrecondition)
}

func TestController_CompleteWaitsForGeneration(t *testing.T) {
	h := newControllerHarness(t, nil)
	ctx := context.Background()
	task := h.create(t, false)
	_, err := h.ctrl.Generate(ctx, task.ID)
	require.NoError(t, err)
	for _, id := range []string{"A", "B"} {
		_, err = h.ctrl.UploadSigned(ctx, task.ID, id, id+".pdf", []byte("signed"))
		require.NoError(t, err)
	}

	token, err := h.fence.Acquire(ctx, task.ID)
	require.NoError(t, err)
	_, err = h.ctrl.Complete(ctx, task.ID, CompleteRequest{})
	require.ErrorIs(t, err, docerrors.ErrGenerationInProgress)

	stored, err := h.records.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.TaskStatusAwaiting, stored.Status)
	n, err := h.queue.Len(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, h.fence.Release(ctx, task.ID, token))
	res, err := h.ctrl.Complete(ctx, task.ID, CompleteRequest{})
	require.NoError(t, err)
	assert.Equal(t, constants.TaskStatusCompleted, res.Task.Status)
}

func TestController_CompleteSurvivesQueueFailure(t *testing.T) {
	h := newControllerHarness(t, nil)
	h.ctrl.followups = failingQueue{}
	ctx := context.Background()
	task := h.create(t, false)
	_, err := h.ctrl.Generate(ctx, task.ID)
	require.NoError(t, err)
	for _, id := range []string{"A", "B"} {
		_, err = h.ctrl.UploadSigned(ctx, task.ID, id, id+".pdf", []byte("signed"))
		require.NoError(t, err)
	}

	res, err := h.ctrl.Complete(ctx, task.ID, CompleteRequest{})
	require.NoError(t, err)
	assert.Equal(t, constants.TaskStatusCompleted, res.Task.Status)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "redis down")
}

func TestController_AttachSignedRejects(t *testing.T) {
	h := newControllerHarness(t, nil)
	ctx := context.Background()
	task := h.create(t, false)
	require.NoError(t, h.blobs.Put(ctx, "inbox/signed.pdf", []byte("x")))

	_, err := h.ctrl.AttachSigned(ctx, task.ID, "A", "inbox/signed.pdf")
	require.ErrorIs(t, err, docerrors.ErrValidation, "task is not awaiting yet")

	_, err = h.ctrl.Generate(ctx, task.ID)
	require.NoError(t, err)

	_, err = h.ctrl.AttachSigned(ctx, task.ID, "Z", "inbox/signed.pdf")
	require.ErrorIs(t, err, docerrors.ErrValidation)

	_, err = h.ctrl.AttachSigned(ctx, task.ID, "A", "inbox/missing.pdf")
	require.ErrorIs(t, err, docerrors.ErrObjectNotFound)

	_, err = h.ctrl.AttachSigned(ctx, task.ID, "A", "")
	require.ErrorIs(t, err, docerrors.ErrValidation)

	first, err := h.ctrl.AttachSigned(ctx, task.ID, "A", "inbox/signed.pdf")
	require.NoError(t, err)
	require.Len(t, first.Task.SignedDocuments, 1)
	again, err := h.ctrl.AttachSigned(ctx, task.ID, "A", "inbox/signed.pdf")
	require.NoError(t, err)
	assert.Len(t, again.Task.SignedDocuments, 1, "signed copies upsert by template")
}

func TestController_DocumentURLsAndDelete(t *testing.T) {
	h := newControllerHarness(t, nil)
	ctx := context.Background()
	task := h.create(t, false)
	_, err := h.ctrl.Generate(ctx, task.ID)
	require.NoError(t, err)

	urls, err := h.ctrl.DocumentURLs(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, urls, 2)
	assert.True(t, strings.HasPrefix(urls["A"], "file://"))

	list, err := h.ctrl.List(ctx, store.TaskFilter{Status: constants.TaskStatusAwaiting})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	removed, err := h.ctrl.Delete(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	_, err = h.ctrl.Get(ctx, task.ID)
	require.ErrorIs(t, err, docerrors.ErrTaskNotFound)
}
