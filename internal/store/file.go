package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/lerboi/FileManagement-sub001/internal/clock"
	"github.com/lerboi/FileManagement-sub001/internal/constants"
	"github.com/lerboi/FileManagement-sub001/internal/domain"
	docerrors "github.com/lerboi/FileManagement-sub001/internal/errors"
	"github.com/lerboi/FileManagement-sub001/internal/fileutil"
	"github.com/lerboi/FileManagement-sub001/internal/flock"
)

// FileStore implements Store with one JSON file per record under
// {dataDir}/{collection}/{id}.json. Writes are atomic and serialized per
// record by an exclusive file lock, so several processes may share a data
// directory.
type FileStore struct {
	dataDir string
	clock   clock.Clock
	logger  zerolog.Logger
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates a FileStore rooted at dataDir.
func NewFileStore(dataDir string, c clock.Clock, logger zerolog.Logger) (*FileStore, error) {
	if dataDir == "" {
		return nil, fmt.Errorf("data directory %w", docerrors.ErrEmptyValue)
	}
	if err := os.MkdirAll(dataDir, fileutil.DirPerm); err != nil {
		return nil, docerrors.NewStorageError("init", dataDir, err)
	}
	return &FileStore{
		dataDir: dataDir,
		clock:   clock.OrReal(c),
		logger:  logger.With().Str("component", "file_store").Logger(),
	}, nil
}

// Close implements Store. The file store holds no open handles.
func (s *FileStore) Close() error { return nil }

// CreateTask implements TaskStore.
func (s *FileStore) CreateTask(ctx context.Context, task *domain.Task) error {
	if task == nil || task.ID == "" {
		return fmt.Errorf("failed to create task: task ID %w", docerrors.ErrEmptyValue)
	}
	now := s.clock.Now()
	if task.CreatedAt.IsZero() {
		task.CreatedAt = now
	}
	task.UpdatedAt = now
	task.SchemaVersion = constants.TaskSchemaVersion
	task.Version = 1

	if err := s.create(ctx, constants.CollectionTasks, task.ID, task); err != nil {
		task.Version = 0
		return fmt.Errorf("failed to create task '%s': %w", task.ID, err)
	}
	return nil
}

// GetTask implements TaskStore.
func (s *FileStore) GetTask(ctx context.Context, id string) (*domain.Task, error) {
	var task domain.Task
	if err := s.get(ctx, constants.CollectionTasks, id, docerrors.ErrTaskNotFound, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// UpdateTask implements TaskStore.
func (s *FileStore) UpdateTask(ctx context.Context, task *domain.Task) error {
	if task == nil || task.ID == "" {
		return fmt.Errorf("failed to update task: task ID %w", docerrors.ErrEmptyValue)
	}
	return s.update(ctx, constants.CollectionTasks, task.ID, docerrors.ErrTaskNotFound,
		task, &task.Version, &task.UpdatedAt)
}

// ListTasks implements TaskStore.
func (s *FileStore) ListTasks(ctx context.Context, filter TaskFilter) ([]*domain.Task, error) {
	var tasks []*domain.Task
	err := s.list(ctx, constants.CollectionTasks, func(data []byte) error {
		var t domain.Task
		if err := json.Unmarshal(data, &t); err != nil {
			return err
		}
		if filter.Match(&t) {
			tasks = append(tasks, &t)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(tasks, func(i, j int) bool {
		return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
	})
	return page(tasks, filter.Offset, filter.Limit), nil
}

// DeleteTask implements TaskStore.
func (s *FileStore) DeleteTask(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if id == "" {
		return fmt.Errorf("failed to delete task: task ID %w", docerrors.ErrEmptyValue)
	}

	lock, err := s.acquireLock(ctx, constants.CollectionTasks, id)
	if err != nil {
		return fmt.Errorf("failed to delete task '%s': %w", id, err)
	}
	defer func() { _ = lock.Release() }()

	if err := os.Remove(s.recordPath(constants.CollectionTasks, id)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to delete task '%s': %w", id, docerrors.ErrTaskNotFound)
		}
		return docerrors.NewStorageError("delete", id, err)
	}
	return nil
}

// GetTemplate implements TemplateStore.
func (s *FileStore) GetTemplate(ctx context.Context, id string) (*domain.Template, error) {
	var tmpl domain.Template
	if err := s.get(ctx, constants.CollectionTemplates, id, docerrors.ErrTemplateNotFound, &tmpl); err != nil {
		return nil, err
	}
	return &tmpl, nil
}

// SaveTemplate implements TemplateStore.
func (s *FileStore) SaveTemplate(ctx context.Context, tmpl *domain.Template) error {
	if tmpl == nil || tmpl.ID == "" {
		return fmt.Errorf("failed to save template: template ID %w", docerrors.ErrEmptyValue)
	}
	if tmpl.Version == 0 {
		now := s.clock.Now()
		tmpl.CreatedAt, tmpl.UpdatedAt, tmpl.Version = now, now, 1
		if err := s.create(ctx, constants.CollectionTemplates, tmpl.ID, tmpl); err != nil {
			tmpl.Version = 0
			return fmt.Errorf("failed to create template '%s': %w", tmpl.ID, err)
		}
		return nil
	}
	return s.update(ctx, constants.CollectionTemplates, tmpl.ID, docerrors.ErrTemplateNotFound,
		tmpl, &tmpl.Version, &tmpl.UpdatedAt)
}

// ListTemplates implements TemplateStore.
func (s *FileStore) ListTemplates(ctx context.Context) ([]*domain.Template, error) {
	var out []*domain.Template
	err := s.list(ctx, constants.CollectionTemplates, func(data []byte) error {
		var t domain.Template
		if err := json.Unmarshal(data, &t); err != nil {
			return err
		}
		out = append(out, &t)
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

// GetService implements ServiceStore.
func (s *FileStore) GetService(ctx context.Context, id string) (*domain.Service, error) {
	var svc domain.Service
	if err := s.get(ctx, constants.CollectionServices, id, docerrors.ErrServiceNotFound, &svc); err != nil {
		return nil, err
	}
	return &svc, nil
}

// SaveService implements ServiceStore.
func (s *FileStore) SaveService(ctx context.Context, svc *domain.Service) error {
	if svc == nil || svc.ID == "" {
		return fmt.Errorf("failed to save service: service ID %w", docerrors.ErrEmptyValue)
	}
	return s.upsert(ctx, constants.CollectionServices, svc.ID, svc)
}

// ListServices implements ServiceStore.
func (s *FileStore) ListServices(ctx context.Context) ([]*domain.Service, error) {
	var out []*domain.Service
	err := s.list(ctx, constants.CollectionServices, func(data []byte) error {
		var svc domain.Service
		if err := json.Unmarshal(data, &svc); err != nil {
			return err
		}
		out = append(out, &svc)
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

// GetClient implements ClientStore.
func (s *FileStore) GetClient(ctx context.Context, id string) (*domain.Client, error) {
	var c domain.Client
	if err := s.get(ctx, constants.CollectionClients, id, docerrors.ErrClientNotFound, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// SaveClient implements ClientStore.
func (s *FileStore) SaveClient(ctx context.Context, client *domain.Client) error {
	if client == nil || client.ID == "" {
		return fmt.Errorf("failed to save client: client ID %w", docerrors.ErrEmptyValue)
	}
	return s.upsert(ctx, constants.CollectionClients, client.ID, client)
}

// MergeClientFields implements ClientStore.
func (s *FileStore) MergeClientFields(ctx context.Context, id string, fields map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if id == "" {
		return fmt.Errorf("failed to update client: client ID %w", docerrors.ErrEmptyValue)
	}

	lock, err := s.acquireLock(ctx, constants.CollectionClients, id)
	if err != nil {
		return fmt.Errorf("failed to update client '%s': %w", id, err)
	}
	defer func() { _ = lock.Release() }()

	data, err := s.read(constants.CollectionClients, id, docerrors.ErrClientNotFound)
	if err != nil {
		return err
	}
	var c domain.Client
	if err := json.Unmarshal(data, &c); err != nil {
		return fmt.Errorf("failed to parse client '%s': corrupted record: %w", id, err)
	}
	if c.Fields == nil {
		c.Fields = make(map[string]any, len(fields))
	}
	for k, v := range fields {
		c.Fields[k] = v
	}
	return s.write(constants.CollectionClients, id, &c)
}

// create writes a new record, failing with ErrAlreadyExists if present.
func (s *FileStore) create(ctx context.Context, coll, id string, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	lock, err := s.acquireLock(ctx, coll, id)
	if err != nil {
		return err
	}
	defer func() { _ = lock.Release() }()

	if _, err := os.Stat(s.recordPath(coll, id)); err == nil {
		return docerrors.ErrAlreadyExists
	}
	return s.write(coll, id, v)
}

// upsert writes a record without any existence or version check.
func (s *FileStore) upsert(ctx context.Context, coll, id string, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	lock, err := s.acquireLock(ctx, coll, id)
	if err != nil {
		return err
	}
	defer func() { _ = lock.Release() }()

	return s.write(coll, id, v)
}

// update rewrites an existing record when its stored version equals
// *version, then bumps *version and stamps *updatedAt. Both are restored
// if the write fails.
func (s *FileStore) update(ctx context.Context, coll, id string, notFound error, v any, version *int64, updatedAt *time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	lock, err := s.acquireLock(ctx, coll, id)
	if err != nil {
		return fmt.Errorf("failed to update %s '%s': %w", coll, id, err)
	}
	defer func() { _ = lock.Release() }()

	existing, err := s.read(coll, id, notFound)
	if err != nil {
		return err
	}
	var head struct {
		Version int64 `json:"version"`
	}
	if err := json.Unmarshal(existing, &head); err != nil {
		return fmt.Errorf("failed to parse %s '%s': corrupted record: %w", coll, id, err)
	}
	if head.Version != *version {
		return fmt.Errorf("%w: %s '%s' is at version %d, update was based on %d",
			docerrors.ErrVersionConflict, coll, id, head.Version, *version)
	}

	prevVersion, prevUpdated := *version, *updatedAt
	*version++
	*updatedAt = s.clock.Now()
	if err := s.write(coll, id, v); err != nil {
		*version, *updatedAt = prevVersion, prevUpdated
		return err
	}
	return nil
}

// get reads and decodes one record.
func (s *FileStore) get(ctx context.Context, coll, id string, notFound error, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if id == "" {
		return fmt.Errorf("failed to get %s: id %w", coll, docerrors.ErrEmptyValue)
	}
	if err := validateID(id); err != nil {
		return err
	}

	data, err := s.read(coll, id, notFound)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s '%s': corrupted record: %w", coll, id, err)
	}
	return nil
}

// list decodes every record of a collection. Unreadable records are
// skipped with a warning rather than failing the whole listing.
func (s *FileStore) list(ctx context.Context, coll string, fn func([]byte) error) error {
	dir := filepath.Join(s.dataDir, coll)
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return docerrors.NewStorageError("list", coll, err)
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, constants.RecordFileExt) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name)) //#nosec G304 -- listing our own data directory
		if err != nil {
			s.logger.Warn().Err(err).Str("record", name).Msg("skipping unreadable record")
			continue
		}
		if err := fn(data); err != nil {
			s.logger.Warn().Err(err).Str("record", name).Msg("skipping corrupted record")
		}
	}
	return nil
}

func (s *FileStore) read(coll, id string, notFound error) ([]byte, error) {
	data, err := os.ReadFile(s.recordPath(coll, id)) //#nosec G304 -- id is validated
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s '%s': %w", coll, id, notFound)
		}
		return nil, docerrors.NewStorageError("read", id, err)
	}
	return data, nil
}

func (s *FileStore) write(coll, id string, v any) error {
	if err := validateID(id); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s '%s': %w", coll, id, err)
	}
	if err := fileutil.AtomicWrite(s.recordPath(coll, id), data); err != nil {
		return docerrors.NewStorageError("write", id, err)
	}
	return nil
}

func (s *FileStore) recordPath(coll, id string) string {
	return filepath.Join(s.dataDir, coll, id+constants.RecordFileExt)
}

func (s *FileStore) lockPath(coll, id string) string {
	return s.recordPath(coll, id) + constants.LockFileExt
}

// validateID rejects ids that would escape the collection directory.
func validateID(id string) error {
	if strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return fmt.Errorf("record id %q: %w", id, docerrors.ErrPathTraversal)
	}
	return nil
}

// page applies offset and limit to a sorted slice.
func page[T any](items []T, offset, limit int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return []T{}
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	if items == nil {
		return []T{}
	}
	return items
}

// acquireLock takes the exclusive lock guarding one record.
func (s *FileStore) acquireLock(ctx context.Context, coll, id string) (*flock.Lock, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	return flock.Acquire(ctx, s.lockPath(coll, id), flock.DefaultTimeout)
}
