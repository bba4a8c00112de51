package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/lerboi/FileManagement-sub001/internal/clock"
	"github.com/lerboi/FileManagement-sub001/internal/constants"
	"github.com/lerboi/FileManagement-sub001/internal/domain"
	docerrors "github.com/lerboi/FileManagement-sub001/internal/errors"
)

const recordsTable = "docflow_records"

// PostgresStore implements Store on a single JSONB record table keyed by
// (collection, id). The version column mirrors the record's version field
// and backs the optimistic update check.
type PostgresStore struct {
	pool   *pgxpool.Pool
	clock  clock.Clock
	logger zerolog.Logger
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore connects to dsn and ensures the schema exists.
func NewPostgresStore(ctx context.Context, dsn string, c clock.Clock, logger zerolog.Logger) (*PostgresStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres dsn %w", docerrors.ErrEmptyValue)
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, docerrors.NewStorageError("connect", "postgres", err)
	}
	s := &PostgresStore{
		pool:   pool,
		clock:  clock.OrReal(c),
		logger: logger.With().Str("component", "postgres_store").Logger(),
	}
	if err := s.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// EnsureSchema creates the record table and its indexes if missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS ` + recordsTable + ` (
			collection TEXT NOT NULL,
			id TEXT NOT NULL,
			version BIGINT NOT NULL DEFAULT 0,
			data JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (collection, id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_docflow_records_status ON ` + recordsTable + ` (collection, (data->>'status'));`,
		`CREATE INDEX IF NOT EXISTS idx_docflow_records_client ON ` + recordsTable + ` (collection, (data->>'client_id'));`,
	}
	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return docerrors.NewStorageError("ensure_schema", recordsTable, err)
		}
	}
	return nil
}

// Close implements Store.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// CreateTask implements TaskStore.
func (s *PostgresStore) CreateTask(ctx context.Context, task *domain.Task) error {
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

	if err := s.insert(ctx, constants.CollectionTasks, task.ID, task.Version, task, task.CreatedAt); err != nil {
		task.Version = 0
		return fmt.Errorf("failed to create task '%s': %w", task.ID, err)
	}
	return nil
}

// GetTask implements TaskStore.
func (s *PostgresStore) GetTask(ctx context.Context, id string) (*domain.Task, error) {
	var task domain.Task
	if err := s.get(ctx, constants.CollectionTasks, id, docerrors.ErrTaskNotFound, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// UpdateTask implements TaskStore.
func (s *PostgresStore) UpdateTask(ctx context.Context, task *domain.Task) error {
	if task == nil || task.ID == "" {
		return fmt.Errorf("failed to update task: task ID %w", docerrors.ErrEmptyValue)
	}
	return s.update(ctx, constants.CollectionTasks, task.ID, docerrors.ErrTaskNotFound,
		task, &task.Version, &task.UpdatedAt)
}

// ListTasks implements TaskStore.
func (s *PostgresStore) ListTasks(ctx context.Context, filter TaskFilter) ([]*domain.Task, error) {
	query := `SELECT data FROM ` + recordsTable + `
		WHERE collection = $1
		  AND ($2 = '' OR data->>'status' = $2)
		  AND ($3 = '' OR data->>'client_id' = $3)
		ORDER BY created_at DESC
		OFFSET $4`
	args := []any{constants.CollectionTasks, string(filter.Status), filter.ClientID, max(filter.Offset, 0)}
	if filter.Limit > 0 {
		query += ` LIMIT $5`
		args = append(args, filter.Limit)
	}

	tasks := []*domain.Task{}
	err := s.query(ctx, query, args, func(data []byte) error {
		var t domain.Task
		if err := json.Unmarshal(data, &t); err != nil {
			return err
		}
		tasks = append(tasks, &t)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// DeleteTask implements TaskStore.
func (s *PostgresStore) DeleteTask(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("failed to delete task: task ID %w", docerrors.ErrEmptyValue)
	}
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM `+recordsTable+` WHERE collection = $1 AND id = $2`,
		constants.CollectionTasks, id)
	if err != nil {
		return docerrors.NewStorageError("delete", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to delete task '%s': %w", id, docerrors.ErrTaskNotFound)
	}
	return nil
}

// GetTemplate implements TemplateStore.
func (s *PostgresStore) GetTemplate(ctx context.Context, id string) (*domain.Template, error) {
	var tmpl domain.Template
	if err := s.get(ctx, constants.CollectionTemplates, id, docerrors.ErrTemplateNotFound, &tmpl); err != nil {
		return nil, err
	}
	return &tmpl, nil
}

// SaveTemplate implements TemplateStore.
func (s *PostgresStore) SaveTemplate(ctx context.Context, tmpl *domain.Template) error {
	if tmpl == nil || tmpl.ID == "" {
		return fmt.Errorf("failed to save template: template ID %w", docerrors.ErrEmptyValue)
	}
	if tmpl.Version == 0 {
		now := s.clock.Now()
		tmpl.CreatedAt, tmpl.UpdatedAt, tmpl.Version = now, now, 1
		if err := s.insert(ctx, constants.CollectionTemplates, tmpl.ID, tmpl.Version, tmpl, now); err != nil {
			tmpl.Version = 0
			return fmt.Errorf("failed to create template '%s': %w", tmpl.ID, err)
		}
		return nil
	}
	return s.update(ctx, constants.CollectionTemplates, tmpl.ID, docerrors.ErrTemplateNotFound,
		tmpl, &tmpl.Version, &tmpl.UpdatedAt)
}

// ListTemplates implements TemplateStore.
func (s *PostgresStore) ListTemplates(ctx context.Context) ([]*domain.Template, error) {
	out := []*domain.Template{}
	err := s.query(ctx,
		`SELECT data FROM `+recordsTable+` WHERE collection = $1 ORDER BY id`,
		[]any{constants.CollectionTemplates},
		func(data []byte) error {
			var t domain.Template
			if err := json.Unmarshal(data, &t); err != nil {
				return err
			}
			out = append(out, &t)
			return nil
		})
	return out, err
}

// GetService implements ServiceStore.
func (s *PostgresStore) GetService(ctx context.Context, id string) (*domain.Service, error) {
	var svc domain.Service
	if err := s.get(ctx, constants.CollectionServices, id, docerrors.ErrServiceNotFound, &svc); err != nil {
		return nil, err
	}
	return &svc, nil
}

// SaveService implements ServiceStore.
func (s *PostgresStore) SaveService(ctx context.Context, svc *domain.Service) error {
	if svc == nil || svc.ID == "" {
		return fmt.Errorf("failed to save service: service ID %w", docerrors.ErrEmptyValue)
	}
	return s.upsert(ctx, constants.CollectionServices, svc.ID, svc)
}

// ListServices implements ServiceStore.
func (s *PostgresStore) ListServices(ctx context.Context) ([]*domain.Service, error) {
	out := []*domain.Service{}
	err := s.query(ctx,
		`SELECT data FROM `+recordsTable+` WHERE collection = $1 ORDER BY id`,
		[]any{constants.CollectionServices},
		func(data []byte) error {
			var svc domain.Service
			if err := json.Unmarshal(data, &svc); err != nil {
				return err
			}
			out = append(out, &svc)
			return nil
		})
	return out, err
}

// GetClient implements ClientStore.
func (s *PostgresStore) GetClient(ctx context.Context, id string) (*domain.Client, error) {
	var c domain.Client
	if err := s.get(ctx, constants.CollectionClients, id, docerrors.ErrClientNotFound, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// SaveClient implements ClientStore.
func (s *PostgresStore) SaveClient(ctx context.Context, client *domain.Client) error {
	if client == nil || client.ID == "" {
		return fmt.Errorf("failed to save client: client ID %w", docerrors.ErrEmptyValue)
	}
	return s.upsert(ctx, constants.CollectionClients, client.ID, client)
}

// MergeClientFields implements ClientStore. The merge happens in a single
// statement so concurrent merges of disjoint fields do not lose updates.
func (s *PostgresStore) MergeClientFields(ctx context.Context, id string, fields map[string]any) error {
	if id == "" {
		return fmt.Errorf("failed to update client: client ID %w", docerrors.ErrEmptyValue)
	}
	patch, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("failed to encode client fields: %w", err)
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE `+recordsTable+`
		 SET data = jsonb_set(data, '{fields}', COALESCE(data->'fields', '{}'::jsonb) || $3::jsonb),
		     updated_at = $4
		 WHERE collection = $1 AND id = $2`,
		constants.CollectionClients, id, string(patch), s.clock.Now())
	if err != nil {
		return docerrors.NewStorageError("merge", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("clients '%s': %w", id, docerrors.ErrClientNotFound)
	}
	return nil
}

func (s *PostgresStore) insert(ctx context.Context, coll, id string, version int64, v any, now time.Time) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s '%s': %w", coll, id, err)
	}
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO `+recordsTable+` (collection, id, version, data, created_at, updated_at)
		 VALUES ($1, $2, $3, $4::jsonb, $5, $5)
		 ON CONFLICT (collection, id) DO NOTHING`,
		coll, id, version, string(data), now)
	if err != nil {
		return docerrors.NewStorageError("insert", id, err)
	}
	if tag.RowsAffected() == 0 {
		return docerrors.ErrAlreadyExists
	}
	return nil
}

func (s *PostgresStore) upsert(ctx context.Context, coll, id string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s '%s': %w", coll, id, err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO `+recordsTable+` (collection, id, version, data, created_at, updated_at)
		 VALUES ($1, $2, 0, $3::jsonb, $4, $4)
		 ON CONFLICT (collection, id) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`,
		coll, id, string(data), s.clock.Now())
	if err != nil {
		return docerrors.NewStorageError("upsert", id, err)
	}
	return nil
}

// update writes a record only if its stored version still equals
// *version. When no row matches, a follow-up read tells a missing record
// apart from a stale one.
func (s *PostgresStore) update(ctx context.Context, coll, id string, notFound error, v any, version *int64, updatedAt *time.Time) error {
	prevVersion, prevUpdated := *version, *updatedAt
	*version++
	*updatedAt = s.clock.Now()
	restore := func() { *version, *updatedAt = prevVersion, prevUpdated }

	data, err := json.Marshal(v)
	if err != nil {
		restore()
		return fmt.Errorf("failed to encode %s '%s': %w", coll, id, err)
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE `+recordsTable+`
		 SET data = $4::jsonb, version = $5, updated_at = $6
		 WHERE collection = $1 AND id = $2 AND version = $3`,
		coll, id, prevVersion, string(data), *version, *updatedAt)
	if err != nil {
		restore()
		return docerrors.NewStorageError("update", id, err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	restore()

	var stored int64
	err = s.pool.QueryRow(ctx,
		`SELECT version FROM `+recordsTable+` WHERE collection = $1 AND id = $2`,
		coll, id).Scan(&stored)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s '%s': %w", coll, id, notFound)
	}
	if err != nil {
		return docerrors.NewStorageError("update", id, err)
	}
	return fmt.Errorf("%w: %s '%s' is at version %d, update was based on %d",
		docerrors.ErrVersionConflict, coll, id, stored, prevVersion)
}

func (s *PostgresStore) get(ctx context.Context, coll, id string, notFound error, v any) error {
	if id == "" {
		return fmt.Errorf("failed to get %s: id %w", coll, docerrors.ErrEmptyValue)
	}
	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT data FROM `+recordsTable+` WHERE collection = $1 AND id = $2`,
		coll, id).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s '%s': %w", coll, id, notFound)
	}
	if err != nil {
		return docerrors.NewStorageError("read", id, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s '%s': corrupted record: %w", coll, id, err)
	}
	return nil
}

// query runs a SELECT returning one data column and hands each row to fn.
// Rows that fail to decode are skipped with a warning.
func (s *PostgresStore) query(ctx context.Context, sql string, args []any, fn func([]byte) error) error {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return docerrors.NewStorageError("list", recordsTable, err)
	}
	defer rows.Close()

	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return docerrors.NewStorageError("list", recordsTable, err)
		}
		if err := fn(data); err != nil {
			s.logger.Warn().Err(err).Msg("skipping corrupted record")
		}
	}
	if err := rows.Err(); err != nil {
		return docerrors.NewStorageError("list", recordsTable, err)
	}
	return nil
}
