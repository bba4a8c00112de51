package template

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	docerrors "github.com/lerboi/FileManagement-sub001/internal/errors"
	"github.com/lerboi/FileManagement-sub001/internal/store"
)

// ImportFailure is a file that could not be imported.
type ImportFailure struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// ImportResult reports an import run.
type ImportResult struct {
	Created []string        `json:"created"`
	Updated []string        `json:"updated"`
	Failed  []ImportFailure `json:"failed"`
}

// Importer loads definition files into the record store.
type Importer struct {
	loader *Loader
	store  store.Store
	logger zerolog.Logger
}

// NewImporter creates an Importer.
func NewImporter(loader *Loader, s store.Store, logger zerolog.Logger) *Importer {
	return &Importer{
		loader: loader,
		store:  s,
		logger: logger.With().Str("component", "importer").Logger(),
	}
}

// ImportTemplates loads every template matching patterns and creates or
// updates it. An existing template keeps its version history and migration
// log. Each file is imported independently.
func (im *Importer) ImportTemplates(ctx context.Context, patterns ...string) (*ImportResult, error) {
	return im.importFiles(ctx, patterns, func(path string) (string, bool, error) {
		tmpl, err := im.loader.LoadTemplate(path)
		if err != nil {
			return "", false, err
		}
		existing, err := im.store.GetTemplate(ctx, tmpl.ID)
		switch {
		case errors.Is(err, docerrors.ErrNotFound):
		case err != nil:
			return tmpl.ID, false, err
		default:
			tmpl.Version = existing.Version
			tmpl.CreatedAt = existing.CreatedAt
			tmpl.MigrationLog = append(existing.MigrationLog, tmpl.MigrationLog...)
		}
		return tmpl.ID, existing != nil, im.store.SaveTemplate(ctx, tmpl)
	})
}

// ImportServices loads and upserts every service matching patterns.
func (im *Importer) ImportServices(ctx context.Context, patterns ...string) (*ImportResult, error) {
	return im.importFiles(ctx, patterns, func(path string) (string, bool, error) {
		svc, err := im.loader.LoadService(path)
		if err != nil {
			return "", false, err
		}
		_, getErr := im.store.GetService(ctx, svc.ID)
		return svc.ID, getErr == nil, im.store.SaveService(ctx, svc)
	})
}

// ImportClients loads and upserts every client matching patterns.
func (im *Importer) ImportClients(ctx context.Context, patterns ...string) (*ImportResult, error) {
	return im.importFiles(ctx, patterns, func(path string) (string, bool, error) {
		client, err := im.loader.LoadClient(path)
		if err != nil {
			return "", false, err
		}
		_, getErr := im.store.GetClient(ctx, client.ID)
		return client.ID, getErr == nil, im.store.SaveClient(ctx, client)
	})
}

func (im *Importer) importFiles(ctx context.Context, patterns []string, one func(path string) (string, bool, error)) (*ImportResult, error) {
	files, err := im.loader.Expand(patterns...)
	if err != nil {
		return nil, err
	}

	res := &ImportResult{Created: []string{}, Updated: []string{}, Failed: []ImportFailure{}}
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		id, updated, err := one(path)
		if err != nil {
			im.logger.Warn().Err(err).Str("path", path).Msg("import failed")
			res.Failed = append(res.Failed, ImportFailure{Path: path, Error: err.Error()})
			continue
		}
		im.logger.Debug().Str("path", path).Str("id", id).Bool("updated", updated).Msg("imported")
		if updated {
			res.Updated = append(res.Updated, id)
		} else {
			res.Created = append(res.Created, id)
		}
	}
	return res, nil
}
