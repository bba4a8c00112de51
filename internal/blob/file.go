package blob

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	docerrors "github.com/lerboi/FileManagement-sub001/internal/errors"
	"github.com/lerboi/FileManagement-sub001/internal/fileutil"
)

// FileStore implements Store on the local filesystem.
type FileStore struct {
	root    string
	baseURL string
	logger  zerolog.Logger
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates a FileStore rooted at root. When baseURL is set,
// URL joins it with the key; otherwise URL returns a file:// URL.
func NewFileStore(root, baseURL string, logger zerolog.Logger) (*FileStore, error) {
	if root == "" {
		return nil, fmt.Errorf("blob root %w", docerrors.ErrEmptyValue)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve blob root: %w", err)
	}
	if err := os.MkdirAll(abs, fileutil.DirPerm); err != nil {
		return nil, docerrors.NewStorageError("init", abs, err)
	}
	return &FileStore{
		root:    abs,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger.With().Str("component", "blob").Logger(),
	}, nil
}

// Put implements Store.
func (s *FileStore) Put(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ValidateKey(key); err != nil {
		return err
	}

	if err := fileutil.AtomicWrite(s.path(key), data); err != nil {
		return docerrors.NewStorageError("put", key, err)
	}

	s.logger.Debug().Str("key", key).Int("bytes", len(data)).Msg("object stored")
	return nil
}

// Get implements Store.
func (s *FileStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := ValidateKey(key); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path(key)) //#nosec G304 -- key is validated against traversal
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("object %s: %w", key, docerrors.ErrObjectNotFound)
		}
		return nil, docerrors.NewStorageError("get", key, err)
	}
	return data, nil
}

// URL implements Store.
func (s *FileStore) URL(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := ValidateKey(key); err != nil {
		return "", err
	}

	p := s.path(key)
	if _, err := os.Stat(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("object %s: %w", key, docerrors.ErrObjectNotFound)
		}
		return "", docerrors.NewStorageError("stat", key, err)
	}

	if s.baseURL != "" {
		u, err := url.JoinPath(s.baseURL, key)
		if err != nil {
			return "", fmt.Errorf("failed to build url for %s: %w", key, err)
		}
		return u, nil
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(p)}).String(), nil
}

// DeletePrefix implements Store.
func (s *FileStore) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := ValidateKey(prefix); err != nil {
		return 0, err
	}

	dir := s.path(prefix)
	count := 0
	err := filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			count++
		}
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, docerrors.NewStorageError("delete", prefix, err)
	}

	if err := os.RemoveAll(dir); err != nil {
		return 0, docerrors.NewStorageError("delete", prefix, err)
	}

	s.logger.Info().Str("prefix", prefix).Int("objects", count).Msg("objects deleted")
	return count, nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.root, filepath.FromSlash(key))
}
