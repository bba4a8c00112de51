package template

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/lerboi/FileManagement-sub001/internal/domain"
	docerrors "github.com/lerboi/FileManagement-sub001/internal/errors"
)

// Loader reads template, service and client definitions from YAML or JSON
// files.
type Loader struct {
	basePath string
}

// NewLoader creates a new loader.
// basePath is used to resolve relative paths and glob patterns.
func NewLoader(basePath string) *Loader {
	return &Loader{basePath: basePath}
}

// Expand resolves glob patterns (with ** support) to a sorted, de-duplicated
// list of files. A pattern without glob characters must name an existing
// file.
func (l *Loader) Expand(patterns ...string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	for _, pattern := range patterns {
		resolved := l.resolvePath(pattern)
		matches, err := doublestar.FilepathGlob(resolved, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("%w: bad pattern %q: %w", docerrors.ErrInvalidArgument, pattern, err)
		}
		if len(matches) == 0 && !hasMeta(pattern) {
			return nil, fmt.Errorf("%s: %w", resolved, os.ErrNotExist)
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				files = append(files, m)
			}
		}
	}
	sort.Strings(files)
	return files, nil
}

// LoadTemplate loads and validates a template. The status defaults to
// active.
func (l *Loader) LoadTemplate(path string) (*domain.Template, error) {
	var tmpl domain.Template
	if err := l.decode(path, &tmpl); err != nil {
		return nil, err
	}
	if tmpl.Status == "" {
		tmpl.Status = defaultStatus
	}
	if err := ValidateTemplate(&tmpl); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &tmpl, nil
}

// LoadService loads and validates a service.
func (l *Loader) LoadService(path string) (*domain.Service, error) {
	var svc domain.Service
	if err := l.decode(path, &svc); err != nil {
		return nil, err
	}
	if err := ValidateService(&svc); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &svc, nil
}

// LoadClient loads and validates a client record.
func (l *Loader) LoadClient(path string) (*domain.Client, error) {
	var client domain.Client
	if err := l.decode(path, &client); err != nil {
		return nil, err
	}
	if err := ValidateClient(&client); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &client, nil
}

// decode reads path and unmarshals it as JSON for .json files and YAML
// otherwise.
func (l *Loader) decode(path string, v any) error {
	resolvedPath := l.resolvePath(path)
	data, err := os.ReadFile(resolvedPath) //nolint:gosec // Path is provided by the operator
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", resolvedPath, err)
	}

	if l.detectFormat(path) == "json" {
		err = json.Unmarshal(data, v)
	} else {
		err = yaml.Unmarshal(data, v)
	}
	if err != nil {
		return fmt.Errorf("%w: failed to parse %s: %w", docerrors.ErrValidation, resolvedPath, err)
	}
	return nil
}

// resolvePath resolves a path, supporting both absolute and relative paths.
// Relative paths are resolved relative to the loader's basePath.
func (l *Loader) resolvePath(path string) string {
	if filepath.IsAbs(path) || l.basePath == "" {
		return path
	}
	return filepath.Join(l.basePath, path)
}

// detectFormat returns "json" for .json files and "yaml" for everything else.
func (l *Loader) detectFormat(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return "json"
	}
	return "yaml"
}

func hasMeta(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}
