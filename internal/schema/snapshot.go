package schema

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lerboi/FileManagement-sub001/internal/domain"
	docerrors "github.com/lerboi/FileManagement-sub001/internal/errors"
)

// LoadSnapshot reads a schema snapshot from a .json, .yaml or .yml file.
func LoadSnapshot(path string) (domain.SchemaSnapshot, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- path is provided by the operator
	if err != nil {
		return domain.SchemaSnapshot{}, fmt.Errorf("failed to read schema snapshot %s: %w", path, err)
	}
	snap, err := ParseSnapshot(data, filepath.Ext(path))
	if err != nil {
		return domain.SchemaSnapshot{}, fmt.Errorf("schema snapshot %s: %w", path, err)
	}
	return snap, nil
}

// ParseSnapshot decodes a snapshot. ext selects JSON for ".json" and YAML
// otherwise. Field names must be present and unique.
func ParseSnapshot(data []byte, ext string) (domain.SchemaSnapshot, error) {
	var snap domain.SchemaSnapshot
	var err error
	if strings.EqualFold(ext, ".json") {
		err = json.Unmarshal(data, &snap)
	} else {
		err = yaml.Unmarshal(data, &snap)
	}
	if err != nil {
		return domain.SchemaSnapshot{}, fmt.Errorf("failed to decode: %w", err)
	}

	seen := make(map[string]bool, len(snap.Fields))
	for i, f := range snap.Fields {
		name := strings.TrimSpace(f.Name)
		if name == "" {
			return domain.SchemaSnapshot{}, fmt.Errorf("field %d: name %w", i, docerrors.ErrEmptyValue)
		}
		if seen[name] {
			return domain.SchemaSnapshot{}, fmt.Errorf("%w: duplicate field %s", docerrors.ErrInvalidArgument, name)
		}
		seen[name] = true
		snap.Fields[i].Name = name
	}
	return snap, nil
}

// LoadChoices reads rename decisions from a YAML or JSON file mapping old
// field names to new ones.
func LoadChoices(path string) (map[string]string, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- path is provided by the operator
	if err != nil {
		return nil, fmt.Errorf("failed to read rename choices %s: %w", path, err)
	}
	choices := make(map[string]string)
	if err := yaml.Unmarshal(data, &choices); err != nil {
		return nil, fmt.Errorf("failed to decode rename choices %s: %w", path, err)
	}
	return choices, nil
}
