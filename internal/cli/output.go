package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/lerboi/FileManagement-sub001/internal/errors"
	"github.com/lerboi/FileManagement-sub001/internal/fileutil"
	"github.com/lerboi/FileManagement-sub001/internal/tui"
)

// newOutput returns the output for the command's stdout in the selected format.
func newOutput(cmd *cobra.Command, s *session) tui.Output {
	return tui.NewOutput(cmd.OutOrStdout(), s.flags.Output)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// isJSONPath reports whether a file should be read or written as JSON.
// Everything else is YAML.
func isJSONPath(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

// writeDocument writes v to path as JSON or YAML depending on the extension.
func writeDocument(path string, v any) error {
	var (
		data []byte
		err  error
	)
	if isJSONPath(path) {
		data, err = json.MarshalIndent(v, "", "  ")
		data = append(data, '\n')
	} else {
		data, err = yaml.Marshal(v)
	}
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return fileutil.AtomicWrite(path, data)
}

// readDocument reads a JSON or YAML file into v.
func readDocument(path string, v any) error {
	data, err := os.ReadFile(path) //nolint:gosec // Path is provided by the operator
	if err != nil {
		return err
	}
	if isJSONPath(path) {
		err = json.Unmarshal(data, v)
	} else {
		err = yaml.Unmarshal(data, v)
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", errors.ErrValidation, path, err)
	}
	return nil
}
