package schema

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	docerrors "github.com/lerboi/FileManagement-sub001/internal/errors"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestLoadSnapshot_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.yaml")
	writeFile(t, path, "version: v2\nfields:\n  - name: full_name\n    type: text\n  - name: \" age \"\n    type: number\n")

	snap, err := LoadSnapshot(path)
	require.NoError(t, err)
	assert.Equal(t, "v2", snap.Version)
	assert.Equal(t, []string{"full_name", "age"}, names(snap.Fields))
}

func TestLoadSnapshot_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.json")
	writeFile(t, path, `{"fields":[{"name":"email","type":"email"}]}`)

	snap, err := LoadSnapshot(path)
	require.NoError(t, err)
	assert.Equal(t, "email", snap.Fields[0].Type)
}

func TestParseSnapshot_Rejects(t *testing.T) {
	_, err := ParseSnapshot([]byte("fields:\n  - name: a\n  - name: a\n"), ".yaml")
	require.ErrorIs(t, err, docerrors.ErrInvalidArgument)

	_, err = ParseSnapshot([]byte("fields:\n  - type: text\n"), ".yml")
	require.ErrorIs(t, err, docerrors.ErrEmptyValue)

	_, err = ParseSnapshot([]byte("{"), ".json")
	require.Error(t, err)
}

func TestLoadSnapshot_Missing(t *testing.T) {
	_, err := LoadSnapshot(filepath.Join(t.TempDir(), "nope.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadChoices(t *testing.T) {
	path := filepath.Join(t.TempDir(), "choices.yaml")
	writeFile(t, path, "middle_name: middle_initial\n")

	choices, err := LoadChoices(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"middle_name": "middle_initial"}, choices)
}

func TestWatcher_ReportsDrift(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "schema.yaml")
	writeFile(t, path, "fields:\n  - name: middle_name\n    type: text\n")
	baseline, err := LoadSnapshot(path)
	require.NoError(t, err)

	records := seedTemplates(t)
	w := NewWatcher(WatcherConfig{Path: path, Debounce: 20 * time.Millisecond, Templates: records}, baseline, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	reports := make(chan Report, 4)
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, func(r Report) { reports <- r }) }()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	writeFile(t, path, "fields:\n  - name: middle_initial\n    type: text\n")

	select {
	case r := <-reports:
		require.NoError(t, r.Err)
		require.Len(t, r.ChangeSet.PotentialRenames, 1)
		assert.Equal(t, "middle_initial", r.ChangeSet.PotentialRenames[0].NewField)
		ids := make([]string, 0, len(r.Affected))
		for _, a := range r.Affected {
			ids = append(ids, a.TemplateID)
		}
		assert.Equal(t, []string{"engagement", "intake"}, ids)
	case <-time.After(5 * time.Second):
		t.Fatal("no report received")
	}

	cancel()
	require.NoError(t, <-done)
}
