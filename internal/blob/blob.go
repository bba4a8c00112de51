// Package blob provides the object store that holds template sources,
// generated documents and migration snapshots.
//
// Keys are slash-separated and relative. Generated documents live under a
// deterministic per-task prefix so that deleting a task can reclaim all of
// its outputs with one DeletePrefix call.
package blob

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/lerboi/FileManagement-sub001/internal/constants"
	docerrors "github.com/lerboi/FileManagement-sub001/internal/errors"
)

// Store is an object store with upsert semantics.
type Store interface {
	// Put writes data at key, replacing any existing object.
	Put(ctx context.Context, key string, data []byte) error

	// Get returns the object at key, or ErrObjectNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// URL returns a retrievable URL for an existing object.
	URL(ctx context.Context, key string) (string, error)

	// DeletePrefix removes every object under prefix and returns how many
	// objects were removed.
	DeletePrefix(ctx context.Context, prefix string) (int, error)
}

// TaskPrefix returns the prefix holding every generated document of a task.
func TaskPrefix(clientID, taskID string) string {
	return path.Join(constants.ClientsPrefix, clientID, "tasks", taskID)
}

// DocumentKey returns the deterministic key of one generated document.
// Regenerating a document for the same (client, task, template) writes to
// the same key.
func DocumentKey(clientID, taskID, templateID, fileName string) string {
	return path.Join(TaskPrefix(clientID, taskID), templateID, fileName)
}

// SnapshotKey returns the key of the pre-migration snapshot of a template.
func SnapshotKey(planID, templateID string) string {
	return path.Join(constants.SnapshotsPrefix, planID, templateID+".json")
}

// ValidateKey rejects empty, absolute and traversing keys.
func ValidateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("object key %w", docerrors.ErrEmptyValue)
	}
	if strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return fmt.Errorf("object key %q: %w", key, docerrors.ErrPathTraversal)
	}
	for _, part := range strings.Split(key, "/") {
		if part == ".." || part == "." {
			return fmt.Errorf("object key %q: %w", key, docerrors.ErrPathTraversal)
		}
	}
	return nil
}
