// Package constants provides centralized constant values used throughout docflow.
// This package is the single source of truth for all shared constants and MUST NOT
// import any other internal packages.
package constants

import "time"

// File names used by docflow for state persistence.
const (
	// RecordFileExt is the extension of every JSON record written by the file store.
	RecordFileExt = ".json"

	// LockFileExt is appended to a record path to form its lock file.
	LockFileExt = ".lock"
)

// Directory names and paths used by docflow for organizing data.
const (
	// DocflowHome is the hidden directory name where docflow stores all its data.
	// This directory is created in the user's home directory.
	DocflowHome = ".docflow"

	// DataDir is the directory name where record files are stored.
	DataDir = "data"

	// BlobDir is the directory name where the local object store keeps blobs.
	BlobDir = "blobs"

	// LogsDir is the directory name where log files are stored.
	LogsDir = "logs"
)

// Record collection names, shared by the file and Postgres stores.
const (
	CollectionTasks     = "tasks"
	CollectionTemplates = "templates"
	CollectionServices  = "services"
	CollectionClients   = "clients"
)

// Generation defaults.
const (
	// DefaultTemplateTimeout bounds one template render: source download,
	// render call and output upload.
	DefaultTemplateTimeout = 2 * time.Minute

	// DefaultBatchTimeout bounds an entire generation batch for one task.
	DefaultBatchTimeout = 10 * time.Minute

	// DefaultGenerationConcurrency is the number of templates rendered at once.
	DefaultGenerationConcurrency = 4

	// MissingValueMarker replaces placeholders with no resolved value.
	MissingValueMarker = "[FIELD_NOT_PROVIDED]"

	// RemovedFieldMarker replaces placeholders of fields removed by a migration.
	RemovedFieldMarker = "[FIELD_REMOVED]"
)

// Fence and follow-up defaults.
const (
	// DefaultFenceTTL is how long a generation token is held before it expires
	// on its own. It must exceed DefaultBatchTimeout.
	DefaultFenceTTL = 15 * time.Minute

	// DefaultFollowUpMaxAttempts is how often a follow-up action is tried
	// before it is dead-lettered.
	DefaultFollowUpMaxAttempts = 5

	// InitialBackoff is the initial backoff duration before the first retry.
	InitialBackoff = 1 * time.Second

	// BackoffMultiplier grows the backoff between follow-up attempts.
	BackoffMultiplier = 2
)

// Schema drift defaults.
const (
	// RenameSimilarityThreshold is the exclusive lower bound for a rename candidate.
	RenameSimilarityThreshold = 0.6
)

// Schema version constants for data migration support.
const (
	// TaskSchemaVersion is the current version of the task JSON schema.
	TaskSchemaVersion = "1.0"
)

// Date layouts used for computed system values.
const (
	// DateLayout is the layout of the current_date system value.
	DateLayout = "2006-01-02"

	// LongDateLayout is the layout of the current_date_long system value.
	LongDateLayout = "2 January 2006"
)
