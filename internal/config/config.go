// Package config provides configuration management for docflow with layered precedence.
//
// Configuration sources are loaded in the following order (highest precedence first):
//  1. CLI flags (passed via LoadWithOverrides)
//  2. Environment variables (DOCFLOW_* prefix)
//  3. Project config (.docflow/config.yaml)
//  4. Global config (~/.docflow/config.yaml)
//  5. Built-in defaults
//
// Each higher level completely overrides the lower level for the same key.
//
// IMPORTANT: This package may import internal/constants and internal/errors,
// but MUST NOT import internal/domain or other internal packages.
package config

import "time"

// Driver names accepted by the pluggable sections.
const (
	DriverFile     = "file"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverNATS     = "nats"
)

// Config is the root configuration structure for docflow.
type Config struct {
	// Storage selects and configures the record store for tasks, templates,
	// services and clients.
	Storage StorageConfig `yaml:"storage" mapstructure:"storage"`

	// Blob configures the object store holding template sources and outputs.
	Blob BlobConfig `yaml:"blob" mapstructure:"blob"`

	// Generation contains settings for the document generation pipeline.
	Generation GenerationConfig `yaml:"generation" mapstructure:"generation"`

	// Fence configures the per-task generation token.
	Fence FenceConfig `yaml:"fence" mapstructure:"fence"`

	// FollowUp configures the queue of post-completion actions.
	FollowUp FollowUpConfig `yaml:"followup" mapstructure:"followup"`

	// Events configures where lifecycle events are published.
	Events EventsConfig `yaml:"events" mapstructure:"events"`

	// Schema contains settings for schema drift analysis.
	Schema SchemaConfig `yaml:"schema" mapstructure:"schema"`

	// Logging contains settings for the CLI log file.
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`

	// Metrics configures where collected metrics are exported.
	Metrics MetricsConfig `yaml:"metrics" mapstructure:"metrics"`
}

// StorageConfig selects the record store.
type StorageConfig struct {
	// Driver is "file" (JSON records on disk) or "postgres".
	// Default: "file"
	Driver string `yaml:"driver" mapstructure:"driver"`

	// DataDir is the root of the file store.
	// Default: ~/.docflow/data
	DataDir string `yaml:"data_dir" mapstructure:"data_dir"`

	// PostgresDSN is the connection string used when Driver is "postgres".
	PostgresDSN string `yaml:"postgres_dsn" mapstructure:"postgres_dsn"`
}

// BlobConfig configures the local object store.
type BlobConfig struct {
	// Root is the directory holding all objects.
	// Default: ~/.docflow/blobs
	Root string `yaml:"root" mapstructure:"root"`

	// BaseURL, when set, is prefixed to object keys to build public URLs.
	// When empty, URLs use the file:// scheme.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// GenerationConfig contains settings for the generation pipeline.
type GenerationConfig struct {
	// Concurrency is the number of templates rendered at once per task.
	// Default: 4
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`

	// TemplateTimeout bounds one template render including source download
	// and output upload.
	// Default: 2 minutes
	TemplateTimeout time.Duration `yaml:"template_timeout" mapstructure:"template_timeout"`

	// BatchTimeout bounds a whole generation batch.
	// Default: 10 minutes
	BatchTimeout time.Duration `yaml:"batch_timeout" mapstructure:"batch_timeout"`

	// MissingValueMarker replaces placeholders without a resolved value.
	// Default: "[FIELD_NOT_PROVIDED]"
	MissingValueMarker string `yaml:"missing_value_marker" mapstructure:"missing_value_marker"`
}

// FenceConfig configures the generation token.
type FenceConfig struct {
	// Driver is "memory" (single process) or "redis".
	// Default: "memory"
	Driver string `yaml:"driver" mapstructure:"driver"`

	// RedisAddr is the host:port of the Redis server used when Driver is "redis".
	RedisAddr string `yaml:"redis_addr" mapstructure:"redis_addr"`

	// TTL is how long an unreleased token stays valid. It must be at least
	// generation.batch_timeout.
	// Default: 15 minutes
	TTL time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// FollowUpConfig configures the follow-up queue.
type FollowUpConfig struct {
	// Driver is "memory" or "redis".
	// Default: "memory"
	Driver string `yaml:"driver" mapstructure:"driver"`

	// RedisAddr is the host:port of the Redis server used when Driver is "redis".
	RedisAddr string `yaml:"redis_addr" mapstructure:"redis_addr"`

	// MaxAttempts is how often an action is tried before it is dead-lettered.
	// Default: 5
	MaxAttempts int `yaml:"max_attempts" mapstructure:"max_attempts"`
}

// EventsConfig configures lifecycle event publishing.
type EventsConfig struct {
	// Driver is "memory" (in-process bus) or "nats".
	// Default: "memory"
	Driver string `yaml:"driver" mapstructure:"driver"`

	// NATSURL is the server URL used when Driver is "nats".
	NATSURL string `yaml:"nats_url" mapstructure:"nats_url"`

	// SubjectPrefix is prepended to every event subject.
	// Default: "docflow"
	SubjectPrefix string `yaml:"subject_prefix" mapstructure:"subject_prefix"`
}

// SchemaConfig contains settings for drift analysis.
type SchemaConfig struct {
	// RenameThreshold is the exclusive lower bound on similarity for a
	// removed/added pair to be proposed as a rename.
	// Default: 0.6
	RenameThreshold float64 `yaml:"rename_threshold" mapstructure:"rename_threshold"`
}

// LoggingConfig contains settings for the CLI log file.
type LoggingConfig struct {
	// Level is the minimum level written when neither --verbose nor --quiet is set.
	// Default: "info"
	Level string `yaml:"level" mapstructure:"level"`

	// File enables the rotating log file under ~/.docflow/logs.
	// Default: true
	File bool `yaml:"file" mapstructure:"file"`
}

// MetricsConfig configures metrics export.
type MetricsConfig struct {
	// File, when set, receives the metrics of every command that generates
	// documents or changes a task status, in the Prometheus text format.
	// Point it into a node_exporter textfile directory to scrape them.
	// Default: "" (no export)
	File string `yaml:"file" mapstructure:"file"`
}
