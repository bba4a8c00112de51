package config

import (
	"github.com/lerboi/FileManagement-sub001/internal/constants"
)

// DefaultConfig returns a new Config with sensible default values.
// These defaults are used as the base layer that can be overridden by
// config files, environment variables, and CLI flags.
//
// DataDir and Root are left empty and resolved under ~/.docflow by
// ResolvePaths, so a default config never depends on the home directory.
func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			Driver: DriverFile,
		},
		Generation: GenerationConfig{
			Concurrency:        constants.DefaultGenerationConcurrency,
			TemplateTimeout:    constants.DefaultTemplateTimeout,
			BatchTimeout:       constants.DefaultBatchTimeout,
			MissingValueMarker: constants.MissingValueMarker,
		},
		Fence: FenceConfig{
			Driver: DriverMemory,
			TTL:    constants.DefaultFenceTTL,
		},
		FollowUp: FollowUpConfig{
			Driver:      DriverMemory,
			MaxAttempts: constants.DefaultFollowUpMaxAttempts,
		},
		Events: EventsConfig{
			Driver:        DriverMemory,
			SubjectPrefix: "docflow",
		},
		Schema: SchemaConfig{
			RenameThreshold: constants.RenameSimilarityThreshold,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  true,
		},
	}
}
