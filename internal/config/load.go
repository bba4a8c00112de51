package config

import (
	"context"
	stderrors "errors"
	"os"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/lerboi/FileManagement-sub001/internal/constants"
	"github.com/lerboi/FileManagement-sub001/internal/errors"
)

// newViperInstance creates a new Viper instance with the docflow environment
// prefix (DOCFLOW_), key replacer, and defaults.
func newViperInstance() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// isConfigNotFoundError returns true if the error is a viper config file not found error.
func isConfigNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	var configNotFoundErr viper.ConfigFileNotFoundError
	return stderrors.As(err, &configNotFoundErr)
}

// unmarshalAndValidate unmarshals viper config into Config struct and validates it.
func unmarshalAndValidate(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg, viperDecoderOption()); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	if err := Validate(&cfg); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return &cfg, nil
}

// Load reads configuration from all available sources with proper precedence.
// Configuration is loaded in the following order (highest precedence first):
//  1. Environment variables (DOCFLOW_* prefix)
//  2. Project config (.docflow/config.yaml)
//  3. Global config (~/.docflow/config.yaml)
//  4. Built-in defaults
//
// Missing config files are not an error.
func Load(ctx context.Context) (*Config, error) {
	v := newViperInstance()

	if err := loadGlobalConfig(v); err != nil {
		return nil, err
	}

	if err := loadProjectConfig(v); err != nil {
		return nil, err
	}

	cfg, err := unmarshalAndValidate(v)
	if err != nil {
		return nil, err
	}

	logger := zerolog.Ctx(ctx).With().Str("component", "config").Logger()
	logger.Debug().
		Str("storage.driver", cfg.Storage.Driver).
		Str("fence.driver", cfg.Fence.Driver).
		Str("events.driver", cfg.Events.Driver).
		Int("generation.concurrency", cfg.Generation.Concurrency).
		Dur("generation.batch_timeout", cfg.Generation.BatchTimeout).
		Msg("configuration loaded and unmarshaled")

	return cfg, nil
}

// loadGlobalConfig attempts to load the global config file (~/.docflow/config.yaml).
// Returns nil if the file doesn't exist or home directory cannot be determined.
func loadGlobalConfig(v *viper.Viper) error {
	globalConfigPath, err := GlobalConfigPath()
	if err != nil || !fileExists(globalConfigPath) {
		return nil //nolint:nilerr // a missing home directory just skips the global layer
	}

	v.SetConfigFile(globalConfigPath)
	if err := v.ReadInConfig(); err != nil && !isConfigNotFoundError(err) {
		return errors.Wrap(err, "failed to read global config file")
	}
	return nil
}

// loadProjectConfig attempts to load the project config file (.docflow/config.yaml).
// Returns nil if the file doesn't exist.
func loadProjectConfig(v *viper.Viper) error {
	projectConfigPath := ProjectConfigPath()
	if !fileExists(projectConfigPath) {
		return nil
	}

	v.SetConfigFile(projectConfigPath)
	if err := v.MergeInConfig(); err != nil && !isConfigNotFoundError(err) {
		return errors.Wrap(err, "failed to read project config file")
	}
	return nil
}

// fileExists returns true if the file at path exists.
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// LoadWithOverrides loads configuration and applies CLI flag overrides.
// Only non-zero values in overrides are applied.
func LoadWithOverrides(ctx context.Context, overrides *Config) (*Config, error) {
	cfg, err := Load(ctx)
	if err != nil {
		return nil, err
	}

	if overrides != nil {
		applyOverrides(cfg, overrides)
	}

	if err := Validate(cfg); err != nil {
		return nil, errors.Wrap(err, "invalid configuration after overrides")
	}

	return cfg, nil
}

// LoadFromPaths loads configuration from specific file paths. It backs the
// --config flag and tests.
//
// projectConfigPath is the path to project-level config (higher priority).
// globalConfigPath is the path to global config (lower priority).
// Either path can be empty to skip that level.
func LoadFromPaths(_ context.Context, projectConfigPath, globalConfigPath string) (*Config, error) {
	v := newViperInstance()

	if globalConfigPath != "" {
		v.SetConfigFile(globalConfigPath)
		if err := v.ReadInConfig(); err != nil && !isConfigNotFoundError(err) && !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "failed to read global config: %s", globalConfigPath)
		}
	}

	if projectConfigPath != "" {
		v.SetConfigFile(projectConfigPath)
		if err := v.MergeInConfig(); err != nil && !isConfigNotFoundError(err) && !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "failed to read project config: %s", projectConfigPath)
		}
	}

	return unmarshalAndValidate(v)
}

// setDefaults configures all default values on the Viper instance.
// These defaults match the values from DefaultConfig().
// IMPORTANT: Keys must match the YAML tag names exactly for proper mapping,
// and every key needs a default for AutomaticEnv to see it during Unmarshal.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("storage.driver", d.Storage.Driver)
	v.SetDefault("storage.data_dir", d.Storage.DataDir)
	v.SetDefault("storage.postgres_dsn", d.Storage.PostgresDSN)

	v.SetDefault("blob.root", d.Blob.Root)
	v.SetDefault("blob.base_url", d.Blob.BaseURL)

	v.SetDefault("generation.concurrency", d.Generation.Concurrency)
	v.SetDefault("generation.template_timeout", d.Generation.TemplateTimeout.String())
	v.SetDefault("generation.batch_timeout", d.Generation.BatchTimeout.String())
	v.SetDefault("generation.missing_value_marker", d.Generation.MissingValueMarker)

	v.SetDefault("fence.driver", d.Fence.Driver)
	v.SetDefault("fence.redis_addr", d.Fence.RedisAddr)
	v.SetDefault("fence.ttl", d.Fence.TTL.String())

	v.SetDefault("followup.driver", d.FollowUp.Driver)
	v.SetDefault("followup.redis_addr", d.FollowUp.RedisAddr)
	v.SetDefault("followup.max_attempts", d.FollowUp.MaxAttempts)

	v.SetDefault("events.driver", d.Events.Driver)
	v.SetDefault("events.nats_url", d.Events.NATSURL)
	v.SetDefault("events.subject_prefix", d.Events.SubjectPrefix)

	v.SetDefault("schema.rename_threshold", d.Schema.RenameThreshold)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.file", d.Logging.File)

	v.SetDefault("metrics.file", d.Metrics.File)
}

// applyOverrides merges non-zero override values into the config.
//
// IMPORTANT: Boolean fields (Logging.File) cannot be overridden to false
// here because false is indistinguishable from unset. CLI implementations
// should check cmd.Flags().Changed for boolean flags.
func applyOverrides(cfg, overrides *Config) {
	applyStorageOverrides(cfg, overrides)

	if overrides.Generation.Concurrency != 0 {
		cfg.Generation.Concurrency = overrides.Generation.Concurrency
	}
	if overrides.Generation.TemplateTimeout != 0 {
		cfg.Generation.TemplateTimeout = overrides.Generation.TemplateTimeout
	}
	if overrides.Generation.BatchTimeout != 0 {
		cfg.Generation.BatchTimeout = overrides.Generation.BatchTimeout
	}

	if overrides.Fence.Driver != "" {
		cfg.Fence.Driver = overrides.Fence.Driver
	}
	if overrides.Fence.RedisAddr != "" {
		cfg.Fence.RedisAddr = overrides.Fence.RedisAddr
	}

	if overrides.Events.Driver != "" {
		cfg.Events.Driver = overrides.Events.Driver
	}
	if overrides.Events.NATSURL != "" {
		cfg.Events.NATSURL = overrides.Events.NATSURL
	}

	if overrides.Schema.RenameThreshold != 0 {
		cfg.Schema.RenameThreshold = overrides.Schema.RenameThreshold
	}
	if overrides.Logging.Level != "" {
		cfg.Logging.Level = overrides.Logging.Level
	}
}

// applyStorageOverrides applies storage and blob overrides to the config.
// This is extracted from applyOverrides to reduce cognitive complexity.
func applyStorageOverrides(cfg, overrides *Config) {
	if overrides.Storage.Driver != "" {
		cfg.Storage.Driver = overrides.Storage.Driver
	}
	if overrides.Storage.DataDir != "" {
		cfg.Storage.DataDir = overrides.Storage.DataDir
	}
	if overrides.Storage.PostgresDSN != "" {
		cfg.Storage.PostgresDSN = overrides.Storage.PostgresDSN
	}
	if overrides.Blob.Root != "" {
		cfg.Blob.Root = overrides.Blob.Root
	}
	if overrides.Blob.BaseURL != "" {
		cfg.Blob.BaseURL = overrides.Blob.BaseURL
	}
}

// viperDecoderOption returns the decoder options for Viper unmarshal.
// This configures mapstructure to handle time.Duration conversion from strings.
func viperDecoderOption() viper.DecoderConfigOption {
	return viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
		),
	)
}
