package config

import (
	"github.com/lerboi/FileManagement-sub001/internal/errors"
)

// Validate checks the configuration for invalid or inconsistent values.
// It returns an error describing the first validation failure found.
//
// Validation rules:
//   - storage.driver must be file or postgres; postgres needs a DSN
//   - generation concurrency must be at least 1 and timeouts positive
//   - generation.batch_timeout must not be shorter than template_timeout
//   - fence.driver must be memory or redis; redis needs an address
//   - fence.ttl must be at least generation.batch_timeout
//   - followup.max_attempts must be at least 1
//   - events.driver must be memory or nats; nats needs a URL
//   - schema.rename_threshold must be within [0, 1)
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.ErrConfigNil
	}

	if err := validateStorageConfig(&cfg.Storage); err != nil {
		return err
	}

	if err := validateGenerationConfig(&cfg.Generation); err != nil {
		return err
	}

	if err := validateFenceConfig(&cfg.Fence, &cfg.Generation); err != nil {
		return err
	}

	if err := validateFollowUpConfig(&cfg.FollowUp); err != nil {
		return err
	}

	if err := validateEventsConfig(&cfg.Events); err != nil {
		return err
	}

	if cfg.Schema.RenameThreshold < 0 || cfg.Schema.RenameThreshold >= 1 {
		return errors.Wrapf(errors.ErrConfigInvalidSchema,
			"schema.rename_threshold must be within [0, 1), got %v", cfg.Schema.RenameThreshold)
	}

	return nil
}

func validateStorageConfig(cfg *StorageConfig) error {
	switch cfg.Driver {
	case DriverFile:
		return nil
	case DriverPostgres:
		if cfg.PostgresDSN == "" {
			return errors.Wrap(errors.ErrConfigInvalidStorage,
				"storage.postgres_dsn must be set when storage.driver is postgres")
		}
		return nil
	default:
		return errors.Wrapf(errors.ErrConfigInvalidStorage,
			"storage.driver must be %q or %q, got %q", DriverFile, DriverPostgres, cfg.Driver)
	}
}

func validateGenerationConfig(cfg *GenerationConfig) error {
	if cfg.Concurrency < 1 {
		return errors.Wrapf(errors.ErrConfigInvalidGeneration,
			"generation.concurrency must be at least 1, got %d", cfg.Concurrency)
	}

	if cfg.TemplateTimeout <= 0 {
		return errors.Wrapf(errors.ErrConfigInvalidGeneration,
			"generation.template_timeout must be positive, got %s", cfg.TemplateTimeout)
	}

	if cfg.BatchTimeout < cfg.TemplateTimeout {
		return errors.Wrapf(errors.ErrConfigInvalidGeneration,
			"generation.batch_timeout (%s) must not be shorter than template_timeout (%s)",
			cfg.BatchTimeout, cfg.TemplateTimeout)
	}

	return nil
}

func validateFenceConfig(cfg *FenceConfig, gen *GenerationConfig) error {
	switch cfg.Driver {
	case DriverMemory:
	case DriverRedis:
		if cfg.RedisAddr == "" {
			return errors.Wrap(errors.ErrConfigInvalidFence,
				"fence.redis_addr must be set when fence.driver is redis")
		}
	default:
		return errors.Wrapf(errors.ErrConfigInvalidFence,
			"fence.driver must be %q or %q, got %q", DriverMemory, DriverRedis, cfg.Driver)
	}

	if cfg.TTL < gen.BatchTimeout {
		return errors.Wrapf(errors.ErrConfigInvalidFence,
			"fence.ttl (%s) must be at least generation.batch_timeout (%s)", cfg.TTL, gen.BatchTimeout)
	}

	return nil
}

func validateFollowUpConfig(cfg *FollowUpConfig) error {
	switch cfg.Driver {
	case DriverMemory:
	case DriverRedis:
		if cfg.RedisAddr == "" {
			return errors.Wrap(errors.ErrConfigInvalidFollowUp,
				"followup.redis_addr must be set when followup.driver is redis")
		}
	default:
		return errors.Wrapf(errors.ErrConfigInvalidFollowUp,
			"followup.driver must be %q or %q, got %q", DriverMemory, DriverRedis, cfg.Driver)
	}

	if cfg.MaxAttempts < 1 {
		return errors.Wrapf(errors.ErrConfigInvalidFollowUp,
			"followup.max_attempts must be at least 1, got %d", cfg.MaxAttempts)
	}

	return nil
}

func validateEventsConfig(cfg *EventsConfig) error {
	switch cfg.Driver {
	case DriverMemory:
		return nil
	case DriverNATS:
		if cfg.NATSURL == "" {
			return errors.Wrap(errors.ErrConfigInvalidEvents,
				"events.nats_url must be set when events.driver is nats")
		}
		return nil
	default:
		return errors.Wrapf(errors.ErrConfigInvalidEvents,
			"events.driver must be %q or %q, got %q", DriverMemory, DriverNATS, cfg.Driver)
	}
}
