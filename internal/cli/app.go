package cli

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/lerboi/FileManagement-sub001/internal/blob"
	"github.com/lerboi/FileManagement-sub001/internal/config"
	"github.com/lerboi/FileManagement-sub001/internal/errors"
	"github.com/lerboi/FileManagement-sub001/internal/events"
	"github.com/lerboi/FileManagement-sub001/internal/fence"
	"github.com/lerboi/FileManagement-sub001/internal/followup"
	"github.com/lerboi/FileManagement-sub001/internal/generation"
	"github.com/lerboi/FileManagement-sub001/internal/metrics"
	"github.com/lerboi/FileManagement-sub001/internal/schema"
	"github.com/lerboi/FileManagement-sub001/internal/store"
	"github.com/lerboi/FileManagement-sub001/internal/task"
)

// eventBufferSize is the per-subscriber buffer of the in-process event bus.
const eventBufferSize = 64

// app is the set of components a command works with, built from config.
type app struct {
	cfg       *config.Config
	logger    zerolog.Logger
	store     store.Store
	blobs     *blob.FileStore
	followups followup.Queue
	events    events.Publisher
	metrics   *metrics.Metrics
	tasks     *task.Controller

	closers []func() error
}

// openApp wires the record store, object store, fence, follow-up queue and
// event publisher selected by cfg.
func openApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (_ *app, err error) {
	a := &app{cfg: cfg, logger: logger, metrics: metrics.New()}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		pg, err := store.NewPostgresStore(ctx, cfg.Storage.PostgresDSN, nil, logger)
		if err != nil {
			return nil, err
		}
		a.store = pg
	default:
		fs, err := store.NewFileStore(cfg.Storage.DataDir, nil, logger)
		if err != nil {
			return nil, err
		}
		a.store = fs
	}
	a.closers = append(a.closers, a.store.Close)

	if a.blobs, err = blob.NewFileStore(cfg.Blob.Root, cfg.Blob.BaseURL, logger); err != nil {
		return nil, err
	}

	var gate fence.Fence
	switch cfg.Fence.Driver {
	case config.DriverRedis:
		r := fence.NewRedis(cfg.Fence.RedisAddr, cfg.Fence.TTL)
		a.closers = append(a.closers, r.Close)
		gate = r
	default:
		gate = fence.NewMemory(cfg.Fence.TTL, nil)
	}

	switch cfg.FollowUp.Driver {
	case config.DriverRedis:
		pool := fence.NewPool(cfg.FollowUp.RedisAddr)
		a.closers = append(a.closers, pool.Close)
		a.followups = followup.NewRedisQueue(pool)
	default:
		a.followups = followup.NewMemoryQueue()
	}

	switch cfg.Events.Driver {
	case config.DriverNATS:
		pub, err := events.NewNATSPublisher(cfg.Events.NATSURL, cfg.Events.SubjectPrefix)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to NATS: %w", err)
		}
		a.closers = append(a.closers, pub.Close)
		a.events = pub
	default:
		bus := events.NewBus(eventBufferSize, logger)
		for _, t := range []events.EventType{events.EventTaskCreated, events.EventTaskGenerated, events.EventTaskCompleted, events.EventTemplateMigrated} {
			bus.Subscribe(t, func(e events.Event) {
				logger.Debug().Str("event", string(e.Type)).Interface("data", e.Data).Msg("event published")
			})
		}
		a.closers = append(a.closers, func() error { bus.Close(); return nil })
		a.events = bus
	}

	pipeline := generation.New(generation.Deps{
		Templates: a.store,
		Clients:   a.store,
		Blobs:     a.blobs,
		Metrics:   a.metrics,
	}, cfg.Generation, logger)

	a.tasks = task.NewController(task.Deps{
		Store:     a.store,
		Blobs:     a.blobs,
		Pipeline:  pipeline,
		Fence:     gate,
		FollowUps: a.followups,
		Events:    a.events,
		Metrics:   a.metrics,
	}, logger)

	return a, nil
}

// processor returns a follow-up processor over the app's queue.
func (a *app) processor() *followup.Processor {
	return followup.NewProcessor(a.followups, a.store, a.cfg.FollowUp.MaxAttempts, a.logger)
}

// drainLocalFollowUps applies queued follow-ups in-process when the queue
// does not outlive the command.
func (a *app) drainLocalFollowUps(ctx context.Context) (followup.Stats, error) {
	if a.cfg.FollowUp.Driver == config.DriverRedis {
		return followup.Stats{}, nil
	}
	return a.processor().Drain(ctx)
}

// migrator returns a schema migrator over the app's stores.
func (a *app) migrator() *schema.Migrator {
	return schema.NewMigrator(a.store, a.blobs, a.events, nil, a.logger)
}

// analyzer returns a schema analyzer with the configured threshold.
func (a *app) analyzer() *schema.Analyzer {
	return schema.NewAnalyzer(a.cfg.Schema.RenameThreshold)
}

// exportMetrics writes the metrics collected so far to the configured
// textfile. The file is replaced atomically.
func (a *app) exportMetrics() error {
	path := a.cfg.Metrics.File
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, a.metrics.Registry()); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}

// Close releases every connection in reverse order of opening.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Debug().Err(err).Msg("close failed")
		}
	}
	a.closers = nil
}

// withApp opens the app for the session, runs fn, and closes the app.
func withApp(ctx context.Context, s *session, fn func(*app) error) error {
	if s.cfg == nil {
		return errors.ErrConfigNil
	}
	a, err := openApp(ctx, s.cfg, GetLogger())
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

// withTrackedApp is withApp for commands that generate documents or move a
// task. Their metrics are exported after fn returns, whether or not it failed.
func withTrackedApp(ctx context.Context, s *session, fn func(*app) error) error {
	return withApp(ctx, s, func(a *app) error {
		err := fn(a)
		if xerr := a.exportMetrics(); xerr != nil {
			a.logger.Warn().Err(xerr).Msg("metrics not exported")
		}
		return err
	})
}
