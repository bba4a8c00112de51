package schema

import (
	"context"
	"path/filepath"
	"reflect"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/lerboi/FileManagement-sub001/internal/domain"
	"github.com/lerboi/FileManagement-sub001/internal/store"
)

const defaultDebounce = 200 * time.Millisecond

// WatcherConfig configures a snapshot Watcher.
type WatcherConfig struct {
	// Path is the schema snapshot file to watch.
	Path string

	// Debounce is how long writes must settle before the file is re-read.
	// Default: 200ms
	Debounce time.Duration

	// Analyzer diffs successive snapshots. Defaults to the default threshold.
	Analyzer *Analyzer

	// Templates, when set, is scanned for affected templates on each change.
	Templates store.TemplateStore
}

// Report describes one observed schema change. Err is set when the
// snapshot could not be re-read or templates could not be scanned.
type Report struct {
	ChangeSet domain.SchemaChangeSet
	Affected  []domain.AffectedTemplate
	Err       error
}

// Watcher re-analyzes a schema snapshot file whenever it changes on disk.
// Each report is relative to the previous successfully loaded snapshot.
type Watcher struct {
	config WatcherConfig
	logger zerolog.Logger

	mu       sync.Mutex
	baseline domain.SchemaSnapshot
	dirty    bool
	lastSeen time.Time
}

// NewWatcher creates a Watcher starting from baseline.
func NewWatcher(config WatcherConfig, baseline domain.SchemaSnapshot, logger zerolog.Logger) *Watcher {
	if config.Debounce <= 0 {
		config.Debounce = defaultDebounce
	}
	if config.Analyzer == nil {
		config.Analyzer = NewAnalyzer(-1)
	}
	config.Path = filepath.Clean(config.Path)
	return &Watcher{
		config:   config,
		baseline: baseline,
		logger:   logger.With().Str("component", "schema_watcher").Str("path", config.Path).Logger(),
	}
}

// Run watches until ctx ends, calling onChange from the watching goroutine
// for every change that produces a non-empty change set or an error.
func (w *Watcher) Run(ctx context.Context, onChange func(Report)) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = fsw.Close() }()

	// Editors replace files by rename, so watch the directory.
	if err := fsw.Add(filepath.Dir(w.config.Path)); err != nil {
		return err
	}
	w.logger.Info().Dur("debounce", w.config.Debounce).Msg("watching schema snapshot")

	ticker := time.NewTicker(w.config.Debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handle(event)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn().Err(err).Msg("watcher error")

		case now := <-ticker.C:
			if w.settled(now) {
				if report, changed := w.check(ctx); changed {
					onChange(report)
				}
			}
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.config.Path {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}
	w.mu.Lock()
	w.dirty = true
	w.lastSeen = time.Now()
	w.mu.Unlock()
}

func (w *Watcher) settled(now time.Time) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.dirty || now.Sub(w.lastSeen) < w.config.Debounce {
		return false
	}
	w.dirty = false
	return true
}

// check reloads the snapshot and diffs it against the baseline.
func (w *Watcher) check(ctx context.Context) (Report, bool) {
	snap, err := LoadSnapshot(w.config.Path)
	if err != nil {
		w.logger.Warn().Err(err).Msg("failed to reload schema snapshot")
		return Report{Err: err}, true
	}

	w.mu.Lock()
	baseline := w.baseline
	w.mu.Unlock()

	if reflect.DeepEqual(baseline, snap) {
		return Report{}, false
	}
	cs := w.config.Analyzer.Analyze(baseline, snap)

	w.mu.Lock()
	w.baseline = snap
	w.mu.Unlock()

	if cs.IsEmpty() {
		return Report{}, false
	}

	report := Report{ChangeSet: cs}
	if w.config.Templates != nil {
		templates, err := w.config.Templates.ListTemplates(ctx)
		if err == nil {
			report.Affected, err = FindAffectedTemplates(ctx, templates, cs)
		}
		report.Err = err
	}
	w.logger.Info().
		Int("added", len(cs.Added)).
		Int("removed", len(cs.Removed)).
		Int("type_changed", len(cs.TypeChanged)).
		Int("affected", len(report.Affected)).
		Msg("schema changed")
	return report, true
}
