// Package watcher drives pipeline runs from drop-root activity. fsnotify
// events debounce into a single run, and a periodic rescan covers nested
// subdirectories the non-recursive watch misses and files that predate
// startup.
package watcher

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"hopper/internal/config"
	"hopper/internal/logging"
	"hopper/internal/pipeline"
	"hopper/internal/services"
)

// Runner executes one pipeline pass.
type Runner interface {
	Run(ctx context.Context) (pipeline.Result, error)
}

// Watcher owns the fsnotify loop, the debounce timer, and the rescan ticker.
// Runs execute one at a time on the watch goroutine; triggers that arrive
// mid-run coalesce into at most one pending run.
type Watcher struct {
	cfg    *config.Config
	logger *slog.Logger
	runner Runner

	mu            sync.Mutex
	debounceTimer *time.Timer

	trigger chan struct{}
}

// New builds a Watcher around the given runner.
func New(cfg *config.Config, logger *slog.Logger, runner Runner) *Watcher {
	return &Watcher{
		cfg:     cfg,
		logger:  logging.NewComponentLogger(logger, "watcher"),
		runner:  runner,
		trigger: make(chan struct{}, 1),
	}
}

// Watch blocks until ctx is cancelled. Setup failures are structural; run
// failures are logged and the loop continues.
func (w *Watcher) Watch(ctx context.Context) error {
	if err := os.MkdirAll(w.cfg.Paths.DropRoot, 0o755); err != nil {
		return services.Wrap(services.ErrConfiguration, "watch", "create drop root", w.cfg.Paths.DropRoot, err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "watch", "create watcher", "", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.cfg.Paths.DropRoot); err != nil {
		return services.Wrap(services.ErrConfiguration, "watch", "watch drop root", w.cfg.Paths.DropRoot, err)
	}

	interval := w.cfg.ScanInterval()
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	defer w.stopDebounce()

	w.logger.Info("watching drop root",
		logging.String("drop_root", w.cfg.Paths.DropRoot),
		logging.Duration("debounce", w.cfg.Debounce()),
		logging.Duration("scan_interval", interval),
		logging.String(logging.FieldEventType, "watch_started"),
	)

	// Pick up whatever already sits in the drop root.
	w.fire()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-fsw.Events:
			if !ok {
				return services.Wrap(services.ErrConfiguration, "watch", "event stream closed", "", nil)
			}
			if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) {
				w.logger.Debug("drop root event",
					logging.String("op", event.Op.String()),
					logging.String(logging.FieldFilePath, event.Name),
				)
				w.debounce()
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return services.Wrap(services.ErrConfiguration, "watch", "error stream closed", "", nil)
			}
			w.logger.Warn("watcher error",
				logging.Error(err),
				logging.String(logging.FieldEventType, "watch_error"),
			)
		case <-ticker.C:
			w.fire()
		case <-w.trigger:
			w.runOnce(ctx)
		}
	}
}

// debounce restarts the quiet-period timer; a run triggers when it fires.
func (w *Watcher) debounce() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.cfg.Debounce(), w.fire)
}

func (w *Watcher) stopDebounce() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
		w.debounceTimer = nil
	}
}

// fire requests a run. A request already pending coalesces into it.
func (w *Watcher) fire() {
	select {
	case w.trigger <- struct{}{}:
	default:
	}
}

func (w *Watcher) runOnce(ctx context.Context) {
	res, err := w.runner.Run(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		w.logger.Error("pipeline run failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "run_failed"),
		)
		return
	}
	if res.Skipped {
		return
	}
	w.logger.Debug("pipeline run finished",
		logging.String(logging.FieldRunID, res.RunID),
		logging.Int("routed_files", res.Routed),
		logging.Int("failed_files", res.Failed),
	)
}
