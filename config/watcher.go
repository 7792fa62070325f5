package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/openadapt/telemetry/core/logger"
	"github.com/openadapt/telemetry/core/metrics"
)

// DefaultDebounce is the quiet period before a change triggers a reload.
const DefaultDebounce = 100 * time.Millisecond

// Watcher reloads the configuration into a Store whenever the persisted file
// changes. The parent directory is watched so that atomic replacement and
// late creation of the file are noticed.
type Watcher struct {
	Loader   *Loader
	Store    *Store
	Debounce time.Duration
	Log      logger.Logger
	Recorder metrics.Recorder
	// OnChange runs after each successful reload with the new snapshot.
	OnChange func(Config)

	mu    sync.Mutex
	timer *time.Timer
}

// NewWatcher returns a Watcher for the loader's path.
func NewWatcher(l *Loader, s *Store, log logger.Logger) *Watcher {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Watcher{Loader: l, Store: s, Debounce: DefaultDebounce, Log: log, Recorder: metrics.NopRecorder{}}
}

// Run blocks until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	if w.Loader == nil || w.Loader.Path == "" {
		return fmt.Errorf("watcher requires a store path")
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer func() { _ = fw.Close() }()

	target := filepath.Clean(w.Loader.Path)
	if err := fw.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(target), err)
	}
	w.Log.Infof("watching telemetry config %s", target)

	defer w.stopTimer()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			w.schedule()
		case err, ok := <-fw.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.Log.Errorf("config watcher: %v", err)
		}
	}
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	d := w.Debounce
	if d <= 0 {
		d = DefaultDebounce
	}
	w.timer = time.AfterFunc(d, w.Reload)
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
}

// Reload resolves the configuration and swaps it into the store. A failed
// resolution keeps the previous snapshot.
func (w *Watcher) Reload() {
	cfg, err := w.Loader.Load()
	_ = w.recorder().RecordConfigReload(err == nil)
	if err != nil {
		w.Log.Warnf("config reload rejected: %v", err)
		return
	}
	w.Store.Set(cfg)
	w.Log.Infof("config reloaded (enabled=%t environment=%s)", cfg.Enabled, cfg.Environment)
	if w.OnChange != nil {
		w.OnChange(cfg)
	}
}

func (w *Watcher) recorder() metrics.ConfigReloadRecorder {
	if r, ok := w.Recorder.(metrics.ConfigReloadRecorder); ok {
		return r
	}
	return metrics.NopRecorder{}
}
