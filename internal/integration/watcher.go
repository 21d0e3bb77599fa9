package integration

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ChangeHandler is called with the vault-relative path of a modified file.
type ChangeHandler func(ctx context.Context, path string)

// WatcherConfig controls which directories are observed.
type WatcherConfig struct {
	Vault    string
	Debounce time.Duration
	// DebounceFunc, when set, overrides Debounce and is consulted for every
	// event so a reloaded setting applies to the next change.
	DebounceFunc func() time.Duration
	// Targets returns the currently configured target files. It is consulted
	// on every Sync so edits to the settings take effect without a restart.
	Targets func() []string
	// SettingsPath, when set, is watched too; changes call OnSettingsChange
	// instead of the ChangeHandler.
	SettingsPath     string
	OnSettingsChange func()
	Logger           *slog.Logger
}

// Watcher turns fsnotify events in the directories of the target files into
// debounced change notifications.
type Watcher struct {
	cfg     WatcherConfig
	handler ChangeHandler
	logger  *slog.Logger

	mu     sync.Mutex
	fsw    *fsnotify.Watcher
	dirs   map[string]bool
	timers map[string]*time.Timer
	ctx    context.Context
	wg     sync.WaitGroup
}

// NewWatcher creates a Watcher. It does not touch the filesystem until Run.
func NewWatcher(cfg WatcherConfig, handler ChangeHandler) (*Watcher, error) {
	if handler == nil {
		return nil, fmt.Errorf("change handler required")
	}
	if cfg.Targets == nil {
		return nil, fmt.Errorf("target source required")
	}
	if cfg.Vault == "" {
		cfg.Vault = "."
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Watcher{
		cfg:     cfg,
		handler: handler,
		logger:  logger,
		dirs:    make(map[string]bool),
		timers:  make(map[string]*time.Timer),
	}, nil
}

// Run watches until ctx is cancelled, then waits for in-flight handlers.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}

	w.mu.Lock()
	w.fsw = fsw
	w.ctx = ctx
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		for p, t := range w.timers {
			if t.Stop() {
				w.wg.Done()
			}
			delete(w.timers, p)
		}
		w.fsw = nil
		w.dirs = make(map[string]bool)
		w.mu.Unlock()
		_ = fsw.Close()
		w.wg.Wait()
	}()

	if err := w.Sync(); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("file watcher error", "error", err)
		}
	}
}

// Sync adds watches for the directories of the current targets and drops
// directories no longer needed. Directories that cannot be watched are
// logged and skipped.
func (w *Watcher) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fsw == nil {
		return fmt.Errorf("watcher not running")
	}

	want := make(map[string]bool)
	for _, t := range w.cfg.Targets() {
		want[filepath.Dir(absPath(ResolvePath(w.cfg.Vault, t)))] = true
	}
	if w.cfg.SettingsPath != "" {
		want[filepath.Dir(absPath(w.cfg.SettingsPath))] = true
	}

	for dir := range want {
		if w.dirs[dir] {
			continue
		}
		if err := w.fsw.Add(dir); err != nil {
			w.logger.Warn("cannot watch directory", "dir", dir, "error", err)
			continue
		}
		w.dirs[dir] = true
		w.logger.Debug("watching directory", "dir", dir)
	}
	for dir := range w.dirs {
		if want[dir] {
			continue
		}
		_ = w.fsw.Remove(dir)
		delete(w.dirs, dir)
	}
	return nil
}

// WatchedDirs returns the directories currently observed.
func (w *Watcher) WatchedDirs() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	dirs := make([]string, 0, len(w.dirs))
	for d := range w.dirs {
		dirs = append(dirs, d)
	}
	return dirs
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Name == "" {
		return
	}
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
		return
	}

	name := absPath(event.Name)
	if w.cfg.SettingsPath != "" && name == absPath(w.cfg.SettingsPath) {
		w.schedule(name, func(context.Context) {
			if w.cfg.OnSettingsChange != nil {
				w.cfg.OnSettingsChange()
			}
			if err := w.Sync(); err != nil {
				w.logger.Warn("resyncing watched directories", "error", err)
			}
		})
		return
	}

	rel := RelativePath(w.cfg.Vault, name)
	w.schedule(name, func(ctx context.Context) {
		w.handler(ctx, rel)
	})
}

// schedule runs fn after the debounce window, restarting the window when
// another event for the same key arrives first.
func (w *Watcher) schedule(key string, fn func(ctx context.Context)) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.timers[key]; ok {
		if t.Stop() {
			w.wg.Done()
		}
	}

	ctx := w.ctx
	w.wg.Add(1)
	var timer *time.Timer
	timer = time.AfterFunc(w.debounce(), func() {
		defer w.wg.Done()
		w.mu.Lock()
		if w.timers[key] == timer {
			delete(w.timers, key)
		}
		w.mu.Unlock()
		if ctx.Err() != nil {
			return
		}
		fn(ctx)
	})
	w.timers[key] = timer
}

func (w *Watcher) debounce() time.Duration {
	if w.cfg.DebounceFunc != nil {
		if d := w.cfg.DebounceFunc(); d >= 0 {
			return d
		}
	}
	return w.cfg.Debounce
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return filepath.Clean(abs)
	}
	return filepath.Clean(p)
}
