package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/moolen/sentinel/internal/logging"
)

// ReloadCallback receives each tasks file that loaded and validated. A
// returned error is logged; the daemon keeps its previous tasks.
type ReloadCallback func(tf *TasksFile) error

// TasksWatcherConfig configures a TasksWatcher.
type TasksWatcherConfig struct {
	FilePath string

	// Debounce is how long the file must stay quiet before it is reloaded.
	// Defaults to 500ms.
	Debounce time.Duration
}

// TasksWatcher reloads the tasks file when it changes on disk. It is a
// lifecycle component.
type TasksWatcher struct {
	config   TasksWatcherConfig
	callback ReloadCallback
	logger   *logging.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// NewTasksWatcher returns a watcher for config.FilePath.
func NewTasksWatcher(config TasksWatcherConfig, callback ReloadCallback) (*TasksWatcher, error) {
	if config.FilePath == "" {
		return nil, fmt.Errorf("FilePath cannot be empty")
	}
	if callback == nil {
		return nil, fmt.Errorf("callback cannot be nil")
	}
	if config.Debounce <= 0 {
		config.Debounce = 500 * time.Millisecond
	}
	config.FilePath = filepath.Clean(config.FilePath)

	return &TasksWatcher{
		config:   config,
		callback: callback,
		logger:   logging.GetLogger("config.watcher"),
	}, nil
}

func (w *TasksWatcher) Name() string {
	return "Tasks Watcher"
}

// Start applies the current file and begins watching. A file that fails to
// load or apply here is fatal; later failures are only logged.
func (w *TasksWatcher) Start(ctx context.Context) error {
	tf, err := LoadTasksFile(w.config.FilePath)
	if err != nil {
		return fmt.Errorf("failed to load initial tasks file: %w", err)
	}
	if err := w.callback(tf); err != nil {
		return fmt.Errorf("initial callback failed: %w", err)
	}
	w.logger.Info("Loaded %d task(s) from %s", len(tf.Tasks), w.config.FilePath)

	// Editors save by writing a new file and renaming it over the old one,
	// which drops a watch on the file itself. Watch the directory instead.
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(w.config.FilePath)); err != nil {
		fsw.Close()
		return fmt.Errorf("failed to watch %s: %w", w.config.FilePath, err)
	}

	// The lifecycle start context ends after startup.
	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	w.cancel = cancel
	w.done = make(chan struct{})
	go w.loop(loopCtx, fsw)

	w.logger.Debug("Watching %s (debounce %s)", w.config.FilePath, w.config.Debounce)
	return nil
}

func (w *TasksWatcher) loop(ctx context.Context, fsw *fsnotify.Watcher) {
	defer close(w.done)
	defer fsw.Close()

	quiet := time.NewTimer(w.config.Debounce)
	quiet.Stop()
	defer quiet.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.config.FilePath || ev.Op == fsnotify.Chmod {
				continue
			}
			quiet.Reset(w.config.Debounce)

		case <-quiet.C:
			w.apply()

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("Watcher error: %v", err)
		}
	}
}

func (w *TasksWatcher) apply() {
	tf, err := LoadTasksFile(w.config.FilePath)
	if err != nil {
		w.logger.Warn("Failed to reload tasks file, keeping previous tasks: %v", err)
		return
	}
	if err := w.callback(tf); err != nil {
		w.logger.Warn("Rejected reloaded tasks, keeping previous tasks: %v", err)
		return
	}
	w.logger.Info("Reloaded %d task(s) from %s", len(tf.Tasks), w.config.FilePath)
}

// Stop ends the watch loop, waiting up to ctx's deadline.
func (w *TasksWatcher) Stop(ctx context.Context) error {
	if w.cancel == nil {
		return nil
	}
	w.cancel()

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("timeout waiting for tasks watcher to stop: %w", ctx.Err())
	}
}
