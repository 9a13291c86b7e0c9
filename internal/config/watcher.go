package config

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jmylchreest/backdrop/internal/debounce"
)

// reloadDelay coalesces the burst of events editors produce on save.
const reloadDelay = 100 * time.Millisecond

// Watcher reloads the config file when it changes and hands valid configs
// to onChange. Invalid edits are logged and skipped.
type Watcher struct {
	watcher  *fsnotify.Watcher
	filePath string
	onChange func(*Config)
	reload   *debounce.Debouncer
	logger   *slog.Logger
	done     chan struct{}
	mu       sync.Mutex
	running  bool
}

// NewWatcher creates a watcher for the config file at path.
func NewWatcher(path string, onChange func(*Config), logger *slog.Logger) (*Watcher, error) {
	if path == "" {
		path = ConfigPath()
	}
	if logger == nil {
		logger = slog.Default()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		watcher:  watcher,
		filePath: path,
		onChange: onChange,
		logger:   logger,
		done:     make(chan struct{}),
	}
	w.reload = debounce.New(debounce.RealClock{}, reloadDelay, w.load)
	return w, nil
}

// Start begins watching the file for changes.
func (w *Watcher) Start() error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	// Watch the directory containing the file (more reliable for writes)
	if err := w.watcher.Add(filepath.Dir(w.filePath)); err != nil {
		return err
	}

	go w.watch()
	return nil
}

// Run starts the watcher and stops it when ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.Start(); err != nil {
		_ = w.Stop()
		return err
	}
	<-ctx.Done()
	return w.Stop()
}

func (w *Watcher) watch() {
	filename := filepath.Base(w.filePath)

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filename {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				w.reload.Trigger()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watcher error", "error", err)

		case <-w.done:
			return
		}
	}
}

func (w *Watcher) load() {
	cfg, err := LoadConfig(w.filePath)
	if err != nil {
		w.logger.Warn("ignoring invalid config change", "file", w.filePath, "error", err)
		return
	}
	w.logger.Debug("config reloaded", "file", w.filePath)
	if w.onChange != nil {
		w.onChange(cfg)
	}
}

// Stop stops the watcher and drops any pending reload.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return nil
	}

	w.running = false
	w.reload.Cancel()
	close(w.done)
	return w.watcher.Close()
}
