package config

import (
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/teranos/loom/errors"
	"github.com/teranos/loom/logger"
)

// DefaultDebounce collapses bursts of editor writes into one change.
const DefaultDebounce = 500 * time.Millisecond

// ChangeCallback receives the watched files that changed since the last call.
type ChangeCallback func(changed []string)

// Watcher watches a set of files (loom.toml, schema files) and triggers
// debounced callbacks when any of them is written or replaced.
type Watcher struct {
	files          map[string]bool
	watcher        *fsnotify.Watcher
	callbacks      []ChangeCallback
	mu             sync.Mutex
	pending        []string
	debounceTimer  *time.Timer
	debouncePeriod time.Duration
	started        bool
	done           chan struct{}
}

// NewWatcher creates a watcher for files. Parent directories are watched so
// that rename-on-save editors are still seen.
func NewWatcher(debounce time.Duration, files ...string) (*Watcher, error) {
	if len(files) == 0 {
		return nil, errors.NewInvalidArgumentError("no files to watch")
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create fsnotify watcher")
	}

	w := &Watcher{
		files:          make(map[string]bool, len(files)),
		watcher:        fw,
		debouncePeriod: debounce,
		done:           make(chan struct{}),
	}
	dirs := map[string]bool{}
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			fw.Close()
			return nil, errors.Wrapf(err, "failed to resolve %s", f)
		}
		w.files[abs] = true
		dir := filepath.Dir(abs)
		if dirs[dir] {
			continue
		}
		if err := fw.Add(dir); err != nil {
			fw.Close()
			return nil, errors.Wrapf(err, "failed to watch %s", dir)
		}
		dirs[dir] = true
	}
	return w, nil
}

// OnChange registers a callback
func (w *Watcher) OnChange(callback ChangeCallback) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, callback)
}

// Start begins watching for changes
func (w *Watcher) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return
	}
	w.started = true
	go w.watchLoop()
}

func (w *Watcher) watchLoop() {
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			name, err := filepath.Abs(event.Name)
			if err != nil || !w.files[name] {
				continue
			}
			logger.Debugw("Watcher detected change",
				logger.FieldFile, name,
				"op", event.Op.String())
			w.schedule(name)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Warnw("Watcher error", logger.FieldError, err)
		}
	}
}

// schedule debounces rapid file changes
func (w *Watcher) schedule(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !slices.Contains(w.pending, name) {
		w.pending = append(w.pending, name)
	}
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debouncePeriod, w.fire)
}

func (w *Watcher) fire() {
	w.mu.Lock()
	changed := w.pending
	w.pending = nil
	callbacks := slices.Clone(w.callbacks)
	w.mu.Unlock()

	if len(changed) == 0 {
		return
	}
	slices.Sort(changed)
	logger.Infow("Watched files changed", logger.FieldCount, len(changed))
	for _, callback := range callbacks {
		callback(changed)
	}
}

// Stop stops watching. Pending debounced callbacks are dropped.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.pending = nil
	started := w.started
	w.mu.Unlock()

	err := w.watcher.Close()
	if started {
		<-w.done
	}
	return err
}
