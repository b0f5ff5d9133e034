package config

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ChangeType is the kind of change seen on a watched config file.
type ChangeType string

const (
	ChangeCreate ChangeType = "create"
	ChangeWrite  ChangeType = "write"
	ChangeRemove ChangeType = "remove"
	ChangeRename ChangeType = "rename"
)

// Change is a debounced change to one config file.
type Change struct {
	Path      string
	Type      ChangeType
	Timestamp time.Time
}

// WatcherConfig holds configuration for the config file watcher.
type WatcherConfig struct {
	DebounceDuration time.Duration
	BufferSize       int
}

func DefaultWatcherConfig() WatcherConfig {
	return WatcherConfig{
		DebounceDuration: 200 * time.Millisecond,
		BufferSize:       16,
	}
}

// Watcher reports edits to config files. Parent directories are watched
// rather than the files so that editors replacing a file by rename are seen.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	config    WatcherConfig
	changes   chan Change
	errors    chan error

	filesMu sync.Mutex
	files   map[string]struct{}

	pendingMu sync.Mutex
	pending   map[string]pendingChange

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool
	closed  bool
}

type pendingChange struct {
	changeType ChangeType
	timestamp  time.Time
}

func NewWatcher(cfg WatcherConfig) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	def := DefaultWatcherConfig()
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = def.BufferSize
	}
	if cfg.DebounceDuration <= 0 {
		cfg.DebounceDuration = def.DebounceDuration
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		fsWatcher: fsWatcher,
		config:    cfg,
		changes:   make(chan Change, cfg.BufferSize),
		errors:    make(chan error, cfg.BufferSize),
		files:     make(map[string]struct{}),
		pending:   make(map[string]pendingChange),
		ctx:       ctx,
		cancel:    cancel,
	}, nil
}

// Watch adds files to the watch set and starts event processing on the
// first call. Files whose directory does not exist are skipped.
func (w *Watcher) Watch(files ...string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}

	for _, file := range files {
		abs, err := filepath.Abs(file)
		if err != nil {
			return err
		}
		dir := filepath.Dir(abs)
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			continue
		}
		if err := w.fsWatcher.Add(dir); err != nil {
			return err
		}
		w.filesMu.Lock()
		w.files[abs] = struct{}{}
		w.filesMu.Unlock()
	}

	if !w.started {
		w.started = true
		w.wg.Add(2)
		go w.processEvents()
		go w.debounceProcessor()
	}
	return nil
}

// Changes returns the channel of debounced file changes.
func (w *Watcher) Changes() <-chan Change {
	return w.changes
}

// Errors returns the channel for receiving watcher errors.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// Close stops the watcher and releases resources.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	w.cancel()
	err := w.fsWatcher.Close()
	w.wg.Wait()

	close(w.changes)
	close(w.errors)
	return err
}

func (w *Watcher) watching(path string) bool {
	w.filesMu.Lock()
	defer w.filesMu.Unlock()
	_, ok := w.files[filepath.Clean(path)]
	return ok
}

func (w *Watcher) processEvents() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if !w.watching(event.Name) {
				continue
			}
			changeType := convertOp(event.Op)
			if changeType == "" {
				continue
			}
			w.pendingMu.Lock()
			w.pending[filepath.Clean(event.Name)] = pendingChange{
				changeType: changeType,
				timestamp:  time.Now(),
			}
			w.pendingMu.Unlock()

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			select {
			case w.errors <- err:
			default:
			}
		}
	}
}

func (w *Watcher) debounceProcessor() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.config.DebounceDuration / 2)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			w.emitStableChanges()
		}
	}
}

func (w *Watcher) emitStableChanges() {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	now := time.Now()
	for path, pending := range w.pending {
		if now.Sub(pending.timestamp) < w.config.DebounceDuration {
			continue
		}
		delete(w.pending, path)

		select {
		case w.changes <- Change{Path: path, Type: pending.changeType, Timestamp: pending.timestamp}:
		default:
			// Consumer is behind; drop.
		}
	}
}

func convertOp(op fsnotify.Op) ChangeType {
	switch {
	case op.Has(fsnotify.Create):
		return ChangeCreate
	case op.Has(fsnotify.Write):
		return ChangeWrite
	case op.Has(fsnotify.Remove):
		return ChangeRemove
	case op.Has(fsnotify.Rename):
		return ChangeRename
	default:
		return ""
	}
}
