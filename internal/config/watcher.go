package config

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vyrodovalexey/webfunc/internal/observability"
)

// DefaultDebounceDelay coalesces bursts of file events into one reload.
const DefaultDebounceDelay = 100 * time.Millisecond

// ErrWatcherNotStarted is returned by Reload before Start succeeded.
var ErrWatcherNotStarted = errors.New("config watcher not started")

// Reload describes a configuration that loaded and validated and differs
// from the one in effect.
type Reload struct {
	Previous *Config
	Current  *Config
	Change   Change
}

// ReloadFunc applies a reload. Returning an error rejects it: the previous
// configuration stays in effect and later edits are compared against it.
type ReloadFunc func(Reload) error

// ErrorFunc is called when the file cannot be watched, read or validated.
type ErrorFunc func(error)

// Watcher watches the configuration file and hands validated changes to a
// ReloadFunc.
type Watcher struct {
	path     string
	fs       *fsnotify.Watcher
	onReload ReloadFunc
	onError  ErrorFunc
	logger   observability.Logger
	debounce time.Duration

	// applyMu serializes file reloads with Reload calls.
	applyMu sync.Mutex

	mu      sync.RWMutex
	current *Config
	stop    chan struct{}
	stopped chan struct{}
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounceDelay sets how long the file must be quiet before reloading.
func WithDebounceDelay(delay time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.debounce = delay
	}
}

// WithLogger sets the watcher logger.
func WithLogger(logger observability.Logger) WatcherOption {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithErrorCallback sets the function receiving reload failures.
func WithErrorCallback(fn ErrorFunc) WatcherOption {
	return func(w *Watcher) {
		w.onError = fn
	}
}

// NewWatcher creates a watcher for the file at path.
func NewWatcher(path string, onReload ReloadFunc, opts ...WatcherOption) (*Watcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		path:     absPath,
		fs:       fs,
		onReload: onReload,
		debounce: DefaultDebounceDelay,
		logger:   observability.NopLogger(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start loads the baseline configuration and watches the file's directory,
// which also catches editors that replace the file.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stop != nil {
		return nil
	}

	cfg, err := LoadConfig(w.path)
	if err != nil {
		return err
	}
	if err := w.fs.Add(filepath.Dir(w.path)); err != nil {
		return err
	}

	w.current = cfg
	w.stop = make(chan struct{})
	w.stopped = make(chan struct{})

	w.logger.Info("watching configuration file", observability.String("path", w.path))

	go w.run(ctx, w.stop, w.stopped)
	return nil
}

// Stop ends watching and releases the fsnotify watcher.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	stop, stopped := w.stop, w.stopped
	w.stop = nil
	w.mu.Unlock()

	if stop != nil {
		close(stop)
		<-stopped
	}
	return w.fs.Close()
}

// Current returns the configuration in effect.
func (w *Watcher) Current() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// Reload re-reads the file immediately.
func (w *Watcher) Reload() error {
	if w.Current() == nil {
		return ErrWatcherNotStarted
	}
	return w.apply()
}

func (w *Watcher) run(ctx context.Context, stop <-chan struct{}, stopped chan<- struct{}) {
	defer close(stopped)

	quiet := time.NewTimer(math.MaxInt64)
	quiet.Stop()
	defer quiet.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if w.relevant(event) {
				quiet.Reset(w.debounce)
			}
		case <-quiet.C:
			_ = w.apply()
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.fail("config watcher error", err)
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return false
	}
	w.logger.Debug("config file event",
		observability.String("op", event.Op.String()),
	)
	return true
}

// apply loads the file, classifies it against the configuration in effect
// and hands real changes to the reload function.
func (w *Watcher) apply() error {
	w.applyMu.Lock()
	defer w.applyMu.Unlock()

	next, err := LoadConfig(w.path)
	if err != nil {
		w.fail("configuration rejected, keeping previous", err)
		return err
	}

	prev := w.Current()
	change := Compare(prev, next)
	if change.Empty() {
		w.logger.Debug("configuration unchanged")
		return nil
	}

	if w.onReload != nil {
		if err := w.onReload(Reload{Previous: prev, Current: next, Change: change}); err != nil {
			w.fail("configuration not applied, keeping previous", err)
			return err
		}
	}

	w.mu.Lock()
	w.current = next
	w.mu.Unlock()

	w.logger.Info("configuration reloaded",
		observability.Bool("pipeline_changed", change.Pipeline),
		observability.Any("restart_required", change.Restart),
	)
	return nil
}

func (w *Watcher) fail(msg string, err error) {
	w.logger.Error(msg, observability.Error(err))
	if w.onError != nil {
		w.onError(err)
	}
}
