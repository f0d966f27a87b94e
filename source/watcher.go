package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the minimum spacing between accepted change events.
const DefaultDebounce = 250 * time.Millisecond

// WatchState is the lifecycle of a Watcher.
type WatchState int32

const (
	Idle WatchState = iota
	Watching
	Stopped
)

func (s WatchState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Watching:
		return "watching"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// ErrNotIdle is returned by Start on a watcher that already started.
var ErrNotIdle = errors.New("watcher already started")

// Watcher turns filesystem events under a root into reload requests.
// It never reloads by itself.
type Watcher struct {
	dir      string
	queue    *Queue
	now      func() time.Time
	debounce time.Duration
	logger   *slog.Logger

	state atomic.Int32

	mu       sync.Mutex
	last     time.Time
	accepted bool

	fsw  *fsnotify.Watcher
	done chan struct{}
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithClock sets the clock used to timestamp events.
func WithClock(now func() time.Time) WatcherOption {
	return func(w *Watcher) { w.now = now }
}

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) { w.debounce = d }
}

// WithWatcherLogger sets the logger.
func WithWatcherLogger(logger *slog.Logger) WatcherOption {
	return func(w *Watcher) { w.logger = logger }
}

// NewWatcher creates an idle watcher for dir that posts to queue.
func NewWatcher(dir string, queue *Queue, opts ...WatcherOption) *Watcher {
	w := &Watcher{
		dir:      dir,
		queue:    queue,
		now:      time.Now,
		debounce: DefaultDebounce,
		logger:   slog.Default(),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// State returns the current lifecycle state.
func (w *Watcher) State() WatchState { return WatchState(w.state.Load()) }

// Start begins watching. The watch ends when ctx is cancelled or Close is
// called.
func (w *Watcher) Start(ctx context.Context) error {
	if !w.state.CompareAndSwap(int32(Idle), int32(Watching)) {
		return ErrNotIdle
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		w.state.Store(int32(Stopped))
		return fmt.Errorf("creating file watcher: %w", err)
	}
	if err := fsw.Add(w.dir); err != nil {
		_ = fsw.Close()
		w.state.Store(int32(Stopped))
		return fmt.Errorf("watching %s: %w", w.dir, err)
	}
	w.fsw = fsw
	w.logger.Info("watching script root", "dir", w.dir, "debounce", w.debounce)
	go w.loop(ctx)
	return nil
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.done)
	defer w.fsw.Close()
	for {
		select {
		case <-ctx.Done():
			w.state.Store(int32(Stopped))
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				w.state.Store(int32(Stopped))
				return
			}
			if ev.Op == fsnotify.Chmod {
				continue
			}
			w.Observe(ev.Name)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				w.state.Store(int32(Stopped))
				return
			}
			w.logger.Warn("file watcher error", "dir", w.dir, "error", err)
		}
	}
}

// Observe records a change to name. Events closer than the debounce window
// to the last accepted one are dropped; an accepted event posts a request.
// It reports whether the event was accepted.
func (w *Watcher) Observe(name string) bool {
	at := w.now()

	w.mu.Lock()
	if w.accepted && at.Sub(w.last) < w.debounce {
		w.mu.Unlock()
		w.logger.Debug("change debounced", "file", name)
		return false
	}
	w.last, w.accepted = at, true
	w.mu.Unlock()

	if !w.queue.Post(Request{Reason: "change: " + name, At: at}) {
		w.logger.Debug("reload already pending", "file", name)
	}
	return true
}

// Close stops a started watcher and waits for its goroutine.
func (w *Watcher) Close() error {
	switch WatchState(w.state.Swap(int32(Stopped))) {
	case Idle:
		return nil
	case Watching:
		err := w.fsw.Close()
		<-w.done
		return err
	default:
		if w.fsw != nil {
			<-w.done
		}
		return nil
	}
}
