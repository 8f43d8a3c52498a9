package fs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	"github.com/aretw0/lifecycle/pkg/core/worker"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/aretw0/jot/pkg/core"
	"github.com/aretw0/jot/pkg/debounce"
)

// watchQuietPeriod collapses the burst of events produced by one atomic write.
const watchQuietPeriod = 50 * time.Millisecond

// Watch reports changes to keys matching pattern, including writes made by
// other processes. The channel closes when ctx is done.
func (b *Backend) Watch(ctx context.Context, pattern string) (<-chan core.Event, error) {
	if pattern == "" {
		pattern = "*"
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid watch pattern %q: %w", pattern, doublestar.ErrBadPattern)
	}

	events := make(chan core.Event)
	w := newWatchWorker(b, pattern, events)
	w.closeEvents = true
	if err := w.Start(ctx); err != nil {
		return nil, err
	}
	return events, nil
}

var _ core.Watchable = (*Backend)(nil)

type watchWorker struct {
	*worker.BaseWorker
	backend   *Backend
	pattern   string
	events    chan core.Event
	watcher   *fsnotify.Watcher
	debouncer *debounce.Keyed[string, core.Event]
	cancel    context.CancelFunc

	// closeEvents is set when the worker owns events. Supervised workers
	// share the channel across restarts and leave it open.
	closeEvents bool
}

func newWatchWorker(b *Backend, pattern string, events chan core.Event) *watchWorker {
	return &watchWorker{
		BaseWorker: worker.NewBaseWorker("fs-watcher"),
		backend:    b,
		pattern:    pattern,
		events:     events,
	}
}

func (w *watchWorker) Start(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	status := w.State().Status
	if status != worker.StatusCreated && status != worker.StatusPending {
		return fmt.Errorf("watcher already started (status: %s)", status)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := w.backend.recursiveAdd(watcher, w.backend.Path); err != nil {
		_ = watcher.Close()
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.watcher = watcher
	w.debouncer = debounce.NewKeyed[string](watchQuietPeriod, func(e core.Event) {
		w.send(runCtx, e)
	})
	w.backend.setWatcherActive(true)

	w.SetStatus(worker.StatusRunning)
	return w.StartFunc(runCtx, w.run)
}

func (w *watchWorker) Stop(ctx context.Context) error {
	if w.cancel != nil {
		w.StopRequested = true
		w.cancel()
	}
	return w.BaseWorker.Stop(ctx)
}

func (w *watchWorker) State() worker.State {
	return w.ExportState(func(s *worker.State) {
		s.Metadata = map[string]string{
			worker.MetadataType: string(worker.TypeGoroutine),
		}
	})
}

// run is the main event loop of the worker.
func (w *watchWorker) run(ctx context.Context) (err error) {
	logger := w.backend.config.Logger
	defer func() {
		if recovered := recover(); recovered != nil {
			panicErr := fmt.Errorf("watcher panic: %v", recovered)
			if logger.Enabled(ctx, slog.LevelDebug) {
				logger.Error("watcher panic", "error", panicErr, "stack", string(debug.Stack()))
			} else {
				logger.Error("watcher panic", "error", panicErr)
			}
			err = panicErr
		}
	}()
	if w.closeEvents {
		defer close(w.events)
	}
	defer w.debouncer.Stop()
	defer w.cancel()
	defer w.backend.setWatcherActive(false)
	defer w.watcher.Close()

	return w.mainEventLoop(ctx)
}

func (w *watchWorker) mainEventLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				if w.StopRequested || ctx.Err() != nil {
					return nil
				}
				return errors.New("watcher events channel closed")
			}
			w.processFilesystemEvent(event)

		case wErr, ok := <-w.watcher.Errors:
			if !ok {
				if w.StopRequested || ctx.Err() != nil {
					return nil
				}
				return errors.New("watcher errors channel closed")
			}
			w.handleWatcherError(wErr)
		}
	}
}

// processFilesystemEvent maps a filesystem event to a key event and hands it to the debouncer.
func (w *watchWorker) processFilesystemEvent(event fsnotify.Event) bool {
	logger := w.backend.config.Logger
	logger.Debug("event received", "name", event.Name, "op", event.Op.String())

	// New directories (e.g. the first "notes:<id>" creates notes/) must be watched too.
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.backend.recursiveAdd(w.watcher, event.Name); err != nil {
				w.handleWatcherError(err)
			}
			w.scanNewDir(event.Name)
			return false
		}
	}

	eType := mapEventType(event)
	if eType == "" {
		return false
	}
	return w.emit(event.Name, eType)
}

// scanNewDir reports files written into a directory before it was watched.
func (w *watchWorker) scanNewDir(dir string) {
	_ = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		w.emit(path, core.EventCreate)
		return nil
	})
}

// emit hands the key event of path to the debouncer if it matches the pattern.
func (w *watchWorker) emit(path string, eType core.EventType) bool {
	key, ok := w.backend.keyFor(path)
	if !ok {
		return false
	}
	if match, _ := doublestar.Match(w.pattern, key); !match {
		return false
	}

	w.debouncer.Call(key, core.Event{Type: eType, ID: key, Timestamp: time.Now().Unix()})
	return true
}

// send forwards an event, protecting against channel closure during shutdown.
func (w *watchWorker) send(ctx context.Context, e core.Event) {
	defer func() {
		_ = recover()
	}()
	select {
	case w.events <- e:
	case <-ctx.Done():
	}
}

func (w *watchWorker) handleWatcherError(err error) {
	w.backend.config.Logger.Error("fsnotify error", "error", err)
	if w.backend.config.ErrorHandler != nil {
		w.backend.config.ErrorHandler(err)
	}
}

func mapEventType(event fsnotify.Event) core.EventType {
	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		// A rename away from the key file means the key is gone.
		if _, err := os.Stat(event.Name); err == nil {
			return core.EventModify
		}
		return core.EventDelete
	case event.Has(fsnotify.Create):
		return core.EventCreate
	case event.Has(fsnotify.Write):
		return core.EventModify
	default:
		return ""
	}
}

// recursiveAdd watches root and every non-hidden directory below it.
func (b *Backend) recursiveAdd(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != b.Path && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}
