// Package watcher processes video files as they appear in watched
// directories.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Nomadcxx/vidmeta/internal/logging"
)

type EventType string

const (
	EventCreate EventType = "create"
	EventWrite  EventType = "write"
	EventMove   EventType = "move"
	EventDelete EventType = "delete"
)

type FileEvent struct {
	Type EventType
	Path string
}

type Handler interface {
	HandleFileEvent(ctx context.Context, event FileEvent) error
	IsVideoFile(path string) bool
}

// DefaultSettleDelay is how long a file must stay quiet before it is handled.
const DefaultSettleDelay = 2 * time.Second

type Watcher struct {
	fsWatcher   *fsnotify.Watcher
	handler     Handler
	recursive   bool
	settleDelay time.Duration
	logger      *logging.Logger

	mu      sync.Mutex
	pending map[string]pendingEvent
	seq     uint64
	wg      sync.WaitGroup
}

type pendingEvent struct {
	timer *time.Timer
	seq   uint64
}

type Option func(*Watcher)

func WithRecursive(recursive bool) Option {
	return func(w *Watcher) {
		w.recursive = recursive
	}
}

// WithSettleDelay sets the quiet period before a changed file is handled.
func WithSettleDelay(d time.Duration) Option {
	return func(w *Watcher) {
		w.settleDelay = d
	}
}

func WithLogger(l *logging.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

func NewWatcher(handler Handler, opts ...Option) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("unable to create watcher: %w", err)
	}

	w := &Watcher{
		fsWatcher:   fsWatcher,
		handler:     handler,
		recursive:   true,
		settleDelay: DefaultSettleDelay,
		logger:      logging.Nop(),
		pending:     make(map[string]pendingEvent),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w, nil
}

func (w *Watcher) Watch(paths []string) error {
	for _, path := range paths {
		if w.recursive {
			if err := w.addRecursive(path); err != nil {
				return err
			}
		} else {
			if err := w.fsWatcher.Add(path); err != nil {
				return fmt.Errorf("unable to watch %s: %w", path, err)
			}
			w.logger.Info("watcher", "Watching directory", logging.F("path", path))
		}
	}
	return nil
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(filepath.Base(path), ".") {
			return filepath.SkipDir
		}
		if err := w.fsWatcher.Add(path); err != nil {
			return fmt.Errorf("unable to watch %s: %w", path, err)
		}
		w.logger.Info("watcher", "Watching directory", logging.F("path", path))
		return nil
	})
}

// Start dispatches events until ctx is done or the watcher is closed.
// Pending handlers finish before Start returns.
func (w *Watcher) Start(ctx context.Context) error {
	defer w.drain()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}

			if event.Op&fsnotify.Create == fsnotify.Create {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if w.recursive && !strings.HasPrefix(filepath.Base(event.Name), ".") {
						if err := w.fsWatcher.Add(event.Name); err != nil {
							w.logger.Warn("watcher", "Unable to watch new directory", logging.F("path", event.Name), logging.F("error", err.Error()))
						} else {
							w.logger.Info("watcher", "Now watching new directory", logging.F("path", event.Name))
						}
					}
					continue
				}
			}

			w.handleEvent(ctx, event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher", "Watcher error", logging.F("error", err.Error()))
		}
	}
}

func (w *Watcher) Close() error {
	return w.fsWatcher.Close()
}

func classify(op fsnotify.Op) EventType {
	switch {
	case op&fsnotify.Write == fsnotify.Write:
		return EventWrite
	case op&fsnotify.Rename == fsnotify.Rename:
		return EventMove
	case op&fsnotify.Remove == fsnotify.Remove:
		return EventDelete
	default:
		return EventCreate
	}
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	if !w.handler.IsVideoFile(event.Name) {
		return
	}

	eventType := classify(event.Op)
	w.logger.Debug("watcher", "File event", logging.F("type", string(eventType)), logging.F("file", filepath.Base(event.Name)))

	if eventType == EventMove || eventType == EventDelete {
		w.cancelPending(event.Name)
		w.dispatch(ctx, FileEvent{Type: eventType, Path: event.Name})
		return
	}
	w.schedule(ctx, FileEvent{Type: eventType, Path: event.Name})
}

// schedule restarts the settle timer for a path so a file still being
// written is handled once.
func (w *Watcher) schedule(ctx context.Context, ev FileEvent) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if p, ok := w.pending[ev.Path]; ok && p.timer.Stop() {
		w.wg.Done()
	}
	w.seq++
	seq := w.seq
	w.wg.Add(1)
	timer := time.AfterFunc(w.settleDelay, func() {
		defer w.wg.Done()
		w.mu.Lock()
		if p, ok := w.pending[ev.Path]; ok && p.seq == seq {
			delete(w.pending, ev.Path)
		}
		w.mu.Unlock()
		w.dispatch(ctx, ev)
	})
	w.pending[ev.Path] = pendingEvent{timer: timer, seq: seq}
}

func (w *Watcher) cancelPending(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if p, ok := w.pending[path]; ok {
		if p.timer.Stop() {
			w.wg.Done()
		}
		delete(w.pending, path)
	}
}

func (w *Watcher) dispatch(ctx context.Context, ev FileEvent) {
	if ctx.Err() != nil {
		return
	}
	if err := w.handler.HandleFileEvent(ctx, ev); err != nil {
		w.logger.Warn("watcher", "Error handling event", logging.F("path", ev.Path), logging.F("error", err.Error()))
	}
}

func (w *Watcher) drain() {
	w.mu.Lock()
	for path, p := range w.pending {
		if p.timer.Stop() {
			w.wg.Done()
		}
		delete(w.pending, path)
	}
	w.mu.Unlock()
	w.wg.Wait()
}
