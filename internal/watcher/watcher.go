// Package watcher reports changes to a single file, such as the config file.
// It watches the parent directory so editors that save by rename are seen.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Nomadcxx/jellybridge/internal/logging"
	"github.com/fsnotify/fsnotify"
)

const DefaultDebounce = 250 * time.Millisecond

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
	HandleFileEvent(event FileEvent) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(event FileEvent) error

func (f HandlerFunc) HandleFileEvent(event FileEvent) error { return f(event) }

type Watcher struct {
	fsWatcher *fsnotify.Watcher
	handler   Handler
	target    string
	debounce  time.Duration
	logger    *logging.Logger
}

type Option func(*Watcher)

// WithDebounce sets how long the file must stay quiet before the handler runs.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		w.debounce = d
	}
}

func WithLogger(l *logging.Logger) Option {
	return func(w *Watcher) {
		w.logger = l
	}
}

// NewWatcher watches path, which need not exist yet; its directory is created.
func NewWatcher(path string, handler Handler, opts ...Option) (*Watcher, error) {
	target, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("unable to resolve %s: %w", path, err)
	}

	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("unable to create %s: %w", dir, err)
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("unable to create watcher: %w", err)
	}
	if err := fsWatcher.Add(dir); err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("unable to watch %s: %w", dir, err)
	}

	w := &Watcher{
		fsWatcher: fsWatcher,
		handler:   handler,
		target:    target,
		debounce:  DefaultDebounce,
		logger:    logging.Nop(),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w, nil
}

// Start delivers debounced events until ctx ends or Close is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.logger.Info("watcher", "Watching file", logging.F("path", w.target))

	var (
		timer   *time.Timer
		fire    <-chan time.Time
		pending FileEvent
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.target {
				continue
			}

			pending = FileEvent{Type: eventType(event.Op), Path: w.target}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			w.logger.Debug("watcher", "File changed",
				logging.F("path", pending.Path),
				logging.F("event", pending.Type))
			if err := w.handler.HandleFileEvent(pending); err != nil {
				w.logger.Error("watcher", "Error handling event", err, logging.F("path", pending.Path))
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher", "Watcher error", logging.F("error", err))
		}
	}
}

func (w *Watcher) Close() error {
	return w.fsWatcher.Close()
}

func eventType(op fsnotify.Op) EventType {
	switch {
	case op&fsnotify.Remove == fsnotify.Remove:
		return EventDelete
	case op&fsnotify.Rename == fsnotify.Rename:
		return EventMove
	case op&fsnotify.Write == fsnotify.Write:
		return EventWrite
	default:
		return EventCreate
	}
}
