// Package dirwatch watches a notes directory and reports Markdown files that
// were created or modified, so they can be uploaded.
package dirwatch

import (
	"context"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Operation is the kind of change observed.
type Operation int

const (
	Created Operation = iota
	Modified
)

func (o Operation) String() string {
	if o == Modified {
		return "modified"
	}
	return "created"
}

// Event reports one file after its writes settled.
type Event struct {
	Path      string
	Operation Operation
}

// Watcher wraps fsnotify. Bursts of writes to the same file collapse into a
// single event once the directory has been quiet for the debounce period.
type Watcher struct {
	watcher    *fsnotify.Watcher
	extensions []string
	debounce   time.Duration
	logger     *zap.Logger
}

// New creates a watcher for files with the given extensions (".md" when none).
func New(extensions []string, debounce time.Duration, logger *zap.Logger) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if len(extensions) == 0 {
		extensions = []string{".md"}
	}
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{watcher: w, extensions: extensions, debounce: debounce, logger: logger}, nil
}

// Watch starts monitoring dir. The returned channel closes when ctx ends or
// the watcher is closed.
func (w *Watcher) Watch(ctx context.Context, dir string) (<-chan Event, error) {
	if err := w.watcher.Add(dir); err != nil {
		return nil, err
	}
	events := make(chan Event, 16)
	go w.loop(ctx, events)
	return events, nil
}

func (w *Watcher) loop(ctx context.Context, events chan<- Event) {
	defer close(events)
	pending := make(map[string]Operation)
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.isWatchedExtension(event.Name) {
				continue
			}
			switch {
			case event.Op.Has(fsnotify.Create):
				pending[event.Name] = Created
			case event.Op.Has(fsnotify.Write):
				if _, seen := pending[event.Name]; !seen {
					pending[event.Name] = Modified
				}
			case event.Op.Has(fsnotify.Remove), event.Op.Has(fsnotify.Rename):
				delete(pending, event.Name)
				continue
			default:
				continue
			}
			timer.Reset(w.debounce)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", zap.Error(err))
		case <-timer.C:
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			sort.Strings(paths)
			for _, p := range paths {
				select {
				case events <- Event{Path: p, Operation: pending[p]}:
				case <-ctx.Done():
					return
				}
				delete(pending, p)
			}
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func (w *Watcher) isWatchedExtension(path string) bool {
	ext := filepath.Ext(path)
	for _, e := range w.extensions {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}
