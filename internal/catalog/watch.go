package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/guygrubbs/phd-fits/internal/filename"
)

// EventOp says what happened to a watched file.
type EventOp string

const (
	OpCreate EventOp = "create"
	OpModify EventOp = "modify"
	OpRemove EventOp = "remove"
)

// Event is one change to a bench output file in the watched directory.
type Event struct {
	Op   EventOp
	File DataFile
}

// Watcher reports new and changed bench output files as the acquisition
// system writes them. Files with unknown extensions are ignored.
type Watcher struct {
	dir    string
	log    *zap.Logger
	fsw    *fsnotify.Watcher
	events chan Event
	done   chan struct{}
}

// NewWatcher returns a watcher for one data directory. A nil logger
// disables logging.
func NewWatcher(dir string, log *zap.Logger) (*Watcher, error) {
	if log == nil {
		log = zap.NewNop()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}
	return &Watcher{
		dir:    dir,
		log:    log,
		fsw:    fsw,
		events: make(chan Event, 16),
		done:   make(chan struct{}),
	}, nil
}

// Start begins watching. The event loop runs until Stop is called or the
// context is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	w.log.Info("watching data directory", zap.String("dir", w.dir))
	go w.run(ctx)
	return nil
}

// Events returns the change stream. The channel closes when the watcher
// stops.
func (w *Watcher) Events() <-chan Event { return w.events }

// Stop shuts the watcher down and waits for the event loop to drain.
func (w *Watcher) Stop() error {
	err := w.fsw.Close()
	<-w.done
	return err
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.done)
	defer close(w.events)

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			ev, ok := w.translate(event)
			if !ok {
				continue
			}
			select {
			case w.events <- ev:
			case <-ctx.Done():
				return
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Error("watch error", zap.Error(err))
		}
	}
}

// translate maps a filesystem event onto the data-file change it reports.
// Events for unrecognized files and uninteresting operations are dropped.
func (w *Watcher) translate(event fsnotify.Event) (Event, bool) {
	params := filename.Parse(event.Name)
	if params.Kind == filename.KindUnknown {
		return Event{}, false
	}

	var op EventOp
	switch {
	case event.Op&fsnotify.Create != 0:
		op = OpCreate
	case event.Op&fsnotify.Write != 0:
		op = OpModify
	case event.Op&fsnotify.Remove != 0, event.Op&fsnotify.Rename != 0:
		op = OpRemove
	default:
		return Event{}, false
	}

	df := DataFile{
		Path:   event.Name,
		Kind:   params.Kind,
		Params: params,
	}
	if op != OpRemove {
		if info, err := os.Stat(event.Name); err == nil {
			df.Size = info.Size()
		}
	}

	w.log.Debug("data file event",
		zap.String("op", string(op)),
		zap.String("file", filepath.Base(event.Name)))
	return Event{Op: op, File: df}, true
}
