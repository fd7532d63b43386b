package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// The lifecycle tests run without goleak: fsnotify's reader goroutine is
// not joined by Close, so leak checks on it are flaky.

func TestWatcherReceivesCreate(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(dir, nil)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(dir, "ACI ESA 1000eV240922-190315.fits")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case ev := <-w.Events():
		if ev.Op != OpCreate {
			t.Errorf("op: got %q", ev.Op)
		}
		if ev.File.Params.BeamEnergy == nil || *ev.File.Params.BeamEnergy != 1000 {
			t.Error("event file not parsed")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no event within 5s")
	}

	if err := w.Stop(); err != nil {
		t.Fatal(err)
	}
	// The stream closes once the loop drains.
	for range w.Events() {
	}
}

func TestWatcherStopWithoutEvents(t *testing.T) {
	w, err := NewWatcher(t.TempDir(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := w.Stop(); err != nil {
		t.Fatal(err)
	}
}

func TestTranslate(t *testing.T) {
	w := &Watcher{log: zap.NewNop()}

	if _, ok := w.translate(fsnotify.Event{Name: "notes.txt", Op: fsnotify.Create}); ok {
		t.Error("unknown extension must be dropped")
	}
	if _, ok := w.translate(fsnotify.Event{Name: "a.fits", Op: fsnotify.Chmod}); ok {
		t.Error("chmod must be dropped")
	}

	ev, ok := w.translate(fsnotify.Event{Name: "ACI ESA Dark 241001.fits", Op: fsnotify.Create})
	if !ok || ev.Op != OpCreate {
		t.Fatalf("create: got %+v (%v)", ev, ok)
	}
	if !ev.File.Params.IsDark {
		t.Error("parameters not parsed")
	}

	ev, ok = w.translate(fsnotify.Event{Name: "a.fits", Op: fsnotify.Remove})
	if !ok || ev.Op != OpRemove {
		t.Errorf("remove: got %+v (%v)", ev, ok)
	}
	if ev.File.Size != 0 {
		t.Error("removed file must not be stat'ed")
	}
}
