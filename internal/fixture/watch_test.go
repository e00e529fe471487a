package fixture

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

func TestWatcherReportsFixtureEdits(t *testing.T) {
	dir := t.TempDir()
	ops := make(chan fsnotify.Op, 16)

	w, err := NewWatcher(dir, func(op fsnotify.Op) { ops <- op })
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Unrelated files in the directory are ignored.
	if err := os.WriteFile(filepath.Join(dir, "other"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write other: %v", err)
	}
	writeFixture(t, dir, "[account]\nreason=X\n")

	select {
	case op := <-ops:
		if !op.Has(fsnotify.Create) && !op.Has(fsnotify.Write) {
			t.Errorf("op = %v, want create or write", op)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no event for fixture write")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop after cancel")
	}
}

func TestNewWatcherMissingDir(t *testing.T) {
	if _, err := NewWatcher(filepath.Join(t.TempDir(), "missing"), nil); err == nil {
		t.Fatal("expected error watching a missing directory")
	}
}
