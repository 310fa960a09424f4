package dirwatch

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func TestWatcher_DebouncesChanges(t *testing.T) {
	dir := t.TempDir()
	var calls atomic.Int32
	changed := make(chan struct{}, 10)

	w, err := Start(dir, ".json", 50*time.Millisecond, func() {
		calls.Add(1)
		changed <- struct{}{}
	}, nil)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer w.Close()

	for i := 0; i < 5; i++ {
		path := filepath.Join(dir, "a.json")
		if err := os.WriteFile(path, []byte{byte('0' + i)}, 0o600); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
	}

	select {
	case <-changed:
	case <-time.After(2 * time.Second):
		t.Fatal("onChange was not called")
	}

	time.Sleep(150 * time.Millisecond)
	if got := calls.Load(); got != 1 {
		t.Errorf("onChange called %d times, want 1", got)
	}
}

func TestWatcher_IgnoresOtherExtensions(t *testing.T) {
	dir := t.TempDir()
	changed := make(chan struct{}, 1)

	w, err := Start(dir, ".json", 20*time.Millisecond, func() { changed <- struct{}{} }, nil)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	select {
	case <-changed:
		t.Error("onChange called for a non-matching file")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcher_Matches(t *testing.T) {
	w := &Watcher{ext: ".json"}
	if !w.Matches("/x/A.JSON") {
		t.Error("Matches should be case-insensitive")
	}
	if w.Matches("/x/a.json.tmp") {
		t.Error("Matches should reject other extensions")
	}
}

func TestStart_MissingDir(t *testing.T) {
	if _, err := Start(filepath.Join(t.TempDir(), "missing"), ".json", 0, func() {}, nil); err == nil {
		t.Error("Start() expected error for missing directory")
	}
}

func TestWatcher_CloseTwice(t *testing.T) {
	w, err := Start(t.TempDir(), ".json", 0, func() {}, nil)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}
