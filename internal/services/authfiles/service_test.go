package authfiles

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeAuthFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}
}

func newTestService(t *testing.T) (*Service, string) {
	t.Helper()

	dir := t.TempDir()
	svc, err := New(dir)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	t.Cleanup(func() {
		if err := svc.Close(); err != nil {
			t.Logf("Close() failed: %v", err)
		}
	})

	return svc, dir
}

func TestNew_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "auths")

	svc, err := New(dir)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	defer func() {
		_ = svc.Close()
	}()

	if _, err := os.Stat(dir); err != nil {
		t.Errorf("auth directory was not created: %v", err)
	}
	if svc.Count() != 0 {
		t.Errorf("Count() = %d, want 0", svc.Count())
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeAuthFile(t, dir, "b.json", `{"id":"2","type":"claude","email":"b@example.com","access_token":"secret"}`)
	writeAuthFile(t, dir, "A.json", `{"id":"1","name":"A.json","provider":"antigravity"}`)
	writeAuthFile(t, dir, "broken.json", `{not json`)
	writeAuthFile(t, dir, "notes.txt", `ignored`)
	if err := os.Mkdir(filepath.Join(dir, "sub.json"), 0o750); err != nil {
		t.Fatalf("Mkdir() failed: %v", err)
	}

	files, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir() failed: %v", err)
	}

	if len(files) != 2 {
		t.Fatalf("LoadDir() returned %d files, want 2", len(files))
	}
	if files[0].Name != "A.json" || files[1].Name != "b.json" {
		t.Errorf("order = %s, %s; want A.json, b.json", files[0].Name, files[1].Name)
	}
	if files[1].Provider != "claude" {
		t.Errorf("Provider = %q, want claude", files[1].Provider)
	}
	if files[1].Path != filepath.Join(dir, "b.json") {
		t.Errorf("Path = %q", files[1].Path)
	}
	if files[1].ModTime.IsZero() {
		t.Error("ModTime should be set")
	}
	if _, ok := files[1].Extra["access_token"]; ok {
		t.Error("secrets must not be loaded")
	}
}

func TestLoadDir_Missing(t *testing.T) {
	if _, err := LoadDir(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("LoadDir() expected error for missing directory")
	}
}

func TestGet(t *testing.T) {
	svc, dir := newTestService(t)
	writeAuthFile(t, dir, "alice.json", `{"id":"auth-1","type":"codex"}`)
	if err := svc.Reload(); err != nil {
		t.Fatalf("Reload() failed: %v", err)
	}

	for _, key := range []string{"alice.json", "auth-1"} {
		if _, ok := svc.Get(key); !ok {
			t.Errorf("Get(%q) not found", key)
		}
	}
	if _, ok := svc.Get("bob.json"); ok {
		t.Error("Get(bob.json) unexpectedly found")
	}
}

func TestFiles_ReturnsCopies(t *testing.T) {
	svc, dir := newTestService(t)
	writeAuthFile(t, dir, "alice.json", `{"id":"1","quota":{"exceeded":true}}`)
	if err := svc.Reload(); err != nil {
		t.Fatalf("Reload() failed: %v", err)
	}

	files := svc.Files()
	files[0].Quota.Exceeded = false

	again, _ := svc.Get("alice.json")
	if !again.Quota.Exceeded {
		t.Error("Files() must return deep copies")
	}
}

func TestEvents_Loaded(t *testing.T) {
	svc, _ := newTestService(t)

	select {
	case event := <-svc.Events():
		if event.Type != EventAuthFilesLoaded {
			t.Errorf("event type = %v, want EventAuthFilesLoaded", event.Type)
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("expected loaded event")
	}
}

func TestWatchDirectoryChange(t *testing.T) {
	svc, dir := newTestService(t)
	<-svc.Events()

	writeAuthFile(t, dir, "new.json", `{"id":"n","type":"gemini-cli"}`)

	timeout := time.After(2 * time.Second)
	for {
		select {
		case event := <-svc.Events():
			if event.Type == EventAuthFilesChanged {
				if svc.Count() != 1 {
					t.Errorf("Count() = %d after change, want 1", svc.Count())
				}
				return
			}
		case <-timeout:
			t.Fatal("timed out waiting for change event")
		}
	}
}

func TestSendEvent_Full(t *testing.T) {
	svc, _ := newTestService(t)

	for i := 0; i < 150; i++ {
		svc.sendEvent(Event{Type: EventAuthFilesChanged})
	}

	if len(svc.Events()) != 100 {
		t.Errorf("expected 100 events, got %d", len(svc.Events()))
	}
}
