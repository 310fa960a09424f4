package payloads

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/j-veylop/authquota/internal/config"
	"github.com/j-veylop/authquota/internal/providers"
)

const geminiEnvelope = `{
	"auth": "alice.json",
	"provider": "gemini-cli",
	"fetched_at": "2025-01-01T09:00:00Z",
	"payload": {"buckets": [
		{"modelId": "gemini-2.5-pro", "remainingFraction": 0.2, "resetTime": "2025-01-02T00:00:00Z"},
		{"modelId": "gemini-3-pro-preview", "remainingFraction": 0.8, "resetTime": "2025-01-02T00:00:00Z"}
	]}
}`

func writePayload(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}
}

func newTestService(t *testing.T, dir string) *Service {
	t.Helper()
	svc, err := New(context.Background(), dir, config.DefaultRules())
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	t.Cleanup(func() {
		if err := svc.Close(); err != nil {
			t.Logf("Close() failed: %v", err)
		}
	})
	return svc
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	writePayload(t, dir, "alice-gemini.json", geminiEnvelope)

	r := LoadFile(filepath.Join(dir, "alice-gemini.json"), config.DefaultRules(), time.Now())
	if r.Err != nil {
		t.Fatalf("LoadFile() error = %v", r.Err)
	}
	if r.Auth != "alice.json" || r.Provider != "gemini-cli" {
		t.Errorf("identity = %s/%s", r.Auth, r.Provider)
	}
	if len(r.Groups) != 1 || r.Groups[0].ID != "gemini-pro-series" {
		t.Fatalf("Groups = %+v, want gemini-pro-series", r.Groups)
	}
	if *r.Groups[0].RemainingFraction != 0.8 {
		t.Errorf("preferred fraction = %v, want 0.8", *r.Groups[0].RemainingFraction)
	}
	if !r.FetchedAt.Equal(time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)) {
		t.Errorf("FetchedAt = %v", r.FetchedAt)
	}
}

func TestLoadFile_Errors(t *testing.T) {
	dir := t.TempDir()
	writePayload(t, dir, "noprov.json", `{"payload": {}}`)
	writePayload(t, dir, "unknown.json", `{"provider": "trae", "payload": {}}`)
	writePayload(t, dir, "garbage.json", `{{{`)

	tests := []struct {
		file  string
		check func(error) bool
	}{
		{"noprov.json", func(err error) bool { return errors.Is(err, ErrMissingProvider) }},
		{"unknown.json", func(err error) bool { return errors.Is(err, providers.ErrUnknownProvider) }},
		{"garbage.json", func(err error) bool { return err != nil }},
		{"absent.json", func(err error) bool { return err != nil }},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			r := LoadFile(filepath.Join(dir, tt.file), nil, time.Now())
			if !tt.check(r.Err) {
				t.Errorf("LoadFile(%s) error = %v", tt.file, r.Err)
			}
		})
	}

	r := LoadFile(filepath.Join(dir, "noprov.json"), nil, time.Now())
	if r.Auth != "noprov" {
		t.Errorf("Auth = %q, want file name fallback", r.Auth)
	}
}

func TestRefresh_KeepsLatestPerAuth(t *testing.T) {
	dir := t.TempDir()
	writePayload(t, dir, "a-old.json", `{"auth":"a","provider":"claude","fetched_at":"2025-01-01T08:00:00Z","payload":{"five_hour":{"utilization":10}}}`)
	writePayload(t, dir, "a-new.json", `{"auth":"a","provider":"claude","fetched_at":"2025-01-01T09:00:00Z","payload":{"five_hour":{"utilization":90}}}`)
	writePayload(t, dir, "b.json", geminiEnvelope)

	svc := newTestService(t, dir)

	r, ok := svc.Get("a")
	if !ok {
		t.Fatal("Get(a) not found")
	}
	if f := *r.Groups[0].RemainingFraction; f < 0.099 || f > 0.101 {
		t.Errorf("fraction = %v, want the newer payload (0.1)", f)
	}
	if len(svc.All()) != 2 {
		t.Errorf("All() has %d entries, want 2", len(svc.All()))
	}
}

func TestRefresh_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	writePayload(t, dir, "b.json", geminiEnvelope)
	svc := newTestService(t, dir)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := svc.Refresh(ctx); err == nil {
		t.Error("Refresh() expected error for cancelled context")
	}
	if _, ok := svc.Get("alice.json"); !ok {
		t.Error("failed refresh must keep the previous cache")
	}
}

func TestWatchPayloadChange(t *testing.T) {
	dir := t.TempDir()
	svc := newTestService(t, dir)
	<-svc.Events()

	writePayload(t, dir, "c.json", geminiEnvelope)

	timeout := time.After(2 * time.Second)
	for {
		select {
		case event := <-svc.Events():
			if event.Type == EventPayloadsUpdated {
				if _, ok := svc.Get("alice.json"); ok {
					return
				}
			}
		case <-timeout:
			t.Fatal("timed out waiting for payload update")
		}
	}
}
