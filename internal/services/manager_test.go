package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/j-veylop/authquota/internal/config"
	"github.com/j-veylop/authquota/internal/models"
	"github.com/j-veylop/authquota/internal/quota"
	"github.com/j-veylop/authquota/internal/services/payloads"
)

func ptr(f float64) *float64 { return &f }

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	tmpDir := t.TempDir()
	return &config.Config{
		Rules:        config.DefaultRules(),
		AuthDir:      filepath.Join(tmpDir, "auths"),
		PayloadDir:   filepath.Join(tmpDir, "payloads"),
		DatabasePath: filepath.Join(tmpDir, "history.db"),
	}
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o750); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
}

const claudePayload = `{
	"auth": "alice",
	"provider": "claude",
	"fetched_at": "2025-06-01T12:00:00Z",
	"payload": {"five_hour": {"utilization": 25, "resets_at": "2025-06-01T15:00:00Z"}}
}`

func TestNewManager(t *testing.T) {
	cfg := testConfig(t)
	writeFile(t, cfg.AuthDir, "alice.json", `{"name": "alice", "type": "claude", "email": "alice@example.com"}`)
	writeFile(t, cfg.PayloadDir, "alice.json", claudePayload)

	mgr, err := NewManager(cfg)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	defer mgr.Close()

	views := mgr.Views()
	if len(views) != 1 {
		t.Fatalf("Views() returned %d views, want 1", len(views))
	}
	g, ok := views[0].Group("five-hour")
	if !ok {
		t.Fatalf("five-hour group missing: %+v", views[0].Groups)
	}
	if g.RemainingFraction == nil || *g.RemainingFraction != 0.75 {
		t.Errorf("five-hour fraction = %v, want 0.75", g.RemainingFraction)
	}

	history, err := mgr.GetGroupHistory("alice", "five-hour", models.TimeRangeAllTime)
	if err != nil {
		t.Fatalf("GetGroupHistory failed: %v", err)
	}
	if len(history) != 1 {
		t.Errorf("expected one recorded snapshot, got %d", len(history))
	}

	stats := mgr.GetStats()
	if stats.AuthFiles != 1 || stats.WithQuota != 1 || stats.Exhausted != 0 {
		t.Errorf("GetStats() = %+v", stats)
	}
}

func TestNewManager_BadDatabasePath(t *testing.T) {
	cfg := testConfig(t)
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, nil, 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	cfg.DatabasePath = filepath.Join(blocker, "history.db")

	if _, err := NewManager(cfg); err == nil {
		t.Error("NewManager should fail when the database cannot be created")
	}
}

func TestManager_RefreshRecordsOnlyNewPayloads(t *testing.T) {
	cfg := testConfig(t)
	writeFile(t, cfg.AuthDir, "alice.json", `{"name": "alice", "type": "claude"}`)
	writeFile(t, cfg.PayloadDir, "alice.json", claudePayload)

	mgr, err := NewManager(cfg)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	defer mgr.Close()

	if err := mgr.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	history, _ := mgr.GetGroupHistory("alice", "five-hour", models.TimeRangeAllTime)
	if len(history) != 1 {
		t.Errorf("unchanged payload recorded %d times, want 1", len(history))
	}
}

func TestManager_WatchesPayloads(t *testing.T) {
	cfg := testConfig(t)
	writeFile(t, cfg.AuthDir, "bob.json", `{"name": "bob", "type": "codex"}`)

	mgr, err := NewManager(cfg)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	defer mgr.Close()

	ch, _ := mgr.Subscribe()

	writeFile(t, cfg.PayloadDir, "bob.json", `{
		"auth": "bob",
		"provider": "codex",
		"payload": {"rate_limit": {"primary_window": {"used_percent": 40}}}
	}`)

	timeout := time.After(3 * time.Second)
	for {
		select {
		case ev := <-ch:
			changed, ok := ev.(ViewsChangedEvent)
			if !ok || len(changed.Views) != 1 || !changed.Views[0].HasGroups() {
				continue
			}
			if changed.RefreshID == "" {
				t.Error("ViewsChangedEvent should carry a refresh id")
			}
			return
		case <-timeout:
			t.Fatal("timeout waiting for views with groups")
		}
	}
}

func TestBuildViews(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	files := []models.AuthFile{
		{Name: "alice.json", Provider: "antigravity"},
		{ID: "id-2", Name: "bob", LastError: &quota.LastError{HTTPStatus: 429, Message: "RESOURCE_EXHAUSTED"}},
		{Name: "carol", Quota: &quota.QuotaStatus{Exceeded: true, NextRecoverAt: "0001-01-01T00:00:00Z"}},
	}
	results := map[string]payloads.Result{
		"alice": {
			FetchedAt: now,
			Groups: []quota.Group{
				{ID: "claude-merged", RemainingFraction: ptr(0.5), ResetTime: "2025-06-01T14:00:00Z"},
			},
		},
		"id-2": {Err: errors.New("boom")},
	}

	views := BuildViews(files, results, now)
	if len(views) != 3 {
		t.Fatalf("BuildViews returned %d views, want 3", len(views))
	}

	if !views[0].HasGroups() || views[0].Tier != quota.TierPro || !views[0].FetchedAt.Equal(now) {
		t.Errorf("alice view = %+v", views[0])
	}
	if views[1].PayloadError != "boom" || !views[1].ExhaustedError {
		t.Errorf("bob view = %+v", views[1])
	}
	if views[1].Tier != quota.TierUnknown {
		t.Errorf("bob tier = %v, want UNKNOWN", views[1].Tier)
	}
	if !views[2].NeverRecover || views[2].HasGroups() {
		t.Errorf("carol view = %+v", views[2])
	}
}

type notification struct {
	title string
	body  string
}

func TestManager_CheckNotifications(t *testing.T) {
	var sent []notification
	m := &Manager{
		exhausted: make(map[string]bool),
		now:       func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) },
		notify: func(title, body string) error {
			sent = append(sent, notification{title, body})
			return nil
		},
	}

	view := func(fraction *float64) []models.QuotaView {
		return []models.QuotaView{{
			AuthFile: models.AuthFile{Name: "alice", Email: "alice@example.com"},
			Groups: []quota.Group{{
				ID:                "five-hour",
				Label:             "5-Hour Session",
				RemainingFraction: fraction,
				ResetTime:         "2025-06-01T14:30:00Z",
			}},
		}}
	}

	m.checkNotifications(view(ptr(0)))
	if len(sent) != 0 {
		t.Fatalf("first observation should not notify, got %+v", sent)
	}

	m.checkNotifications(view(ptr(0.5)))
	m.checkNotifications(view(ptr(0)))
	m.checkNotifications(view(nil))
	m.checkNotifications(view(ptr(0)))

	if len(sent) != 2 {
		t.Fatalf("expected 2 notifications, got %+v", sent)
	}
	if sent[0].title != "Quota Recovered: alice@example.com" || sent[0].body != "5-Hour Session is back at 50%." {
		t.Errorf("recovered notification = %+v", sent[0])
	}
	if sent[1].title != "Quota Exhausted: alice@example.com" || sent[1].body != "5-Hour Session has no remaining quota. Resets in 2h30m." {
		t.Errorf("exhausted notification = %+v", sent[1])
	}
}

func TestManager_Subscription(t *testing.T) {
	m := &Manager{}

	ch, cmd := m.Subscribe()
	if cmd == nil {
		t.Fatal("Subscribe should return a command")
	}

	m.broadcast(StatsEvent{AuthFiles: 3})

	msg := cmd()
	if stats, ok := msg.(StatsEvent); !ok || stats.AuthFiles != 3 {
		t.Errorf("cmd() = %#v, want StatsEvent{AuthFiles: 3}", msg)
	}

	m.Unsubscribe(ch)
	if _, open := <-ch; open {
		t.Error("Unsubscribe should close the channel")
	}
	if len(m.subscribers) != 0 {
		t.Errorf("subscribers = %d, want 0", len(m.subscribers))
	}
}

func TestWaitForEvent(t *testing.T) {
	ch := make(chan ServiceEvent, 1)
	ch <- StatsEvent{}

	cmd := WaitForEvent(ch)
	msg := cmd()
	if msg == nil {
		t.Error("WaitForEvent cmd returned nil msg")
	}
}

func TestServiceEvent_Interface(t *testing.T) {
	var _ ServiceEvent = ViewsChangedEvent{}
	var _ ServiceEvent = ErrorEvent{}
	var _ ServiceEvent = StatsEvent{}
}

func TestManager_Close(t *testing.T) {
	mgr, err := NewManager(testConfig(t))
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	if err := mgr.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	if err := mgr.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
}
