package main

import (
	"bytes"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/samber/lo"

	"github.com/j-veylop/authquota/internal/db"
	"github.com/j-veylop/authquota/internal/models"
	"github.com/j-veylop/authquota/internal/quota"
)

const claudeFixture = "../../internal/providers/testdata/claude.json"

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return ansi.Strip(out.String()), err
}

func writeEnvelope(t *testing.T, env map[string]any) string {
	t.Helper()
	payload, err := os.ReadFile(claudeFixture)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	env["payload"] = json.RawMessage(payload)
	b, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	path := filepath.Join(t.TempDir(), "envelope.json")
	if err := os.WriteFile(path, b, 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestGroups_RawProviderJSON(t *testing.T) {
	out, err := execute(t, "groups", "--provider", "Anthropic", "--json", claudeFixture)
	if err != nil {
		t.Fatalf("groups error = %v\n%s", err, out)
	}

	var got groupsOutput
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if got.Provider != "claude" {
		t.Errorf("Provider = %q, want claude", got.Provider)
	}

	wantIDs := []string{"five-hour", "seven-day", "seven-day-sonnet"}
	ids := lo.Map(got.Groups, func(g quota.Group, _ int) string { return g.ID })
	if strings.Join(ids, ",") != strings.Join(wantIDs, ",") {
		t.Fatalf("group ids = %v, want %v", ids, wantIDs)
	}
	if f := got.Groups[0].RemainingFraction; f == nil || math.Abs(*f-0.75) > 1e-9 {
		t.Errorf("five-hour fraction = %v, want 0.75", f)
	}
}

func TestGroups_Envelope(t *testing.T) {
	path := writeEnvelope(t, map[string]any{
		"auth":       "work.json",
		"provider":   "claude",
		"fetched_at": "2025-01-01T12:00:00Z",
	})

	out, err := execute(t, "groups", path)
	if err != nil {
		t.Fatalf("groups error = %v\n%s", err, out)
	}
	for _, want := range []string{"work.json (claude)", "5-Hour Session", "75%", "Weekly Sonnet", "55%"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestGroups_Stdin(t *testing.T) {
	payload, err := os.ReadFile(claudeFixture)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(bytes.NewReader(payload))
	cmd.SetArgs([]string{"groups", "-p", "claude", "-"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("groups error = %v", err)
	}
	if !strings.Contains(ansi.Strip(out.String()), "5-Hour Session") {
		t.Errorf("stdin payload not decoded:\n%s", out.String())
	}
}

func TestGroups_Errors(t *testing.T) {
	noProvider := writeEnvelope(t, map[string]any{"auth": "work.json"})

	tests := []struct {
		name string
		args []string
	}{
		{"MissingProvider", []string{"groups", noProvider}},
		{"UnknownProvider", []string{"groups", "--provider", "nope", claudeFixture}},
		{"MissingFile", []string{"groups", filepath.Join(t.TempDir(), "missing.json")}},
		{"NoArgs", []string{"groups"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := execute(t, tt.args...); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestRules(t *testing.T) {
	out, err := execute(t, "rules", "--rules", filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("rules error = %v", err)
	}
	for _, want := range []string{"ignored_models", "claude-merged"} {
		if !strings.Contains(out, want) {
			t.Errorf("rules output missing %q:\n%s", want, out)
		}
	}
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version error = %v", err)
	}
	if !strings.HasPrefix(out, "authquota ") {
		t.Errorf("version output = %q", out)
	}
}

func seedHistory(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "history.db")
	database, err := db.New(path)
	if err != nil {
		t.Fatalf("db.New() error = %v", err)
	}
	defer func() { _ = database.Close() }()

	view := models.QuotaView{AuthFile: models.AuthFile{Name: "work.json", Provider: "claude"}}
	now := time.Now()
	for i, f := range []float64{0.9, 0.4, 0.75} {
		view.Groups = []quota.Group{{ID: "five-hour", Label: "5-Hour Session", RemainingFraction: lo.ToPtr(f)}}
		at := now.Add(time.Duration(i-3) * time.Hour)
		if _, err := database.InsertGroupSnapshots("r"+string(rune('0'+i)), view, at); err != nil {
			t.Fatalf("InsertGroupSnapshots() error = %v", err)
		}
	}
	return path
}

func TestHistory(t *testing.T) {
	path := seedHistory(t)

	out, err := execute(t, "history", "--db", path, "work.json", "five-hour")
	if err != nil {
		t.Fatalf("history error = %v\n%s", err, out)
	}
	for _, want := range []string{"work.json / five-hour (24 Hours)", "current 75%", "min 40%", "max 90%"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	out, err = execute(t, "history", "--db", path, "work.json", "seven-day")
	if err != nil {
		t.Fatalf("history error = %v", err)
	}
	if !strings.Contains(out, "No snapshots recorded") {
		t.Errorf("empty group output = %q", out)
	}
}

func TestHistory_List(t *testing.T) {
	path := seedHistory(t)

	out, err := execute(t, "history", "--db", path, "--list")
	if err != nil {
		t.Fatalf("history --list error = %v", err)
	}
	if !strings.Contains(out, "work.json") || !strings.Contains(out, "five-hour (5-Hour Session)") {
		t.Errorf("list output = %q", out)
	}
}

func TestHistory_Args(t *testing.T) {
	path := seedHistory(t)

	tests := []struct {
		name string
		args []string
	}{
		{"MissingGroup", []string{"history", "--db", path, "work.json"}},
		{"ListWithArgs", []string{"history", "--db", path, "--list", "work.json"}},
		{"BadRange", []string{"history", "--db", path, "--range", "1y", "work.json", "five-hour"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := execute(t, tt.args...); err == nil {
				t.Error("expected error")
			}
		})
	}
}
