package components

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/x/ansi"

	"github.com/j-veylop/authquota/internal/models"
	"github.com/j-veylop/authquota/internal/quota"
)

func ptr(f float64) *float64 { return &f }

func TestGroupBar(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		group quota.Group
		want  []string
	}{
		{
			name:  "Known",
			group: quota.Group{ID: "five-hour", Label: "5-Hour Session", RemainingFraction: ptr(0.42), ResetTime: "2025-06-01T14:30:00Z"},
			want:  []string{"5-Hour Session", "42%", "2h30m"},
		},
		{
			name:  "Unknown",
			group: quota.Group{ID: "weekly"},
			want:  []string{"weekly", "?"},
		},
		{
			name:  "Exhausted",
			group: quota.Group{ID: "g", Label: "G", RemainingFraction: ptr(0), ResetTime: "2025-06-01T12:00:30Z"},
			want:  []string{"0%", "< 1m"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view := ansi.Strip(GroupBar(tt.group, 16, 60, now))
			for _, w := range tt.want {
				if !strings.Contains(view, w) {
					t.Errorf("GroupBar() = %q, missing %q", view, w)
				}
			}
		})
	}
}

func TestGroupBar_TruncatesLabel(t *testing.T) {
	g := quota.Group{ID: "x", Label: "A very long group label indeed", RemainingFraction: ptr(1)}
	view := ansi.Strip(GroupBar(g, 10, 60, time.Now()))
	if strings.Contains(view, "indeed") {
		t.Errorf("label should be truncated: %q", view)
	}
}

func TestRenderGradientBar(t *testing.T) {
	tests := []struct {
		percent float64
		width   int
		filled  int
	}{
		{50, 10, 5},
		{0, 10, 0},
		{150, 10, 10},
		{-5, 10, 0},
	}
	for _, tt := range tests {
		bar := ansi.Strip(RenderGradientBar(tt.percent, tt.width))
		if got := strings.Count(bar, "█"); got != tt.filled {
			t.Errorf("RenderGradientBar(%v, %d) filled = %d, want %d", tt.percent, tt.width, got, tt.filled)
		}
		if got := strings.Count(bar, "█") + strings.Count(bar, "░"); got != tt.width {
			t.Errorf("RenderGradientBar(%v, %d) width = %d", tt.percent, tt.width, got)
		}
	}
	if RenderGradientBar(50, 0) != "" {
		t.Error("zero width should render nothing")
	}
}

func TestInterpolateColor(t *testing.T) {
	if got := interpolateColor("#000000", "#ffffff", 0); got != "#000000" {
		t.Errorf("interpolateColor(t=0) = %s", got)
	}
	if got := interpolateColor("#000000", "#ffffff", 1); got != "#ffffff" {
		t.Errorf("interpolateColor(t=1) = %s", got)
	}
	if got := hexToRGB("zz"); got != [3]int{} {
		t.Errorf("hexToRGB(invalid) = %v", got)
	}
}

func TestBadgeLabels(t *testing.T) {
	tests := []struct {
		name string
		view models.QuotaView
		want []string
	}{
		{"None", models.QuotaView{}, nil},
		{
			"ExhaustedGroup",
			models.QuotaView{Groups: []quota.Group{{ID: "g", RemainingFraction: ptr(0)}}},
			[]string{BadgeExhausted},
		},
		{
			"All",
			models.QuotaView{
				ExhaustedError: true,
				NeverRecover:   true,
				AuthFile:       models.AuthFile{Disabled: true, Unavailable: true},
			},
			[]string{BadgeExhausted, BadgeNeverRecover, BadgeDisabled, BadgeUnavailable},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BadgeLabels(tt.view); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("BadgeLabels() = %v, want %v", got, tt.want)
			}
			rendered := ansi.Strip(RenderBadges(tt.view))
			for _, w := range tt.want {
				if !strings.Contains(rendered, w) {
					t.Errorf("RenderBadges() = %q, missing %q", rendered, w)
				}
			}
		})
	}
}

func TestRenderTier(t *testing.T) {
	if got := ansi.Strip(RenderTier("")); got != "UNKNOWN" {
		t.Errorf("RenderTier(\"\") = %q", got)
	}
	if got := ansi.Strip(RenderTier(quota.TierPro)); got != "PRO" {
		t.Errorf("RenderTier(PRO) = %q", got)
	}
}

func TestNewSpinner(t *testing.T) {
	s := NewSpinner()
	if s.View() == "" {
		t.Error("spinner not initialized")
	}
}

func TestRenderPercentChart(t *testing.T) {
	if got := RenderPercentChart(nil, 40, 5, ""); !strings.Contains(got, "No data") {
		t.Errorf("empty chart = %q", got)
	}
	if got := RenderPercentChart([]float64{50}, 40, 5, "single"); got == "" {
		t.Error("single point chart returned empty")
	}
	got := ansi.Strip(RenderPercentChart([]float64{100, 50, 0}, 40, 5, "Remaining %"))
	if !strings.Contains(got, "Remaining %") {
		t.Errorf("chart missing caption: %q", got)
	}
}

func TestRenderSparkline(t *testing.T) {
	got := ansi.Strip(RenderSparkline([]float64{0, 50, 100}, 10))
	if got != "▁▄█" {
		t.Errorf("RenderSparkline() = %q, want ▁▄█", got)
	}
	if RenderSparkline(nil, 10) != "" {
		t.Error("empty sparkline should render nothing")
	}
}
