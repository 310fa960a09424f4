package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/authquota/internal/models"
	"github.com/j-veylop/authquota/internal/quota"
	"github.com/j-veylop/authquota/internal/ui/styles"
)

// Badge labels.
const (
	BadgeExhausted    = "EXHAUSTED"
	BadgeNeverRecover = "NEVER RECOVERS"
	BadgeDisabled     = "DISABLED"
	BadgeUnavailable  = "UNAVAILABLE"
)

// BadgeLabels returns the status badges that apply to a view, most severe first.
func BadgeLabels(v models.QuotaView) []string {
	var labels []string
	if v.ExhaustedError || len(v.ExhaustedGroups()) > 0 {
		labels = append(labels, BadgeExhausted)
	}
	if v.NeverRecover {
		labels = append(labels, BadgeNeverRecover)
	}
	if v.AuthFile.Disabled {
		labels = append(labels, BadgeDisabled)
	}
	if v.AuthFile.Unavailable {
		labels = append(labels, BadgeUnavailable)
	}
	return labels
}

// RenderBadges renders the view's badges on one line.
func RenderBadges(v models.QuotaView) string {
	labels := BadgeLabels(v)
	parts := make([]string, 0, len(labels))
	for _, l := range labels {
		parts = append(parts, badgeStyle(l).Render(l))
	}
	return strings.Join(parts, " ")
}

func badgeStyle(label string) lipgloss.Style {
	switch label {
	case BadgeExhausted:
		return styles.BadgeExhaustedStyle
	case BadgeNeverRecover:
		return styles.BadgeNeverRecoverStyle
	case BadgeUnavailable:
		return styles.BadgeUnavailableStyle
	default:
		return styles.BadgeDisabledStyle
	}
}

// RenderTier renders a tier label in its color.
func RenderTier(tier quota.Tier) string {
	if tier == "" {
		tier = quota.TierUnknown
	}
	return styles.GetTierStyle(tier).Render(string(tier))
}

// NewSpinner returns the spinner used while views load.
func NewSpinner() spinner.Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(styles.Primary)
	return s
}
