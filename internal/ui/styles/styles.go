// Package styles defines the visual styling for the application.
package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/authquota/internal/quota"
)

// Color definitions.
var (
	Primary   = lipgloss.Color("205") // Pink
	Secondary = lipgloss.Color("63")  // Purple
	Subtle    = lipgloss.Color("240") // Gray

	// Status colors
	Success = lipgloss.Color("42")  // Green
	Error   = lipgloss.Color("196") // Red
	Warning = lipgloss.Color("220") // Yellow
	Info    = lipgloss.Color("39")  // Blue

	BgDark   = lipgloss.Color("235")
	BgLight  = lipgloss.Color("237")
	BgAccent = lipgloss.Color("236")

	TextPrimary   = lipgloss.Color("252")
	TextSecondary = lipgloss.Color("245")
	TextMuted     = lipgloss.Color("240")

	// ToastStyle for floating notifications.
	ToastStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Primary).
			Padding(0, 1).
			MarginBottom(1)
)

// DocStyle provides consistent document margins.
var DocStyle = lipgloss.NewStyle().
	Padding(1, 2)

// TitleStyle is used for main headings.
var TitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(Primary).
	MarginBottom(1)

// SubTitleStyle is used for section headings.
var SubTitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(Secondary)

// CardStyle creates a bordered card container.
var CardStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(Subtle).
	Padding(0, 1)

// FocusedCardStyle highlights the card holding the selection.
var FocusedCardStyle = CardStyle.
	BorderForeground(Primary)

var (
	HelpStyle     = lipgloss.NewStyle().Foreground(TextMuted)
	HelpKeyStyle  = lipgloss.NewStyle().Foreground(Primary).Bold(true)
	HelpDescStyle = lipgloss.NewStyle().Foreground(TextSecondary)
)

// HelpPanelStyle creates the help overlay panel.
var HelpPanelStyle = lipgloss.NewStyle().
	Border(lipgloss.DoubleBorder()).
	BorderForeground(Primary).
	Padding(1, 3).
	Background(BgDark)

// ListItemStyle styles list items.
var ListItemStyle = lipgloss.NewStyle().
	PaddingLeft(2)

// SelectedListItemStyle styles the selected list item.
var SelectedListItemStyle = lipgloss.NewStyle().
	Foreground(Primary).
	Bold(true)

// ProgressLabelStyle styles quota bar labels.
var ProgressLabelStyle = lipgloss.NewStyle().
	Foreground(TextSecondary)

// Tier styles.
var (
	TierProStyle     = lipgloss.NewStyle().Foreground(Success).Bold(true)
	TierFreeStyle    = lipgloss.NewStyle().Foreground(Warning)
	TierUnknownStyle = lipgloss.NewStyle().Foreground(Subtle)
)

// Quota styles by remaining percentage.
var (
	QuotaHighStyle      = lipgloss.NewStyle().Foreground(Success)
	QuotaMediumStyle    = lipgloss.NewStyle().Foreground(Warning)
	QuotaLowStyle       = lipgloss.NewStyle().Foreground(Error)
	QuotaExhaustedStyle = lipgloss.NewStyle().Foreground(Error).Bold(true).Italic(true)
	QuotaUnknownStyle   = lipgloss.NewStyle().Foreground(Subtle).Italic(true)
)

// BadgeStyle is the base for inline status badges.
var BadgeStyle = lipgloss.NewStyle().
	Padding(0, 1).
	Bold(true).
	Foreground(lipgloss.Color("231"))

// Badge variants.
var (
	BadgeExhaustedStyle    = BadgeStyle.Background(Error)
	BadgeNeverRecoverStyle = BadgeStyle.Background(lipgloss.Color("124"))
	BadgeDisabledStyle     = BadgeStyle.Background(Subtle)
	BadgeUnavailableStyle  = BadgeStyle.Background(lipgloss.Color("130"))
)

var (
	ErrorTextStyle   = lipgloss.NewStyle().Foreground(Error)
	SuccessTextStyle = lipgloss.NewStyle().Foreground(Success)
	WarningTextStyle = lipgloss.NewStyle().Foreground(Warning)
	InfoTextStyle    = lipgloss.NewStyle().Foreground(Info)
)

// GetQuotaStyle returns the style for a remaining percentage.
func GetQuotaStyle(percent float64, exhausted bool) lipgloss.Style {
	if exhausted {
		return QuotaExhaustedStyle
	}
	switch {
	case percent > 50:
		return QuotaHighStyle
	case percent > 20:
		return QuotaMediumStyle
	default:
		return QuotaLowStyle
	}
}

// GetTierStyle returns the style for a tier.
func GetTierStyle(tier quota.Tier) lipgloss.Style {
	switch tier {
	case quota.TierPro:
		return TierProStyle
	case quota.TierFree:
		return TierFreeStyle
	default:
		return TierUnknownStyle
	}
}

// CenterBoth centers content both horizontally and vertically.
func CenterBoth(content string, width, height int) string {
	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center).
		AlignVertical(lipgloss.Center).
		Render(content)
}
