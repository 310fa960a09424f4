// Package components provides reusable UI components.
package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/j-veylop/authquota/internal/logger"
	"github.com/j-veylop/authquota/internal/quota"
	"github.com/j-veylop/authquota/internal/ui/styles"
)

const (
	barLow  = "#ff6b6b"
	barHigh = "#51cf66"

	percentWidth = 6
	resetWidth   = 8
)

// GroupBar renders one quota group as "label [bar] pct reset".
func GroupBar(g quota.Group, labelWidth, width int, now time.Time) string {
	label := g.Label
	if label == "" {
		label = g.ID
	}
	label = ansi.Truncate(label, labelWidth, "…")
	labelStr := styles.ProgressLabelStyle.Width(labelWidth).Render(label)

	barWidth := max(width-labelWidth-percentWidth-resetWidth-6, 5)

	var bar, pct string
	if g.RemainingFraction == nil {
		bar = lipgloss.NewStyle().Foreground(styles.Subtle).Render(strings.Repeat("·", barWidth))
		pct = styles.QuotaUnknownStyle.Width(percentWidth).Align(lipgloss.Right).Render("?")
	} else {
		percent := *g.RemainingFraction * 100
		bar = RenderGradientBar(percent, barWidth)
		pct = styles.GetQuotaStyle(percent, quota.IsExhausted(g)).
			Width(percentWidth).
			Align(lipgloss.Right).
			Render(fmt.Sprintf("%.0f%%", percent))
	}

	reset := ""
	if g.ResetTime != "" {
		reset = quota.FormatResetTime(g.ResetTime, now)
	}
	resetStr := lipgloss.NewStyle().
		Foreground(styles.TextSecondary).
		Width(resetWidth).
		Align(lipgloss.Right).
		Render(reset)

	return fmt.Sprintf("%s [%s] %s %s", labelStr, bar, pct, resetStr)
}

// RenderGradientBar renders just the bar part with gradient colors.
func RenderGradientBar(percent float64, width int) string {
	if width < 1 {
		return ""
	}

	filled := int(float64(width) * percent / 100)
	filled = min(max(filled, 0), width)

	var b strings.Builder
	for i := 0; i < width; i++ {
		if i < filled {
			t := float64(i) / float64(max(1, width-1))
			color := interpolateColor(barLow, barHigh, t)
			b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render("█"))
		} else {
			b.WriteString(lipgloss.NewStyle().Foreground(styles.Subtle).Render("░"))
		}
	}
	return b.String()
}

func interpolateColor(fromHex, toHex string, t float64) string {
	from := hexToRGB(fromHex)
	to := hexToRGB(toHex)

	r := int(float64(from[0]) + t*(float64(to[0])-float64(from[0])))
	g := int(float64(from[1]) + t*(float64(to[1])-float64(from[1])))
	b := int(float64(from[2]) + t*(float64(to[2])-float64(from[2])))

	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

func hexToRGB(hex string) [3]int {
	hex = strings.TrimPrefix(hex, "#")
	var r, g, b int
	if _, err := fmt.Sscanf(hex, "%02x%02x%02x", &r, &g, &b); err != nil {
		logger.Error("failed to parse hex color", "hex", hex, "error", err)
		return [3]int{0, 0, 0}
	}
	return [3]int{r, g, b}
}
