package history

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/j-veylop/authquota/internal/models"
	"github.com/j-veylop/authquota/internal/ui/components"
	"github.com/j-veylop/authquota/internal/ui/styles"
)

const recentRows = 8

// View renders the history tab.
func (m *Model) View() string {
	switch {
	case m.errorMsg != "":
		return m.renderError()
	case m.authName == "" || m.groupID == "":
		return m.renderMessage("Select an auth file with quota groups on the dashboard.")
	case m.loading && !m.stats.HasData():
		return m.renderMessage("Loading history data...")
	case !m.stats.HasData():
		return m.renderEmpty()
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.renderStats(),
		m.renderChart(),
		m.renderRecent(),
	)
	m.viewport.SetContent(content)

	return styles.DocStyle.Render(m.viewport.View())
}

func (m *Model) renderMessage(text string) string {
	return styles.DocStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		styles.TitleStyle.Render("History"),
		styles.HelpStyle.Render(text),
	))
}

func (m *Model) renderError() string {
	return styles.DocStyle.Render(fmt.Sprintf("%s %s",
		styles.ErrorTextStyle.Render("Error:"),
		m.errorMsg,
	))
}

func (m *Model) renderEmpty() string {
	return styles.DocStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		styles.HelpStyle.Render("No snapshots recorded in this range yet."),
		styles.HelpStyle.Render("Snapshots are recorded whenever a new payload is fetched."),
	))
}

func (m *Model) groupLabel() string {
	if v, ok := m.state.SelectedView(); ok {
		if g, ok := v.Group(m.groupID); ok && g.Label != "" {
			return g.Label
		}
	}
	return m.groupID
}

func (m *Model) renderHeader() string {
	name := ansi.Truncate(m.authName, 40, "...")
	title := styles.TitleStyle.Render(fmt.Sprintf("History: %s / %s", name, m.groupLabel()))

	rangeStyle := lipgloss.NewStyle().
		Foreground(styles.Primary).
		Bold(true).
		Padding(0, 1).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(styles.Primary)
	rangeIndicator := rangeStyle.Render(fmt.Sprintf("[t] %s", m.timeRange.String()))

	header := lipgloss.JoinHorizontal(lipgloss.Center, title, "  ", rangeIndicator)

	var subtitle string
	if m.stats.HasData() {
		subtitle = styles.HelpStyle.Render(fmt.Sprintf("Data: %s → %s (%d points)",
			m.stats.FirstDataPoint.Local().Format("Jan 2 15:04"),
			m.stats.LastDataPoint.Local().Format("Jan 2 15:04"),
			m.stats.DataPoints,
		))
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, subtitle, "")
}

func (m *Model) renderStats() string {
	cardWidth := max(m.width-6, 40)
	s := m.stats

	pct := func(f float64) string {
		p := f * 100
		return styles.GetQuotaStyle(p, f <= 0).Render(fmt.Sprintf("%.0f%%", p))
	}

	rows := []string{
		styles.SubTitleStyle.Render("Remaining"),
		"",
		fmt.Sprintf("  Current %s   Min %s   Max %s   Avg %s", pct(s.Current), pct(s.Min), pct(s.Max), pct(s.Avg)),
	}

	exhaustions := fmt.Sprintf("  Exhausted %d times", s.Exhaustions)
	if !s.LastExhaustedAt.IsZero() {
		exhaustions += ", last " + s.LastExhaustedAt.Local().Format("Jan 2 15:04")
	}
	rows = append(rows, exhaustions)

	if trend := components.RenderSparkline(models.Percentages(m.snapshots), cardWidth-14); trend != "" {
		rows = append(rows, "  Trend     "+trend)
	}

	return styles.CardStyle.Width(cardWidth).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) renderChart() string {
	cardWidth := max(m.width-6, 40)

	chart := components.RenderPercentChart(
		models.Percentages(m.snapshots),
		max(cardWidth-12, 30),
		8,
		fmt.Sprintf("Remaining %% over %s", m.timeRange.String()),
	)

	rows := []string{styles.SubTitleStyle.Render("Remaining Quota"), ""}
	for _, line := range strings.Split(chart, "\n") {
		rows = append(rows, "  "+line)
	}

	return styles.CardStyle.Width(cardWidth).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) renderRecent() string {
	cardWidth := max(m.width-6, 40)
	rows := []string{styles.SubTitleStyle.Render("Recent Snapshots"), ""}

	start := max(len(m.snapshots)-recentRows, 0)
	for i := len(m.snapshots) - 1; i >= start; i-- {
		s := m.snapshots[i]
		value := styles.QuotaUnknownStyle.Render("?")
		if s.RemainingFraction != nil {
			p := *s.RemainingFraction * 100
			value = styles.GetQuotaStyle(p, p <= 0).Render(fmt.Sprintf("%5.1f%%", p))
		}
		reset := ""
		if s.ResetTime != "" {
			reset = styles.HelpStyle.Render("resets " + s.ResetTime)
		}
		rows = append(rows, fmt.Sprintf("  %s  %s  %s", s.Timestamp.Local().Format("Jan 2 15:04:05"), value, reset))
	}

	return styles.CardStyle.Width(cardWidth).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
