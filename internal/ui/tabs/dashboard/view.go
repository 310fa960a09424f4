package dashboard

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/j-veylop/authquota/internal/models"
	"github.com/j-veylop/authquota/internal/ui/components"
	"github.com/j-veylop/authquota/internal/ui/styles"
)

const groupLabelWidth = 22

// View renders the dashboard.
func (m *Model) View() string {
	if m.state.IsLoading() {
		return styles.CenterBoth(m.spinner.View()+" Loading auth files...", m.width, m.height)
	}

	views := m.state.Views()
	if len(views) == 0 {
		return m.renderEmpty()
	}

	now := m.now()
	selected := m.state.SelectedIndex()
	cardWidth := max(m.width-6, 40)

	sections := []string{m.renderTitle(views)}
	selectedLine := 0
	for i := range views {
		if i == selected {
			selectedLine = lipgloss.Height(lipgloss.JoinVertical(lipgloss.Left, sections...))
		}
		sections = append(sections, m.renderCard(&views[i], i == selected, cardWidth, now))
	}

	m.viewport.SetContent(lipgloss.JoinVertical(lipgloss.Left, sections...))
	m.scrollTo(selectedLine)

	return styles.DocStyle.Render(m.viewport.View())
}

// scrollTo keeps the given content line inside the viewport.
func (m *Model) scrollTo(line int) {
	switch {
	case line < m.viewport.YOffset:
		m.viewport.SetYOffset(line)
	case m.viewport.Height > 0 && line >= m.viewport.YOffset+m.viewport.Height:
		m.viewport.SetYOffset(line - m.viewport.Height + 3)
	}
}

func (m *Model) renderEmpty() string {
	content := lipgloss.JoinVertical(lipgloss.Left,
		styles.TitleStyle.Render("Quota"),
		styles.HelpStyle.Render("No auth files found."),
		styles.InfoTextStyle.Render("  ╰─▶ Drop provider auth files into the auth directory"),
	)
	return styles.DocStyle.Render(content)
}

func (m *Model) renderTitle(views []models.QuotaView) string {
	title := styles.TitleStyle.Render("Quota")
	exhausted := 0
	for i := range views {
		if views[i].ExhaustedError || len(views[i].ExhaustedGroups()) > 0 {
			exhausted++
		}
	}
	subtitle := styles.HelpStyle.Render(fmt.Sprintf("%d auth files", len(views)))
	if exhausted > 0 {
		subtitle += styles.HelpStyle.Render(" · ") + styles.ErrorTextStyle.Render(fmt.Sprintf("%d exhausted", exhausted))
	}
	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle)
}

func (m *Model) renderCard(v *models.QuotaView, selected bool, width int, now time.Time) string {
	lines := []string{m.renderHeader(v, selected, width-4)}

	if msg := v.AuthFile.StatusMessage; msg != "" {
		lines = append(lines, styles.HelpStyle.Render(ansi.Truncate(msg, width-4, "…")))
	}
	if v.PayloadError != "" {
		lines = append(lines, styles.ErrorTextStyle.Render(ansi.Truncate("payload: "+v.PayloadError, width-4, "…")))
	}

	lines = append(lines, "")
	if v.HasGroups() {
		for _, g := range v.Groups {
			lines = append(lines, components.GroupBar(g, groupLabelWidth, width-4, now))
		}
	} else {
		lines = append(lines, styles.QuotaUnknownStyle.Render("No quota data"))
	}

	if !v.FetchedAt.IsZero() {
		lines = append(lines, "", styles.HelpStyle.Render("fetched "+formatAge(now.Sub(v.FetchedAt))))
	}

	card := styles.CardStyle
	if selected {
		card = styles.FocusedCardStyle
	}
	return card.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (m *Model) renderHeader(v *models.QuotaView, selected bool, width int) string {
	indicator := lipgloss.NewStyle().Foreground(styles.Subtle).Render("○ ")
	nameStyle := styles.SubTitleStyle
	if selected {
		indicator = lipgloss.NewStyle().Foreground(styles.Primary).Render("● ")
		nameStyle = styles.SelectedListItemStyle
	}

	meta := []string{
		styles.HelpStyle.Render(v.AuthFile.Provider),
		components.RenderTier(v.Tier),
	}
	if lowest, ok := v.LowestFraction(); ok {
		pct := lowest * 100
		meta = append(meta, styles.GetQuotaStyle(pct, lowest <= 0).Render(fmt.Sprintf("min %.0f%%", pct)))
	}
	if badges := components.RenderBadges(*v); badges != "" {
		meta = append(meta, badges)
	}
	right := strings.Join(meta, " ")

	nameWidth := max(width-lipgloss.Width(right)-4, 8)
	name := nameStyle.Render(ansi.Truncate(v.AuthFile.DisplayName(), nameWidth, "…"))

	gap := max(width-lipgloss.Width(indicator)-lipgloss.Width(name)-lipgloss.Width(right), 1)
	return indicator + name + strings.Repeat(" ", gap) + right
}

// formatAge renders how long ago something happened.
func formatAge(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
