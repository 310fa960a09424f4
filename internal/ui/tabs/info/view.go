package info

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/authquota/internal/config"
	"github.com/j-veylop/authquota/internal/providers"
	"github.com/j-veylop/authquota/internal/ui/styles"
	"github.com/j-veylop/authquota/internal/version"
)

// View renders the info tab.
func (m *Model) View() string {
	sections := []string{m.renderTitle()}
	if m.showRules {
		sections = append(sections, m.renderRulesSource())
	} else {
		sections = append(sections, m.renderConfigCard(), m.renderRulesCard(), m.renderAboutCard())
	}

	m.viewport.SetContent(lipgloss.JoinVertical(lipgloss.Left, sections...))

	return styles.DocStyle.Render(m.viewport.View())
}

func (m *Model) cardWidth() int {
	return min(max(m.width-6, 50), 90)
}

func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("Info")
	subtitle := styles.HelpStyle.Render("Configuration, grouping rules and build information")
	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

func (m *Model) renderConfigCard() string {
	rows := []string{styles.SubTitleStyle.Render("Configuration"), ""}

	if m.config != nil {
		notify := "off"
		if m.config.Notifications {
			notify = "on"
		}
		rows = append(rows,
			renderRow("Auth Directory", m.config.AuthDir),
			renderRow("Payload Directory", m.config.PayloadDir),
			renderRow("Database", m.config.DatabasePath),
			renderRow("Rules File", m.config.RulesPath),
			renderRow("Log File", fmt.Sprintf("%s (%s)", m.config.LogFile, m.config.LogLevel)),
			renderRow("Refresh Interval", m.config.RefreshInterval.String()),
			renderRow("Notifications", notify),
		)
	} else {
		rows = append(rows, styles.HelpStyle.Render("Configuration not loaded"))
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) rules() *config.Rules {
	if m.config != nil && m.config.Rules != nil {
		return m.config.Rules
	}
	return config.DefaultRules()
}

func (m *Model) renderRulesCard() string {
	rules := m.rules()
	rows := []string{styles.SubTitleStyle.Render("Grouping Rules"), ""}

	family := rules.FamilyRule()
	if family.Prefix != "" {
		rows = append(rows, renderRow("Family Merge", fmt.Sprintf("%s* → %s (%s)", family.Prefix, family.GroupID, family.Label)))
	} else {
		rows = append(rows, renderRow("Family Merge", "disabled"))
	}

	ignored := "none"
	if len(rules.IgnoredModels) > 0 {
		ignored = strings.Join(rules.IgnoredModels, ", ")
	}
	rows = append(rows, renderRow("Ignored Models", ignored), "")

	for _, name := range providers.Names() {
		p := rules.Provider(name)
		mode := p.Mode
		if mode == "" {
			mode = config.ModeBuilder
		}
		detail := mode
		if mode == config.ModeGrouper {
			detail = fmt.Sprintf("%s, %d groups", mode, len(p.Groups))
		}
		rows = append(rows, renderRow(name, detail))
	}

	rows = append(rows, "", styles.HelpStyle.Render("Press 'e' to view the effective rules file"))

	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) renderRulesSource() string {
	rows := []string{styles.SubTitleStyle.Render("Effective Rules"), ""}

	b, err := m.rules().Encode()
	if err != nil {
		rows = append(rows, styles.ErrorTextStyle.Render(err.Error()))
	} else {
		rows = append(rows, strings.TrimRight(string(b), "\n"))
	}

	rows = append(rows, "", styles.HelpStyle.Render("Press 'e' to go back"))

	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) renderAboutCard() string {
	rows := []string{
		styles.SubTitleStyle.Render("About authquota"),
		"",
		renderRow("Version", version.GetVersion()),
		renderRow("Git Commit", version.GetCommit()),
		renderRow("Build Date", version.GetDate()),
		renderRow("Go Version", runtime.Version()),
		renderRow("Platform", fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)),
		"",
		fmt.Sprintf("Auth files: %s", styles.InfoTextStyle.Render(fmt.Sprintf("%d", m.state.ViewCount()))),
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// renderRow renders a key-value row.
func renderRow(label, value string) string {
	labelStyle := lipgloss.NewStyle().
		Width(20).
		Foreground(styles.TextMuted)

	valueStyle := lipgloss.NewStyle().
		Foreground(styles.TextPrimary)

	return labelStyle.Render(label+":") + " " + valueStyle.Render(value)
}
