// Package history provides the history tab for viewing recorded group snapshots.
package history

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/authquota/internal/app"
	"github.com/j-veylop/authquota/internal/models"
)

// Source provides recorded snapshots for one group.
type Source interface {
	GetGroupHistory(authName, groupID string, timeRange models.TimeRange) ([]models.GroupSnapshot, error)
}

// keyMap defines the key bindings specific to the history tab.
type keyMap struct {
	ToggleRange key.Binding
	NextGroup   key.Binding
	PrevGroup   key.Binding
}

// defaultKeyMap returns the default key bindings for the history tab.
func defaultKeyMap() keyMap {
	return keyMap{
		ToggleRange: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "toggle time range"),
		),
		NextGroup: key.NewBinding(
			key.WithKeys("n", "l", "right"),
			key.WithHelp("n/→", "next group"),
		),
		PrevGroup: key.NewBinding(
			key.WithKeys("p", "h", "left"),
			key.WithHelp("p/←", "prev group"),
		),
	}
}

// historyLoadedMsg is sent when history data is loaded.
type historyLoadedMsg struct {
	authName  string
	groupID   string
	timeRange models.TimeRange
	snapshots []models.GroupSnapshot
}

// historyErrorMsg is sent when there's an error loading history.
type historyErrorMsg struct {
	err string
}

// Model represents the history tab state.
type Model struct {
	lastRefresh time.Time
	state       *app.State
	source      Source
	snapshots   []models.GroupSnapshot
	stats       models.GroupHistoryStats
	authName    string
	groupID     string
	errorMsg    string
	keys        keyMap
	viewport    viewport.Model
	timeRange   models.TimeRange
	width       int
	height      int
	loading     bool
}

// New creates a new history model.
func New(state *app.State, source Source) *Model {
	return &Model{
		state:     state,
		source:    source,
		keys:      defaultKeyMap(),
		viewport:  viewport.New(0, 0),
		timeRange: models.TimeRange24Hours,
	}
}

// Init initializes the history tab.
func (m *Model) Init() tea.Cmd {
	return nil
}

// loadHistoryCmd creates a command to load the selected group's history.
func (m *Model) loadHistoryCmd() tea.Cmd {
	if m.source == nil {
		return func() tea.Msg { return historyErrorMsg{err: "History store not available"} }
	}

	m.syncSelection()
	if m.authName == "" || m.groupID == "" {
		return nil
	}

	m.loading = true
	source, authName, groupID, timeRange := m.source, m.authName, m.groupID, m.timeRange
	return func() tea.Msg {
		snapshots, err := source.GetGroupHistory(authName, groupID, timeRange)
		if err != nil {
			return historyErrorMsg{err: err.Error()}
		}
		return historyLoadedMsg{
			authName:  authName,
			groupID:   groupID,
			timeRange: timeRange,
			snapshots: snapshots,
		}
	}
}

// syncSelection follows the auth file selected on the dashboard and keeps the
// current group when the view still has it.
func (m *Model) syncSelection() {
	v, ok := m.state.SelectedView()
	if !ok {
		m.authName, m.groupID = "", ""
		return
	}

	name := v.AuthFile.Key()
	if name != m.authName {
		m.authName = name
		m.groupID = ""
	}
	if _, ok := v.Group(m.groupID); ok {
		return
	}
	m.groupID = ""
	if len(v.Groups) > 0 {
		m.groupID = v.Groups[0].ID
	}
}

// cycleGroup moves to the next or previous group of the selected view.
func (m *Model) cycleGroup(delta int) bool {
	v, ok := m.state.SelectedView()
	if !ok || len(v.Groups) == 0 {
		return false
	}

	idx := 0
	for i, g := range v.Groups {
		if g.ID == m.groupID {
			idx = i
			break
		}
	}
	n := len(v.Groups)
	m.groupID = v.Groups[((idx+delta)%n+n)%n].ID
	return true
}

// Update handles messages for the history tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	switch msg := msg.(type) {
	case historyLoadedMsg:
		if msg.authName != m.authName || msg.groupID != m.groupID || msg.timeRange != m.timeRange {
			return m, nil
		}
		m.loading = false
		m.errorMsg = ""
		m.snapshots = msg.snapshots
		m.stats = models.SummarizeHistory(msg.authName, msg.groupID, msg.snapshots)
		m.lastRefresh = time.Now()

	case historyErrorMsg:
		m.loading = false
		m.errorMsg = msg.err
		return m, app.Notify(app.NotificationError, fmt.Sprintf("History error: %s", msg.err))

	case app.TabActivatedMsg:
		if msg.Tab == app.TabHistory {
			return m, m.loadHistoryCmd()
		}

	case app.ViewsLoadedMsg:
		return m, m.loadHistoryCmd()

	case tea.KeyMsg:
		return m, m.handleKeyMsg(msg)
	}

	return m, nil
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.ToggleRange):
		m.timeRange = m.timeRange.Next()
		return m.loadHistoryCmd()

	case key.Matches(msg, m.keys.NextGroup):
		if m.cycleGroup(1) {
			return m.loadHistoryCmd()
		}

	case key.Matches(msg, m.keys.PrevGroup):
		if m.cycleGroup(-1) {
			return m.loadHistoryCmd()
		}

	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return cmd
	}
	return nil
}

// SetSize sets the available size for the history tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = max(width-4, 0)
	m.viewport.Height = max(height-2, 0)
}

// ShortHelp returns key bindings for the help overlay.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{m.keys.ToggleRange, m.keys.NextGroup, m.keys.PrevGroup}
}
