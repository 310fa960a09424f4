// Package dashboard provides the quota overview tab.
package dashboard

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/authquota/internal/app"
	"github.com/j-veylop/authquota/internal/ui/components"
)

// keyMap defines the key bindings specific to the dashboard tab.
type keyMap struct {
	Next  key.Binding
	Prev  key.Binding
	First key.Binding
	Last  key.Binding
}

// defaultKeyMap returns the default key bindings for the dashboard tab.
func defaultKeyMap() keyMap {
	return keyMap{
		Next: key.NewBinding(
			key.WithKeys("j", "down", "n"),
			key.WithHelp("j/↓", "next auth file"),
		),
		Prev: key.NewBinding(
			key.WithKeys("k", "up", "p"),
			key.WithHelp("k/↑", "prev auth file"),
		),
		First: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "first"),
		),
		Last: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "last"),
		),
	}
}

// Model represents the dashboard tab state.
type Model struct {
	state    *app.State
	now      func() time.Time
	spinner  spinner.Model
	keys     keyMap
	viewport viewport.Model
	width    int
	height   int
}

// New creates a new dashboard model.
func New(state *app.State) *Model {
	return &Model{
		state:    state,
		now:      time.Now,
		spinner:  components.NewSpinner(),
		keys:     defaultKeyMap(),
		viewport: viewport.New(0, 0),
	}
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles messages and updates the model.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m, m.handleKeyMsg(msg)

	case spinner.TickMsg:
		if !m.state.IsLoading() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) tea.Cmd {
	count := m.state.ViewCount()
	if count == 0 {
		return nil
	}
	selected := m.state.SelectedIndex()

	switch {
	case key.Matches(msg, m.keys.Next):
		m.state.Select((selected + 1) % count)
	case key.Matches(msg, m.keys.Prev):
		m.state.Select((selected - 1 + count) % count)
	case key.Matches(msg, m.keys.First):
		m.state.Select(0)
	case key.Matches(msg, m.keys.Last):
		m.state.Select(count - 1)
	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return cmd
	}

	idx := m.state.SelectedIndex()
	return func() tea.Msg { return app.SelectionChangedMsg{Index: idx} }
}

// SetSize sets the available size for the dashboard.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = max(width-4, 0)
	m.viewport.Height = max(height-2, 0)
}

// ShortHelp returns the key bindings for the help overlay.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{m.keys.Next, m.keys.Prev, m.keys.First, m.keys.Last}
}
