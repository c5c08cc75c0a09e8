package detail

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mqnguyen/collab-notify/internal/keys"
	"github.com/mqnguyen/collab-notify/internal/model"
	"github.com/mqnguyen/collab-notify/internal/theme"
)

// BackMsg signals the parent to navigate back to the list view.
type BackMsg struct{}

// Model is the notification detail view. The parent marks the
// notification read before handing it over, so what renders here is
// always current store state.
type Model struct {
	notification *model.Notification
	viewport     viewport.Model
	keys         *keys.KeyMap
	width        int
	height       int
}

// New creates a new detail view model.
func New(keys *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	return Model{
		viewport: vp,
		keys:     keys,
		width:    width,
		height:   height,
	}
}

// SetNotification loads a notification into the view.
func (m *Model) SetNotification(n model.Notification) {
	m.notification = &n
	m.viewport.SetContent(m.renderContent())
	m.viewport.GotoTop()
}

// Init returns the initial command for the detail view.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if key.Matches(keyMsg, m.keys.Back) {
			return m, func() tea.Msg {
				return BackMsg{}
			}
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the detail panel.
func (m Model) View() string {
	if m.notification == nil {
		return theme.DetailPanelStyle.
			Width(m.width - 4).
			Render("Nothing selected.")
	}

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Height(m.height - 4).
		Render(m.viewport.View())
}

// renderContent builds the scrollable detail text.
func (m Model) renderContent() string {
	n := m.notification
	if n == nil {
		return ""
	}

	var b strings.Builder

	title := n.Title
	if n.Priority == model.PriorityElevated {
		title = theme.ElevatedStyle.Render("! ") + title
	}
	b.WriteString(lipgloss.NewStyle().Bold(true).Render(title))
	b.WriteString("\n\n")

	meta := fmt.Sprintf(
		"%s %s  from %s  %s",
		theme.TypeIcon(n.Type),
		theme.TypeStyle(n.Type).Render(string(n.Type)),
		n.Sender,
		n.Timestamp.Local().Format("Mon, Jan 02 2006 15:04"),
	)
	b.WriteString(theme.HelpStyle.Render(meta))
	b.WriteString("\n\n")

	b.WriteString(n.Content)

	if n.ActionURL != "" {
		b.WriteString("\n\n")
		b.WriteString(lipgloss.NewStyle().
			Foreground(theme.ColorBlue).
			Underline(true).
			Render("→ " + n.ActionURL))
	}

	return b.String()
}

// SetSize updates the detail view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width - 4
	m.viewport.Height = height - 4
	if m.notification != nil {
		m.viewport.SetContent(m.renderContent())
	}
}
