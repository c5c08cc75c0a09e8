package notiflist

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/paginator"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mqnguyen/collab-notify/internal/keys"
	"github.com/mqnguyen/collab-notify/internal/model"
	"github.com/mqnguyen/collab-notify/internal/theme"
	"github.com/mqnguyen/collab-notify/internal/view"
)

// SelectedMsg is sent when the user opens a notification.
type SelectedMsg struct {
	ID string
}

// MarkAllReadMsg is sent when the user requests mark-all-read.
type MarkAllReadMsg struct{}

// Model is the notification list view: filter, search, and pagination
// state over a store snapshot. Notification data itself is never owned
// here; every change signal replaces the snapshot wholesale.
type Model struct {
	items []model.Notification

	keys        *keys.KeyMap
	filterIdx   int
	search      string
	searchMode  bool
	searchInput textinput.Model
	page        int // 1-based
	pageSize    int
	cursor      int // index into the current page's flattened items
	paginator   paginator.Model
	width       int
	height      int
}

// filters is the cycle order for the tab key: all, unread, then each
// known type.
var filters = buildFilterCycle()

func buildFilterCycle() []view.Filter {
	fs := []view.Filter{view.FilterAll, view.FilterUnread}
	for _, t := range model.KnownTypes {
		fs = append(fs, view.TypeFilter(t))
	}
	return fs
}

// New creates a notification list model.
func New(k *keys.KeyMap, pageSize, width, height int) Model {
	si := textinput.New()
	si.Placeholder = "search notifications..."
	si.Prompt = "/ "
	si.Width = width - 4

	p := paginator.New()
	p.Type = paginator.Dots
	p.ActiveDot = lipgloss.NewStyle().Foreground(theme.ColorBlue).Render("•")
	p.InactiveDot = lipgloss.NewStyle().Foreground(theme.ColorSubtle).Render("•")

	return Model{
		keys:        k,
		page:        1,
		pageSize:    pageSize,
		searchInput: si,
		paginator:   p,
		width:       width,
		height:      height,
	}
}

// SetItems replaces the snapshot. Called on every store change signal
// so the view is always re-derived from current state.
func (m *Model) SetItems(items []model.Notification) {
	m.items = items
	m.clamp()
}

// Filter returns the active filter.
func (m Model) Filter() view.Filter {
	return filters[m.filterIdx]
}

// FilterSummary describes the active filter and search term for the
// status bar; empty when nothing is narrowed.
func (m Model) FilterSummary() string {
	var parts []string
	if f := m.Filter(); f != view.FilterAll {
		parts = append(parts, "filter: "+string(f))
	}
	if m.search != "" {
		parts = append(parts, fmt.Sprintf("search: %q", m.search))
	}
	if len(parts) == 0 {
		return ""
	}
	out := parts[0]
	for _, p := range parts[1:] {
		out += " | " + p
	}
	return out
}

// Searching reports whether the search input owns the keyboard.
func (m Model) Searching() bool {
	return m.searchMode
}

// SelectedID returns the id under the cursor, if any.
func (m Model) SelectedID() (string, bool) {
	flat := m.flattened()
	if m.cursor < 0 || m.cursor >= len(flat) {
		return "", false
	}
	return flat[m.cursor].ID, true
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the notification list view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		if m.searchMode {
			return m.handleSearchKeys(key)
		}
		return m.handleNormalKeys(key)
	}
	return m, nil
}

// handleSearchKeys processes key input while in search mode.
func (m Model) handleSearchKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searchMode = false
		m.search = m.searchInput.Value()
		// A new search always starts over on page 1.
		m.page = 1
		m.cursor = 0
		m.clamp()
		return m, nil

	case "esc":
		m.searchMode = false
		m.searchInput.Reset()
		m.search = ""
		m.page = 1
		m.cursor = 0
		m.clamp()
		return m, nil
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

// handleNormalKeys processes key input in normal (non-search) mode.
func (m Model) handleNormalKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Down):
		flat := m.flattened()
		if m.cursor < len(flat)-1 {
			m.cursor++
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case key.Matches(msg, m.keys.NextPage):
		if m.page < m.derive().Pages {
			m.page++
			m.cursor = 0
		}
		return m, nil

	case key.Matches(msg, m.keys.PrevPage):
		if m.page > 1 {
			m.page--
			m.cursor = 0
		}
		return m, nil

	case key.Matches(msg, m.keys.Select):
		if id, ok := m.SelectedID(); ok {
			return m, func() tea.Msg {
				return SelectedMsg{ID: id}
			}
		}
		return m, nil

	case key.Matches(msg, m.keys.Search):
		m.searchMode = true
		m.searchInput.Reset()
		return m, m.searchInput.Focus()

	case key.Matches(msg, m.keys.CycleFilter):
		m.filterIdx = (m.filterIdx + 1) % len(filters)
		m.resetView()
		return m, nil

	case key.Matches(msg, m.keys.UnreadFilter):
		m.filterIdx = 1 // FilterUnread
		m.resetView()
		return m, nil

	case key.Matches(msg, m.keys.ClearFilter):
		m.filterIdx = 0 // FilterAll
		m.search = ""
		m.searchInput.Reset()
		m.resetView()
		return m, nil

	case key.Matches(msg, m.keys.MarkAllRead):
		return m, func() tea.Msg {
			return MarkAllReadMsg{}
		}
	}

	return m, nil
}

// resetView returns to page 1 with the cursor at the top. Filter and
// search changes always land here.
func (m *Model) resetView() {
	m.page = 1
	m.cursor = 0
	m.clamp()
}

// derive recomputes the presentation for the current query state.
func (m Model) derive() view.Result {
	return view.Apply(m.items, view.Query{
		Filter:   m.Filter(),
		Search:   m.search,
		Page:     m.page,
		PageSize: m.pageSize,
		Now:      time.Now(),
	})
}

// flattened returns the current page's items in display order.
func (m Model) flattened() []model.Notification {
	var out []model.Notification
	for _, g := range m.derive().Buckets {
		out = append(out, g.Items...)
	}
	return out
}

// clamp keeps page and cursor valid after the snapshot or query changed.
func (m *Model) clamp() {
	r := m.derive()
	m.page = r.Page

	count := 0
	for _, g := range r.Buckets {
		count += len(g.Items)
	}
	if m.cursor >= count {
		m.cursor = count - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// View renders the notification list.
func (m Model) View() string {
	r := m.derive()

	var sections []string
	if m.searchMode {
		searchBar := lipgloss.NewStyle().
			Foreground(theme.ColorWhite).
			Padding(0, 1).
			Render(m.searchInput.View())
		sections = append(sections, searchBar)
	}

	flatIdx := 0
	empty := true
	for _, g := range r.Buckets {
		empty = false
		sections = append(sections, theme.BucketHeaderStyle.Render(g.Bucket.Label()))
		for _, n := range g.Items {
			sections = append(sections, renderItem(n, flatIdx == m.cursor, m.width))
			flatIdx++
		}
	}

	if empty {
		return m.renderEmptyState()
	}

	if r.Pages > 1 {
		p := m.paginator
		p.SetTotalPages(r.Pages)
		p.Page = r.Page - 1
		pageLine := lipgloss.NewStyle().
			PaddingLeft(2).
			Render(p.View() + lipgloss.NewStyle().
				Foreground(theme.ColorGray).
				Render(fmt.Sprintf("  %d/%d (%d matching)", r.Page, r.Pages, r.Filtered)))
		sections = append(sections, "", pageLine)
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderEmptyState shows guidance text when no notifications match.
func (m Model) renderEmptyState() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	if m.Filter() != view.FilterAll || m.search != "" {
		return style.Render("No matching notifications.\nPress 0 to clear filters.")
	}

	return style.Render("No notifications yet.\nNew activity will appear here as it happens.")
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.searchInput.Width = width - 4
}
