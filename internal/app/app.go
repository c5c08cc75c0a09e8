package app

import (
	"context"
	"fmt"
	"log"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mqnguyen/collab-notify/internal/alert"
	"github.com/mqnguyen/collab-notify/internal/api"
	"github.com/mqnguyen/collab-notify/internal/model"
	"github.com/mqnguyen/collab-notify/internal/store"
	"github.com/mqnguyen/collab-notify/internal/transport"
	"github.com/mqnguyen/collab-notify/internal/ui"
	"github.com/mqnguyen/collab-notify/internal/ui/detail"
	helpview "github.com/mqnguyen/collab-notify/internal/ui/help"
	"github.com/mqnguyen/collab-notify/internal/ui/notiflist"
	"github.com/mqnguyen/collab-notify/internal/ui/settings"
)

const appTitle = "Notifications"

// storeChangedMsg signals that the notification collection mutated and
// the list should re-render from a fresh snapshot.
type storeChangedMsg struct{}

// alertReadyMsg carries a newly ingested notification for side-effect
// dispatch (desktop banner, sound).
type alertReadyMsg struct {
	notification model.Notification
}

// connStateMsg carries a transport state transition for the header.
type connStateMsg struct {
	state transport.State
}

// historyLoadedMsg reports the outcome of the initial server load.
type historyLoadedMsg struct {
	err error
}

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewList ViewState = iota
	ViewDetail
	ViewSettings
	ViewHelp
)

// Deps bundles the long-lived components the root model coordinates.
// They are constructed in main and owned by the caller; the model only
// drives them.
type Deps struct {
	Store      *store.Store
	Manager    *transport.Manager
	Client     *api.Client
	Dispatcher *alert.Dispatcher
	Config     *model.AppConfig
	ConfigPath string
}

// Model is the root Bubble Tea model that manages view routing, layout,
// and the bridge between the background sync machinery and the UI.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	keys         *KeyMap
	deps         Deps

	list         notiflist.Model
	detail       detail.Model
	helpView     helpview.Model
	settingsView settings.Model

	ready            bool
	unreadCount      int
	connState        transport.State
	authErrorMessage string
	loadErrorMessage string
}

// New creates a new root application model.
func New(deps Deps) Model {
	keys := DefaultKeyMap()
	pageSize := deps.Config.Display.PageSize

	return Model{
		currentView:  ViewList,
		keys:         keys,
		deps:         deps,
		connState:    transport.StateDisconnected,
		list:         notiflist.New(keys, pageSize, 80, 24),
		detail:       detail.New(keys, 80, 24),
		helpView:     helpview.New(keys, 80, 24),
		settingsView: settings.New(deps.Config, 80, 24),
	}
}

// Init kicks off the initial history load and subscribes to the store
// and transport channels.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle(appTitle),
		m.loadHistory(),
		m.waitForChange(),
		m.waitForAlert(),
		m.waitForConnState(),
	)
}

// loadHistory fetches the full notification history from the server.
// When the server is unreachable the durable cache is restored instead,
// so the user still sees everything from the previous session.
func (m Model) loadHistory() tea.Cmd {
	client := m.deps.Client
	st := m.deps.Store
	return func() tea.Msg {
		items, err := client.LoadHistory(context.Background())
		if err != nil {
			log.Printf("initial load failed, falling back to cache: %v", err)
			if cacheErr := st.LoadFromCache(context.Background()); cacheErr != nil {
				log.Printf("cache restore failed: %v", cacheErr)
			}
			return historyLoadedMsg{err: err}
		}
		st.LoadInitial(items)
		return historyLoadedMsg{}
	}
}

// waitForChange blocks on the store's coalesced change signal and
// resubscribes after every delivery.
func (m Model) waitForChange() tea.Cmd {
	ch := m.deps.Store.Changes()
	return func() tea.Msg {
		<-ch
		return storeChangedMsg{}
	}
}

// waitForAlert blocks on the store's alert feed.
func (m Model) waitForAlert() tea.Cmd {
	ch := m.deps.Store.Alerts()
	return func() tea.Msg {
		return alertReadyMsg{notification: <-ch}
	}
}

// waitForConnState blocks on transport state transitions.
func (m Model) waitForConnState() tea.Cmd {
	ch := m.deps.Manager.Status()
	return func() tea.Msg {
		return connStateMsg{state: <-ch}
	}
}

// refreshFromStore pulls a fresh snapshot into the list and recomputes
// the unread badge. Returns the command that updates the terminal
// window title to match.
func (m *Model) refreshFromStore() tea.Cmd {
	m.list.SetItems(m.deps.Store.All())
	m.unreadCount = m.deps.Store.UnreadCount()

	title := appTitle
	if m.unreadCount > 0 {
		title = fmt.Sprintf("(%d) %s", m.unreadCount, appTitle)
	}
	return tea.SetWindowTitle(title)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		contentWidth := m.layout.ContentWidth()
		contentHeight := m.layout.ContentHeight()
		m.list.SetSize(contentWidth, contentHeight)
		m.detail.SetSize(contentWidth, contentHeight)
		m.helpView.SetSize(contentWidth, contentHeight)
		m.settingsView.SetSize(contentWidth, contentHeight)
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case tea.FocusMsg:
		m.deps.Dispatcher.SetFocused(true)
		return m, nil

	case tea.BlurMsg:
		m.deps.Dispatcher.SetFocused(false)
		return m, nil

	case historyLoadedMsg:
		if msg.err != nil {
			if api.IsAuthError(msg.err) {
				m.authErrorMessage = "authentication failed; check your API token"
			} else {
				m.loadErrorMessage = "server unreachable, showing cached notifications"
			}
		} else {
			m.authErrorMessage = ""
			m.loadErrorMessage = ""
		}
		return m, nil

	case storeChangedMsg:
		titleCmd := m.refreshFromStore()
		return m, tea.Batch(titleCmd, m.waitForChange())

	case alertReadyMsg:
		m.deps.Dispatcher.Dispatch(msg.notification)
		return m, m.waitForAlert()

	case connStateMsg:
		m.connState = msg.state
		if msg.state == transport.StateConnected {
			// A successful dial means credentials and server are fine
			// again; clear any stale banner.
			m.authErrorMessage = ""
			m.loadErrorMessage = ""
		}
		return m, m.waitForConnState()

	case notiflist.SelectedMsg:
		n, ok := m.deps.Store.Get(msg.ID)
		if !ok {
			return m, nil
		}
		m.deps.Store.MarkRead(msg.ID)
		m.detail.SetNotification(n)
		m.previousView = m.currentView
		m.currentView = ViewDetail
		return m, m.pushMarkRead(msg.ID)

	case notiflist.MarkAllReadMsg:
		m.deps.Store.MarkAllRead()
		return m, m.pushMarkAllRead()

	case detail.BackMsg:
		m.currentView = ViewList
		return m, nil

	case settings.SavedMsg:
		m.currentView = ViewList
		return m, m.applySettings(msg.Config)

	case settings.CancelMsg:
		m.currentView = ViewList
		return m, nil

	case tea.KeyMsg:
		// Global keys that work regardless of current view. Suppressed
		// while the list search input owns the keyboard.
		if m.currentView == ViewList && m.list.Searching() {
			break
		}

		switch msg.String() {
		case "ctrl+c":
			m.deps.Manager.Stop()
			return m, tea.Quit

		case "q":
			if m.currentView == ViewList {
				m.deps.Manager.Stop()
				return m, tea.Quit
			}

		case "?":
			if m.currentView == ViewSettings {
				break
			}
			if m.currentView == ViewHelp {
				m.currentView = m.previousView
				return m, nil
			}
			m.previousView = m.currentView
			m.currentView = ViewHelp
			return m, nil

		case "s":
			if m.currentView == ViewList {
				m.previousView = m.currentView
				m.currentView = ViewSettings
				m.settingsView = settings.New(m.deps.Config, m.layout.ContentWidth(), m.layout.ContentHeight())
				return m, m.settingsView.Init()
			}
		}
	}

	// Delegate to active sub-view
	return m.updateActiveView(msg)
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewList:
		m.list, cmd = m.list.Update(msg)
	case ViewDetail:
		m.detail, cmd = m.detail.Update(msg)
	case ViewSettings:
		m.settingsView, cmd = m.settingsView.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	}

	return m, cmd
}

// pushMarkRead reports a single read receipt to the server. Failures
// are logged and dropped: the local state is authoritative for display
// and the next full load reconciles.
func (m Model) pushMarkRead(id string) tea.Cmd {
	client := m.deps.Client
	return func() tea.Msg {
		if err := client.MarkRead(context.Background(), id); err != nil {
			log.Printf("mark read %s not delivered: %v", id, err)
		}
		return nil
	}
}

// pushMarkAllRead reports the bulk read receipt to the server.
func (m Model) pushMarkAllRead() tea.Cmd {
	client := m.deps.Client
	return func() tea.Msg {
		if err := client.MarkAllRead(context.Background()); err != nil {
			log.Printf("mark all read not delivered: %v", err)
		}
		return nil
	}
}

// applySettings persists the edited config and applies what can change
// at runtime. Poll and reconnect timing are read at wiring time and
// take effect on the next launch.
func (m *Model) applySettings(cfg *model.AppConfig) tea.Cmd {
	*m.deps.Config = *cfg
	m.deps.Dispatcher.SetPreferences(alert.Preferences{
		Desktop: cfg.Alerts.Desktop,
		Sound:   cfg.Alerts.Sound,
	})

	path := m.deps.ConfigPath
	return func() tea.Msg {
		if err := model.SaveConfig(path, cfg); err != nil {
			log.Printf("saving config: %v", err)
		}
		return nil
	}
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	headerTitle := appTitle
	if m.unreadCount > 0 {
		headerTitle = fmt.Sprintf("%s (%d)", appTitle, m.unreadCount)
	}
	header := m.layout.RenderHeader(headerTitle, m.connState.String())
	content := m.renderContent()
	statusBar := m.layout.RenderStatusBar(m.keyHints())

	return m.layout.RenderWithFrame(header, content, statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewList:
		return m.list.View()
	case ViewDetail:
		return m.detail.View()
	case ViewSettings:
		return m.settingsView.View()
	case ViewHelp:
		return m.helpView.View()
	default:
		return ""
	}
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	// Surface load problems prominently when present.
	if m.authErrorMessage != "" && m.currentView == ViewList {
		return m.authErrorMessage
	}
	if m.loadErrorMessage != "" && m.currentView == ViewList {
		return m.loadErrorMessage
	}

	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewDetail:
		return "esc back | j/k scroll"
	case ViewSettings:
		return "enter next | esc cancel"
	default:
		filterSummary := m.list.FilterSummary()
		if filterSummary != "" {
			return filterSummary + " | 0 clear"
		}
		return "q quit | ? help | / search | tab filter | u unread | A mark all read | s settings"
	}
}
