package settings

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/mqnguyen/collab-notify/internal/model"
)

// SavedMsg signals that the user submitted the settings form. The
// parent persists the config and rewires anything affected (poll
// interval, retry delay, alert preferences).
type SavedMsg struct {
	Config *model.AppConfig
}

// CancelMsg signals the settings view should close without changes.
type CancelMsg struct{}

// Model is the Bubble Tea model for the settings form.
type Model struct {
	form   *huh.Form
	cfg    *model.AppConfig
	width  int
	height int

	// Form field values (huh binds to these).
	formBaseURL  string
	formPollSec  string
	formRetrySec string
	formDesktop  bool
	formSound    bool
}

// New creates a settings form model seeded from the current config.
func New(cfg *model.AppConfig, width, height int) Model {
	m := Model{
		cfg:    cfg,
		width:  width,
		height: height,
	}
	m.seed()
	m.form = m.buildForm()
	return m
}

// seed copies current config values into the form fields.
func (m *Model) seed() {
	m.formBaseURL = m.cfg.Server.BaseURL
	m.formPollSec = strconv.Itoa(m.cfg.Sync.PollIntervalSec)
	m.formRetrySec = strconv.Itoa(m.cfg.Sync.RetryDelaySec)
	m.formDesktop = m.cfg.Alerts.Desktop
	m.formSound = m.cfg.Alerts.Sound
}

// buildForm constructs the huh form bound to the field values.
func (m *Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Server URL").
				Description("Root URL of the collaboration platform").
				Placeholder("https://hub.example.org").
				Value(&m.formBaseURL).
				Validate(validateURL),
			huh.NewInput().
				Title("Poll interval (seconds)").
				Description("How often the fallback polls while the live channel is down").
				Value(&m.formPollSec).
				Validate(validatePositiveInt("Poll interval")),
			huh.NewInput().
				Title("Reconnect delay (seconds)").
				Description("How long to wait before redialing the live channel").
				Value(&m.formRetrySec).
				Validate(validatePositiveInt("Reconnect delay")),
			huh.NewConfirm().
				Title("Desktop notifications").
				Description("Show a system banner when the terminal is unfocused").
				Value(&m.formDesktop),
			huh.NewConfirm().
				Title("Notification sound").
				Description("Play an audible cue for new notifications").
				Value(&m.formSound),
		),
	).WithWidth(m.formWidth())
}

func (m Model) formWidth() int {
	w := m.width - 8
	if w < 40 {
		w = 40
	}
	return w
}

// Init starts the form.
func (m Model) Init() tea.Cmd {
	return m.form.Init()
}

// Update handles messages for the settings form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.String() == "esc" {
		return m, func() tea.Msg { return CancelMsg{} }
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		cfg := *m.cfg
		cfg.Server.BaseURL = strings.TrimRight(m.formBaseURL, "/")
		cfg.Sync.PollIntervalSec, _ = strconv.Atoi(m.formPollSec)
		cfg.Sync.RetryDelaySec, _ = strconv.Atoi(m.formRetrySec)
		cfg.Alerts.Desktop = m.formDesktop
		cfg.Alerts.Sound = m.formSound

		return m, func() tea.Msg {
			return SavedMsg{Config: &cfg}
		}
	}

	return m, cmd
}

// View renders the settings form.
func (m Model) View() string {
	return m.form.View()
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// validateURL checks that the value parses as an absolute http(s) URL.
func validateURL(s string) error {
	if s == "" {
		return fmt.Errorf("Server URL is required")
	}
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("enter a full URL like https://hub.example.org")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("only http and https URLs are supported")
	}
	return nil
}

// validatePositiveInt checks that the value is a positive integer.
func validatePositiveInt(name string) func(string) error {
	return func(s string) error {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			return fmt.Errorf("%s must be a positive number of seconds", name)
		}
		return nil
	}
}
