package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/mqnguyen/collab-notify/internal/alert"
	"github.com/mqnguyen/collab-notify/internal/api"
	"github.com/mqnguyen/collab-notify/internal/app"
	"github.com/mqnguyen/collab-notify/internal/credential"
	"github.com/mqnguyen/collab-notify/internal/model"
	"github.com/mqnguyen/collab-notify/internal/store"
	"github.com/mqnguyen/collab-notify/internal/transport"
)

func main() {
	configPath := flag.String("config", model.DefaultConfigPath(), "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "collab-notify: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := model.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	dataDir := filepath.Dir(configPath)
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	// The terminal owns stdout, so logs go to a file next to the config.
	logFile, err := os.OpenFile(filepath.Join(dataDir, "notify.log"),
		os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer logFile.Close()
	log.SetOutput(logFile)

	token := loadToken()
	if token == "" {
		return fmt.Errorf("no API token: set COLLAB_NOTIFY_TOKEN or store one in the system keyring")
	}

	// Each running client gets its own id so the server can skip
	// echoing this client's own events back over the socket.
	client := api.NewClient(cfg.Server.BaseURL, token, uuid.NewString())

	cache, err := store.NewSQLiteCache(filepath.Join(dataDir, "notifications.db"))
	if err != nil {
		return fmt.Errorf("opening cache: %w", err)
	}
	defer cache.Close()

	st := store.New(cache)

	socketURL, err := client.SocketURL(cfg.Server.SocketPath)
	if err != nil {
		return fmt.Errorf("resolving socket url: %w", err)
	}
	dialer := &transport.SocketDialer{
		URL:    socketURL,
		Header: client.AuthHeader(),
	}

	inbox := transport.NewInbox()
	poller := transport.NewPoller(
		client,
		time.Duration(cfg.Sync.PollIntervalSec)*time.Second,
		st.LatestTimestamp,
		inbox,
	)
	manager := transport.NewManager(
		dialer,
		poller,
		client,
		st,
		time.Duration(cfg.Sync.RetryDelaySec)*time.Second,
		inbox,
	)

	dispatcher := alert.New(
		alert.DesktopNotifier{},
		alert.BeepSounder{},
		alert.Preferences{Desktop: cfg.Alerts.Desktop, Sound: cfg.Alerts.Sound},
	)

	manager.Start()
	defer manager.Stop()

	root := app.New(app.Deps{
		Store:      st,
		Manager:    manager,
		Client:     client,
		Dispatcher: dispatcher,
		Config:     cfg,
		ConfigPath: configPath,
	})

	p := tea.NewProgram(root, tea.WithAltScreen(), tea.WithReportFocus())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running UI: %w", err)
	}
	return nil
}

// loadToken reads the platform API token from the environment, falling
// back to the system keyring.
func loadToken() string {
	if token := os.Getenv("COLLAB_NOTIFY_TOKEN"); token != "" {
		return token
	}
	token, err := credential.Get(credential.KeyAPIToken)
	if err != nil {
		return ""
	}
	return token
}
