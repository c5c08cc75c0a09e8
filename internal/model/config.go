package model

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// ServerConfig holds the connection details for the collaboration
// platform backend.
type ServerConfig struct {
	// BaseURL is the root URL of the platform REST API.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// SocketPath is the path of the websocket push endpoint, resolved
	// relative to BaseURL with the scheme switched to ws/wss.
	SocketPath string `mapstructure:"socket_path" yaml:"socket_path"`
}

// SyncConfig controls the transport layer: how often the polling
// fallback fires and how long the manager waits before redialing the
// push channel.
type SyncConfig struct {
	PollIntervalSec int `mapstructure:"poll_interval_sec" yaml:"poll_interval_sec"`
	RetryDelaySec   int `mapstructure:"retry_delay_sec" yaml:"retry_delay_sec"`
}

// AlertConfig holds the user's side-effect preferences.
type AlertConfig struct {
	// Desktop enables system banners for new notifications while the
	// terminal is unfocused.
	Desktop bool `mapstructure:"desktop" yaml:"desktop"`

	// Sound enables the audible cue on new notifications.
	Sound bool `mapstructure:"sound" yaml:"sound"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme    string `mapstructure:"theme" yaml:"theme"`
	PageSize int    `mapstructure:"page_size" yaml:"page_size"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	Sync    SyncConfig    `mapstructure:"sync" yaml:"sync"`
	Alerts  AlertConfig   `mapstructure:"alerts" yaml:"alerts"`
	Display DisplayConfig `mapstructure:"display" yaml:"display"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/collab-notify/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "collab-notify", "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			SocketPath: "/ws/notifications",
		},
		Sync: SyncConfig{
			PollIntervalSec: 30,
			RetryDelaySec:   5,
		},
		Alerts: AlertConfig{
			Desktop: true,
			Sound:   true,
		},
		Display: DisplayConfig{
			Theme:    "default",
			PageSize: 10,
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using
// Viper. If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("server.socket_path", "/ws/notifications")
	v.SetDefault("sync.poll_interval_sec", 30)
	v.SetDefault("sync.retry_delay_sec", 5)
	v.SetDefault("alerts.desktop", true)
	v.SetDefault("alerts.sound", true)
	v.SetDefault("display.theme", "default")
	v.SetDefault("display.page_size", 10)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaultAppConfig(), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaultAppConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.Sync.PollIntervalSec <= 0 {
		cfg.Sync.PollIntervalSec = 30
	}
	if cfg.Sync.RetryDelaySec <= 0 {
		cfg.Sync.RetryDelaySec = 5
	}
	if cfg.Display.PageSize <= 0 {
		cfg.Display.PageSize = 10
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("server", cfg.Server)
	v.Set("sync", cfg.Sync)
	v.Set("alerts", cfg.Alerts)
	v.Set("display", cfg.Display)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
