// ABOUTME: Sentinel configuration: JSON config file plus env overrides.
// ABOUTME: Resolves log paths, shipping targets, and monitor settings.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v6"
)

// Config stores sentinel configuration. The JSON file is the durable
// form; environment variables override it at load time, matching how the
// cron-driven producers have always been configured.
type Config struct {
	// SecurityLog is the health timeseries log this host writes.
	SecurityLog string `json:"security_log,omitempty" env:"SECURITY_LOGFILE"`

	// GeneralLog is the freeform event log this host writes.
	GeneralLog string `json:"general_log,omitempty" env:"GENERAL_LOGFILE"`

	// LogLife is how many days of entries a log keeps. Default 3.
	LogLife int `json:"log_life,omitempty" env:"LOG_LIFE"`

	// Transport selects the shipping transport: rsync (default), scp, charm.
	Transport string `json:"transport,omitempty" env:"SENTINEL_TRANSPORT"`

	// RSAKeyPath is the identity file handed to ssh for rsync/scp.
	RSAKeyPath string `json:"rsa_key_path,omitempty" env:"RSA_ID_PATH"`

	// RemotePath is the shipping destination, user@host:path_to_directory.
	RemotePath string `json:"remote_path,omitempty" env:"REMOTE_PATH"`

	// InboxDir is where shipped logs from the fleet land for the monitor.
	InboxDir string `json:"inbox_dir,omitempty" env:"BOT_DIRECTORY"`

	// DataDir is the root for monitor state and the archive database.
	// Defaults to ~/.local/share/sentinel.
	DataDir string `json:"data_dir,omitempty" env:"SENTINEL_DATA_DIR"`

	// TelegramToken is the bot token used for notifications.
	TelegramToken string `json:"telegram_token,omitempty" env:"LOG_BOT_KEY"`

	// AlertChatID receives alert messages.
	AlertChatID string `json:"alert_chat_id,omitempty" env:"CHAT_ID"`

	// HeartbeatChatID receives periodic heartbeat summaries.
	HeartbeatChatID string `json:"heartbeat_chat_id,omitempty" env:"HEARTBEAT_CHAT_ID"`

	// Thresholds maps health field names to alert ceilings.
	// Defaults to disk_usage > 95.
	Thresholds map[string]float64 `json:"thresholds,omitempty"`

	// HeartbeatWaits maps scan types to seconds between heartbeats.
	// Unlisted types default to 24h.
	HeartbeatWaits map[string]int `json:"heartbeat_waits,omitempty"`

	// Links are URLs the monitor checks for liveness.
	Links []string `json:"links,omitempty"`
}

// GetLogLife returns the retention window in days, defaulting to 3.
func (c *Config) GetLogLife() int {
	if c.LogLife <= 0 {
		return 3
	}
	return c.LogLife
}

// GetTransport returns the shipping transport, defaulting to rsync.
func (c *Config) GetTransport() string {
	if c.Transport == "" {
		return "rsync"
	}
	return c.Transport
}

// GetDataDir returns the data directory with ~ expanded, defaulting to
// the standard XDG data path.
func (c *Config) GetDataDir() string {
	if c.DataDir == "" {
		dataHome := os.Getenv("XDG_DATA_HOME")
		if dataHome == "" {
			home, _ := os.UserHomeDir()
			dataHome = filepath.Join(home, ".local", "share")
		}
		return filepath.Join(dataHome, "sentinel")
	}
	return ExpandPath(c.DataDir)
}

// GetThresholds returns the health alert ceilings, defaulting to
// disk_usage > 95.
func (c *Config) GetThresholds() map[string]float64 {
	if len(c.Thresholds) == 0 {
		return map[string]float64{"disk_usage": 95}
	}
	return c.Thresholds
}

// HeartbeatWait returns the wait period for a scan type, defaulting to 24h.
func (c *Config) HeartbeatWait(scanType string) int {
	if secs, ok := c.HeartbeatWaits[scanType]; ok && secs > 0 {
		return secs
	}
	return 24 * 3600
}

// RequireShipping validates the variables the push path cannot run
// without, listing every missing one in a single error.
func (c *Config) RequireShipping() error {
	var missing []string
	if c.SecurityLog == "" {
		missing = append(missing, "SECURITY_LOGFILE")
	}
	if c.GeneralLog == "" {
		missing = append(missing, "GENERAL_LOGFILE")
	}
	if c.GetTransport() != "charm" {
		if c.RSAKeyPath == "" {
			missing = append(missing, "RSA_ID_PATH")
		}
		if c.RemotePath == "" {
			missing = append(missing, "REMOTE_PATH")
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}

// RequireMonitor validates the variables the watch daemon cannot run without.
func (c *Config) RequireMonitor() error {
	var missing []string
	if c.TelegramToken == "" {
		missing = append(missing, "LOG_BOT_KEY")
	}
	if c.AlertChatID == "" {
		missing = append(missing, "CHAT_ID")
	}
	if c.HeartbeatChatID == "" {
		missing = append(missing, "HEARTBEAT_CHAT_ID")
	}
	if c.InboxDir == "" {
		missing = append(missing, "BOT_DIRECTORY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) string {
	if path == "" {
		return ""
	}
	if path == "~" {
		home, _ := os.UserHomeDir()
		return home
	}
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// GetConfigPath returns the config file path.
func GetConfigPath() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, _ := os.UserHomeDir()
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "sentinel", "config.json")
}

// Load reads config from disk, then applies environment overrides.
// A missing config file is not an error; env alone is a valid setup.
func Load() (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(GetConfigPath())
	if err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	cfg.SecurityLog = ExpandPath(cfg.SecurityLog)
	cfg.GeneralLog = ExpandPath(cfg.GeneralLog)
	cfg.RSAKeyPath = ExpandPath(cfg.RSAKeyPath)
	cfg.InboxDir = ExpandPath(cfg.InboxDir)

	return cfg, nil
}

// Save writes config to disk.
func (c *Config) Save() error {
	path := GetConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
