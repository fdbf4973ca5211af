// Package config provides configuration management for VPN Tray.
// It handles loading, saving, and validating application settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/yllada/vpn-tray/common"
)

// Environment variables overriding the file.
const (
	EnvToolPath     = "VPNTRAY_TOOL_PATH"
	EnvPollInterval = "VPNTRAY_POLL_INTERVAL_MS"
	EnvMetricsAddr  = "VPNTRAY_METRICS_ADDR"
)

// Config represents the application configuration.
// All settings are persisted to a YAML file in the user's config directory.
type Config struct {
	// ToolPath is the wrapped VPN client. Empty means look it up in PATH.
	ToolPath string `yaml:"tool_path"`
	// PollIntervalMS is the status polling period in milliseconds.
	PollIntervalMS int `yaml:"poll_interval_ms"`
	// ActionTimeoutMS bounds each wait for process output.
	ActionTimeoutMS int `yaml:"action_timeout_ms"`
	// ScrollbackLines is the per-action transcript limit.
	ScrollbackLines int `yaml:"scrollback_lines"`
	// SkipTickWhenPending drops polling ticks while a check is in flight.
	SkipTickWhenPending bool `yaml:"skip_tick_when_pending"`
	// ShowNotifications enables desktop notifications.
	ShowNotifications bool `yaml:"show_notifications"`
	// HistoryRetentionDays is how long invocation records are kept.
	HistoryRetentionDays int `yaml:"history_retention_days"`
	// MetricsAddr enables the Prometheus endpoint when non-empty.
	MetricsAddr string `yaml:"metrics_addr"`
	// StartActive starts polling on launch.
	StartActive bool `yaml:"start_active"`
	// Favorites are "Country" or "Country/City" connect targets.
	Favorites []string `yaml:"favorites,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		ToolPath:             "",
		PollIntervalMS:       int(common.PollInterval / time.Millisecond),
		ActionTimeoutMS:      int(common.ActionTimeout / time.Millisecond),
		ScrollbackLines:      common.ScrollbackLines,
		SkipTickWhenPending:  true,
		ShowNotifications:    true,
		HistoryRetentionDays: int(common.HistoryRetention / (24 * time.Hour)),
		MetricsAddr:          "",
		StartActive:          true,
	}
}

// DefaultPath returns ~/.config/vpn-tray/config.yaml.
func DefaultPath() (string, error) {
	dir, err := common.GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, common.ConfigFileName), nil
}

// Load loads the configuration from the default location.
func Load() (*Config, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom loads the configuration at path. If the file doesn't exist, it
// creates one with default values. Environment overrides from the process
// and from a .env file next to the config are applied on top.
func LoadFrom(path string) (*Config, error) {
	cfg, err := readFile(path)
	if err != nil {
		return nil, err
	}

	env, err := loadEnv(filepath.Join(filepath.Dir(path), common.EnvFileName))
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(env); err != nil {
		return nil, err
	}
	return cfg, nil
}

func readFile(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := DefaultConfig()
		if err := cfg.SaveTo(path); err != nil {
			return cfg, err
		}
		return cfg, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrConfigLoad, err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true) // Strict validation: reject unknown fields

	cfg := DefaultConfig()
	if err := decoder.Decode(cfg); err != nil {
		return nil, fmt.Errorf("%w: error parsing %s: %v", common.ErrConfigLoad, path, err)
	}

	cfg.validate()
	return cfg, nil
}

// loadEnv reads the optional .env file. Variables already set in the
// process environment win, as with godotenv.Load.
func loadEnv(envFile string) (map[string]string, error) {
	values := map[string]string{}
	if common.FileExists(envFile) {
		read, err := godotenv.Read(envFile)
		if err != nil {
			return nil, fmt.Errorf("%w: error reading %s: %v", common.ErrConfigLoad, envFile, err)
		}
		values = read
	}
	for _, key := range []string{EnvToolPath, EnvPollInterval, EnvMetricsAddr} {
		if v, ok := os.LookupEnv(key); ok {
			values[key] = v
		}
	}
	return values, nil
}

// ApplyEnv applies the known VPNTRAY_* overrides from env.
func (c *Config) ApplyEnv(env map[string]string) error {
	if v := env[EnvToolPath]; v != "" {
		c.ToolPath = v
	}
	if v := env[EnvPollInterval]; v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: invalid %s %q", common.ErrConfigLoad, EnvPollInterval, v)
		}
		c.PollIntervalMS = ms
	}
	if v, ok := env[EnvMetricsAddr]; ok {
		c.MetricsAddr = v
	}
	c.validate()
	return nil
}

// validate replaces out-of-range values with defaults.
func (c *Config) validate() {
	def := DefaultConfig()
	if c.PollIntervalMS <= 0 {
		c.PollIntervalMS = def.PollIntervalMS
	}
	if floor := int(common.MinPollInterval / time.Millisecond); c.PollIntervalMS < floor {
		c.PollIntervalMS = floor
	}
	if c.ActionTimeoutMS <= 0 {
		c.ActionTimeoutMS = def.ActionTimeoutMS
	}
	if c.ScrollbackLines <= 0 {
		c.ScrollbackLines = def.ScrollbackLines
	}
	if c.HistoryRetentionDays < 0 {
		c.HistoryRetentionDays = def.HistoryRetentionDays
	}
}

// Save saves the configuration to the default location.
func (c *Config) Save() error {
	path, err := DefaultPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the configuration to path.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("%w: error creating config directory: %v", common.ErrConfigSave, err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("%w: error serializing configuration: %v", common.ErrConfigSave, err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("%w: %v", common.ErrConfigSave, err)
	}
	return nil
}

// PollInterval returns the polling period.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}

// ActionTimeout returns the per-wait process timeout.
func (c *Config) ActionTimeout() time.Duration {
	return time.Duration(c.ActionTimeoutMS) * time.Millisecond
}

// HistoryRetention returns how long history is kept. Zero keeps everything.
func (c *Config) HistoryRetention() time.Duration {
	return time.Duration(c.HistoryRetentionDays) * 24 * time.Hour
}

// ResolveToolPath returns the configured tool or the one found on the
// system.
func (c *Config) ResolveToolPath() string {
	return common.LocateTool(c.ToolPath)
}
