// Package common provides shared constants, types, and utilities
// used across the VPN Tray application.
package common

import "time"

// Application metadata.
const (
	// AppID is the unique identifier for the application.
	AppID = "com.vpntray.app"
	// AppName is the display name of the application.
	AppName = "VPN Tray"
	// ConfigDirName is the name of the configuration directory.
	ConfigDirName = "vpn-tray"
)

// File names used by the application.
const (
	ConfigFileName      = "config.yaml"
	ActionsFileName     = "actions.yaml"
	HistoryFileName     = "history.db"
	CredentialsFileName = ".credentials"
	EnvFileName         = ".env"
	LogFileName         = "vpn-tray.log"
)

// Wrapped tool defaults.
const (
	// DefaultToolName is looked up in PATH when no tool path is configured.
	DefaultToolName = "nordvpn"
	// DefaultToolPath is where distribution packages install the tool.
	DefaultToolPath = "/usr/bin/nordvpn"
)

// Default timeouts, intervals and limits.
const (
	// PollInterval is how often the status checker queries the tool.
	PollInterval = 1000 * time.Millisecond
	// MinPollInterval guards against configurations that would spin the queue.
	MinPollInterval = 100 * time.Millisecond
	// ActionTimeout bounds each wait for process output.
	ActionTimeout = 30 * time.Second
	// ScrollbackLines is the per-action transcript limit.
	ScrollbackLines = 1000
	// HistoryRetention is how long invocation records are kept.
	HistoryRetention = 30 * 24 * time.Hour
	// PauseDuration is the default reconnect delay of the pause action.
	PauseDuration = 5 * time.Minute
)

// UI constants.
const (
	// TrayIconSize is the size of the system tray icon.
	TrayIconSize = 22
	// NotificationTimeout is how long desktop notifications stay visible.
	NotificationTimeout = 5 * time.Second
)
