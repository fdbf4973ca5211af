package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yllada/vpn-tray/common"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.PollInterval() != time.Second {
		t.Errorf("PollInterval() = %v, want 1s", cfg.PollInterval())
	}
	if cfg.ActionTimeout() != 30*time.Second {
		t.Errorf("ActionTimeout() = %v, want 30s", cfg.ActionTimeout())
	}
	if cfg.ScrollbackLines != 1000 {
		t.Errorf("ScrollbackLines = %v, want 1000", cfg.ScrollbackLines)
	}
	if !cfg.SkipTickWhenPending {
		t.Error("SkipTickWhenPending should be true by default")
	}
	if cfg.HistoryRetention() != 30*24*time.Hour {
		t.Errorf("HistoryRetention() = %v, want 720h", cfg.HistoryRetention())
	}
}

func TestLoadFrom_CreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vpn-tray", common.ConfigFileName)

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.FileExists(t, path)
}

func TestLoadFrom_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), common.ConfigFileName)
	data := "tool_path: /opt/nordvpn/bin/nordvpn\n" +
		"poll_interval_ms: 2500\n" +
		"scrollback_lines: 50\n" +
		"favorites:\n  - Finland/Helsinki\n  - Germany\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0600))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "/opt/nordvpn/bin/nordvpn", cfg.ToolPath)
	assert.Equal(t, 2500*time.Millisecond, cfg.PollInterval())
	assert.Equal(t, 50, cfg.ScrollbackLines)
	assert.Equal(t, 30*time.Second, cfg.ActionTimeout(), "unset fields keep defaults")
	assert.Equal(t, []string{"Finland/Helsinki", "Germany"}, cfg.Favorites)
}

func TestLoadFrom_RejectsUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), common.ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte("theme: dark\n"), 0600))

	_, err := LoadFrom(path)
	assert.True(t, errors.Is(err, common.ErrConfigLoad), "err = %v", err)
}

func TestLoadFrom_ValidatesRanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), common.ConfigFileName)
	data := "poll_interval_ms: 5\naction_timeout_ms: -1\nscrollback_lines: 0\nhistory_retention_days: -3\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0600))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, 100*time.Millisecond, cfg.PollInterval())
	assert.Equal(t, 30*time.Second, cfg.ActionTimeout())
	assert.Equal(t, 1000, cfg.ScrollbackLines)
	assert.Equal(t, 30, cfg.HistoryRetentionDays)
}

func TestLoadFrom_EnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, common.ConfigFileName)
	env := "VPNTRAY_TOOL_PATH=/tmp/fake-nordvpn\nVPNTRAY_POLL_INTERVAL_MS=300\nVPNTRAY_METRICS_ADDR=127.0.0.1:9310\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, common.EnvFileName), []byte(env), 0600))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/fake-nordvpn", cfg.ToolPath)
	assert.Equal(t, 300*time.Millisecond, cfg.PollInterval())
	assert.Equal(t, "127.0.0.1:9310", cfg.MetricsAddr)
}

func TestLoadFrom_ProcessEnvWins(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, common.ConfigFileName)
	require.NoError(t, os.WriteFile(filepath.Join(dir, common.EnvFileName), []byte("VPNTRAY_TOOL_PATH=/from/file\n"), 0600))
	t.Setenv(EnvToolPath, "/from/env")

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "/from/env", cfg.ToolPath)
}

func TestApplyEnv_InvalidInterval(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.ApplyEnv(map[string]string{EnvPollInterval: "fast"})
	assert.True(t, errors.Is(err, common.ErrConfigLoad))
}

func TestSaveTo_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", common.ConfigFileName)
	cfg := DefaultConfig()
	cfg.ToolPath = "/usr/local/bin/nordvpn"
	cfg.StartActive = false
	require.NoError(t, cfg.SaveTo(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestResolveToolPath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ToolPath = "/explicit/nordvpn"
	assert.Equal(t, "/explicit/nordvpn", cfg.ResolveToolPath())
}
