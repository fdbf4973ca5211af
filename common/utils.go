// Package common provides shared constants, types, and utilities
// used across the VPN Tray application.
package common

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/google/uuid"
)

// GenerateID generates a unique identifier suitable for action IDs.
func GenerateID() string {
	return uuid.NewString()
}

// GetConfigDir returns the path to the application configuration directory.
// It creates the directory if it doesn't exist.
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", WrapError(err, "failed to get home directory")
	}

	configDir := filepath.Join(homeDir, ".config", ConfigDirName)
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", WrapError(err, "failed to create config directory")
	}

	return configDir, nil
}

// FileExists checks if a file exists at the given path.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// CheckExecutable verifies that path names an existing, executable regular
// file. The result is never cached: callers run it right before spawning.
func CheckExecutable(path string) error {
	if path == "" {
		return ErrEmptyPath
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrToolNotFound, path)
	}
	if info.IsDir() || info.Mode().Perm()&0111 == 0 {
		return fmt.Errorf("%w: %s", ErrNotExecutable, path)
	}
	return nil
}

// LocateTool resolves the wrapped tool path. An explicit path wins; otherwise
// PATH is searched and the distribution default is the last resort.
func LocateTool(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if p, err := exec.LookPath(DefaultToolName); err == nil {
		return p
	}
	return DefaultToolPath
}
