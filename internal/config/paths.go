package config

import (
	"os"
	"path/filepath"
)

// StateDir returns the per-user directory for opendnsctl state (session
// cookies, run history), creating it if needed.
func StateDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(configDir, "opendnsctl")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", err
	}
	return dir, nil
}
