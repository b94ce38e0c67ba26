package config

import (
	"fmt"
	"os"
	"time"
)

// timestampLayout produces YYYYMMDDHHMMSS, sortable and filesystem-safe.
const timestampLayout = "20060102150405"

// Timestamp returns t formatted for artifact and backup names.
func Timestamp(t time.Time) string {
	return t.Format(timestampLayout)
}

// Backup copies the config file at path to a timestamped sibling named
// <path>.<YYYYMMDDHHMMSS> and returns the backup path. The copy is
// byte-identical to the source at creation time.
func Backup(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read config for backup: %w", err)
	}

	backupPath := fmt.Sprintf("%s.%s", path, Timestamp(time.Now()))
	if err := os.WriteFile(backupPath, data, 0600); err != nil {
		return "", fmt.Errorf("write config backup: %w", err)
	}
	return backupPath, nil
}
