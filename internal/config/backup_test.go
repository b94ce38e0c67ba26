package config

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
)

func TestBackupNamingAndContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "opendns.conf")
	content := []byte("[opendns]\nNETWORK_ID = 42\n")
	if err := os.WriteFile(path, content, 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	backupPath, err := Backup(path)
	if err != nil {
		t.Fatalf("Backup returned error: %v", err)
	}

	suffix := strings.TrimPrefix(backupPath, path+".")
	if !regexp.MustCompile(`^\d{14}$`).MatchString(suffix) {
		t.Fatalf("backup suffix %q is not a YYYYMMDDHHMMSS timestamp", suffix)
	}

	copied, err := os.ReadFile(backupPath)
	if err != nil {
		t.Fatalf("read backup: %v", err)
	}
	if !bytes.Equal(copied, content) {
		t.Fatalf("backup is not byte-identical to source")
	}
}

func TestBackupMissingSource(t *testing.T) {
	if _, err := Backup(filepath.Join(t.TempDir(), "absent.conf")); err == nil {
		t.Fatalf("expected error backing up a missing file")
	}
}
