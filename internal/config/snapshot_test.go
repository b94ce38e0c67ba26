package config

import (
	"os"
	"reflect"
	"strings"
	"testing"
)

func TestWriteAndLoadSnapshot(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	cfg := Config{
		Username:       "alice@example.com",
		Password:       "hunter2",
		NetworkID:      "1234567",
		ScreenshotPath: "/tmp/err.png",
	}
	status := []CategoryStatus{
		{Name: "Gambling", Blocked: true},
		{Name: "Chat", Blocked: false},
		{Name: "Phishing", Blocked: true},
	}

	path, err := WriteSnapshot(cfg, status)
	if err != nil {
		t.Fatalf("WriteSnapshot returned error: %v", err)
	}
	if !strings.HasPrefix(path, "opendns.conf.") {
		t.Fatalf("unexpected snapshot name: %q", path)
	}

	loaded, blocked, err := LoadSnapshot(path)
	if err != nil {
		t.Fatalf("LoadSnapshot returned error: %v", err)
	}
	if loaded.Username != cfg.Username || loaded.Password != cfg.Password || loaded.NetworkID != cfg.NetworkID {
		t.Fatalf("snapshot lost credentials: %+v", loaded)
	}
	if want := []string{"Gambling", "Phishing"}; !reflect.DeepEqual(blocked, want) {
		t.Fatalf("unexpected blocked list: %v", blocked)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	if !strings.Contains(string(data), "# Chat: Allowed") {
		t.Fatalf("snapshot missing summary comments:\n%s", data)
	}
}

func TestLoadSnapshotCategoriesFallback(t *testing.T) {
	path := writeConfig(t, `[opendns]
OPENDNS_USER = u
OPENDNS_PASS = p
NETWORK_ID = 1
CATEGORIES = A, B
`)

	_, blocked, err := LoadSnapshot(path)
	if err != nil {
		t.Fatalf("LoadSnapshot returned error: %v", err)
	}
	if want := []string{"A", "B"}; !reflect.DeepEqual(blocked, want) {
		t.Fatalf("unexpected blocked list: %v", blocked)
	}
}

func TestLoadSnapshotNoCategories(t *testing.T) {
	path := writeConfig(t, "[opendns]\nOPENDNS_USER = u\n")
	if _, _, err := LoadSnapshot(path); err == nil {
		t.Fatalf("expected error for snapshot without categories")
	}
}
