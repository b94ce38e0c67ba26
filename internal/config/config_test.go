package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

// clearEnv blanks every environment variable Load consults so tests are
// hermetic regardless of the invoking shell.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"OPENDNS_CONFIG", "OPENDNS_USER", "OPENDNS_PASS", "NETWORK_ID",
		"CATEGORIES", "SCREENSHOT_PATH", "BROWSER", "HEADLESS",
		"LOG_LEVEL", "LOG_FILE",
	} {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "opendns.conf")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir()) // keep a developer's opendns.conf out of the test

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if !cfg.Headless {
		t.Fatalf("expected headless by default")
	}
	if cfg.Browser != "chrome" {
		t.Fatalf("unexpected default browser: %q", cfg.Browser)
	}
	if want := []string{"Video Sharing", "Social Networking"}; !reflect.DeepEqual(cfg.Categories, want) {
		t.Fatalf("unexpected default categories: %v", cfg.Categories)
	}
	if cfg.Source != "" {
		t.Fatalf("expected no source without a config file, got %q", cfg.Source)
	}
}

func TestLoadFileValues(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `[opendns]
OPENDNS_USER = alice@example.com
OPENDNS_PASS = hunter2
NETWORK_ID = 1234567
CATEGORIES = Gambling, Phishing
HEADLESS = false
`)

	cfg, err := Load(&CLIOverrides{ConfigFile: path})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Username != "alice@example.com" || cfg.Password != "hunter2" {
		t.Fatalf("credentials not read from file: %+v", cfg)
	}
	if cfg.NetworkID != "1234567" {
		t.Fatalf("unexpected network id: %q", cfg.NetworkID)
	}
	if want := []string{"Gambling", "Phishing"}; !reflect.DeepEqual(cfg.Categories, want) {
		t.Fatalf("unexpected categories: %v", cfg.Categories)
	}
	if cfg.Headless {
		t.Fatalf("expected headless=false from file")
	}
	if cfg.Source != path {
		t.Fatalf("expected source %q, got %q", path, cfg.Source)
	}
}

func TestLoadPrecedence(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `[opendns]
NETWORK_ID = file-id
CATEGORIES = File Category
SCREENSHOT_PATH = /from/file.png
`)

	t.Setenv("NETWORK_ID", "env-id")
	t.Setenv("CATEGORIES", "Env Category")

	cliNetwork := "cli-id"
	cfg, err := Load(&CLIOverrides{ConfigFile: path, NetworkID: &cliNetwork})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	// CLI beats env for the flagged setting.
	if cfg.NetworkID != "cli-id" {
		t.Fatalf("expected CLI network id to win, got %q", cfg.NetworkID)
	}
	// Env beats file where no flag was passed.
	if want := []string{"Env Category"}; !reflect.DeepEqual(cfg.Categories, want) {
		t.Fatalf("expected env categories to win, got %v", cfg.Categories)
	}
	// File beats default where neither env nor flag was set.
	if cfg.ScreenshotPath != "/from/file.png" {
		t.Fatalf("expected file screenshot path, got %q", cfg.ScreenshotPath)
	}
}

func TestLoadExplicitMissingFile(t *testing.T) {
	clearEnv(t)
	if _, err := Load(&CLIOverrides{ConfigFile: filepath.Join(t.TempDir(), "nope.conf")}); err == nil {
		t.Fatalf("expected error for explicit missing config file")
	}
}

func TestRequireCredentials(t *testing.T) {
	cfg := Config{Username: "u"}
	if err := cfg.RequireCredentials(); err != ErrMissingCredentials {
		t.Fatalf("expected ErrMissingCredentials, got %v", err)
	}
	cfg.Password = "p"
	if err := cfg.RequireCredentials(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestParseCategoriesRoundTrip(t *testing.T) {
	got := ParseCategories(" A, B , C ,")
	if want := []string{"A", "B", "C"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected categories: %v", got)
	}

	// Parsing a re-serialized list yields the same ordered sequence.
	again := ParseCategories(SerializeCategories(got))
	if !reflect.DeepEqual(again, got) {
		t.Fatalf("round trip changed categories: %v vs %v", again, got)
	}
}

func TestParseBool(t *testing.T) {
	for _, truthy := range []string{"true", "Yes", "1", "t", " TRUE "} {
		if !ParseBool(truthy) {
			t.Fatalf("expected %q to parse as true", truthy)
		}
	}
	for _, falsy := range []string{"false", "no", "0", "", "maybe"} {
		if ParseBool(falsy) {
			t.Fatalf("expected %q to parse as false", falsy)
		}
	}
}
