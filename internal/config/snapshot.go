package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/ini.v1"
)

// CategoryStatus records whether a single category is blocked, in the order
// the dashboard lists it.
type CategoryStatus struct {
	Name    string
	Blocked bool
}

// WriteSnapshot saves the current dashboard state to opendns.conf.<ts> so it
// can later be re-applied with --apply. Returns the written path.
func WriteSnapshot(c Config, status []CategoryStatus) (string, error) {
	var blocked, allowed []string
	for _, s := range status {
		if s.Blocked {
			blocked = append(blocked, s.Name)
		} else {
			allowed = append(allowed, s.Name)
		}
	}

	f := ini.Empty()
	sec, err := f.NewSection(Section)
	if err != nil {
		return "", err
	}
	sec.NewKey("OPENDNS_USER", c.Username)
	sec.NewKey("OPENDNS_PASS", c.Password)
	sec.NewKey("NETWORK_ID", c.NetworkID)
	sec.NewKey("SCREENSHOT_PATH", c.ScreenshotPath)
	sec.NewKey("BLOCKED_CATEGORIES", SerializeCategories(blocked))
	sec.NewKey("ALLOWED_CATEGORIES", SerializeCategories(allowed))

	var sb strings.Builder
	if _, err := f.WriteTo(&sb); err != nil {
		return "", fmt.Errorf("serialize snapshot: %w", err)
	}

	// Human-readable summary, ignored by the INI parser.
	sb.WriteString("\n# [Summary]\n")
	for _, s := range status {
		state := "Allowed"
		if s.Blocked {
			state = "Blocked"
		}
		fmt.Fprintf(&sb, "# %s: %s\n", s.Name, state)
	}

	path := fmt.Sprintf("%s.%s", DefaultConfigFile, Timestamp(time.Now()))
	if err := os.WriteFile(path, []byte(sb.String()), 0600); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	return path, nil
}

// LoadSnapshot reads a snapshot (or hand-written config) for --apply.
// BLOCKED_CATEGORIES is preferred; CATEGORIES is accepted as a fallback so
// plain config files work too.
func LoadSnapshot(path string) (Config, []string, error) {
	f, err := ini.Load(path)
	if err != nil {
		return Config{}, nil, fmt.Errorf("load snapshot %s: %w", path, err)
	}

	sec := f.Section(Section)
	cfg := defaultConfig()
	cfg.Source = path
	cfg.Username = sec.Key("OPENDNS_USER").String()
	cfg.Password = sec.Key("OPENDNS_PASS").String()
	cfg.NetworkID = sec.Key("NETWORK_ID").String()
	if v := sec.Key("SCREENSHOT_PATH").String(); v != "" {
		cfg.ScreenshotPath = v
	}

	raw := sec.Key("BLOCKED_CATEGORIES").String()
	if raw == "" {
		raw = sec.Key("CATEGORIES").String()
	}
	if raw == "" {
		return Config{}, nil, fmt.Errorf("snapshot %s: no BLOCKED_CATEGORIES or CATEGORIES key", path)
	}

	return cfg, ParseCategories(raw), nil
}

// WriteSample generates a starter config listing every known category and
// returns the path, named opendns.conf.sample.<ts>.
func WriteSample(categories []string, screenshotPath string) (string, error) {
	path := fmt.Sprintf("%s.sample.%s", DefaultConfigFile, Timestamp(time.Now()))
	content := fmt.Sprintf(
		"[%s]\nOPENDNS_USER = \nOPENDNS_PASS = \nNETWORK_ID = \nSCREENSHOT_PATH = %s\nCATEGORIES = %s\n",
		Section, screenshotPath, SerializeCategories(categories),
	)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return "", fmt.Errorf("write sample config: %w", err)
	}
	return path, nil
}
