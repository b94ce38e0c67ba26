package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"
)

const (
	// DefaultConfigFile is looked up in the working directory unless
	// OPENDNS_CONFIG or --config points elsewhere.
	DefaultConfigFile = "opendns.conf"

	// Section is the INI section all settings live under.
	Section = "opendns"

	// ScheduleSection holds the optional cron schedule for --schedule mode.
	ScheduleSection = "schedule"

	defaultCategories = "Video Sharing, Social Networking"
	defaultBrowser    = "chrome"
	defaultLogLevel   = "info"
	defaultLogFile    = "opendnsctl.log"
)

// ErrMissingCredentials is returned when OPENDNS_USER or OPENDNS_PASS is
// absent from the config file, the environment, and the CLI.
var ErrMissingCredentials = errors.New("OPENDNS_USER and OPENDNS_PASS must be set in the config file or environment")

// Config is the effective configuration for a single run.
type Config struct {
	Username       string
	Password       string
	NetworkID      string
	Categories     []string
	ScreenshotPath string
	Browser        string
	Headless       bool
	LogLevel       string
	LogFile        string
	Schedule       Schedule

	// Source is the config file the settings were resolved from, if any.
	Source string
}

// Schedule configures --schedule mode: cron specs for when to apply the
// block list and when to clear it.
type Schedule struct {
	BlockAt  string
	AllowAt  string
	Timezone string
}

// Configured reports whether at least one schedule entry is set.
func (s Schedule) Configured() bool {
	return s.BlockAt != "" || s.AllowAt != ""
}

// CLIOverrides holds command-line flag overrides. Nil pointers mean the
// flag was not passed.
type CLIOverrides struct {
	ConfigFile     string
	NetworkID      *string
	Categories     *string
	ScreenshotPath *string
	Browser        *string
	Headless       *bool
	LogLevel       *string
	LogFile        *string
}

// Load resolves configuration with precedence CLI > env > file > default.
func Load(overrides *CLIOverrides) (Config, error) {
	cfg := defaultConfig()

	path := DefaultConfigFile
	explicit := false
	if env := strings.TrimSpace(os.Getenv("OPENDNS_CONFIG")); env != "" {
		path = env
		explicit = true
	}
	if overrides != nil && overrides.ConfigFile != "" {
		path = overrides.ConfigFile
		explicit = true
	}

	if err := applyFile(&cfg, path, explicit); err != nil {
		return Config{}, err
	}
	applyEnv(&cfg)
	applyCLIOverrides(&cfg, overrides)

	return cfg, nil
}

// RequireCredentials reports ErrMissingCredentials when the resolved config
// carries no usable username/password pair.
func (c Config) RequireCredentials() error {
	if c.Username == "" || c.Password == "" {
		return ErrMissingCredentials
	}
	return nil
}

func defaultConfig() Config {
	return Config{
		Categories:     ParseCategories(defaultCategories),
		ScreenshotPath: filepath.Join(os.TempDir(), "opendns_error.png"),
		Browser:        defaultBrowser,
		Headless:       true,
		LogLevel:       defaultLogLevel,
		LogFile:        defaultLogFile,
	}
}

// applyFile merges values from the INI file at path. A missing file is only
// an error when the path was given explicitly.
func applyFile(cfg *Config, path string, explicit bool) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) && !explicit {
			return nil
		}
		return fmt.Errorf("config file %s: %w", path, err)
	}

	f, err := ini.Load(path)
	if err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	cfg.Source = path

	sec := f.Section(Section)
	if v := sec.Key("OPENDNS_USER").String(); v != "" {
		cfg.Username = v
	}
	if v := sec.Key("OPENDNS_PASS").String(); v != "" {
		cfg.Password = v
	}
	if v := sec.Key("NETWORK_ID").String(); v != "" {
		cfg.NetworkID = v
	}
	if v := sec.Key("CATEGORIES").String(); v != "" {
		cfg.Categories = ParseCategories(v)
	}
	if v := sec.Key("SCREENSHOT_PATH").String(); v != "" {
		cfg.ScreenshotPath = v
	}
	if v := sec.Key("BROWSER").String(); v != "" {
		cfg.Browser = strings.ToLower(v)
	}
	if v := sec.Key("HEADLESS").String(); v != "" {
		cfg.Headless = ParseBool(v)
	}

	sched := f.Section(ScheduleSection)
	cfg.Schedule.BlockAt = sched.Key("BLOCK_AT").String()
	cfg.Schedule.AllowAt = sched.Key("ALLOW_AT").String()
	cfg.Schedule.Timezone = sched.Key("TIMEZONE").String()
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("OPENDNS_USER"); v != "" {
		cfg.Username = v
	}
	if v := os.Getenv("OPENDNS_PASS"); v != "" {
		cfg.Password = v
	}
	if v := os.Getenv("NETWORK_ID"); v != "" {
		cfg.NetworkID = v
	}
	if v := os.Getenv("CATEGORIES"); v != "" {
		cfg.Categories = ParseCategories(v)
	}
	if v := os.Getenv("SCREENSHOT_PATH"); v != "" {
		cfg.ScreenshotPath = v
	}
	if v := os.Getenv("BROWSER"); v != "" {
		cfg.Browser = strings.ToLower(v)
	}
	if v := os.Getenv("HEADLESS"); v != "" {
		cfg.Headless = ParseBool(v)
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v := os.Getenv("LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
}

func applyCLIOverrides(cfg *Config, overrides *CLIOverrides) {
	if overrides == nil {
		return
	}
	if overrides.NetworkID != nil && *overrides.NetworkID != "" {
		cfg.NetworkID = *overrides.NetworkID
	}
	if overrides.Categories != nil && *overrides.Categories != "" {
		cfg.Categories = ParseCategories(*overrides.Categories)
	}
	if overrides.ScreenshotPath != nil && *overrides.ScreenshotPath != "" {
		cfg.ScreenshotPath = *overrides.ScreenshotPath
	}
	if overrides.Browser != nil && *overrides.Browser != "" {
		cfg.Browser = strings.ToLower(*overrides.Browser)
	}
	if overrides.Headless != nil {
		cfg.Headless = *overrides.Headless
	}
	if overrides.LogLevel != nil && *overrides.LogLevel != "" {
		cfg.LogLevel = strings.ToLower(*overrides.LogLevel)
	}
	if overrides.LogFile != nil && *overrides.LogFile != "" {
		cfg.LogFile = *overrides.LogFile
	}
}

// ParseCategories splits a comma-separated category list, trimming
// whitespace and dropping empty entries. Order is preserved.
func ParseCategories(raw string) []string {
	parts := strings.Split(raw, ",")
	categories := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		categories = append(categories, part)
	}
	return categories
}

// SerializeCategories is the inverse of ParseCategories.
func SerializeCategories(categories []string) string {
	return strings.Join(categories, ", ")
}

// ParseBool accepts the truthy spellings the original tooling did.
func ParseBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "yes", "1", "t":
		return true
	default:
		return false
	}
}
