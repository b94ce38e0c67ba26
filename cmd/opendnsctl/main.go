// Command opendnsctl toggles OpenDNS content-filtering categories by
// driving the dashboard in a Chromium browser.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"opendnsctl/internal/app"
	"opendnsctl/internal/auth"
	"opendnsctl/internal/config"
	"opendnsctl/internal/history"
	"opendnsctl/internal/logging"
)

func main() {
	cli := kingpin.New("opendnsctl", "Toggle OpenDNS content-filtering categories or verify login")

	// Run modes, mutually exclusive.
	on := cli.Flag("on", "Allow the configured categories").Bool()
	off := cli.Flag("off", "Block the configured categories").Bool()
	listCategories := cli.Flag("list-categories", "List configured categories and exit").Short('l').Bool()
	listAllCategories := cli.Flag("list-all-categories", "List all known categories and generate a sample config").Bool()
	login := cli.Flag("login", "Verify authentication and print current filter status").Bool()
	loginSaveCurrent := cli.Flag("login-save-current", "Login and save current configuration to a file").Bool()
	applyFile := cli.Flag("apply", "Apply configuration from the given snapshot file").PlaceHolder("FILE").String()
	showHistory := cli.Flag("history", "Show recent run outcomes").Bool()
	schedule := cli.Flag("schedule", "Run as a daemon applying the [schedule] config section").Bool()
	forgetSession := cli.Flag("forget-session", "Clear the stored dashboard session").Bool()

	// Setting overrides.
	configFile := cli.Flag("config", "Path to INI config file").String()
	networkID := cli.Flag("network-id", "OpenDNS network id").String()
	categories := cli.Flag("categories", "Comma-separated category list").String()
	screenshotPath := cli.Flag("screenshot-path", "Error screenshot target path").String()
	browserName := cli.Flag("browser", "Browser to drive (chrome, chromium, brave, edge, or a path)").String()
	headless := cli.Flag("headless", "Run the browser headless (true/false)").PlaceHolder("true|false").String()
	debug := cli.Flag("debug", "Save screenshots and page-source dumps at each stage").Bool()
	logLevel := cli.Flag("log-level", "Log level (debug, info, warn, error)").String()
	logFile := cli.Flag("log-file", "Log file path").String()

	kingpin.MustParse(cli.Parse(os.Args[1:]))

	overrides := &config.CLIOverrides{
		ConfigFile:     *configFile,
		NetworkID:      networkID,
		Categories:     categories,
		ScreenshotPath: screenshotPath,
		Browser:        browserName,
		LogLevel:       logLevel,
		LogFile:        logFile,
	}
	if *headless != "" {
		v := config.ParseBool(*headless)
		overrides.Headless = &v
	}

	cfg, err := config.Load(overrides)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	mode := selectedMode(*on, *off, *listCategories, *listAllCategories,
		*login, *loginSaveCurrent, *applyFile != "", *showHistory, *schedule, *forgetSession)
	switch mode {
	case modeNone:
		cli.Usage(nil)
		printExamples()
		return
	case modeConflict:
		fmt.Fprintln(os.Stderr, "choose exactly one of --on, --off, --list-categories, --list-all-categories, --login, --login-save-current, --apply, --history, --schedule, --forget-session")
		os.Exit(1)
	}

	runs := historyStore(logger)
	if runs != nil {
		defer runs.Close()
	}

	a := app.New(cfg, logger, os.Stdout, cookieStore(logger), runs, *debug)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, a, mode, *applyFile); err != nil {
		logger.Error("run failed", zap.String("mode", mode.String()), zap.Error(err))
		os.Exit(1)
	}
}

type runMode int

const (
	modeNone runMode = iota
	modeConflict
	modeOn
	modeOff
	modeListCategories
	modeListAllCategories
	modeLogin
	modeLoginSaveCurrent
	modeApply
	modeHistory
	modeSchedule
	modeForgetSession
)

func (m runMode) String() string {
	switch m {
	case modeOn:
		return "on"
	case modeOff:
		return "off"
	case modeListCategories:
		return "list-categories"
	case modeListAllCategories:
		return "list-all-categories"
	case modeLogin:
		return "login"
	case modeLoginSaveCurrent:
		return "login-save-current"
	case modeApply:
		return "apply"
	case modeHistory:
		return "history"
	case modeSchedule:
		return "schedule"
	case modeForgetSession:
		return "forget-session"
	default:
		return "none"
	}
}

// selectedMode enforces mutual exclusion across the run-mode flags.
func selectedMode(flags ...bool) runMode {
	selected := modeNone
	for i, set := range flags {
		if !set {
			continue
		}
		if selected != modeNone {
			return modeConflict
		}
		selected = modeOn + runMode(i)
	}
	return selected
}

func run(ctx context.Context, a *app.App, mode runMode, applyFile string) error {
	switch mode {
	case modeOn:
		return a.RunToggle(ctx, false)
	case modeOff:
		return a.RunToggle(ctx, true)
	case modeListCategories:
		a.ListCategories(os.Stdout)
		return nil
	case modeListAllCategories:
		return a.ListAllCategories(os.Stdout)
	case modeLogin:
		return a.RunLogin(ctx, false)
	case modeLoginSaveCurrent:
		return a.RunLogin(ctx, true)
	case modeApply:
		return a.RunApply(ctx, applyFile)
	case modeHistory:
		return a.ShowHistory(os.Stdout, 20)
	case modeSchedule:
		return a.RunSchedule(ctx)
	case modeForgetSession:
		return a.ForgetSession()
	default:
		return fmt.Errorf("unknown mode")
	}
}

func cookieStore(logger *zap.Logger) *auth.CookieStore {
	path, err := auth.DefaultCookieStorePath()
	if err != nil {
		logger.Warn("session persistence disabled", zap.Error(err))
		return nil
	}
	return auth.NewCookieStore(path)
}

func historyStore(logger *zap.Logger) *history.Store {
	path, err := history.DefaultPath()
	if err != nil {
		logger.Warn("run history disabled", zap.Error(err))
		return nil
	}
	store, err := history.New(path)
	if err != nil {
		logger.Warn("run history disabled", zap.Error(err))
		return nil
	}
	return store
}

func printExamples() {
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  opendnsctl --off                   # Block configured categories")
	fmt.Println("  opendnsctl --on                    # Allow configured categories")
	fmt.Println("  opendnsctl -l                      # List configured categories")
	fmt.Println("  opendnsctl --login                 # Verify login credentials")
	fmt.Println("  opendnsctl --login-save-current    # Login and save current configuration")
	fmt.Println("  opendnsctl --apply opendns.conf.20250101120000")
	fmt.Println("  opendnsctl --list-all-categories   # Show known categories and make a sample config")
	fmt.Println("  opendnsctl --schedule              # Run block/allow jobs from the [schedule] section")
}
