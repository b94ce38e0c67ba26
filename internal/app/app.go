// Package app wires configuration, authentication, the dashboard workflow,
// diagnostics, and run history into the CLI's run modes.
package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"opendnsctl/internal/auth"
	"opendnsctl/internal/browser"
	"opendnsctl/internal/config"
	"opendnsctl/internal/dashboard"
	"opendnsctl/internal/diag"
	"opendnsctl/internal/history"
	"opendnsctl/internal/scheduler"
)

// App holds the state for one invocation.
type App struct {
	cfg     config.Config
	log     *zap.Logger
	out     io.Writer
	cookies *auth.CookieStore
	history *history.Store // nil disables run recording
	debug   bool
}

// New creates an App. historyStore may be nil.
func New(cfg config.Config, log *zap.Logger, out io.Writer, cookies *auth.CookieStore, historyStore *history.Store, debug bool) *App {
	return &App{
		cfg:     cfg,
		log:     log,
		out:     out,
		cookies: cookies,
		history: historyStore,
		debug:   debug,
	}
}

// RunToggle blocks (block=true, --off) or allows (--on) the configured
// categories. Scope is the configured category list; categories the user
// never configured are left alone.
func (a *App) RunToggle(ctx context.Context, block bool) error {
	mode := "on"
	if block {
		mode = "off"
	}
	return a.recorded(mode, func(rec *history.Run) error {
		if err := a.cfg.RequireCredentials(); err != nil {
			return err
		}

		sess, capturer, err := a.openSession(ctx)
		if err != nil {
			return err
		}
		defer sess.Close()

		available, err := a.reachFilteringPage(sess, a.cfg)
		if err != nil {
			a.captureErrorScreenshot(sess, capturer)
			return err
		}

		for _, name := range dashboard.MissingCategories(available, a.cfg.Categories) {
			a.log.Warn("configured category not found on page", zap.String("category", name))
		}

		before, err := sess.Status(available)
		if err != nil {
			a.captureErrorScreenshot(sess, capturer)
			return err
		}
		a.printStatus("Status before changes:", before)

		scoped := scopeToConfigured(available, a.cfg.Categories)
		var blockList []string
		if block {
			blockList = a.cfg.Categories
		}
		plan := dashboard.PlanToggles(scoped, blockList)
		rec.CategoriesChanged = len(plan)

		if err := sess.ApplyToggles(plan); err != nil {
			a.captureErrorScreenshot(sess, capturer)
			return err
		}
		if err := sess.Save(); err != nil {
			a.captureErrorScreenshot(sess, capturer)
			return err
		}

		after, err := sess.Status(available)
		if err != nil {
			a.captureErrorScreenshot(sess, capturer)
			return err
		}
		a.printStatus("Status after changes:", after)

		snapshot, err := config.WriteSnapshot(a.cfg, toCategoryStatus(after))
		if err != nil {
			a.log.Warn("could not write state snapshot", zap.Error(err))
		} else {
			rec.Artifacts = append(rec.Artifacts, snapshot)
			fmt.Fprintf(a.out, "Configuration saved to: %s\n", snapshot)
		}
		return nil
	})
}

// RunLogin verifies authentication and prints the current filter status.
// With saveCurrent it also writes a re-appliable snapshot.
func (a *App) RunLogin(ctx context.Context, saveCurrent bool) error {
	mode := "login"
	if saveCurrent {
		mode = "login-save-current"
	}
	return a.recorded(mode, func(rec *history.Run) error {
		if err := a.cfg.RequireCredentials(); err != nil {
			return err
		}

		sess, capturer, err := a.openSession(ctx)
		if err != nil {
			return err
		}
		defer sess.Close()

		available, err := a.reachFilteringPage(sess, a.cfg)
		if err != nil {
			a.captureErrorScreenshot(sess, capturer)
			return err
		}

		status, err := sess.Status(available)
		if err != nil {
			a.captureErrorScreenshot(sess, capturer)
			return err
		}
		a.printStatus("Current filter status after login:", status)

		if saveCurrent {
			snapshot, err := config.WriteSnapshot(a.cfg, toCategoryStatus(status))
			if err != nil {
				return err
			}
			rec.Artifacts = append(rec.Artifacts, snapshot)
			fmt.Fprintf(a.out, "Configuration saved to: %s\n", snapshot)
		}
		return nil
	})
}

// RunApply applies a previously saved snapshot: the snapshot's blocked list
// becomes the full desired state for every category on the page. The active
// config file is backed up first.
func (a *App) RunApply(ctx context.Context, path string) error {
	return a.recorded("apply", func(rec *history.Run) error {
		if a.cfg.Source != "" {
			backup, err := config.Backup(a.cfg.Source)
			if err != nil {
				return err
			}
			a.log.Info("active config backed up", zap.String("path", backup))
		}

		snapCfg, blocked, err := config.LoadSnapshot(path)
		if err != nil {
			return err
		}
		if err := snapCfg.RequireCredentials(); err != nil {
			return err
		}
		// Keep the invocation's browser settings; the snapshot only carries
		// account state.
		snapCfg.Browser = a.cfg.Browser
		snapCfg.Headless = a.cfg.Headless

		sess, capturer, err := a.openSession(ctx)
		if err != nil {
			return err
		}
		defer sess.Close()

		available, err := a.reachFilteringPage(sess, snapCfg)
		if err != nil {
			a.captureErrorScreenshot(sess, capturer)
			return err
		}

		before, err := sess.Status(available)
		if err != nil {
			a.captureErrorScreenshot(sess, capturer)
			return err
		}
		a.printStatus("Status before applying configuration:", before)

		plan := dashboard.PlanToggles(before, blocked)
		rec.CategoriesChanged = len(plan)

		if err := sess.ApplyToggles(plan); err != nil {
			a.captureErrorScreenshot(sess, capturer)
			return err
		}
		if err := sess.Save(); err != nil {
			a.captureErrorScreenshot(sess, capturer)
			return err
		}

		after, err := sess.Status(available)
		if err != nil {
			a.captureErrorScreenshot(sess, capturer)
			return err
		}
		a.printStatus("Status after applying configuration:", after)
		fmt.Fprintln(a.out, "Configuration applied successfully.")
		return nil
	})
}

// RunSchedule starts the cron daemon and blocks until ctx is done.
func (a *App) RunSchedule(ctx context.Context) error {
	if !a.cfg.Schedule.Configured() {
		return fmt.Errorf("no [%s] section configured; set BLOCK_AT and/or ALLOW_AT", config.ScheduleSection)
	}
	if err := a.cfg.RequireCredentials(); err != nil {
		return err
	}

	sched, err := scheduler.New(a.cfg.Schedule.Timezone, a.log)
	if err != nil {
		return err
	}
	if spec := a.cfg.Schedule.BlockAt; spec != "" {
		if err := sched.AddJob("block", spec, func(jobCtx context.Context) error {
			return a.RunToggle(jobCtx, true)
		}); err != nil {
			return err
		}
	}
	if spec := a.cfg.Schedule.AllowAt; spec != "" {
		if err := sched.AddJob("allow", spec, func(jobCtx context.Context) error {
			return a.RunToggle(jobCtx, false)
		}); err != nil {
			return err
		}
	}

	sched.Start()
	a.log.Info("schedule daemon running")
	<-ctx.Done()
	<-sched.Stop().Done()
	return nil
}

// ListCategories prints the configured categories, one per line.
func (a *App) ListCategories(w io.Writer) {
	for _, name := range a.cfg.Categories {
		fmt.Fprintln(w, name)
	}
}

// ListAllCategories prints every known category and writes a sample config.
func (a *App) ListAllCategories(w io.Writer) error {
	for _, name := range dashboard.KnownCategories {
		fmt.Fprintln(w, name)
	}
	path, err := config.WriteSample(dashboard.KnownCategories, a.cfg.ScreenshotPath)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Generated sample config: %s\n", path)
	return nil
}

// ShowHistory prints recent run outcomes.
func (a *App) ShowHistory(w io.Writer, limit int) error {
	if a.history == nil {
		return fmt.Errorf("run history is not available")
	}
	runs, err := a.history.Recent(limit)
	if err != nil {
		return err
	}
	for _, r := range runs {
		outcome := "ok"
		if !r.Success {
			outcome = "failed: " + r.Error
		}
		fmt.Fprintf(w, "%s  %-20s %d toggled  %s\n",
			r.StartedAt.Format(time.RFC3339), r.Mode, r.CategoriesChanged, outcome)
	}
	return nil
}

// ForgetSession discards the stored dashboard session.
func (a *App) ForgetSession() error {
	if a.cookies == nil {
		return fmt.Errorf("session store is not available")
	}
	if err := a.cookies.Clear(); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Stored session cleared.")
	return nil
}

// openSession launches the browser with the run's settings.
func (a *App) openSession(ctx context.Context) (*dashboard.Session, *diag.Capturer, error) {
	execPath, err := browser.ResolveExecPath(a.cfg.Browser)
	if err != nil {
		return nil, nil, err
	}
	capturer := diag.New(diag.DefaultDir, a.debug, a.log)
	sess, err := dashboard.Open(ctx, dashboard.Options{
		Headless: a.cfg.Headless,
		ExecPath: execPath,
		Capturer: capturer,
		Logger:   a.log,
	})
	if err != nil {
		return nil, nil, err
	}
	return sess, capturer, nil
}

// reachFilteringPage authenticates (reusing a stored session when valid),
// resolves the network id, opens the filtering page in custom mode, and
// returns the categories found there.
func (a *App) reachFilteringPage(sess *dashboard.Session, cfg config.Config) ([]dashboard.Category, error) {
	if a.cookies != nil && a.cookies.IsValid(cfg.Password) {
		if stored, err := a.cookies.DashboardCookies(cfg.Password); err == nil {
			if err := sess.InjectCookies(stored); err != nil {
				a.log.Debug("stored cookies not injected", zap.Error(err))
			}
		}
	}

	if err := sess.Login(cfg.Username, cfg.Password); err != nil {
		return nil, err
	}

	if a.cookies != nil {
		if cookies, err := sess.Cookies(); err == nil {
			if err := a.cookies.Save(cookies, cfg.Password); err != nil {
				a.log.Debug("session cookies not persisted", zap.Error(err))
			}
		}
	}

	networkID, err := sess.ResolveNetworkID(cfg.NetworkID)
	if err != nil {
		return nil, err
	}
	if err := sess.EnsureCustomFiltering(networkID); err != nil {
		return nil, err
	}
	return sess.Categories()
}

// captureErrorScreenshot writes the configured error screenshot in debug
// mode. Best effort; the original failure stays the error of record.
func (a *App) captureErrorScreenshot(sess *dashboard.Session, capturer *diag.Capturer) {
	if !a.debug || capturer == nil {
		return
	}
	if err := capturer.ScreenshotTo(sess.Context(), a.cfg.ScreenshotPath); err != nil {
		a.log.Debug("error screenshot not captured", zap.Error(err))
	}
}

// recorded wraps a run mode with history recording.
func (a *App) recorded(mode string, fn func(*history.Run) error) error {
	rec := history.Run{Mode: mode, StartedAt: time.Now()}
	err := fn(&rec)
	rec.FinishedAt = time.Now()
	rec.Success = err == nil
	if err != nil {
		rec.Error = err.Error()
	}

	if a.history != nil {
		if recErr := a.history.Record(rec); recErr != nil {
			a.log.Warn("run not recorded to history", zap.Error(recErr))
		}
	}
	return err
}

func (a *App) printStatus(header string, status []dashboard.Category) {
	fmt.Fprintln(a.out, header)
	for _, cat := range status {
		state := "Allowed"
		if cat.Blocked {
			state = "Blocked"
		}
		fmt.Fprintf(a.out, "%s: %s\n", cat.Name, state)
	}
}

// scopeToConfigured narrows page categories to the configured list,
// preserving page order.
func scopeToConfigured(available []dashboard.Category, configured []string) []dashboard.Category {
	want := make(map[string]bool, len(configured))
	for _, name := range configured {
		want[name] = true
	}
	var scoped []dashboard.Category
	for _, cat := range available {
		if want[cat.Name] {
			scoped = append(scoped, cat)
		}
	}
	return scoped
}

func toCategoryStatus(status []dashboard.Category) []config.CategoryStatus {
	out := make([]config.CategoryStatus, len(status))
	for i, cat := range status {
		out[i] = config.CategoryStatus{Name: cat.Name, Blocked: cat.Blocked}
	}
	return out
}
