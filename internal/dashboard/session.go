// Package dashboard drives the OpenDNS dashboard through a Chromium
// browser: login, content-filtering navigation, category toggling, and
// settings application. The workflow is strictly linear and failures are
// terminal; the browser session is released on every exit path.
package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"opendnsctl/internal/browser"
	"opendnsctl/internal/diag"
)

const (
	defaultRunTimeout  = 5 * time.Minute
	loginWaitTimeout   = 30 * time.Second
	confirmWaitTimeout = 20 * time.Second
)

// Options configures a browser session.
type Options struct {
	Headless bool
	ExecPath string
	Timeout  time.Duration // whole-run limit, defaultRunTimeout when zero
	Capturer *diag.Capturer
	Logger   *zap.Logger
}

// Session is one open browser session against the dashboard.
type Session struct {
	ctx     context.Context
	cancels []context.CancelFunc
	limiter *rate.Limiter
	diag    *diag.Capturer
	log     *zap.Logger
}

// Open launches the browser. The caller must Close the session on every
// path, typically via defer.
func Open(ctx context.Context, opts Options) (*Session, error) {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = defaultRunTimeout
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, browser.Options(opts.Headless, opts.ExecPath)...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	browserCtx, timeoutCancel := context.WithTimeout(browserCtx, timeout)

	s := &Session{
		ctx:     browserCtx,
		cancels: []context.CancelFunc{timeoutCancel, browserCancel, allocCancel},
		// Pace page interactions; the dashboard is not built for rapid-fire clicks.
		limiter: rate.NewLimiter(rate.Every(400*time.Millisecond), 1),
		diag:    opts.Capturer,
		log:     opts.Logger,
	}

	// Start the browser now so a missing binary fails before any workflow step.
	if err := chromedp.Run(browserCtx); err != nil {
		s.Close()
		return nil, fmt.Errorf("launch browser: %w", err)
	}
	return s, nil
}

// Close releases the browser session. Safe to call more than once.
func (s *Session) Close() {
	for _, cancel := range s.cancels {
		cancel()
	}
}

// Context exposes the browser context for diagnostic captures.
func (s *Session) Context() context.Context { return s.ctx }

// fail captures diagnostics for a workflow stage and returns the wrapped
// error unchanged in kind, so errors.Is/As still work on it.
func (s *Session) fail(stage string, err error) error {
	if s.diag != nil {
		if paths := s.diag.CaptureFailure(s.ctx, stage); len(paths) > 0 {
			s.log.Info("diagnostics captured", zap.String("stage", stage), zap.Strings("paths", paths))
		}
	}
	return err
}

// InjectCookies loads stored session cookies into the browser before
// navigation.
func (s *Session) InjectCookies(cookies []*network.Cookie) error {
	return chromedp.Run(s.ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		for _, c := range cookies {
			err := network.SetCookie(c.Name, c.Value).
				WithDomain(c.Domain).
				WithPath(c.Path).
				WithSecure(c.Secure).
				WithHTTPOnly(c.HTTPOnly).
				WithSameSite(c.SameSite).
				Do(ctx)
			if err != nil {
				return fmt.Errorf("inject cookie %s: %w", c.Name, err)
			}
		}
		return nil
	}))
}

// Cookies extracts all browser cookies, for persisting the session.
func (s *Session) Cookies() ([]*network.Cookie, error) {
	var cookies []*network.Cookie
	err := chromedp.Run(s.ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		cookies, err = storage.GetCookies().Do(ctx)
		return err
	}))
	return cookies, err
}

// Login authenticates against the signin page. Returns
// ErrAuthenticationFailed when the dashboard bounces the credentials and
// *ElementNotFoundError when the form is not where we expect it.
func (s *Session) Login(username, password string) error {
	s.log.Info("logging in to dashboard", zap.String("user", username))

	if err := chromedp.Run(s.ctx, chromedp.Navigate(SigninURL)); err != nil {
		return s.fail("login_navigate", fmt.Errorf("navigate to signin: %w", err))
	}

	// Already authenticated sessions are redirected off the signin page.
	if url, err := s.location(); err == nil && !strings.Contains(url, "/signin") {
		s.log.Info("existing session still valid, skipping login form")
		return nil
	}

	fieldCtx, cancel := context.WithTimeout(s.ctx, 15*time.Second)
	defer cancel()
	if err := chromedp.Run(fieldCtx, chromedp.WaitVisible(UsernameField, chromedp.ByQuery)); err != nil {
		return s.fail("login_form", &ElementNotFoundError{Selector: UsernameField})
	}

	err := chromedp.Run(s.ctx,
		chromedp.SendKeys(UsernameField, username, chromedp.ByQuery),
		chromedp.SendKeys(PasswordField, password, chromedp.ByQuery),
		chromedp.Click(SubmitButton, chromedp.ByQuery),
	)
	if err != nil {
		return s.fail("login_submit", fmt.Errorf("submit login form: %w", err))
	}

	// The dashboard redirects away from /signin on success.
	ok, err := s.pollUntil(loginWaitTimeout, func() (bool, error) {
		url, err := s.location()
		if err != nil {
			return false, nil
		}
		return !strings.Contains(url, "/signin"), nil
	})
	if err != nil {
		return s.fail("login_wait", fmt.Errorf("wait for login: %w", err))
	}
	if !ok {
		return s.fail("login_rejected", ErrAuthenticationFailed)
	}

	s.log.Info("login successful")
	return nil
}

// EnsureCustomFiltering opens the network's filtering page and selects the
// "custom" filtering level if it isn't already active.
func (s *Session) EnsureCustomFiltering(networkID string) error {
	url := ContentFilteringURL(networkID)
	s.log.Info("opening content filtering page", zap.String("url", url))

	if err := chromedp.Run(s.ctx, chromedp.Navigate(url)); err != nil {
		return s.fail("filtering_navigate", fmt.Errorf("navigate to filtering page: %w", err))
	}

	radioCtx, cancel := context.WithTimeout(s.ctx, 15*time.Second)
	defer cancel()
	if err := chromedp.Run(radioCtx, chromedp.WaitVisible(CustomRadio, chromedp.ByQuery)); err != nil {
		return s.fail("filtering_custom_radio", &ElementNotFoundError{Selector: CustomRadio})
	}

	var selected bool
	js := fmt.Sprintf(`(function() {
		var radio = document.querySelector(%s);
		if (!radio) return false;
		if (!radio.checked) radio.click();
		return true;
	})()`, jsString(CustomRadio))
	if err := chromedp.Run(s.ctx, chromedp.Evaluate(js, &selected)); err != nil {
		return s.fail("filtering_select_custom", fmt.Errorf("select custom filtering: %w", err))
	}
	if !selected {
		return s.fail("filtering_select_custom", &ElementNotFoundError{Selector: CustomRadio})
	}
	return nil
}

// PageHTML captures the current page's outer HTML.
func (s *Session) PageHTML() (string, error) {
	var html string
	if err := chromedp.Run(s.ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("capture page html: %w", err)
	}
	return html, nil
}

// Categories reads the filter categories from the current page.
func (s *Session) Categories() ([]Category, error) {
	html, err := s.PageHTML()
	if err != nil {
		return nil, s.fail("category_scan", err)
	}
	categories, err := ParseCategoryPage(html)
	if err != nil {
		return nil, s.fail("category_scan", err)
	}
	if len(categories) == 0 {
		return nil, s.fail("category_scan", &ElementNotFoundError{Selector: CategoryLabel})
	}
	s.log.Info("categories found on page", zap.Int("count", len(categories)))
	return categories, nil
}

// CheckboxStates reads the live checked state of every category checkbox.
// Unlike Categories this reflects clicks made since page load.
func (s *Session) CheckboxStates() (map[string]bool, error) {
	js := fmt.Sprintf(`(function() {
		var states = {};
		document.querySelectorAll('input[id^=%s]').forEach(function(el) {
			states[el.id] = el.checked;
		});
		return states;
	})()`, jsString(categoryIDPrefix))

	var states map[string]bool
	if err := chromedp.Run(s.ctx, chromedp.Evaluate(js, &states)); err != nil {
		return nil, fmt.Errorf("read checkbox states: %w", err)
	}
	return states, nil
}

// Status merges live checkbox state into the given categories, preserving
// their order.
func (s *Session) Status(categories []Category) ([]Category, error) {
	states, err := s.CheckboxStates()
	if err != nil {
		return nil, s.fail("status_read", err)
	}

	out := make([]Category, len(categories))
	for i, cat := range categories {
		cat.Blocked = states[cat.CheckboxID]
		out[i] = cat
	}
	return out, nil
}

// ApplyToggles clicks each planned checkbox, paced by the session limiter.
func (s *Session) ApplyToggles(toggles []Toggle) error {
	for _, t := range toggles {
		if err := s.limiter.Wait(s.ctx); err != nil {
			return fmt.Errorf("toggle pacing: %w", err)
		}

		var clicked bool
		js := fmt.Sprintf(`(function() {
			var el = document.getElementById(%s);
			if (!el) return false;
			el.click();
			return true;
		})()`, jsString(t.Category.CheckboxID))
		if err := chromedp.Run(s.ctx, chromedp.Evaluate(js, &clicked)); err != nil {
			return s.fail("toggle_"+stageName(t.Category.Name), fmt.Errorf("toggle %s: %w", t.Category.Name, err))
		}
		if !clicked {
			return s.fail("toggle_"+stageName(t.Category.Name), &ElementNotFoundError{Selector: t.Category.CheckboxID})
		}

		if t.Block {
			s.log.Info("blocked category", zap.String("category", t.Category.Name))
		} else {
			s.log.Info("allowed category", zap.String("category", t.Category.Name))
		}
	}
	return nil
}

// Save ticks "apply to all networks" when present, clicks apply, and waits
// for the dashboard's confirmation banner.
func (s *Session) Save() error {
	// Best effort: the apply-to-all checkbox is not always rendered.
	var ticked bool
	tickJS := fmt.Sprintf(`(function() {
		var el = document.getElementById(%s);
		if (!el) return false;
		if (!el.checked) el.click();
		return true;
	})()`, jsString(ApplyToAllID))
	if err := chromedp.Run(s.ctx, chromedp.Evaluate(tickJS, &ticked)); err == nil && ticked {
		s.log.Info("apply-to-all checkbox ticked")
	}

	var applied bool
	applyJS := fmt.Sprintf(`(function() {
		var el = document.getElementById(%s);
		if (!el) return false;
		el.click();
		return true;
	})()`, jsString(ApplyButtonID))
	if err := chromedp.Run(s.ctx, chromedp.Evaluate(applyJS, &applied)); err != nil {
		return s.fail("apply", fmt.Errorf("click apply: %w", err))
	}
	if !applied {
		return s.fail("apply", &ElementNotFoundError{Selector: "#" + ApplyButtonID})
	}
	s.log.Info("apply clicked, waiting for confirmation")

	confirmJS := fmt.Sprintf(`(function() {
		var el = document.getElementById(%s);
		if (el && /saved|updated/i.test(el.textContent)) return true;
		var divs = document.querySelectorAll('div');
		for (var i = 0; i < divs.length; i++) {
			if (/settings (have been )?(saved|updated)/i.test(divs[i].textContent)) return true;
		}
		return false;
	})()`, jsString(ConfirmationID))

	confirmed, err := s.pollUntil(confirmWaitTimeout, func() (bool, error) {
		var ok bool
		if err := chromedp.Run(s.ctx, chromedp.Evaluate(confirmJS, &ok)); err != nil {
			return false, nil
		}
		return ok, nil
	})
	if err != nil {
		return s.fail("apply_confirm", fmt.Errorf("wait for confirmation: %w", err))
	}
	if !confirmed {
		// The dashboard sometimes saves without rendering the banner.
		s.log.Warn("no confirmation banner found after apply")
	} else {
		s.log.Info("settings confirmed saved")
	}
	return nil
}

// NetworkIDs discovers the account's network ids from the settings page.
func (s *Session) NetworkIDs() ([]string, error) {
	if err := chromedp.Run(s.ctx, chromedp.Navigate(SettingsURL)); err != nil {
		return nil, s.fail("networks_navigate", fmt.Errorf("navigate to settings: %w", err))
	}
	html, err := s.PageHTML()
	if err != nil {
		return nil, s.fail("networks_scan", err)
	}
	ids, err := ParseNetworkIDs(html)
	if err != nil {
		return nil, s.fail("networks_scan", err)
	}
	return ids, nil
}

// ResolveNetworkID returns configured when set, otherwise auto-detects and
// accepts only an unambiguous single network.
func (s *Session) ResolveNetworkID(configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}
	ids, err := s.NetworkIDs()
	if err != nil {
		return "", err
	}
	if len(ids) != 1 {
		return "", ErrNetworkAmbiguous
	}
	s.log.Info("auto-detected network id", zap.String("network_id", ids[0]))
	return ids[0], nil
}

func (s *Session) location() (string, error) {
	var url string
	err := chromedp.Run(s.ctx, chromedp.Location(&url))
	return url, err
}

// pollUntil runs cond every 2 seconds until it returns true, the timeout
// elapses (false, nil), or the session context ends.
func (s *Session) pollUntil(timeout time.Duration, cond func() (bool, error)) (bool, error) {
	deadline := time.After(timeout)
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-deadline:
			return false, nil
		case <-ticker.C:
			ok, err := cond()
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		case <-s.ctx.Done():
			return false, s.ctx.Err()
		}
	}
}

// jsString JSON-encodes a string for safe embedding in Evaluate snippets;
// checkbox ids contain brackets.
func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

// stageName makes a category name safe for artifact filenames.
func stageName(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "_")
}
