// Package browser provides shared chromedp allocator configuration.
package browser

import (
	"fmt"
	"os"

	"github.com/chromedp/chromedp"
)

// Options returns chromedp allocator options for a run. execPath may be
// empty, in which case chromedp discovers the browser itself.
func Options(headless bool, execPath string) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", headless),

		// Prevent navigator.webdriver = true detection
		chromedp.Flag("disable-blink-features", "AutomationControlled"),

		chromedp.WindowSize(1920, 1080),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("no-default-browser-check", true),
	)

	if headless {
		opts = append(opts, chromedp.Flag("disable-gpu", true))
	}
	if execPath != "" {
		opts = append(opts, chromedp.ExecPath(execPath))
	}

	return opts
}

// ResolveExecPath maps the BROWSER setting to a browser executable.
// CHROME_BINARY always wins; "chrome" means chromedp's own discovery;
// anything containing a path separator is used verbatim; other values are
// treated as executable names on PATH. Browsers that don't speak the
// Chrome DevTools protocol are rejected outright.
func ResolveExecPath(browser string) (string, error) {
	if bin := os.Getenv("CHROME_BINARY"); bin != "" {
		return bin, nil
	}
	switch browser {
	case "", "chrome":
		return "", nil
	case "chromium":
		return "chromium", nil
	case "brave":
		return "brave-browser", nil
	case "edge":
		return "microsoft-edge", nil
	case "firefox", "safari":
		return "", fmt.Errorf("browser %q is not Chromium-based; set BROWSER to chrome, chromium, brave, edge, or a Chromium binary path", browser)
	default:
		return browser, nil
	}
}
