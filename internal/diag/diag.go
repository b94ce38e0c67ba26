// Package diag captures timestamped screenshots and page-source dumps for
// debugging failed automation runs.
package diag

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"opendnsctl/internal/config"
)

// DefaultDir is where artifacts land relative to the working directory.
const DefaultDir = "screenshots"

// Capturer writes diagnostic artifacts. When not enabled (no --debug), every
// capture is a silent no-op so callers can sprinkle captures freely.
type Capturer struct {
	dir     string
	enabled bool
	log     *zap.Logger
}

// New creates a Capturer writing into dir. An empty dir means DefaultDir.
func New(dir string, enabled bool, log *zap.Logger) *Capturer {
	if dir == "" {
		dir = DefaultDir
	}
	return &Capturer{dir: dir, enabled: enabled, log: log}
}

// Enabled reports whether captures will be written.
func (c *Capturer) Enabled() bool { return c.enabled }

// Dir returns the artifacts directory.
func (c *Capturer) Dir() string { return c.dir }

// Filename builds a timestamp-first artifact name so directory listings sort
// chronologically.
func Filename(t time.Time, stage, ext string) string {
	return fmt.Sprintf("%s_%s%s", config.Timestamp(t), stage, ext)
}

// Screenshot captures the current page as PNG. Returns the written path, or
// "" when disabled.
func (c *Capturer) Screenshot(ctx context.Context, stage string) (string, error) {
	if !c.enabled {
		return "", nil
	}
	path := filepath.Join(c.dir, Filename(time.Now(), stage, ".png"))
	if err := c.ScreenshotTo(ctx, path); err != nil {
		return "", err
	}
	return path, nil
}

// ScreenshotTo captures the current page as PNG to an explicit path,
// regardless of the debug gate. Used for the configured SCREENSHOT_PATH.
func (c *Capturer) ScreenshotTo(ctx context.Context, path string) error {
	var png []byte
	if err := chromedp.Run(ctx, chromedp.CaptureScreenshot(&png)); err != nil {
		return fmt.Errorf("capture screenshot: %w", err)
	}
	if err := c.write(path, png); err != nil {
		return err
	}
	c.log.Info("screenshot saved", zap.String("path", path))
	return nil
}

// PageSource dumps the page HTML. Returns the written path, or "" when
// disabled.
func (c *Capturer) PageSource(ctx context.Context, stage string) (string, error) {
	if !c.enabled {
		return "", nil
	}
	var html string
	if err := chromedp.Run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("capture page source: %w", err)
	}
	path := filepath.Join(c.dir, Filename(time.Now(), stage, ".html"))
	if err := c.write(path, []byte(html)); err != nil {
		return "", err
	}
	c.log.Info("page source saved", zap.String("path", path))
	return path, nil
}

// CaptureFailure records both artifact kinds for an error path and returns
// whatever paths were written.
func (c *Capturer) CaptureFailure(ctx context.Context, stage string) []string {
	var paths []string
	if p, err := c.Screenshot(ctx, stage); err == nil && p != "" {
		paths = append(paths, p)
	} else if err != nil {
		c.log.Debug("failure screenshot not captured", zap.String("stage", stage), zap.Error(err))
	}
	if p, err := c.PageSource(ctx, stage); err == nil && p != "" {
		paths = append(paths, p)
	} else if err != nil {
		c.log.Debug("failure page source not captured", zap.String("stage", stage), zap.Error(err))
	}
	return paths
}

func (c *Capturer) write(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create artifacts dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write artifact: %w", err)
	}
	return nil
}
