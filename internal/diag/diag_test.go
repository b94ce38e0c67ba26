package diag

import (
	"context"
	"regexp"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestFilename(t *testing.T) {
	ts := time.Date(2025, 3, 9, 14, 5, 7, 0, time.UTC)
	got := Filename(ts, "login_error", ".png")
	if want := "20250309140507_login_error.png"; got != want {
		t.Fatalf("Filename = %q, want %q", got, want)
	}
	if !regexp.MustCompile(`^\d{14}_`).MatchString(got) {
		t.Fatalf("artifact names must be timestamp-first: %q", got)
	}
}

func TestDisabledCapturerIsNoOp(t *testing.T) {
	c := New(t.TempDir(), false, zap.NewNop())

	// No browser context behind this ctx; a disabled capturer must never
	// reach chromedp.
	path, err := c.Screenshot(context.Background(), "stage")
	if err != nil || path != "" {
		t.Fatalf("disabled Screenshot = (%q, %v), want no-op", path, err)
	}
	path, err = c.PageSource(context.Background(), "stage")
	if err != nil || path != "" {
		t.Fatalf("disabled PageSource = (%q, %v), want no-op", path, err)
	}
	if paths := c.CaptureFailure(context.Background(), "stage"); len(paths) != 0 {
		t.Fatalf("disabled CaptureFailure wrote artifacts: %v", paths)
	}
}

func TestDefaultDir(t *testing.T) {
	c := New("", true, zap.NewNop())
	if c.Dir() != DefaultDir {
		t.Fatalf("expected default dir %q, got %q", DefaultDir, c.Dir())
	}
}
