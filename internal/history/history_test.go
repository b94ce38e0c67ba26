package history

import (
	"path/filepath"
	"testing"
	"time"
)

func TestRecordAndRecent(t *testing.T) {
	store, err := New(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	defer store.Close()

	base := time.Now().Add(-time.Hour).Truncate(time.Second)
	runs := []Run{
		{Mode: "off", StartedAt: base, FinishedAt: base.Add(time.Minute), Success: true, CategoriesChanged: 2},
		{Mode: "on", StartedAt: base.Add(10 * time.Minute), FinishedAt: base.Add(11 * time.Minute), Success: false,
			Error: "opendns dashboard rejected the login", Artifacts: []string{"screenshots/20250101120000_login_rejected.png"}},
	}
	for _, r := range runs {
		if err := store.Record(r); err != nil {
			t.Fatalf("Record returned error: %v", err)
		}
	}

	got, err := store.Recent(10)
	if err != nil {
		t.Fatalf("Recent returned error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(got))
	}

	// Most recent first.
	if got[0].Mode != "on" || got[0].Success {
		t.Fatalf("unexpected first run: %+v", got[0])
	}
	if len(got[0].Artifacts) != 1 {
		t.Fatalf("artifacts not round-tripped: %+v", got[0].Artifacts)
	}
	if got[1].Mode != "off" || got[1].CategoriesChanged != 2 {
		t.Fatalf("unexpected second run: %+v", got[1])
	}
}

func TestRecentLimit(t *testing.T) {
	store, err := New(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	defer store.Close()

	for i := 0; i < 5; i++ {
		start := time.Now().Add(time.Duration(i) * time.Minute)
		if err := store.Record(Run{Mode: "off", StartedAt: start, FinishedAt: start, Success: true}); err != nil {
			t.Fatalf("Record returned error: %v", err)
		}
	}

	got, err := store.Recent(3)
	if err != nil {
		t.Fatalf("Recent returned error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(got))
	}
}
