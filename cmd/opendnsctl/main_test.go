package main

import "testing"

func TestSelectedMode(t *testing.T) {
	t.Run("none", func(t *testing.T) {
		if got := selectedMode(false, false, false); got != modeNone {
			t.Fatalf("expected modeNone, got %v", got)
		}
	})

	t.Run("single", func(t *testing.T) {
		// --off is the second mode flag.
		if got := selectedMode(false, true, false, false, false, false, false, false, false, false); got != modeOff {
			t.Fatalf("expected modeOff, got %v", got)
		}
	})

	t.Run("conflict", func(t *testing.T) {
		if got := selectedMode(true, true); got != modeConflict {
			t.Fatalf("expected modeConflict, got %v", got)
		}
	})
}

func TestRunModeString(t *testing.T) {
	cases := map[runMode]string{
		modeOn:            "on",
		modeOff:           "off",
		modeApply:         "apply",
		modeForgetSession: "forget-session",
		modeNone:          "none",
	}
	for mode, want := range cases {
		if got := mode.String(); got != want {
			t.Fatalf("%d.String() = %q, want %q", mode, got, want)
		}
	}
}
