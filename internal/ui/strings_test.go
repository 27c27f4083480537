package ui

import (
	"testing"
	"time"

	"github.com/five82/harmonic/internal/state"
)

func TestTruncate(t *testing.T) {
	cases := []struct {
		in    string
		limit int
		want  string
	}{
		{"short", 10, "short"},
		{"  padded  ", 10, "padded"},
		{"a long universe name", 10, "a long ..."},
		{"abcdef", 3, "abc"},
		{"anything", 0, "anything"},
	}
	for _, tc := range cases {
		if got := truncate(tc.in, tc.limit); got != tc.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tc.in, tc.limit, got, tc.want)
		}
	}
}

func TestTruncateMiddle(t *testing.T) {
	got := truncateMiddle("/home/ada/.local/share/harmonic/logs/harmonic.log", 20)
	if len([]rune(got)) != 20 {
		t.Fatalf("truncateMiddle length = %d, want 20 (%q)", len([]rune(got)), got)
	}
	if got[:5] != "/home" || got[len(got)-4:] != ".log" {
		t.Fatalf("truncateMiddle = %q, want both ends kept", got)
	}
}

func TestRelativeTime(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.Local)
	cases := map[time.Duration]string{
		10 * time.Second: "(now)",
		5 * time.Minute:  "(5m ago)",
		3 * time.Hour:    "(3h ago)",
	}
	for ago, suffix := range cases {
		got := relativeTime(now.Add(-ago), now)
		if got[len(got)-len(suffix):] != suffix {
			t.Errorf("relativeTime(-%v) = %q, want suffix %q", ago, got, suffix)
		}
	}
	if relativeTime(time.Time{}, now) != "" {
		t.Fatal("zero time should render empty")
	}
}

func TestScrollStart(t *testing.T) {
	if got := scrollStart(3, 5, 10); got != 0 {
		t.Fatalf("fits: got %d", got)
	}
	if got := scrollStart(50, 100, 10); got != 45 {
		t.Fatalf("middle: got %d, want 45", got)
	}
	if got := scrollStart(99, 100, 10); got != 90 {
		t.Fatalf("end: got %d, want 90", got)
	}
}

func TestCombinedStatus(t *testing.T) {
	snap := state.Snapshot{}
	if got := combinedStatus(snap); got != state.StatusIdle {
		t.Fatalf("empty = %v", got)
	}
	snap.Universes.Status = state.StatusSucceeded
	snap.Scenes.Status = state.StatusLoading
	if got := combinedStatus(snap); got != state.StatusLoading {
		t.Fatalf("loading = %v", got)
	}
	snap.Auth.Status = state.StatusFailed
	if got := combinedStatus(snap); got != state.StatusFailed {
		t.Fatalf("failed = %v", got)
	}
}
