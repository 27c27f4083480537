package ui

import "testing"

func TestThemeStatusColor(t *testing.T) {
	th := GetTheme("Nightfox")

	if got := th.StatusColor("  Failed "); got != th.StatusColors["failed"] {
		t.Fatalf("StatusColor = %q, want %q", got, th.StatusColors["failed"])
	}
	if got := th.StatusColor("unknown"); got != th.Muted {
		t.Fatalf("StatusColor unknown = %q, want %q", got, th.Muted)
	}
}

func TestThemesCoverEveryStatus(t *testing.T) {
	for _, name := range ThemeNames() {
		th := GetTheme(name)
		for _, status := range []string{"idle", "loading", "succeeded", "failed", "demo", "offline"} {
			if th.StatusColors[status] == "" {
				t.Errorf("%s: missing color for %q", name, status)
			}
		}
	}
}

func TestThemeNames(t *testing.T) {
	names := ThemeNames()
	want := []string{"Nightfox", "Kanagawa", "Slate"}
	if len(names) != len(want) {
		t.Fatalf("ThemeNames() returned %d names, want %d", len(names), len(want))
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("ThemeNames() = %v, want %v", names, want)
		}
	}
}

func TestNextTheme(t *testing.T) {
	cases := map[string]string{
		"Nightfox": "Kanagawa",
		"Kanagawa": "Slate",
		"Slate":    "Nightfox",
		"Unknown":  "Nightfox",
	}
	for in, want := range cases {
		if got := NextTheme(in); got != want {
			t.Fatalf("NextTheme(%s) = %q, want %q", in, got, want)
		}
	}
}

func TestGetTheme(t *testing.T) {
	if got := GetTheme("Slate").Name; got != "Slate" {
		t.Fatalf("GetTheme(Slate).Name = %q, want Slate", got)
	}
	if got := GetTheme("Unknown").Name; got != "Nightfox" {
		t.Fatalf("GetTheme(Unknown).Name = %q, want Nightfox (fallback)", got)
	}
}

func TestStylesWithBackgroundKeepsStatusColors(t *testing.T) {
	th := GetTheme("Kanagawa")
	styles := th.Styles().WithBackground(th.Surface)
	if styles.statusColors["failed"] != th.StatusColors["failed"] {
		t.Fatal("status colors not carried over")
	}
	if styles.muted != th.Muted {
		t.Fatalf("muted = %q, want %q", styles.muted, th.Muted)
	}
}
