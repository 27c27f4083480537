package httpclient

import "testing"

func TestFormatURL(t *testing.T) {
	const base = "http://127.0.0.1:5001"
	cases := []struct {
		name   string
		base   string
		prefix string
		path   string
		want   string
	}{
		{"relative with slash", base, "/api", "/universes", base + "/api/universes"},
		{"relative without slash", base, "/api", "universes", base + "/api/universes"},
		{"already prefixed", base, "/api", "/api/universes", base + "/api/universes"},
		{"trailing slash", base, "/api", "api/universes/", base + "/api/universes"},
		{"double slashes", base, "/api", "//universes//7", base + "/api/universes/7"},
		{"query preserved", base, "/api", "/universes?page=2&q=a/b", base + "/api/universes?page=2&q=a/b"},
		{"absolute untouched", base, "/api", "https://cdn.example.com/x.wav", "https://cdn.example.com/x.wav"},
		{"empty path", base, "/api", "", base + "/api"},
		{"prefix only", base, "/api", "/api", base + "/api"},
		{"prefix is a word boundary", base, "/api", "/apiary", base + "/api/apiary"},
		{"base with trailing slash", base + "/", "api/", "/health", base + "/api/health"},
		{"no prefix", base, "", "/health", base + "/health"},
		{"no base", "", "/api", "/universes/7", "/api/universes/7"},
		{"base ends with prefix", "http://h/api", "/api", "/universes", "http://h/api/universes"},
		{"base ends with prefix and slash", "http://h/api/", "/api", "/api/universes", "http://h/api/universes"},
		{"base mounted under a path", "http://h/v1/api", "/api", "universes", "http://h/v1/api/universes"},
		{"host named like prefix", "http://api", "/api", "/universes", "http://api/api/universes"},
		{"base path is a longer word", "http://h/myapi", "/api", "/universes", "http://h/myapi/api/universes"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := FormatURL(tc.base, tc.prefix, tc.path)
			if got != tc.want {
				t.Fatalf("FormatURL(%q, %q, %q) = %q, want %q", tc.base, tc.prefix, tc.path, got, tc.want)
			}
			again := FormatURL(tc.base, tc.prefix, got)
			if again != got {
				t.Fatalf("FormatURL is not idempotent: %q -> %q", got, again)
			}
		})
	}
}

func TestParentPath(t *testing.T) {
	cases := map[string]string{
		"http://h/api/universes/7":        "http://h/api/universes",
		"http://h/api/universes/7?full=1": "http://h/api/universes",
		"/api/scenes/3":                   "/api/scenes",
		"http://h":                        "",
	}
	for in, want := range cases {
		if got := parentPath(in); got != want {
			t.Fatalf("parentPath(%q) = %q, want %q", in, got, want)
		}
	}
}
