package httpclient

import (
	"strings"
)

// DefaultPrefix is the path every backend route lives under.
const DefaultPrefix = "/api"

// FormatURL resolves path against baseURL, adding prefix exactly once.
//
// Absolute URLs are returned unchanged. Query strings and fragments are
// preserved. Applying FormatURL to its own output returns the same value.
func FormatURL(baseURL, prefix, path string) string {
	path = strings.TrimSpace(path)
	if isAbsolute(path) {
		return path
	}

	rest := ""
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path, rest = path[:i], path[i:]
	}

	prefix = normalisePath(prefix)
	p := normalisePath(path)
	if prefix != "" && p != prefix && !strings.HasPrefix(p, prefix+"/") {
		if p == "" {
			p = prefix
		} else {
			p = prefix + p
		}
	}
	if p == "" {
		p = "/"
	}
	return trimBasePrefix(baseURL, prefix) + p + rest
}

// trimBasePrefix drops a trailing copy of prefix from the base URL's path so
// "http://h/api" with prefix "/api" does not yield "/api/api/...".
func trimBasePrefix(baseURL, prefix string) string {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if prefix == "" {
		return base
	}
	pathStart := 0
	if i := strings.Index(base, "://"); i >= 0 {
		j := strings.IndexByte(base[i+3:], '/')
		if j < 0 {
			return base
		}
		pathStart = i + 3 + j
	}
	if normalisePath(base[pathStart:]) == "" {
		return base
	}
	if strings.HasSuffix(base[pathStart:], prefix) {
		return strings.TrimRight(base[:len(base)-len(prefix)], "/")
	}
	return base
}

func isAbsolute(path string) bool {
	i := strings.Index(path, "://")
	if i <= 0 {
		return false
	}
	for _, r := range path[:i] {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '+' || r == '-' || r == '.') {
			return false
		}
	}
	return true
}

// normalisePath collapses repeated slashes, ensures a single leading slash and
// drops trailing slashes. An empty or "/" path becomes "".
func normalisePath(p string) string {
	var b strings.Builder
	for _, seg := range strings.Split(p, "/") {
		if seg == "" {
			continue
		}
		b.WriteByte('/')
		b.WriteString(seg)
	}
	return b.String()
}

// parentPath strips the last path segment of a formatted URL, ignoring any
// query. "/api/universes/7" becomes "/api/universes".
func parentPath(u string) string {
	u = stripQuery(u)
	i := strings.LastIndexByte(u, '/')
	if i <= 0 || strings.HasSuffix(u[:i], ":/") || strings.HasSuffix(u[:i], ":") {
		return ""
	}
	return u[:i]
}

func stripQuery(u string) string {
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		return u[:i]
	}
	return u
}
