// Package logtail reads the tail of the client's own log file and turns its
// JSON lines into display entries.
//
// Read extracts the last N lines with a ring buffer, so memory stays at
// O(N) regardless of file size. Parse decodes one zap JSON line into an
// Entry (time, level, logger, message and sorted extra fields); non-JSON
// lines such as panics pass through untouched. Format renders an Entry as a
// compact single line for the TUI log view.
package logtail
