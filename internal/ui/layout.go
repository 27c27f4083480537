package ui

import "time"

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the threshold below which compact mode is used.
	LayoutCompactWidth = 100

	// LayoutSplitWidth is the minimum width for side-by-side panes.
	LayoutSplitWidth = 80
)

// Log display limits.
const (
	// LogBufferLimit is the maximum number of log lines to keep in memory.
	LogBufferLimit = 2000
)

// Timing constants.
const (
	// DefaultUIInterval is the default UI refresh interval.
	DefaultUIInterval = time.Second

	// ServerBannerTTL is how long a server error banner stays visible.
	ServerBannerTTL = 15 * time.Second

	// ActionTimeout bounds every request started from the UI.
	ActionTimeout = 30 * time.Second
)
