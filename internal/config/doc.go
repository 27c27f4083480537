// Package config loads the harmonic client configuration.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/harmonic/config.toml
//  3. If the file doesn't exist, use built-in defaults
//  4. Blank or zero fields fall back to their defaults
//  5. HARMONIC_API_URL, when set, replaces api_url
//
// # TOML Format
//
//	api_url = "http://127.0.0.1:5001"
//	api_prefix = "/api"
//	timeout_seconds = 15
//	requests_per_second = 0        # 0 = unlimited
//	refresh_cooldown_seconds = 10  # negative disables the cooldown
//	session_path = "~/.local/share/harmonic/session.db"
//	log_dir = "~/.local/share/harmonic/logs"
//	metrics_addr = ""              # e.g. "127.0.0.1:9464"
//
//	[retry]
//	max_retries = 3
//	base_delay_ms = 1000
//	max_delay_ms = 30000
//	jitter_ms = 250
//	rate_limit_delay_ms = 5000
//	rate_limit_penalty_ms = 1000
//	statuses = [408, 429, 500, 502, 503, 504]
//
//	[cache]
//	enabled = true
//	ttl_seconds = 300
//
// Tilde expansion applies to session_path and log_dir. api_prefix is
// normalised to a single leading slash.
//
// # Error Handling
//
// Load returns errors for path expansion failures, read errors other than
// a missing file, TOML parse errors ("parse config") and out-of-range values
// ("validate config"). A missing file is not an error.
package config
