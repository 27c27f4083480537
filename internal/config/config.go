package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config is the resolved client configuration.
type Config struct {
	APIURL            string
	APIPrefix         string
	Timeout           time.Duration
	Retry             Retry
	Cache             Cache
	RequestsPerSecond float64
	RefreshCooldown   time.Duration
	SessionPath       string
	LogDir            string
	MetricsAddr       string
}

// Retry holds the request retry settings.
type Retry struct {
	MaxRetries       int
	BaseDelay        time.Duration
	MaxDelay         time.Duration
	Jitter           time.Duration
	RateLimitDelay   time.Duration
	RateLimitPenalty time.Duration
	Statuses         []int
}

// Cache holds the GET response cache settings.
type Cache struct {
	Enabled bool
	TTL     time.Duration
}

// EnvAPIURL overrides api_url when set.
const EnvAPIURL = "HARMONIC_API_URL"

const (
	defaultConfigPath  = "~/.config/harmonic/config.toml"
	defaultLogDir      = "~/.local/share/harmonic/logs"
	defaultSessionPath = "~/.local/share/harmonic/session.db"
	defaultAPIURL      = "http://127.0.0.1:5001"
	defaultAPIPrefix   = "/api"
	defaultTimeout     = 15 * time.Second
	defaultCacheTTL    = 5 * time.Minute
	defaultCooldown    = 10 * time.Second
	defaultMaxRetries  = 3
	defaultBaseDelay   = time.Second
	defaultMaxDelay    = 30 * time.Second
	defaultJitter      = 250 * time.Millisecond
	defaultRateLimit   = 5 * time.Second
	defaultRatePenalty = time.Second
	logFileName        = "harmonic.log"
)

var defaultStatuses = []int{408, 429, 500, 502, 503, 504}

type rawConfig struct {
	APIURL            string   `toml:"api_url"`
	APIPrefix         string   `toml:"api_prefix"`
	TimeoutSeconds    int      `toml:"timeout_seconds"`
	RequestsPerSecond float64  `toml:"requests_per_second"`
	CooldownSeconds   *int     `toml:"refresh_cooldown_seconds"`
	SessionPath       string   `toml:"session_path"`
	LogDir            string   `toml:"log_dir"`
	MetricsAddr       string   `toml:"metrics_addr"`
	Retry             rawRetry `toml:"retry"`
	Cache             rawCache `toml:"cache"`
}

type rawRetry struct {
	MaxRetries         *int  `toml:"max_retries"`
	BaseDelayMS        int   `toml:"base_delay_ms"`
	MaxDelayMS         int   `toml:"max_delay_ms"`
	JitterMS           *int  `toml:"jitter_ms"`
	RateLimitDelayMS   int   `toml:"rate_limit_delay_ms"`
	RateLimitPenaltyMS *int  `toml:"rate_limit_penalty_ms"`
	Statuses           []int `toml:"statuses"`
}

type rawCache struct {
	Enabled    *bool `toml:"enabled"`
	TTLSeconds int   `toml:"ttl_seconds"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		APIURL:    defaultAPIURL,
		APIPrefix: defaultAPIPrefix,
		Timeout:   defaultTimeout,
		Retry: Retry{
			MaxRetries:       defaultMaxRetries,
			BaseDelay:        defaultBaseDelay,
			MaxDelay:         defaultMaxDelay,
			Jitter:           defaultJitter,
			RateLimitDelay:   defaultRateLimit,
			RateLimitPenalty: defaultRatePenalty,
			Statuses:         append([]int(nil), defaultStatuses...),
		},
		Cache:           Cache{Enabled: true, TTL: defaultCacheTTL},
		RefreshCooldown: defaultCooldown,
		SessionPath:     mustExpand(defaultSessionPath),
		LogDir:          mustExpand(defaultLogDir),
	}
}

// Load locates and parses the config, falling back to defaults when missing.
// HARMONIC_API_URL takes precedence over api_url.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			applyEnv(&cfg)
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw rawConfig
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := raw.apply(&cfg); err != nil {
		return Config{}, err
	}
	applyEnv(&cfg)
	return cfg, nil
}

func (raw rawConfig) apply(cfg *Config) error {
	if v := strings.TrimSpace(raw.APIURL); v != "" {
		cfg.APIURL = strings.TrimRight(v, "/")
	}
	if v := strings.TrimSpace(raw.APIPrefix); v != "" {
		cfg.APIPrefix = "/" + strings.Trim(v, "/")
	}
	if raw.TimeoutSeconds > 0 {
		cfg.Timeout = time.Duration(raw.TimeoutSeconds) * time.Second
	}
	if raw.RequestsPerSecond < 0 {
		return fmt.Errorf("validate config: requests_per_second must not be negative")
	}
	cfg.RequestsPerSecond = raw.RequestsPerSecond
	if raw.CooldownSeconds != nil {
		cfg.RefreshCooldown = time.Duration(*raw.CooldownSeconds) * time.Second
	}
	if v := strings.TrimSpace(raw.SessionPath); v != "" {
		cfg.SessionPath = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.LogDir); v != "" {
		cfg.LogDir = mustExpand(v)
	}
	cfg.MetricsAddr = strings.TrimSpace(raw.MetricsAddr)

	r := raw.Retry
	if r.MaxRetries != nil {
		if *r.MaxRetries < 0 {
			return fmt.Errorf("validate config: retry.max_retries must not be negative")
		}
		cfg.Retry.MaxRetries = *r.MaxRetries
	}
	if r.BaseDelayMS > 0 {
		cfg.Retry.BaseDelay = millis(r.BaseDelayMS)
	}
	if r.MaxDelayMS > 0 {
		cfg.Retry.MaxDelay = millis(r.MaxDelayMS)
	}
	if r.JitterMS != nil && *r.JitterMS >= 0 {
		cfg.Retry.Jitter = millis(*r.JitterMS)
	}
	if r.RateLimitDelayMS > 0 {
		cfg.Retry.RateLimitDelay = millis(r.RateLimitDelayMS)
	}
	if r.RateLimitPenaltyMS != nil && *r.RateLimitPenaltyMS >= 0 {
		cfg.Retry.RateLimitPenalty = millis(*r.RateLimitPenaltyMS)
	}
	if len(r.Statuses) > 0 {
		for _, s := range r.Statuses {
			if s < 100 || s > 599 {
				return fmt.Errorf("validate config: retry status %d is not an HTTP status", s)
			}
		}
		cfg.Retry.Statuses = append([]int(nil), r.Statuses...)
	}

	if raw.Cache.Enabled != nil {
		cfg.Cache.Enabled = *raw.Cache.Enabled
	}
	if raw.Cache.TTLSeconds > 0 {
		cfg.Cache.TTL = time.Duration(raw.Cache.TTLSeconds) * time.Second
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(EnvAPIURL)); v != "" {
		cfg.APIURL = strings.TrimRight(v, "/")
	}
}

func millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

// LogPath returns the path to the client's own log file.
func (c Config) LogPath() string {
	if strings.TrimSpace(c.LogDir) == "" {
		return mustExpand(defaultLogDir + "/" + logFileName)
	}
	return filepath.Join(c.LogDir, logFileName)
}

// DefaultPath returns the expanded default config location.
func DefaultPath() string {
	return mustExpand(defaultConfigPath)
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
