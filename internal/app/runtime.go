package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/five82/harmonic/internal/actions"
	"github.com/five82/harmonic/internal/config"
	"github.com/five82/harmonic/internal/events"
	"github.com/five82/harmonic/internal/httpclient"
	"github.com/five82/harmonic/internal/logging"
	"github.com/five82/harmonic/internal/metrics"
	"github.com/five82/harmonic/internal/services"
	"github.com/five82/harmonic/internal/session"
	"github.com/five82/harmonic/internal/state"
)

// Options configure the harmonic runtime.
type Options struct {
	ConfigPath string
	PrefsPath  string        // empty uses default ~/.config/harmonic/prefs.toml
	PollEvery  time.Duration // zero uses default
	Verbose    bool
	// LogToStderr mirrors logs to stderr. Only safe outside the TUI.
	LogToStderr bool

	// Storage overrides the SQLite session store, mainly for tests.
	Storage session.Storage
}

// Runtime is the wired object graph shared by the TUI and CLI commands.
type Runtime struct {
	Config   config.Config
	Logger   *zap.Logger
	Session  *session.Manager
	Bus      *events.Bus
	Metrics  *metrics.Collector
	Client   *httpclient.Client
	Services *services.Services
	Store    *state.Store
	Actions  *actions.Actions

	storage session.Storage
}

// Build loads configuration and constructs every component. Callers must
// Close the runtime.
func Build(opts Options) (*Runtime, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logPath := cfg.LogPath()
	logger, err := logging.New(logging.Options{Path: logPath, Verbose: opts.Verbose, Stderr: opts.LogToStderr})
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}

	storage := opts.Storage
	if storage == nil {
		sqlite, err := session.OpenSQLite(cfg.SessionPath)
		if err != nil {
			_ = logger.Sync()
			return nil, fmt.Errorf("open session store: %w", err)
		}
		storage = sqlite
	}
	sess := session.NewManager(storage)

	var collector *metrics.Collector
	if cfg.MetricsAddr != "" {
		collector = metrics.NewCollector()
	}

	bus := &events.Bus{}
	client, err := httpclient.New(httpclient.Options{
		BaseURL: cfg.APIURL,
		Prefix:  cfg.APIPrefix,
		Timeout: cfg.Timeout,
		Retry: httpclient.RetryPolicy{
			MaxRetries:       cfg.Retry.MaxRetries,
			BaseDelay:        cfg.Retry.BaseDelay,
			MaxDelay:         cfg.Retry.MaxDelay,
			Jitter:           cfg.Retry.Jitter,
			RateLimitDelay:   cfg.Retry.RateLimitDelay,
			RateLimitPenalty: cfg.Retry.RateLimitPenalty,
			Statuses:         cfg.Retry.Statuses,
		},
		CacheEnabled:      cfg.Cache.Enabled,
		CacheTTL:          cfg.Cache.TTL,
		RequestsPerSecond: cfg.RequestsPerSecond,
		RefreshCooldown:   cfg.RefreshCooldown,
		Session:           sess,
		Bus:               bus,
		Logger:            logger,
		Metrics:           collector,
	})
	if err != nil {
		_ = storage.Close()
		_ = logger.Sync()
		return nil, fmt.Errorf("init http client: %w", err)
	}

	svc := services.New(client, sess, logger)
	store := &state.Store{}

	logger.Debug("runtime ready",
		zap.String("api_url", cfg.APIURL),
		zap.String("session_path", cfg.SessionPath),
		zap.Bool("cache", cfg.Cache.Enabled),
	)

	return &Runtime{
		Config:   cfg,
		Logger:   logger,
		Session:  sess,
		Bus:      bus,
		Metrics:  collector,
		Client:   client,
		Services: svc,
		Store:    store,
		Actions:  actions.New(store, svc, logger),
		storage:  storage,
	}, nil
}

// Start launches the background goroutines: sign-out watcher, metrics
// endpoint (when configured) and, when pollEvery is positive, the universe
// poller. They stop when ctx is cancelled; the returned channel closes once
// all of them have exited.
func (r *Runtime) Start(ctx context.Context, pollEvery time.Duration) <-chan struct{} {
	done := make(chan struct{})
	var waits []<-chan struct{}

	signOut := make(chan struct{})
	go func() {
		defer close(signOut)
		r.Actions.WatchSignOut(ctx, r.Bus)
	}()
	waits = append(waits, signOut)

	if r.Metrics != nil && r.Config.MetricsAddr != "" {
		served := make(chan struct{})
		go func() {
			defer close(served)
			if err := r.Metrics.Serve(ctx, r.Config.MetricsAddr); err != nil {
				r.Logger.Warn("metrics endpoint stopped", zap.Error(err))
			}
		}()
		waits = append(waits, served)
	}

	if pollEvery > 0 {
		waits = append(waits, StartPoller(ctx, r.Store, r.Refresh, pollEvery, r.Logger))
	}

	go func() {
		defer close(done)
		for _, w := range waits {
			<-w
		}
	}()
	return done
}

// Refresh re-fetches the universe list, and the scenes of the current
// universe, bypassing the cache. It does nothing without a session.
func (r *Runtime) Refresh(ctx context.Context) error {
	token, err := r.Session.Token(ctx)
	if err != nil {
		return fmt.Errorf("read session: %w", err)
	}
	if token == "" {
		return nil
	}
	if _, err := r.Actions.FetchUniverses(ctx, httpclient.NoCache()); err != nil {
		return err
	}
	if u, ok := r.Store.Snapshot().CurrentUniverse(); ok {
		if _, err := r.Actions.FetchScenes(ctx, u.ID, httpclient.NoCache()); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the session store and flushes the logger.
func (r *Runtime) Close() error {
	var errs []error
	if r.storage != nil {
		if err := r.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close session store: %w", err))
		}
	}
	r.Bus.Close()
	_ = r.Logger.Sync()
	return errors.Join(errs...)
}
