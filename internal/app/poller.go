package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/five82/harmonic/internal/state"
)

const (
	defaultPollInterval = 10 * time.Second
	maxBackoff          = 30 * time.Second
)

// calculateBackoff doubles the base interval for each consecutive failure,
// capped at maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	d := base
	for i := 0; i < failures; i++ {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return d
}

// StartPoller launches a background goroutine that calls refresh at a fixed
// cadence, backing off while it keeps failing. Outcomes are recorded on the
// store. It returns a channel that closes when the goroutine exits.
func StartPoller(ctx context.Context, store *state.Store, refresh func(context.Context) error, interval time.Duration, logger *zap.Logger) <-chan struct{} {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	log := logger.Named("poller")
	done := make(chan struct{})

	go func() {
		defer close(done)
		timer := time.NewTimer(interval)
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
			}

			err := refresh(ctx)
			if ctx.Err() != nil {
				return
			}
			store.RecordPoll(err)

			failures := store.Snapshot().ConsecutiveFailures
			next := calculateBackoff(failures, interval)
			if err != nil {
				log.Warn("poll failed", zap.Error(err), zap.Int("failures", failures), zap.Duration("next", next))
			}
			timer.Reset(next)
		}
	}()
	return done
}
