package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/five82/harmonic/internal/prefs"
	"github.com/five82/harmonic/internal/ui"
)

// Run boots the harmonic TUI until the user quits or ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	opts.LogToStderr = false
	rt, err := Build(opts)
	if err != nil {
		return err
	}
	defer rt.Close()

	userPrefs, _ := prefs.Load(opts.PrefsPath)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	interval := opts.PollEvery
	if interval <= 0 {
		interval = defaultPollInterval
	}
	done := rt.Start(ctx, interval)

	// Restore the session and the last universe before the UI starts.
	if token, _ := rt.Session.Token(ctx); token != "" {
		if _, err := rt.Actions.CheckAuth(ctx); err != nil {
			rt.Logger.Info("stored session rejected", zap.Error(err))
		} else if _, err := rt.Actions.FetchUniverses(ctx); err == nil && userPrefs.LastUniverseID > 0 {
			rt.Actions.SelectUniverse(userPrefs.LastUniverseID)
		}
	}

	uiErr := ui.Run(ui.Options{
		Context:   ctx,
		Actions:   rt.Actions,
		Store:     rt.Store,
		Bus:       rt.Bus,
		LogPath:   rt.Config.LogPath(),
		APIURL:    rt.Config.APIURL,
		ThemeName: userPrefs.Theme,
		PrefsPath: opts.PrefsPath,
	})

	cancel()
	<-done
	if uiErr != nil {
		return fmt.Errorf("run tui: %w", uiErr)
	}
	return nil
}
