package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/five82/harmonic/internal/app"
)

func newTUICmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive interface",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.runTUI(cmd)
		},
	}
	cmd.Flags().Duration("poll", 0, "Health poll interval (default 10s)")
	return cmd
}

func (o *rootOptions) runTUI(cmd *cobra.Command) error {
	// The root command has no --poll flag.
	var poll time.Duration
	if f := cmd.Flags().Lookup("poll"); f != nil {
		poll, _ = cmd.Flags().GetDuration("poll")
	}
	return app.Run(cmd.Context(), app.Options{
		ConfigPath: o.configPath,
		PrefsPath:  o.prefsPath,
		PollEvery:  poll,
		Verbose:    o.verbose,
		Storage:    o.storage,
	})
}
