// Package cli implements the harmonic command line.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/five82/harmonic/internal/app"
	"github.com/five82/harmonic/internal/response"
	"github.com/five82/harmonic/internal/session"
)

type rootOptions struct {
	configPath string
	prefsPath  string
	verbose    bool
	format     string

	// storage replaces the SQLite session store in tests.
	storage session.Storage
}

// NewRootCmd builds the harmonic command tree.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&rootOptions{})
}

func newRootCmd(opts *rootOptions) *cobra.Command {
	root := &cobra.Command{
		Use:   "harmonic",
		Short: "Terminal client for Harmonic Universe",
		Long: "harmonic manages Harmonic Universe universes, scenes, characters, notes, music and physics from the terminal.\n" +
			"Run without a subcommand to open the interactive interface.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.runTUI(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", "", "Config file (default: ~/.config/harmonic/config.toml)")
	pf.StringVar(&opts.prefsPath, "prefs", "", "Preferences file (default: ~/.config/harmonic/prefs.toml)")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "Debug logging, mirrored to stderr")
	pf.StringVarP(&opts.format, "format", "f", "text", "Output format: text or json")

	root.AddCommand(
		newLoginCmd(opts),
		newRegisterCmd(opts),
		newDemoCmd(opts),
		newLogoutCmd(opts),
		newWhoamiCmd(opts),
		newUniversesCmd(opts),
		newScenesCmd(opts),
		newCharactersCmd(opts),
		newNotesCmd(opts),
		newMusicCmd(opts),
		newStoryboardsCmd(opts),
		newPhysicsCmd(opts),
		newStatusCmd(opts),
		newTUICmd(opts),
	)
	return root
}

// Execute runs the command line and returns the process exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := NewRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "harmonic: %s\n", describe(err))
		return 1
	}
	return 0
}

// describe renders pipeline errors with their status so scripts can tell a
// 404 from an outage.
func describe(err error) string {
	var rerr *response.Error
	if errors.As(err, &rerr) {
		if rerr.Status > 0 {
			return fmt.Sprintf("%s (%d)", response.MessageOf(err), rerr.Status)
		}
		return response.MessageOf(err)
	}
	return err.Error()
}

// withRuntime builds the runtime for one command and closes it afterwards.
func (o *rootOptions) withRuntime(cmd *cobra.Command, fn func(ctx context.Context, rt *app.Runtime) error) error {
	rt, err := app.Build(app.Options{
		ConfigPath:  o.configPath,
		PrefsPath:   o.prefsPath,
		Verbose:     o.verbose,
		LogToStderr: o.verbose,
		Storage:     o.storage,
	})
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()
	return fn(cmd.Context(), rt)
}

// requireSession fails early when no one is signed in.
func requireSession(ctx context.Context, rt *app.Runtime) error {
	token, err := rt.Session.Token(ctx)
	if err != nil {
		return fmt.Errorf("read session: %w", err)
	}
	if token == "" {
		return errors.New("not signed in; run `harmonic login` or `harmonic demo` first")
	}
	return nil
}

// output writes v as indented JSON, or calls text for the human format.
func (o *rootOptions) output(cmd *cobra.Command, v any, text func(w io.Writer) error) error {
	out := cmd.OutOrStdout()
	switch o.format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "text", "":
		return text(out)
	default:
		return fmt.Errorf("unknown format %q (want text or json)", o.format)
	}
}

// table writes tab-separated rows aligned into columns.
func table(w io.Writer, header []string, rows [][]string) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	writeRow := func(cols []string) {
		for i, c := range cols {
			if i > 0 {
				fmt.Fprint(tw, "\t")
			}
			fmt.Fprint(tw, c)
		}
		fmt.Fprintln(tw)
	}
	writeRow(header)
	for _, r := range rows {
		writeRow(r)
	}
	return tw.Flush()
}

func parseID(arg, what string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id %q", what, arg)
	}
	return id, nil
}

func optionalID(cmd *cobra.Command, flag string) *int64 {
	if !cmd.Flags().Changed(flag) {
		return nil
	}
	id, _ := cmd.Flags().GetInt64(flag)
	return &id
}
