package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/five82/harmonic/internal/app"
	"github.com/five82/harmonic/internal/httpclient"
	"github.com/five82/harmonic/internal/model"
	"github.com/five82/harmonic/internal/services"
)

func newUniversesCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "universes",
		Aliases: []string{"universe", "u"},
		Short:   "Manage universes",
	}
	cmd.AddCommand(
		newUniversesListCmd(opts),
		newUniversesGetCmd(opts),
		newUniversesCreateCmd(opts),
		newUniversesUpdateCmd(opts),
		newUniversesDeleteCmd(opts),
	)
	return cmd
}

func newUniversesListCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your universes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fresh, _ := cmd.Flags().GetBool("fresh")
			return opts.withRuntime(cmd, func(ctx context.Context, rt *app.Runtime) error {
				if err := requireSession(ctx, rt); err != nil {
					return err
				}
				var reqOpts []httpclient.RequestOption
				if fresh {
					reqOpts = append(reqOpts, httpclient.NoCache())
				}
				if _, err := rt.Actions.FetchUniverses(ctx, reqOpts...); err != nil {
					return err
				}
				items := rt.Store.Snapshot().Universes.Items
				return opts.output(cmd, items, func(w io.Writer) error {
					return universeTable(w, items)
				})
			})
		},
	}
	cmd.Flags().Bool("fresh", false, "Bypass the response cache")
	return cmd
}

func newUniversesGetCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one universe and its scenes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "universe")
			if err != nil {
				return err
			}
			return opts.withRuntime(cmd, func(ctx context.Context, rt *app.Runtime) error {
				if err := requireSession(ctx, rt); err != nil {
					return err
				}
				u, err := rt.Actions.FetchUniverse(ctx, id)
				if err != nil {
					return err
				}
				if _, err := rt.Actions.FetchScenes(ctx, id); err != nil {
					return err
				}
				scenes := rt.Store.Snapshot().ScenesFor(id)
				view := struct {
					model.Universe
					Scenes []model.Scene `json:"scenes"`
				}{u, scenes}
				return opts.output(cmd, view, func(w io.Writer) error {
					if err := universeDetail(w, u); err != nil {
						return err
					}
					fmt.Fprintln(w)
					return sceneTable(w, scenes)
				})
			})
		},
	}
}

func universeFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("name", "n", "", "Universe name")
	cmd.Flags().StringP("description", "d", "", "Description")
	cmd.Flags().Bool("public", false, "Make the universe public")
	cmd.Flags().String("genre", "", "Genre")
	cmd.Flags().String("theme", "", "Theme")
}

func newUniversesCreateCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a universe",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := services.UniverseInput{}
			in.Name, _ = cmd.Flags().GetString("name")
			in.Description, _ = cmd.Flags().GetString("description")
			in.IsPublic, _ = cmd.Flags().GetBool("public")
			in.Genre, _ = cmd.Flags().GetString("genre")
			in.Theme, _ = cmd.Flags().GetString("theme")
			return opts.withRuntime(cmd, func(ctx context.Context, rt *app.Runtime) error {
				if err := requireSession(ctx, rt); err != nil {
					return err
				}
				u, err := rt.Actions.CreateUniverse(ctx, in)
				if err != nil {
					return err
				}
				return opts.output(cmd, u, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "Created universe %d %q\n", u.ID, u.Name)
					return err
				})
			})
		},
	}
	universeFlags(cmd)
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newUniversesUpdateCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of a universe",
		Long:  "Only the flags given are changed; the rest keep their current values.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "universe")
			if err != nil {
				return err
			}
			return opts.withRuntime(cmd, func(ctx context.Context, rt *app.Runtime) error {
				if err := requireSession(ctx, rt); err != nil {
					return err
				}
				current, err := rt.Actions.FetchUniverse(ctx, id)
				if err != nil {
					return err
				}
				in := mergeUniverse(cmd, current)
				u, err := rt.Actions.UpdateUniverse(ctx, id, in)
				if err != nil {
					return err
				}
				return opts.output(cmd, u, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "Updated universe %d %q\n", u.ID, u.Name)
					return err
				})
			})
		},
	}
	universeFlags(cmd)
	return cmd
}

// mergeUniverse overlays the flags the user set on the current values.
func mergeUniverse(cmd *cobra.Command, u model.Universe) services.UniverseInput {
	in := services.UniverseInput{
		Name:          u.Name,
		Description:   u.Description,
		IsPublic:      u.IsPublic,
		Theme:         u.Theme,
		Genre:         u.Genre,
		PhysicsParams: u.PhysicsParams,
		HarmonyParams: u.HarmonyParams,
	}
	flags := cmd.Flags()
	if flags.Changed("name") {
		in.Name, _ = flags.GetString("name")
	}
	if flags.Changed("description") {
		in.Description, _ = flags.GetString("description")
	}
	if flags.Changed("public") {
		in.IsPublic, _ = flags.GetBool("public")
	}
	if flags.Changed("genre") {
		in.Genre, _ = flags.GetString("genre")
	}
	if flags.Changed("theme") {
		in.Theme, _ = flags.GetString("theme")
	}
	return in
}

func newUniversesDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a universe and its scenes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "universe")
			if err != nil {
				return err
			}
			return opts.withRuntime(cmd, func(ctx context.Context, rt *app.Runtime) error {
				if err := requireSession(ctx, rt); err != nil {
					return err
				}
				if err := rt.Actions.DeleteUniverse(ctx, id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted universe %d\n", id)
				return nil
			})
		},
	}
}

func universeTable(w io.Writer, items []model.Universe) error {
	rows := make([][]string, 0, len(items))
	for _, u := range items {
		rows = append(rows, []string{
			strconv.FormatInt(u.ID, 10),
			u.Name,
			visibility(u.IsPublic),
			u.Genre,
			shortDate(u.UpdatedAt),
		})
	}
	return table(w, []string{"ID", "NAME", "VISIBILITY", "GENRE", "UPDATED"}, rows)
}

func universeDetail(w io.Writer, u model.Universe) error {
	rows := [][]string{
		{"ID", strconv.FormatInt(u.ID, 10)},
		{"Name", u.Name},
		{"Description", u.Description},
		{"Visibility", visibility(u.IsPublic)},
		{"Genre", u.Genre},
		{"Theme", u.Theme},
		{"Created", shortDate(u.CreatedAt)},
		{"Updated", shortDate(u.UpdatedAt)},
	}
	for _, r := range rows {
		if r[1] == "" {
			continue
		}
		if _, err := fmt.Fprintf(w, "%-12s %s\n", r[0]+":", r[1]); err != nil {
			return err
		}
	}
	return nil
}

func visibility(public bool) string {
	if public {
		return "public"
	}
	return "private"
}

func shortDate(value string) string {
	if len(value) >= 10 {
		return value[:10]
	}
	return value
}
