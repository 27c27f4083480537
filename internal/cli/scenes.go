package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/five82/harmonic/internal/app"
	"github.com/five82/harmonic/internal/model"
	"github.com/five82/harmonic/internal/services"
)

func newScenesCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "scenes",
		Aliases: []string{"scene", "s"},
		Short:   "Manage the scenes of a universe",
	}
	cmd.PersistentFlags().Int64P("universe", "u", 0, "Universe id (required)")
	_ = cmd.MarkPersistentFlagRequired("universe")
	cmd.AddCommand(
		newScenesListCmd(opts),
		newScenesCreateCmd(opts),
		newScenesDeleteCmd(opts),
	)
	return cmd
}

func universeFlag(cmd *cobra.Command) (int64, error) {
	id, _ := cmd.Flags().GetInt64("universe")
	if id <= 0 {
		return 0, fmt.Errorf("invalid universe id %d", id)
	}
	return id, nil
}

func newScenesListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List scenes in order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			uid, err := universeFlag(cmd)
			if err != nil {
				return err
			}
			return opts.withRuntime(cmd, func(ctx context.Context, rt *app.Runtime) error {
				if err := requireSession(ctx, rt); err != nil {
					return err
				}
				if _, err := rt.Actions.FetchScenes(ctx, uid); err != nil {
					return err
				}
				scenes := rt.Store.Snapshot().ScenesFor(uid)
				return opts.output(cmd, scenes, func(w io.Writer) error {
					return sceneTable(w, scenes)
				})
			})
		},
	}
}

func newScenesCreateCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Add a scene to a universe",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			uid, err := universeFlag(cmd)
			if err != nil {
				return err
			}
			in := services.SceneInput{UniverseID: uid}
			in.Name, _ = cmd.Flags().GetString("name")
			in.Description, _ = cmd.Flags().GetString("description")
			in.SceneOrder, _ = cmd.Flags().GetInt("order")
			return opts.withRuntime(cmd, func(ctx context.Context, rt *app.Runtime) error {
				if err := requireSession(ctx, rt); err != nil {
					return err
				}
				sc, err := rt.Actions.CreateScene(ctx, in)
				if err != nil {
					return err
				}
				return opts.output(cmd, sc, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "Created scene %d %q in universe %d\n", sc.ID, sc.Name, sc.UniverseID)
					return err
				})
			})
		},
	}
	cmd.Flags().StringP("name", "n", "", "Scene name (required)")
	cmd.Flags().StringP("description", "d", "", "Description")
	cmd.Flags().Int("order", 0, "Position within the universe")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newScenesDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a scene",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "scene")
			if err != nil {
				return err
			}
			uid, err := universeFlag(cmd)
			if err != nil {
				return err
			}
			return opts.withRuntime(cmd, func(ctx context.Context, rt *app.Runtime) error {
				if err := requireSession(ctx, rt); err != nil {
					return err
				}
				if err := rt.Actions.DeleteScene(ctx, id, uid); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted scene %d\n", id)
				return nil
			})
		},
	}
}

func sceneTable(w io.Writer, scenes []model.Scene) error {
	rows := make([][]string, 0, len(scenes))
	for _, sc := range scenes {
		rows = append(rows, []string{
			strconv.FormatInt(sc.ID, 10),
			strconv.Itoa(sc.SceneOrder),
			sc.Name,
			shortDate(sc.CreatedAt),
		})
	}
	return table(w, []string{"ID", "ORDER", "NAME", "CREATED"}, rows)
}
