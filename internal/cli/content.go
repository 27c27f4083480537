package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/five82/harmonic/internal/app"
	"github.com/five82/harmonic/internal/model"
	"github.com/five82/harmonic/internal/services"
)

// Characters, notes and storyboards have no store slice; these commands
// call the services directly.

func newCharactersCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "characters",
		Aliases: []string{"character"},
		Short:   "Manage characters of a universe",
	}
	cmd.PersistentFlags().Int64P("universe", "u", 0, "Universe id (required)")
	_ = cmd.MarkPersistentFlagRequired("universe")

	list := &cobra.Command{
		Use:   "list",
		Short: "List characters",
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
				chars, err := rt.Services.Characters.ListByUniverse(ctx, uid)
				if err != nil {
					return err
				}
				return opts.output(cmd, chars, func(w io.Writer) error {
					rows := make([][]string, 0, len(chars))
					for _, c := range chars {
						rows = append(rows, []string{strconv.FormatInt(c.ID, 10), c.Name, optionalIDText(c.SceneID), c.Description})
					}
					return table(w, []string{"ID", "NAME", "SCENE", "DESCRIPTION"}, rows)
				})
			})
		},
	}

	create := &cobra.Command{
		Use:   "create",
		Short: "Create a character",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			uid, err := universeFlag(cmd)
			if err != nil {
				return err
			}
			in := services.CharacterInput{UniverseID: uid, SceneID: optionalID(cmd, "scene")}
			in.Name, _ = cmd.Flags().GetString("name")
			in.Description, _ = cmd.Flags().GetString("description")
			return opts.withRuntime(cmd, func(ctx context.Context, rt *app.Runtime) error {
				if err := requireSession(ctx, rt); err != nil {
					return err
				}
				c, err := rt.Services.Characters.Create(ctx, in)
				if err != nil {
					return err
				}
				return opts.output(cmd, c, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "Created character %d %q\n", c.ID, c.Name)
					return err
				})
			})
		},
	}
	create.Flags().StringP("name", "n", "", "Character name (required)")
	create.Flags().StringP("description", "d", "", "Description")
	create.Flags().Int64("scene", 0, "Scene the character first appears in")
	_ = create.MarkFlagRequired("name")

	cmd.AddCommand(list, create)
	return cmd
}

func newNotesCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "notes",
		Aliases: []string{"note"},
		Short:   "Manage notes of a universe",
	}
	cmd.PersistentFlags().Int64P("universe", "u", 0, "Universe id (required)")
	_ = cmd.MarkPersistentFlagRequired("universe")

	list := &cobra.Command{
		Use:   "list",
		Short: "List notes",
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
				notes, err := rt.Services.Notes.ListByUniverse(ctx, uid)
				if err != nil {
					return err
				}
				return opts.output(cmd, notes, func(w io.Writer) error {
					rows := make([][]string, 0, len(notes))
					for _, n := range notes {
						rows = append(rows, []string{strconv.FormatInt(n.ID, 10), n.Title, strings.Join(n.Tags, ","), firstLine(n.Content)})
					}
					return table(w, []string{"ID", "TITLE", "TAGS", "CONTENT"}, rows)
				})
			})
		},
	}

	create := &cobra.Command{
		Use:   "create",
		Short: "Create a note",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			uid, err := universeFlag(cmd)
			if err != nil {
				return err
			}
			in := services.NoteInput{
				UniverseID:  uid,
				SceneID:     optionalID(cmd, "scene"),
				CharacterID: optionalID(cmd, "character"),
			}
			in.Title, _ = cmd.Flags().GetString("title")
			in.Content, _ = cmd.Flags().GetString("content")
			in.Tags, _ = cmd.Flags().GetStringSlice("tags")
			return opts.withRuntime(cmd, func(ctx context.Context, rt *app.Runtime) error {
				if err := requireSession(ctx, rt); err != nil {
					return err
				}
				n, err := rt.Services.Notes.Create(ctx, in)
				if err != nil {
					return err
				}
				return opts.output(cmd, n, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "Created note %d %q\n", n.ID, n.Title)
					return err
				})
			})
		},
	}
	create.Flags().StringP("title", "t", "", "Note title (required)")
	create.Flags().String("content", "", "Note body")
	create.Flags().StringSlice("tags", nil, "Comma-separated tags")
	create.Flags().Int64("scene", 0, "Attach to a scene")
	create.Flags().Int64("character", 0, "Attach to a character")
	_ = create.MarkFlagRequired("title")

	cmd.AddCommand(list, create)
	return cmd
}

func newStoryboardsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "storyboards",
		Aliases: []string{"storyboard"},
		Short:   "Browse storyboards of a universe",
	}
	cmd.PersistentFlags().Int64P("universe", "u", 0, "Universe id (required)")
	_ = cmd.MarkPersistentFlagRequired("universe")

	list := &cobra.Command{
		Use:   "list",
		Short: "List storyboards and their story points",
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
				boards, err := rt.Services.Storyboards.ListByUniverse(ctx, uid)
				if err != nil {
					return err
				}
				return opts.output(cmd, boards, func(w io.Writer) error {
					return storyboardText(w, boards)
				})
			})
		},
	}

	cmd.AddCommand(list)
	return cmd
}

func storyboardText(w io.Writer, boards []model.Storyboard) error {
	if len(boards) == 0 {
		_, err := fmt.Fprintln(w, "No storyboards")
		return err
	}
	for _, b := range boards {
		if _, err := fmt.Fprintf(w, "%d  %s  (%d points)\n", b.ID, b.Title, len(b.Points)); err != nil {
			return err
		}
		for _, p := range b.Points {
			if _, err := fmt.Fprintf(w, "    %d  %s  @ %.0f,%.0f\n", p.ID, p.Title, p.Position.X, p.Position.Y); err != nil {
				return err
			}
		}
	}
	return nil
}

func optionalIDText(id *int64) string {
	if id == nil {
		return "-"
	}
	return strconv.FormatInt(*id, 10)
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 60 {
		s = s[:57] + "..."
	}
	return s
}
