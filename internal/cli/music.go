package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/five82/harmonic/internal/app"
	"github.com/five82/harmonic/internal/model"
	"github.com/five82/harmonic/internal/services"
)

func newMusicCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "music",
		Aliases: []string{"audio"},
		Short:   "Generate and list music for a universe",
	}
	cmd.PersistentFlags().Int64P("universe", "u", 0, "Universe id (required)")
	_ = cmd.MarkPersistentFlagRequired("universe")

	list := &cobra.Command{
		Use:   "list",
		Short: "List generated tracks",
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
				tracks, err := rt.Services.Audio.ListByUniverse(ctx, uid)
				if err != nil {
					return err
				}
				return opts.output(cmd, tracks, func(w io.Writer) error {
					rows := make([][]string, 0, len(tracks))
					for _, t := range tracks {
						rows = append(rows, trackRow(t))
					}
					return table(w, []string{"ID", "ALGORITHM", "KEY", "DURATION", "URL"}, rows)
				})
			})
		},
	}

	generate := &cobra.Command{
		Use:   "generate",
		Short: "Generate a track",
		Long:  "Generate a track with one of the harmonic, markov, cellular or fractal algorithms.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			uid, err := universeFlag(cmd)
			if err != nil {
				return err
			}
			req := services.MusicRequest{SceneID: optionalID(cmd, "scene")}
			req.Algorithm, _ = cmd.Flags().GetString("algorithm")
			req.Duration, _ = cmd.Flags().GetFloat64("duration")
			req.Key, _ = cmd.Flags().GetString("key")
			req.Scale, _ = cmd.Flags().GetString("scale")
			return opts.withRuntime(cmd, func(ctx context.Context, rt *app.Runtime) error {
				if err := requireSession(ctx, rt); err != nil {
					return err
				}
				track, err := rt.Services.Audio.Generate(ctx, uid, req)
				if err != nil {
					return err
				}
				return opts.output(cmd, track, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "Generated track %d (%s, %s %s, %gs)\n",
						track.ID, track.Algorithm, track.Key, track.Scale, track.Duration)
					if err == nil && track.AudioURL != "" {
						_, err = fmt.Fprintln(w, track.AudioURL)
					}
					return err
				})
			})
		},
	}
	generate.Flags().StringP("algorithm", "a", "harmonic", "harmonic, markov, cellular or fractal")
	generate.Flags().Float64P("duration", "d", 30, "Length in seconds (max 600)")
	generate.Flags().StringP("key", "k", "C", "Musical key")
	generate.Flags().StringP("scale", "s", "major", "Scale")
	generate.Flags().Int64("scene", 0, "Scene the track belongs to")

	cmd.AddCommand(list, generate)
	return cmd
}

func trackRow(t model.AudioTrack) []string {
	return []string{
		fmt.Sprint(t.ID),
		t.Algorithm,
		t.Key + " " + t.Scale,
		t.DurationValue().String(),
		t.AudioURL,
	}
}
