package cli

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/five82/harmonic/internal/app"
	"github.com/five82/harmonic/internal/model"
)

func newPhysicsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "physics",
		Short: "Inspect and tune scene physics parameters",
	}
	cmd.PersistentFlags().Int64("scene", 0, "Scene id (required)")
	_ = cmd.MarkPersistentFlagRequired("scene")

	get := &cobra.Command{
		Use:   "get",
		Short: "Show the active parameter set",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sceneID, err := sceneFlag(cmd)
			if err != nil {
				return err
			}
			return opts.withRuntime(cmd, func(ctx context.Context, rt *app.Runtime) error {
				if err := requireSession(ctx, rt); err != nil {
					return err
				}
				set, ok, err := rt.Services.Physics.Active(ctx, sceneID)
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("scene %d has no active physics parameters", sceneID)
				}
				return opts.output(cmd, set, func(w io.Writer) error {
					return physicsTable(w, set)
				})
			})
		},
	}

	set := &cobra.Command{
		Use:   "set name=value...",
		Short: "Change values on the active parameter set",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sceneID, err := sceneFlag(cmd)
			if err != nil {
				return err
			}
			values, err := parseAssignments(args)
			if err != nil {
				return err
			}
			return opts.withRuntime(cmd, func(ctx context.Context, rt *app.Runtime) error {
				if err := requireSession(ctx, rt); err != nil {
					return err
				}
				updated, err := rt.Services.Physics.Set(ctx, sceneID, values)
				if err != nil {
					return err
				}
				return opts.output(cmd, updated, func(w io.Writer) error {
					return physicsTable(w, updated)
				})
			})
		},
	}

	activate := &cobra.Command{
		Use:   "activate <version>",
		Short: "Make a parameter version the active one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sceneID, err := sceneFlag(cmd)
			if err != nil {
				return err
			}
			version, err := strconv.Atoi(args[0])
			if err != nil || version <= 0 {
				return fmt.Errorf("invalid physics version %q", args[0])
			}
			return opts.withRuntime(cmd, func(ctx context.Context, rt *app.Runtime) error {
				if err := requireSession(ctx, rt); err != nil {
					return err
				}
				active, err := rt.Services.Physics.Activate(ctx, sceneID, version)
				if err != nil {
					return err
				}
				return opts.output(cmd, active, func(w io.Writer) error {
					return physicsTable(w, active)
				})
			})
		},
	}

	cmd.AddCommand(get, set, activate)
	return cmd
}

func sceneFlag(cmd *cobra.Command) (int64, error) {
	id, _ := cmd.Flags().GetInt64("scene")
	if id <= 0 {
		return 0, fmt.Errorf("invalid scene id %d", id)
	}
	return id, nil
}

func parseAssignments(args []string) (map[string]float64, error) {
	values := make(map[string]float64, len(args))
	for _, arg := range args {
		name, raw, ok := strings.Cut(arg, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("expected name=value, got %q", arg)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("value for %s: %w", name, err)
		}
		values[name] = v
	}
	return values, nil
}

func physicsTable(w io.Writer, set model.PhysicsParameters) error {
	if _, err := fmt.Fprintf(w, "Scene %d, version %d\n", set.SceneID, set.Version); err != nil {
		return err
	}
	names := make([]string, 0, len(set.Parameters))
	for name := range set.Parameters {
		names = append(names, name)
	}
	sort.Strings(names)
	rows := make([][]string, 0, len(names))
	for _, name := range names {
		p := set.Parameters[name]
		bounds := "-"
		if p.Max > p.Min {
			bounds = fmt.Sprintf("%g..%g", p.Min, p.Max)
		}
		rows = append(rows, []string{name, strconv.FormatFloat(p.Value, 'g', -1, 64), p.Unit, bounds, strconv.FormatBool(p.Enabled)})
	}
	return table(w, []string{"NAME", "VALUE", "UNIT", "RANGE", "ENABLED"}, rows)
}
