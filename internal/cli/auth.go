package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/five82/harmonic/internal/app"
	"github.com/five82/harmonic/internal/model"
	"github.com/five82/harmonic/internal/services"
)

func newLoginCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password",
		Long:  "Sign in and store the session. Without --password the password is read from the first line of stdin.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")
			if password == "" {
				var err error
				if password, err = readLine(cmd.InOrStdin()); err != nil {
					return fmt.Errorf("read password: %w", err)
				}
			}
			return opts.withRuntime(cmd, func(ctx context.Context, rt *app.Runtime) error {
				res, err := rt.Actions.Login(ctx, services.LoginRequest{Email: email, Password: password})
				if err != nil {
					return err
				}
				return opts.printUser(cmd, "Signed in as", res.User)
			})
		},
	}
	cmd.Flags().StringP("email", "e", "", "Account email (required)")
	cmd.Flags().StringP("password", "p", "", "Account password (default: read from stdin)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newRegisterCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			username, _ := cmd.Flags().GetString("username")
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")
			if password == "" {
				var err error
				if password, err = readLine(cmd.InOrStdin()); err != nil {
					return fmt.Errorf("read password: %w", err)
				}
			}
			return opts.withRuntime(cmd, func(ctx context.Context, rt *app.Runtime) error {
				res, err := rt.Actions.Register(ctx, services.RegisterRequest{Username: username, Email: email, Password: password})
				if err != nil {
					return err
				}
				return opts.printUser(cmd, "Registered", res.User)
			})
		},
	}
	cmd.Flags().StringP("username", "u", "", "Username (required)")
	cmd.Flags().StringP("email", "e", "", "Account email (required)")
	cmd.Flags().StringP("password", "p", "", "Password, at least 8 characters (default: read from stdin)")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newDemoCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Start a local demo session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withRuntime(cmd, func(ctx context.Context, rt *app.Runtime) error {
				res, err := rt.Actions.DemoLogin(ctx)
				if err != nil {
					return err
				}
				return opts.printUser(cmd, "Demo session for", res.User)
			})
		},
	}
}

func newLogoutCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and clear the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withRuntime(cmd, func(ctx context.Context, rt *app.Runtime) error {
				if err := rt.Actions.Logout(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
				return nil
			})
		},
	}
}

func newWhoamiCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withRuntime(cmd, func(ctx context.Context, rt *app.Runtime) error {
				if err := requireSession(ctx, rt); err != nil {
					return err
				}
				user, err := rt.Actions.CheckAuth(ctx)
				if err != nil {
					return err
				}
				return opts.printUser(cmd, "Signed in as", user)
			})
		},
	}
}

func (o *rootOptions) printUser(cmd *cobra.Command, prefix string, u model.User) error {
	return o.output(cmd, u, func(w io.Writer) error {
		label := u.Username
		if u.Email != "" {
			label += " <" + u.Email + ">"
		}
		if u.IsDemo {
			label += " [demo]"
		}
		_, err := fmt.Fprintf(w, "%s %s\n", prefix, label)
		return err
	})
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
