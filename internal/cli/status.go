package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/five82/harmonic/internal/app"
	"github.com/five82/harmonic/internal/response"
)

type statusReport struct {
	APIURL        string `json:"api_url"`
	Backend       string `json:"backend"`
	Version       string `json:"version,omitempty"`
	Error         string `json:"error,omitempty"`
	Breaker       string `json:"breaker"`
	CacheEnabled  bool   `json:"cache_enabled"`
	CacheEntries  int    `json:"cache_entries"`
	SignedIn      bool   `json:"signed_in"`
	SessionDemo   bool   `json:"demo,omitempty"`
	SessionUserID int64  `json:"user_id,omitempty"`
}

func newStatusCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check backend health and local client state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withRuntime(cmd, func(ctx context.Context, rt *app.Runtime) error {
				report := statusReport{}
				health, err := rt.Services.System.Health(ctx)
				switch {
				case err != nil:
					report.Backend = "unreachable"
					report.Error = response.MessageOf(err)
				case health.Healthy():
					report.Backend = "healthy"
					report.Version = health.Version
				default:
					report.Backend = health.Status
					report.Version = health.Version
				}

				stats := rt.Client.Stats()
				report.APIURL = stats.BaseURL
				report.Breaker = stats.Breaker
				report.CacheEnabled = stats.CacheEnabled
				report.CacheEntries = stats.CacheEntries

				if user, _ := rt.Session.User(ctx); user != nil {
					report.SignedIn = true
					report.SessionDemo = user.IsDemo
					report.SessionUserID = user.ID
				}

				return opts.output(cmd, report, func(w io.Writer) error {
					return statusText(w, report)
				})
			})
		},
	}
}

func statusText(w io.Writer, r statusReport) error {
	backend := r.Backend
	if r.Version != "" {
		backend += " (" + r.Version + ")"
	}
	if r.Error != "" {
		backend += ": " + r.Error
	}
	session := "signed out"
	if r.SignedIn {
		session = fmt.Sprintf("user %d", r.SessionUserID)
		if r.SessionDemo {
			session += " [demo]"
		}
	}
	cache := "disabled"
	if r.CacheEnabled {
		cache = fmt.Sprintf("%d entries", r.CacheEntries)
	}
	_, err := fmt.Fprintf(w, "API:      %s\nBackend:  %s\nBreaker:  %s\nCache:    %s\nSession:  %s\n",
		r.APIURL, backend, r.Breaker, cache, session)
	return err
}
