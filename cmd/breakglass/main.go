// Command breakglass is the emergency-bypass policy bot. It runs as a
// single-shot GitHub Actions step: one invocation per webhook event or
// scheduled trigger, with all state re-derived from the GitHub API.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	"github.com/reverbdotcom/breakglass/internal/adapter/driven/github"
	"github.com/reverbdotcom/breakglass/internal/adapter/driven/slack"
	"github.com/reverbdotcom/breakglass/internal/adapter/driving/action"
	"github.com/reverbdotcom/breakglass/internal/application"
	"github.com/reverbdotcom/breakglass/internal/config"
	"github.com/reverbdotcom/breakglass/internal/domain/port/driven"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "breakglass",
		Short:         "Emergency-bypass policy bot for GitHub repositories",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newRunCmd(), newAuditCmd(), newReportCmd())
	return root
}

// newRunCmd handles the triggering workflow event: issues and pull_request
// events route through the event router, schedule triggers run both
// reconciliation sweeps concurrently. Any other event kind fails before a
// gateway is even constructed.
func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Handle the triggering workflow event",
		RunE: func(cmd *cobra.Command, _ []string) error {
			trigger, err := action.Load()
			if err != nil {
				return err
			}

			cfg, gateway, notifier, err := wire(trigger.Owner, trigger.Repo)
			if err != nil {
				return err
			}

			if trigger.Kind == action.EventSchedule {
				slog.Info("running scheduled sweeps", "repo", trigger.Owner+"/"+trigger.Repo)
				ci := application.NewCISweep(cfg, gateway, notifier)
				review := application.NewReviewSweep(cfg, gateway, notifier)
				return application.RunSweeps(cmd.Context(), ci, review)
			}

			slog.Info("handling event",
				"kind", trigger.Kind,
				"action", trigger.Event.Action,
				"number", trigger.Event.Number,
			)
			router := application.NewRouter(cfg, gateway, notifier)
			return router.Handle(cmd.Context(), *trigger.Event)
		},
	}
}

func newAuditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "audit-protection",
		Short: "Audit branch protection settings against required policy",
		RunE: func(cmd *cobra.Command, _ []string) error {
			owner, repo, err := action.RepoFromEnv()
			if err != nil {
				return err
			}
			cfg, gateway, _, err := wire(owner, repo)
			if err != nil {
				return err
			}
			return application.NewProtectionAuditor(cfg, gateway).Run(cmd.Context())
		},
	}
}

func newReportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Post the weekly digest of closed issues and pull requests",
		RunE: func(cmd *cobra.Command, _ []string) error {
			owner, repo, err := action.RepoFromEnv()
			if err != nil {
				return err
			}
			cfg, gateway, notifier, err := wire(owner, repo)
			if err != nil {
				return err
			}
			return application.NewReporter(cfg, gateway, notifier).Run(cmd.Context())
		},
	}
}

// wire loads configuration and builds the repository-scoped adapters.
func wire(owner, repo string) (*config.Config, driven.RepoGateway, driven.Notifier, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, github.NewClient(cfg.GitHubToken, owner, repo), slack.New(cfg.SlackHook), nil
}
