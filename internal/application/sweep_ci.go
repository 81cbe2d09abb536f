package application

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/reverbdotcom/breakglass/internal/config"
	"github.com/reverbdotcom/breakglass/internal/domain/port/driven"
)

// CISweep retroactively verifies pull requests that bypassed CI. A bypassed
// PR merges without verified green status; once the default branch is green
// again this sweep comments the verifying SHA on each such PR and tags it
// with the verified label. Re-running after all PRs are tagged finds an empty
// set and does nothing.
type CISweep struct {
	cfg      *config.Config
	gateway  driven.RepoGateway
	notifier driven.Notifier
}

// NewCISweep creates the retroactive CI verification sweep.
func NewCISweep(cfg *config.Config, gateway driven.RepoGateway, notifier driven.Notifier) *CISweep {
	return &CISweep{cfg: cfg, gateway: gateway, notifier: notifier}
}

// Run executes one sweep. A red default branch never touches any PR: it
// cannot retroactively validate anything, so the sweep announces the failure
// once and stops.
func (s *CISweep) Run(ctx context.Context) error {
	query := fmt.Sprintf("type:pr state:closed label:%s -label:%s", s.cfg.SkipCILabel, s.cfg.VerifiedCILabel)
	prs, err := s.gateway.SearchIssues(ctx, query)
	if err != nil {
		return err
	}
	if len(prs) == 0 {
		slog.Debug("no unverified bypassed PRs")
		return nil
	}

	status, err := s.gateway.GetCombinedStatus(ctx, s.cfg.Branch)
	if err != nil {
		return err
	}
	if !status.Green() {
		slog.Info("default branch is not green, cannot verify bypassed PRs",
			"branch", s.cfg.Branch,
			"state", status.State,
		)
		msg := fmt.Sprintf("Cannot verify PRs that bypassed CI checks as %s has failing checks", s.cfg.Branch)
		return s.notifier.PostMessage(ctx, msg)
	}

	body := fmt.Sprintf("Code from this PR has passed all checks.\n\n%s", status.SHA)

	g, gctx := errgroup.WithContext(ctx)
	for _, pr := range prs {
		g.Go(func() error {
			slog.Info("retroactively verifying PR", "number", pr.Number, "sha", status.SHA)
			if err := s.gateway.AddComment(gctx, pr.Number, body); err != nil {
				return err
			}
			return s.gateway.LabelIssue(gctx, pr.Number, s.cfg.VerifiedCILabel)
		})
	}
	return g.Wait()
}
