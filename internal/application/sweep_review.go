package application

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/reverbdotcom/breakglass/internal/config"
	"github.com/reverbdotcom/breakglass/internal/domain/port/driven"
)

// ReviewSweep catches emergency-approved items that were merged or closed but
// never received a post-hoc review label. It only nags — comment plus chat
// message — and applies no label itself; a human (or the post-hoc policy)
// closes the loop.
type ReviewSweep struct {
	cfg      *config.Config
	gateway  driven.RepoGateway
	notifier driven.Notifier
}

// NewReviewSweep creates the stale post-hoc review audit sweep.
func NewReviewSweep(cfg *config.Config, gateway driven.RepoGateway, notifier driven.Notifier) *ReviewSweep {
	return &ReviewSweep{cfg: cfg, gateway: gateway, notifier: notifier}
}

// Run executes one sweep. Pull requests that were closed without merging need
// no review, so they are skipped after a detail fetch — the search projection
// cannot be trusted for merge state.
func (s *ReviewSweep) Run(ctx context.Context) error {
	query := fmt.Sprintf("state:closed label:%s -label:%s", s.cfg.SkipApprovalLabel, s.cfg.PosthocApprovalLabel)
	items, err := s.gateway.SearchIssues(ctx, query)
	if err != nil {
		return err
	}

	msg := fmt.Sprintf("This issue is missing verification by a peer! Have a peer review this issue and apply the %s to approve.", s.cfg.PosthocApprovalLabel)

	g, gctx := errgroup.WithContext(ctx)
	for _, item := range items {
		g.Go(func() error {
			if item.IsPullRequest {
				detail, err := s.gateway.GetDetailedPR(gctx, item.Number)
				if err != nil {
					return err
				}
				if !detail.Merged {
					slog.Debug("PR closed without merging, no review needed", "number", item.Number)
					return nil
				}
			}

			if err := s.gateway.AddComment(gctx, item.Number, msg); err != nil {
				return err
			}
			return s.notifier.PostMessage(gctx, msg+" - "+item.URL)
		})
	}
	return g.Wait()
}
