// Package application contains the policy core: the event router, the label
// policies, the reconciliation sweeps, the branch protection auditor, and the
// weekly summary reporter.
package application

import (
	"context"
	"log/slog"

	"github.com/reverbdotcom/breakglass/internal/config"
	"github.com/reverbdotcom/breakglass/internal/domain/model"
	"github.com/reverbdotcom/breakglass/internal/domain/port/driven"
)

// Router dispatches one inbound webhook event. "opened" posts the configured
// instructions; "labeled" hands off to the policy engine; every other action
// is a no-op. Errors from downstream handlers propagate unchanged — the
// router never retries.
type Router struct {
	instructions string
	gateway      driven.RepoGateway
	policies     *PolicyEngine
}

// NewRouter creates a Router wired to the given gateway and notifier.
func NewRouter(cfg *config.Config, gateway driven.RepoGateway, notifier driven.Notifier) *Router {
	return &Router{
		instructions: cfg.Instructions,
		gateway:      gateway,
		policies:     NewPolicyEngine(cfg, gateway, notifier),
	}
}

// Handle routes the event by action.
func (r *Router) Handle(ctx context.Context, ev model.Event) error {
	switch ev.Action {
	case model.ActionOpened:
		if r.instructions == "" {
			slog.Debug("no instructions configured, skipping welcome comment", "number", ev.Number)
			return nil
		}
		return r.gateway.AddComment(ctx, ev.Number, r.instructions)

	case model.ActionLabeled:
		return r.policies.Apply(ctx, ev)

	default:
		slog.Debug("ignoring event action", "action", ev.Action, "number", ev.Number)
		return nil
	}
}
