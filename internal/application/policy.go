package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/reverbdotcom/breakglass/internal/config"
	"github.com/reverbdotcom/breakglass/internal/domain/model"
	"github.com/reverbdotcom/breakglass/internal/domain/port/driven"
)

// PolicyEngine holds the decision logic for the three emergency labels.
// Labels outside the configured set are ignored without side effects.
type PolicyEngine struct {
	cfg      *config.Config
	gateway  driven.RepoGateway
	notifier driven.Notifier
}

// NewPolicyEngine creates a PolicyEngine with explicit dependencies.
func NewPolicyEngine(cfg *config.Config, gateway driven.RepoGateway, notifier driven.Notifier) *PolicyEngine {
	return &PolicyEngine{cfg: cfg, gateway: gateway, notifier: notifier}
}

// Apply dispatches a "labeled" event to the policy matching the label name.
func (p *PolicyEngine) Apply(ctx context.Context, ev model.Event) error {
	switch ev.Label {
	case p.cfg.SkipCILabel:
		return p.skipCI(ctx, ev)
	case p.cfg.SkipApprovalLabel:
		return p.skipApproval(ctx, ev)
	case p.cfg.PosthocApprovalLabel:
		return p.posthocApproval(ctx, ev)
	default:
		slog.Debug("ignoring unrecognized label", "label", ev.Label, "number", ev.Number)
		return nil
	}
}

// announce posts the chat audit line for a label-triggered action. For bare
// issues with a body, the body is quoted below the line so reviewers in chat
// see what was requested.
func (p *PolicyEngine) announce(ctx context.Context, ev model.Event) error {
	msg := fmt.Sprintf("<%s|#%d> (%s) *%s* by %s", ev.URL, ev.Number, ev.Repo, ev.Label, ev.Actor)
	if ev.Kind == model.TargetIssue && ev.Body != "" {
		msg += "\n\n" + quote(ev.Body)
	}
	return p.notifier.PostMessage(ctx, msg)
}

// skipCI bypasses the required CI checks on a pull request by setting every
// required check context to success on the head commit. The contexts come
// from a live branch protection lookup so the bypass always matches current
// policy; the static required_checks input is only a fallback. The statuses
// are not reversible by this bot — the retroactive sweep is the only
// verification step.
func (p *PolicyEngine) skipCI(ctx context.Context, ev model.Event) error {
	if !ev.IsPullRequest() {
		slog.Debug("skip-ci label applied to a plain issue, ignoring", "number", ev.Number)
		return nil
	}

	if err := p.announce(ctx, ev); err != nil {
		return err
	}

	body := fmt.Sprintf("Bypassing CI checks - %s applied", ev.Label)
	if err := p.gateway.AddComment(ctx, ev.Number, body); err != nil {
		return err
	}

	checks, err := p.requiredChecks(ctx)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, name := range checks {
		g.Go(func() error {
			slog.Debug("bypassing check", "context", name, "sha", ev.HeadSHA)
			return p.gateway.SetCommitStatus(gctx, ev.HeadSHA, name, model.StatusSuccess)
		})
	}
	return g.Wait()
}

// requiredChecks resolves the check contexts to bypass: the live branch
// protection contexts when any are configured, else the static input list.
func (p *PolicyEngine) requiredChecks(ctx context.Context) ([]string, error) {
	protection, err := p.gateway.GetBranchProtection(ctx, p.cfg.Branch)
	if err != nil {
		return nil, err
	}
	if rsc := protection.RequiredStatusChecks; rsc != nil && len(rsc.Contexts) > 0 {
		return rsc.Contexts, nil
	}
	return p.cfg.RequiredChecks, nil
}

// skipApproval bypasses the peer-review gate. On a pull request the bypass is
// unconditional: an approving review is submitted citing the label. On a bare
// issue the approval must come from a peer; a self-approval gets a rejection
// comment and nothing else — the label stays applied, but the approval did
// not take.
func (p *PolicyEngine) skipApproval(ctx context.Context, ev model.Event) error {
	if ev.IsPullRequest() {
		if err := p.announce(ctx, ev); err != nil {
			return err
		}
		body := fmt.Sprintf("Skipping approval check - %s applied", ev.Label)
		return p.gateway.CreateReview(ctx, ev.Number, body, "APPROVE")
	}

	if ev.Actor == ev.Author {
		slog.Debug("self-approval rejected", "number", ev.Number, "actor", ev.Actor)
		body := fmt.Sprintf("Approval rejected - %s opened this issue and cannot approve it. Have a peer apply the %s label.", ev.Actor, ev.Label)
		return p.gateway.AddComment(ctx, ev.Number, body)
	}

	if err := p.announce(ctx, ev); err != nil {
		return err
	}
	body := fmt.Sprintf("Approved by %s - %s applied", ev.Actor, ev.Label)
	return p.gateway.AddComment(ctx, ev.Number, body)
}

// posthocApproval certifies that emergency-approved work received a real
// review after the fact. The certification only holds when it comes from a
// peer and the item is already closed; on any violation the comment lists
// every failed precondition and the label is removed so an invalid marker
// never persists.
func (p *PolicyEngine) posthocApproval(ctx context.Context, ev model.Event) error {
	var problems []string
	if ev.Actor == ev.Author {
		problems = append(problems, "the original author cannot certify their own post-hoc review")
	}
	if !ev.Closed() {
		problems = append(problems, "this issue is still open; the post-hoc review applies to closed work")
	}

	if err := p.announce(ctx, ev); err != nil {
		return err
	}

	if len(problems) == 0 {
		body := fmt.Sprintf("Post-hoc review recorded - %s applied by %s", ev.Label, ev.Actor)
		return p.gateway.AddComment(ctx, ev.Number, body)
	}

	var b strings.Builder
	b.WriteString("Cannot record the post-hoc review:\n")
	for _, reason := range problems {
		fmt.Fprintf(&b, "- %s\n", reason)
	}
	fmt.Fprintf(&b, "\nRemoving the %s label.", ev.Label)

	if err := p.gateway.AddComment(ctx, ev.Number, b.String()); err != nil {
		return err
	}
	return p.gateway.RemoveLabel(ctx, ev.Number, ev.Label)
}

// quote prefixes every line of text with "> " for chat display.
func quote(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = "> " + line
	}
	return strings.Join(lines, "\n")
}
