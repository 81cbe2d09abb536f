package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/reverbdotcom/breakglass/internal/config"
	"github.com/reverbdotcom/breakglass/internal/domain/model"
	"github.com/reverbdotcom/breakglass/internal/domain/port/driven"
)

const (
	auditIssueTitle = "Branch Protection Missing or Incomplete"
	auditIssueLabel = "branch-protection-alert"
)

// ProtectionAuditor compares the live branch protection settings of the
// default branch against required policy. Every violated rule becomes one
// line of a single filed issue; a fully compliant branch files nothing.
type ProtectionAuditor struct {
	cfg     *config.Config
	gateway driven.RepoGateway
}

// NewProtectionAuditor creates the branch protection auditor.
func NewProtectionAuditor(cfg *config.Config, gateway driven.RepoGateway) *ProtectionAuditor {
	return &ProtectionAuditor{cfg: cfg, gateway: gateway}
}

// Run performs one audit.
func (a *ProtectionAuditor) Run(ctx context.Context) error {
	slog.Debug("checking branch protection", "branch", a.cfg.Branch)

	protection, err := a.gateway.GetBranchProtection(ctx, a.cfg.Branch)
	if err != nil {
		return err
	}

	violations := EvaluateProtection(protection, a.cfg.RequiredChecks)
	if len(violations) == 0 {
		slog.Debug("branch protection satisfies policy", "branch", a.cfg.Branch)
		return nil
	}

	slog.Info("branch protection is missing or incomplete",
		"branch", a.cfg.Branch,
		"violations", len(violations),
	)

	body := fmt.Sprintf(`## %s

The following errors were found when checking the branch protection settings for this repository.

%s

Please notify the repository admin and resolve immediately.`, auditIssueTitle, strings.Join(violations, "\n"))

	return a.gateway.CreateIssue(ctx, auditIssueTitle, body, []string{auditIssueLabel})
}

// EvaluateProtection returns one human-readable error line per violated
// protection rule. All rules are evaluated; nothing short-circuits. The
// required-status-checks rule only applies when the configuration declares
// checks at all. A nil or empty settings value fails every applicable rule.
func EvaluateProtection(p *model.BranchProtection, requiredChecks []string) []string {
	if p == nil {
		p = &model.BranchProtection{}
	}

	var violations []string

	checks := p.RequiredStatusChecks
	if len(requiredChecks) > 0 && (checks == nil || len(checks.Contexts) == 0) {
		violations = append(violations, "❌ - required status checks are not enforced")
	}

	if !p.EnforceAdmins {
		violations = append(violations, "❌ - not enabled for admins")
	}

	reviews := p.RequiredPullRequestReviews
	if reviews == nil || !reviews.DismissStaleReviews {
		violations = append(violations, "❌ - pull request reviews with stale review dismissal are not required")
	}

	return violations
}
