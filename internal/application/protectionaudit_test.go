package application_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reverbdotcom/breakglass/internal/application"
	"github.com/reverbdotcom/breakglass/internal/domain/model"
)

func compliantProtection() *model.BranchProtection {
	return &model.BranchProtection{
		RequiredStatusChecks:       &model.RequiredStatusChecks{Contexts: []string{"ci/build"}},
		EnforceAdmins:              true,
		RequiredPullRequestReviews: &model.RequiredPullRequestReviews{DismissStaleReviews: true},
	}
}

func TestEvaluateProtection(t *testing.T) {
	requiredChecks := []string{"ci/build"}

	t.Run("compliant settings pass", func(t *testing.T) {
		assert.Empty(t, application.EvaluateProtection(compliantProtection(), requiredChecks))
	})

	t.Run("missing status checks flagged only when config declares checks", func(t *testing.T) {
		p := compliantProtection()
		p.RequiredStatusChecks = nil

		violations := application.EvaluateProtection(p, requiredChecks)
		require.Len(t, violations, 1)
		assert.Contains(t, violations[0], "required status checks")

		assert.Empty(t, application.EvaluateProtection(p, nil))
	})

	t.Run("admin enforcement disabled flagged alone", func(t *testing.T) {
		p := compliantProtection()
		p.EnforceAdmins = false

		violations := application.EvaluateProtection(p, requiredChecks)
		require.Len(t, violations, 1)
		assert.Contains(t, violations[0], "admins")
		assert.NotContains(t, violations[0], "status checks")
	})

	t.Run("missing review rule flagged alone", func(t *testing.T) {
		p := compliantProtection()
		p.RequiredPullRequestReviews = nil

		violations := application.EvaluateProtection(p, requiredChecks)
		require.Len(t, violations, 1)
		assert.Contains(t, violations[0], "stale review dismissal")
	})

	t.Run("stale dismissal disabled fails the review rule", func(t *testing.T) {
		p := compliantProtection()
		p.RequiredPullRequestReviews.DismissStaleReviews = false

		violations := application.EvaluateProtection(p, requiredChecks)
		require.Len(t, violations, 1)
	})

	t.Run("absent protection fails every applicable rule", func(t *testing.T) {
		violations := application.EvaluateProtection(nil, requiredChecks)
		assert.Len(t, violations, 3)
	})
}

func TestProtectionAuditor_CompliantFilesNothing(t *testing.T) {
	gateway := &mockGateway{protection: compliantProtection()}
	auditor := application.NewProtectionAuditor(testConfig(), gateway)

	require.NoError(t, auditor.Run(context.Background()))
	assert.Empty(t, gateway.issuesFiled)
}

func TestProtectionAuditor_FilesOneItemizedIssue(t *testing.T) {
	// Unprotected branch: the gateway reports empty settings, not an error.
	gateway := &mockGateway{}
	auditor := application.NewProtectionAuditor(testConfig(), gateway)

	require.NoError(t, auditor.Run(context.Background()))

	require.Len(t, gateway.issuesFiled, 1)
	filed := gateway.issuesFiled[0]
	assert.Equal(t, "Branch Protection Missing or Incomplete", filed.Title)
	assert.Equal(t, []string{"branch-protection-alert"}, filed.Labels)
	assert.Contains(t, filed.Body, "required status checks")
	assert.Contains(t, filed.Body, "admins")
	assert.Contains(t, filed.Body, "stale review dismissal")
	assert.Contains(t, filed.Body, "resolve immediately")
}
