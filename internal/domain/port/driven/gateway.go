// Package driven defines the outbound ports of the application core.
package driven

import (
	"context"

	"github.com/reverbdotcom/breakglass/internal/domain/model"
)

// RepoGateway defines the driven port for mutating and querying a single
// GitHub repository. Implementations are scoped to one owner/repo pair at
// construction time; search queries are transparently restricted to that
// repository.
type RepoGateway interface {
	// LabelIssue adds a label to the issue or pull request. Adding a label
	// that is already present is harmless.
	LabelIssue(ctx context.Context, number int, label string) error
	// RemoveLabel removes a label from the issue or pull request.
	RemoveLabel(ctx context.Context, number int, label string) error
	// AddComment posts a comment on the issue or pull request. The gateway
	// appends the provenance footer (separator line plus wall-clock
	// timestamp) to every body it posts.
	AddComment(ctx context.Context, number int, body string) error

	// GetDetailedPR fetches the authoritative pull request record. This is
	// the only place a merged flag can be trusted.
	GetDetailedPR(ctx context.Context, number int) (*model.PullRequestDetail, error)
	// GetDetailedIssue fetches the authoritative issue record.
	GetDetailedIssue(ctx context.Context, number int) (*model.IssueDetail, error)

	// SearchIssues runs an issue search scoped to the gateway's repository
	// and aggregates every result page into one list, preserving page order.
	SearchIssues(ctx context.Context, query string) ([]model.IssueSummary, error)

	// CreateIssue files a new issue with the given labels.
	CreateIssue(ctx context.Context, title, body string, labels []string) error

	// GetCombinedStatus returns the rolled-up commit status of the ref.
	GetCombinedStatus(ctx context.Context, ref string) (*model.CombinedStatus, error)
	// SetCommitStatus upserts one named status check on a commit. Setting
	// the same context to the same state twice is harmless.
	SetCommitStatus(ctx context.Context, sha, statusContext, state string) error

	// CreateReview submits a review on a pull request.
	// event must be one of "APPROVE", "REQUEST_CHANGES", or "COMMENT".
	CreateReview(ctx context.Context, number int, body, event string) error

	// GetBranchProtection fetches the live protection settings of a branch.
	// An unprotected branch yields an empty settings value, not an error.
	GetBranchProtection(ctx context.Context, branch string) (*model.BranchProtection, error)
}
