package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	gh "github.com/google/go-github/v82/github"

	"github.com/reverbdotcom/breakglass/internal/domain/model"
)

// The search API caps pages at this size; the aggregation loop below exits
// once total_count is covered by the pages fetched so far.
const searchPageSize = 30

// GetDetailedPR fetches the authoritative pull request record, including the
// merged flag the search projection cannot provide.
func (c *Client) GetDetailedPR(ctx context.Context, number int) (*model.PullRequestDetail, error) {
	pr, resp, err := c.gh.PullRequests.Get(ctx, c.owner, c.repo, number)
	if err != nil {
		return nil, fmt.Errorf("fetching PR detail for %s#%d: %w", c.Slug(), number, err)
	}

	logRateLimit(resp, c.Slug()+"/pr-detail", 0, 1)

	labels := make([]string, 0, len(pr.Labels))
	for _, l := range pr.Labels {
		labels = append(labels, l.GetName())
	}

	return &model.PullRequestDetail{
		Number:         pr.GetNumber(),
		Title:          pr.GetTitle(),
		URL:            pr.GetHTMLURL(),
		State:          pr.GetState(),
		Author:         pr.GetUser().GetLogin(),
		Merged:         pr.GetMerged(),
		MergeCommitSHA: pr.GetMergeCommitSHA(),
		MergedBy:       pr.GetMergedBy().GetLogin(),
		ClosedAt:       pr.GetClosedAt().Time,
		Labels:         labels,
		ReviewComments: pr.GetReviewComments(),
		HeadSHA:        pr.GetHead().GetSHA(),
	}, nil
}

// GetDetailedIssue fetches the authoritative issue record.
func (c *Client) GetDetailedIssue(ctx context.Context, number int) (*model.IssueDetail, error) {
	issue, resp, err := c.gh.Issues.Get(ctx, c.owner, c.repo, number)
	if err != nil {
		return nil, fmt.Errorf("fetching issue detail for %s#%d: %w", c.Slug(), number, err)
	}

	logRateLimit(resp, c.Slug()+"/issue-detail", 0, 1)

	labels := make([]string, 0, len(issue.Labels))
	for _, l := range issue.Labels {
		labels = append(labels, l.GetName())
	}

	return &model.IssueDetail{
		Number:   issue.GetNumber(),
		Title:    issue.GetTitle(),
		URL:      issue.GetHTMLURL(),
		State:    issue.GetState(),
		Author:   issue.GetUser().GetLogin(),
		Labels:   labels,
		ClosedAt: issue.GetClosedAt().Time,
	}, nil
}

// SearchIssues runs an issue search restricted to the client's repository and
// aggregates every page into one list. Pagination is a bounded loop on
// total_count rather than a follow-the-next-link walk, so a pathological
// result set cannot recurse or spin: the loop exits as soon as the pages
// fetched cover the reported total.
func (c *Client) SearchIssues(ctx context.Context, query string) ([]model.IssueSummary, error) {
	scoped := fmt.Sprintf("repo:%s %s", c.Slug(), query)

	all := []model.IssueSummary{}
	for page := 1; ; page++ {
		result, resp, err := c.gh.Search.Issues(ctx, scoped, &gh.SearchOptions{
			ListOptions: gh.ListOptions{
				Page:    page,
				PerPage: searchPageSize,
			},
		})
		if err != nil {
			return nil, fmt.Errorf("searching %q (page %d): %w", scoped, page, err)
		}

		logRateLimit(resp, c.Slug()+"/search", page, len(result.Issues))

		for _, issue := range result.Issues {
			all = append(all, mapIssueSummary(issue))
		}

		if result.GetTotal() <= page*searchPageSize {
			return all, nil
		}
	}
}

// GetCombinedStatus returns the rolled-up commit status for the given ref.
func (c *Client) GetCombinedStatus(ctx context.Context, ref string) (*model.CombinedStatus, error) {
	cs, resp, err := c.gh.Repositories.GetCombinedStatus(ctx, c.owner, c.repo, ref, nil)
	if err != nil {
		return nil, fmt.Errorf("fetching combined status for %s@%s: %w", c.Slug(), ref, err)
	}

	logRateLimit(resp, c.Slug()+"/status", 0, len(cs.Statuses))

	return &model.CombinedStatus{
		State: cs.GetState(),
		SHA:   cs.GetSHA(),
	}, nil
}

// GetBranchProtection fetches the live branch protection settings. A branch
// with no protection at all maps to the zero settings value so the auditor
// can treat every missing rule as a failed predicate rather than a fetch
// error.
func (c *Client) GetBranchProtection(ctx context.Context, branch string) (*model.BranchProtection, error) {
	protection, resp, err := c.gh.Repositories.GetBranchProtection(ctx, c.owner, c.repo, branch)
	if err != nil {
		if errors.Is(err, gh.ErrBranchNotProtected) {
			return &model.BranchProtection{}, nil
		}
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return &model.BranchProtection{}, nil
		}
		return nil, fmt.Errorf("fetching branch protection for %s branch %s: %w", c.Slug(), branch, err)
	}

	logRateLimit(resp, c.Slug()+"/branch-protection", 0, 1)

	return mapBranchProtection(protection), nil
}

// mapBranchProtection converts a go-github Protection to the domain type,
// tolerating absent nested rules.
func mapBranchProtection(p *gh.Protection) *model.BranchProtection {
	bp := &model.BranchProtection{}
	if p == nil {
		return bp
	}

	if rsc := p.GetRequiredStatusChecks(); rsc != nil {
		contexts := []string{}
		if rsc.Checks != nil {
			for _, check := range *rsc.Checks {
				contexts = append(contexts, check.Context)
			}
		}
		// Older protection payloads report plain context names instead of
		// check objects.
		if len(contexts) == 0 && rsc.Contexts != nil {
			contexts = append(contexts, *rsc.Contexts...)
		}
		bp.RequiredStatusChecks = &model.RequiredStatusChecks{Contexts: contexts}
	}

	if admins := p.GetEnforceAdmins(); admins != nil {
		bp.EnforceAdmins = admins.Enabled
	}

	if reviews := p.GetRequiredPullRequestReviews(); reviews != nil {
		bp.RequiredPullRequestReviews = &model.RequiredPullRequestReviews{
			DismissStaleReviews: reviews.DismissStaleReviews,
		}
	}

	return bp
}

// mapIssueSummary converts a search result item to the lightweight domain
// projection. Merge state is intentionally not mapped: search items do not
// report it authoritatively.
func mapIssueSummary(issue *gh.Issue) model.IssueSummary {
	labels := make([]string, 0, len(issue.Labels))
	for _, l := range issue.Labels {
		labels = append(labels, l.GetName())
	}

	return model.IssueSummary{
		Number:        issue.GetNumber(),
		URL:           issue.GetHTMLURL(),
		State:         issue.GetState(),
		Labels:        labels,
		IsPullRequest: issue.IsPullRequest(),
	}
}
