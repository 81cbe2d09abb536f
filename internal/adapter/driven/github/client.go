// Package github implements the RepoGateway port using the go-github library.
package github

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	gh "github.com/google/go-github/v82/github"
	"github.com/gregjones/httpcache"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"

	"github.com/reverbdotcom/breakglass/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.RepoGateway = (*Client)(nil)

// Client implements the driven.RepoGateway port for a single repository.
// All operations are scoped to the owner/repo pair given at construction.
type Client struct {
	gh    *gh.Client
	owner string
	repo  string
	now   func() time.Time
}

// NewClient creates a new GitHub API client with the following transport stack:
//  1. httpcache (ETag-based conditional request caching)
//  2. go-github-ratelimit (secondary rate limit middleware, sleeps on 429)
//  3. go-github (GitHub REST API client with token auth)
func NewClient(token, owner, repo string) *Client {
	cacheTransport := httpcache.NewMemoryCacheTransport()
	rateLimitClient := github_ratelimit.NewClient(cacheTransport)
	client := gh.NewClient(rateLimitClient).WithAuthToken(token)

	return &Client{
		gh:    client,
		owner: owner,
		repo:  repo,
		now:   time.Now,
	}
}

// NewClientWithHTTPClient creates a Client with a custom http.Client and base
// URL. This constructor is intended for testing, allowing injection of an
// httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL, owner, repo string) (*Client, error) {
	client := gh.NewClient(httpClient)

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	client.BaseURL = u

	return &Client{
		gh:    client,
		owner: owner,
		repo:  repo,
		now:   time.Now,
	}, nil
}

// Slug returns the owner/repo pair the client is scoped to.
func (c *Client) Slug() string {
	return c.owner + "/" + c.repo
}

// LabelIssue adds a single label to an issue or pull request. The underlying
// API call is additive, so re-applying an existing label is harmless.
func (c *Client) LabelIssue(ctx context.Context, number int, label string) error {
	_, resp, err := c.gh.Issues.AddLabelsToIssue(ctx, c.owner, c.repo, number, []string{label})
	if err != nil {
		return fmt.Errorf("adding label %q to %s#%d: %w", label, c.Slug(), number, err)
	}

	logRateLimit(resp, c.Slug()+"/add-label", 0, 1)
	return nil
}

// RemoveLabel removes a label from an issue or pull request.
func (c *Client) RemoveLabel(ctx context.Context, number int, label string) error {
	resp, err := c.gh.Issues.RemoveLabelForIssue(ctx, c.owner, c.repo, number, label)
	if err != nil {
		return fmt.Errorf("removing label %q from %s#%d: %w", label, c.Slug(), number, err)
	}

	logRateLimit(resp, c.Slug()+"/remove-label", 0, 1)
	return nil
}

// AddComment posts a comment on an issue or pull request. The body is
// suffixed with the provenance footer: a separator line and the wall-clock
// time of posting. That footer is the only persisted record of when a bypass
// or approval happened.
func (c *Client) AddComment(ctx context.Context, number int, body string) error {
	comment := &gh.IssueComment{Body: gh.Ptr(formatComment(body, c.now()))}
	_, resp, err := c.gh.Issues.CreateComment(ctx, c.owner, c.repo, number, comment)
	if err != nil {
		return fmt.Errorf("creating comment on %s#%d: %w", c.Slug(), number, err)
	}

	logRateLimit(resp, c.Slug()+"/create-comment", 0, 1)
	return nil
}

// CreateReview submits a review on a pull request.
// event must be one of "APPROVE", "REQUEST_CHANGES", or "COMMENT".
func (c *Client) CreateReview(ctx context.Context, number int, body, event string) error {
	review := &gh.PullRequestReviewRequest{
		Event: gh.Ptr(event),
		Body:  gh.Ptr(body),
	}

	_, resp, err := c.gh.PullRequests.CreateReview(ctx, c.owner, c.repo, number, review)
	if err != nil {
		return fmt.Errorf("creating review for %s#%d: %w", c.Slug(), number, err)
	}

	logRateLimit(resp, c.Slug()+"/create-review", 0, 1)
	return nil
}

// CreateIssue files a new issue with the given labels.
func (c *Client) CreateIssue(ctx context.Context, title, body string, labels []string) error {
	req := &gh.IssueRequest{
		Title:  gh.Ptr(title),
		Body:   gh.Ptr(body),
		Labels: &labels,
	}

	_, resp, err := c.gh.Issues.Create(ctx, c.owner, c.repo, req)
	if err != nil {
		return fmt.Errorf("creating issue in %s: %w", c.Slug(), err)
	}

	logRateLimit(resp, c.Slug()+"/create-issue", 0, 1)
	return nil
}

// SetCommitStatus upserts one named status check on a commit. GitHub treats
// a repeated (sha, context) pair as an update, so the call is idempotent.
func (c *Client) SetCommitStatus(ctx context.Context, sha, statusContext, state string) error {
	status := gh.RepoStatus{
		State:   gh.Ptr(state),
		Context: gh.Ptr(statusContext),
	}

	_, resp, err := c.gh.Repositories.CreateStatus(ctx, c.owner, c.repo, sha, status)
	if err != nil {
		return fmt.Errorf("setting status %q on %s@%s: %w", statusContext, c.Slug(), sha, err)
	}

	logRateLimit(resp, c.Slug()+"/create-status", 0, 1)
	return nil
}

// formatComment appends the provenance footer to a comment body.
func formatComment(body string, now time.Time) string {
	return body + "\n\n---\n" + now.Format(time.RFC1123)
}

// logRateLimit logs the GitHub API rate limit status after each call.
func logRateLimit(resp *gh.Response, endpoint string, page, count int) {
	if resp == nil {
		return
	}

	slog.Debug("github api call",
		"endpoint", endpoint,
		"page", page,
		"count", count,
		"rate_remaining", resp.Rate.Remaining,
		"rate_limit", resp.Rate.Limit,
	)

	if resp.Rate.Remaining < 100 {
		slog.Warn("github rate limit low",
			"remaining", resp.Rate.Remaining,
			"reset_in", time.Until(resp.Rate.Reset.Time).Round(time.Second),
		)
	}
}
