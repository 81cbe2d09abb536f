// Package model holds the domain types shared by the policy engine, the
// reconciliation sweeps, and the GitHub adapter.
package model

import "time"

// IssueSummary is the lightweight projection returned by the search API.
// It deliberately has no merged field: search results do not report merge
// state authoritatively. Code that needs to know whether a pull request was
// merged must fetch a PullRequestDetail.
type IssueSummary struct {
	Number int
	URL    string
	State  string
	Labels []string

	// IsPullRequest is true when the search item is a pull request rather
	// than a plain issue.
	IsPullRequest bool
}

// IssueDetail is a full issue record fetched from the Issues API.
type IssueDetail struct {
	Number   int
	Title    string
	URL      string
	State    string
	Author   string
	Labels   []string
	ClosedAt time.Time
}

// PullRequestDetail is a full pull request record fetched from the Pulls API.
// Merged is authoritative here and nowhere else.
type PullRequestDetail struct {
	Number         int
	Title          string
	URL            string
	State          string
	Author         string
	Merged         bool
	MergeCommitSHA string
	MergedBy       string
	ClosedAt       time.Time
	Labels         []string
	ReviewComments int
	HeadSHA        string
}
