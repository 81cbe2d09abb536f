package model

// Commit status states as reported by the combined status API.
const (
	StatusSuccess = "success"
	StatusPending = "pending"
	StatusFailure = "failure"
	StatusError   = "error"
)

// CombinedStatus is the rolled-up commit status of a ref: the overall state
// and the SHA it was computed for.
type CombinedStatus struct {
	State string
	SHA   string
}

// Green reports whether every status check on the ref succeeded.
func (s CombinedStatus) Green() bool {
	return s.State == StatusSuccess
}

// BranchProtection mirrors the branch protection payload. Nested parts are
// nil when the corresponding rule is not configured; an entirely unprotected
// branch maps to the zero value, never to a fetch error.
type BranchProtection struct {
	RequiredStatusChecks       *RequiredStatusChecks
	EnforceAdmins              bool
	RequiredPullRequestReviews *RequiredPullRequestReviews
}

// RequiredStatusChecks lists the check contexts a branch protection rule
// requires to succeed before merging.
type RequiredStatusChecks struct {
	Contexts []string
}

// RequiredPullRequestReviews describes the peer-review rule of a branch
// protection configuration.
type RequiredPullRequestReviews struct {
	DismissStaleReviews bool
}
