package model

// TargetKind identifies which kind of object a webhook event refers to.
// The kind is fixed at the trigger boundary when the payload is parsed;
// downstream code never re-inspects raw payload shapes.
type TargetKind string

const (
	TargetIssue       TargetKind = "issue"
	TargetPullRequest TargetKind = "pull_request"
)

// Event actions the bot reacts to. Webhook payloads carry many more action
// values; everything outside this set is a no-op in the router.
const (
	ActionOpened  = "opened"
	ActionLabeled = "labeled"
)

// Issue / PR states as reported by the GitHub API.
const (
	StateOpen   = "open"
	StateClosed = "closed"
)

// Event is the normalized form of one inbound webhook event. It is built
// exactly once, at the trigger boundary, and is transient: it lives only for
// the duration of a single invocation.
type Event struct {
	Kind   TargetKind
	Action string
	Actor  string
	Owner  string
	Repo   string

	// Label is the name of the applied label. Only set when Action is "labeled".
	Label string

	Number int
	URL    string
	State  string
	Author string
	Body   string

	// Populated only when Kind is TargetPullRequest.
	HeadRef string
	HeadSHA string
}

// IsPullRequest reports whether the event's target is a pull request.
func (e Event) IsPullRequest() bool {
	return e.Kind == TargetPullRequest
}

// Closed reports whether the event's target was in the closed state when the
// event fired.
func (e Event) Closed() bool {
	return e.State == StateClosed
}
