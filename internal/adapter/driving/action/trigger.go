// Package action parses the GitHub Actions trigger environment into the
// domain event model. This is the only place raw webhook payload shapes are
// touched; everything downstream works with the model.Event tagged union.
package action

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	gh "github.com/google/go-github/v82/github"

	"github.com/reverbdotcom/breakglass/internal/domain/model"
)

// Supported trigger kinds. Anything else is a configuration error, reported
// before any remote call is made.
const (
	EventIssues      = "issues"
	EventPullRequest = "pull_request"
	EventSchedule    = "schedule"
)

// ErrUnsupportedEvent is returned when the workflow was triggered by an event
// kind the bot does not handle. It is a configuration problem, distinct from
// transport failures.
var ErrUnsupportedEvent = errors.New("workflow triggered by an unsupported event")

// Trigger describes one invocation: what fired it and, for webhook kinds,
// the normalized event.
type Trigger struct {
	Kind  string
	Owner string
	Repo  string

	// Event is nil for schedule triggers.
	Event *model.Event
}

// Load reads the trigger environment (GITHUB_EVENT_NAME, GITHUB_EVENT_PATH,
// GITHUB_REPOSITORY, GITHUB_ACTOR) and builds the Trigger for this
// invocation.
func Load() (*Trigger, error) {
	name := os.Getenv("GITHUB_EVENT_NAME")

	switch name {
	case EventSchedule:
		owner, repo, err := RepoFromEnv()
		if err != nil {
			return nil, err
		}
		return &Trigger{Kind: name, Owner: owner, Repo: repo}, nil

	case EventIssues, EventPullRequest:
		path := os.Getenv("GITHUB_EVENT_PATH")
		if path == "" {
			return nil, fmt.Errorf("GITHUB_EVENT_PATH is not set for %s event", name)
		}
		payload, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading event payload: %w", err)
		}
		ev, err := ParsePayload(name, payload, os.Getenv("GITHUB_ACTOR"))
		if err != nil {
			return nil, err
		}
		return &Trigger{Kind: name, Owner: ev.Owner, Repo: ev.Repo, Event: ev}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedEvent, name)
	}
}

// ParsePayload converts a raw webhook payload of the given kind into the
// domain event. The fallbackActor is used when the payload carries no sender.
func ParsePayload(kind string, payload []byte, fallbackActor string) (*model.Event, error) {
	switch kind {
	case EventIssues:
		return parseIssuesEvent(payload, fallbackActor)
	case EventPullRequest:
		return parsePullRequestEvent(payload, fallbackActor)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedEvent, kind)
	}
}

func parseIssuesEvent(payload []byte, fallbackActor string) (*model.Event, error) {
	var raw gh.IssuesEvent
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("unmarshaling issues event: %w", err)
	}
	if raw.Issue == nil {
		return nil, fmt.Errorf("issues event has no issue")
	}

	issue := raw.Issue
	ev := &model.Event{
		Kind:   model.TargetIssue,
		Action: raw.GetAction(),
		Actor:  actor(raw.GetSender().GetLogin(), fallbackActor),
		Owner:  raw.GetRepo().GetOwner().GetLogin(),
		Repo:   raw.GetRepo().GetName(),
		Label:  raw.GetLabel().GetName(),
		Number: issue.GetNumber(),
		URL:    issue.GetHTMLURL(),
		State:  issue.GetState(),
		Author: issue.GetUser().GetLogin(),
		Body:   issue.GetBody(),
	}
	return ev, nil
}

func parsePullRequestEvent(payload []byte, fallbackActor string) (*model.Event, error) {
	var raw gh.PullRequestEvent
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("unmarshaling pull_request event: %w", err)
	}
	if raw.PullRequest == nil {
		return nil, fmt.Errorf("pull_request event has no pull request")
	}

	pr := raw.PullRequest
	ev := &model.Event{
		Kind:    model.TargetPullRequest,
		Action:  raw.GetAction(),
		Actor:   actor(raw.GetSender().GetLogin(), fallbackActor),
		Owner:   raw.GetRepo().GetOwner().GetLogin(),
		Repo:    raw.GetRepo().GetName(),
		Label:   raw.GetLabel().GetName(),
		Number:  pr.GetNumber(),
		URL:     pr.GetHTMLURL(),
		State:   pr.GetState(),
		Author:  pr.GetUser().GetLogin(),
		Body:    pr.GetBody(),
		HeadRef: pr.GetHead().GetRef(),
		HeadSHA: pr.GetHead().GetSHA(),
	}
	return ev, nil
}

func actor(sender, fallback string) string {
	if sender != "" {
		return sender
	}
	return fallback
}

// RepoFromEnv splits GITHUB_REPOSITORY ("owner/name") into its components.
// Scheduled triggers and the standalone audit/report commands have no webhook
// payload, so the repository coordinates come from the runner environment.
func RepoFromEnv() (string, string, error) {
	slug := os.Getenv("GITHUB_REPOSITORY")
	parts := strings.SplitN(slug, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("GITHUB_REPOSITORY %q is not in owner/repo form", slug)
	}
	return parts[0], parts[1], nil
}
