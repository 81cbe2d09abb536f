package application_test

import (
	"context"
	"fmt"
	"sync"

	"github.com/reverbdotcom/breakglass/internal/config"
	"github.com/reverbdotcom/breakglass/internal/domain/model"
)

// testConfig returns a config with the default label names and two static
// required checks.
func testConfig() *config.Config {
	return &config.Config{
		Instructions:         "Please fill in the emergency checklist.",
		RequiredChecks:       []string{"ci/build", "ci/test"},
		SkipApprovalLabel:    "emergency-approval",
		SkipCILabel:          "emergency-ci",
		PosthocApprovalLabel: "posthoc-approval",
		VerifiedCILabel:      "verified-ci",
		Branch:               "master",
	}
}

// --- Mock implementations ---
//
// The policy engine and the sweeps fan out concurrently, so every recorder
// takes the mutex.

type labelCall struct {
	Number int
	Label  string
}

type commentCall struct {
	Number int
	Body   string
}

type statusCall struct {
	SHA     string
	Context string
	State   string
}

type reviewCall struct {
	Number int
	Body   string
	Event  string
}

type issueCall struct {
	Title  string
	Body   string
	Labels []string
}

type mockGateway struct {
	mu sync.Mutex

	labelsAdded   []labelCall
	labelsRemoved []labelCall
	comments      []commentCall
	statuses      []statusCall
	reviews       []reviewCall
	issuesFiled   []issueCall
	searches      []string
	statusFetches int

	searchResults  []model.IssueSummary
	searchErr      error
	prDetails      map[int]*model.PullRequestDetail
	issueDetails   map[int]*model.IssueDetail
	combinedStatus *model.CombinedStatus
	protection     *model.BranchProtection
	protectionErr  error
}

func (m *mockGateway) LabelIssue(_ context.Context, number int, label string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.labelsAdded = append(m.labelsAdded, labelCall{Number: number, Label: label})
	return nil
}

func (m *mockGateway) RemoveLabel(_ context.Context, number int, label string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.labelsRemoved = append(m.labelsRemoved, labelCall{Number: number, Label: label})
	return nil
}

func (m *mockGateway) AddComment(_ context.Context, number int, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.comments = append(m.comments, commentCall{Number: number, Body: body})
	return nil
}

func (m *mockGateway) GetDetailedPR(_ context.Context, number int) (*model.PullRequestDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	detail, ok := m.prDetails[number]
	if !ok {
		return nil, fmt.Errorf("no PR detail for #%d", number)
	}
	return detail, nil
}

func (m *mockGateway) GetDetailedIssue(_ context.Context, number int) (*model.IssueDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	detail, ok := m.issueDetails[number]
	if !ok {
		return nil, fmt.Errorf("no issue detail for #%d", number)
	}
	return detail, nil
}

func (m *mockGateway) SearchIssues(_ context.Context, query string) ([]model.IssueSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searches = append(m.searches, query)
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	return m.searchResults, nil
}

func (m *mockGateway) CreateIssue(_ context.Context, title, body string, labels []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.issuesFiled = append(m.issuesFiled, issueCall{Title: title, Body: body, Labels: labels})
	return nil
}

func (m *mockGateway) GetCombinedStatus(_ context.Context, _ string) (*model.CombinedStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statusFetches++
	if m.combinedStatus == nil {
		return nil, fmt.Errorf("no combined status configured")
	}
	return m.combinedStatus, nil
}

func (m *mockGateway) SetCommitStatus(_ context.Context, sha, statusContext, state string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses = append(m.statuses, statusCall{SHA: sha, Context: statusContext, State: state})
	return nil
}

func (m *mockGateway) CreateReview(_ context.Context, number int, body, event string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reviews = append(m.reviews, reviewCall{Number: number, Body: body, Event: event})
	return nil
}

func (m *mockGateway) GetBranchProtection(_ context.Context, _ string) (*model.BranchProtection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.protectionErr != nil {
		return nil, m.protectionErr
	}
	if m.protection == nil {
		return &model.BranchProtection{}, nil
	}
	return m.protection, nil
}

// mutationCount counts every remote mutation the gateway performed.
func (m *mockGateway) mutationCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.labelsAdded) + len(m.labelsRemoved) + len(m.comments) +
		len(m.statuses) + len(m.reviews) + len(m.issuesFiled)
}

type mockNotifier struct {
	mu       sync.Mutex
	messages []string
	err      error
}

func (m *mockNotifier) PostMessage(_ context.Context, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.messages = append(m.messages, text)
	return nil
}
