package application_test

import (
	"context"
	"encoding/csv"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reverbdotcom/breakglass/internal/application"
	"github.com/reverbdotcom/breakglass/internal/domain/model"
)

func TestReporter_CategorizesClosedItems(t *testing.T) {
	closedAt := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	gateway := &mockGateway{
		searchResults: []model.IssueSummary{
			{Number: 7, IsPullRequest: true},
			{Number: 12},
		},
		prDetails: map[int]*model.PullRequestDetail{
			7: {
				Number:         7,
				Title:          "Fix the flux capacitor",
				URL:            "https://github.com/owner/repo/pull/7",
				Author:         "alice",
				Merged:         true,
				MergedBy:       "carol",
				ClosedAt:       closedAt,
				Labels:         []string{"emergency-ci"},
				ReviewComments: 3,
			},
		},
		issueDetails: map[int]*model.IssueDetail{
			12: {
				Number:   12,
				Title:    "Grant deploy access",
				URL:      "https://github.com/owner/repo/issues/12",
				Author:   "bob",
				ClosedAt: closedAt,
				Labels:   []string{"emergency-approval"},
			},
		},
	}
	notifier := &mockNotifier{}
	reporter := application.NewReporter(testConfig(), gateway, notifier)

	require.NoError(t, reporter.Run(context.Background()))

	require.Len(t, gateway.searches, 1)
	assert.True(t, strings.HasPrefix(gateway.searches[0], "state:closed closed:>"))

	require.Len(t, notifier.messages, 1)
	records, err := csv.NewReader(strings.NewReader(notifier.messages[0])).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, []string{"url", "title", "creator", "category", "merged", "merged_by", "closed_at", "labels", "review_comments"}, records[0])

	pr := records[1]
	assert.Equal(t, "https://github.com/owner/repo/pull/7", pr[0])
	assert.Equal(t, "code-change", pr[3])
	assert.Equal(t, "true", pr[4])
	assert.Equal(t, "carol", pr[5])
	assert.Equal(t, "3", pr[8])

	issue := records[2]
	assert.Equal(t, "https://github.com/owner/repo/issues/12", issue[0])
	assert.Equal(t, "access-request", issue[3])
	assert.Equal(t, "", issue[4])
}

func TestReporter_FailureNotifiesAndPropagates(t *testing.T) {
	gateway := &mockGateway{searchErr: errors.New("search exploded")}
	notifier := &mockNotifier{}
	reporter := application.NewReporter(testConfig(), gateway, notifier)

	err := reporter.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "search exploded")

	require.Len(t, notifier.messages, 1)
	assert.Contains(t, notifier.messages[0], "Summary report creation failed")
}
