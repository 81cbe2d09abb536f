package application

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/reverbdotcom/breakglass/internal/config"
	"github.com/reverbdotcom/breakglass/internal/domain/port/driven"
)

// The digest categorizes closed pull requests as code changes and closed bare
// issues as access requests.
const (
	categoryCodeChange    = "code-change"
	categoryAccessRequest = "access-request"
)

// Reporter posts the weekly digest: a CSV of everything closed in the
// trailing week.
type Reporter struct {
	cfg      *config.Config
	gateway  driven.RepoGateway
	notifier driven.Notifier
}

// NewReporter creates the summary reporter.
func NewReporter(cfg *config.Config, gateway driven.RepoGateway, notifier driven.Notifier) *Reporter {
	return &Reporter{cfg: cfg, gateway: gateway, notifier: notifier}
}

// Run builds and posts the digest. Report generation failure is converted
// into a best-effort chat notice, then the error still propagates so the
// invocation fails visibly.
func (r *Reporter) Run(ctx context.Context) error {
	report, err := r.build(ctx)
	if err != nil {
		if notifyErr := r.notifier.PostMessage(ctx, "Summary report creation failed!"); notifyErr != nil {
			slog.Error("could not send report failure notice", "error", notifyErr)
		}
		return fmt.Errorf("building summary report: %w", err)
	}
	return r.notifier.PostMessage(ctx, report)
}

func (r *Reporter) build(ctx context.Context) (string, error) {
	since := time.Now().AddDate(0, 0, -7).Format("2006-01-02")
	items, err := r.gateway.SearchIssues(ctx, fmt.Sprintf("state:closed closed:>%s", since))
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"url", "title", "creator", "category", "merged", "merged_by", "closed_at", "labels", "review_comments"}
	if err := w.Write(header); err != nil {
		return "", fmt.Errorf("writing report header: %w", err)
	}

	for _, item := range items {
		var row []string
		if item.IsPullRequest {
			pr, err := r.gateway.GetDetailedPR(ctx, item.Number)
			if err != nil {
				return "", err
			}
			row = []string{
				pr.URL,
				pr.Title,
				pr.Author,
				categoryCodeChange,
				strconv.FormatBool(pr.Merged),
				pr.MergedBy,
				pr.ClosedAt.Format(time.RFC3339),
				strings.Join(pr.Labels, ";"),
				strconv.Itoa(pr.ReviewComments),
			}
		} else {
			issue, err := r.gateway.GetDetailedIssue(ctx, item.Number)
			if err != nil {
				return "", err
			}
			row = []string{
				issue.URL,
				issue.Title,
				issue.Author,
				categoryAccessRequest,
				"",
				"",
				issue.ClosedAt.Format(time.RFC3339),
				strings.Join(issue.Labels, ";"),
				"",
			}
		}
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("writing report row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flushing report: %w", err)
	}
	return buf.String(), nil
}
