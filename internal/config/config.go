// Package config loads the bot configuration from environment variables.
//
// The bot runs as a GitHub Action, so inputs arrive via the INPUT_* variable
// convention the Actions runner uses. Label names fall back to sensible
// defaults; everything else defaults to empty.
package config

import (
	"fmt"
	"os"
	"strings"
)

// Config holds the bot configuration for one invocation. It is threaded
// explicitly into every component constructor; there is no package-level
// configuration state.
type Config struct {
	GitHubToken          string
	Instructions         string
	RequiredChecks       []string
	SkipApprovalLabel    string
	SkipCILabel          string
	PosthocApprovalLabel string
	SlackHook            string
	VerifiedCILabel      string
	Branch               string
}

// Load reads configuration from environment variables and returns a validated
// Config. The token is resolved from INPUT_GITHUB_TOKEN first, then the
// runner-provided GITHUB_TOKEN; a missing token is a fatal configuration
// error since every invocation talks to the API.
func Load() (*Config, error) {
	token := getInput("github_token")
	if token == "" {
		token = os.Getenv("GITHUB_TOKEN")
	}
	if token == "" {
		return nil, fmt.Errorf("no GitHub token configured: set the github_token input or GITHUB_TOKEN")
	}

	return &Config{
		GitHubToken:          token,
		Instructions:         getInput("instructions"),
		RequiredChecks:       splitList(getInput("required_checks")),
		SkipApprovalLabel:    getInputDefault("skip_approval_label", "emergency-approval"),
		SkipCILabel:          getInputDefault("skip_ci_label", "emergency-ci"),
		PosthocApprovalLabel: getInputDefault("posthoc_approval_label", "posthoc-approval"),
		SlackHook:            getInput("slack_hook"),
		VerifiedCILabel:      getInputDefault("verified_ci_label", "verified-ci"),
		Branch:               getInputDefault("branch", "master"),
	}, nil
}

// getInput reads an Actions input. The runner exports input "foo_bar" as the
// environment variable INPUT_FOO_BAR.
func getInput(name string) string {
	key := "INPUT_" + strings.ToUpper(name)
	return strings.TrimSpace(os.Getenv(key))
}

func getInputDefault(name, fallback string) string {
	if v := getInput(name); v != "" {
		return v
	}
	return fallback
}

// splitList parses a comma-separated input into an ordered list. Entries are
// trimmed and empties dropped; an empty input yields an empty list.
func splitList(raw string) []string {
	items := []string{}
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}
