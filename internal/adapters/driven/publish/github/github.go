// Package github publishes digests as GitHub issues.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	gh "github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"

	"github.com/YX-UOM/Plithos/internal/adapters/driven/render"
	"github.com/YX-UOM/Plithos/internal/core/domain"
	"github.com/YX-UOM/Plithos/internal/core/ports/driven"
	"github.com/YX-UOM/Plithos/internal/logger"
)

// Ensure Publisher implements the interface.
var _ driven.Publisher = (*Publisher)(nil)

const (
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultLabel tags digest issues when no labels are configured.
	DefaultLabel = "esg-digest"

	// MaxBodyLength is GitHub's issue body limit.
	MaxBodyLength = 65536
)

// ErrNotConfigured is returned when publishing settings are incomplete.
var ErrNotConfigured = errors.New("github: not configured")

// APIError represents a GitHub API error response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("github: API error %d: %s", e.StatusCode, e.Message)
}

// Config holds publisher configuration.
type Config struct {
	domain.GitHubSettings

	// BaseURL overrides the API endpoint, e.g. for GitHub Enterprise.
	BaseURL string
}

// Publisher opens one issue per digest week. Re-publishing a week edits the existing issue.
type Publisher struct {
	gh       *gh.Client
	owner    string
	repo     string
	labels   []string
	renderer *render.Renderer
}

// New creates a publisher authenticated with a static token.
func New(ctx context.Context, cfg Config, renderer *render.Renderer) (*Publisher, error) {
	if !cfg.IsConfigured() {
		return nil, ErrNotConfigured
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
	tc := oauth2.NewClient(ctx, ts)
	tc.Timeout = DefaultTimeout
	client := gh.NewClient(tc)

	if cfg.BaseURL != "" {
		base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("%w: github base url: %w", domain.ErrInvalidInput, err)
		}
		client.BaseURL = base
	}

	labels := cfg.Labels
	if len(labels) == 0 {
		labels = []string{DefaultLabel}
	}

	return &Publisher{
		gh:       client,
		owner:    cfg.Owner,
		repo:     cfg.Repo,
		labels:   labels,
		renderer: renderer,
	}, nil
}

// Name returns the channel name.
func (p *Publisher) Name() string {
	return "github"
}

// Publish creates or updates the issue for the digest week.
func (p *Publisher) Publish(ctx context.Context, digest *domain.Digest) error {
	title := render.Subject(digest)
	body := truncate(p.renderer.Markdown(digest), MaxBodyLength)

	existing, err := p.findIssue(ctx, digest.WeekEnding)
	if err != nil {
		return err
	}

	req := &gh.IssueRequest{
		Title:  gh.Ptr(title),
		Body:   gh.Ptr(body),
		Labels: &p.labels,
	}

	if existing != nil {
		issue, _, err := p.gh.Issues.Edit(ctx, p.owner, p.repo, existing.GetNumber(), req)
		if err != nil {
			return wrapError(err, "edit issue")
		}
		logger.Info("Updated issue #%d: %s", issue.GetNumber(), issue.GetHTMLURL())
		return nil
	}

	issue, _, err := p.gh.Issues.Create(ctx, p.owner, p.repo, req)
	if err != nil {
		return wrapError(err, "create issue")
	}
	logger.Info("Opened issue #%d: %s", issue.GetNumber(), issue.GetHTMLURL())
	return nil
}

// findIssue looks for an issue already published for the week among labelled issues.
func (p *Publisher) findIssue(ctx context.Context, week domain.Day) (*gh.Issue, error) {
	opts := &gh.IssueListByRepoOptions{
		State:       "all",
		Labels:      p.labels,
		ListOptions: gh.ListOptions{PerPage: 100},
	}
	marker := "week ending " + week.String()

	for {
		issues, resp, err := p.gh.Issues.ListByRepo(ctx, p.owner, p.repo, opts)
		if err != nil {
			return nil, wrapError(err, "list issues")
		}
		for _, issue := range issues {
			if issue.IsPullRequest() {
				continue
			}
			if strings.Contains(issue.GetTitle(), marker) {
				return issue, nil
			}
		}
		if resp == nil || resp.NextPage == 0 {
			return nil, nil
		}
		opts.ListOptions.Page = resp.NextPage
	}
}

// wrapError converts go-github errors to our error types.
func wrapError(err error, operation string) error {
	var rateLimitErr *gh.RateLimitError
	if errors.As(err, &rateLimitErr) {
		return fmt.Errorf("github: %s: %w", operation, domain.ErrRateLimited)
	}
	var abuseErr *gh.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return fmt.Errorf("github: %s: %w", operation, domain.ErrRateLimited)
	}

	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		return &APIError{StatusCode: ghErr.Response.StatusCode, Message: ghErr.Message}
	}

	return fmt.Errorf("github: %s: %w", operation, err)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	const suffix = "\n\n_Truncated._\n"
	cut := n - len(suffix)
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + suffix
}

