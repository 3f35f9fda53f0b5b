package collect

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/edumesones/anthropic-resume-day-to-day/internal/extract"
	"github.com/edumesones/anthropic-resume-day-to-day/internal/logging"
	"github.com/edumesones/anthropic-resume-day-to-day/internal/model"
	"github.com/google/go-github/v66/github"
	"golang.org/x/oauth2"
)

const (
	commitMessageCap = 100
	releaseBodyCap   = 500
)

// GitHubOptions configures the repository-activity collector.
type GitHubOptions struct {
	Org         string
	Token       string
	BaseURL     string
	Timeout     time.Duration
	Lookback    time.Duration
	MaxRepos    int
	MaxCommits  int
	MaxReleases int
}

type GitHubCollector struct {
	client *github.Client
	opts   GitHubOptions
	now    func() time.Time
	log    *slog.Logger
}

// NewGitHubCollector builds a client authenticated with the optional token.
func NewGitHubCollector(opts GitHubOptions, log *slog.Logger) (*GitHubCollector, error) {
	log = logging.Component(log, string(model.GitHub))

	httpClient := &http.Client{Timeout: opts.Timeout}
	if opts.Token != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)
		httpClient = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token}))
		httpClient.Timeout = opts.Timeout
	} else {
		log.Warn("no GitHub token configured, using unauthenticated requests")
	}

	client := github.NewClient(httpClient)
	if opts.BaseURL != "" {
		u, err := url.Parse(strings.TrimSuffix(opts.BaseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("parsing github base url: %w", err)
		}
		client.BaseURL = u
	}

	return &GitHubCollector{client: client, opts: opts, now: time.Now, log: log}, nil
}

// Collect lists the most recently updated public repositories of the org and
// keeps those with commits or releases inside the lookback window.
func (c *GitHubCollector) Collect(ctx context.Context) model.Collection[model.RepoActivity] {
	cutoff := c.now().UTC().Add(-c.opts.Lookback)

	repos, _, err := c.client.Repositories.ListByOrg(ctx, c.opts.Org, &github.RepositoryListByOrgOptions{
		Type:        "public",
		Sort:        "updated",
		Direction:   "desc",
		ListOptions: github.ListOptions{PerPage: c.opts.MaxRepos},
	})
	if err != nil {
		c.log.Error("listing repositories failed", "org", c.opts.Org, "error", err)
		return model.Fail[model.RepoActivity](
			fmt.Sprintf("Error accessing GitHub: %v", err),
			fmt.Sprintf("Visit https://github.com/%s manually", c.opts.Org),
		)
	}
	c.log.Info("checking repositories", "org", c.opts.Org, "repos", len(repos))

	var out []model.RepoActivity
	for i, repo := range repos {
		if i >= c.opts.MaxRepos {
			break
		}
		updated := utc(repo.GetUpdatedAt().Time)
		if updated.Before(cutoff) {
			continue
		}

		owner := repo.GetOwner().GetLogin()
		if owner == "" {
			owner = c.opts.Org
		}
		name := repo.GetName()

		act := model.RepoActivity{
			Name:        name,
			URL:         repo.GetHTMLURL(),
			Description: repo.GetDescription(),
			Stars:       repo.GetStargazersCount(),
			Language:    repo.GetLanguage(),
			UpdatedAt:   updated,
			Commits:     c.commits(ctx, owner, name, cutoff),
			Releases:    c.releases(ctx, owner, name, cutoff),
		}
		if act.Description == "" {
			act.Description = "No description"
		}
		if act.Language == "" {
			act.Language = "Unknown"
		}

		if !act.HasActivity() {
			continue
		}
		c.log.Info("repository active", "repo", name, "commits", len(act.Commits), "releases", len(act.Releases))
		out = append(out, act)
	}

	return model.Collection[model.RepoActivity]{Items: out}
}

func (c *GitHubCollector) commits(ctx context.Context, owner, name string, since time.Time) []model.CommitSummary {
	list, _, err := c.client.Repositories.ListCommits(ctx, owner, name, &github.CommitsListOptions{
		Since:       since,
		ListOptions: github.ListOptions{PerPage: c.opts.MaxCommits},
	})
	if err != nil {
		c.log.Warn("listing commits failed", "repo", name, "error", err)
		return nil
	}

	var out []model.CommitSummary
	for _, rc := range list {
		if len(out) >= c.opts.MaxCommits {
			break
		}
		commit := rc.GetCommit()
		out = append(out, model.CommitSummary{
			Message: firstLine(commit.GetMessage(), commitMessageCap),
			URL:     rc.GetHTMLURL(),
			Author:  commit.GetAuthor().GetName(),
			Date:    utc(commit.GetAuthor().GetDate().Time),
		})
	}
	return out
}

func (c *GitHubCollector) releases(ctx context.Context, owner, name string, cutoff time.Time) []model.ReleaseSummary {
	list, _, err := c.client.Repositories.ListReleases(ctx, owner, name, &github.ListOptions{PerPage: c.opts.MaxReleases})
	if err != nil {
		c.log.Warn("listing releases failed", "repo", name, "error", err)
		return nil
	}

	var out []model.ReleaseSummary
	for i, r := range list {
		if i >= c.opts.MaxReleases {
			break
		}
		created := utc(r.GetCreatedAt().Time)
		if created.IsZero() || !created.After(cutoff) {
			continue
		}
		out = append(out, model.ReleaseSummary{
			Tag:       r.GetTagName(),
			Title:     r.GetName(),
			URL:       r.GetHTMLURL(),
			Body:      extract.Truncate(r.GetBody(), releaseBodyCap),
			CreatedAt: created,
		})
	}
	return out
}

// utc normalizes a timestamp; zero stays zero.
func utc(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

func firstLine(msg string, limit int) string {
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		msg = msg[:i]
	}
	msg = strings.TrimSpace(msg)
	runes := []rune(msg)
	if len(runes) > limit {
		return string(runes[:limit])
	}
	return msg
}
