package adapter

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	gh "github.com/google/go-github/v80/github"
)

const (
	DefaultGitHubEndpoint = "https://api.github.com/"

	maxRepositories = 100
	maxCommits      = 100
)

type GitHub struct {
	client
}

func NewGitHub(httpClient *http.Client, baseURL string) *GitHub {
	return &GitHub{client: newClient(ProviderGitHub, httpClient, baseURL)}
}

func (g *GitHub) api(ctx context.Context, token string) (*gh.Client, error) {
	base, err := url.Parse(strings.TrimSuffix(g.baseURL, "/") + "/")
	if err != nil {
		return nil, classify(g.provider, "parse base url", err)
	}
	c := gh.NewClient(g.bearer(ctx, token))
	c.BaseURL = base
	return c, nil
}

// Repositories lists the caller's repositories, most recently updated first.
func (g *GitHub) Repositories(ctx context.Context, token string, limit int) ([]Repository, error) {
	c, err := g.api(ctx, token)
	if err != nil {
		return nil, err
	}

	if err := g.wait(ctx, tokenKey(token)); err != nil {
		return nil, err
	}
	repos, _, err := c.Repositories.ListByAuthenticatedUser(ctx, &gh.RepositoryListByAuthenticatedUserOptions{
		Sort:        "updated",
		Direction:   "desc",
		ListOptions: gh.ListOptions{PerPage: clamp(limit, 30, maxRepositories)},
	})
	if err != nil {
		return nil, classify(g.provider, "list repositories", err)
	}

	out := make([]Repository, 0, len(repos))
	for _, r := range repos {
		out = append(out, Repository{
			Name:        r.GetName(),
			FullName:    r.GetFullName(),
			Description: r.GetDescription(),
			Language:    r.GetLanguage(),
			URL:         r.GetHTMLURL(),
			Private:     r.GetPrivate(),
			Stars:       r.GetStargazersCount(),
			Forks:       r.GetForksCount(),
			OpenIssues:  r.GetOpenIssuesCount(),
			UpdatedAt:   r.GetUpdatedAt().Time,
		})
	}
	return out, nil
}

// Commits lists the latest commits on the default branch of owner/repo.
func (g *GitHub) Commits(ctx context.Context, token, owner, repo string, limit int) ([]Commit, error) {
	if !validIdentifier(owner) || !validIdentifier(repo) {
		return nil, invalid("invalid repository %q/%q", owner, repo)
	}
	c, err := g.api(ctx, token)
	if err != nil {
		return nil, err
	}

	if err := g.wait(ctx, tokenKey(token)); err != nil {
		return nil, err
	}
	commits, _, err := c.Repositories.ListCommits(ctx, owner, repo, &gh.CommitsListOptions{
		ListOptions: gh.ListOptions{PerPage: clamp(limit, 20, maxCommits)},
	})
	if err != nil {
		return nil, classify(g.provider, "list commits", err)
	}

	out := make([]Commit, 0, len(commits))
	for _, rc := range commits {
		author := rc.GetCommit().GetAuthor()
		out = append(out, Commit{
			SHA:     rc.GetSHA(),
			Message: firstLine(rc.GetCommit().GetMessage()),
			Author:  author.GetName(),
			Date:    author.GetDate().Time,
			URL:     rc.GetHTMLURL(),
		})
	}
	return out, nil
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
