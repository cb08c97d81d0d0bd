package adapter

import (
	"context"
	"net/http"
	"testing"
	"time"

	"bizdash/pkg/oauth2"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGitHub_Repositories(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /user/repos", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer gho_token", r.Header.Get("Authorization"))
		assert.Equal(t, "updated", r.URL.Query().Get("sort"))
		assert.Equal(t, "10", r.URL.Query().Get("per_page"))
		writeJSON(w, http.StatusOK, `[{
			"name": "api",
			"full_name": "acme/api",
			"description": "Public API",
			"language": "Go",
			"html_url": "https://github.test/acme/api",
			"private": true,
			"stargazers_count": 42,
			"forks_count": 3,
			"open_issues_count": 5,
			"updated_at": "2024-05-01T10:00:00Z"
		}]`)
	})
	srv := newProviderServer(t, mux)
	g := NewGitHub(srv.Client(), srv.URL)

	repos, err := g.Repositories(context.Background(), "gho_token", 10)
	require.NoError(t, err)
	require.Len(t, repos, 1)
	assert.Equal(t, Repository{
		Name:        "api",
		FullName:    "acme/api",
		Description: "Public API",
		Language:    "Go",
		URL:         "https://github.test/acme/api",
		Private:     true,
		Stars:       42,
		Forks:       3,
		OpenIssues:  5,
		UpdatedAt:   time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}, repos[0])
}

func TestGitHub_Commits(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/acme/api/commits", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "20", r.URL.Query().Get("per_page"))
		writeJSON(w, http.StatusOK, `[{
			"sha": "abc123",
			"html_url": "https://github.test/acme/api/commit/abc123",
			"commit": {
				"message": "Fix token refresh\n\nLonger body",
				"author": {"name": "Sam", "date": "2024-05-01T12:00:00Z"}
			}
		}]`)
	})
	srv := newProviderServer(t, mux)
	g := NewGitHub(srv.Client(), srv.URL+"/")

	commits, err := g.Commits(context.Background(), "gho_token", "acme", "api", 0)
	require.NoError(t, err)
	require.Len(t, commits, 1)
	assert.Equal(t, "abc123", commits[0].SHA)
	assert.Equal(t, "Fix token refresh", commits[0].Message)
	assert.Equal(t, "Sam", commits[0].Author)
	assert.Equal(t, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), commits[0].Date)
}

func TestGitHub_CommitsRejectsPathInjection(t *testing.T) {
	g := NewGitHub(http.DefaultClient, "http://127.0.0.1:0/")

	for _, repo := range []string{"../../user", "..", "."} {
		_, err := g.Commits(context.Background(), "tok", "acme", repo, 5)
		assert.ErrorIs(t, err, ErrInvalidArgument, repo)
	}
}

func TestGitHub_BadCredentials(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, `{"message":"Bad credentials"}`)
	})
	srv := newProviderServer(t, mux)
	g := NewGitHub(srv.Client(), srv.URL)

	_, err := g.Repositories(context.Background(), "revoked", 5)
	assert.ErrorIs(t, err, oauth2.ErrAuthExpired)
}
