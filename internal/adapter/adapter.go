// Package adapter wraps provider APIs behind small clients that take an
// access token per call and return provider-neutral records.
package adapter

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"time"

	xoauth2 "golang.org/x/oauth2"
)

// Provider names as registered in the OAuth registry.
const (
	ProviderGmail     = "gmail"
	ProviderAnalytics = "google-analytics"
	ProviderCalendar  = "google-calendar"
	ProviderGitHub    = "github"
	ProviderSlack     = "slack"
	ProviderStripe    = "stripe"
	ProviderShopify   = "shopify"
)

// ErrInvalidArgument marks caller input rejected before any request is sent.
var ErrInvalidArgument = errors.New("invalid argument")

var identifierPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]{1,100}$`)

// validIdentifier accepts GitHub owner and repository names. Dot segments
// are rejected so they cannot rewrite the request path.
func validIdentifier(s string) bool {
	return s != "." && s != ".." && identifierPattern.MatchString(s)
}

// client is embedded by every adapter.
type client struct {
	provider   string
	httpClient *http.Client
	baseURL    string
	limiters   *limiterSet
}

func newClient(provider string, httpClient *http.Client, baseURL string) client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return client{
		provider:   provider,
		httpClient: httpClient,
		baseURL:    baseURL,
		limiters:   newLimiterSet(provider),
	}
}

// bearer returns an HTTP client that authenticates with token and reuses
// the shared transport.
func (c *client) bearer(ctx context.Context, token string) *http.Client {
	ctx = context.WithValue(ctx, xoauth2.HTTPClient, c.httpClient)
	return xoauth2.NewClient(ctx, xoauth2.StaticTokenSource(&xoauth2.Token{
		AccessToken: token,
		TokenType:   "Bearer",
	}))
}

// wait blocks until the quota holder identified by key may send a request.
func (c *client) wait(ctx context.Context, key string) error {
	if err := c.limiters.get(key).Wait(ctx); err != nil {
		return classify(c.provider, "rate limit wait", err)
	}
	return nil
}

// backoff pauses only the quota holder identified by key.
func (c *client) backoff(key string, d time.Duration) {
	c.limiters.get(key).Backoff(d)
}

func clamp(n, def, max int) int {
	if n <= 0 {
		return def
	}
	if n > max {
		return max
	}
	return n
}
