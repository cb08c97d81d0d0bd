package integration

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"bizdash/pkg/cache"
	"bizdash/pkg/idgen"
	"bizdash/pkg/logger"
	"bizdash/pkg/oauth2"
)

var testNow = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

type fixture struct {
	service *Service
	store   *MemoryStore
	status  *cache.MemoryCache
	logs    *bytes.Buffer
	hits    *atomic.Int32
}

func testEnv(key string) (string, bool) {
	v, ok := map[string]string{
		"G_ID":      "google-id",
		"G_SECRET":  "google-secret",
		"GH_ID":     "gh-id",
		"GH_SECRET": "gh-secret",
		"SL_ID":     "slack-id",
		"SL_SECRET": "slack-secret",
		"SH_ID":     "shop-id",
		"SH_SECRET": "shop-secret",
		"MC_ID":     "mc-id",
		"MC_SECRET": "",
	}[key]
	return v, ok
}

// newFixture wires a Service against an httptest token endpoint. handler
// serves every token request; hits counts them.
func newFixture(t *testing.T, handler http.HandlerFunc) *fixture {
	t.Helper()

	hits := &atomic.Int32{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	providers := []oauth2.ProviderConfig{
		{Name: "gmail", AppType: "email", AuthURL: "https://accounts.example.com/auth", TokenURL: srv.URL + "/google/token", ClientIDEnv: "G_ID", ClientSecretEnv: "G_SECRET", Scopes: []string{"gmail.readonly"}},
		{Name: "github", AppType: "development", AuthURL: "https://github.example.com/authorize", TokenURL: srv.URL + "/github/token", ClientIDEnv: "GH_ID", ClientSecretEnv: "GH_SECRET", Exchange: oauth2.ExchangeGitHub},
		{Name: "slack", AppType: "communication", AuthURL: "https://slack.example.com/authorize", TokenURL: srv.URL + "/slack/token", ClientIDEnv: "SL_ID", ClientSecretEnv: "SL_SECRET", Exchange: oauth2.ExchangeSlack},
		{Name: "shopify", AppType: "ecommerce", AuthURL: "https://{{shop}}.myshopify.com/admin/oauth/authorize", TokenURL: srv.URL + "/{{shop}}/token", ClientIDEnv: "SH_ID", ClientSecretEnv: "SH_SECRET"},
		{Name: "mailchimp", AppType: "marketing", AuthURL: "https://mc.example.com/authorize", TokenURL: srv.URL + "/mc/token", ClientIDEnv: "MC_ID", ClientSecretEnv: "MC_SECRET"},
	}
	manager := oauth2.NewManager(oauth2.NewRegistry(providers, testEnv), "https://dash.example.com/oauth/callback", srv.Client())

	var next int64
	store := NewMemoryStore(idgen.GeneratorFunc(func() int64 { next++; return next }))
	store.now = func() time.Time { return testNow }

	status := cache.NewMemoryCache()
	logs := &bytes.Buffer{}
	svc := NewService(manager, store, status, logger.NewWithWriter("test", logs))
	svc.now = func() time.Time { return testNow }

	return &fixture{service: svc, store: store, status: status, logs: logs, hits: hits}
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func timePtr(t time.Time) *time.Time { return &t }

type recordingPurger struct {
	calls []string
	err   error
}

func (p *recordingPurger) Purge(_ context.Context, userID, provider string) error {
	p.calls = append(p.calls, userID+"/"+provider)
	return p.err
}
