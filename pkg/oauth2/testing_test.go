package oauth2

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func envMap(m map[string]string) EnvLookup {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

var fullEnv = envMap(map[string]string{
	"GOOGLE_CLIENT_ID":      "google-id",
	"GOOGLE_CLIENT_SECRET":  "google-secret",
	"GITHUB_CLIENT_ID":      "gh-id",
	"GITHUB_CLIENT_SECRET":  "gh-secret",
	"SLACK_CLIENT_ID":       "slack-id",
	"SLACK_CLIENT_SECRET":   "slack-secret",
	"SHOPIFY_CLIENT_ID":     "shop-id",
	"SHOPIFY_CLIENT_SECRET": "shop-secret",
	"STRIPE_CLIENT_ID":      "stripe-id",
	"STRIPE_CLIENT_SECRET":  "stripe-secret",
})

// newTestManager points every provider's token endpoint at srv.
func newTestManager(t *testing.T, srv *httptest.Server, now time.Time) *Manager {
	t.Helper()
	providers := DefaultProviders()
	for i := range providers {
		if providers[i].RequiresTenant() {
			providers[i].TokenURL = srv.URL + "/{{shop}}/token"
			continue
		}
		providers[i].TokenURL = srv.URL + "/" + providers[i].Name + "/token"
	}
	m := NewManager(NewRegistry(providers, fullEnv), "https://dash.example.com/oauth/callback", srv.Client())
	m.now = func() time.Time { return now }
	return m
}

func jsonHandler(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}
