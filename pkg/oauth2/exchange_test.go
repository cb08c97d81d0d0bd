package oauth2

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func TestManager_Exchange_Standard(t *testing.T) {
	var form map[string]string
	mux := http.NewServeMux()
	mux.HandleFunc("/gmail/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		form = map[string]string{}
		for k := range r.PostForm {
			form[k] = r.PostForm.Get(k)
		}
		jsonHandler(http.StatusOK, `{"access_token":"ya29.a","refresh_token":"1//r","token_type":"Bearer","scope":"gmail.readonly","expires_in":3599}`)(w, r)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	m := newTestManager(t, srv, fixedNow)
	ts, err := m.Exchange(context.Background(), "gmail", "auth-code", "")
	require.NoError(t, err)

	assert.Equal(t, "authorization_code", form["grant_type"])
	assert.Equal(t, "auth-code", form["code"])
	assert.Equal(t, "google-id", form["client_id"])
	assert.Equal(t, "google-secret", form["client_secret"])
	assert.Equal(t, "https://dash.example.com/oauth/callback", form["redirect_uri"])

	assert.Equal(t, "ya29.a", ts.AccessToken)
	assert.Equal(t, "1//r", ts.RefreshToken)
	assert.Equal(t, "gmail.readonly", ts.Scope)
	require.NotNil(t, ts.ExpiresAt)
	assert.Equal(t, fixedNow.Add(3599*time.Second), *ts.ExpiresAt)

	var meta map[string]any
	require.NoError(t, json.Unmarshal(ts.Metadata, &meta))
	assert.NotContains(t, meta, "access_token")
	assert.NotContains(t, meta, "refresh_token")
	assert.Equal(t, "gmail.readonly", meta["scope"])
}

func TestManager_Exchange_NoExpiryMeansNil(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/stripe/token", jsonHandler(http.StatusOK, `{"access_token":"sk_live_x","stripe_user_id":"acct_1","scope":"read_write"}`))
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ts, err := newTestManager(t, srv, fixedNow).Exchange(context.Background(), "stripe", "c", "")
	require.NoError(t, err)
	assert.Nil(t, ts.ExpiresAt)
	assert.JSONEq(t, `{"stripe_user_id":"acct_1","scope":"read_write"}`, string(ts.Metadata))
}

func TestManager_Exchange_StringExpiresIn(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/mailchimp/token", jsonHandler(http.StatusOK, `{"access_token":"mc","expires_in":"60"}`))
	srv := httptest.NewServer(mux)
	defer srv.Close()

	m := newTestManager(t, srv, fixedNow)
	m.registry.lookup = envMap(map[string]string{"MAILCHIMP_CLIENT_ID": "id", "MAILCHIMP_CLIENT_SECRET": "s"})

	ts, err := m.Exchange(context.Background(), "mailchimp", "c", "")
	require.NoError(t, err)
	require.NotNil(t, ts.ExpiresAt)
	assert.Equal(t, fixedNow.Add(time.Minute), *ts.ExpiresAt)
}

func TestManager_Exchange_GitHub(t *testing.T) {
	var accept string
	var grantType string
	mux := http.NewServeMux()
	mux.HandleFunc("/github/token", func(w http.ResponseWriter, r *http.Request) {
		accept = r.Header.Get("Accept")
		require.NoError(t, r.ParseForm())
		grantType = r.PostForm.Get("grant_type")
		jsonHandler(http.StatusOK, `{"access_token":"gho_abc","token_type":"bearer","scope":"repo,user"}`)(w, r)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ts, err := newTestManager(t, srv, fixedNow).Exchange(context.Background(), "github", "c", "")
	require.NoError(t, err)
	assert.Equal(t, "application/json", accept)
	assert.Empty(t, grantType)
	assert.Equal(t, "gho_abc", ts.AccessToken)
	assert.Nil(t, ts.ExpiresAt)
}

func TestManager_Exchange_GitHubErrorIn200(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/github/token", jsonHandler(http.StatusOK, `{"error":"bad_verification_code","error_description":"The code passed is incorrect or expired."}`))
	srv := httptest.NewServer(mux)
	defer srv.Close()

	_, err := newTestManager(t, srv, fixedNow).Exchange(context.Background(), "github", "stale", "")
	require.ErrorIs(t, err, ErrTokenExchangeFailed)
	assert.Contains(t, err.Error(), "bad_verification_code")
}

func TestManager_Exchange_SlackNestedUserToken(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/slack/token", jsonHandler(http.StatusOK, `{
		"ok": true,
		"access_token": "xoxb-bot",
		"token_type": "bot",
		"authed_user": {"id": "U1", "scope": "channels:read", "access_token": "xoxp-user", "token_type": "user"},
		"team": {"id": "T1", "name": "Acme"}
	}`))
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ts, err := newTestManager(t, srv, fixedNow).Exchange(context.Background(), "slack", "c", "")
	require.NoError(t, err)
	assert.Equal(t, "xoxp-user", ts.AccessToken)
	assert.Equal(t, "channels:read", ts.Scope)

	var meta map[string]any
	require.NoError(t, json.Unmarshal(ts.Metadata, &meta))
	assert.NotContains(t, meta, "access_token")
	assert.NotContains(t, meta["authed_user"], "access_token")
	assert.Equal(t, "U1", meta["authed_user"].(map[string]any)["id"])
}

func TestManager_Exchange_SlackWithoutOKField(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/slack/token", jsonHandler(http.StatusOK, `{"authed_user":{"access_token":"xoxp-1"}}`))
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ts, err := newTestManager(t, srv, fixedNow).Exchange(context.Background(), "slack", "c", "")
	require.NoError(t, err)
	assert.Equal(t, "xoxp-1", ts.AccessToken)
}

func TestManager_Exchange_SlackNotOK(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/slack/token", jsonHandler(http.StatusOK, `{"ok":false,"error":"invalid_code"}`))
	srv := httptest.NewServer(mux)
	defer srv.Close()

	_, err := newTestManager(t, srv, fixedNow).Exchange(context.Background(), "slack", "c", "")
	require.ErrorIs(t, err, ErrTokenExchangeFailed)
	assert.Contains(t, err.Error(), "invalid_code")
}

func TestManager_Exchange_Non2xx(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/gmail/token", jsonHandler(http.StatusBadRequest, `{"error":"invalid_grant","error_description":"Bad Request"}`))
	srv := httptest.NewServer(mux)
	defer srv.Close()

	_, err := newTestManager(t, srv, fixedNow).Exchange(context.Background(), "gmail", "c", "")
	require.ErrorIs(t, err, ErrTokenExchangeFailed)
	assert.Contains(t, err.Error(), "invalid_grant")
}

func TestManager_Exchange_MissingAccessToken(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/gmail/token", jsonHandler(http.StatusOK, `{"token_type":"Bearer"}`))
	srv := httptest.NewServer(mux)
	defer srv.Close()

	_, err := newTestManager(t, srv, fixedNow).Exchange(context.Background(), "gmail", "c", "")
	assert.ErrorIs(t, err, ErrTokenExchangeFailed)
}

func TestManager_Exchange_ShopifyTenant(t *testing.T) {
	var hit string
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		hit = r.URL.Path
		jsonHandler(http.StatusOK, `{"access_token":"shpat_1","scope":"read_orders"}`)(w, r)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	m := newTestManager(t, srv, fixedNow)
	ts, err := m.Exchange(context.Background(), "shopify", "c", "acme.myshopify.com")
	require.NoError(t, err)
	assert.Equal(t, "/acme/token", hit)
	assert.Equal(t, "shpat_1", ts.AccessToken)

	_, err = m.Exchange(context.Background(), "shopify", "c", "")
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestManager_Exchange_ConfigurationErrors(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	m := newTestManager(t, srv, fixedNow)
	_, err := m.Exchange(context.Background(), "myspace", "c", "")
	assert.ErrorIs(t, err, ErrConfiguration)

	_, err = m.Exchange(context.Background(), "mailchimp", "c", "")
	assert.ErrorIs(t, err, ErrConfiguration)
}
