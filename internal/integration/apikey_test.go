package integration

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"bizdash/pkg/oauth2"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreAPIKey(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {})
	ctx := context.Background()
	purged := &recordingPurger{}
	f.service.OnDisconnect(purged)

	require.NoError(t, f.service.StoreAPIKey(ctx, "u1", "stripe", APIKey{Key: "sk_test_4eC39HqLyjWDarjtT1zdp7dc"}))

	rec, err := f.service.Authorize(ctx, "u1", "stripe")
	require.NoError(t, err)
	assert.Equal(t, AppTypeAPIKey, rec.AppType)
	assert.Equal(t, "sk_test_4eC39HqLyjWDarjtT1zdp7dc", rec.AccessToken)
	assert.True(t, rec.IsConnected)
	assert.Nil(t, rec.ExpiresAt)
	assert.Equal(t, []string{"u1/stripe"}, purged.calls)
	assert.Zero(t, f.hits.Load())
}

func TestStoreAPIKey_ReplacesOAuthConnection(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {})
	ctx := context.Background()
	seed(t, f, Record{UserID: "u1", Provider: "github", AppType: "development", AccessToken: "gho_1", RefreshToken: "ghr_1", IsConnected: true})

	require.NoError(t, f.service.StoreAPIKey(ctx, "u1", "github", APIKey{Key: "ghp_personalaccesstoken"}))

	rec, err := f.store.Get(ctx, "u1", "github")
	require.NoError(t, err)
	assert.Equal(t, "ghp_personalaccesstoken", rec.AccessToken)
	assert.Empty(t, rec.RefreshToken)
	assert.Equal(t, AppTypeAPIKey, rec.AppType)
}

func TestStoreAPIKey_ShopifyNeedsShop(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {})
	ctx := context.Background()

	err := f.service.StoreAPIKey(ctx, "u1", "shopify", APIKey{Key: "shpat_0123456789"})
	assert.ErrorIs(t, err, ErrInvalidAPIKey)

	require.NoError(t, f.service.StoreAPIKey(ctx, "u1", "shopify", APIKey{Key: "shpat_0123456789", Shop: "Acme.myshopify.com"}))
	rec, err := f.store.Get(ctx, "u1", "shopify")
	require.NoError(t, err)
	assert.Equal(t, "acme", rec.Config.Shop)
}

func TestStoreAPIKey_Rejects(t *testing.T) {
	tests := map[string]struct {
		provider string
		key      string
	}{
		"oauth only provider": {"gmail", "ya29.0123456789"},
		"unknown provider":    {"myspace", "0123456789"},
		"too short":           {"stripe", "sk_1"},
		"whitespace":          {"stripe", "sk_test 0123456789"},
		"too long":            {"stripe", strings.Repeat("k", 513)},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {})

			err := f.service.StoreAPIKey(context.Background(), "u1", tt.provider, APIKey{Key: tt.key})

			assert.ErrorIs(t, err, ErrInvalidAPIKey)
			_, err = f.store.Get(context.Background(), "u1", tt.provider)
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestDeleteAPIKey(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {})
	ctx := context.Background()
	require.NoError(t, f.service.StoreAPIKey(ctx, "u1", "stripe", APIKey{Key: "sk_test_0123456789"}))
	seed(t, f, Record{UserID: "u1", Provider: "github", AppType: "development", AccessToken: "gho_1", IsConnected: true})

	require.NoError(t, f.service.DeleteAPIKey(ctx, "u1", "stripe"))

	rec, err := f.store.Get(ctx, "u1", "stripe")
	require.NoError(t, err)
	assert.False(t, rec.IsConnected)
	assert.Empty(t, rec.AccessToken)

	assert.ErrorIs(t, f.service.DeleteAPIKey(ctx, "u1", "stripe"), oauth2.ErrNotConnected)
	assert.ErrorIs(t, f.service.DeleteAPIKey(ctx, "u1", "github"), oauth2.ErrNotConnected)
	assert.ErrorIs(t, f.service.DeleteAPIKey(ctx, "u1", "slack"), oauth2.ErrNotConnected)

	github, err := f.store.Get(ctx, "u1", "github")
	require.NoError(t, err)
	assert.True(t, github.IsConnected)
}

func TestAPIKeyHandlers(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {})
	router := newTestRouter(t, f)

	put := func(target, body string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)
		return w
	}

	w := put("/v1/integrations/stripe/api-key", `{"apiKey":"sk_test_0123456789"}`)
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	w = serve(router, http.MethodGet, "/v1/integrations")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"appType":"api"`)
	assert.NotContains(t, w.Body.String(), "sk_test_0123456789")

	w = put("/v1/integrations/stripe/api-key", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "VALIDATION")

	w = put("/v1/integrations/gmail/api-key", `{"apiKey":"ya29.0123456789"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "VALIDATION")

	w = serve(router, http.MethodDelete, "/v1/integrations/stripe/api-key")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = serve(router, http.MethodDelete, "/v1/integrations/stripe/api-key")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "NOT_CONNECTED")
}
