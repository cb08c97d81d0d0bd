package oauth2

import (
	"fmt"
	"net/url"
)

// AuthURL builds the consent URL the browser is sent to. tenant is only
// consulted by providers with per-tenant endpoints.
func (m *Manager) AuthURL(userID, provider, tenant string) (string, error) {
	cfg, err := m.registry.Lookup(provider)
	if err != nil {
		return "", err
	}
	creds, err := m.registry.Credentials(provider)
	if err != nil {
		return "", err
	}
	endpoint, err := cfg.authEndpoint(tenant)
	if err != nil {
		return "", err
	}
	state, err := NewState(userID, provider)
	if err != nil {
		return "", fmt.Errorf("failed to build state: %w", err)
	}

	responseType := cfg.ResponseType
	if responseType == "" {
		responseType = "code"
	}

	params := url.Values{}
	params.Set("client_id", creds.ClientID)
	params.Set("redirect_uri", m.redirectURI)
	params.Set("scope", cfg.Scope())
	params.Set("response_type", responseType)
	params.Set("state", state.String())
	for k, v := range cfg.AuthParams {
		params.Set(k, v)
	}

	return endpoint + "?" + params.Encode(), nil
}
