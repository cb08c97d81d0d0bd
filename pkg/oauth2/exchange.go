package oauth2

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const maxTokenResponseBytes = 1 << 20

type standardTokenResponse struct {
	AccessToken      string      `json:"access_token"`
	RefreshToken     string      `json:"refresh_token"`
	TokenType        string      `json:"token_type"`
	Scope            string      `json:"scope"`
	ExpiresIn        json.Number `json:"expires_in"`
	Error            string      `json:"error"`
	ErrorDescription string      `json:"error_description"`
}

type slackTokenResponse struct {
	OK          *bool       `json:"ok"`
	Error       string      `json:"error"`
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	Scope       string      `json:"scope"`
	ExpiresIn   json.Number `json:"expires_in"`
	AuthedUser  struct {
		AccessToken  string      `json:"access_token"`
		RefreshToken string      `json:"refresh_token"`
		TokenType    string      `json:"token_type"`
		Scope        string      `json:"scope"`
		ExpiresIn    json.Number `json:"expires_in"`
	} `json:"authed_user"`
}

// Exchange trades an authorization code for tokens.
func (m *Manager) Exchange(ctx context.Context, provider, code, tenant string) (*TokenSet, error) {
	ctx, span := m.tracer.Start(ctx, "oauth2.Exchange", trace.WithAttributes(
		attribute.String("oauth.provider", provider),
	))
	defer span.End()

	ts, err := m.exchange(ctx, provider, code, tenant)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "token exchange failed")
		return nil, err
	}
	return ts, nil
}

func (m *Manager) exchange(ctx context.Context, provider, code, tenant string) (*TokenSet, error) {
	cfg, err := m.registry.Lookup(provider)
	if err != nil {
		return nil, err
	}
	creds, err := m.registry.Credentials(provider)
	if err != nil {
		return nil, err
	}
	tokenURL, err := cfg.tokenEndpoint(tenant)
	if err != nil {
		return nil, err
	}

	data := url.Values{}
	data.Set("client_id", creds.ClientID)
	data.Set("client_secret", creds.ClientSecret)
	data.Set("code", code)
	data.Set("redirect_uri", m.redirectURI)
	if cfg.Exchange == ExchangeStandard {
		data.Set("grant_type", "authorization_code")
	}

	status, body, err := m.postForm(ctx, tokenURL, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrTokenExchangeFailed, provider, err)
	}

	var ts *TokenSet
	switch cfg.Exchange {
	case ExchangeSlack:
		ts, err = decodeSlackToken(status, body, m.now())
	default:
		ts, err = decodeStandardToken(status, body, m.now())
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrTokenExchangeFailed, provider, err)
	}

	ts.Metadata = redactTokenFields(body)
	return ts, nil
}

func (m *Manager) postForm(ctx context.Context, endpoint string, data url.Values) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(data.Encode()))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to execute token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTokenResponseBytes))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read token response: %w", err)
	}
	return resp.StatusCode, body, nil
}

// decodeStandardToken also covers GitHub, which answers 200 with an error
// field instead of a 4xx.
func decodeStandardToken(status int, body []byte, now time.Time) (*TokenSet, error) {
	var resp standardTokenResponse
	decodeErr := json.Unmarshal(body, &resp)

	if status < 200 || status > 299 {
		if decodeErr == nil && resp.Error != "" {
			return nil, fmt.Errorf("status %d: %s", status, describe(resp.Error, resp.ErrorDescription))
		}
		return nil, fmt.Errorf("status %d: %s", status, truncate(body))
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", decodeErr)
	}
	if resp.Error != "" {
		return nil, errors.New(describe(resp.Error, resp.ErrorDescription))
	}
	if resp.AccessToken == "" {
		return nil, errors.New("no access token in response")
	}

	return &TokenSet{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		TokenType:    resp.TokenType,
		Scope:        resp.Scope,
		ExpiresAt:    expiryFrom(resp.ExpiresIn, now),
	}, nil
}

// decodeSlackToken prefers the user token under authed_user; the top-level
// token is the bot token and is used only when no user token was granted.
func decodeSlackToken(status int, body []byte, now time.Time) (*TokenSet, error) {
	if status < 200 || status > 299 {
		return nil, fmt.Errorf("status %d: %s", status, truncate(body))
	}
	var resp slackTokenResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}
	if (resp.OK != nil && !*resp.OK) || resp.Error != "" {
		return nil, errors.New(describe(resp.Error, "ok=false"))
	}

	user := resp.AuthedUser
	if user.AccessToken != "" {
		return &TokenSet{
			AccessToken:  user.AccessToken,
			RefreshToken: user.RefreshToken,
			TokenType:    user.TokenType,
			Scope:        user.Scope,
			ExpiresAt:    expiryFrom(user.ExpiresIn, now),
		}, nil
	}
	if resp.AccessToken == "" {
		return nil, errors.New("no access token in response")
	}
	return &TokenSet{
		AccessToken: resp.AccessToken,
		TokenType:   resp.TokenType,
		Scope:       resp.Scope,
		ExpiresAt:   expiryFrom(resp.ExpiresIn, now),
	}, nil
}

// expiryFrom returns nil when expires_in is absent or non-positive, which
// marks the token as non-expiring.
func expiryFrom(expiresIn json.Number, now time.Time) *time.Time {
	secs, err := expiresIn.Int64()
	if err != nil || secs <= 0 {
		return nil
	}
	at := now.Add(time.Duration(secs) * time.Second)
	return &at
}

var secretFields = []string{"access_token", "refresh_token", "id_token"}

func redactTokenFields(body []byte) json.RawMessage {
	var doc map[string]any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil
	}
	for _, k := range secretFields {
		delete(doc, k)
	}
	if user, ok := doc["authed_user"].(map[string]any); ok {
		for _, k := range secretFields {
			delete(user, k)
		}
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return nil
	}
	return out
}

func describe(code, description string) string {
	if code == "" {
		code = "unknown_error"
	}
	if description == "" {
		return code
	}
	return code + ": " + description
}

func truncate(body []byte) string {
	const max = 256
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}
