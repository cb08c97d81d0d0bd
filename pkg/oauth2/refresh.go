package oauth2

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/oauth2"
)

// Refresh runs the refresh_token grant. Configuration problems come back as
// ErrConfiguration; anything the provider rejects is ErrTokenExchangeFailed.
// The returned RefreshToken equals the input unless the provider rotated it.
func (m *Manager) Refresh(ctx context.Context, provider, tenant, refreshToken string) (*TokenSet, error) {
	ctx, span := m.tracer.Start(ctx, "oauth2.Refresh", trace.WithAttributes(
		attribute.String("oauth.provider", provider),
	))
	defer span.End()

	ts, err := m.refresh(ctx, provider, tenant, refreshToken)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "token refresh failed")
		return nil, err
	}
	return ts, nil
}

func (m *Manager) refresh(ctx context.Context, provider, tenant, refreshToken string) (*TokenSet, error) {
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
	if refreshToken == "" {
		return nil, fmt.Errorf("%w: %s: no refresh token stored", ErrTokenExchangeFailed, provider)
	}

	conf := &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL:  tokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, m.httpClient)
	tok, err := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		var rerr *oauth2.RetrieveError
		if errors.As(err, &rerr) && rerr.ErrorCode != "" {
			return nil, fmt.Errorf("%w: %s: %s", ErrTokenExchangeFailed, provider, describe(rerr.ErrorCode, rerr.ErrorDescription))
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrTokenExchangeFailed, provider, err)
	}

	ts := &TokenSet{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
	}
	if scope, ok := tok.Extra("scope").(string); ok {
		ts.Scope = scope
	}
	if !tok.Expiry.IsZero() {
		expiry := tok.Expiry
		ts.ExpiresAt = &expiry
	}
	if ts.RefreshToken == "" {
		ts.RefreshToken = refreshToken
	}
	return ts, nil
}
