package integration

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"bizdash/pkg/logger"
	"bizdash/pkg/oauth2"
)

// AppTypeAPIKey marks records connected with a pasted key instead of OAuth.
const AppTypeAPIKey = "api"

var ErrInvalidAPIKey = errors.New("integration: invalid api key")

// Printable ASCII without whitespace.
var apiKeyPattern = regexp.MustCompile(`^[\x21-\x7e]{8,512}$`)

// apiKeyProviders accept a key the adapters can use as a bearer token.
var apiKeyProviders = map[string]bool{
	"stripe":  true,
	"github":  true,
	"slack":   true,
	"shopify": true,
}

type APIKey struct {
	Key string
	// Shop is required for Shopify admin tokens.
	Shop string
}

// StoreAPIKey connects provider with key. The key is stored where an OAuth
// access token would be, never expires and replaces any earlier connection.
func (s *Service) StoreAPIKey(ctx context.Context, userID, provider string, key APIKey) error {
	if !apiKeyProviders[provider] {
		return fmt.Errorf("%w: %s does not accept api keys", ErrInvalidAPIKey, provider)
	}
	if !apiKeyPattern.MatchString(key.Key) {
		return fmt.Errorf("%w: malformed key", ErrInvalidAPIKey)
	}

	var shop string
	if cfg, err := s.manager.Registry().Lookup(provider); err == nil && cfg.RequiresTenant() {
		if shop, err = oauth2.NormalizeShop(key.Shop); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidAPIKey, err)
		}
	}

	rec := &Record{
		UserID:      userID,
		Provider:    provider,
		AppType:     AppTypeAPIKey,
		AccessToken: key.Key,
		IsConnected: true,
		Config:      Config{Shop: shop},
	}
	if err := s.store.Upsert(ctx, rec); err != nil {
		return fmt.Errorf("failed to store api key: %w", err)
	}
	s.purge(ctx, userID, provider)

	s.logger.Info("api key stored",
		logger.Field{Key: "user_id", Value: userID},
		logger.Field{Key: "provider", Value: provider},
	)
	return nil
}

// DeleteAPIKey drops a stored key. OAuth connections are left alone and
// reported as not connected.
func (s *Service) DeleteAPIKey(ctx context.Context, userID, provider string) error {
	rec, err := s.store.Get(ctx, userID, provider)
	if errors.Is(err, ErrNotFound) || (err == nil && (rec.AppType != AppTypeAPIKey || !rec.IsConnected)) {
		return fmt.Errorf("%w: %s api key", oauth2.ErrNotConnected, provider)
	}
	if err != nil {
		return err
	}
	return s.Disconnect(ctx, userID, provider)
}
