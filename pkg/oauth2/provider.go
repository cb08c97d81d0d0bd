package oauth2

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"
)

const shopPlaceholder = "{{shop}}"

// ExchangeStyle selects the wire quirks used when trading a code for tokens.
type ExchangeStyle int

const (
	// ExchangeStandard posts grant_type=authorization_code with redirect_uri.
	ExchangeStandard ExchangeStyle = iota
	// ExchangeGitHub omits grant_type, needs Accept: application/json and
	// reports failures inside a 200 body.
	ExchangeGitHub
	// ExchangeSlack signals failure with ok=false and nests the user token
	// under authed_user.
	ExchangeSlack
)

func (s ExchangeStyle) String() string {
	switch s {
	case ExchangeGitHub:
		return "github"
	case ExchangeSlack:
		return "slack"
	default:
		return "standard"
	}
}

// ProviderConfig is the static description of one OAuth provider.
type ProviderConfig struct {
	Name            string
	AppType         string
	AuthURL         string
	TokenURL        string
	ClientIDEnv     string
	ClientSecretEnv string
	Scopes          []string
	ScopeSeparator  string
	ResponseType    string
	AuthParams      map[string]string
	Exchange        ExchangeStyle
}

func (p ProviderConfig) Scope() string {
	sep := p.ScopeSeparator
	if sep == "" {
		sep = " "
	}
	return strings.Join(p.Scopes, sep)
}

// RequiresTenant reports whether the endpoints are per-tenant (Shopify).
func (p ProviderConfig) RequiresTenant() bool {
	return strings.Contains(p.AuthURL, shopPlaceholder) || strings.Contains(p.TokenURL, shopPlaceholder)
}

func (p ProviderConfig) authEndpoint(tenant string) (string, error) {
	return p.resolve(p.AuthURL, tenant)
}

func (p ProviderConfig) tokenEndpoint(tenant string) (string, error) {
	return p.resolve(p.TokenURL, tenant)
}

func (p ProviderConfig) resolve(endpoint, tenant string) (string, error) {
	if !strings.Contains(endpoint, shopPlaceholder) {
		return endpoint, nil
	}
	shop, err := NormalizeShop(tenant)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrConfiguration, p.Name, err)
	}
	return strings.ReplaceAll(endpoint, shopPlaceholder, shop), nil
}

var shopPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{0,62}$`)

// NormalizeShop accepts "acme", "acme.myshopify.com" or
// "https://acme.myshopify.com/" and returns "acme".
func NormalizeShop(shop string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(shop))
	s = strings.TrimPrefix(s, "https://")
	s = strings.TrimPrefix(s, "http://")
	s = strings.TrimSuffix(s, "/")
	s = strings.TrimSuffix(s, ".myshopify.com")
	if s == "" {
		return "", fmt.Errorf("shop is required")
	}
	if !shopPattern.MatchString(s) {
		return "", fmt.Errorf("invalid shop %q", shop)
	}
	return s, nil
}

// TokenSet is the provider-neutral result of an exchange or refresh.
type TokenSet struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	Scope        string
	// ExpiresAt is nil for tokens that never expire.
	ExpiresAt *time.Time
	// Metadata is the provider response with every token field removed.
	Metadata json.RawMessage
}

const (
	googleAuthURL  = "https://accounts.google.com/o/oauth2/v2/auth"
	googleTokenURL = "https://oauth2.googleapis.com/token"
)

var googleOfflineParams = map[string]string{
	"access_type": "offline",
	"prompt":      "consent",
}

// DefaultProviders returns the providers the dashboard integrates with.
func DefaultProviders() []ProviderConfig {
	return []ProviderConfig{
		{
			Name:            "stripe",
			AppType:         "payment",
			AuthURL:         "https://connect.stripe.com/oauth/authorize",
			TokenURL:        "https://connect.stripe.com/oauth/token",
			ClientIDEnv:     "STRIPE_CLIENT_ID",
			ClientSecretEnv: "STRIPE_CLIENT_SECRET",
			Scopes:          []string{"read_write"},
		},
		{
			Name:            "slack",
			AppType:         "communication",
			AuthURL:         "https://slack.com/oauth/v2/authorize",
			TokenURL:        "https://slack.com/api/oauth.v2.access",
			ClientIDEnv:     "SLACK_CLIENT_ID",
			ClientSecretEnv: "SLACK_CLIENT_SECRET",
			Scopes:          []string{"channels:read", "channels:history", "chat:write", "users:read"},
			ScopeSeparator:  ",",
			Exchange:        ExchangeSlack,
		},
		{
			Name:            "gmail",
			AppType:         "email",
			AuthURL:         googleAuthURL,
			TokenURL:        googleTokenURL,
			ClientIDEnv:     "GOOGLE_CLIENT_ID",
			ClientSecretEnv: "GOOGLE_CLIENT_SECRET",
			Scopes: []string{
				"https://www.googleapis.com/auth/gmail.readonly",
				"https://www.googleapis.com/auth/gmail.send",
			},
			AuthParams: googleOfflineParams,
		},
		{
			Name:            "google-sheets",
			AppType:         "productivity",
			AuthURL:         googleAuthURL,
			TokenURL:        googleTokenURL,
			ClientIDEnv:     "GOOGLE_CLIENT_ID",
			ClientSecretEnv: "GOOGLE_CLIENT_SECRET",
			Scopes: []string{
				"https://www.googleapis.com/auth/spreadsheets",
				"https://www.googleapis.com/auth/drive.readonly",
			},
			AuthParams: googleOfflineParams,
		},
		{
			Name:            "google-analytics",
			AppType:         "analytics",
			AuthURL:         googleAuthURL,
			TokenURL:        googleTokenURL,
			ClientIDEnv:     "GOOGLE_CLIENT_ID",
			ClientSecretEnv: "GOOGLE_CLIENT_SECRET",
			Scopes:          []string{"https://www.googleapis.com/auth/analytics.readonly"},
			AuthParams:      googleOfflineParams,
		},
		{
			Name:            "google-calendar",
			AppType:         "productivity",
			AuthURL:         googleAuthURL,
			TokenURL:        googleTokenURL,
			ClientIDEnv:     "GOOGLE_CLIENT_ID",
			ClientSecretEnv: "GOOGLE_CLIENT_SECRET",
			Scopes:          []string{"https://www.googleapis.com/auth/calendar.readonly"},
			AuthParams:      googleOfflineParams,
		},
		{
			Name:            "github",
			AppType:         "development",
			AuthURL:         "https://github.com/login/oauth/authorize",
			TokenURL:        "https://github.com/login/oauth/access_token",
			ClientIDEnv:     "GITHUB_CLIENT_ID",
			ClientSecretEnv: "GITHUB_CLIENT_SECRET",
			Scopes:          []string{"user", "repo", "read:org"},
			ScopeSeparator:  ",",
			Exchange:        ExchangeGitHub,
		},
		{
			Name:            "shopify",
			AppType:         "ecommerce",
			AuthURL:         "https://{{shop}}.myshopify.com/admin/oauth/authorize",
			TokenURL:        "https://{{shop}}.myshopify.com/admin/oauth/access_token",
			ClientIDEnv:     "SHOPIFY_CLIENT_ID",
			ClientSecretEnv: "SHOPIFY_CLIENT_SECRET",
			Scopes:          []string{"read_products", "read_orders", "read_customers"},
			ScopeSeparator:  ",",
		},
		{
			Name:            "mailchimp",
			AppType:         "marketing",
			AuthURL:         "https://login.mailchimp.com/oauth2/authorize",
			TokenURL:        "https://login.mailchimp.com/oauth2/token",
			ClientIDEnv:     "MAILCHIMP_CLIENT_ID",
			ClientSecretEnv: "MAILCHIMP_CLIENT_SECRET",
			Scopes:          []string{"r"},
		},
	}
}
