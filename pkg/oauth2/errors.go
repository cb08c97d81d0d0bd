package oauth2

import "errors"

var (
	// ErrConfiguration means the server cannot run the flow for a provider:
	// it is unregistered, lacks client credentials, or needs a tenant.
	ErrConfiguration = errors.New("oauth2: provider not configured")

	// ErrUserDenied is reported when the provider redirects back with error=...
	ErrUserDenied = errors.New("oauth2: authorization denied")

	ErrMalformedCallback = errors.New("oauth2: malformed callback")

	ErrTokenExchangeFailed = errors.New("oauth2: token exchange failed")

	// ErrAuthExpired tells the caller the integration must be reconnected.
	ErrAuthExpired = errors.New("oauth2: authorization expired, reconnect required")

	ErrProviderAPI = errors.New("oauth2: provider api error")
)

// ErrNotConnected means the user has no active integration for a provider.
var ErrNotConnected = errors.New("oauth2: integration not connected")
