package adapter

import (
	"errors"
	"fmt"
	"net/http"
	"slices"

	"bizdash/pkg/oauth2"

	"github.com/google/go-github/v80/github"
	"github.com/slack-go/slack"
	"github.com/stripe/stripe-go/v81"
	"google.golang.org/api/googleapi"
)

// Slack reports auth problems in the body of a 200.
var slackAuthErrors = []string{
	"invalid_auth",
	"not_authed",
	"token_revoked",
	"token_expired",
	"account_inactive",
	"missing_scope",
}

// statusError is returned by adapters that speak plain HTTP.
type statusError struct {
	Code int
	Body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Code, e.Body)
}

// classify maps a provider failure onto ErrAuthExpired (401/403 and their
// in-body equivalents) or ErrProviderAPI (everything else). The original
// error stays in the chain.
func classify(provider, op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrInvalidArgument) {
		return err
	}
	if statusOf(err) == http.StatusUnauthorized || statusOf(err) == http.StatusForbidden {
		return fmt.Errorf("%w: %s: %s: %w", oauth2.ErrAuthExpired, provider, op, err)
	}
	return fmt.Errorf("%w: %s: %s: %w", oauth2.ErrProviderAPI, provider, op, err)
}

func statusOf(err error) int {
	var (
		googleErr   *googleapi.Error
		githubErr   *github.ErrorResponse
		stripeErr   *stripe.Error
		slackStatus slack.StatusCodeError
		slackResp   slack.SlackErrorResponse
		plainErr    *statusError
	)
	switch {
	case errors.As(err, &googleErr):
		return googleErr.Code
	case errors.As(err, &githubErr):
		if githubErr.Response != nil {
			return githubErr.Response.StatusCode
		}
	case errors.As(err, &stripeErr):
		return stripeErr.HTTPStatusCode
	case errors.As(err, &slackStatus):
		return slackStatus.Code
	case errors.As(err, &slackResp):
		if slices.Contains(slackAuthErrors, slackResp.Err) {
			return http.StatusUnauthorized
		}
	case errors.As(err, &plainErr):
		return plainErr.Code
	}
	return 0
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}
