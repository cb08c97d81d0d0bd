package integration

import (
	"context"
	"errors"
	"fmt"

	"bizdash/pkg/logger"
	"bizdash/pkg/oauth2"
)

type Outcome string

const (
	OutcomeSuccess   Outcome = "success"
	OutcomeDenied    Outcome = "denied"
	OutcomeMalformed Outcome = "malformed"
)

type CallbackParams struct {
	Code             string
	State            string
	Error            string
	ErrorDescription string
	Shop             string
}

type CallbackResult struct {
	Outcome  Outcome
	Provider string
	UserID   string
	Err      error
}

// HandleCallback completes the flow started by Initiate. Exactly one
// outcome is produced and a record is only written on success.
func (s *Service) HandleCallback(ctx context.Context, p CallbackParams) CallbackResult {
	state, stateErr := oauth2.ParseState(p.State)

	if p.Error != "" {
		err := fmt.Errorf("%w: %s", oauth2.ErrUserDenied, describeProviderError(p.Error, p.ErrorDescription))
		s.logger.Info("oauth authorization denied",
			logger.Field{Key: "provider", Value: state.Provider},
			logger.Field{Key: "error", Value: p.Error},
		)
		return s.finish(ctx, state, CallbackResult{Outcome: OutcomeDenied, Err: err})
	}

	if p.Code == "" || p.State == "" || stateErr != nil {
		s.logger.Warn("malformed oauth callback",
			logger.Field{Key: "has_code", Value: p.Code != ""},
			logger.Field{Key: "has_state", Value: p.State != ""},
		)
		return CallbackResult{Outcome: OutcomeMalformed, Err: fmt.Errorf("%w: missing code or state", oauth2.ErrMalformedCallback)}
	}

	registry := s.manager.Registry()
	cfg, err := registry.Lookup(state.Provider)
	if err != nil {
		s.logger.Error("callback for unsupported provider", logger.Field{Key: "provider", Value: state.Provider}, logger.Err(err))
		return s.finish(ctx, state, CallbackResult{Outcome: OutcomeDenied, Err: err})
	}

	var shop string
	if cfg.RequiresTenant() {
		if shop, err = oauth2.NormalizeShop(p.Shop); err != nil {
			return s.finish(ctx, state, CallbackResult{Outcome: OutcomeDenied, Err: fmt.Errorf("%w: %v", oauth2.ErrMalformedCallback, err)})
		}
	}

	ts, err := s.manager.Exchange(ctx, state.Provider, p.Code, p.Shop)
	if err != nil {
		s.logger.Error("token exchange failed",
			logger.Field{Key: "user_id", Value: state.UserID},
			logger.Field{Key: "provider", Value: state.Provider},
			logger.Err(err),
		)
		return s.finish(ctx, state, CallbackResult{Outcome: OutcomeDenied, Err: err})
	}

	rec := &Record{
		UserID:       state.UserID,
		Provider:     state.Provider,
		AppType:      registry.AppType(state.Provider),
		AccessToken:  ts.AccessToken,
		RefreshToken: ts.RefreshToken,
		ExpiresAt:    ts.ExpiresAt,
		IsConnected:  true,
		Config: Config{
			Scope:       ts.Scope,
			Shop:        shop,
			ServiceData: ts.Metadata,
		},
	}
	if err := s.store.Upsert(ctx, rec); err != nil {
		s.logger.Error("failed to store integration",
			logger.Field{Key: "provider", Value: state.Provider},
			logger.Err(err),
		)
		return s.finish(ctx, state, CallbackResult{Outcome: OutcomeDenied, Err: fmt.Errorf("failed to store integration: %w", err)})
	}

	s.purge(ctx, state.UserID, state.Provider)
	s.logger.Info("integration connected",
		logger.Field{Key: "user_id", Value: state.UserID},
		logger.Field{Key: "provider", Value: state.Provider},
		logger.Field{Key: "expires", Value: ts.ExpiresAt != nil},
	)
	return s.finish(ctx, state, CallbackResult{Outcome: OutcomeSuccess})
}

func (s *Service) finish(ctx context.Context, state oauth2.State, res CallbackResult) CallbackResult {
	res.Provider = state.Provider
	res.UserID = state.UserID
	if state.UserID == "" || state.Provider == "" {
		return res
	}

	st := FlowStatus{Status: FlowSuccess, Service: state.Provider}
	if res.Outcome != OutcomeSuccess {
		st.Status = FlowError
		st.Error = PublicMessage(res.Err)
	}
	s.recordStatus(ctx, state.UserID, st)
	return res
}

// PublicMessage is the error text safe to show the end user.
func PublicMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, oauth2.ErrUserDenied):
		return "Authorization was denied"
	case errors.Is(err, oauth2.ErrMalformedCallback):
		return "Invalid authorization response"
	case errors.Is(err, oauth2.ErrConfiguration):
		return "This integration is not configured"
	case errors.Is(err, oauth2.ErrTokenExchangeFailed):
		return "Failed to exchange authorization code"
	default:
		return "Failed to complete authorization"
	}
}

func describeProviderError(code, description string) string {
	if description == "" {
		return code
	}
	return code + ": " + description
}
