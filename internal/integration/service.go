package integration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bizdash/pkg/cache"
	"bizdash/pkg/logger"
	"bizdash/pkg/oauth2"
)

const statusTTL = 10 * time.Minute

// Purger drops data derived from an integration once it is disconnected.
type Purger interface {
	Purge(ctx context.Context, userID, provider string) error
}

type Service struct {
	manager *oauth2.Manager
	store   Store
	status  cache.Cache
	purgers []Purger
	logger  logger.Logger
	now     func() time.Time
}

func NewService(manager *oauth2.Manager, store Store, status cache.Cache, log logger.Logger) *Service {
	return &Service{
		manager: manager,
		store:   store,
		status:  status,
		logger:  log,
		now:     time.Now,
	}
}

// OnDisconnect registers p to run after every disconnect.
func (s *Service) OnDisconnect(p Purger) {
	s.purgers = append(s.purgers, p)
}

// Initiate returns the consent URL and marks the flow as pending.
func (s *Service) Initiate(ctx context.Context, userID, provider, tenant string) (string, error) {
	authURL, err := s.manager.AuthURL(userID, provider, tenant)
	if err != nil {
		s.logger.Error("failed to build auth url",
			logger.Field{Key: "provider", Value: provider},
			logger.Err(err),
		)
		return "", err
	}
	s.recordStatus(ctx, userID, FlowStatus{Status: FlowPending, Service: provider})
	return authURL, nil
}

func (s *Service) List(ctx context.Context, userID string) ([]Record, error) {
	return s.store.ListByUser(ctx, userID)
}

// Disconnect is a soft delete: the row stays, the access token is dropped.
func (s *Service) Disconnect(ctx context.Context, userID, provider string) error {
	err := s.store.MarkDisconnected(ctx, userID, provider, true)
	if errors.Is(err, ErrNotFound) {
		return fmt.Errorf("%w: %s", oauth2.ErrNotConnected, provider)
	}
	if err != nil {
		return err
	}
	s.forget(ctx, userID, provider)
	s.logger.Info("integration disconnected",
		logger.Field{Key: "user_id", Value: userID},
		logger.Field{Key: "provider", Value: provider},
	)
	return nil
}

// forget clears the flow status and everything cached for the integration.
// Failures are logged; the disconnect itself already happened.
func (s *Service) forget(ctx context.Context, userID, provider string) {
	if err := s.status.Del(ctx, statusKey(userID, provider)); err != nil {
		s.logger.Warn("failed to clear flow status",
			logger.Field{Key: "provider", Value: provider},
			logger.Err(err),
		)
	}
	s.purge(ctx, userID, provider)
}

// purge runs the registered purgers so cached data of a previous account
// is never served for a new connection.
func (s *Service) purge(ctx context.Context, userID, provider string) {
	for _, p := range s.purgers {
		if err := p.Purge(ctx, userID, provider); err != nil {
			s.logger.Warn("failed to purge integration data",
				logger.Field{Key: "provider", Value: provider},
				logger.Err(err),
			)
		}
	}
}

// Authorize returns a connected record with a usable access token,
// refreshing it first when needed.
func (s *Service) Authorize(ctx context.Context, userID, provider string) (*Record, error) {
	rec, err := s.store.Get(ctx, userID, provider)
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", oauth2.ErrNotConnected, provider)
	}
	if err != nil {
		return nil, err
	}
	return s.EnsureFresh(ctx, rec)
}

// EnsureFresh refreshes an expired access token before it is used. A
// failed refresh disconnects the integration and surfaces ErrAuthExpired;
// the stale token is never handed out.
func (s *Service) EnsureFresh(ctx context.Context, rec *Record) (*Record, error) {
	if !rec.IsConnected {
		return nil, fmt.Errorf("%w: %s", oauth2.ErrAuthExpired, rec.Provider)
	}
	if !rec.Expired(s.now()) {
		return rec, nil
	}

	ts, err := s.manager.Refresh(ctx, rec.Provider, rec.Config.Shop, rec.RefreshToken)
	if err != nil {
		if errors.Is(err, oauth2.ErrConfiguration) {
			return nil, err
		}
		s.logger.Warn("token refresh failed, disconnecting integration",
			logger.Field{Key: "user_id", Value: rec.UserID},
			logger.Field{Key: "provider", Value: rec.Provider},
			logger.Err(err),
		)
		if derr := s.store.MarkDisconnected(ctx, rec.UserID, rec.Provider, false); derr != nil && !errors.Is(derr, ErrNotFound) {
			s.logger.Error("failed to mark integration disconnected",
				logger.Field{Key: "provider", Value: rec.Provider},
				logger.Err(derr),
			)
		}
		return nil, fmt.Errorf("%w: %s: %v", oauth2.ErrAuthExpired, rec.Provider, err)
	}

	update := TokenUpdate{AccessToken: ts.AccessToken, ExpiresAt: ts.ExpiresAt}
	if ts.RefreshToken != "" && ts.RefreshToken != rec.RefreshToken {
		update.RefreshToken = ts.RefreshToken
	}
	err = s.store.UpdateTokens(ctx, rec.UserID, rec.Provider, update)
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", oauth2.ErrNotConnected, rec.Provider)
	}
	if err != nil {
		return nil, err
	}

	fresh := *rec
	fresh.AccessToken = update.AccessToken
	fresh.ExpiresAt = update.ExpiresAt
	if update.RefreshToken != "" {
		fresh.RefreshToken = update.RefreshToken
	}
	fresh.UpdatedAt = s.now()

	s.logger.Debug("token refreshed",
		logger.Field{Key: "user_id", Value: rec.UserID},
		logger.Field{Key: "provider", Value: rec.Provider},
	)
	return &fresh, nil
}

// Status reports the last callback outcome; idle when nothing is recorded.
func (s *Service) Status(ctx context.Context, userID, provider string) (FlowStatus, error) {
	raw, err := s.status.Get(ctx, statusKey(userID, provider))
	if errors.Is(err, cache.ErrMiss) {
		return FlowStatus{Status: FlowIdle, Service: provider}, nil
	}
	if err != nil {
		return FlowStatus{}, fmt.Errorf("failed to read flow status: %w", err)
	}
	var st FlowStatus
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		return FlowStatus{}, fmt.Errorf("failed to decode flow status: %w", err)
	}
	return st, nil
}

func (s *Service) recordStatus(ctx context.Context, userID string, st FlowStatus) {
	st.UpdatedAt = s.now()
	raw, err := json.Marshal(st)
	if err != nil {
		return
	}
	if err := s.status.Set(ctx, statusKey(userID, st.Service), string(raw), statusTTL); err != nil {
		s.logger.Warn("failed to record flow status",
			logger.Field{Key: "provider", Value: st.Service},
			logger.Err(err),
		)
	}
}

func statusKey(userID, provider string) string {
	return "oauth:status:" + userID + ":" + provider
}
