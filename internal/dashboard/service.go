package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bizdash/internal/adapter"
	"bizdash/internal/integration"
	"bizdash/pkg/cache"
	"bizdash/pkg/logger"
	"bizdash/pkg/oauth2"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const fallbackReason = "live data unavailable: provider request failed"

// Integrations hands out connected records with fresh tokens.
type Integrations interface {
	Authorize(ctx context.Context, userID, provider string) (*integration.Record, error)
	List(ctx context.Context, userID string) ([]integration.Record, error)
}

type EmailSource interface {
	FetchEmails(ctx context.Context, token, query string, max int) (*adapter.EmailList, error)
	Stats(ctx context.Context, token string) (*adapter.EmailStats, error)
	Analyze(ctx context.Context, token string) (*adapter.EmailAnalysis, error)
}

type AnalyticsSource interface {
	Overview(ctx context.Context, token, propertyID string) (*adapter.AnalyticsOverview, error)
}

type CalendarSource interface {
	UpcomingEvents(ctx context.Context, token string, max int) ([]adapter.CalendarEvent, error)
}

type CodeSource interface {
	Repositories(ctx context.Context, token string, limit int) ([]adapter.Repository, error)
	Commits(ctx context.Context, token, owner, repo string, limit int) ([]adapter.Commit, error)
}

type ChatSource interface {
	Channels(ctx context.Context, token string, limit int) ([]adapter.Channel, error)
	Messages(ctx context.Context, token, channelID string, limit int) ([]adapter.Message, error)
}

type PaymentSource interface {
	Sales(ctx context.Context, token string, since time.Time) (*adapter.SalesData, error)
	Customers(ctx context.Context, token string, limit int) ([]adapter.Customer, error)
}

type StoreSource interface {
	Orders(ctx context.Context, token, shop string, since time.Time, limit int) (*adapter.SalesData, error)
	Products(ctx context.Context, token, shop string, limit int) ([]adapter.Product, error)
}

type Adapters struct {
	Gmail     EmailSource
	Analytics AnalyticsSource
	Calendar  CalendarSource
	GitHub    CodeSource
	Slack     ChatSource
	Stripe    PaymentSource
	Shopify   StoreSource
}

type Service struct {
	integrations Integrations
	adapters     Adapters
	cache        cache.Cache
	ttl          time.Duration
	logger       logger.Logger
	fallbacks    metric.Int64Counter
	now          func() time.Time
}

func NewService(integrations Integrations, adapters Adapters, c cache.Cache, ttl time.Duration, log logger.Logger, meter metric.Meter) (*Service, error) {
	fallbacks, err := meter.Int64Counter("adapter_fallback_total",
		metric.WithDescription("Widget requests served from cache or fallback after a provider API failure"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create fallback counter: %w", err)
	}
	return &Service{
		integrations: integrations,
		adapters:     adapters,
		cache:        c,
		ttl:          ttl,
		logger:       log,
		fallbacks:    fallbacks,
		now:          time.Now,
	}, nil
}

// widget describes one widget read: which provider, the cache key suffix,
// the live call and the shape to fall back to.
type widget[T any] struct {
	provider string
	kind     string
	fetch    func(ctx context.Context, rec *integration.Record) (T, error)
	fallback func() T
}

// load authorizes, calls the provider and degrades to the last good value
// or the fallback shape when the provider API fails. Authorization and
// configuration errors are returned as they are.
func load[T any](ctx context.Context, s *Service, userID string, w widget[T]) (*Result[T], error) {
	rec, err := s.integrations.Authorize(ctx, userID, w.provider)
	if err != nil {
		return nil, err
	}

	key := cacheKey(w.provider, w.kind, userID)
	data, err := w.fetch(ctx, rec)
	if err == nil {
		s.remember(ctx, key, data)
		return &Result[T]{Provider: w.provider, Source: SourceLive, Data: data}, nil
	}
	if !errors.Is(err, oauth2.ErrProviderAPI) {
		return nil, err
	}

	s.fallbacks.Add(ctx, 1, metric.WithAttributes(attribute.String("provider", w.provider)))

	var cached T
	if raw, cerr := s.cache.Get(ctx, key); cerr == nil && json.Unmarshal([]byte(raw), &cached) == nil {
		s.logger.Warn("provider api failed, serving cached data",
			logger.Field{Key: "provider", Value: w.provider},
			logger.Field{Key: "widget", Value: w.kind},
			logger.Err(err),
		)
		return &Result[T]{Provider: w.provider, Source: SourceCached, Reason: fallbackReason, Data: cached}, nil
	}

	s.logger.Warn("provider api failed, serving fallback data",
		logger.Field{Key: "provider", Value: w.provider},
		logger.Field{Key: "widget", Value: w.kind},
		logger.Err(err),
	)
	return &Result[T]{Provider: w.provider, Source: SourceFallback, Reason: fallbackReason, Data: w.fallback()}, nil
}

func (s *Service) remember(ctx context.Context, key string, data any) {
	raw, err := json.Marshal(data)
	if err != nil {
		s.logger.Error("failed to encode widget data", logger.Field{Key: "key", Value: key}, logger.Err(err))
		return
	}
	if err := s.cache.Set(ctx, key, string(raw), s.ttl); err != nil {
		s.logger.Warn("failed to cache widget data", logger.Field{Key: "key", Value: key}, logger.Err(err))
	}
}

// Purge drops every cached widget of provider for the user, so a later
// reconnect to another account never sees the previous account's data.
func (s *Service) Purge(ctx context.Context, userID, provider string) error {
	if err := s.cache.DelPrefix(ctx, widgetPrefix(userID, provider)); err != nil {
		return fmt.Errorf("failed to purge %s widgets: %w", provider, err)
	}
	return nil
}

func widgetPrefix(userID, provider string) string {
	return "widget:" + userID + ":" + provider + ":"
}

func cacheKey(provider, kind, userID string) string {
	return widgetPrefix(userID, provider) + kind
}
