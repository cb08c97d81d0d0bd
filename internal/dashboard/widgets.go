package dashboard

import (
	"context"
	"errors"
	"strconv"

	"bizdash/internal/adapter"
	"bizdash/internal/integration"
	"bizdash/pkg/oauth2"
)

const (
	defaultSalesDays = 30
	maxSalesDays     = 365
)

func (s *Service) Emails(ctx context.Context, userID, query string, max int) (*Result[adapter.EmailList], error) {
	return load(ctx, s, userID, widget[adapter.EmailList]{
		provider: adapter.ProviderGmail,
		kind:     "emails:" + query + ":" + strconv.Itoa(max),
		fetch: func(ctx context.Context, rec *integration.Record) (adapter.EmailList, error) {
			return deref(s.adapters.Gmail.FetchEmails(ctx, rec.AccessToken, query, max))
		},
		fallback: emptyEmailList,
	})
}

func (s *Service) EmailStats(ctx context.Context, userID string) (*Result[adapter.EmailStats], error) {
	return load(ctx, s, userID, widget[adapter.EmailStats]{
		provider: adapter.ProviderGmail,
		kind:     "stats",
		fetch: func(ctx context.Context, rec *integration.Record) (adapter.EmailStats, error) {
			return deref(s.adapters.Gmail.Stats(ctx, rec.AccessToken))
		},
		fallback: emptyEmailStats,
	})
}

func (s *Service) EmailAnalysis(ctx context.Context, userID string) (*Result[adapter.EmailAnalysis], error) {
	return load(ctx, s, userID, widget[adapter.EmailAnalysis]{
		provider: adapter.ProviderGmail,
		kind:     "analysis",
		fetch: func(ctx context.Context, rec *integration.Record) (adapter.EmailAnalysis, error) {
			return deref(s.adapters.Gmail.Analyze(ctx, rec.AccessToken))
		},
		fallback: emptyEmailAnalysis,
	})
}

func (s *Service) AnalyticsOverview(ctx context.Context, userID, propertyID string) (*Result[adapter.AnalyticsOverview], error) {
	return load(ctx, s, userID, widget[adapter.AnalyticsOverview]{
		provider: adapter.ProviderAnalytics,
		kind:     "overview:" + propertyID,
		fetch: func(ctx context.Context, rec *integration.Record) (adapter.AnalyticsOverview, error) {
			return deref(s.adapters.Analytics.Overview(ctx, rec.AccessToken, propertyID))
		},
		fallback: func() adapter.AnalyticsOverview { return emptyAnalytics(s.now()) },
	})
}

func (s *Service) CalendarEvents(ctx context.Context, userID string, max int) (*Result[[]adapter.CalendarEvent], error) {
	return load(ctx, s, userID, widget[[]adapter.CalendarEvent]{
		provider: adapter.ProviderCalendar,
		kind:     "events:" + strconv.Itoa(max),
		fetch: func(ctx context.Context, rec *integration.Record) ([]adapter.CalendarEvent, error) {
			return s.adapters.Calendar.UpcomingEvents(ctx, rec.AccessToken, max)
		},
		fallback: emptyEvents,
	})
}

func (s *Service) Repositories(ctx context.Context, userID string, limit int) (*Result[[]adapter.Repository], error) {
	return load(ctx, s, userID, widget[[]adapter.Repository]{
		provider: adapter.ProviderGitHub,
		kind:     "repos:" + strconv.Itoa(limit),
		fetch: func(ctx context.Context, rec *integration.Record) ([]adapter.Repository, error) {
			return s.adapters.GitHub.Repositories(ctx, rec.AccessToken, limit)
		},
		fallback: emptyRepositories,
	})
}

func (s *Service) Commits(ctx context.Context, userID, owner, repo string, limit int) (*Result[[]adapter.Commit], error) {
	return load(ctx, s, userID, widget[[]adapter.Commit]{
		provider: adapter.ProviderGitHub,
		kind:     "commits:" + owner + "/" + repo + ":" + strconv.Itoa(limit),
		fetch: func(ctx context.Context, rec *integration.Record) ([]adapter.Commit, error) {
			return s.adapters.GitHub.Commits(ctx, rec.AccessToken, owner, repo, limit)
		},
		fallback: emptyCommits,
	})
}

func (s *Service) SlackChannels(ctx context.Context, userID string, limit int) (*Result[[]adapter.Channel], error) {
	return load(ctx, s, userID, widget[[]adapter.Channel]{
		provider: adapter.ProviderSlack,
		kind:     "channels:" + strconv.Itoa(limit),
		fetch: func(ctx context.Context, rec *integration.Record) ([]adapter.Channel, error) {
			return s.adapters.Slack.Channels(ctx, rec.AccessToken, limit)
		},
		fallback: emptyChannels,
	})
}

func (s *Service) SlackMessages(ctx context.Context, userID, channelID string, limit int) (*Result[[]adapter.Message], error) {
	return load(ctx, s, userID, widget[[]adapter.Message]{
		provider: adapter.ProviderSlack,
		kind:     "messages:" + channelID + ":" + strconv.Itoa(limit),
		fetch: func(ctx context.Context, rec *integration.Record) ([]adapter.Message, error) {
			return s.adapters.Slack.Messages(ctx, rec.AccessToken, channelID, limit)
		},
		fallback: emptyMessages,
	})
}

func (s *Service) stripeSales(ctx context.Context, userID string, days int) (*Result[adapter.SalesData], error) {
	since := s.now().AddDate(0, 0, -days)
	return load(ctx, s, userID, widget[adapter.SalesData]{
		provider: adapter.ProviderStripe,
		kind:     "sales:" + strconv.Itoa(days),
		fetch: func(ctx context.Context, rec *integration.Record) (adapter.SalesData, error) {
			return deref(s.adapters.Stripe.Sales(ctx, rec.AccessToken, since))
		},
		fallback: emptySales,
	})
}

func (s *Service) shopifySales(ctx context.Context, userID string, days int) (*Result[adapter.SalesData], error) {
	since := s.now().AddDate(0, 0, -days)
	return load(ctx, s, userID, widget[adapter.SalesData]{
		provider: adapter.ProviderShopify,
		kind:     "sales:" + strconv.Itoa(days),
		fetch: func(ctx context.Context, rec *integration.Record) (adapter.SalesData, error) {
			return deref(s.adapters.Shopify.Orders(ctx, rec.AccessToken, rec.Config.Shop, since, 0))
		},
		fallback: emptySales,
	})
}

func (s *Service) StripeCustomers(ctx context.Context, userID string, limit int) (*Result[[]adapter.Customer], error) {
	return load(ctx, s, userID, widget[[]adapter.Customer]{
		provider: adapter.ProviderStripe,
		kind:     "customers:" + strconv.Itoa(limit),
		fetch: func(ctx context.Context, rec *integration.Record) ([]adapter.Customer, error) {
			return s.adapters.Stripe.Customers(ctx, rec.AccessToken, limit)
		},
		fallback: emptyCustomers,
	})
}

func (s *Service) ShopifyProducts(ctx context.Context, userID string, limit int) (*Result[[]adapter.Product], error) {
	return load(ctx, s, userID, widget[[]adapter.Product]{
		provider: adapter.ProviderShopify,
		kind:     "products:" + strconv.Itoa(limit),
		fetch: func(ctx context.Context, rec *integration.Record) ([]adapter.Product, error) {
			return s.adapters.Shopify.Products(ctx, rec.AccessToken, rec.Config.Shop, limit)
		},
		fallback: emptyProducts,
	})
}

// Sales merges Stripe and Shopify over the last days. A provider that is
// not connected is skipped; if neither is, ErrNotConnected is returned.
// The merged result carries the worst source of its parts.
func (s *Service) Sales(ctx context.Context, userID string, days int) (*Result[adapter.SalesData], error) {
	if days <= 0 {
		days = defaultSalesDays
	}
	days = min(days, maxSalesDays)

	var parts []*Result[adapter.SalesData]
	for _, get := range []func(context.Context, string, int) (*Result[adapter.SalesData], error){s.stripeSales, s.shopifySales} {
		res, err := get(ctx, userID, days)
		if errors.Is(err, oauth2.ErrNotConnected) {
			continue
		}
		if err != nil {
			return nil, err
		}
		parts = append(parts, res)
	}
	if len(parts) == 0 {
		return nil, oauth2.ErrNotConnected
	}

	merged := &Result[adapter.SalesData]{Provider: "sales", Source: SourceLive, Data: emptySales()}
	for _, p := range parts {
		merged.Data = adapter.MergeSales(merged.Data, p.Data)
		if p.Source.rank() > merged.Source.rank() {
			merged.Source = p.Source
			merged.Reason = p.Reason
		}
	}
	return merged, nil
}

func deref[T any](v *T, err error) (T, error) {
	if err != nil || v == nil {
		var zero T
		return zero, err
	}
	return *v, nil
}
