package dashboard

import (
	"context"

	"bizdash/internal/adapter"
	"bizdash/internal/httpx"
	"bizdash/internal/integration"
	"bizdash/pkg/logger"

	"golang.org/x/sync/errgroup"
)

const (
	overviewConcurrency = 4
	overviewListSize    = 10
)

// Overview reads a summary for every connected integration in parallel.
// A failing provider is reported on its own item and never fails the
// whole overview.
func (s *Service) Overview(ctx context.Context, userID string) (*Overview, error) {
	records, err := s.integrations.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	var connected []integration.Record
	for _, rec := range records {
		if rec.IsConnected {
			connected = append(connected, rec)
		}
	}

	items := make([]OverviewItem, len(connected))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(overviewConcurrency)
	for i, rec := range connected {
		g.Go(func() error {
			items[i] = s.overviewItem(gctx, userID, rec)
			return nil
		})
	}
	_ = g.Wait()

	return &Overview{Widgets: items}, nil
}

func (s *Service) overviewItem(ctx context.Context, userID string, rec integration.Record) OverviewItem {
	item := OverviewItem{Provider: rec.Provider, AppType: rec.AppType}

	var (
		source Source
		reason string
		data   any
		err    error
	)
	switch rec.Provider {
	case adapter.ProviderGmail:
		source, reason, data, err = summary(s.EmailStats(ctx, userID))
	case adapter.ProviderCalendar:
		source, reason, data, err = count(s.CalendarEvents(ctx, userID, overviewListSize))
	case adapter.ProviderGitHub:
		source, reason, data, err = count(s.Repositories(ctx, userID, overviewListSize))
	case adapter.ProviderSlack:
		source, reason, data, err = count(s.SlackChannels(ctx, userID, overviewListSize))
	case adapter.ProviderStripe:
		source, reason, data, err = summary(s.stripeSales(ctx, userID, defaultSalesDays))
	case adapter.ProviderShopify:
		source, reason, data, err = summary(s.shopifySales(ctx, userID, defaultSalesDays))
	default:
		// connected but without a summary widget
		return item
	}

	if err != nil {
		s.logger.Warn("overview item failed",
			logger.Field{Key: "provider", Value: rec.Provider},
			logger.Err(err),
		)
		item.Error = httpx.FromError(err).Message
		return item
	}
	item.Source = source
	item.Reason = reason
	item.Data = data
	return item
}

func summary[T any](res *Result[T], err error) (Source, string, any, error) {
	if err != nil {
		return "", "", nil, err
	}
	return res.Source, res.Reason, res.Data, nil
}

func count[T any](res *Result[[]T], err error) (Source, string, any, error) {
	if err != nil {
		return "", "", nil, err
	}
	return res.Source, res.Reason, Counts{Total: len(res.Data)}, nil
}
