package dashboard

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"bizdash/internal/adapter"
	"bizdash/internal/integration"
	"bizdash/pkg/cache"
	"bizdash/pkg/logger"
	"bizdash/pkg/oauth2"

	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

var testNow = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

type fakeIntegrations struct {
	records map[string]integration.Record
	errs    map[string]error
}

func (f *fakeIntegrations) Authorize(_ context.Context, userID, provider string) (*integration.Record, error) {
	if err, ok := f.errs[provider]; ok {
		return nil, err
	}
	rec, ok := f.records[provider]
	if !ok || rec.UserID != userID || !rec.IsConnected {
		return nil, oauth2.ErrNotConnected
	}
	return &rec, nil
}

func (f *fakeIntegrations) List(_ context.Context, userID string) ([]integration.Record, error) {
	var out []integration.Record
	for _, rec := range f.records {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Provider < out[j].Provider })
	return out, nil
}

func (f *fakeIntegrations) connect(provider, appType string) {
	f.records[provider] = integration.Record{
		UserID:      "u1",
		Provider:    provider,
		AppType:     appType,
		AccessToken: provider + "-token",
		IsConnected: true,
	}
}

// fakeSources serves canned provider data. errs is keyed by method name.
type fakeSources struct {
	mu     sync.Mutex
	errs   map[string]error
	calls  map[string]int
	tokens []string
	since  time.Time
	shop   string
}

func (f *fakeSources) call(method, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[method]++
	f.tokens = append(f.tokens, token)
	return f.errs[method]
}

func (f *fakeSources) fail(method string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[method] = err
}

func (f *fakeSources) count(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *fakeSources) FetchEmails(_ context.Context, token, _ string, _ int) (*adapter.EmailList, error) {
	if err := f.call("FetchEmails", token); err != nil {
		return nil, err
	}
	return &adapter.EmailList{Emails: []adapter.Email{{ID: "m1", Subject: "Quarterly report"}}, TotalResults: 1}, nil
}

func (f *fakeSources) Stats(_ context.Context, token string) (*adapter.EmailStats, error) {
	if err := f.call("Stats", token); err != nil {
		return nil, err
	}
	return &adapter.EmailStats{TotalEmails: 120, UnreadEmails: 7, SentEmails: 40}, nil
}

func (f *fakeSources) Analyze(_ context.Context, token string) (*adapter.EmailAnalysis, error) {
	if err := f.call("Analyze", token); err != nil {
		return nil, err
	}
	return &adapter.EmailAnalysis{TotalEmails: 3, UnreadCount: 1}, nil
}

func (f *fakeSources) Overview(_ context.Context, token, _ string) (*adapter.AnalyticsOverview, error) {
	if err := f.call("Overview", token); err != nil {
		return nil, err
	}
	return &adapter.AnalyticsOverview{Sessions: 42, Users: 30}, nil
}

func (f *fakeSources) UpcomingEvents(_ context.Context, token string, _ int) ([]adapter.CalendarEvent, error) {
	if err := f.call("UpcomingEvents", token); err != nil {
		return nil, err
	}
	return []adapter.CalendarEvent{{ID: "e1", Title: "Standup"}, {ID: "e2", Title: "Review"}}, nil
}

func (f *fakeSources) Repositories(_ context.Context, token string, _ int) ([]adapter.Repository, error) {
	if err := f.call("Repositories", token); err != nil {
		return nil, err
	}
	return []adapter.Repository{{Name: "api"}, {Name: "web"}, {Name: "infra"}}, nil
}

func (f *fakeSources) Commits(_ context.Context, token, owner, repo string, _ int) ([]adapter.Commit, error) {
	if err := f.call("Commits", token); err != nil {
		return nil, err
	}
	return []adapter.Commit{{SHA: "abc123", Message: "fix " + owner + "/" + repo}}, nil
}

func (f *fakeSources) Channels(_ context.Context, token string, _ int) ([]adapter.Channel, error) {
	if err := f.call("Channels", token); err != nil {
		return nil, err
	}
	return []adapter.Channel{{ID: "C1", Name: "general"}, {ID: "C2", Name: "ops"}}, nil
}

func (f *fakeSources) Messages(_ context.Context, token, _ string, _ int) ([]adapter.Message, error) {
	if err := f.call("Messages", token); err != nil {
		return nil, err
	}
	return []adapter.Message{{User: "U1", Text: "deployed"}}, nil
}

func (f *fakeSources) Sales(_ context.Context, token string, since time.Time) (*adapter.SalesData, error) {
	f.mu.Lock()
	f.since = since
	f.mu.Unlock()
	if err := f.call("Sales", token); err != nil {
		return nil, err
	}
	return &adapter.SalesData{
		TotalRevenue:      100,
		TotalOrders:       2,
		AverageOrderValue: 50,
		Currency:          "USD",
		Trend:             []adapter.SalesPoint{{Date: "2024-04-30", Revenue: 100, Orders: 2}},
	}, nil
}

func (f *fakeSources) Orders(_ context.Context, token, shop string, _ time.Time, _ int) (*adapter.SalesData, error) {
	f.mu.Lock()
	f.shop = shop
	f.mu.Unlock()
	if err := f.call("Orders", token); err != nil {
		return nil, err
	}
	return &adapter.SalesData{
		TotalRevenue:      50,
		TotalOrders:       1,
		AverageOrderValue: 50,
		Currency:          "USD",
		Trend:             []adapter.SalesPoint{{Date: "2024-05-01", Revenue: 50, Orders: 1}},
	}, nil
}

func (f *fakeSources) Customers(_ context.Context, token string, _ int) ([]adapter.Customer, error) {
	if err := f.call("Customers", token); err != nil {
		return nil, err
	}
	return []adapter.Customer{{ID: "cus_1", Name: "Ada", Email: "ada@example.com"}}, nil
}

func (f *fakeSources) Products(_ context.Context, token, shop string, _ int) ([]adapter.Product, error) {
	f.mu.Lock()
	f.shop = shop
	f.mu.Unlock()
	if err := f.call("Products", token); err != nil {
		return nil, err
	}
	return []adapter.Product{{ID: 7, Title: "Mug", Status: "active", Inventory: 7}}, nil
}

type fixture struct {
	service      *Service
	integrations *fakeIntegrations
	sources      *fakeSources
	cache        *cache.MemoryCache
	reader       *sdkmetric.ManualReader
	logs         *bytes.Buffer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	integrations := &fakeIntegrations{records: map[string]integration.Record{}, errs: map[string]error{}}
	sources := &fakeSources{errs: map[string]error{}, calls: map[string]int{}}
	adapters := Adapters{
		Gmail:     sources,
		Analytics: sources,
		Calendar:  sources,
		GitHub:    sources,
		Slack:     sources,
		Stripe:    sources,
		Shopify:   sources,
	}

	reader := sdkmetric.NewManualReader()
	meter := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("bizdash/dashboard")

	c := cache.NewMemoryCache()
	logs := &bytes.Buffer{}
	svc, err := NewService(integrations, adapters, c, 10*time.Minute, logger.NewWithWriter("test", logs), meter)
	require.NoError(t, err)
	svc.now = func() time.Time { return testNow }

	return &fixture{service: svc, integrations: integrations, sources: sources, cache: c, reader: reader, logs: logs}
}

// fallbacks reads adapter_fallback_total for one provider.
func (f *fixture) fallbacks(t *testing.T, provider string) int64 {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, f.reader.Collect(context.Background(), &rm))
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "adapter_fallback_total" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				if v, ok := dp.Attributes.Value("provider"); ok && v.AsString() == provider {
					return dp.Value
				}
			}
		}
	}
	return 0
}

func providerDown(provider string) error {
	return fmt.Errorf("%w: %s: list: status 503", oauth2.ErrProviderAPI, provider)
}
