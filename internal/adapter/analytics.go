package adapter

import (
	"context"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"google.golang.org/api/analyticsdata/v1beta"
	"google.golang.org/api/option"
)

const DefaultAnalyticsEndpoint = "https://analyticsdata.googleapis.com/"

var propertyPattern = regexp.MustCompile(`^[0-9]{1,20}$`)

var analyticsMetrics = []string{"sessions", "totalUsers", "screenPageViews", "bounceRate"}

type Analytics struct {
	client
}

func NewAnalytics(httpClient *http.Client, baseURL string) *Analytics {
	return &Analytics{client: newClient(ProviderAnalytics, httpClient, baseURL)}
}

// Overview runs a 30 day report for a GA4 property, one row per day.
func (a *Analytics) Overview(ctx context.Context, token, propertyID string) (*AnalyticsOverview, error) {
	if !propertyPattern.MatchString(propertyID) {
		return nil, invalid("property id must be numeric")
	}

	svc, err := analyticsdata.NewService(ctx, option.WithHTTPClient(a.bearer(ctx, token)), option.WithEndpoint(a.baseURL))
	if err != nil {
		return nil, classify(a.provider, "create service", err)
	}

	metrics := make([]*analyticsdata.Metric, 0, len(analyticsMetrics))
	for _, m := range analyticsMetrics {
		metrics = append(metrics, &analyticsdata.Metric{Name: m})
	}
	req := &analyticsdata.RunReportRequest{
		DateRanges:         []*analyticsdata.DateRange{{StartDate: "29daysAgo", EndDate: "today"}},
		Dimensions:         []*analyticsdata.Dimension{{Name: "date"}},
		Metrics:            metrics,
		MetricAggregations: []string{"TOTAL"},
		OrderBys: []*analyticsdata.OrderBy{{
			Dimension: &analyticsdata.DimensionOrderBy{DimensionName: "date"},
		}},
	}

	if err := a.wait(ctx, tokenKey(token)); err != nil {
		return nil, err
	}
	resp, err := svc.Properties.RunReport("properties/"+propertyID, req).Context(ctx).Do()
	if err != nil {
		return nil, classify(a.provider, "run report", err)
	}
	return summarizeReport(resp), nil
}

func summarizeReport(resp *analyticsdata.RunReportResponse) *AnalyticsOverview {
	out := &AnalyticsOverview{ChartData: make([]AnalyticsPoint, 0, len(resp.Rows))}

	var weightedBounce float64
	for _, row := range resp.Rows {
		point := AnalyticsPoint{
			Date:     reportDate(dimension(row, 0)),
			Sessions: int64(metric(row, 0)),
			Users:    int64(metric(row, 1)),
		}
		out.ChartData = append(out.ChartData, point)
		out.Sessions += point.Sessions
		out.Users += point.Users
		out.Pageviews += int64(metric(row, 2))
		weightedBounce += metric(row, 3) * float64(point.Sessions)
	}
	if out.Sessions > 0 {
		out.BounceRate = weightedBounce / float64(out.Sessions)
	}

	// Totals de-duplicate users across days; prefer them when present.
	if len(resp.Totals) > 0 {
		total := resp.Totals[0]
		out.Sessions = int64(metric(total, 0))
		out.Users = int64(metric(total, 1))
		out.Pageviews = int64(metric(total, 2))
		out.BounceRate = metric(total, 3)
	}
	return out
}

func dimension(row *analyticsdata.Row, i int) string {
	if row == nil || i >= len(row.DimensionValues) || row.DimensionValues[i] == nil {
		return ""
	}
	return row.DimensionValues[i].Value
}

func metric(row *analyticsdata.Row, i int) float64 {
	if row == nil || i >= len(row.MetricValues) || row.MetricValues[i] == nil {
		return 0
	}
	v, err := strconv.ParseFloat(row.MetricValues[i].Value, 64)
	if err != nil {
		return 0
	}
	return v
}

// reportDate turns GA's YYYYMMDD into YYYY-MM-DD.
func reportDate(raw string) string {
	t, err := time.Parse("20060102", raw)
	if err != nil {
		return raw
	}
	return t.Format(time.DateOnly)
}
