package dashboard

import (
	"time"

	"bizdash/internal/adapter"
)

// Fallback shapes are empty but well-formed. None of them carry invented
// numbers; the Source label is what tells the UI the data is not live.

func emptyEmailList() adapter.EmailList {
	return adapter.EmailList{Emails: []adapter.Email{}}
}

func emptyEmailStats() adapter.EmailStats {
	return adapter.EmailStats{}
}

func emptyEmailAnalysis() adapter.EmailAnalysis {
	return adapter.EmailAnalysis{
		TopSenders:     []adapter.SenderCount{},
		EmailTrends:    []adapter.DayCount{},
		PriorityEmails: []adapter.Email{},
	}
}

// emptyAnalytics keeps the 30 day chart axis so the widget still renders.
func emptyAnalytics(now time.Time) adapter.AnalyticsOverview {
	const days = 30
	out := adapter.AnalyticsOverview{ChartData: make([]adapter.AnalyticsPoint, 0, days)}
	start := now.UTC().AddDate(0, 0, -(days - 1))
	for i := range days {
		out.ChartData = append(out.ChartData, adapter.AnalyticsPoint{
			Date: start.AddDate(0, 0, i).Format(time.DateOnly),
		})
	}
	return out
}

func emptyEvents() []adapter.CalendarEvent    { return []adapter.CalendarEvent{} }
func emptyRepositories() []adapter.Repository { return []adapter.Repository{} }
func emptyCommits() []adapter.Commit          { return []adapter.Commit{} }
func emptyChannels() []adapter.Channel        { return []adapter.Channel{} }
func emptyMessages() []adapter.Message        { return []adapter.Message{} }
func emptyCustomers() []adapter.Customer      { return []adapter.Customer{} }
func emptyProducts() []adapter.Product        { return []adapter.Product{} }
func emptySales() adapter.SalesData           { return adapter.SalesData{Trend: []adapter.SalesPoint{}} }
