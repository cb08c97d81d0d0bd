package adapter

import (
	"math"
	"slices"
	"strings"
	"time"

	"github.com/samber/lo"
)

// sale is one paid order or charge in major currency units.
type sale struct {
	at       time.Time
	amount   float64
	currency string
}

// summarizeSales totals sales in the currency of the first sale and builds
// a daily UTC trend. Sales in any other currency are left out.
func summarizeSales(sales []sale) SalesData {
	out := SalesData{Trend: []SalesPoint{}}
	if len(sales) == 0 {
		return out
	}
	out.Currency = strings.ToUpper(sales[0].currency)

	same := lo.Filter(sales, func(s sale, _ int) bool {
		return strings.EqualFold(s.currency, out.Currency)
	})
	byDay := lo.GroupBy(same, func(s sale) string {
		return s.at.UTC().Format(time.DateOnly)
	})
	for day, daySales := range byDay {
		revenue := lo.SumBy(daySales, func(s sale) float64 { return s.amount })
		out.Trend = append(out.Trend, SalesPoint{Date: day, Revenue: roundCents(revenue), Orders: len(daySales)})
		out.TotalRevenue += revenue
	}
	slices.SortFunc(out.Trend, func(a, b SalesPoint) int { return strings.Compare(a.Date, b.Date) })

	out.TotalOrders = len(same)
	out.TotalRevenue = roundCents(out.TotalRevenue)
	if out.TotalOrders > 0 {
		out.AverageOrderValue = roundCents(out.TotalRevenue / float64(out.TotalOrders))
	}
	return out
}

// MergeSales combines two summaries in the same currency. An empty summary
// yields the other unchanged; differing currencies keep a.
func MergeSales(a, b SalesData) SalesData {
	if b.TotalOrders == 0 {
		return a
	}
	if a.TotalOrders == 0 {
		return b
	}
	if !strings.EqualFold(a.Currency, b.Currency) {
		return a
	}

	byDay := map[string]SalesPoint{}
	for _, p := range slices.Concat(a.Trend, b.Trend) {
		cur := byDay[p.Date]
		cur.Date = p.Date
		cur.Revenue = roundCents(cur.Revenue + p.Revenue)
		cur.Orders += p.Orders
		byDay[p.Date] = cur
	}
	trend := lo.Values(byDay)
	slices.SortFunc(trend, func(x, y SalesPoint) int { return strings.Compare(x.Date, y.Date) })

	out := SalesData{
		TotalRevenue: roundCents(a.TotalRevenue + b.TotalRevenue),
		TotalOrders:  a.TotalOrders + b.TotalOrders,
		Currency:     a.Currency,
		Trend:        trend,
	}
	out.AverageOrderValue = roundCents(out.TotalRevenue / float64(out.TotalOrders))
	return out
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
