package adapter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"bizdash/pkg/oauth2"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripe_Sales(t *testing.T) {
	since := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	day1 := since.Add(10 * time.Hour).Unix()
	day2 := since.Add(34 * time.Hour).Unix()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/charges", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk_connected", r.Header.Get("Authorization"))
		assert.Equal(t, strconv.FormatInt(since.Unix(), 10), r.URL.Query().Get("created[gte]"))
		writeJSON(w, http.StatusOK, `{
			"object": "list",
			"url": "/v1/charges",
			"has_more": false,
			"data": [
				{"id":"ch_1","object":"charge","amount":5000,"amount_refunded":0,"currency":"usd","created":`+strconv.FormatInt(day1, 10)+`,"status":"succeeded"},
				{"id":"ch_2","object":"charge","amount":2500,"amount_refunded":500,"currency":"usd","created":`+strconv.FormatInt(day2, 10)+`,"status":"succeeded"},
				{"id":"ch_3","object":"charge","amount":9900,"amount_refunded":0,"currency":"usd","created":`+strconv.FormatInt(day2, 10)+`,"status":"failed"},
				{"id":"ch_4","object":"charge","amount":1000,"amount_refunded":1000,"currency":"usd","created":`+strconv.FormatInt(day2, 10)+`,"status":"succeeded"}
			]
		}`)
	})
	srv := newProviderServer(t, mux)
	s := NewStripe(srv.Client(), srv.URL)

	got, err := s.Sales(context.Background(), "sk_connected", since)
	require.NoError(t, err)

	assert.Equal(t, "USD", got.Currency)
	assert.Equal(t, 2, got.TotalOrders)
	assert.InDelta(t, 70.0, got.TotalRevenue, 1e-9)
	assert.InDelta(t, 35.0, got.AverageOrderValue, 1e-9)
	assert.Equal(t, []SalesPoint{
		{Date: "2024-05-01", Revenue: 50, Orders: 1},
		{Date: "2024-05-02", Revenue: 20, Orders: 1},
	}, got.Trend)
}

func TestStripe_InvalidKeyIsAuthExpired(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, `{"error":{"type":"invalid_request_error","message":"Invalid API Key provided"}}`)
	})
	srv := newProviderServer(t, mux)
	s := NewStripe(srv.Client(), srv.URL)

	_, err := s.Sales(context.Background(), "sk_revoked", time.Now().Add(-time.Hour))
	assert.ErrorIs(t, err, oauth2.ErrAuthExpired)
}

func TestStripe_ServerErrorIsProviderAPI(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, `{"error":{"type":"api_error","message":"boom"}}`)
	})
	srv := newProviderServer(t, mux)
	s := NewStripe(srv.Client(), srv.URL)

	_, err := s.Sales(context.Background(), "sk", time.Now().Add(-time.Hour))
	assert.ErrorIs(t, err, oauth2.ErrProviderAPI)
}

func chargePage(from, n int, hasMore bool, created int64) string {
	items := make([]string, 0, n)
	for i := from; i < from+n; i++ {
		items = append(items, `{"id":"ch_`+strconv.Itoa(i)+`","object":"charge","amount":100,"amount_refunded":0,"currency":"usd","created":`+strconv.FormatInt(created, 10)+`,"status":"succeeded"}`)
	}
	return `{"object":"list","url":"/v1/charges","has_more":` + strconv.FormatBool(hasMore) + `,"data":[` + strings.Join(items, ",") + `]}`
}

func TestStripe_SalesWaitsBeforeEveryPage(t *testing.T) {
	since := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	created := since.Add(time.Hour).Unix()

	newServer := func(pages *atomic.Int32) *httptest.Server {
		mux := http.NewServeMux()
		mux.HandleFunc("GET /v1/charges", func(w http.ResponseWriter, r *http.Request) {
			pages.Add(1)
			switch r.URL.Query().Get("starting_after") {
			case "":
				writeJSON(w, http.StatusOK, chargePage(0, chargePageSize, true, created))
			case "ch_99":
				writeJSON(w, http.StatusOK, chargePage(100, chargePageSize, true, created))
			default:
				writeJSON(w, http.StatusOK, chargePage(200, 1, false, created))
			}
		})
		return newProviderServer(t, mux)
	}

	t.Run("budget for every page", func(t *testing.T) {
		var pages atomic.Int32
		srv := newServer(&pages)
		s := NewStripe(srv.Client(), srv.URL)
		s.limiters = newLimiterSetWithConfig(RateLimit{RequestsPerSecond: 0.001, Burst: 3})

		got, err := s.Sales(context.Background(), "sk", since)
		require.NoError(t, err)
		assert.Equal(t, 201, got.TotalOrders)
		assert.Equal(t, int32(3), pages.Load())
	})

	t.Run("budget runs out mid listing", func(t *testing.T) {
		var pages atomic.Int32
		srv := newServer(&pages)
		s := NewStripe(srv.Client(), srv.URL)
		s.limiters = newLimiterSetWithConfig(RateLimit{RequestsPerSecond: 0.001, Burst: 2})

		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()
		_, err := s.Sales(ctx, "sk", since)
		assert.ErrorIs(t, err, oauth2.ErrProviderAPI)
		assert.Equal(t, int32(2), pages.Load())
	})
}

func TestStripe_Customers(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/customers", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk_connected", r.Header.Get("Authorization"))
		assert.Equal(t, "25", r.URL.Query().Get("limit"))
		writeJSON(w, http.StatusOK, `{
			"object": "list",
			"url": "/v1/customers",
			"has_more": true,
			"data": [
				{"id":"cus_1","object":"customer","name":"Ada","email":"ada@example.com","currency":"eur","delinquent":false,"created":1714557600},
				{"id":"cus_2","object":"customer","name":"Bob","email":"bob@example.com","delinquent":true,"created":1714644000}
			]
		}`)
	})
	srv := newProviderServer(t, mux)
	s := NewStripe(srv.Client(), srv.URL)

	got, err := s.Customers(context.Background(), "sk_connected", 25)
	require.NoError(t, err)

	assert.Equal(t, []Customer{
		{ID: "cus_1", Name: "Ada", Email: "ada@example.com", Currency: "EUR", CreatedAt: time.Unix(1714557600, 0).UTC()},
		{ID: "cus_2", Name: "Bob", Email: "bob@example.com", Delinquent: true, CreatedAt: time.Unix(1714644000, 0).UTC()},
	}, got)
}
