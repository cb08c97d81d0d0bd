package adapter

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v81"
	stripeclient "github.com/stripe/stripe-go/v81/client"
)

const (
	DefaultStripeEndpoint = "https://api.stripe.com"

	maxCharges     = 1000
	chargePageSize = 100
	maxCustomers   = 100
)

type Stripe struct {
	client
}

func NewStripe(httpClient *http.Client, baseURL string) *Stripe {
	return &Stripe{client: newClient(ProviderStripe, httpClient, baseURL)}
}

func (s *Stripe) api(token string) *stripeclient.API {
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(s.baseURL),
		HTTPClient:        s.httpClient,
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
		MaxNetworkRetries: stripe.Int64(0),
	})
	return stripeclient.New(token, &stripe.Backends{
		API:     backend,
		Connect: backend,
		Uploads: backend,
	})
}

// Sales aggregates succeeded charges created at or after since, net of
// refunds. At most maxCharges charges are read.
func (s *Stripe) Sales(ctx context.Context, token string, since time.Time) (*SalesData, error) {
	params := &stripe.ChargeListParams{
		CreatedRange: &stripe.RangeQueryParams{GreaterThanOrEqual: since.Unix()},
	}
	params.Limit = stripe.Int64(chargePageSize)
	params.Context = ctx

	// List fetches the first page; Next fetches each later one once the
	// current page is used up.
	key := tokenKey(token)
	if err := s.wait(ctx, key); err != nil {
		return nil, err
	}

	var sales []sale
	iter := s.api(token).Charges.List(params)
	for scanned := 0; scanned < maxCharges; scanned++ {
		if scanned > 0 && scanned%chargePageSize == 0 && iter.Meta().HasMore {
			if err := s.wait(ctx, key); err != nil {
				return nil, err
			}
		}
		if !iter.Next() {
			break
		}
		ch := iter.Charge()
		if ch.Status != stripe.ChargeStatusSucceeded {
			continue
		}
		netAmount := ch.Amount - ch.AmountRefunded
		if netAmount <= 0 {
			continue
		}
		sales = append(sales, sale{
			at:       time.Unix(ch.Created, 0),
			amount:   float64(netAmount) / 100,
			currency: string(ch.Currency),
		})
	}
	if err := iter.Err(); err != nil {
		return nil, classify(s.provider, "list charges", err)
	}

	data := summarizeSales(sales)
	return &data, nil
}

// Customers lists the account's most recent customers, one page only.
func (s *Stripe) Customers(ctx context.Context, token string, limit int) ([]Customer, error) {
	limit = clamp(limit, 50, maxCustomers)
	params := &stripe.CustomerListParams{}
	params.Limit = stripe.Int64(int64(limit))
	params.Single = true
	params.Context = ctx

	if err := s.wait(ctx, tokenKey(token)); err != nil {
		return nil, err
	}

	out := make([]Customer, 0, limit)
	iter := s.api(token).Customers.List(params)
	for iter.Next() {
		c := iter.Customer()
		out = append(out, Customer{
			ID:         c.ID,
			Name:       c.Name,
			Email:      c.Email,
			Currency:   strings.ToUpper(string(c.Currency)),
			Delinquent: c.Delinquent,
			CreatedAt:  time.Unix(c.Created, 0).UTC(),
		})
	}
	if err := iter.Err(); err != nil {
		return nil, classify(s.provider, "list customers", err)
	}
	return out, nil
}
