package adapter

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"bizdash/pkg/oauth2"

	"github.com/go-resty/resty/v2"
)

const (
	// DefaultShopifyEndpoint is expanded per shop.
	DefaultShopifyEndpoint = "https://{{shop}}.myshopify.com"

	shopifyAPIVersion = "2024-10"
	maxOrders         = 250
	maxProducts       = 250
	maxErrorBody      = 512
)

type Shopify struct {
	client
	rest *resty.Client
}

func NewShopify(httpClient *http.Client, baseURL string) *Shopify {
	// resty configures the client it wraps; keep the shared one untouched.
	hc := *httpClient
	rest := resty.NewWithClient(&hc).
		SetLogger(discardLogger{}).
		SetHeader("Accept", "application/json")
	return &Shopify{
		client: newClient(ProviderShopify, httpClient, baseURL),
		rest:   rest,
	}
}

type shopifyOrdersResponse struct {
	Orders []shopifyOrder `json:"orders"`
}

type shopifyOrder struct {
	ID              int64     `json:"id"`
	TotalPrice      string    `json:"total_price"`
	Currency        string    `json:"currency"`
	CreatedAt       time.Time `json:"created_at"`
	FinancialStatus string    `json:"financial_status"`
	CancelledAt     *string   `json:"cancelled_at"`
}

type shopifyProductsResponse struct {
	Products []shopifyProduct `json:"products"`
}

type shopifyProduct struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Vendor      string    `json:"vendor"`
	ProductType string    `json:"product_type"`
	Status      string    `json:"status"`
	UpdatedAt   time.Time `json:"updated_at"`
	Variants    []struct {
		Price             string `json:"price"`
		InventoryQuantity int    `json:"inventory_quantity"`
	} `json:"variants"`
}

// Orders aggregates the shop's paid orders created at or after since.
func (s *Shopify) Orders(ctx context.Context, token, shop string, since time.Time, limit int) (*SalesData, error) {
	var payload shopifyOrdersResponse
	err := s.get(ctx, token, shop, "orders.json", "list orders", map[string]string{
		"status":         "any",
		"limit":          strconv.Itoa(clamp(limit, maxOrders, maxOrders)),
		"created_at_min": since.UTC().Format(time.RFC3339),
	}, &payload)
	if err != nil {
		return nil, err
	}

	sales := make([]sale, 0, len(payload.Orders))
	for _, o := range payload.Orders {
		if o.CancelledAt != nil || !countsAsSale(o.FinancialStatus) {
			continue
		}
		amount, err := strconv.ParseFloat(o.TotalPrice, 64)
		if err != nil || amount <= 0 {
			continue
		}
		sales = append(sales, sale{at: o.CreatedAt, amount: amount, currency: o.Currency})
	}

	data := summarizeSales(sales)
	return &data, nil
}

// Products lists the shop's catalogue. Price is taken from the first
// variant; inventory is summed over all variants.
func (s *Shopify) Products(ctx context.Context, token, shop string, limit int) ([]Product, error) {
	var payload shopifyProductsResponse
	err := s.get(ctx, token, shop, "products.json", "list products", map[string]string{
		"limit": strconv.Itoa(clamp(limit, 50, maxProducts)),
	}, &payload)
	if err != nil {
		return nil, err
	}

	out := make([]Product, 0, len(payload.Products))
	for _, p := range payload.Products {
		product := Product{
			ID:          p.ID,
			Title:       p.Title,
			Vendor:      p.Vendor,
			ProductType: p.ProductType,
			Status:      p.Status,
			UpdatedAt:   p.UpdatedAt,
		}
		for i, v := range p.Variants {
			if i == 0 {
				product.Price = v.Price
			}
			product.Inventory += v.InventoryQuantity
		}
		out = append(out, product)
	}
	return out, nil
}

// get calls one Admin API resource for shop. Each shop has its own call
// budget, so a 429 only pauses that shop.
func (s *Shopify) get(ctx context.Context, token, shop, resource, op string, query map[string]string, result any) error {
	name, err := oauth2.NormalizeShop(shop)
	if err != nil {
		return invalid("%v", err)
	}
	key := shopKey(name)
	endpoint := strings.ReplaceAll(s.baseURL, "{{shop}}", name) + "/admin/api/" + shopifyAPIVersion + "/" + resource

	if err := s.wait(ctx, key); err != nil {
		return err
	}
	resp, err := s.rest.R().
		SetContext(ctx).
		SetHeader("X-Shopify-Access-Token", token).
		SetQueryParams(query).
		SetResult(result).
		ForceContentType("application/json").
		Get(endpoint)
	if err != nil {
		return classify(s.provider, op, err)
	}
	if !resp.IsSuccess() {
		if resp.StatusCode() == http.StatusTooManyRequests {
			s.backoff(key, retryAfter(resp.Header().Get("Retry-After")))
		}
		return classify(s.provider, op, &statusError{Code: resp.StatusCode(), Body: truncate(resp.String(), maxErrorBody)})
	}
	return nil
}

// retryAfter reads Shopify's Retry-After, which may be fractional seconds.
func retryAfter(v string) time.Duration {
	secs, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs * float64(time.Second))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func countsAsSale(financialStatus string) bool {
	switch financialStatus {
	case "paid", "partially_paid", "partially_refunded", "authorized":
		return true
	default:
		return false
	}
}

// discardLogger silences resty; failures surface as classified errors.
type discardLogger struct{}

func (discardLogger) Errorf(string, ...any) {}
func (discardLogger) Warnf(string, ...any)  {}
func (discardLogger) Debugf(string, ...any) {}
