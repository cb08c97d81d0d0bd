package oauth2

import (
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "bizdash/pkg/oauth2"

// Manager runs the provider side of the flow: building consent URLs,
// exchanging codes and refreshing tokens.
type Manager struct {
	registry    *Registry
	redirectURI string
	httpClient  *http.Client
	tracer      trace.Tracer
	now         func() time.Time
}

func NewManager(registry *Registry, redirectURI string, httpClient *http.Client) *Manager {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Manager{
		registry:    registry,
		redirectURI: redirectURI,
		httpClient:  httpClient,
		tracer:      otel.Tracer(tracerName),
		now:         time.Now,
	}
}

func (m *Manager) Registry() *Registry {
	return m.registry
}

func (m *Manager) RedirectURI() string {
	return m.redirectURI
}
