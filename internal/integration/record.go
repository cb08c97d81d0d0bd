package integration

import (
	"encoding/json"
	"time"
)

// Record is one user's connection to one provider. Tokens never leave the
// server; they are excluded from JSON.
type Record struct {
	ID           int64      `json:"id"`
	UserID       string     `json:"userId"`
	Provider     string     `json:"provider"`
	AppType      string     `json:"appType"`
	AccessToken  string     `json:"-"`
	RefreshToken string     `json:"-"`
	ExpiresAt    *time.Time `json:"expiresAt,omitempty"`
	IsConnected  bool       `json:"isConnected"`
	Config       Config     `json:"config"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

type Config struct {
	Scope       string          `json:"scope,omitempty"`
	Shop        string          `json:"shop,omitempty"`
	ServiceData json.RawMessage `json:"serviceData,omitempty"`
}

// Expired reports whether the access token must be refreshed before use.
// Tokens without an expiry never expire.
func (r *Record) Expired(now time.Time) bool {
	return r.ExpiresAt != nil && !now.Before(*r.ExpiresAt)
}

// TokenUpdate carries the result of a refresh. An empty RefreshToken keeps
// the stored one.
type TokenUpdate struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    *time.Time
}

// FlowStatus is the last known outcome of an OAuth popup for a user and
// provider, polled by the UI as an alternative to postMessage.
type FlowStatus struct {
	Status    string    `json:"status"`
	Service   string    `json:"service"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitzero"`
}

const (
	FlowIdle    = "idle"
	FlowPending = "pending"
	FlowSuccess = "success"
	FlowError   = "error"
)
