package integration

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("integration: not found")

// Store persists integration records. Implementations keep at most one
// record per (user, provider).
type Store interface {
	Upsert(ctx context.Context, rec *Record) error
	Get(ctx context.Context, userID, provider string) (*Record, error)
	ListByUser(ctx context.Context, userID string) ([]Record, error)
	// UpdateTokens only touches connected records and returns ErrNotFound
	// otherwise.
	UpdateTokens(ctx context.Context, userID, provider string, update TokenUpdate) error
	MarkDisconnected(ctx context.Context, userID, provider string, clearAccessToken bool) error
}
