package integration

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"bizdash/pkg/idgen"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore is a Store for tests and local runs without Postgres.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*Record
	ids     idgen.Generator
	now     func() time.Time
}

func NewMemoryStore(ids idgen.Generator) *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*Record),
		ids:     ids,
		now:     time.Now,
	}
}

func memoryKey(userID, provider string) string {
	return userID + "\x00" + provider
}

func (s *MemoryStore) Upsert(_ context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	key := memoryKey(rec.UserID, rec.Provider)
	existing, ok := s.records[key]
	if !ok {
		stored := cloneRecord(rec)
		stored.ID = s.ids.GenerateID()
		stored.CreatedAt = now
		stored.UpdatedAt = now
		s.records[key] = stored
		rec.ID, rec.CreatedAt, rec.UpdatedAt = stored.ID, now, now
		return nil
	}

	refresh := existing.RefreshToken
	if rec.RefreshToken != "" || rec.AppType == AppTypeAPIKey {
		refresh = rec.RefreshToken
	}
	stored := cloneRecord(rec)
	stored.ID = existing.ID
	stored.CreatedAt = existing.CreatedAt
	stored.UpdatedAt = now
	stored.RefreshToken = refresh
	s.records[key] = stored
	rec.ID, rec.CreatedAt, rec.UpdatedAt, rec.RefreshToken = stored.ID, stored.CreatedAt, now, refresh
	return nil
}

func (s *MemoryStore) Get(_ context.Context, userID, provider string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[memoryKey(userID, provider)]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneRecord(rec), nil
}

func (s *MemoryStore) ListByUser(_ context.Context, userID string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Record, 0)
	for _, rec := range s.records {
		if rec.UserID == userID {
			out = append(out, *cloneRecord(rec))
		}
	}
	slices.SortFunc(out, func(a, b Record) int { return strings.Compare(a.Provider, b.Provider) })
	return out, nil
}

func (s *MemoryStore) UpdateTokens(_ context.Context, userID, provider string, update TokenUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[memoryKey(userID, provider)]
	if !ok || !rec.IsConnected {
		return ErrNotFound
	}
	rec.AccessToken = update.AccessToken
	if update.RefreshToken != "" {
		rec.RefreshToken = update.RefreshToken
	}
	rec.ExpiresAt = cloneTime(update.ExpiresAt)
	rec.UpdatedAt = s.now()
	return nil
}

func (s *MemoryStore) MarkDisconnected(_ context.Context, userID, provider string, clearAccessToken bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[memoryKey(userID, provider)]
	if !ok {
		return ErrNotFound
	}
	rec.IsConnected = false
	if clearAccessToken {
		rec.AccessToken = ""
	}
	rec.UpdatedAt = s.now()
	return nil
}

func cloneRecord(rec *Record) *Record {
	c := *rec
	c.ExpiresAt = cloneTime(rec.ExpiresAt)
	c.Config.ServiceData = slices.Clone(rec.Config.ServiceData)
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
