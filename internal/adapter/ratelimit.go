package adapter

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type RateLimit struct {
	RequestsPerSecond float64
	Burst             int
}

// DefaultRateLimits stay well below each provider's published quota.
var DefaultRateLimits = map[string]RateLimit{
	ProviderGmail:     {RequestsPerSecond: 5, Burst: 25},
	ProviderAnalytics: {RequestsPerSecond: 1, Burst: 5},
	ProviderCalendar:  {RequestsPerSecond: 5, Burst: 10},
	ProviderGitHub:    {RequestsPerSecond: 1.2, Burst: 5},
	ProviderSlack:     {RequestsPerSecond: 0.8, Burst: 5},
	ProviderStripe:    {RequestsPerSecond: 20, Burst: 25},
	ProviderShopify:   {RequestsPerSecond: 2, Burst: 40},
}

// RateLimiter is a token bucket plus an optional backoff window set when a
// provider answers 429.
type RateLimiter struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	retryAt time.Time
}

var defaultRateLimit = RateLimit{RequestsPerSecond: 5, Burst: 10}

func NewRateLimiterWithConfig(cfg RateLimit) *RateLimiter {
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
	}
}

func (r *RateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	retryAt := r.retryAt
	r.mu.Unlock()

	if wait := time.Until(retryAt); wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	return r.limiter.Wait(ctx)
}

// Backoff blocks callers for d. Non-positive values use one minute.
func (r *RateLimiter) Backoff(d time.Duration) {
	if d <= 0 {
		d = time.Minute
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if at := time.Now().Add(d); at.After(r.retryAt) {
		r.retryAt = at
	}
}

const (
	limiterSweepSize = 1024
	limiterIdleTTL   = time.Hour
)

type limiterEntry struct {
	limiter  *RateLimiter
	lastUsed time.Time
}

// limiterSet holds one RateLimiter per quota holder, so a throttled tenant
// never delays another. Entries idle for limiterIdleTTL are dropped once the
// set grows past limiterSweepSize.
type limiterSet struct {
	cfg RateLimit
	now func() time.Time

	mu      sync.Mutex
	entries map[string]*limiterEntry
}

func newLimiterSet(provider string) *limiterSet {
	cfg, ok := DefaultRateLimits[provider]
	if !ok {
		cfg = defaultRateLimit
	}
	return newLimiterSetWithConfig(cfg)
}

func newLimiterSetWithConfig(cfg RateLimit) *limiterSet {
	return &limiterSet{cfg: cfg, now: time.Now, entries: make(map[string]*limiterEntry)}
}

func (s *limiterSet) get(key string) *RateLimiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if e, ok := s.entries[key]; ok {
		e.lastUsed = now
		return e.limiter
	}
	if len(s.entries) >= limiterSweepSize {
		for k, e := range s.entries {
			if now.Sub(e.lastUsed) > limiterIdleTTL && e.limiter.idle(now) {
				delete(s.entries, k)
			}
		}
	}
	e := &limiterEntry{limiter: NewRateLimiterWithConfig(s.cfg), lastUsed: now}
	s.entries[key] = e
	return e.limiter
}

func (s *limiterSet) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// idle reports whether no backoff window is pending at now.
func (r *RateLimiter) idle(now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.retryAt.After(now)
}

// tokenKey identifies the quota holder behind an access token without
// keeping the token itself in memory.
func tokenKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "token:" + hex.EncodeToString(sum[:16])
}

func shopKey(shop string) string {
	return "shop:" + shop
}
