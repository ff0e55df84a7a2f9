// internal/middleware/ratelimit.go
//
// Per-client rate limiting.
//
// Context
// -------
// RATE_LIMIT_DEFAULT ("100/minute") becomes one token bucket per client IP:
// the bucket holds Count tokens and refills at Count/Period.  Buckets live
// in an expirable LRU, so idle clients are forgotten after one period and
// memory stays bounded no matter how many addresses we see.
//
// Rejections are 429 with a JSON body and Retry-After.
//
// Notes
// -----
// • Limits are per process.  RATE_LIMIT_STORAGE_URL is not consulted.
// • Buckets are keyed on the TCP peer (requestinfo.ClientKey).
// • Exempt paths (health probes, scrapes) never spend tokens.
// • Oxford commas, two spaces after periods.

package middleware

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/yanizio/research-gateway/internal/config"
	"github.com/yanizio/research-gateway/internal/requestinfo"
)

// maxClients bounds the number of tracked buckets.
const maxClients = 10000

// RateLimiter hands out one token bucket per client key.
type RateLimiter struct {
	rate    config.Rate
	buckets *expirable.LRU[string, *rate.Limiter]
	keyFn   func(*http.Request) string
	exempt  map[string]bool
}

// NewRateLimiter returns a limiter for r.
func NewRateLimiter(r config.Rate) *RateLimiter {
	ttl := r.Period
	if ttl < time.Minute {
		ttl = time.Minute
	}
	return &RateLimiter{
		rate:    r,
		buckets: expirable.NewLRU[string, *rate.Limiter](maxClients, nil, ttl),
		keyFn:   requestinfo.ClientKey,
		exempt:  make(map[string]bool),
	}
}

// Exempt excludes exact paths from limiting and returns l.
func (l *RateLimiter) Exempt(paths ...string) *RateLimiter {
	for _, p := range paths {
		l.exempt[p] = true
	}
	return l
}

// Allow spends one token from key's bucket.
func (l *RateLimiter) Allow(key string) bool {
	return l.bucket(key).Allow()
}

func (l *RateLimiter) bucket(key string) *rate.Limiter {
	if b, ok := l.buckets.Get(key); ok {
		return b
	}
	b := rate.NewLimiter(rate.Limit(l.rate.PerSecond()), l.rate.Count)
	// Two racing first requests may each create a bucket; the later Add
	// wins and at most one extra token is granted.
	l.buckets.Add(key, b)
	return b
}

// Handler wraps next.
func (l *RateLimiter) Handler(next http.Handler) http.Handler {
	retryAfter := strconv.Itoa(int(math.Ceil(float64(l.rate.Period) / float64(time.Second) / float64(l.rate.Count))))
	detail := fmt.Sprintf("Rate limit exceeded: %d per %s", l.rate.Count, l.rate.Period)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if l.exempt[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}
		key := l.keyFn(r)
		if l.Allow(key) {
			next.ServeHTTP(w, r)
			return
		}

		zap.S().Infow("rate limit exceeded", "client", key, "path", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Retry-After", retryAfter)
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": detail})
	})
}
