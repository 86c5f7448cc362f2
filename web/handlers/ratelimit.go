package handlers

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/ascendlabs/ascendancy/internal/auth"
)

// RateLimiter is a per-client token bucket. State is in memory; a
// restart resets everyone, which is acceptable for this surface.
type RateLimiter struct {
	mu       sync.Mutex
	buckets  map[string]*tokenBucket
	requests int
	window   time.Duration
}

type tokenBucket struct {
	tokens     int
	lastRefill time.Time
}

// NewRateLimiter allows `requests` per client per `window`. Signed-in
// users share one bucket across connections; everyone else is keyed
// by address.
func NewRateLimiter(requests int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		buckets:  make(map[string]*tokenBucket),
		requests: requests,
		window:   window,
	}
	go rl.cleanup()
	return rl
}

func (rl *RateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(clientKey(r)) {
			w.Header().Set("Retry-After", "60")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":{"message":"too many requests, slow down"}}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientKey identifies the caller: the session user id when signed
// in, otherwise the remote host. RemoteAddr carries an ephemeral port
// on direct connections, so the port is stripped to keep one bucket
// per host rather than one per connection.
func clientKey(r *http.Request) string {
	if session := auth.FromContext(r.Context()); session != nil && !session.Guest && session.UserID != "" {
		return "user:" + session.UserID
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func (rl *RateLimiter) allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	bucket, ok := rl.buckets[key]
	if !ok {
		bucket = &tokenBucket{tokens: rl.requests, lastRefill: now}
		rl.buckets[key] = bucket
	}

	if now.Sub(bucket.lastRefill) >= rl.window {
		bucket.tokens = rl.requests
		bucket.lastRefill = now
	}

	if bucket.tokens <= 0 {
		return false
	}
	bucket.tokens--
	return true
}

// cleanup drops buckets idle for several windows so the map does not
// grow unbounded.
func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		cutoff := time.Now().Add(-3 * rl.window)
		rl.mu.Lock()
		for key, bucket := range rl.buckets {
			if bucket.lastRefill.Before(cutoff) {
				delete(rl.buckets, key)
			}
		}
		rl.mu.Unlock()
	}
}
