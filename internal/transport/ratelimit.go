// Copyright 2025 Seth Burkart
//
// Token bucket limiter for the HTTP transport

package transport

import (
	"net/http"
	"sync"
	"time"
)

// RateLimiter is a token bucket. Tokens refill continuously at the configured
// rate and the bucket holds up to twice the rate as burst capacity. A nil
// limiter allows everything.
type RateLimiter struct {
	clock    func() time.Time // injectable for tests
	refilled time.Time
	rate     float64
	burst    float64
	tokens   float64
	mu       sync.Mutex
}

// NewRateLimiter creates a limiter allowing requestsPerSecond sustained.
// A rate of zero or less returns nil, which disables limiting.
func NewRateLimiter(requestsPerSecond float64) *RateLimiter {
	return NewRateLimiterWithClock(requestsPerSecond, time.Now)
}

// NewRateLimiterWithClock is NewRateLimiter with a caller-supplied clock.
func NewRateLimiterWithClock(requestsPerSecond float64, clock func() time.Time) *RateLimiter {
	if requestsPerSecond <= 0 {
		return nil
	}
	burst := requestsPerSecond * 2
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		rate:     requestsPerSecond,
		burst:    burst,
		tokens:   burst,
		refilled: clock(),
		clock:    clock,
	}
}

// Allow consumes one token if available. Safe for concurrent use.
func (r *RateLimiter) Allow() bool {
	if r == nil {
		return true
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock()
	r.tokens += now.Sub(r.refilled).Seconds() * r.rate
	if r.tokens > r.burst {
		r.tokens = r.burst
	}
	r.refilled = now

	if r.tokens < 1 {
		return false
	}
	r.tokens--
	return true
}

// Tokens reports the current bucket level, or -1 when disabled.
func (r *RateLimiter) Tokens() float64 {
	if r == nil {
		return -1
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tokens
}

// RateLimitMiddleware rejects requests with 429 once the bucket empties.
// /health and /metrics stay exempt so probes and scrapes keep working while
// the server sheds load.
func RateLimitMiddleware(limiter *RateLimiter, next http.Handler) http.Handler {
	if limiter == nil {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" || r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		if !limiter.Allow() {
			w.Header().Set("Retry-After", "1")
			http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}
