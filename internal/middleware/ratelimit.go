package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimitMiddleware is a per-client sliding window limiter.
type RateLimitMiddleware struct {
	requests   map[string][]time.Time
	mu         sync.Mutex
	now        func() time.Time
	lastPrune  time.Time
	trustProxy bool
}

// NewRateLimitMiddleware creates a limiter keyed on the peer address. With
// trustProxy the X-Forwarded-For and X-Real-IP headers set by a reverse proxy
// identify the client instead.
func NewRateLimitMiddleware(trustProxy bool) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		requests:   make(map[string][]time.Time),
		now:        time.Now,
		trustProxy: trustProxy,
	}
}

// RateLimit allows at most maxRequests per client within window.
func (m *RateLimitMiddleware) RateLimit(maxRequests int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !m.allow(clientIP(r, m.trustProxy), maxRequests, window) {
				w.Header().Set("Retry-After", strconv.Itoa(int(window.Seconds())))
				http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (m *RateLimitMiddleware) allow(client string, maxRequests int, window time.Duration) bool {
	now := m.now()
	cutoff := now.Add(-window)

	m.mu.Lock()
	defer m.mu.Unlock()

	if now.Sub(m.lastPrune) >= window {
		m.prune(cutoff)
		m.lastPrune = now
	}

	kept := m.requests[client][:0]
	for _, ts := range m.requests[client] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) >= maxRequests {
		m.requests[client] = kept
		return false
	}
	m.requests[client] = append(kept, now)
	return true
}

// prune drops clients whose latest request is older than cutoff.
// Callers hold m.mu.
func (m *RateLimitMiddleware) prune(cutoff time.Time) {
	for client, stamps := range m.requests {
		if len(stamps) == 0 || !stamps[len(stamps)-1].After(cutoff) {
			delete(m.requests, client)
		}
	}
}

// clientIP extracts the client IP from the request. Forwarded headers are
// only honoured when the server sits behind a trusted proxy.
func clientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
			return strings.TrimSpace(strings.Split(ip, ",")[0])
		}
		if ip := r.Header.Get("X-Real-IP"); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
