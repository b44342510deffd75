package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"marquee/internal/metrics"
)

// idleLimiterTTL is how long a client's limiter survives without requests.
const idleLimiterTTL = 10 * time.Minute

type ipLimiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter keeps a token bucket per client IP.
type IPRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*ipLimiterEntry
	rate     rate.Limit
	burst    int
	stop     chan struct{}
	stopOnce sync.Once
}

// NewIPRateLimiter allows r events per second per IP with the given burst.
// For "600 per minute" pass rate.Every(100*time.Millisecond).
func NewIPRateLimiter(r rate.Limit, burst int) *IPRateLimiter {
	rl := &IPRateLimiter{
		limiters: make(map[string]*ipLimiterEntry),
		rate:     r,
		burst:    burst,
		stop:     make(chan struct{}),
	}
	go rl.cleanup()
	return rl
}

// PerMinute converts a requests-per-minute setting into a rate.Limit.
func PerMinute(n int) rate.Limit {
	if n <= 0 {
		return rate.Inf
	}
	return rate.Every(time.Minute / time.Duration(n))
}

// Stop ends the eviction loop.
func (rl *IPRateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

// Allow reports whether ip may make another request now.
func (rl *IPRateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	entry, exists := rl.limiters[ip]
	if !exists {
		entry = &ipLimiterEntry{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.limiters[ip] = entry
	}
	entry.lastSeen = time.Now()
	rl.mu.Unlock()
	return entry.limiter.Allow()
}

func (rl *IPRateLimiter) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.evictIdle(time.Now())
		}
	}
}

func (rl *IPRateLimiter) evictIdle(now time.Time) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	evicted := 0
	for ip, entry := range rl.limiters {
		if now.Sub(entry.lastSeen) > idleLimiterTTL {
			delete(rl.limiters, ip)
			evicted++
		}
	}
	return evicted
}

// ClientIP returns the caller's address, preferring proxy headers.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	addr := r.RemoteAddr
	if idx := strings.LastIndex(addr, ":"); idx != -1 {
		return addr[:idx]
	}
	return addr
}

// Middleware rejects requests over the per-IP limit with 429.
func (rl *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(ClientIP(r)) {
			metrics.RateLimited.Inc()
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "60")
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(map[string]string{"error": "too many requests"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
