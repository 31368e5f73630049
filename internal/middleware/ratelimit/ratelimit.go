// Package ratelimit limits requests per client IP with a fixed one-minute
// window.
package ratelimit

import (
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"intake/internal/cache"
)

// Limiter provides rate limiting functionality
type Limiter struct {
	mu      sync.Mutex
	clients *cache.LRUCache[*window]
	now     func() time.Time
	hits    int64

	requestsPerMinute int
}

type window struct {
	start    time.Time
	requests int
}

// Config holds rate limiter configuration
type Config struct {
	RequestsPerMinute int
	// MaxClients bounds the number of tracked IPs; the least recently seen is dropped.
	MaxClients int
	// IdleTTL is how long an IP is remembered after its last request.
	IdleTTL time.Duration
	// Now replaces time.Now, for tests.
	Now func() time.Time
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		RequestsPerMinute: 60,
		MaxClients:        10000,
		IdleTTL:           10 * time.Minute,
	}
}

// NewLimiter creates a new rate limiter. Stale clients are dropped by
// registering Cleaner() with a cache.Manager.
func NewLimiter(config Config) *Limiter {
	def := DefaultConfig()
	if config.RequestsPerMinute <= 0 {
		config.RequestsPerMinute = def.RequestsPerMinute
	}
	if config.MaxClients <= 0 {
		config.MaxClients = def.MaxClients
	}
	if config.IdleTTL <= 0 {
		config.IdleTTL = def.IdleTTL
	}
	if config.Now == nil {
		config.Now = time.Now
	}

	return &Limiter{
		clients:           cache.NewLRUCache[*window](config.MaxClients, config.IdleTTL, cache.WithClock(config.Now)),
		now:               config.Now,
		requestsPerMinute: config.RequestsPerMinute,
	}
}

// Allow checks if a request from the given IP should be allowed
func (rl *Limiter) Allow(clientIP string) bool {
	now := rl.now()
	w, _ := rl.clients.GetOrCreate(clientIP, func() *window {
		return &window{start: now}
	})

	rl.mu.Lock()
	defer rl.mu.Unlock()

	// Reset counter if more than 1 minute has passed
	if now.Sub(w.start) >= time.Minute {
		w.start = now
		w.requests = 0
	}

	w.requests++
	if w.requests > rl.requestsPerMinute {
		atomic.AddInt64(&rl.hits, 1)
		return false
	}
	return true
}

// Cleaner exposes the client table to a cache.Manager.
func (rl *Limiter) Cleaner() cache.Cleaner {
	return rl.clients
}

// ActiveClients returns the number of currently tracked clients
func (rl *Limiter) ActiveClients() int {
	return rl.clients.Size()
}

// Metrics for monitoring rate limit performance
type Metrics struct {
	TotalHits   int64
	ClientCount int64
}

// GetMetrics returns current rate limiting metrics
func (rl *Limiter) GetMetrics() Metrics {
	return Metrics{
		TotalHits:   atomic.LoadInt64(&rl.hits),
		ClientCount: int64(rl.clients.Size()),
	}
}

// Middleware creates HTTP middleware for rate limiting. Only requests for
// which limited returns true are counted; pass nil to count every request.
func (rl *Limiter) Middleware(extractIP func(*http.Request) string, limited func(*http.Request) bool, onLimit func(http.ResponseWriter, *http.Request)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limited != nil && !limited(r) {
				next.ServeHTTP(w, r)
				return
			}

			if !rl.Allow(extractIP(r)) {
				if onLimit != nil {
					onLimit(w, r)
				} else {
					w.Header().Set("Retry-After", "60")
					http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
				}
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
