package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"algoryth/internal/common"
	"algoryth/internal/platform/logger"
	"algoryth/internal/platform/queue"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// IPRateLimiter keeps one token bucket per client IP.
type IPRateLimiter struct {
	ips   map[string]*rateLimiterEntry
	mu    sync.Mutex
	r     rate.Limit
	burst int
}

type rateLimiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewIPRateLimiter allows perMinute requests per IP with the given burst.
func NewIPRateLimiter(perMinute, burst int) *IPRateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &IPRateLimiter{
		ips:   make(map[string]*rateLimiterEntry),
		r:     rate.Limit(float64(perMinute) / 60.0),
		burst: burst,
	}
}

// GetLimiter returns the limiter for ip, creating it on first use.
func (rl *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	entry, exists := rl.ips[ip]
	if !exists {
		entry = &rateLimiterEntry{limiter: rate.NewLimiter(rl.r, rl.burst)}
		rl.ips[ip] = entry
	}
	entry.lastSeen = time.Now()
	return entry.limiter
}

// Cleanup drops limiters idle for longer than maxIdle.
func (rl *IPRateLimiter) Cleanup(maxIdle time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for ip, entry := range rl.ips {
		if time.Since(entry.lastSeen) > maxIdle {
			delete(rl.ips, ip)
		}
	}
}

// Len reports how many IPs are tracked.
func (rl *IPRateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.ips)
}

// RateLimit rejects requests over the per-IP budget with 429.
func RateLimit(limiter *IPRateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			if !limiter.GetLimiter(ip).Allow() {
				logger.Warn().Str("ip", ip).Str("path", r.URL.Path).Msg("Rate limit exceeded")
				tooManyRequests(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RedisRateLimit applies a fixed window shared by every API process.
// Redis failures let the request through.
func RedisRateLimit(rdb *redis.Client, scope string, limit int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := "ratelimit:" + scope + ":" + clientIP(r)
			allowed, err := queue.CheckRateLimit(r.Context(), rdb, key, limit, window)
			if err != nil {
				logger.Warn().Err(err).Str("key", key).Msg("Rate limit check failed")
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				logger.Warn().Str("key", key).Str("path", r.URL.Path).Msg("Rate limit exceeded")
				tooManyRequests(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Chain stacks mws so the first one runs first.
func Chain(mws ...func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return chi.Chain(mws...).Handler(next)
	}
}

func tooManyRequests(w http.ResponseWriter) {
	common.RespondWithJSON(w, http.StatusTooManyRequests, common.ErrorResponse{
		Error: "Too many requests. Please slow down.",
		Code:  common.CodeRateLimited,
	})
}

// clientIP relies on chi's RealIP having rewritten RemoteAddr.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
