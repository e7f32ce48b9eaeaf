package middleware

import (
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RateLimit defines limits for an endpoint pattern.
type RateLimit struct {
	Requests int
	Window   time.Duration
}

// RateLimiter implements fixed-window rate limiting per client IP, backed by
// Redis. With no Redis client it passes everything through: the relay must
// keep working when the history store is down.
type RateLimiter struct {
	client *redis.Client
	logger zerolog.Logger
	limits map[string]RateLimit
}

// NewRateLimiter creates a new rate limiter.
func NewRateLimiter(client *redis.Client, logger zerolog.Logger) *RateLimiter {
	return &RateLimiter{
		client: client,
		logger: logger,
		limits: map[string]RateLimit{
			"POST /upload":       {30, time.Minute},
			"GET /api/socket":    {30, time.Minute},
			"GET /conversation/": {120, time.Minute},
			"GET /user/":         {120, time.Minute},
		},
	}
}

// Middleware enforces the configured limits.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.client == nil {
			next.ServeHTTP(w, r)
			return
		}

		limit, pattern, ok := rl.match(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		ip := clientIP(r)
		key := fmt.Sprintf("ratelimit:%s:%s:%d", pattern, ip, time.Now().Unix()/int64(limit.Window.Seconds()))

		pipe := rl.client.Pipeline()
		count := pipe.Incr(r.Context(), key)
		pipe.Expire(r.Context(), key, limit.Window)
		if _, err := pipe.Exec(r.Context()); err != nil {
			// Redis trouble never blocks traffic.
			rl.logger.Warn().Err(err).Msg("rate limit check failed")
			next.ServeHTTP(w, r)
			return
		}

		if count.Val() > int64(limit.Requests) {
			rl.logger.Warn().Str("ip", ip).Str("pattern", pattern).Msg("rate limit exceeded")
			w.Header().Set("Retry-After", fmt.Sprintf("%d", int(limit.Window.Seconds())))
			http.Error(w, `{"error":"rate limit exceeded"}`, http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// match finds the limit for a request, exact paths before prefixes.
func (rl *RateLimiter) match(r *http.Request) (RateLimit, string, bool) {
	exact := r.Method + " " + r.URL.Path
	if limit, ok := rl.limits[exact]; ok {
		return limit, exact, true
	}
	for pattern, limit := range rl.limits {
		if len(pattern) > 0 && pattern[len(pattern)-1] == '/' {
			if matchPrefix(r.Method, r.URL.Path, pattern) {
				return limit, pattern, true
			}
		}
	}
	return RateLimit{}, "", false
}

func matchPrefix(method, path, pattern string) bool {
	prefixed := method + " " + path
	return len(prefixed) > len(pattern) && prefixed[:len(pattern)] == pattern
}

// clientIP returns the request's client IP. The chi RealIP middleware runs
// earlier in the stack, so RemoteAddr already reflects X-Forwarded-For.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
