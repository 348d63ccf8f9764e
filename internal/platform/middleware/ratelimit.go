package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	dErrors "stow/pkg/domain-errors"
	"stow/pkg/platform/httputil"
	"stow/pkg/requestcontext"
)

// RateLimit counts requests per caller in fixed windows and rejects the
// overflow with 429. With a Redis client the window is shared across ledger
// instances; without one, or when Redis errors, an in-memory fallback window
// takes over so a Redis outage degrades accuracy rather than availability.
func RateLimit(rdb *redis.Client, limit int, window time.Duration, logger *slog.Logger) func(http.Handler) http.Handler {
	fallback := newWindowCounter(window)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := limiterKey(r)

			count, ok := redisCount(r, rdb, key, window, logger)
			if !ok {
				count = fallback.incr(key)
			}
			if count > int64(limit) {
				w.Header().Set("Retry-After", window.String())
				httputil.WriteError(w, dErrors.New(dErrors.CodeRateLimited, "too many requests"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// limiterKey buckets by authenticated caller when present, client IP otherwise.
func limiterKey(r *http.Request) string {
	if caller := requestcontext.Caller(r.Context()); !caller.IsZero() {
		return "stow:ratelimit:" + caller.String()
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "stow:ratelimit:" + host
}

func redisCount(r *http.Request, rdb *redis.Client, key string, window time.Duration, logger *slog.Logger) (int64, bool) {
	if rdb == nil {
		return 0, false
	}
	ctx := r.Context()
	count, err := rdb.Incr(ctx, key).Result()
	if err != nil {
		logger.WarnContext(ctx, "rate limiter falling back to memory", "error", err)
		return 0, false
	}
	if count == 1 {
		if err := rdb.Expire(ctx, key, window).Err(); err != nil {
			logger.WarnContext(ctx, "rate limiter expire failed", "error", err)
		}
	}
	return count, true
}

// windowCounter is the in-memory fallback: per-key counters reset when their
// window lapses.
type windowCounter struct {
	mu      sync.Mutex
	window  time.Duration
	counts  map[string]int64
	resetAt time.Time
}

func newWindowCounter(window time.Duration) *windowCounter {
	return &windowCounter{
		window:  window,
		counts:  make(map[string]int64),
		resetAt: time.Now().Add(window),
	}
}

func (c *windowCounter) incr(key string) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	if now := time.Now(); now.After(c.resetAt) {
		c.counts = make(map[string]int64)
		c.resetAt = now.Add(c.window)
	}
	c.counts[key]++
	return c.counts[key]
}
