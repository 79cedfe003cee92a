package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/vortex-fintech/go-cadastro/foundation/errors"
	"github.com/vortex-fintech/go-cadastro/foundation/logger"
)

type RateLimitResult struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetIn   time.Duration
}

type Limiter interface {
	Allow(ctx context.Context, key string) (RateLimitResult, error)
}

// fixedWindow counts hits in KEYS[1]; the first hit of a window sets its
// expiry. It returns the count and the window's remaining milliseconds.
var fixedWindow = redis.NewScript(`
local n = redis.call('INCR', KEYS[1])
if n == 1 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
local ttl = redis.call('PTTL', KEYS[1])
if ttl < 0 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
	ttl = tonumber(ARGV[1])
end
return {n, ttl}
`)

// RedisLimiter allows Limit requests per Window per key, shared by every
// replica through Redis.
type RedisLimiter struct {
	rdb    redis.Scripter
	prefix string
	limit  int
	window time.Duration
}

func NewRedisLimiter(rdb redis.Scripter, namespace string, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		rdb:    rdb,
		prefix: namespace + ":ratelimit:",
		limit:  limit,
		window: window,
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (RateLimitResult, error) {
	vals, err := fixedWindow.Run(ctx, l.rdb, []string{l.prefix + key}, l.window.Milliseconds()).Int64Slice()
	if err != nil {
		return RateLimitResult{}, fmt.Errorf("ratelimit: %w", err)
	}
	if len(vals) != 2 {
		return RateLimitResult{}, fmt.Errorf("ratelimit: unexpected reply %v", vals)
	}
	count, ttl := int(vals[0]), time.Duration(vals[1])*time.Millisecond
	return RateLimitResult{
		Allowed:   count <= l.limit,
		Limit:     l.limit,
		Remaining: max(l.limit-count, 0),
		ResetIn:   ttl,
	}, nil
}

// RateLimit limits by client IP. Limiter errors fail open: the request
// goes through and the error is logged.
func RateLimit(l Limiter, log logger.LoggerInterface) func(http.Handler) http.Handler {
	if log == nil {
		log = logger.Nop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if l == nil {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()
			ip := ClientIPFrom(ctx)
			if ip == "" {
				ip = ClientIPFromRequest(r)
			}

			res, err := l.Allow(ctx, ip)
			if err != nil {
				log.WarnwCtx(ctx, "rate limit check failed", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(int64(res.ResetIn.Seconds()), 10))
			if !res.Allowed {
				apperrors.RateLimited(res.ResetIn).ToHTTPWithRetry(w, res.ResetIn)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
