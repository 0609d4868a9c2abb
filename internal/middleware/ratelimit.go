package middleware

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/iliyamo/store-rating/internal/config"
	"github.com/iliyamo/store-rating/internal/metrics"
)

const msgTooManyRequests = "Too many requests, please try again later"

// bucketScript implements a token bucket in a Redis hash.  It returns
// {allowed, remaining, retry_after_ms}.
var bucketScript = redis.NewScript(`
	local key = KEYS[1]
	local now_ms = tonumber(ARGV[1])
	local capacity = tonumber(ARGV[2])
	local refill_tokens = tonumber(ARGV[3])
	local interval_ms = tonumber(ARGV[4])
	local ttl_seconds = tonumber(ARGV[5])

	local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
	local tokens = tonumber(state[1])
	local last_refill = tonumber(state[2])

	if tokens == nil or last_refill == nil then
		tokens = capacity
		last_refill = now_ms
	end

	local elapsed = math.max(0, now_ms - last_refill)
	local intervals = math.floor(elapsed / interval_ms)
	if intervals > 0 then
		tokens = math.min(capacity, tokens + (intervals * refill_tokens))
		last_refill = last_refill + (intervals * interval_ms)
	end

	local allowed = 0
	local retry_after_ms = 0
	if tokens > 0 then
		allowed = 1
		tokens = tokens - 1
	else
		retry_after_ms = math.max(0, interval_ms - (now_ms - last_refill))
	end

	redis.call('HSET', key, 'tokens', tokens, 'last_refill_ms', last_refill)
	redis.call('EXPIRE', key, ttl_seconds)

	return { allowed, tokens, retry_after_ms }
`)

// RateLimiter throttles requests per key.  Buckets live in Redis so every
// replica shares them; when Redis is absent or failing, requests are
// checked against in-process limiters instead of being let through.
type RateLimiter struct {
	cfg config.RateLimitConfig
	rdb *redis.Client
	log *zap.Logger
	now func() time.Time

	mu    sync.Mutex
	local map[string]*rate.Limiter
}

// NewRateLimiter builds a limiter.  rdb may be nil.
func NewRateLimiter(cfg config.RateLimitConfig, rdb *redis.Client, log *zap.Logger) *RateLimiter {
	if log == nil {
		log = zap.NewNop()
	}
	return &RateLimiter{cfg: cfg, rdb: rdb, log: log, now: time.Now, local: make(map[string]*rate.Limiter)}
}

type verdict struct {
	allowed   bool
	remaining int64
	retry     time.Duration
}

// Middleware returns the echo middleware.  It is a pass-through when rate
// limiting is disabled.
func (rl *RateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if !rl.cfg.Enabled {
			return next
		}
		return func(c echo.Context) error {
			key := rateKey(rl.cfg, c)
			v, err := rl.take(c, key)
			if err != nil {
				rl.log.Warn("ratelimit: redis unavailable, using local bucket", zap.String("key", key), zap.Error(err))
				v = rl.takeLocal(key)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(rl.cfg.Capacity))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(v.remaining, 10))
			if !v.allowed {
				secs := int(math.Ceil(v.retry.Seconds()))
				if secs < 1 {
					secs = 1
				}
				h.Set("Retry-After", strconv.Itoa(secs))
				metrics.RateLimited.Inc()
				return echo.NewHTTPError(http.StatusTooManyRequests, msgTooManyRequests)
			}
			return next(c)
		}
	}
}

func (rl *RateLimiter) take(c echo.Context, key string) (verdict, error) {
	if rl.rdb == nil {
		return rl.takeLocal(key), nil
	}
	vals, err := bucketScript.Run(c.Request().Context(), rl.rdb, []string{key},
		rl.now().UnixMilli(),
		rl.cfg.Capacity,
		rl.cfg.RefillTokens,
		rl.cfg.RefillInterval.Milliseconds(),
		int64(rl.cfg.TTL/time.Second),
	).Int64Slice()
	if err != nil {
		return verdict{}, err
	}
	if len(vals) != 3 {
		return verdict{}, fmt.Errorf("unexpected script result %v", vals)
	}
	return verdict{allowed: vals[0] == 1, remaining: vals[1], retry: time.Duration(vals[2]) * time.Millisecond}, nil
}

// takeLocal refills RefillTokens every RefillInterval up to Capacity, the
// same shape as the Redis bucket.
func (rl *RateLimiter) takeLocal(key string) verdict {
	rl.mu.Lock()
	lim, ok := rl.local[key]
	if !ok {
		every := rl.cfg.RefillInterval / time.Duration(rl.cfg.RefillTokens)
		lim = rate.NewLimiter(rate.Every(every), rl.cfg.Capacity)
		rl.local[key] = lim
	}
	rl.mu.Unlock()

	now := rl.now()
	r := lim.ReserveN(now, 1)
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return verdict{retry: delay}
	}
	return verdict{allowed: true, remaining: int64(lim.TokensAt(now))}
}

func rateKey(cfg config.RateLimitConfig, c echo.Context) string {
	ip := c.RealIP()
	if ip == "" {
		ip = "unknown"
	}
	route := c.Request().Method + " " + c.Path()

	parts := []string{cfg.Prefix}
	switch strings.ToLower(cfg.KeyStrategy) {
	case "ip":
		parts = append(parts, "ip", ip)
	case "route":
		parts = append(parts, "route", route)
	case "ip_user":
		parts = append(parts, "ip", ip, "user", callerID(c))
	case "user_route":
		parts = append(parts, "user", callerID(c), "route", route)
	case "ip_route":
		parts = append(parts, "ip", ip, "route", route)
	default:
		parts = append(parts, "ip", ip, "user", callerID(c), "route", route)
	}
	return strings.Join(parts, ":")
}
