package http

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/cechicaizae/ejercicio-recuperacion-v5/internal/config"
	apperrors "github.com/cechicaizae/ejercicio-recuperacion-v5/pkg/util/errorutil"
)

const loginRateKeyPrefix = "ratelimit:login:ip:"

var tokenBucketScript = redis.NewScript(`
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

	if interval_ms > 0 and refill_tokens > 0 then
		local elapsed = math.max(0, now_ms - last_refill)
		local intervals = math.floor(elapsed / interval_ms)
		if intervals > 0 then
			tokens = math.min(capacity, tokens + (intervals * refill_tokens))
			last_refill = last_refill + (intervals * interval_ms)
		end
	end

	local allowed = 0
	local retry_after_ms = 0
	if tokens > 0 then
		allowed = 1
		tokens = tokens - 1
	else
		local until_next = interval_ms - (now_ms - last_refill)
		if until_next < 0 then until_next = 0 end
		retry_after_ms = until_next
	end

	redis.call('HMSET', key, 'tokens', tokens, 'last_refill_ms', last_refill)
	redis.call('EXPIRE', key, ttl_seconds)

	return { allowed, tokens, retry_after_ms }
`)

type bucketDecision struct {
	allowed   bool
	remaining int64
	retryMs   int64
}

type takeFunc func(ctx context.Context, key string, now time.Time) (bucketDecision, error)

// LoginRateLimiter throttles credential exchanges per client IP with a
// token bucket kept in Redis. Redis failures let the request through.
type LoginRateLimiter struct {
	capacity int
	take     takeFunc
	logger   *zap.Logger
	now      func() time.Time
}

// NewLoginRateLimiter returns nil when limiting is disabled or no client is
// available; Handler on a nil limiter is a pass-through.
func NewLoginRateLimiter(cfg config.RateLimitConfig, rdb *redis.Client, logger *zap.Logger) *LoginRateLimiter {
	if !cfg.Enabled || rdb == nil {
		return nil
	}
	take := func(ctx context.Context, key string, now time.Time) (bucketDecision, error) {
		vals, err := tokenBucketScript.Run(ctx, rdb, []string{key},
			now.UnixMilli(),
			cfg.Capacity,
			cfg.RefillTokens,
			cfg.RefillInterval.Milliseconds(),
			int64(cfg.TTL/time.Second),
		).Result()
		if err != nil {
			return bucketDecision{}, err
		}
		return parseBucketResult(vals)
	}
	return &LoginRateLimiter{capacity: cfg.Capacity, take: take, logger: logger, now: time.Now}
}

// Handler returns the fiber middleware.
func (l *LoginRateLimiter) Handler() fiber.Handler {
	if l == nil {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	return func(c *fiber.Ctx) error {
		ip := c.IP()
		if ip == "" {
			ip = "unknown"
		}
		decision, err := l.take(c.UserContext(), loginRateKeyPrefix+ip, l.now())
		if err != nil {
			l.logger.Warn("login rate limit unavailable", zap.String("ip", ip), zap.Error(err))
			return c.Next()
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(l.capacity))
		c.Set("X-RateLimit-Remaining", strconv.FormatInt(decision.remaining, 10))
		if !decision.allowed {
			secs := int(math.Ceil(float64(decision.retryMs) / 1000.0))
			if secs < 0 {
				secs = 0
			}
			l.logger.Info("login throttled", zap.String("ip", ip), zap.Int("retry_after_seconds", secs))
			return apperrors.NewTooManyRequests(secs)
		}
		return c.Next()
	}
}

func parseBucketResult(vals interface{}) (bucketDecision, error) {
	arr, ok := vals.([]interface{})
	if !ok || len(arr) != 3 {
		return bucketDecision{}, fmt.Errorf("unexpected token bucket result %#v", vals)
	}
	return bucketDecision{
		allowed:   asInt64(arr[0]) == 1,
		remaining: asInt64(arr[1]),
		retryMs:   asInt64(arr[2]),
	}, nil
}

func asInt64(v interface{}) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case string:
		if n, err := strconv.ParseInt(t, 10, 64); err == nil {
			return n
		}
	}
	return 0
}
