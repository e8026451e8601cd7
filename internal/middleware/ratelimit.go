package middleware

import (
    "context"
    "math"
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/tobacco-detection-dashboard/internal/config"
)

// BlockedFunc renders the response for a client out of login attempts.
// retryAfter is in whole seconds.
type BlockedFunc func(c echo.Context, retryAfter int) error

// limiterClient is the part of *redis.Client the limiter uses.
type limiterClient interface {
    redis.Scripter
    Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// attemptScript takes one attempt from the bucket at KEYS[1], first
// adding back one attempt per elapsed window.
// ARGV: now_ms, attempts, window_ms, ttl_seconds.
// Returns {allowed, remaining, retry_after_ms}.
var attemptScript = redis.NewScript(`
local now = tonumber(ARGV[1])
local cap = tonumber(ARGV[2])
local window = tonumber(ARGV[3])

local state = redis.call('HMGET', KEYS[1], 'left', 'since')
local left = tonumber(state[1]) or cap
local since = tonumber(state[2]) or now

local regained = math.floor((now - since) / window)
if regained > 0 then
    left = math.min(cap, left + regained)
    since = since + regained * window
end
if left >= cap then
    since = now
end

if left < 1 then
    redis.call('EXPIRE', KEYS[1], ARGV[4])
    return {0, 0, window - (now - since)}
end

left = left - 1
redis.call('HSET', KEYS[1], 'left', left, 'since', since)
redis.call('EXPIRE', KEYS[1], ARGV[4])
return {1, left, 0}
`)

// LoginLimiter caps login attempts per client IP and email with a
// bucket kept in Redis, shared by every replica.  Reset restores a
// bucket after a successful login.  Without Redis, or when disabled, it
// allows everything.
type LoginLimiter struct {
    cfg config.RateLimitConfig
    rdb limiterClient
}

// NewLoginLimiter returns a limiter over rdb, which may be nil.
func NewLoginLimiter(cfg config.RateLimitConfig, rdb *redis.Client) *LoginLimiter {
    if rdb == nil {
        return &LoginLimiter{cfg: cfg}
    }
    return &LoginLimiter{cfg: cfg, rdb: rdb}
}

func (l *LoginLimiter) active() bool {
    return l != nil && l.cfg.Enabled && l.rdb != nil
}

func (l *LoginLimiter) key(c echo.Context) string {
    return l.cfg.Prefix + ":" + attemptKey(c)
}

// Guard takes one attempt per request and answers through onBlocked once
// the bucket is empty.  A nil onBlocked sends a 429 JSON body.  Redis
// errors let the request through.
func (l *LoginLimiter) Guard(onBlocked BlockedFunc) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if !l.active() {
                return next(c)
            }
            key := l.key(c)
            res, err := attemptScript.Run(c.Request().Context(), l.rdb, []string{key},
                time.Now().UnixMilli(),
                l.cfg.Attempts,
                l.cfg.Window.Milliseconds(),
                int64(l.cfg.TTL()/time.Second),
            ).Int64Slice()
            if err != nil || len(res) != 3 {
                c.Logger().Warnf("ratelimit: attempt check failed for %s: %v", key, err)
                return next(c)
            }

            c.Response().Header().Set("X-RateLimit-Remaining", strconv.FormatInt(res[1], 10))
            if res[0] == 1 {
                return next(c)
            }
            secs := int(math.Ceil(float64(res[2]) / 1000))
            c.Response().Header().Set("Retry-After", strconv.Itoa(secs))
            if onBlocked != nil {
                return onBlocked(c, secs)
            }
            return c.JSON(http.StatusTooManyRequests, echo.Map{"error": "Too many login attempts", "retryAfter": secs})
        }
    }
}

// Reset clears the caller's bucket.  Safe on a nil or inactive limiter.
func (l *LoginLimiter) Reset(c echo.Context) {
    if !l.active() {
        return
    }
    key := l.key(c)
    if err := l.rdb.Del(c.Request().Context(), key).Err(); err != nil {
        c.Logger().Warnf("ratelimit: reset failed for %s: %v", key, err)
    }
}
