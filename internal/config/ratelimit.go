package config

import "time"

// RateLimitConfig bounds login attempts per client IP and email.  A key
// starts with Attempts tries and regains one every Window; a successful
// login restores them all.
type RateLimitConfig struct {
    Enabled  bool
    Attempts int
    Window   time.Duration
    Prefix   string
}

// LoadRateLimitConfig reads RATE_LIMIT_ENABLED, RATE_LIMIT_ATTEMPTS,
// RATE_LIMIT_WINDOW and RATE_LIMIT_PREFIX.
func LoadRateLimitConfig() RateLimitConfig {
    rl := RateLimitConfig{
        Enabled:  envBool("RATE_LIMIT_ENABLED", true),
        Attempts: envInt("RATE_LIMIT_ATTEMPTS", 5),
        Window:   envDur("RATE_LIMIT_WINDOW", time.Minute),
        Prefix:   envStr("RATE_LIMIT_PREFIX", "rl:login"),
    }
    if rl.Attempts < 1 {
        rl.Attempts = 1
    }
    if rl.Window <= 0 {
        rl.Window = time.Minute
    }
    return rl
}

// TTL is how long an idle bucket needs to refill completely.
func (rl RateLimitConfig) TTL() time.Duration {
    return time.Duration(rl.Attempts) * rl.Window
}
