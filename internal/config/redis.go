package config

// Redis mirrors the role and user id of each browser session and backs
// the login rate limiter.  When it cannot be reached at startup the
// caller falls back to in-process storage.

import (
    "context"
    "crypto/tls"
    "log"
    "time"

    "github.com/redis/go-redis/v9"
)

// RedisConfig is read from:
//   REDIS_ENABLED – set to false to skip Redis entirely (default true)
//   REDIS_HOST and REDIS_PORT – hostname and port of the Redis server
//   REDIS_ADDR – host:port shorthand, used when host/port are not both set
//   REDIS_PASSWORD – optional password
//   REDIS_DB – database number (default 0)
//   REDIS_TLS – enable TLS when "true" or "1"
//   REDIS_SESSION_PREFIX – key prefix for session mirrors (default "session")
type RedisConfig struct {
    Enabled       bool
    Addr          string
    Password      string
    DB            int
    TLS           bool
    SessionPrefix string
}

func LoadRedisConfig() RedisConfig {
    rc := RedisConfig{
        Enabled:       envBool("REDIS_ENABLED", true),
        Addr:          envStr("REDIS_ADDR", "localhost:6379"),
        Password:      envStr("REDIS_PASSWORD", ""),
        DB:            envInt("REDIS_DB", 0),
        TLS:           envBool("REDIS_TLS", false),
        SessionPrefix: envStr("REDIS_SESSION_PREFIX", "session"),
    }
    if host, port := envStr("REDIS_HOST", ""), envStr("REDIS_PORT", ""); host != "" && port != "" {
        rc.Addr = host + ":" + port
    }
    return rc
}

// NewRedisClient connects using rc.  It returns nil when Redis is
// disabled or does not answer a ping within two seconds.
func NewRedisClient(rc RedisConfig) *redis.Client {
    if !rc.Enabled {
        return nil
    }
    var tlsConf *tls.Config
    if rc.TLS {
        tlsConf = &tls.Config{MinVersion: tls.VersionTLS12}
    }
    client := redis.NewClient(&redis.Options{
        Addr:      rc.Addr,
        Password:  rc.Password,
        DB:        rc.DB,
        TLSConfig: tlsConf,
    })
    ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
    defer cancel()
    if err := client.Ping(ctx).Err(); err != nil {
        log.Printf("redis: %s unreachable, using in-memory session store: %v", rc.Addr, err)
        _ = client.Close()
        return nil
    }
    return client
}
